// Package probe wires the stages together: extract, check, tokenize,
// validate, execute, parse. Run never returns an error; every failure comes
// back as a Response with Error set.
package probe

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/codefionn/curlgate/internal/command"
	"github.com/codefionn/curlgate/internal/diagnostics"
	"github.com/codefionn/curlgate/internal/executor"
	"github.com/codefionn/curlgate/internal/logger"
	"github.com/codefionn/curlgate/internal/policy"
)

// Runner executes a validated argument vector. *executor.Executor is the
// production implementation.
type Runner interface {
	Execute(ctx context.Context, argv policy.ArgumentVector) (*executor.Outcome, error)
}

// Pipeline holds no per-call state and is safe for concurrent use.
type Pipeline struct {
	validator *policy.Validator
	runner    Runner
	parser    diagnostics.Parser
	log       *logger.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRunner replaces the process executor.
func WithRunner(r Runner) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.runner = r
		}
	}
}

// WithParser selects the diagnostic rule set.
func WithParser(parser diagnostics.Parser) Option {
	return func(p *Pipeline) {
		if parser != nil {
			p.parser = parser
		}
	}
}

// WithLogger sets the logger; the global logger is used otherwise.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPipeline returns a pipeline with the production executor and the
// default diagnostics rule set.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		validator: policy.New(),
		runner:    executor.New(),
		parser:    diagnostics.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parser returns the diagnostic rule set in use.
func (p *Pipeline) Parser() diagnostics.Parser { return p.parser }

func (p *Pipeline) currentLogger() *logger.Logger {
	if p.log != nil {
		return p.log
	}
	return logger.Global().WithPrefix("probe")
}

// Run takes caller text through the whole pipeline.
func (p *Pipeline) Run(ctx context.Context, text string) *Response {
	log := p.currentLogger()

	raw := command.Extract(text)
	digest := fmt.Sprintf("%016x", xxhash.Sum64String(raw))

	if err := p.validator.CheckRaw(raw); err != nil {
		log.Warn("%s: rejected before tokenizing: %v", digest, err)
		return failed(FailurePolicy, err, digest)
	}

	tokens, err := command.Tokenize(raw)
	if err != nil {
		log.Warn("%s: %v", digest, err)
		return failed(FailureLex, err, digest)
	}

	argv, err := p.validator.Validate(tokens)
	if err != nil {
		log.Warn("%s: rejected: %v", digest, err)
		return failed(FailurePolicy, err, digest)
	}
	log.Debug("%s: executing %q", digest, argv.Args())

	out, err := p.runner.Execute(ctx, argv)
	if err != nil {
		resp := failed(FailureExecution, err, digest)
		var execErr *executor.Error
		if errors.As(err, &execErr) {
			resp.execKind = execErr.Kind
			log.Warn("%s: %s", digest, execErr.Kind)
		} else {
			log.Error("%s: execution failed: %v", digest, err)
		}
		if out != nil {
			resp.exitCode = out.ExitCode
			resp.duration = out.Duration
		}
		return resp
	}

	resp := &Response{
		Data:        decodePayload(out.Stdout),
		exitCode:    out.ExitCode,
		duration:    out.Duration,
		stderrBytes: len(out.Stderr),
		digest:      digest,
	}
	resp.applyMetadata(p.parser.Parse(out.Stderr))

	// With -s curl prints no "curl: (N)" line, so the exit status is the
	// only signal left.
	if resp.Error == nil && out.ExitCode != 0 {
		msg := "curl exited with status " + strconv.Itoa(out.ExitCode)
		resp.Error = &msg
	}

	status := "-"
	if resp.StatusCode != nil {
		status = strconv.Itoa(*resp.StatusCode)
	}
	log.Info("%s: status=%s exit=%d stdout=%d stderr=%d in %s", digest, status, out.ExitCode, len(out.Stdout), len(out.Stderr), out.Duration)

	return resp
}

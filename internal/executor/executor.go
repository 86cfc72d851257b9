// Package executor runs a validated argument vector as a child process
// without a shell, under a wall-clock timeout and an output cap.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/codefionn/curlgate/internal/consts"
	"github.com/codefionn/curlgate/internal/logger"
	"github.com/codefionn/curlgate/internal/policy"
)

// Kind classifies an execution failure.
type Kind int

const (
	KindSpawn Kind = iota + 1
	KindTimeout
	KindOutputLimit
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindSpawn:
		return "failed to start command"
	case KindTimeout:
		return "command timed out"
	case KindOutputLimit:
		return "command output exceeded limit"
	case KindCanceled:
		return "command canceled"
	default:
		return "execution failed"
	}
}

// Error is returned when the child could not produce a usable outcome.
// A non-zero exit status is not an Error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Outcome is what the child left behind. ExitCode is -1 when the process
// never reported one.
type Outcome struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Executor is safe for concurrent use; every call owns its own buffers.
type Executor struct {
	timeout   time.Duration
	waitDelay time.Duration
	maxOutput int
}

// Option configures an Executor.
type Option func(*Executor)

// WithTimeout overrides the wall-clock limit. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxOutputBytes overrides the combined stdout+stderr cap.
func WithMaxOutputBytes(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxOutput = n
		}
	}
}

// New returns an Executor with production defaults.
func New(opts ...Option) *Executor {
	e := &Executor{
		timeout:   consts.ExecTimeout,
		waitDelay: consts.ExecWaitDelay,
		maxOutput: consts.MaxOutputBytes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs a vector that passed policy validation.
func (e *Executor) Execute(ctx context.Context, argv policy.ArgumentVector) (*Outcome, error) {
	return e.run(ctx, argv.Args())
}

func (e *Executor) run(ctx context.Context, argv []string) (*Outcome, error) {
	if len(argv) == 0 {
		return nil, &Error{Kind: KindSpawn, Err: errors.New("empty argument vector")}
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	out := newCappedOutput(e.maxOutput, cancel)

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Env = pathOnlyEnviron()
	cmd.Stdout = out.stdout
	cmd.Stderr = out.stderr
	configureProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessTree(cmd) }
	cmd.WaitDelay = e.waitDelay

	start := time.Now()
	err := cmd.Run()
	outcome := &Outcome{
		Stdout:   out.stdout.String(),
		Stderr:   out.stderr.String(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		outcome.ExitCode = cmd.ProcessState.ExitCode()
	}

	if out.Exceeded() {
		logger.Warn("executor: %s output exceeded %d bytes, killed after %s", argv[0], e.maxOutput, outcome.Duration)
		return outcome, &Error{Kind: KindOutputLimit, Err: fmt.Errorf("more than %d bytes", e.maxOutput)}
	}
	if err == nil {
		logger.Debug("executor: %s exited 0 in %s (stdout=%d stderr=%d)", argv[0], outcome.Duration, len(outcome.Stdout), len(outcome.Stderr))
		return outcome, nil
	}

	if ctxErr := runCtx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			logger.Warn("executor: %s killed after %s timeout", argv[0], e.timeout)
			return outcome, &Error{Kind: KindTimeout, Err: fmt.Errorf("no exit after %s", e.timeout)}
		}
		logger.Debug("executor: %s canceled: %v", argv[0], ctxErr)
		return outcome, &Error{Kind: KindCanceled, Err: ctxErr}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		logger.Debug("executor: %s exited %d in %s", argv[0], outcome.ExitCode, outcome.Duration)
		return outcome, nil
	}
	if errors.Is(err, exec.ErrWaitDelay) {
		// The child exited but something it spawned kept the pipes open.
		logger.Warn("executor: %s left output pipes open after exit", argv[0])
		return outcome, nil
	}

	logger.Error("executor: failed to start %s: %v", argv[0], err)
	return nil, &Error{Kind: KindSpawn, Err: err}
}

// pathOnlyEnviron passes PATH through and nothing else.
func pathOnlyEnviron() []string {
	env := []string{}
	if v, ok := os.LookupEnv("PATH"); ok {
		env = append(env, "PATH="+v)
	}
	return env
}

// cappedOutput bounds the combined size of stdout and stderr. Crossing the
// limit cancels the run.
type cappedOutput struct {
	mu       sync.Mutex
	limit    int
	total    int
	exceeded bool
	onExceed func()

	stdout *cappedBuffer
	stderr *cappedBuffer
}

type cappedBuffer struct {
	parent *cappedOutput
	buf    bytes.Buffer
}

func newCappedOutput(limit int, onExceed func()) *cappedOutput {
	o := &cappedOutput{limit: limit, onExceed: onExceed}
	o.stdout = &cappedBuffer{parent: o}
	o.stderr = &cappedBuffer{parent: o}
	return o
}

func (o *cappedOutput) Exceeded() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.exceeded
}

// Write never fails so the copying goroutine keeps draining the pipe until
// the kill lands.
func (b *cappedBuffer) Write(p []byte) (int, error) {
	o := b.parent
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.exceeded {
		return len(p), nil
	}
	room := o.limit - o.total
	if len(p) <= room {
		b.buf.Write(p)
		o.total += len(p)
		return len(p), nil
	}

	if room > 0 {
		b.buf.Write(p[:room])
	}
	o.total = o.limit
	o.exceeded = true
	if o.onExceed != nil {
		o.onExceed()
	}
	return len(p), nil
}

// String must only be called after the process has been waited for.
func (b *cappedBuffer) String() string {
	b.parent.mu.Lock()
	defer b.parent.mu.Unlock()
	return b.buf.String()
}

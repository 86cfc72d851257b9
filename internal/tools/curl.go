package tools

import (
	"context"
	"strings"
	"time"

	"github.com/codefionn/curlgate/internal/consts"
	"github.com/codefionn/curlgate/internal/executor"
	"github.com/codefionn/curlgate/internal/probe"
)

// CurlToolSpec describes the single-probe tool.
type CurlToolSpec struct{}

func (s *CurlToolSpec) Name() string {
	return ToolNameCurl
}

func (s *CurlToolSpec) Description() string {
	return `Run one HTTP(S) request with curl and return the decoded body plus response metadata (status code, content type, server, timing).
The command may be given as plain text ("curl -s https://host/path") or inside a curl` + "```...```" + ` fence.
Restrictions:
- exactly one http:// or https:// URL, without credentials
- allowed flags: -X, -H, -I, -s, --no-progress-meter, --compressed, -L, -m, --connect-timeout, --http1.1, --http2, -d, --data-raw, --data-binary, --data-urlencode, -v
- no shell syntax (| & ; < > backtick), no @file data, no output files
Use -v to get status code and headers.`
}

func (s *CurlToolSpec) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"command": map[string]interface{}{
				"type":        "string",
				"description": "The curl command, e.g. curl -s -v -H 'Accept: application/json' https://api.example.com/items",
			},
		},
		"required": []string{"command"},
	}
}

// CurlToolExecutor runs the probe pipeline for one command.
type CurlToolExecutor struct {
	pipeline *probe.Pipeline
}

// NewCurlToolFactory binds the tool to a pipeline.
func NewCurlToolFactory(pipeline *probe.Pipeline) ToolFactory {
	return func(_ *Registry) ToolExecutor {
		return &CurlToolExecutor{pipeline: pipeline}
	}
}

func (e *CurlToolExecutor) Execute(ctx context.Context, params map[string]interface{}) *ToolResult {
	command := GetStringParam(params, "command", "")
	if strings.TrimSpace(command) == "" {
		return &ToolResult{Error: "command is required"}
	}
	return runProbe(ctx, e.pipeline, command)
}

// runProbe runs one command and folds the response into a ToolResult.
func runProbe(ctx context.Context, pipeline *probe.Pipeline, command string) *ToolResult {
	start := time.Now()
	resp := pipeline.Run(ctx, command)
	end := time.Now()

	metadata := &ExecutionMetadata{
		StartTime:       &start,
		EndTime:         &end,
		DurationMs:      end.Sub(start).Milliseconds(),
		ExitCode:        resp.ExitCode(),
		StderrSizeBytes: resp.StderrBytes(),
		TimeoutSeconds:  int(consts.ExecTimeout / time.Second),
		ToolType:        ToolNameCurl,
		Details: map[string]interface{}{
			"digest":             resp.Digest(),
			"diagnostics_format": pipeline.Parser().Name(),
			"process_ms":         resp.Duration().Milliseconds(),
		},
	}

	result := &ToolResult{
		Result:            resp,
		ExecutionMetadata: metadata,
	}
	if resp.Error != nil {
		result.Error = *resp.Error
		metadata.ErrorType = classifyError(resp)
		metadata.ErrorContext = resp.Failure().String()
		metadata.WasTimedOut = metadata.ErrorType == "timeout"
	}
	return result
}

// classifyError attempts to categorize failures for summaries. Lex and
// policy failures keep their stage name, executor failures map from their
// kind, and the rest from curl's exit status.
func classifyError(resp *probe.Response) string {
	if resp.Error == nil {
		return ""
	}
	switch kind := resp.Failure(); kind {
	case probe.FailureLex, probe.FailurePolicy:
		return kind.String()
	case probe.FailureExecution:
		switch resp.ExecutionKind() {
		case executor.KindTimeout:
			return "timeout"
		case executor.KindOutputLimit:
			return "output_limit"
		case executor.KindSpawn:
			return "spawn"
		case executor.KindCanceled:
			return "canceled"
		default:
			return "unknown"
		}
	}
	return classifyExitCode(resp.ExitCode())
}

// classifyExitCode groups curl's documented exit codes.
func classifyExitCode(code int) string {
	switch code {
	case 0:
		return "unknown"
	case 5, 6, 7, 52, 55, 56:
		return "network"
	case 28:
		return "timeout"
	case 35, 51, 53, 54, 58, 59, 60, 64, 66, 77, 80, 82, 83, 90, 91:
		return "tls"
	default:
		return "process_exit"
	}
}

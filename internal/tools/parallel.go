package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codefionn/curlgate/internal/consts"
	"github.com/codefionn/curlgate/internal/logger"
	"github.com/codefionn/curlgate/internal/probe"
)

// ParallelCurlTool runs several commands through the pipeline with a bound
// on how many child processes are alive at once.
type ParallelCurlTool struct {
	pipeline      *probe.Pipeline
	maxConcurrent int
}

func NewParallelCurlTool(pipeline *probe.Pipeline, maxConcurrent int) *ParallelCurlTool {
	if maxConcurrent <= 0 {
		maxConcurrent = consts.DefaultMaxConcurrent
	}
	return &ParallelCurlTool{pipeline: pipeline, maxConcurrent: maxConcurrent}
}

func (t *ParallelCurlTool) Name() string {
	return ToolNameParallelCurl
}

func (t *ParallelCurlTool) Description() string {
	return fmt.Sprintf(`Run several independent curl commands concurrently (at most %d at a time, up to %d per call).
Each command follows the same rules as the curl tool and fails on its own; one rejected command does not stop the others.
Results are returned in the same order as the commands.`, t.maxConcurrent, consts.MaxParallelCommands)
}

func (t *ParallelCurlTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"commands": map[string]interface{}{
				"type":        "array",
				"description": "curl commands to run. Example: [\"curl -s https://a.example.com\", \"curl -s -I https://b.example.com\"]",
				"items": map[string]interface{}{
					"type": "string",
				},
				"maxItems": consts.MaxParallelCommands,
			},
		},
		"required": []string{"commands"},
	}
}

func (t *ParallelCurlTool) Execute(ctx context.Context, params map[string]interface{}) *ToolResult {
	if t.pipeline == nil {
		return &ToolResult{Error: "parallel curl pipeline is not configured"}
	}

	if _, exists := params["commands"]; !exists {
		return &ToolResult{Error: "commands is required"}
	}
	commands, ok := GetStringSliceParam(params, "commands")
	if !ok {
		return &ToolResult{Error: "commands must be an array of strings"}
	}
	if len(commands) > consts.MaxParallelCommands {
		return &ToolResult{Error: fmt.Sprintf("at most %d commands per call, got %d", consts.MaxParallelCommands, len(commands))}
	}
	for i, command := range commands {
		if strings.TrimSpace(command) == "" {
			return &ToolResult{Error: fmt.Sprintf("commands[%d] must be a non-empty string", i)}
		}
	}

	start := time.Now()
	results := make([]*ToolResult, len(commands))

	var g errgroup.Group
	g.SetLimit(t.maxConcurrent)
	for i, command := range commands {
		i, command := i, command
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = &ToolResult{Error: err.Error()}
				return nil
			}
			results[i] = runProbe(ctx, t.pipeline, command)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	items := make([]map[string]interface{}, len(results))
	for i, r := range results {
		item := map[string]interface{}{
			"index":    i,
			"response": r.Result,
		}
		if r.Error != "" {
			failed++
			item["error"] = r.Error
			if r.ExecutionMetadata != nil {
				item["error_type"] = r.ExecutionMetadata.ErrorType
			}
		}
		items[i] = item
	}

	end := time.Now()
	logger.Debug("parallel_curl: %d commands, %d failed, %s", len(commands), failed, end.Sub(start))

	return &ToolResult{
		Result: map[string]interface{}{
			"results":     items,
			"duration_ms": end.Sub(start).Milliseconds(),
		},
		ExecutionMetadata: &ExecutionMetadata{
			StartTime:  &start,
			EndTime:    &end,
			DurationMs: end.Sub(start).Milliseconds(),
			ToolType:   ToolNameParallelCurl,
			Details: map[string]interface{}{
				"count":          len(commands),
				"failed":         failed,
				"max_concurrent": t.maxConcurrent,
			},
		},
	}
}

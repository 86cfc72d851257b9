package tools

import (
	"context"
	"sort"
	"time"
)

// ToolSpec represents the static specification of a tool (name, description, parameters).
// It is what callers see in the schema and does not require any runtime dependencies.
type ToolSpec interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
}

// ToolExecutor handles the actual execution of a tool with specific runtime dependencies.
type ToolExecutor interface {
	Execute(ctx context.Context, params map[string]interface{}) *ToolResult
}

// Tool combines ToolSpec and ToolExecutor for tools without separate runtime state.
type Tool interface {
	ToolSpec
	ToolExecutor
}

// ToolFactory creates tool executors with specific runtime dependencies.
// The factory receives the registry so composite tools can reach their siblings.
type ToolFactory func(registry *Registry) ToolExecutor

// ToolCall is a single named invocation.
type ToolCall struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters"`
}

// ToolResult represents the result of a tool execution
type ToolResult struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result"`
	Error  string      `json:"error,omitempty"`

	ExecutionMetadata *ExecutionMetadata `json:"execution_metadata,omitempty"`
}

// ExecutionMetadata captures detailed information about tool execution
type ExecutionMetadata struct {
	// Timing information
	StartTime  *time.Time `json:"start_time,omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	DurationMs int64      `json:"duration_ms,omitempty"`

	// Process information
	ExitCode        int  `json:"exit_code,omitempty"`
	StderrSizeBytes int  `json:"stderr_size_bytes,omitempty"`
	TimeoutSeconds  int  `json:"timeout_seconds,omitempty"`
	WasTimedOut     bool `json:"was_timed_out,omitempty"`

	// Tool-specific metadata
	ToolType string                 `json:"tool_type,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`

	// Error classification
	ErrorType    string `json:"error_type,omitempty"` // "lex", "policy", "timeout", "output_limit", "network", ...
	ErrorContext string `json:"error_context,omitempty"`
}

type registryEntry struct {
	spec     ToolSpec
	executor ToolExecutor
}

// Registry manages available tools. Registration happens at startup; after
// that the registry is only read and may be shared across goroutines.
type Registry struct {
	entries map[string]*registryEntry
}

// NewRegistry creates an empty tool registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
	}
}

// Register adds a self-contained tool.
func (r *Registry) Register(tool Tool) {
	r.entries[tool.Name()] = &registryEntry{spec: tool, executor: tool}
}

// RegisterSpec adds a tool spec with a factory to the registry
func (r *Registry) RegisterSpec(spec ToolSpec, factory ToolFactory) {
	r.entries[spec.Name()] = &registryEntry{
		spec:     spec,
		executor: factory(r),
	}
}

// GetExecutor retrieves a tool executor by name
func (r *Registry) GetExecutor(name string) (ToolExecutor, bool) {
	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return entry.executor, true
}

// ListSpecs returns all registered tool specs ordered by name
func (r *Registry) ListSpecs() []ToolSpec {
	result := make([]ToolSpec, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, entry.spec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Execute executes a tool call
func (r *Registry) Execute(ctx context.Context, call *ToolCall) *ToolResult {
	entry, ok := r.entries[call.Name]
	if !ok {
		return &ToolResult{
			ID:    call.ID,
			Error: "tool not found: " + call.Name,
		}
	}

	if entry.executor == nil {
		return &ToolResult{
			ID:    call.ID,
			Error: "tool executor not available: " + call.Name,
		}
	}

	params := call.Parameters
	if params == nil {
		params = map[string]interface{}{}
	}

	result := entry.executor.Execute(ctx, params)
	if result == nil {
		return &ToolResult{
			ID:    call.ID,
			Error: "tool returned nil result",
		}
	}

	result.ID = call.ID
	return result
}

// ToJSONSchema converts tools to the function-calling schema format
func (r *Registry) ToJSONSchema() []map[string]interface{} {
	specs := r.ListSpecs()
	schemas := make([]map[string]interface{}, 0, len(specs))
	for _, spec := range specs {
		schemas = append(schemas, map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name":        spec.Name(),
				"description": spec.Description(),
				"parameters":  spec.Parameters(),
			},
		})
	}
	return schemas
}

// Helper function to get string parameter
func GetStringParam(params map[string]interface{}, key string, defaultVal string) string {
	if val, ok := params[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return defaultVal
}

// GetStringSliceParam accepts []string or a JSON-decoded []interface{} of
// strings. ok is false when the key is missing or any element is not a string.
func GetStringSliceParam(params map[string]interface{}, key string) (values []string, ok bool) {
	val, exists := params[key]
	if !exists {
		return nil, false
	}
	switch v := val.(type) {
	case []string:
		return append([]string(nil), v...), true
	case []interface{}:
		values = make([]string, 0, len(v))
		for _, item := range v {
			s, isString := item.(string)
			if !isString {
				return nil, false
			}
			values = append(values, s)
		}
		return values, true
	default:
		return nil, false
	}
}

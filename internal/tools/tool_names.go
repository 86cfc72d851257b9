package tools

const (
	ToolNameCurl         = "curl"
	ToolNameParallelCurl = "parallel_curl"
)

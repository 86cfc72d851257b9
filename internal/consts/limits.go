package consts

import "time"

// Program identity
const (
	// ProgramName is the only executable the pipeline will ever spawn
	ProgramName = "curl"
)

// Command text limits
const (
	// MaxCommandLength is the ceiling on raw command text, in characters
	MaxCommandLength = 20_000
	// MaxURLLength is the ceiling on the single bare URL argument
	MaxURLLength = 4096
	// MaxHeaderLength is the ceiling on a single header flag value
	MaxHeaderLength = 8192
)

// Buffer sizes for various operations
const (
	// BufferSize64KB is 64 kilobytes
	BufferSize64KB = 64 * 1024
	// BufferSize1MB is 1 megabyte
	BufferSize1MB = 1024 * 1024
	// MaxOutputBytes caps combined stdout+stderr of a probe (2 MiB)
	MaxOutputBytes = 2 * BufferSize1MB
	// MaxRequestBodyBytes caps HTTP API request bodies: a full command plus JSON envelope slack
	MaxRequestBodyBytes = 4*MaxCommandLength + BufferSize64KB
)

// Timeouts for various operations
const (
	// ExecTimeout is the wall-clock limit of a single probe process
	ExecTimeout = 15 * time.Second
	// ExecWaitDelay bounds how long we wait for pipes after the child is killed
	ExecWaitDelay = 1 * time.Second
	// Timeout5Seconds is a 5 second timeout
	Timeout5Seconds = 5 * time.Second
	// ServerReadHeaderTimeout guards the HTTP API against slow clients
	ServerReadHeaderTimeout = 10 * time.Second
	// ServerWriteTimeout leaves room for a full probe plus response encoding
	ServerWriteTimeout = ExecTimeout + 15*time.Second
)

// Concurrency
const (
	// DefaultMaxConcurrent is the default number of probes allowed in flight
	DefaultMaxConcurrent = 4
	// MaxParallelCommands caps the number of commands in one parallel_curl call
	MaxParallelCommands = 32
	// MaxServerConnections caps open connections to the HTTP API
	MaxServerConnections = 64
)

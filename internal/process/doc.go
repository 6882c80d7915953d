// Package process runs one encoder subprocess to completion.
//
// Process wraps os/exec:
//   - Arguments are passed as a slice, never re-split from a string
//   - Graceful stop with SIGINT on context cancellation or SIGINT/SIGTERM
//   - Force kill with SIGKILL if graceful stop times out
//   - Output streaming with pluggable log parsing and output handlers
//
// Tail is an OutputHandler that keeps the last lines of output, which the
// engine inspects to classify why a process failed.
package process

//go:build debug
// +build debug

package build

// LogLevel specifies a debug logging level.
const LogLevel = "debug"

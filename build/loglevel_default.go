//go:build !debug
// +build !debug

package build

// LogLevel specifies the level of the stderr logger used by stdlog builds.
const LogLevel = "info"

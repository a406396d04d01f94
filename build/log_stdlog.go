//go:build stdlog
// +build stdlog

package build

import "os"

// LoggingType is a log type that only writes to stderr.
const LoggingType = LogTypeStdErr

// Write writes the provided byte slice to stderr.
func (w *LogWriter) Write(b []byte) (int, error) {
	_, _ = os.Stderr.Write(b)
	return len(b), nil
}

package build

import (
	"fmt"
	"io"
	"strings"

	"github.com/btcsuite/btclog"
)

// LogType is an indicating the type of logging specified by the build flag.
type LogType byte

const (
	// LogTypeNone indicates no logging.
	LogTypeNone LogType = iota

	// LogTypeStdErr writes all log lines directly to stderr, keeping
	// stdout free for command output.
	LogTypeStdErr

	// LogTypeDefault logs to both the console writer and the log file
	// rotator.
	LogTypeDefault
)

// String returns a human readable identifier for the logging type.
func (t LogType) String() string {
	switch t {
	case LogTypeNone:
		return "none"
	case LogTypeStdErr:
		return "stderr"
	case LogTypeDefault:
		return "default"
	default:
		return "unknown"
	}
}

// LogWriter is a stub type whose behavior can be changed using the build flags
// "stdlog" and "nolog". The default behavior is to write to both the Console
// and the Rotator. Passing "stdlog" will cause it only to write to stderr, and
// "nolog" implements Write as a no-op.
type LogWriter struct {
	// Console receives every log line in default builds. Leaving it nil
	// disables console output.
	Console io.Writer

	// Rotator is the writer of the log rotator. It is written to by the
	// Write method of the LogWriter type. This only needs to be set if
	// neither the stdlog or nolog builds are set.
	Rotator io.Writer
}

// NewSubLogger constructs a new subsystem log from the current LogWriter
// implementation. This is primarily intended for use with stdlog, as the actual
// writer is shared amongst all instantiations.
func NewSubLogger(subsystem string,
	genSubLogger func(string) btclog.Logger) btclog.Logger {

	switch Deployment {

	// For production builds, generate a new subsystem logger from the
	// primary log backend. If no function is provided, logging will be
	// disabled.
	case Production:
		if genSubLogger != nil {
			return genSubLogger(subsystem)
		}

	// For development builds, we must handle two distinct types of logging:
	// unit tests and running the command line tool.
	case Development:
		switch LoggingType {
		case LogTypeDefault:
			if genSubLogger != nil {
				return genSubLogger(subsystem)
			}

		// Logging to stderr is used in unit tests. It is not important
		// that they share the same backend, since all output is written
		// to stderr.
		case LogTypeStdErr:
			backend := btclog.NewBackend(&LogWriter{})
			logger := backend.Logger(subsystem)

			// Set the logging level of the stderr logger to use the
			// configured logging level specified by build flags.
			level, _ := btclog.LevelFromString(LogLevel)
			logger.SetLevel(level)

			return logger
		}
	}

	// For any other configurations, we'll disable logging.
	return btclog.Disabled
}

// SubLoggers is a type that holds a map of subsystem loggers keyed by their
// subsystem name.
type SubLoggers map[string]btclog.Logger

// LeveledSubLogger provides the ability to retrieve the subsystem loggers of
// a logger and set their log levels individually or all at once.
type LeveledSubLogger interface {
	// SubLoggers returns the map of all registered subsystem loggers.
	SubLoggers() SubLoggers

	// SupportedSubsystems returns a slice of strings containing the names
	// of the supported subsystems. Should ideally correspond to the keys
	// of the subsystem logger map and be sorted.
	SupportedSubsystems() []string

	// SetLogLevel assigns an individual subsystem logger a new log level.
	SetLogLevel(subsystemID string, logLevel string)

	// SetLogLevels assigns all subsystem loggers the same new log level.
	SetLogLevels(logLevel string)
}

// debugLevels is a parsed --debuglevel value.
type debugLevels struct {
	// global is the level for all subsystems, or empty if only
	// individual subsystems are targeted.
	global string

	// subsystems holds the subsystem/level pairs in the order given.
	subsystems [][2]string
}

// parseDebugLevels splits a debug level specification of the form
// "level", "subsys=level,..." or "level,subsys=level,..." and validates
// every level in it.
func parseDebugLevels(level string) (*debugLevels, error) {
	if level == "" {
		return nil, fmt.Errorf("invalid log level: %v", level)
	}

	var (
		parsed debugLevels
		levels = strings.Split(level, ",")
	)

	// If the first entry has no =, treat is as the log level for all
	// subsystems.
	if !strings.Contains(levels[0], "=") {
		if !validLogLevel(levels[0]) {
			return nil, fmt.Errorf("the specified debug level "+
				"[%v] is invalid", levels[0])
		}

		parsed.global = levels[0]
		levels = levels[1:]
	}

	for _, logLevelPair := range levels {
		fields := strings.Split(logLevelPair, "=")
		if len(fields) != 2 {
			return nil, fmt.Errorf("the specified debug level "+
				"has an invalid format [%v] -- use format "+
				"subsystem1=level1,subsystem2=level2",
				logLevelPair)
		}

		if !validLogLevel(fields[1]) {
			return nil, fmt.Errorf("the specified debug level "+
				"[%v] is invalid", fields[1])
		}

		parsed.subsystems = append(
			parsed.subsystems, [2]string{fields[0], fields[1]},
		)
	}

	return &parsed, nil
}

// ParseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly on the given logger. An appropriate error is returned
// if anything is invalid, in which case no level is changed.
func ParseAndSetDebugLevels(level string, logger LeveledSubLogger) error {
	parsed, err := parseDebugLevels(level)
	if err != nil {
		return err
	}

	// Validate all subsystems before touching any level.
	subLoggers := logger.SubLoggers()
	for _, pair := range parsed.subsystems {
		if _, exists := subLoggers[pair[0]]; !exists {
			return fmt.Errorf("the specified subsystem [%v] is "+
				"invalid -- supported subsystems are %v",
				pair[0], logger.SupportedSubsystems())
		}
	}

	if parsed.global != "" {
		logger.SetLogLevels(parsed.global)
	}
	for _, pair := range parsed.subsystems {
		logger.SetLogLevel(pair[0], pair[1])
	}

	return nil
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace", "debug", "info", "warn", "error", "critical", "off":
		return true
	}

	return false
}

package build

import (
	"io"
	"sort"
	"sync"

	"github.com/btcsuite/btclog"
)

// LogManager owns the log backend of a program and every subsystem logger
// created from it. It implements LeveledSubLogger.
type LogManager struct {
	backend *btclog.Backend

	mu         sync.Mutex
	subLoggers SubLoggers
}

// A compile time check to ensure LogManager implements the LeveledSubLogger
// interface.
var _ LeveledSubLogger = (*LogManager)(nil)

// NewLogManager creates a log manager whose loggers write to the console
// writer and the rotating log writer. Either may be nil. The rotating writer
// may be uninitialized, in which case the file output is dropped until
// InitLogRotator is called.
func NewLogManager(console io.Writer, rotator *RotatingLogWriter) *LogManager {
	writer := &LogWriter{
		Console: console,
	}
	if rotator != nil {
		writer.Rotator = rotator
	}

	return &LogManager{
		backend:    btclog.NewBackend(writer),
		subLoggers: make(SubLoggers),
	}
}

// GenSubLogger creates a new subsystem logger from the backend of the
// manager. It can be passed to NewSubLogger.
func (m *LogManager) GenSubLogger(tag string) btclog.Logger {
	return m.backend.Logger(tag)
}

// RegisterSubLogger registers a new subsystem logger so its level can be
// changed later on.
func (m *LogManager) RegisterSubLogger(subsystem string,
	logger btclog.Logger) {

	m.mu.Lock()
	defer m.mu.Unlock()

	m.subLoggers[subsystem] = logger
}

// SubLoggers returns all currently registered subsystem loggers for this log
// manager.
//
// NOTE: This is part of the LeveledSubLogger interface.
func (m *LogManager) SubLoggers() SubLoggers {
	m.mu.Lock()
	defer m.mu.Unlock()

	subLoggers := make(SubLoggers, len(m.subLoggers))
	for subsystem, logger := range m.subLoggers {
		subLoggers[subsystem] = logger
	}

	return subLoggers
}

// SupportedSubsystems returns a sorted string slice of all keys in the
// subsystems map, so the user knows which ones are supported.
//
// NOTE: This is part of the LeveledSubLogger interface.
func (m *LogManager) SupportedSubsystems() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	subsystems := make([]string, 0, len(m.subLoggers))
	for subsysID := range m.subLoggers {
		subsystems = append(subsystems, subsysID)
	}

	// Sort the subsystems for stable display.
	sort.Strings(subsystems)

	return subsystems
}

// SetLogLevel sets the logging level for provided subsystem. Invalid
// subsystems are ignored.
//
// NOTE: This is part of the LeveledSubLogger interface.
func (m *LogManager) SetLogLevel(subsystemID string, logLevel string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Ignore invalid subsystems.
	logger, ok := m.subLoggers[subsystemID]
	if !ok {
		return
	}

	// Defaults to info if the log level is invalid.
	level, _ := btclog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// SetLogLevels sets the log level for all subsystem loggers to the passed
// level.
//
// NOTE: This is part of the LeveledSubLogger interface.
func (m *LogManager) SetLogLevels(logLevel string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	level, _ := btclog.LevelFromString(logLevel)
	for _, logger := range m.subLoggers {
		logger.SetLevel(level)
	}
}

package main

import (
	"io"
	"os"

	"github.com/btcsuite/btclog"
	"github.com/davecgh/go-spew/spew"
	"github.com/lightningnetwork/hdkey/build"
	"github.com/lightningnetwork/hdkey/hdcfg"
	"github.com/lightningnetwork/hdkey/hdkey"
	"github.com/lightningnetwork/hdkey/keychain"
)

// Subsystem defines the logging code of the command line tool itself.
const Subsystem = "HCLI"

var (
	// logRotator is the rotating log file of the current invocation. It
	// must be closed before the program exits.
	logRotator *build.RotatingLogWriter

	// logMgr holds every subsystem logger so their levels can be set from
	// the debuglevel option.
	logMgr *build.LogManager

	log = btclog.Disabled
)

// setupLoggers creates the log backend for the given config, hooks up the
// loggers of all library packages and applies the configured debug level.
// Log lines go to stderr so they never mix with the JSON on stdout.
func setupLoggers(cfg *hdcfg.Config) error {
	var console io.Writer = os.Stderr
	if cfg.LogConfig.Console.Disable {
		console = nil
	}

	logRotator = build.NewRotatingLogWriter()
	logMgr = build.NewLogManager(console, logRotator)

	log = addSubLogger(logMgr, Subsystem)
	addSubLogger(logMgr, hdkey.Subsystem, hdkey.UseLogger)
	addSubLogger(logMgr, keychain.Subsystem, keychain.UseLogger)

	if !cfg.LogConfig.File.Disable {
		err := logRotator.InitLogRotator(
			cfg.LogConfig.File, cfg.LogFile(),
		)
		if err != nil {
			return err
		}
	}

	return build.ParseAndSetDebugLevels(cfg.DebugLevel, logMgr)
}

// closeLoggers flushes and closes the log file, if one was opened.
func closeLoggers() error {
	if logRotator == nil {
		return nil
	}

	err := logRotator.Close()
	logRotator = nil

	return err
}

// addSubLogger creates a logger for the subsystem, registers it with the log
// manager and hands it to every useLogger function.
func addSubLogger(mgr *build.LogManager, subsystem string,
	useLoggers ...func(btclog.Logger)) btclog.Logger {

	logger := build.NewSubLogger(subsystem, mgr.GenSubLogger)
	mgr.RegisterSubLogger(subsystem, logger)

	for _, useLogger := range useLoggers {
		useLogger(logger)
	}

	return logger
}

// logClosure is used to provide a closure over expensive logging operations
// so they aren't performed when the logging level doesn't warrant it.
type logClosure func() string

// String invokes the underlying function and returns the result.
func (c logClosure) String() string {
	return c()
}

// spewClosure returns a log closure that dumps the value with spew.
func spewClosure(v interface{}) logClosure {
	return func() string {
		return spew.Sdump(v)
	}
}

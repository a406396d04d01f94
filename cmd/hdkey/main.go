package main

import (
	"fmt"
	"os"

	"github.com/lightningnetwork/hdkey/hdcfg"
	"github.com/urfave/cli"
)

// cfg is the configuration of the current invocation, loaded before any
// command runs.
var cfg *hdcfg.Config

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[hdkey] %v\n", err)
	os.Exit(1)
}

// loadConfig reads the config file and applies the global command line flags
// on top of it.
func loadConfig(ctx *cli.Context) (*hdcfg.Config, error) {
	loaded, err := hdcfg.LoadConfig(ctx.GlobalString("configfile"))
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if ctx.GlobalIsSet("network") {
		loaded.Network = ctx.GlobalString("network")
	}
	if ctx.GlobalIsSet("debuglevel") {
		loaded.DebugLevel = ctx.GlobalString("debuglevel")
	}
	if ctx.GlobalIsSet("logdir") {
		loaded.LogDir = ctx.GlobalString("logdir")
	}
	if ctx.GlobalBool("nologfile") {
		loaded.LogConfig.File.Disable = true
	}

	if err := loaded.Validate(); err != nil {
		return nil, err
	}

	return loaded, nil
}

func before(ctx *cli.Context) error {
	var err error
	cfg, err = loadConfig(ctx)
	if err != nil {
		return err
	}

	if err := setupLoggers(cfg); err != nil {
		return fmt.Errorf("unable to set up logging: %w", err)
	}

	log.Debugf("Loaded config: %v", spewClosure(cfg))

	return nil
}

func after(_ *cli.Context) error {
	return closeLoggers()
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "hdkey"
	app.Usage = "derive and inspect hierarchical deterministic keys"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:      "configfile, C",
			Value:     hdcfg.DefaultConfigFile,
			Usage:     "The path to the config file.",
			TakesFile: true,
		},
		cli.StringFlag{
			Name: "network, n",
			Usage: "The network extended keys are encoded for " +
				"(mainnet, testnet).",
			Value: "mainnet",
		},
		cli.StringFlag{
			Name: "debuglevel, d",
			Usage: "The logging level for all subsystems, or " +
				"<global-level>,<subsystem>=<level>,... to " +
				"set the level of individual subsystems.",
		},
		cli.StringFlag{
			Name:      "logdir",
			Usage:     "The directory to write the log file to.",
			TakesFile: true,
		},
		cli.BoolFlag{
			Name:  "nologfile",
			Usage: "Don't write a log file.",
		},
	}
	app.Before = before
	app.After = after
	app.Commands = []cli.Command{
		newSeedCommand,
		newMnemonicCommand,
		masterCommand,
		deriveCommand,
		childCommand,
		neuterCommand,
		inspectCommand,
		accountCommand,
	}

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		_ = closeLoggers()
		fatal(err)
	}
}

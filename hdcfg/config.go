package hdcfg

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"
	"github.com/lightningnetwork/hdkey/build"
	"github.com/lightningnetwork/hdkey/hdkey"
	"github.com/lightningnetwork/hdkey/keychain"
)

const (
	// DefaultConfigFilename is the name of the config file inside the
	// base directory.
	DefaultConfigFilename = "hdkey.conf"

	// DefaultLogFilename is the name of the log file inside the log
	// directory.
	DefaultLogFilename = "hdkey.log"

	defaultLogDirname = "logs"
	defaultNetwork    = "mainnet"
	defaultPurpose    = keychain.BIP0044Purpose

	// networkCoinType selects the coin type of the configured network.
	networkCoinType = -1
)

var (
	// DefaultHDDir is the base directory holding the config file and
	// the logs.
	DefaultHDDir = btcutil.AppDataDir("hdkey", false)

	// DefaultConfigFile is the default full path of the config file.
	DefaultConfigFile = filepath.Join(DefaultHDDir, DefaultConfigFilename)

	defaultLogDir = filepath.Join(DefaultHDDir, defaultLogDirname)
)

// Config holds the options of the hdkey command line tool. Every field can be
// set in the ini config file; the network, debug level and directories can
// additionally be overridden by global command line flags.
//
//nolint:lll
type Config struct {
	HDDir      string `long:"hddir" description:"The base directory that contains the config file and the logs."`
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file."`
	LogDir     string `long:"logdir" description:"Directory to log output."`

	Network    string `long:"network" description:"The network extended keys are encoded for." choice:"mainnet" choice:"testnet"`
	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <global-level>,<subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems."`

	Purpose  uint32 `long:"purpose" description:"The BIP-43 purpose of the key ring hierarchy."`
	CoinType int64  `long:"cointype" description:"The BIP-44 coin type of the key ring hierarchy. -1 selects the coin type of the network."`

	LogConfig *build.LogConfig `group:"logging" namespace:"logging"`

	// net is the parsed network, set by Validate.
	net hdkey.Network
}

// DefaultConfig returns all default values for the Config struct.
func DefaultConfig() Config {
	return Config{
		HDDir:      DefaultHDDir,
		ConfigFile: DefaultConfigFile,
		LogDir:     defaultLogDir,
		Network:    defaultNetwork,
		DebugLevel: build.LogLevel,
		Purpose:    defaultPurpose,
		CoinType:   networkCoinType,
		LogConfig:  build.DefaultLogConfig(),
	}
}

// LoadConfig initializes the config from the defaults and the ini file at
// configFile, then validates it. An empty configFile selects the default
// location. A missing config file is not an error, a malformed one is.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile != "" {
		cfg.ConfigFile = configFile
	}

	configFilePath := CleanAndExpandPath(cfg.ConfigFile)
	if err := flags.IniParse(configFilePath, &cfg); err != nil {
		// If it's a parsing related error, then we'll return
		// immediately, otherwise we can proceed as possibly the config
		// file doesn't exist which is OK.
		if _, ok := err.(*flags.IniError); ok {
			return nil, err
		}

		// Unknown sections are reported as a plain flags error and
		// are just as fatal.
		if fErr, ok := err.(*flags.Error); ok &&
			fErr.Type == flags.ErrUnknownGroup {

			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration to be sane and normalizes all file system
// paths. It may be called again after individual fields were overridden.
func (c *Config) Validate() error {
	net, err := hdkey.ParseNetwork(c.Network)
	if err != nil {
		return fmt.Errorf("invalid network: %w", err)
	}
	c.net = net

	if c.Purpose >= hdkey.HardenedKeyStart {
		return fmt.Errorf("purpose %d out of range, must be below %d",
			c.Purpose, hdkey.HardenedKeyStart)
	}

	if c.CoinType < networkCoinType ||
		c.CoinType >= int64(hdkey.HardenedKeyStart) {

		return fmt.Errorf("coin type %d out of range, must be -1 or "+
			"below %d", c.CoinType, hdkey.HardenedKeyStart)
	}

	if c.LogConfig == nil {
		c.LogConfig = build.DefaultLogConfig()
	}
	if err := c.LogConfig.Validate(); err != nil {
		return err
	}

	// If the base directory is not the default, the log directory moves
	// along with it unless it was set explicitly.
	hdDir := CleanAndExpandPath(c.HDDir)
	if hdDir != DefaultHDDir && CleanAndExpandPath(c.LogDir) ==
		defaultLogDir {

		c.LogDir = filepath.Join(hdDir, defaultLogDirname)
	}

	c.HDDir = hdDir
	c.ConfigFile = CleanAndExpandPath(c.ConfigFile)
	c.LogDir = CleanAndExpandPath(c.LogDir)

	return nil
}

// Net returns the network selected by the config. Only meaningful after
// Validate succeeded.
func (c *Config) Net() hdkey.Network {
	return c.net
}

// KeyScope returns the purpose and coin type pair of the key ring. A negative
// coin type selects the coin type of the configured network.
func (c *Config) KeyScope() keychain.KeyScope {
	scope := keychain.DefaultScope(c.net)
	scope.Purpose = c.Purpose
	if c.CoinType != networkCoinType {
		scope.Coin = uint32(c.CoinType)
	}

	return scope
}

// LogFile returns the full path of the rotated log file.
func (c *Config) LogFile() string {
	return filepath.Join(c.LogDir, DefaultLogFilename)
}

// CleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func CleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	return filepath.Clean(os.ExpandEnv(path))
}

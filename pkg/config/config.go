// Package config merges the config file, PHOTOSORT_* environment variables and
// command-line flags into the effective settings of a run.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. PHOTOSORT_DRY_RUN.
const EnvPrefix = "PHOTOSORT"

// Keys, and the flag names they bind to.
const (
	KeySource    = "source"
	KeyTarget    = "target"
	KeyDryRun    = "dry_run"
	KeyVerbose   = "verbose"
	KeyLogFormat = "log_format"
	KeyJournal   = "journal"
	KeyMaxDepth  = "max_depth"
	KeyJSON      = "json"
	KeyProgress  = "progress"
)

var flagNames = map[string]string{
	KeySource:    "source",
	KeyTarget:    "target",
	KeyDryRun:    "dry-run",
	KeyVerbose:   "verbose",
	KeyLogFormat: "log-format",
	KeyJournal:   "journal",
	KeyMaxDepth:  "max-depth",
	KeyJSON:      "json",
	KeyProgress:  "progress",
}

// Config is the effective configuration.
type Config struct {
	Source    string `mapstructure:"source"`
	Target    string `mapstructure:"target"`
	DryRun    bool   `mapstructure:"dry_run"`
	Verbose   bool   `mapstructure:"verbose"`
	LogFormat string `mapstructure:"log_format"`
	Journal   string `mapstructure:"journal"`
	MaxDepth  int    `mapstructure:"max_depth"`
	JSON      bool   `mapstructure:"json"`
	Progress  bool   `mapstructure:"progress"`
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyMaxDepth, -1)
	v.SetDefault(KeyProgress, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds every known flag present in flags to its key. Flags that
// were not set on the command line do not override the file or environment.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range flagNames {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// ReadFile loads path into v. With an empty path, photosort.yaml is looked up
// in the user config directory and the working directory, and a missing file
// is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("photosort")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "photosort"))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes and checks the effective configuration.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("invalid %s %q: want text or json", KeyLogFormat, cfg.LogFormat)
	}
	if cfg.MaxDepth < -1 {
		return Config{}, fmt.Errorf("invalid %s %d: want -1 or more", KeyMaxDepth, cfg.MaxDepth)
	}
	return cfg, nil
}

// NewLogger builds the run logger: Debug when verbose, Info otherwise, in the
// configured format.
func NewLogger(cfg Config, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

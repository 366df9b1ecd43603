// Package config provides functionality for managing configuration options
// for the client binaries using command-line flags, an optional config file
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Options holds the configuration values for the client.
type Options struct {
	// APIURL is the base address of the expedientes service, e.g.
	// http://localhost:3000/api.
	APIURL string

	// SessionBackend selects where the session is persisted: "file" or "postgres".
	SessionBackend string

	// SessionFile is the JSON file used by the file backend.
	SessionFile string

	// DatabaseDSN is the PostgreSQL connection string for the postgres backend.
	DatabaseDSN string

	// LogLevel is the zap level name.
	LogLevel string

	// RedirectDelay is how long the login redirect waits after a session
	// expiry notification.
	RedirectDelay time.Duration

	// RequestTimeout bounds each outbound HTTP call. Zero keeps the
	// transport default.
	RequestTimeout time.Duration

	// ExportDir is where exported spreadsheets are saved by the shell.
	ExportDir string

	// ConsoleAddr is the listen address of the HTTP console.
	ConsoleAddr string

	// CAFile is an optional PEM bundle trusted in addition to the system roots.
	CAFile string

	// HealthInterval is the polling period of the health watcher.
	HealthInterval time.Duration

	// SessionRetention is how long an untouched persisted session survives
	// in the postgres backend.
	SessionRetention time.Duration

	// Config is the path to the config file.
	Config string

	// ShowVersion asks the binary to print its build metadata and exit.
	ShowVersion bool
}

const envPrefix = "EXPEDIENTES"

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "http://localhost:3000/api")
	v.SetDefault("session_backend", "file")
	v.SetDefault("session_file", "session.json")
	v.SetDefault("database_dsn", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("redirect_delay", "1500ms")
	v.SetDefault("request_timeout", "0s")
	v.SetDefault("export_dir", ".")
	v.SetDefault("console_addr", "localhost:5173")
	v.SetDefault("ca_file", "")
	v.SetDefault("health_interval", "30s")
	v.SetDefault("session_retention", "720h")
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("url", "u", "", "expedientes API base URL")
	fs.String("session-backend", "", "session persistence: file | postgres")
	fs.String("session-file", "", "path of the session file")
	fs.StringP("dsn", "d", "", "postgres DSN for the postgres session backend")
	fs.String("log-level", "", "log level")
	fs.String("export-dir", "", "directory for exported spreadsheets")
	fs.StringP("addr", "a", "", "console listen address")
	fs.String("ca", "", "path to an extra CA bundle")
	fs.StringP("config", "c", "", "path to config file")
	fs.Bool("version", false, "show build version and date")
	return fs
}

var flagKeys = map[string]string{
	"url":             "api_url",
	"session-backend": "session_backend",
	"session-file":    "session_file",
	"dsn":             "database_dsn",
	"log-level":       "log_level",
	"export-dir":      "export_dir",
	"addr":            "console_addr",
	"ca":              "ca_file",
}

// Parse parses args, then layers config file, environment (EXPEDIENTES_*)
// and defaults underneath. Flags win over environment, environment over
// the file, the file over defaults.
func Parse(name string, args []string) (*Options, error) {
	fs := newFlagSet(name)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	for flagName, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flagName, err)
		}
	}

	configPath, _ := fs.GetString("config")
	if configPath == "" {
		configPath = v.GetString("config")
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error while reading config file: %w", err)
		}
	}

	opts := &Options{
		APIURL:           strings.TrimRight(v.GetString("api_url"), "/"),
		SessionBackend:   v.GetString("session_backend"),
		SessionFile:      v.GetString("session_file"),
		DatabaseDSN:      v.GetString("database_dsn"),
		LogLevel:         v.GetString("log_level"),
		RedirectDelay:    v.GetDuration("redirect_delay"),
		RequestTimeout:   v.GetDuration("request_timeout"),
		ExportDir:        v.GetString("export_dir"),
		ConsoleAddr:      v.GetString("console_addr"),
		CAFile:           v.GetString("ca_file"),
		HealthInterval:   v.GetDuration("health_interval"),
		SessionRetention: v.GetDuration("session_retention"),
		Config:           configPath,
	}
	opts.ShowVersion, _ = fs.GetBool("version")
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return opts, nil
}

// Validate checks that the options are usable.
func (o *Options) Validate() error {
	if o.APIURL == "" {
		return errors.New("api_url is required")
	}
	u, err := url.Parse(o.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_url %q is not an absolute URL (e.g. http://localhost:3000/api)", o.APIURL)
	}
	switch o.SessionBackend {
	case "file":
		if o.SessionFile == "" {
			return errors.New("session_file is required for the file backend")
		}
	case "postgres":
		if o.DatabaseDSN == "" {
			return errors.New("database_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown session_backend %q", o.SessionBackend)
	}
	if o.RedirectDelay <= 0 {
		return errors.New("redirect_delay must be positive")
	}
	return nil
}

// Package config provides functionality for managing configuration options
// for the application using command-line flags, a config file and
// environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Auth modes.
const (
	AuthCookie = "cookie"
	AuthCert   = "cert"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string

	// DatabaseDSN holds the database connection string, or the database file
	// path for the sqlite driver.
	DatabaseDSN string

	// StoreDriver selects the catalog store backend: postgres or sqlite.
	StoreDriver string

	// Config is the path to the Config file.
	Config string

	// BotToken authenticates Telegram Bot API calls.
	BotToken string

	// TelegramURL is the Bot API base URL.
	TelegramURL string

	// TelegramRPS caps outbound Bot API requests per second; 0 disables it.
	TelegramRPS float64

	// StreamTimeout bounds the file description call of the stream proxy.
	StreamTimeout time.Duration

	// SyncInterval enables periodic synchronization when positive.
	SyncInterval time.Duration

	// SeedFile is the JSON track list imported by /api/migrate.
	SeedFile string

	// AccessCookie is the cookie name checked by the cookie gate.
	AccessCookie string

	// AuthMode is cookie or cert.
	AuthMode string

	TLSCert     string
	TLSKey      string
	TLSClientCA string

	LogLevel string
}

// fileOptions is the config file layout. Durations are strings such as "8s".
type fileOptions struct {
	ServerAddress string  `json:"server_address" toml:"server_address"`
	DatabaseDSN   string  `json:"database_dsn" toml:"database_dsn"`
	StoreDriver   string  `json:"store_driver" toml:"store_driver"`
	BotToken      string  `json:"bot_token" toml:"bot_token"`
	TelegramURL   string  `json:"telegram_url" toml:"telegram_url"`
	TelegramRPS   float64 `json:"telegram_rps" toml:"telegram_rps"`
	StreamTimeout string  `json:"stream_timeout" toml:"stream_timeout"`
	SyncInterval  string  `json:"sync_interval" toml:"sync_interval"`
	SeedFile      string  `json:"seed_file" toml:"seed_file"`
	AccessCookie  string  `json:"access_cookie" toml:"access_cookie"`
	AuthMode      string  `json:"auth_mode" toml:"auth_mode"`
	TLSCert       string  `json:"tls_cert" toml:"tls_cert"`
	TLSKey        string  `json:"tls_key" toml:"tls_key"`
	TLSClientCA   string  `json:"tls_client_ca" toml:"tls_client_ca"`
	LogLevel      string  `json:"log_level" toml:"log_level"`
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	register(flag.CommandLine, options)
}

func register(fs *flag.FlagSet, o *Options) {
	fs.StringVar(&o.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&o.DatabaseDSN, "d", "", "db address (file path for sqlite)")
	fs.StringVar(&o.StoreDriver, "driver", "postgres", "catalog store driver: postgres or sqlite")
	fs.StringVar(&o.Config, "config", "config.json", "path to config file (.json or .toml)")
	fs.StringVar(&o.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&o.BotToken, "token", "", "telegram bot token")
	fs.StringVar(&o.TelegramURL, "telegram-url", "https://api.telegram.org", "telegram bot api base url")
	fs.Float64Var(&o.TelegramRPS, "telegram-rps", 20, "max telegram requests per second, 0 for unlimited")
	fs.DurationVar(&o.StreamTimeout, "stream-timeout", 8*time.Second, "file metadata timeout for streaming")
	fs.DurationVar(&o.SyncInterval, "sync-interval", 0, "periodic sync interval, 0 disables")
	fs.StringVar(&o.SeedFile, "seed", "data/songs.json", "seed catalog file for /api/migrate")
	fs.StringVar(&o.AccessCookie, "cookie", "rivon-access", "access cookie name")
	fs.StringVar(&o.AuthMode, "auth", AuthCookie, "auth mode: cookie or cert")
	fs.StringVar(&o.TLSCert, "tls-cert", "", "server TLS certificate")
	fs.StringVar(&o.TLSKey, "tls-key", "", "server TLS key")
	fs.StringVar(&o.TLSClientCA, "tls-ca", "", "CA for client certificate verification")
	fs.StringVar(&o.LogLevel, "l", "info", "log level")
}

// Parse parses the command-line flags, the config file and environment
// variables to set configuration values. It returns a pointer to the Options
// struct containing the parsed configuration values.
func Parse() *Options {
	flag.Parse()
	if err := finish(flag.CommandLine, options, os.Getenv); err != nil {
		log.Fatalf("config: %v", err)
	}
	return options
}

// Load builds Options from args and getenv without touching global state.
func Load(args []string, getenv func(string) string) (*Options, error) {
	o := &Options{}
	fs := flag.NewFlagSet("rivone", flag.ContinueOnError)
	register(fs, o)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := finish(fs, o, getenv); err != nil {
		return nil, err
	}
	return o, nil
}

// finish applies the config file to flags that were not set explicitly,
// then environment overrides, then validates.
func finish(fs *flag.FlagSet, o *Options, getenv func(string) string) error {
	explicit := false
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == "c" || fl.Name == "config" {
			explicit = true
		}
	})
	if configPath := getenv("CONFIG"); configPath != "" {
		o.Config = configPath
		explicit = true
	}

	// Only the default config path may be absent.
	if o.Config != "" {
		if _, err := os.Stat(o.Config); err == nil || explicit {
			if err := applyFile(fs, o); err != nil {
				return err
			}
		}
	}

	if v := getenv("SERVER_ADDRESS"); v != "" {
		o.Port = v
	}
	if v := getenv("DATABASE_DSN"); v != "" {
		o.DatabaseDSN = v
	}
	if v := getenv("STORE_DRIVER"); v != "" {
		o.StoreDriver = v
	}
	if v := getenv("BOT_TOKEN"); v != "" {
		o.BotToken = v
	}
	if v := getenv("TELEGRAM_API_URL"); v != "" {
		o.TelegramURL = v
	}
	if v := getenv("TELEGRAM_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_RPS: %w", err)
		}
		o.TelegramRPS = rps
	}
	if v := getenv("STREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STREAM_TIMEOUT: %w", err)
		}
		o.StreamTimeout = d
	}
	if v := getenv("SYNC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SYNC_INTERVAL: %w", err)
		}
		o.SyncInterval = d
	}
	if v := getenv("SEED_FILE"); v != "" {
		o.SeedFile = v
	}
	if v := getenv("AUTH_MODE"); v != "" {
		o.AuthMode = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		o.LogLevel = v
	}

	return o.validate()
}

func applyFile(fs *flag.FlagSet, o *Options) error {
	data, err := os.ReadFile(o.Config)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}

	var f fileOptions
	if strings.HasSuffix(strings.ToLower(o.Config), ".toml") {
		err = toml.Unmarshal(data, &f)
	} else {
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}

	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	str := func(name string, dst *string, v string) {
		if v != "" && !set[name] {
			*dst = v
		}
	}
	str("a", &o.Port, f.ServerAddress)
	str("d", &o.DatabaseDSN, f.DatabaseDSN)
	str("driver", &o.StoreDriver, f.StoreDriver)
	str("token", &o.BotToken, f.BotToken)
	str("telegram-url", &o.TelegramURL, f.TelegramURL)
	str("seed", &o.SeedFile, f.SeedFile)
	str("cookie", &o.AccessCookie, f.AccessCookie)
	str("auth", &o.AuthMode, f.AuthMode)
	str("tls-cert", &o.TLSCert, f.TLSCert)
	str("tls-key", &o.TLSKey, f.TLSKey)
	str("tls-ca", &o.TLSClientCA, f.TLSClientCA)
	str("l", &o.LogLevel, f.LogLevel)

	if f.TelegramRPS != 0 && !set["telegram-rps"] {
		o.TelegramRPS = f.TelegramRPS
	}

	dur := func(name string, dst *time.Duration, v string) error {
		if v == "" || set[name] {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config file %s: %w", name, err)
		}
		*dst = d
		return nil
	}
	if err := dur("stream-timeout", &o.StreamTimeout, f.StreamTimeout); err != nil {
		return err
	}
	return dur("sync-interval", &o.SyncInterval, f.SyncInterval)
}

func (o *Options) validate() error {
	var errs []error
	switch o.StoreDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", o.StoreDriver))
	}
	switch o.AuthMode {
	case AuthCookie:
	case AuthCert:
		if o.TLSCert == "" || o.TLSKey == "" || o.TLSClientCA == "" {
			errs = append(errs, errors.New("auth mode cert requires -tls-cert, -tls-key and -tls-ca"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown auth mode %q", o.AuthMode))
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		errs = append(errs, errors.New("-tls-cert and -tls-key must be set together"))
	}
	if o.TelegramRPS < 0 {
		errs = append(errs, errors.New("telegram-rps must not be negative"))
	}
	return errors.Join(errs...)
}

// TLSEnabled reports whether the server should listen with TLS.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}

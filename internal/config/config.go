// Package config resolves zaloga's settings from defaults, a .env file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvFile is read from the working directory when present.
const EnvFile = ".env"

// Defaults.
const (
	DefaultAddr      = ":8080"
	DefaultDBPath    = "zaloga.sqlite3"
	DefaultMockDelay = time.Second
)

// Config holds the app settings.
type Config struct {
	Addr      string
	APIURL    string // empty selects mock mode
	Secret    string
	DBPath    string
	SeedPath  string
	LogPath   string
	MockDelay time.Duration
}

// Mock reports whether no remote API is configured.
func (c *Config) Mock() bool {
	return c.APIURL == ""
}

// Usage is printed for -h and flag errors.
const Usage = `Usage: zaloga [flags]

Flags:
  -a, -addr <host:port>   listen address (default: :8080)          ZALOGA_ADDR
  -api <url>              spreadsheet API /exec URL; empty runs    ZALOGA_API_URL
                          against local mock data
  -secret <value>         shared secret for signing API requests   ZALOGA_SECRET
  -db <path>              SQLite database for the offline asset    ZALOGA_DB
                          cache (default: zaloga.sqlite3)
  -seed <path>            YAML file with mock data                 ZALOGA_SEED
  -l, -log <path>         log file path (default: stdout/stderr)   ZALOGA_LOG
  -mock-delay <duration>  simulated latency of mock writes         ZALOGA_MOCK_DELAY
                          (default: 1s)
  -h, -help               show this help and exit

Environment variables may also be set in a .env file in the working directory.
`

// Load reads EnvFile if it exists, then the process environment, then args.
func Load(args []string, output io.Writer) (*Config, error) {
	dotenv, err := godotenv.Read(EnvFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", EnvFile, err)
	}

	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return dotenv[key]
	}
	return parse(args, lookup, output)
}

func parse(args []string, lookup func(string) string, output io.Writer) (*Config, error) {
	env := func(key, def string) string {
		if v := lookup(key); v != "" {
			return v
		}
		return def
	}

	delay := DefaultMockDelay
	if v := lookup("ZALOGA_MOCK_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ZALOGA_MOCK_DELAY: %w", err)
		}
		delay = d
	}

	cfg := &Config{}
	flags := flag.NewFlagSet("zaloga", flag.ContinueOnError)
	flags.SetOutput(output)

	addr := env("ZALOGA_ADDR", DefaultAddr)
	flags.StringVar(&cfg.Addr, "addr", addr, "")
	flags.StringVar(&cfg.Addr, "a", addr, "")

	flags.StringVar(&cfg.APIURL, "api", env("ZALOGA_API_URL", ""), "")
	flags.StringVar(&cfg.Secret, "secret", env("ZALOGA_SECRET", ""), "")
	flags.StringVar(&cfg.DBPath, "db", env("ZALOGA_DB", DefaultDBPath), "")
	flags.StringVar(&cfg.SeedPath, "seed", env("ZALOGA_SEED", ""), "")

	logPath := env("ZALOGA_LOG", "")
	flags.StringVar(&cfg.LogPath, "log", logPath, "")
	flags.StringVar(&cfg.LogPath, "l", logPath, "")

	flags.DurationVar(&cfg.MockDelay, "mock-delay", delay, "")

	flags.Usage = func() { fmt.Fprint(output, Usage) }

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", flags.Arg(0))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid API URL %q", c.APIURL)
		}
	}
	if c.MockDelay < 0 {
		return fmt.Errorf("mock delay must not be negative: %s", c.MockDelay)
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path required")
	}
	return nil
}

// String describes the configuration without the secret.
func (c *Config) String() string {
	mode := "mock"
	if !c.Mock() {
		mode = "connected"
	}
	return "addr=" + c.Addr + " mode=" + mode + " db=" + c.DBPath +
		" signed=" + strconv.FormatBool(c.Secret != "")
}

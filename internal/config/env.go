package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"

	"github.com/mahdiidarabi/vanitysplit/pkg/splitkey"
)

// Prefix is the environment variable prefix, e.g. VANITYSPLIT_THREADS.
const Prefix = "VANITYSPLIT"

// Config holds defaults read from the environment. Command line flags
// override every field.
type Config struct {
	Output   string `envconfig:"OUTPUT"`
	Format   string `envconfig:"FORMAT" default:"text"`
	Threads  int    `envconfig:"THREADS" default:"0"` // 0 means one per core
	GPUIDs   []int  `envconfig:"GPU_IDS" default:"0"`
	MaxFound int    `envconfig:"MAX_FOUND" default:"65536"`
	Workers  int    `envconfig:"WORKERS" default:"1"`
	NoColor  bool   `envconfig:"NO_COLOR" default:"false"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to process environment: %v", splitkey.ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that envconfig cannot.
func (c *Config) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown output format %q", splitkey.ErrConfig, c.Format)
	}
	if c.Threads < 0 {
		return fmt.Errorf("%w: thread count must not be negative", splitkey.ErrConfig)
	}
	if c.MaxFound < 1 {
		return fmt.Errorf("%w: max found must be positive", splitkey.ErrConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive", splitkey.ErrConfig)
	}
	return nil
}

// Usage writes the supported environment variables to w.
func Usage(w io.Writer) error {
	return envconfig.Usagef(Prefix, &Config{}, w, envconfig.DefaultTableFormat)
}

// PromptPassphrase reads a passphrase from the terminal without echo.
func PromptPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal: pass the passphrase with --seed")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	defer clear(raw)
	if len(raw) == 0 {
		return "", errors.New("passphrase cannot be empty")
	}
	if !utf8.Valid(raw) {
		return "", errors.New("passphrase is not valid UTF-8")
	}
	return string(raw), nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/law-makers/sismos/pkg/models"
	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool
	Quiet    bool

	// Source and fetching
	SourceURL      string
	Mode           models.FetchMode
	HTTPTimeout    time.Duration
	RenderWait     time.Duration
	SettleDelay    time.Duration
	UserAgent      string
	Accept         string
	AcceptLanguage string
	Proxy          string
	Headers        []string
	ChromePath     string
	Headless       bool

	// Extraction. An empty TokenMode follows the fetch variant that served the page.
	IDStrategy models.IDStrategy
	TokenMode  models.TokenMode

	// Persistence
	Sink        models.SinkKind
	OutputDir   string
	GCSBucket   string
	GCSPrefix   string
	DatabaseDSN string
	Table       string

	// Observability and serving
	MetricsFile string
	ListenAddr  string
}

// Default returns a Config holding only the defaults.
func Default() *Config {
	return &Config{
		LogLevel:       DefaultLogLevel,
		JSONLog:        DefaultJSONLog,
		SourceURL:      DefaultSourceURL,
		Mode:           models.FetchMode(DefaultMode),
		HTTPTimeout:    DefaultHTTPTimeout,
		RenderWait:     DefaultRenderWait,
		SettleDelay:    DefaultSettleDelay,
		UserAgent:      DefaultUserAgent,
		Accept:         DefaultAccept,
		AcceptLanguage: DefaultAcceptLanguage,
		Headless:       DefaultHeadless,
		Sink:           models.SinkKind(DefaultSink),
		OutputDir:      DefaultOutputDir,
		Table:          DefaultTable,
		ListenAddr:     DefaultListenAddr,
	}
}

// Load builds a Config by combining defaults, an optional .env file, environment variables, and CLI flags.
// Caller should pass the command being executed so its flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	envFile := DefaultEnvFile
	if cmd != nil {
		if f := cmd.Flags().Lookup("env-file"); f != nil && f.Value.String() != "" {
			envFile = f.Value.String()
		}
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if cmd != nil {
		if err := applyFlags(cfg, cmd); err != nil {
			return nil, fmt.Errorf("invalid flag: %w", err)
		}
	}

	cfg.applyDerived()

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"SISMOS_URL":          &cfg.SourceURL,
		"SISMOS_OUT_DIR":      &cfg.OutputDir,
		"SISMOS_GCS_BUCKET":   &cfg.GCSBucket,
		"SISMOS_GCS_PREFIX":   &cfg.GCSPrefix,
		"SISMOS_DSN":          &cfg.DatabaseDSN,
		"SISMOS_TABLE":        &cfg.Table,
		"SISMOS_USER_AGENT":   &cfg.UserAgent,
		"SISMOS_PROXY":        &cfg.Proxy,
		"SISMOS_CHROME_PATH":  &cfg.ChromePath,
		"SISMOS_METRICS_FILE": &cfg.MetricsFile,
		"SISMOS_ADDR":         &cfg.ListenAddr,
		"SISMOS_LOG_LEVEL":    &cfg.LogLevel,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("SISMOS_MODE"); v != "" {
		cfg.Mode = models.FetchMode(strings.ToLower(v))
	}
	if v := os.Getenv("SISMOS_SINK"); v != "" {
		cfg.Sink = models.SinkKind(strings.ToLower(v))
	}
	if v := os.Getenv("SISMOS_ID_STRATEGY"); v != "" {
		cfg.IDStrategy = models.IDStrategy(strings.ToLower(v))
	}
	if v := os.Getenv("SISMOS_SPLIT"); v != "" {
		cfg.TokenMode = models.TokenMode(strings.ToLower(v))
	}

	durations := map[string]*time.Duration{
		"SISMOS_TIMEOUT":     &cfg.HTTPTimeout,
		"SISMOS_RENDER_WAIT": &cfg.RenderWait,
		"SISMOS_SETTLE":      &cfg.SettleDelay,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

func applyFlags(cfg *Config, cmd *cobra.Command) error {
	flags := cmd.Flags()
	changed := func(name string) (string, bool) {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			return "", false
		}
		return f.Value.String(), true
	}

	strs := map[string]*string{
		"url":          &cfg.SourceURL,
		"out-dir":      &cfg.OutputDir,
		"gcs-bucket":   &cfg.GCSBucket,
		"gcs-prefix":   &cfg.GCSPrefix,
		"dsn":          &cfg.DatabaseDSN,
		"table":        &cfg.Table,
		"user-agent":   &cfg.UserAgent,
		"proxy":        &cfg.Proxy,
		"metrics-file": &cfg.MetricsFile,
		"addr":         &cfg.ListenAddr,
		"log-level":    &cfg.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := changed(name); ok {
			*dst = v
		}
	}

	if v, ok := changed("mode"); ok {
		cfg.Mode = models.FetchMode(strings.ToLower(v))
	}
	if v, ok := changed("sink"); ok {
		cfg.Sink = models.SinkKind(strings.ToLower(v))
	}
	if v, ok := changed("id-strategy"); ok {
		cfg.IDStrategy = models.IDStrategy(strings.ToLower(v))
	}
	if v, ok := changed("split"); ok {
		cfg.TokenMode = models.TokenMode(strings.ToLower(v))
	}

	durations := map[string]*time.Duration{
		"timeout":     &cfg.HTTPTimeout,
		"render-wait": &cfg.RenderWait,
		"settle":      &cfg.SettleDelay,
	}
	for name, dst := range durations {
		if v, ok := changed(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("--%s: %w", name, err)
			}
			*dst = d
		}
	}

	if f := flags.Lookup("header"); f != nil && f.Changed {
		hs, err := flags.GetStringArray("header")
		if err != nil {
			return fmt.Errorf("--header: %w", err)
		}
		cfg.Headers = hs
	}

	if v, ok := changed("headful"); ok && v == "true" {
		cfg.Headless = false
	}
	if v, ok := changed("json"); ok && v == "true" {
		cfg.JSONLog = true
	}
	if v, ok := changed("quiet"); ok && v == "true" {
		cfg.Quiet = true
		cfg.LogLevel = "error"
	}
	if v, ok := changed("verbose"); ok && v == "true" {
		cfg.LogLevel = "debug"
	}
	return nil
}

// applyDerived fills the settings whose default depends on other settings.
func (c *Config) applyDerived() {
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.IDStrategy == "" {
		if c.Sink == models.SinkTable {
			c.IDStrategy = models.IDRandom
		} else {
			c.IDStrategy = models.IDSequential
		}
	}
}

// TokenModeFor returns the configured token mode, or the one matching the
// fetch variant when none was configured.
func (c *Config) TokenModeFor(rendered bool) models.TokenMode {
	if c.TokenMode != "" {
		return c.TokenMode
	}
	if rendered {
		return models.TokenLines
	}
	return models.TokenWhitespace
}

// ResolveDSN fills DatabaseDSN from lookup when the table sink is selected
// and no DSN was configured.
func (c *Config) ResolveDSN(lookup func() (string, error)) error {
	if c.Sink != models.SinkTable || c.DatabaseDSN != "" {
		return nil
	}
	if lookup != nil {
		dsn, err := lookup()
		if err == nil && dsn != "" {
			c.DatabaseDSN = dsn
			return nil
		}
	}
	return fmt.Errorf("the table sink needs a DSN: pass --dsn, set SISMOS_DSN or run 'sismos secrets set'")
}

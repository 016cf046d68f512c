package config

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/law-makers/sismos/internal/utils/headers"
	urlutil "github.com/law-makers/sismos/internal/utils/url"
	"github.com/law-makers/sismos/pkg/models"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validate(c *Config) error {
	if err := urlutil.ValidateURL(c.SourceURL); err != nil {
		return err
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.RenderWait <= 0 {
		return fmt.Errorf("render wait must be > 0")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay must be >= 0")
	}

	switch c.Mode {
	case models.ModeAuto, models.ModeStatic, models.ModeRendered:
	default:
		return fmt.Errorf("unknown mode %q (want auto, static or rendered)", c.Mode)
	}
	switch c.Sink {
	case models.SinkFile, models.SinkTable, models.SinkNone:
	default:
		return fmt.Errorf("unknown sink %q (want file, table or none)", c.Sink)
	}
	switch c.IDStrategy {
	case models.IDRandom, models.IDSequential:
	default:
		return fmt.Errorf("unknown id strategy %q (want random or sequential)", c.IDStrategy)
	}
	switch c.TokenMode {
	case "", models.TokenWhitespace, models.TokenLines:
	default:
		return fmt.Errorf("unknown split %q (want whitespace or lines)", c.TokenMode)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	if c.Sink == models.SinkTable {
		if c.IDStrategy != models.IDRandom {
			return fmt.Errorf("the table sink keys rows by id and needs --id-strategy random")
		}
		if !validTableName.MatchString(c.Table) {
			return fmt.Errorf("invalid table name %q", c.Table)
		}
	}
	if _, err := headers.Parse(c.Headers); err != nil {
		return err
	}
	if c.Proxy != "" {
		if u, err := url.Parse(c.Proxy); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid proxy %q", c.Proxy)
		}
	}
	return nil
}

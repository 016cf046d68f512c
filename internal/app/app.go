// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/law-makers/sismos/internal/config"
	"github.com/law-makers/sismos/internal/engine"
	"github.com/law-makers/sismos/internal/engine/dynamic"
	"github.com/law-makers/sismos/internal/engine/hybrid"
	"github.com/law-makers/sismos/internal/engine/static"
	"github.com/law-makers/sismos/internal/extract"
	"github.com/law-makers/sismos/internal/metrics"
	"github.com/law-makers/sismos/internal/secrets"
	"github.com/law-makers/sismos/internal/sink"
	"github.com/law-makers/sismos/internal/sink/blob"
	"github.com/law-makers/sismos/internal/sink/blob/gcs"
	"github.com/law-makers/sismos/internal/sink/blob/local"
	"github.com/law-makers/sismos/internal/store/postgres"
	"github.com/law-makers/sismos/internal/utils/headers"
	"github.com/law-makers/sismos/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared by the CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config     *config.Config
	Logger     *zerolog.Logger
	HTTPClient *http.Client
	Fetcher    engine.Fetcher
	Sink       sink.Sink
	Metrics    *metrics.Recorder

	// Observer, when set, receives extraction events alongside the logger
	// and the metrics recorder.
	Observer extract.Observer

	runMu     sync.Mutex
	closers   []func()
	now       func() time.Time
	startTime time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Initializes the HTTP client with proper timeouts and proxy
//   - Creates the fetcher selected by the fetch mode
//   - Creates the sink, connecting to Postgres or GCS when selected
//
// If any step fails, an error is returned and resources created so far are released.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := ConfigureLogging(cfg, os.Stderr)

	httpClient, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Dur("timeout", cfg.HTTPTimeout).
		Bool("proxy", cfg.Proxy != "").
		Msg("HTTP client initialized")

	fetcher := newFetcher(cfg, httpClient)
	logger.Debug().Str("fetcher", fetcher.Name()).Msg("Fetcher initialized")

	a := Assemble(cfg, fetcher, nil)
	a.Logger = &logger
	a.HTTPClient = httpClient

	s, err := a.newSink(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Sink = s
	logger.Debug().Str("sink", s.Name()).Msg("Sink initialized")

	logger.Info().Msg("Application initialized successfully")
	return a, nil
}

// Assemble builds an Application from ready-made parts without touching the
// network. A nil sink means records are not persisted.
func Assemble(cfg *config.Config, fetcher engine.Fetcher, s sink.Sink) *Application {
	if s == nil {
		s = sink.Null{}
	}
	return &Application{
		Config:    cfg,
		Logger:    &log.Logger,
		Fetcher:   fetcher,
		Sink:      s,
		Metrics:   metrics.New(),
		now:       time.Now,
		startTime: time.Now(),
	}
}

// ConfigureLogging sets the global zerolog level and logger from cfg and
// returns the logger.
func ConfigureLogging(cfg *config.Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	var logWriter io.Writer = out
	if !cfg.JSONLog {
		// Human-friendly console output otherwise
		logWriter = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(logWriter).With().Timestamp().Logger()
	log.Logger = logger

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")
	return logger
}

func newHTTPClient(cfg *config.Config) (*http.Client, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: transport,
	}, nil
}

func newFetcher(cfg *config.Config, client *http.Client) engine.Fetcher {
	// Headers were validated by config.Load.
	extra, _ := headers.Parse(cfg.Headers)
	staticFetcher := static.New(client, cfg.SourceURL, cfg.HTTPTimeout, headers.Merge(map[string]string{
		"User-Agent":      cfg.UserAgent,
		"Accept":          cfg.Accept,
		"Accept-Language": cfg.AcceptLanguage,
	}, extra))
	renderedFetcher := dynamic.New(dynamic.Options{
		URL:        cfg.SourceURL,
		UserAgent:  cfg.UserAgent,
		Proxy:      cfg.Proxy,
		ChromePath: cfg.ChromePath,
		Headless:   cfg.Headless,
		NavTimeout: cfg.HTTPTimeout,
		RenderWait: cfg.RenderWait,
		Settle:     cfg.SettleDelay,
	})

	switch cfg.Mode {
	case models.ModeStatic:
		return staticFetcher
	case models.ModeRendered:
		return renderedFetcher
	default:
		return hybrid.New(staticFetcher, renderedFetcher)
	}
}

func (a *Application) newSink(ctx context.Context) (sink.Sink, error) {
	cfg := a.Config
	switch cfg.Sink {
	case models.SinkNone:
		return sink.Null{}, nil

	case models.SinkTable:
		err := cfg.ResolveDSN(func() (string, error) {
			return secrets.New("").Get(secrets.DSNKey)
		})
		if err != nil {
			return nil, err
		}
		store, err := postgres.NewTableStore(ctx, postgres.Config{DSN: cfg.DatabaseDSN, Table: cfg.Table})
		if err != nil {
			return nil, fmt.Errorf("table store (%s): %w", secrets.Mask(cfg.DatabaseDSN), err)
		}
		a.closers = append(a.closers, store.Close)
		return sink.NewTable(store), nil

	default:
		var store blob.Store
		if cfg.GCSBucket != "" {
			client, err := storage.NewClient(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to create GCS client: %w", err)
			}
			a.closers = append(a.closers, func() { client.Close() })
			if store, err = gcs.New(client, cfg.GCSBucket, cfg.GCSPrefix); err != nil {
				return nil, err
			}
		} else {
			dir, err := local.New(cfg.OutputDir)
			if err != nil {
				return nil, err
			}
			store = dir
		}
		return sink.NewFile(store), nil
	}
}

// Close gracefully shuts down the application and all its resources.
//
// Sink connections are closed first, then idle HTTP connections.
// Any errors during shutdown are logged but do not prevent other shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Msg("Shutting down application")

	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil

	// Close HTTP client (connection pooling cleanup)
	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}

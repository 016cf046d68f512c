package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/law-makers/sismos/internal/engine"
	"github.com/law-makers/sismos/internal/engine/dynamic"
	"github.com/law-makers/sismos/internal/extract"
	"github.com/law-makers/sismos/internal/result"
	"github.com/law-makers/sismos/internal/runctx"
	"github.com/law-makers/sismos/internal/sink"
	"github.com/rs/zerolog"
)

// Run performs one fetch, extract and persist cycle and reports the outcome
// as a status-bearing result. It never returns an error and never panics;
// every failure is classified into the result.
//
// Runs on the same Application are serialized.
func (a *Application) Run(ctx context.Context) (res *result.Result) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	ctx = runctx.New(ctx)
	run := runctx.From(ctx)
	logger := a.Logger.With().
		Str("run_id", run.ID).
		Str("mode", string(a.Config.Mode)).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Run aborted by panic")
			res = result.Internal(fmt.Errorf("panic: %v", r))
		}
		res.Body.RunID = run.ID
		a.finish(logger, res, run)
	}()

	logger.Info().Str("url", a.Config.SourceURL).Msg("Run started")

	res, err := a.run(ctx, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Run failed")
		return result.FromError(runctx.Wrap(ctx, err))
	}
	return res
}

func (a *Application) run(ctx context.Context, logger zerolog.Logger) (*result.Result, error) {
	page, err := a.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close page")
		}
	}()

	method := engine.LabelOf(page, a.Fetcher.Label())
	rows, err := page.Rows()
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	logger.Debug().Str("method", method).Int("rows", len(rows)).Msg("Rows found")

	ex := extract.New(
		a.Config.SourceURL,
		a.Config.TokenModeFor(method == dynamic.Label),
		a.Config.IDStrategy,
		extract.Multi(extract.LogObserver{Logger: logger}, a.Metrics, a.Observer),
	)
	extraction := ex.Extract(rows)
	logger.Info().
		Int("rows", extraction.RowsSeen).
		Int("records", len(extraction.Records)).
		Int("skipped", extraction.Skipped).
		Int("faults", len(extraction.Faults)).
		Msg("Extraction finished")

	if len(extraction.Records) == 0 {
		return nil, result.ErrNoRecords
	}

	receipt, err := a.Sink.Write(ctx, sink.Batch{
		Records:     extraction.Records,
		SourceURL:   a.Config.SourceURL,
		Method:      method,
		ExtractedAt: a.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("persist to %s sink: %w", a.Sink.Name(), err)
	}

	return result.Success(extraction.Records, receipt.Location), nil
}

func (a *Application) finish(logger zerolog.Logger, res *result.Result, run *runctx.Run) {
	finished := a.now()
	a.Metrics.ObserveRun(res.StatusCode, run.StartTime, finished)
	if a.Config.MetricsFile != "" {
		if err := a.Metrics.WriteTextfile(a.Config.MetricsFile); err != nil {
			logger.Warn().Err(err).Msg("Failed to write metrics")
		}
	}

	event := logger.Info()
	if res.StatusCode != http.StatusOK {
		event = logger.Warn()
	}
	event.
		Int("status", res.StatusCode).
		Dur("elapsed", finished.Sub(run.StartTime)).
		Msg("Run finished")
}

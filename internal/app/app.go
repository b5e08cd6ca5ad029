// Package app wires configuration, storage and services together and
// owns the two-stage pipeline run.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Savio629/nregascan/internal/common"
	"github.com/Savio629/nregascan/internal/interfaces"
	"github.com/Savio629/nregascan/internal/models"
	"github.com/Savio629/nregascan/internal/services/aggregator"
	"github.com/Savio629/nregascan/internal/services/scraper"
	badgerstore "github.com/Savio629/nregascan/internal/storage/badger"
)

// App holds the application's long-lived dependencies. The persistence
// client is constructed once and passed explicitly into the services that
// need it; browser pools are per run.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	DB              *badgerstore.BadgerDB
	AttendanceStore interfaces.AttendanceStorage
	SummaryStore    interfaces.SummaryStorage
	Aggregator      *aggregator.Service

	runMu sync.Mutex
}

// New creates the application: opens storage and wires the services.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	db, err := badgerstore.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	attendanceStore := badgerstore.NewAttendanceStorage(db, logger)
	summaryStore := badgerstore.NewSummaryStorage(db, logger)

	return &App{
		Config:          config,
		Logger:          logger,
		DB:              db,
		AttendanceStore: attendanceStore,
		SummaryStore:    summaryStore,
		Aggregator:      aggregator.NewService(config.Aggregator, attendanceStore, summaryStore, logger),
	}, nil
}

// Close releases the application's resources.
func (a *App) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}

// PipelineReport is the combined outcome of one scrape-then-aggregate
// run.
type PipelineReport struct {
	Scrape      []scraper.DateResult    `json:"scrape"`
	Aggregation []*aggregator.RunReport `json:"aggregation"`
	Duration    string                  `json:"duration"`
}

// ErrRunInProgress is returned when a pipeline run is requested while
// another is still executing.
var ErrRunInProgress = fmt.Errorf("pipeline run already in progress")

// RunPipeline executes extraction followed by aggregation for the dates
// the selector resolves to. The browser pool lives for exactly one run
// and is released on every exit path. Concurrent invocations are
// rejected, not queued.
func (a *App) RunPipeline(ctx context.Context, sel scraper.DateSelector, mode scraper.WriteMode) (*PipelineReport, error) {
	if !a.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer a.runMu.Unlock()

	started := time.Now()

	pool := scraper.NewBrowserPool(a.Config.Scraper, a.Logger)
	if err := pool.Init(); err != nil {
		return nil, err
	}
	defer func() {
		if err := pool.Shutdown(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to shut down browser pool")
		}
	}()

	scrapeService := scraper.NewService(a.Config, pool, a.AttendanceStore, a.Logger)
	results, err := scrapeService.Run(ctx, sel, mode)
	if err != nil {
		return nil, err
	}

	report := &PipelineReport{Scrape: results}
	for _, result := range results {
		if result.Unavailable {
			continue
		}

		runReport, err := a.Aggregator.Run(ctx, result.Date)
		if err != nil {
			return report, err
		}
		report.Aggregation = append(report.Aggregation, runReport)
	}

	report.Duration = time.Since(started).String()
	return report, nil
}

// RunYesterday runs the pipeline for yesterday's date in deduplicating
// mode. This is the trigger surface's default invocation.
func (a *App) RunYesterday(ctx context.Context) (*PipelineReport, error) {
	date := models.YesterdayDate(time.Now())
	return a.RunPipeline(ctx, scraper.ExplicitDate(date), scraper.WriteModeDedup)
}

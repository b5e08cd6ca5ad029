package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Savio629/nregascan/internal/common"
	"github.com/Savio629/nregascan/internal/interfaces"
	"github.com/Savio629/nregascan/internal/models"
)

// Service runs the daily extraction: resolve target dates against the
// portal, walk each date's block index, extract attendance rows per block
// and persist them. Failures local to one block or one date are contained
// and logged; only the inability to obtain a rendering session at all
// fails the run.
type Service struct {
	config    *common.Config
	renderer  PageRenderer
	navigator *Navigator
	extractor *Extractor
	writer    *Writer
	retry     *RetryPolicy
	pacer     *Pacer
	logger    arbor.ILogger
}

// NewService wires the scrape pipeline against the given renderer and
// storage. The renderer is owned by the caller; Service never shuts it
// down.
func NewService(config *common.Config, renderer PageRenderer, store interfaces.AttendanceStorage, logger arbor.ILogger) *Service {
	retry := NewRetryPolicy(config.Retry, logger)
	return &Service{
		config:    config,
		renderer:  renderer,
		navigator: NewNavigator(&config.Site, retry, logger),
		extractor: NewExtractor(config.Extractor, logger),
		writer:    NewWriter(store, logger),
		retry:     retry,
		pacer:     NewPacer(time.Duration(config.Scraper.PageDelay), time.Duration(config.Scraper.RandomDelay)),
		logger:    logger,
	}
}

// DateResult reports the outcome of scraping one attendance date.
type DateResult struct {
	Date         string      `json:"date"`
	Unavailable  bool        `json:"unavailable,omitempty"` // date absent from the dropdown
	Failed       bool        `json:"failed,omitempty"`      // navigation retries exhausted
	Blocks       int         `json:"blocks"`
	BlocksFailed int         `json:"blocks_failed"`
	Records      int         `json:"records"`
	Counts       WriteCounts `json:"counts"`
}

// blockResult is one worker's outcome for a single block detail page.
type blockResult struct {
	records int
	counts  WriteCounts
	err     error
}

// Run executes one scrape for the dates the selector resolves to. The
// returned results carry per-date outcomes; the error is non-nil only for
// run-level failures (no rendering session, cancellation).
func (s *Service) Run(ctx context.Context, sel DateSelector, mode WriteMode) ([]DateResult, error) {
	started := time.Now()

	session, err := s.renderer.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire rendering session: %w", err)
	}
	defer session.Close()

	seedDate := sel.Date
	if seedDate == "" {
		seedDate = models.YesterdayDate(time.Now())
	}

	options, err := s.navigator.Open(ctx, session, seedDate)
	if err != nil {
		return nil, err
	}

	dates, ok := sel.Resolve(options)
	if !ok {
		s.logger.Info().
			Str("date", sel.Date).
			Int("available", len(options)).
			Msg("Requested date not found in dropdown")
		return []DateResult{{Date: seedDate, Unavailable: true}}, nil
	}

	s.logger.Info().
		Int("dates", len(dates)).
		Str("mode", mode.String()).
		Msg("Starting scrape run")

	results := make([]DateResult, 0, len(dates))
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			// Aborted between dates; previously persisted data is a
			// valid partial result.
			return results, err
		}
		results = append(results, s.runDate(ctx, session, date, mode))
	}

	s.logger.Info().
		Int("dates", len(results)).
		Dur("duration", time.Since(started)).
		Msg("Scrape run finished")

	return results, nil
}

// runDate scrapes one attendance date. Navigation failure after retries
// marks the date failed and moves on; it is not fatal to other dates.
func (s *Service) runDate(ctx context.Context, session PageSession, date string, mode WriteMode) DateResult {
	result := DateResult{Date: date}

	links, err := s.navigator.DiscoverBlockLinks(ctx, session, date)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("date", date).
			Msg("Failed to discover block links, skipping date")
		result.Failed = true
		return result
	}

	if len(links) == 0 {
		s.logger.Info().Str("date", date).Msg("No block links found for date")
		return result
	}

	result.Blocks = len(links)

	// One worker per block detail page, bounded by the session pool
	// size. Workers share the resolved date read-only and each own an
	// independent rendering session.
	concurrency := s.config.Scraper.MaxSessions
	if concurrency > len(links) {
		concurrency = len(links)
	}

	sem := make(chan struct{}, concurrency)
	outcomes := make([]blockResult, len(links))
	var wg sync.WaitGroup

	launched := 0
	for i, link := range links {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, link BlockLink) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = s.scrapeBlock(ctx, link, date, mode)
		}(i, link)
		launched++
	}
	wg.Wait()

	// Blocks never launched because of cancellation count as failed, not
	// as empty successes.
	for i := launched; i < len(outcomes); i++ {
		outcomes[i] = blockResult{err: ctx.Err()}
	}

	for i, outcome := range outcomes {
		if outcome.err != nil {
			result.BlocksFailed++
			s.logger.Error().
				Err(outcome.err).
				Str("date", date).
				Str("block", links[i].BlockName).
				Msg("Block scrape failed")
			continue
		}
		result.Records += outcome.records
		result.Counts.Add(outcome.counts)
	}

	s.logger.Info().
		Str("date", date).
		Int("blocks", result.Blocks).
		Int("blocks_failed", result.BlocksFailed).
		Int("records", result.Records).
		Int("inserted", result.Counts.Inserted).
		Int("skipped", result.Counts.Skipped).
		Int("failed", result.Counts.Failed).
		Msg("Date processed")

	return result
}

// scrapeBlock renders one block's detail page, extracts its attendance
// rows and persists them.
func (s *Service) scrapeBlock(ctx context.Context, link BlockLink, date string, mode WriteMode) blockResult {
	if err := s.pacer.Wait(ctx); err != nil {
		return blockResult{err: err}
	}

	session, err := s.renderer.NewSession(ctx)
	if err != nil {
		return blockResult{err: fmt.Errorf("failed to acquire rendering session: %w", err)}
	}
	defer session.Close()

	tableSelector := s.config.Site.ReportSelector + " table tbody"

	var html string
	err = s.retry.Attempt(ctx, "render block "+link.BlockName, func(ctx context.Context) error {
		if err := session.Navigate(ctx, link.DetailURL); err != nil {
			return err
		}
		if err := session.WaitVisible(ctx, tableSelector); err != nil {
			return err
		}
		markup, err := session.OuterHTML(ctx, tableSelector)
		if err != nil {
			return err
		}
		html = markup
		return nil
	})
	if err != nil {
		return blockResult{err: err}
	}

	records, err := s.extractor.ExtractRows(html, date)
	if err != nil {
		return blockResult{err: err}
	}

	if len(records) == 0 {
		s.logger.Info().
			Str("block", link.BlockName).
			Str("date", date).
			Msg("No table data found for block")
		return blockResult{}
	}

	s.logger.Info().
		Str("block", link.BlockName).
		Str("date", date).
		Int("rows", len(records)).
		Msg("Extracted rows from block")

	counts := s.writer.Persist(records, mode)
	return blockResult{records: len(records), counts: counts}
}

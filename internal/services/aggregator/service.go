package aggregator

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/Savio629/nregascan/internal/common"
	"github.com/Savio629/nregascan/internal/interfaces"
	"github.com/Savio629/nregascan/internal/models"
)

// Service runs the aggregation stage: read a date's raw records from the
// attendance store, rank them, and commit the leaderboard in chunks.
type Service struct {
	raw       interfaces.AttendanceStorage
	committer *Committer
	chunkSize int
	pageSize  int
	logger    arbor.ILogger
}

// NewService wires the aggregation stage against the given stores
func NewService(cfg common.AggregatorConfig, raw interfaces.AttendanceStorage, summaries interfaces.SummaryStorage, logger arbor.ILogger) *Service {
	return &Service{
		raw:       raw,
		committer: NewCommitter(summaries, logger),
		chunkSize: cfg.ChunkSize,
		pageSize:  cfg.ReadPageSize,
		logger:    logger,
	}
}

// RunReport summarizes one aggregation run.
type RunReport struct {
	Date         string `json:"date"`
	RecordsRead  int    `json:"records_read"`
	Entries      int    `json:"entries"`
	Committed    int    `json:"committed"`
	ChunksTried  int    `json:"chunks_tried"`
	ChunksFailed int    `json:"chunks_failed"`
}

// Run aggregates one attendance date. A date with no raw records is a
// valid empty run, not an error.
func (s *Service) Run(ctx context.Context, date string) (*RunReport, error) {
	records, err := s.readAll(ctx, date)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("date", date).
		Int("records", len(records)).
		Msg("Fetched raw records for aggregation")

	report := &RunReport{Date: date, RecordsRead: len(records)}
	if len(records) == 0 {
		s.logger.Info().Str("date", date).Msg("No raw records found for date")
		return report, nil
	}

	entries := Rank(records, date)
	report.Entries = len(entries)

	commit := s.committer.Commit(ctx, entries, s.chunkSize)
	report.Committed = commit.Committed
	report.ChunksTried = len(commit.Chunks)
	report.ChunksFailed = commit.Failed()

	s.logger.Info().
		Str("date", date).
		Int("entries", report.Entries).
		Int("committed", report.Committed).
		Int("chunks_failed", report.ChunksFailed).
		Msg("Aggregation run finished")

	return report, nil
}

// readAll pages through the raw store until a date's records are
// exhausted.
func (s *Service) readAll(ctx context.Context, date string) ([]models.AttendanceRecord, error) {
	pageSize := s.pageSize
	if pageSize <= 0 {
		pageSize = 1000
	}

	var all []models.AttendanceRecord
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := s.raw.FindByDate(date, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to read raw records for %s: %w", date, err)
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		if len(page) < pageSize {
			break
		}
	}

	return all, nil
}

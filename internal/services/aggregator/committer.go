package aggregator

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/Savio629/nregascan/internal/interfaces"
	"github.com/Savio629/nregascan/internal/models"
)

// DefaultChunkSize is the commit window used when no chunk size is
// configured.
const DefaultChunkSize = 500

// ChunkResult is the outcome of persisting one chunk.
type ChunkResult struct {
	Index int
	Size  int
	Err   error
}

// CommitReport summarizes a commit: total attempted vs committed plus the
// per-chunk outcomes.
type CommitReport struct {
	Attempted int
	Committed int
	Chunks    []ChunkResult
}

// Failed returns the number of chunks that failed to persist.
func (r *CommitReport) Failed() int {
	failed := 0
	for _, chunk := range r.Chunks {
		if chunk.Err != nil {
			failed++
		}
	}
	return failed
}

// Committer persists ranked entries in fixed-size chunks. A chunk failure
// is logged and recorded; it never rolls back earlier chunks and never
// stops the remaining ones.
type Committer struct {
	store  interfaces.SummaryStorage
	logger arbor.ILogger
}

// NewCommitter creates a committer backed by the given summary storage
func NewCommitter(store interfaces.SummaryStorage, logger arbor.ILogger) *Committer {
	return &Committer{
		store:  store,
		logger: logger,
	}
}

// Commit splits entries into chunks of chunkSize, preserving order, and
// persists each chunk independently. Cancellation is honored between
// chunks; chunks already persisted stay persisted.
func (c *Committer) Commit(ctx context.Context, entries []models.AggregatedEntry, chunkSize int) CommitReport {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	report := CommitReport{Attempted: len(entries)}

	for start := 0; start < len(entries); start += chunkSize {
		if err := ctx.Err(); err != nil {
			report.Chunks = append(report.Chunks, ChunkResult{
				Index: len(report.Chunks),
				Size:  len(entries) - start,
				Err:   err,
			})
			break
		}

		end := start + chunkSize
		if end > len(entries) {
			end = len(entries)
		}
		chunk := entries[start:end]
		index := len(report.Chunks)

		result := ChunkResult{Index: index, Size: len(chunk)}
		if err := c.store.InsertBatch(chunk); err != nil {
			result.Err = err
			c.logger.Error().
				Err(err).
				Int("chunk", index).
				Int("records", len(chunk)).
				Msg("Failed to commit summary chunk")
		} else {
			report.Committed += len(chunk)
			c.logger.Info().
				Int("chunk", index).
				Int("records", len(chunk)).
				Msg("Committed summary chunk")
		}

		report.Chunks = append(report.Chunks, result)
	}

	return report
}

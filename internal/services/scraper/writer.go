package scraper

import (
	"github.com/ternarybob/arbor"

	"github.com/Savio629/nregascan/internal/interfaces"
	"github.com/Savio629/nregascan/internal/models"
)

// WriteMode selects the persistence strategy for a batch of records.
type WriteMode int

const (
	// WriteModeDedup checks each record's natural key before inserting
	// and skips rows that already exist. Idempotent across repeated runs
	// for the same date, at the cost of one lookup per record. The
	// check and insert are separate operations; concurrent workers
	// writing the same key can still race, which the storage layer's
	// unique insert closes out.
	WriteModeDedup WriteMode = iota

	// WriteModeBulk inserts records without existence checks. Duplicates
	// are possible if a run is retried end-to-end; use only when the
	// caller guarantees the target date was never previously scraped.
	WriteModeBulk
)

func (m WriteMode) String() string {
	if m == WriteModeBulk {
		return "bulk"
	}
	return "dedup"
}

// WriteCounts reports the outcome of one Persist call.
type WriteCounts struct {
	Inserted int
	Skipped  int
	Failed   int
}

// Add accumulates counts from another batch.
func (c *WriteCounts) Add(other WriteCounts) {
	c.Inserted += other.Inserted
	c.Skipped += other.Skipped
	c.Failed += other.Failed
}

// Writer persists batches of raw attendance records. A failure on one
// record is logged and counted, never aborting the rest of the batch.
type Writer struct {
	store  interfaces.AttendanceStorage
	logger arbor.ILogger
}

// NewWriter creates a writer backed by the given storage
func NewWriter(store interfaces.AttendanceStorage, logger arbor.ILogger) *Writer {
	return &Writer{
		store:  store,
		logger: logger,
	}
}

// Persist stores the records under the given mode and returns
// inserted/skipped/failed counts.
func (w *Writer) Persist(records []models.AttendanceRecord, mode WriteMode) WriteCounts {
	var counts WriteCounts

	for i := range records {
		record := records[i]

		if mode == WriteModeBulk {
			if err := w.store.Insert(&record); err != nil {
				counts.Failed++
				w.logger.Warn().
					Err(err).
					Str("key", record.NaturalKey()).
					Msg("Failed to insert attendance record")
				continue
			}
			counts.Inserted++
			continue
		}

		exists, err := w.store.Exists(record.NaturalKey())
		if err != nil {
			counts.Failed++
			w.logger.Warn().
				Err(err).
				Str("key", record.NaturalKey()).
				Msg("Failed to check attendance record")
			continue
		}
		if exists {
			counts.Skipped++
			continue
		}

		switch err := w.store.InsertUnique(&record); err {
		case nil:
			counts.Inserted++
		case interfaces.ErrDuplicateRecord:
			// Lost the check-then-insert race to another worker.
			counts.Skipped++
		default:
			counts.Failed++
			w.logger.Warn().
				Err(err).
				Str("key", record.NaturalKey()).
				Msg("Failed to insert attendance record")
		}
	}

	return counts
}

package badger

import (
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/Savio629/nregascan/internal/interfaces"
	"github.com/Savio629/nregascan/internal/models"
)

// SummaryStorage implements the SummaryStorage interface for Badger.
// Entries are append-only; re-committing an existing (date, block,
// panchayat, work code) key upserts the same value rather than duplicating.
type SummaryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSummaryStorage creates a new SummaryStorage instance
func NewSummaryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SummaryStorage {
	return &SummaryStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SummaryStorage) InsertBatch(entries []models.AggregatedEntry) error {
	now := time.Now()
	for i := range entries {
		entry := entries[i]
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		if err := s.db.Store().Upsert(entry.Key(), &entry); err != nil {
			return fmt.Errorf("failed to store summary entry %s: %w", entry.Key(), err)
		}
	}
	return nil
}

func (s *SummaryStorage) ListByDate(date string) ([]models.AggregatedEntry, error) {
	var entries []models.AggregatedEntry
	err := s.db.Store().Find(&entries, badgerhold.Where("Date").Eq(date).Index("Date"))
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list summary entries for %s: %w", date, err)
	}
	return entries, nil
}

func (s *SummaryStorage) Count() (int, error) {
	count, err := s.db.Store().Count(&models.AggregatedEntry{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count summary entries: %w", err)
	}
	return int(count), nil
}

package badger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/Savio629/nregascan/internal/interfaces"
	"github.com/Savio629/nregascan/internal/models"
)

// AttendanceStorage implements the AttendanceStorage interface for Badger.
//
// Two key schemes coexist: Insert keys rows by UUID (duplicate-tolerant
// bulk writes), InsertUnique keys rows by the natural key so a repeated
// run for the same date cannot store the same row twice.
type AttendanceStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAttendanceStorage creates a new AttendanceStorage instance
func NewAttendanceStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AttendanceStorage {
	return &AttendanceStorage{
		db:     db,
		logger: logger,
	}
}

func (s *AttendanceStorage) Insert(record *models.AttendanceRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if err := s.db.Store().Insert(uuid.New().String(), record); err != nil {
		return fmt.Errorf("failed to insert attendance record: %w", err)
	}
	return nil
}

func (s *AttendanceStorage) InsertUnique(record *models.AttendanceRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if err := s.db.Store().Insert(record.NaturalKey(), record); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return interfaces.ErrDuplicateRecord
		}
		return fmt.Errorf("failed to insert attendance record: %w", err)
	}
	return nil
}

func (s *AttendanceStorage) Exists(naturalKey string) (bool, error) {
	var record models.AttendanceRecord
	err := s.db.Store().Get(naturalKey, &record)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, badgerhold.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check attendance record: %w", err)
}

func (s *AttendanceStorage) FindByDate(date string, limit, offset int) ([]models.AttendanceRecord, error) {
	query := badgerhold.Where("AttendanceDate").Eq(date).Index("AttendanceDate")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Skip(offset)
	}

	var records []models.AttendanceRecord
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to find attendance records for %s: %w", date, err)
	}
	return records, nil
}

func (s *AttendanceStorage) CountByDate(date string) (int, error) {
	count, err := s.db.Store().Count(&models.AttendanceRecord{},
		badgerhold.Where("AttendanceDate").Eq(date).Index("AttendanceDate"))
	if err != nil {
		return 0, fmt.Errorf("failed to count attendance records for %s: %w", date, err)
	}
	return int(count), nil
}

// Package interfaces defines the storage contracts shared by the scrape
// and aggregation pipelines. Implementations live in internal/storage.
package interfaces

import (
	"errors"

	"github.com/Savio629/nregascan/internal/models"
)

// ErrDuplicateRecord is returned by InsertUnique when a record with the
// same natural key is already persisted.
var ErrDuplicateRecord = errors.New("record already exists")

// AttendanceStorage persists raw attendance records (the attendance_data
// table). Insert and Exists are separate operations: callers that need
// strict dedup under concurrent writers must serialize per key.
type AttendanceStorage interface {
	// Insert stores a record without any existence check. Duplicate
	// natural keys are possible in this mode.
	Insert(record *models.AttendanceRecord) error

	// InsertUnique stores a record keyed by its natural key. Inserting a
	// key that already exists returns ErrDuplicateRecord.
	InsertUnique(record *models.AttendanceRecord) error

	// Exists reports whether a record with the given natural key is
	// already persisted.
	Exists(naturalKey string) (bool, error)

	// FindByDate returns records for an attendance date, windowed by
	// limit and offset for paged reads.
	FindByDate(date string, limit, offset int) ([]models.AttendanceRecord, error)

	// CountByDate returns the number of records for an attendance date.
	CountByDate(date string) (int, error)
}

// SummaryStorage persists ranked aggregate entries (the
// highest_personday_works table). Output is append-only.
type SummaryStorage interface {
	// InsertBatch stores a chunk of entries. A failure applies to the
	// whole chunk; previously stored chunks are unaffected.
	InsertBatch(entries []models.AggregatedEntry) error

	// ListByDate returns all entries for a date.
	ListByDate(date string) ([]models.AggregatedEntry, error)

	// Count returns the total number of stored entries.
	Count() (int, error)
}

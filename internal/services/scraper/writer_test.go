package scraper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Savio629/nregascan/internal/interfaces"
	"github.com/Savio629/nregascan/internal/models"
)

// mockAttendanceStorage keeps unique-keyed records in a map and bulk
// inserts in a slice, mirroring the two write paths of the real store.
type mockAttendanceStorage struct {
	unique    map[string]models.AttendanceRecord
	bulk      []models.AttendanceRecord
	failKeys  map[string]bool
	existsErr error

	// raceKeys makes InsertUnique report a duplicate even though Exists
	// said the key was absent, simulating a concurrent worker landing
	// the record between the two calls.
	raceKeys map[string]bool
}

func newMockAttendanceStorage() *mockAttendanceStorage {
	return &mockAttendanceStorage{
		unique:   make(map[string]models.AttendanceRecord),
		failKeys: make(map[string]bool),
		raceKeys: make(map[string]bool),
	}
}

func (m *mockAttendanceStorage) Insert(record *models.AttendanceRecord) error {
	if m.failKeys[record.NaturalKey()] {
		return errors.New("insert failed")
	}
	m.bulk = append(m.bulk, *record)
	return nil
}

func (m *mockAttendanceStorage) InsertUnique(record *models.AttendanceRecord) error {
	key := record.NaturalKey()
	if m.failKeys[key] {
		return errors.New("insert failed")
	}
	if m.raceKeys[key] {
		return interfaces.ErrDuplicateRecord
	}
	if _, ok := m.unique[key]; ok {
		return interfaces.ErrDuplicateRecord
	}
	m.unique[key] = *record
	return nil
}

func (m *mockAttendanceStorage) Exists(naturalKey string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.unique[naturalKey]
	return ok, nil
}

func (m *mockAttendanceStorage) FindByDate(date string, limit, offset int) ([]models.AttendanceRecord, error) {
	return nil, nil
}

func (m *mockAttendanceStorage) CountByDate(date string) (int, error) {
	return len(m.unique) + len(m.bulk), nil
}

func testRecords() []models.AttendanceRecord {
	return []models.AttendanceRecord{
		{
			Block:          "SAURGARH",
			Panchayat:      "AMARI",
			WorkCode:       "3402005001/WC/101",
			Persondays:     12,
			AttendanceDate: "02/01/2025",
		},
		{
			Block:          "SAURGARH",
			Panchayat:      "AMARI",
			WorkCode:       "3402005001/WC/102",
			Persondays:     8,
			AttendanceDate: "02/01/2025",
		},
	}
}

func TestWriterPersist_DedupIdempotent(t *testing.T) {
	store := newMockAttendanceStorage()
	writer := NewWriter(store, arbor.NewLogger())
	records := testRecords()

	first := writer.Persist(records, WriteModeDedup)
	assert.Equal(t, WriteCounts{Inserted: 2}, first)

	// Running the identical batch again changes nothing.
	second := writer.Persist(records, WriteModeDedup)
	assert.Equal(t, WriteCounts{Skipped: 2}, second)
	assert.Len(t, store.unique, 2)
}

func TestWriterPersist_DedupLosesInsertRace(t *testing.T) {
	store := newMockAttendanceStorage()
	writer := NewWriter(store, arbor.NewLogger())
	records := testRecords()

	// A concurrent worker wins the insert between the existence check and
	// InsertUnique; the loser counts the record as skipped, not failed.
	store.raceKeys[records[0].NaturalKey()] = true

	counts := writer.Persist(records, WriteModeDedup)

	require.Equal(t, WriteCounts{Inserted: 1, Skipped: 1}, counts)
	assert.Len(t, store.unique, 1)
}

func TestWriterPersist_BulkAllowsDuplicates(t *testing.T) {
	store := newMockAttendanceStorage()
	writer := NewWriter(store, arbor.NewLogger())
	records := testRecords()

	first := writer.Persist(records, WriteModeBulk)
	second := writer.Persist(records, WriteModeBulk)

	assert.Equal(t, WriteCounts{Inserted: 2}, first)
	assert.Equal(t, WriteCounts{Inserted: 2}, second)
	assert.Len(t, store.bulk, 4)
}

func TestWriterPersist_FailureDoesNotAbortBatch(t *testing.T) {
	store := newMockAttendanceStorage()
	writer := NewWriter(store, arbor.NewLogger())
	records := testRecords()
	store.failKeys[records[0].NaturalKey()] = true

	counts := writer.Persist(records, WriteModeDedup)

	assert.Equal(t, WriteCounts{Inserted: 1, Failed: 1}, counts)
	assert.Len(t, store.unique, 1)
}

func TestWriterPersist_ExistsErrorCountsAsFailed(t *testing.T) {
	store := newMockAttendanceStorage()
	store.existsErr = errors.New("store offline")
	writer := NewWriter(store, arbor.NewLogger())

	counts := writer.Persist(testRecords(), WriteModeDedup)

	assert.Equal(t, WriteCounts{Failed: 2}, counts)
}

func TestWriteModeString(t *testing.T) {
	assert.Equal(t, "dedup", WriteModeDedup.String())
	assert.Equal(t, "bulk", WriteModeBulk.String())
}

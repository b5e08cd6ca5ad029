package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Savio629/nregascan/internal/models"
)

func record(block, panchayat, workCode string, persondays int) models.AttendanceRecord {
	return models.AttendanceRecord{
		Block:          block,
		Panchayat:      panchayat,
		WorkCode:       workCode,
		Persondays:     persondays,
		AttendanceDate: "01/04/2025",
	}
}

func TestRank_Empty(t *testing.T) {
	entries := Rank(nil, "01/04/2025")
	assert.Empty(t, entries)
}

func TestRank_SingleBlockSingleWinner(t *testing.T) {
	records := []models.AttendanceRecord{
		record("A", "P1", "W1", 5),
		record("A", "P2", "W2", 3),
	}

	entries := Rank(records, "01/04/2025")

	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].Block)
	assert.Equal(t, "P1", entries[0].Panchayat)
	assert.Equal(t, "W1", entries[0].WorkCode)
	assert.Equal(t, 5, entries[0].Persondays)
	assert.Equal(t, "01/04/2025", entries[0].Date)
}

func TestRank_SumsAcrossRecordsOfSameGroup(t *testing.T) {
	// Multiple muster rolls for the same (panchayat, work code) sum into
	// one group total.
	records := []models.AttendanceRecord{
		record("A", "P1", "W1", 2),
		record("A", "P1", "W1", 3),
		record("A", "P2", "W2", 4),
	}

	entries := Rank(records, "01/04/2025")

	require.Len(t, entries, 1)
	assert.Equal(t, "P1", entries[0].Panchayat)
	assert.Equal(t, 5, entries[0].Persondays)
}

func TestRank_TiesAllEmitted(t *testing.T) {
	records := []models.AttendanceRecord{
		record("A", "P1", "W1", 5),
		record("A", "P2", "W2", 5),
		record("A", "P3", "W3", 3),
	}

	entries := Rank(records, "01/04/2025")

	require.Len(t, entries, 2)
	assert.Equal(t, "P1", entries[0].Panchayat)
	assert.Equal(t, "W1", entries[0].WorkCode)
	assert.Equal(t, 5, entries[0].Persondays)
	assert.Equal(t, "P2", entries[1].Panchayat)
	assert.Equal(t, "W2", entries[1].WorkCode)
	assert.Equal(t, 5, entries[1].Persondays)
}

func TestRank_MultipleBlocksIndependentMaxima(t *testing.T) {
	records := []models.AttendanceRecord{
		record("A", "P1", "W1", 5),
		record("B", "P9", "W9", 1),
		record("A", "P2", "W2", 3),
		record("B", "P8", "W8", 2),
	}

	entries := Rank(records, "01/04/2025")

	require.Len(t, entries, 2)
	// Blocks appear in first-occurrence order.
	assert.Equal(t, "A", entries[0].Block)
	assert.Equal(t, 5, entries[0].Persondays)
	assert.Equal(t, "B", entries[1].Block)
	assert.Equal(t, "P8", entries[1].Panchayat)
	assert.Equal(t, 2, entries[1].Persondays)
}

func TestRank_ZeroPersondaysGroupsStillRank(t *testing.T) {
	// A block whose groups all coerced to zero still emits its maxima:
	// zero is a valid total, and ties at zero are preserved.
	records := []models.AttendanceRecord{
		record("A", "P1", "W1", 0),
		record("A", "P2", "W2", 0),
	}

	entries := Rank(records, "01/04/2025")

	require.Len(t, entries, 2)
	assert.Equal(t, 0, entries[0].Persondays)
	assert.Equal(t, 0, entries[1].Persondays)
}

func TestRank_Deterministic(t *testing.T) {
	records := []models.AttendanceRecord{
		record("A", "P3", "W3", 4),
		record("A", "P1", "W1", 4),
		record("B", "P2", "W2", 7),
		record("A", "P4", "W4", 1),
	}

	first := Rank(records, "01/04/2025")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Rank(records, "01/04/2025"))
	}
}

func TestRank_NoSmallerGroupEmitted(t *testing.T) {
	records := []models.AttendanceRecord{
		record("A", "P1", "W1", 5),
		record("A", "P2", "W2", 5),
		record("A", "P3", "W3", 3),
	}

	entries := Rank(records, "01/04/2025")

	for _, entry := range entries {
		assert.Equal(t, 5, entry.Persondays)
		assert.NotEqual(t, "P3", entry.Panchayat)
	}
}

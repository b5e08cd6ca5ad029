// Package aggregator derives the per-block leaderboard from a day's raw
// attendance records: it sums person-days per (panchayat, work code)
// group within each block and keeps every group tied at the block's
// maximum.
package aggregator

import (
	"github.com/Savio629/nregascan/internal/models"
)

// workTotal accumulates person-days for one (panchayat, work code) group.
type workTotal struct {
	panchayat  string
	workCode   string
	persondays int
}

// blockGroups holds a block's groups in first-occurrence order, which
// keeps the emitted ranking deterministic.
type blockGroups struct {
	block  string
	order  []string
	totals map[string]*workTotal
}

// Rank groups records by block and by (panchayat, work code), sums
// person-days per group, and returns one entry per group whose total
// equals its block's maximum. Ties are all kept; a block with no records
// contributes nothing. Output order is first occurrence of block, then
// first occurrence of the winning group within the block.
func Rank(records []models.AttendanceRecord, date string) []models.AggregatedEntry {
	blockOrder := make([]string, 0)
	blocks := make(map[string]*blockGroups)

	for i := range records {
		record := &records[i]

		groups, ok := blocks[record.Block]
		if !ok {
			groups = &blockGroups{
				block:  record.Block,
				totals: make(map[string]*workTotal),
			}
			blocks[record.Block] = groups
			blockOrder = append(blockOrder, record.Block)
		}

		key := record.Panchayat + "|" + record.WorkCode
		total, ok := groups.totals[key]
		if !ok {
			total = &workTotal{
				panchayat: record.Panchayat,
				workCode:  record.WorkCode,
			}
			groups.totals[key] = total
			groups.order = append(groups.order, key)
		}

		total.persondays += record.Persondays
	}

	var entries []models.AggregatedEntry
	for _, block := range blockOrder {
		groups := blocks[block]

		max := 0
		first := true
		for _, key := range groups.order {
			if t := groups.totals[key]; first || t.persondays > max {
				max = t.persondays
				first = false
			}
		}

		for _, key := range groups.order {
			total := groups.totals[key]
			if total.persondays != max {
				continue
			}
			entries = append(entries, models.AggregatedEntry{
				Date:       date,
				Block:      block,
				Panchayat:  total.panchayat,
				WorkCode:   total.workCode,
				Persondays: total.persondays,
			})
		}
	}

	return entries
}

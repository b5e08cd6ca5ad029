package models

import (
	"fmt"
	"time"
)

// AttendanceDateFormat is the calendar-date format used by the report
// portal for dropdown options and persisted records (DD/MM/YYYY).
const AttendanceDateFormat = "02/01/2006"

// AttendanceRecord is one row of labor attendance for a work site on a
// date, as extracted from a block detail page. Records are immutable once
// persisted; the pipeline never updates or deletes them.
type AttendanceRecord struct {
	SNo            string    `json:"s_no"` // as displayed, not guaranteed numeric or unique across blocks
	District       string    `json:"district"`
	Block          string    `json:"block" badgerholdIndex:"Block"`
	Panchayat      string    `json:"panchayat"`
	WorkCode       string    `json:"work_code"`
	MustrollNo     string    `json:"mustroll_no"`
	Persondays     int       `json:"persondays_generated"`
	AttendanceDate string    `json:"attendance_date" badgerholdIndex:"AttendanceDate"` // DD/MM/YYYY
	CreatedAt      time.Time `json:"created_at"`
}

// NaturalKey returns the de-duplication key for the record. No two raw
// records sharing this key should be persisted twice, though a scrape may
// legitimately re-encounter the same key across retries.
func (r *AttendanceRecord) NaturalKey() string {
	return fmt.Sprintf("%s|%s|%s|%s", r.AttendanceDate, r.Block, r.Panchayat, r.WorkCode)
}

// AggregatedEntry is a ranking result: one (panchayat, work code) group
// that holds the maximum total person-days within its block for a date.
// Ties at the maximum each produce their own entry.
type AggregatedEntry struct {
	Date       string    `json:"date" badgerholdIndex:"Date"` // DD/MM/YYYY
	Block      string    `json:"block"`
	Panchayat  string    `json:"panchayat"`
	WorkCode   string    `json:"work_code"`
	Persondays int       `json:"number_of_workers_employed"` // total person-days for the group
	CreatedAt  time.Time `json:"created_at"`
}

// Key returns the storage key for the entry.
func (e *AggregatedEntry) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s", e.Date, e.Block, e.Panchayat, e.WorkCode)
}

// YesterdayDate returns the previous calendar day in the portal's date
// format, relative to the given time (server-local).
func YesterdayDate(now time.Time) string {
	return now.AddDate(0, 0, -1).Format(AttendanceDateFormat)
}

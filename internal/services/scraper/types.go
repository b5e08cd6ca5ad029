// Package scraper drives the NMMS attendance report portal: it resolves a
// target date against the portal's date dropdown, walks the per-block
// index table, extracts each block's attendance rows and persists them.
package scraper

import (
	"errors"
	"fmt"
)

// ErrDateUnavailable signals that an explicitly requested date is not
// present in the portal's date dropdown. This is an expected outcome, not
// a failure; callers decide whether it is fatal.
var ErrDateUnavailable = errors.New("requested date not available in selector options")

// NavigationError is surfaced after a navigation step has exhausted its
// retry budget. It carries the attempt count and the final cause.
type NavigationError struct {
	Op       string
	Attempts int
	Cause    error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation failed: %s after %d attempts: %v", e.Op, e.Attempts, e.Cause)
}

func (e *NavigationError) Unwrap() error {
	return e.Cause
}

// BlockLink is one row of the per-block index table: the block's display
// name and the absolute URL of its detail page.
type BlockLink struct {
	BlockName string
	DetailURL string
}

// DateMode selects how target dates are resolved against the dropdown.
type DateMode int

const (
	// DateExplicit targets one specific date; absent dates yield
	// ErrDateUnavailable.
	DateExplicit DateMode = iota
	// DateLatest targets the most recent available date.
	DateLatest
	// DateAll targets every available date except the exclusion set.
	DateAll
)

// DateSelector describes which attendance date(s) a run should process.
type DateSelector struct {
	Mode        DateMode
	Date        string          // explicit date, DD/MM/YYYY
	Exclude     map[string]bool // dates to skip in DateAll mode
	OldestFirst bool            // DateAll iteration order
}

// ExplicitDate returns a selector for one specific date.
func ExplicitDate(date string) DateSelector {
	return DateSelector{Mode: DateExplicit, Date: date}
}

// LatestDate returns a selector for the most recent available date.
func LatestDate() DateSelector {
	return DateSelector{Mode: DateLatest}
}

// AllDates returns a selector for every available date except exclusions.
func AllDates(exclude []string, oldestFirst bool) DateSelector {
	set := make(map[string]bool, len(exclude))
	for _, d := range exclude {
		set[d] = true
	}
	return DateSelector{Mode: DateAll, Exclude: set, OldestFirst: oldestFirst}
}

// Resolve filters the dropdown's option list down to the dates this
// selector targets, in processing order. The second return value is false
// when an explicit date is not among the options.
func (s DateSelector) Resolve(available []string) ([]string, bool) {
	switch s.Mode {
	case DateExplicit:
		for _, d := range available {
			if d == s.Date {
				return []string{s.Date}, true
			}
		}
		return nil, false

	case DateLatest:
		if len(available) == 0 {
			return nil, false
		}
		// The portal lists options newest-first.
		return []string{available[0]}, true

	default: // DateAll
		dates := make([]string, 0, len(available))
		for _, d := range available {
			if d == "" || s.Exclude[d] {
				continue
			}
			dates = append(dates, d)
		}
		if s.OldestFirst {
			for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
				dates[i], dates[j] = dates[j], dates[i]
			}
		}
		return dates, true
	}
}

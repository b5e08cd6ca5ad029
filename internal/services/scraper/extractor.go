package scraper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/Savio629/nregascan/internal/common"
	"github.com/Savio629/nregascan/internal/models"
)

// Detail-table column positions. The portal renders these in a fixed
// order; ExtractRows verifies the order against the expected header
// before trusting the positions.
const (
	colSNo = iota
	colDistrict
	colBlock
	colPanchayat
	colWorkCode
	colMustroll
	colPersondays
	columnCount
)

// Extractor turns a rendered block detail page into typed attendance
// records. Missing cells resolve to documented defaults rather than
// errors: absence of data must not crash aggregation.
type Extractor struct {
	defaultDistrict string
	expectedHeader  []string
	logger          arbor.ILogger
}

// NewExtractor creates an extractor from configuration
func NewExtractor(cfg common.ExtractorConfig, logger arbor.ILogger) *Extractor {
	return &Extractor{
		defaultDistrict: cfg.DefaultDistrict,
		expectedHeader:  cfg.ExpectedHeader,
		logger:          logger,
	}
}

// ExtractRows parses the detail table markup into attendance records for
// the given date. A page without a table yields an empty slice and no
// error. A table whose header does not match the expected column order
// also yields no records; the mismatch is logged, never raised, so a
// changed site layout degrades to an empty scrape instead of bad data.
func (e *Extractor) ExtractRows(html, date string) ([]models.AttendanceRecord, error) {
	doc, err := parseTableFragment(html)
	if err != nil {
		return nil, fmt.Errorf("invalid markup: %w", err)
	}

	rows := doc.Find("tr")
	if rows.Length() == 0 {
		return nil, nil
	}

	dataRows := make([]*goquery.Selection, 0, rows.Length())
	headerChecked := false
	headerOK := true

	rows.Each(func(i int, row *goquery.Selection) {
		if header := row.Find("th"); header.Length() > 0 {
			if !headerChecked {
				headerChecked = true
				headerOK = e.validateHeader(header)
			}
			return
		}
		dataRows = append(dataRows, row)
	})

	if !headerOK {
		return nil, nil
	}

	records := make([]models.AttendanceRecord, 0, len(dataRows))
	for i, row := range dataRows {
		cells := row.Find("td")
		if cells.Length() == 0 {
			continue
		}

		record := models.AttendanceRecord{
			SNo:            cellText(cells, colSNo),
			District:       cellText(cells, colDistrict),
			Block:          cellText(cells, colBlock),
			Panchayat:      cellText(cells, colPanchayat),
			WorkCode:       cellText(cells, colWorkCode),
			MustrollNo:     mustrollText(cells),
			Persondays:     ParsePersondays(cellText(cells, colPersondays)),
			AttendanceDate: date,
		}

		// A missing sequence number falls back to the row's 1-based
		// position; a missing district falls back to the configured one.
		if record.SNo == "" {
			record.SNo = strconv.Itoa(i + 1)
		}
		if record.District == "" {
			record.District = e.defaultDistrict
		}

		records = append(records, record)
	}

	return records, nil
}

// validateHeader compares the table's header row against the expected
// column names, position by position. Matching is case-insensitive and
// ignores whitespace and punctuation noise in the portal's headings.
func (e *Extractor) validateHeader(header *goquery.Selection) bool {
	if len(e.expectedHeader) == 0 {
		return true
	}

	for i, want := range e.expectedHeader {
		if i >= header.Length() {
			e.logger.Warn().
				Int("expected_columns", len(e.expectedHeader)).
				Int("found_columns", header.Length()).
				Msg("Detail table header has fewer columns than expected, skipping page")
			return false
		}

		got := header.Eq(i).Text()
		if !headerMatches(got, want) {
			e.logger.Warn().
				Int("column", i).
				Str("expected", want).
				Str("found", strings.TrimSpace(got)).
				Msg("Detail table column order changed, skipping page")
			return false
		}
	}

	return true
}

func headerMatches(got, want string) bool {
	return strings.Contains(normalizeHeader(got), normalizeHeader(want))
}

func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// cellText returns the trimmed text of the cell at the given position, or
// an empty string when the row is short.
func cellText(cells *goquery.Selection, index int) string {
	if index >= cells.Length() {
		return ""
	}
	return strings.TrimSpace(cells.Eq(index).Text())
}

// mustrollText reads the muster roll reference, which the portal renders
// either as plain text or as a link.
func mustrollText(cells *goquery.Selection) string {
	if colMustroll >= cells.Length() {
		return ""
	}
	cell := cells.Eq(colMustroll)
	if anchor := cell.Find("a").First(); anchor.Length() > 0 {
		return strings.TrimSpace(anchor.Text())
	}
	return strings.TrimSpace(cell.Text())
}

// ParsePersondays coerces the person-days cell text to an integer.
// Non-numeric or empty text yields zero: a malformed source page
// under-counts rather than failing the run.
func ParsePersondays(text string) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	return n
}

package scraper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Dropdown options as the portal lists them: newest first.
var dropdownDates = []string{"03/01/2025", "02/01/2025", "01/01/2025"}

func TestDateSelectorResolve_ExplicitPresent(t *testing.T) {
	dates, ok := ExplicitDate("02/01/2025").Resolve(dropdownDates)

	require.True(t, ok)
	assert.Equal(t, []string{"02/01/2025"}, dates)
}

func TestDateSelectorResolve_ExplicitAbsent(t *testing.T) {
	dates, ok := ExplicitDate("15/06/2024").Resolve(dropdownDates)

	assert.False(t, ok)
	assert.Nil(t, dates)
}

func TestDateSelectorResolve_LatestPicksFirstOption(t *testing.T) {
	dates, ok := LatestDate().Resolve(dropdownDates)

	require.True(t, ok)
	assert.Equal(t, []string{"03/01/2025"}, dates)
}

func TestDateSelectorResolve_LatestNoOptions(t *testing.T) {
	_, ok := LatestDate().Resolve(nil)

	assert.False(t, ok)
}

func TestDateSelectorResolve_AllWithExclusions(t *testing.T) {
	sel := AllDates([]string{"02/01/2025"}, false)

	dates, ok := sel.Resolve(dropdownDates)

	require.True(t, ok)
	assert.Equal(t, []string{"03/01/2025", "01/01/2025"}, dates)
}

func TestDateSelectorResolve_AllOldestFirst(t *testing.T) {
	sel := AllDates(nil, true)

	dates, ok := sel.Resolve(dropdownDates)

	require.True(t, ok)
	assert.Equal(t, []string{"01/01/2025", "02/01/2025", "03/01/2025"}, dates)
}

func TestDateSelectorResolve_AllSkipsBlankOptions(t *testing.T) {
	sel := AllDates(nil, false)

	dates, ok := sel.Resolve([]string{"", "03/01/2025", ""})

	require.True(t, ok)
	assert.Equal(t, []string{"03/01/2025"}, dates)
}

func TestNavigationError_Unwrap(t *testing.T) {
	cause := errors.New("net::ERR_CONNECTION_RESET")
	err := &NavigationError{Op: "open landing page", Attempts: 4, Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "after 4 attempts")
}

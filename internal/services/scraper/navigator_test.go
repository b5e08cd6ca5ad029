package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexTableHTML = `<tbody>
<tr>
	<th>S.No</th><th>State</th><th>District</th><th>Block</th><th>Works</th>
</tr>
<tr>
	<td>1</td><td>UP</td><td>BASTI</td>
	<td><a href="View_NMMS_atten.aspx?block_code=01">SAURGARH</a></td>
	<td>120</td>
</tr>
<tr>
	<td>2</td><td>UP</td><td>BASTI</td>
	<td><a href="https://mnregaweb4.nic.in/nregaarch/View_NMMS_atten.aspx?block_code=02">HARRAIYA</a></td>
	<td>98</td>
</tr>
<tr>
	<td>3</td><td>UP</td><td>BASTI</td>
	<td>TOTAL</td>
	<td>218</td>
</tr>
</tbody>`

const testBaseURL = "https://mnregaweb4.nic.in/nregaarch/View_NMMS_atten_date_new.aspx"

func TestParseBlockLinks(t *testing.T) {
	links, err := ParseBlockLinks(indexTableHTML, testBaseURL, 3)

	require.NoError(t, err)
	require.Len(t, links, 2)

	// Relative hrefs resolve against the landing page URL.
	assert.Equal(t, "SAURGARH", links[0].BlockName)
	assert.Equal(t, "https://mnregaweb4.nic.in/nregaarch/View_NMMS_atten.aspx?block_code=01", links[0].DetailURL)

	// Absolute hrefs pass through unchanged.
	assert.Equal(t, "HARRAIYA", links[1].BlockName)
	assert.Equal(t, "https://mnregaweb4.nic.in/nregaarch/View_NMMS_atten.aspx?block_code=02", links[1].DetailURL)
}

func TestParseBlockLinks_SkipsRowsWithoutLink(t *testing.T) {
	// The summary row without an anchor is skipped, not errored.
	links, err := ParseBlockLinks(indexTableHTML, testBaseURL, 3)

	require.NoError(t, err)
	for _, link := range links {
		assert.NotEqual(t, "TOTAL", link.BlockName)
	}
}

func TestParseBlockLinks_EmptyTable(t *testing.T) {
	links, err := ParseBlockLinks("<tbody></tbody>", testBaseURL, 3)

	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestParseBlockLinks_ShortRows(t *testing.T) {
	html := `<tbody><tr><td>1</td><td>UP</td></tr></tbody>`

	links, err := ParseBlockLinks(html, testBaseURL, 3)

	require.NoError(t, err)
	assert.Empty(t, links)
}

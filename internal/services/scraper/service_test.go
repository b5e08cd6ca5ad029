package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Savio629/nregascan/internal/common"
)

// fakePortal serves canned markup for the landing page and the block
// detail pages, standing in for the chromedp-backed renderer.
type fakePortal struct {
	mu         sync.Mutex
	dates      []string
	indexHTML  string
	detailHTML map[string]string
	failNav    map[string]bool
	onNavigate func(url string)
}

func (p *fakePortal) NewSession(ctx context.Context) (PageSession, error) {
	return &fakeSession{portal: p}, nil
}

func (p *fakePortal) Shutdown() error { return nil }

type fakeSession struct {
	portal  *fakePortal
	current string
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.portal.mu.Lock()
	fail := s.portal.failNav[url]
	hook := s.portal.onNavigate
	s.portal.mu.Unlock()

	if hook != nil {
		hook(url)
	}
	if fail {
		return errors.New("net::ERR_CONNECTION_RESET")
	}
	s.current = url
	return nil
}

func (s *fakeSession) WaitVisible(ctx context.Context, selector string) error {
	return nil
}

func (s *fakeSession) SelectOptions(ctx context.Context, selector string) ([]string, error) {
	return s.portal.dates, nil
}

func (s *fakeSession) SetSelect(ctx context.Context, selector, value string) error {
	return nil
}

func (s *fakeSession) OuterHTML(ctx context.Context, selector string) (string, error) {
	s.portal.mu.Lock()
	defer s.portal.mu.Unlock()
	if html, ok := s.portal.detailHTML[s.current]; ok {
		return html, nil
	}
	return s.portal.indexHTML, nil
}

func (s *fakeSession) Close() {}

func testServiceConfig() *common.Config {
	config := common.NewDefaultConfig()
	config.Scraper.MaxSessions = 2
	config.Scraper.PageDelay = 0
	config.Scraper.RandomDelay = 0
	config.Scraper.RenderWait = 0
	config.Retry.MaxRetries = 2
	config.Retry.BaseDelay = 0
	config.Retry.MaxJitter = 0
	config.Extractor.ExpectedHeader = nil
	return config
}

func blockIndex(urls ...string) string {
	html := "<tbody>"
	for i, u := range urls {
		html += fmt.Sprintf(
			`<tr><td>%d</td><td>UP</td><td>BASTI</td><td><a href=%q>BLOCK%d</a></td></tr>`,
			i+1, u, i+1,
		)
	}
	return html + "</tbody>"
}

func detailRow(block, panchayat string, persondays int) string {
	return fmt.Sprintf(
		`<tbody><tr><td>1</td><td>BASTI</td><td>%s</td><td>%s</td><td>WC1</td><td>77</td><td>%d</td></tr></tbody>`,
		block, panchayat, persondays,
	)
}

func TestServiceRun_ExplicitDateUnavailable(t *testing.T) {
	portal := &fakePortal{dates: []string{"03/01/2025", "02/01/2025"}}
	store := newMockAttendanceStorage()
	service := NewService(testServiceConfig(), portal, store, arbor.NewLogger())

	results, err := service.Run(context.Background(), ExplicitDate("15/06/2024"), WriteModeDedup)

	// An absent date is an outcome for the caller to judge, not an error.
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Unavailable)
	assert.False(t, results[0].Failed)
	assert.Equal(t, "15/06/2024", results[0].Date)
	assert.Empty(t, store.unique)
}

func TestServiceRun_BlockFailureContained(t *testing.T) {
	urlA := "https://portal.test/block_1.aspx"
	urlB := "https://portal.test/block_2.aspx"

	portal := &fakePortal{
		dates:     []string{"02/01/2025"},
		indexHTML: blockIndex(urlA, urlB),
		detailHTML: map[string]string{
			urlA: detailRow("BLOCK1", "AMARI", 12),
		},
		failNav: map[string]bool{urlB: true},
	}
	store := newMockAttendanceStorage()
	service := NewService(testServiceConfig(), portal, store, arbor.NewLogger())

	results, err := service.Run(context.Background(), ExplicitDate("02/01/2025"), WriteModeDedup)

	require.NoError(t, err)
	require.Len(t, results, 1)

	// The failing block exhausts its retries; the other block's records
	// still land.
	result := results[0]
	assert.False(t, result.Failed)
	assert.Equal(t, 2, result.Blocks)
	assert.Equal(t, 1, result.BlocksFailed)
	assert.Equal(t, 1, result.Records)
	assert.Equal(t, 1, result.Counts.Inserted)
	assert.Len(t, store.unique, 1)
}

func TestServiceRun_CancelCountsUnstartedBlocksAsFailed(t *testing.T) {
	urlA := "https://portal.test/block_1.aspx"
	urlB := "https://portal.test/block_2.aspx"
	urlC := "https://portal.test/block_3.aspx"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	portal := &fakePortal{
		dates:     []string{"02/01/2025"},
		indexHTML: blockIndex(urlA, urlB, urlC),
		detailHTML: map[string]string{
			urlA: detailRow("BLOCK1", "AMARI", 12),
			urlB: detailRow("BLOCK2", "BELWA", 8),
			urlC: detailRow("BLOCK3", "KAPTA", 4),
		},
	}
	// Cancellation fires while the first block is still being fetched.
	portal.onNavigate = func(url string) {
		if url == urlA {
			cancel()
		}
	}

	config := testServiceConfig()
	config.Scraper.MaxSessions = 1
	store := newMockAttendanceStorage()
	service := NewService(config, portal, store, arbor.NewLogger())

	results, err := service.Run(ctx, ExplicitDate("02/01/2025"), WriteModeDedup)

	require.NoError(t, err)
	require.Len(t, results, 1)

	// The first block completes; the rest are reported failed, not as
	// empty successes.
	result := results[0]
	assert.Equal(t, 3, result.Blocks)
	assert.Equal(t, 2, result.BlocksFailed)
	assert.Equal(t, 1, result.Records)
	assert.Len(t, store.unique, 1)
}

package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/Savio629/nregascan/internal/common"
)

// Navigator drives a rendering session through the portal's required
// sequence: load the landing page, read the date dropdown, select a date,
// wait for the per-block index table, and extract one link per block.
//
// States: Landed -> DateSelected -> IndexReady. Each transition is a
// renderer call wrapped in the retry policy; cancellation is checked
// between transitions, never mid-transition.
type Navigator struct {
	site   *common.SiteConfig
	retry  *RetryPolicy
	logger arbor.ILogger
}

// NewNavigator creates a navigator for the configured portal
func NewNavigator(site *common.SiteConfig, retry *RetryPolicy, logger arbor.ILogger) *Navigator {
	return &Navigator{
		site:   site,
		retry:  retry,
		logger: logger,
	}
}

// Open loads the landing page on the session and returns the date
// dropdown's option list. Rendering and timeout failures are retried;
// exhausting retries surfaces a NavigationError.
func (n *Navigator) Open(ctx context.Context, session PageSession, seedDate string) ([]string, error) {
	landingURL := n.site.LandingURL(seedDate)

	var options []string
	err := n.retry.Attempt(ctx, "open landing page", func(ctx context.Context) error {
		if err := session.Navigate(ctx, landingURL); err != nil {
			return err
		}
		if err := session.WaitVisible(ctx, n.site.DateSelector); err != nil {
			return err
		}

		opts, err := session.SelectOptions(ctx, n.site.DateSelector)
		if err != nil {
			return err
		}
		options = opts
		return nil
	})
	if err != nil {
		return nil, err
	}

	n.logger.Debug().
		Str("url", landingURL).
		Int("date_options", len(options)).
		Msg("Landing page rendered")

	return options, nil
}

// DiscoverBlockLinks selects the given date on an already-opened session,
// waits for the dependent index table, and returns one link per
// administrative block. Rows without a parseable link are skipped.
func (n *Navigator) DiscoverBlockLinks(ctx context.Context, session PageSession, date string) ([]BlockLink, error) {
	tableSelector := n.site.ReportSelector + " table tbody"

	var html string
	err := n.retry.Attempt(ctx, "select date "+date, func(ctx context.Context) error {
		if err := session.SetSelect(ctx, n.site.DateSelector, date); err != nil {
			return err
		}
		if err := session.WaitVisible(ctx, tableSelector); err != nil {
			return err
		}

		markup, err := session.OuterHTML(ctx, tableSelector)
		if err != nil {
			return err
		}
		html = markup
		return nil
	})
	if err != nil {
		return nil, err
	}

	links, err := ParseBlockLinks(html, n.site.BaseURL, n.site.BlockLinkColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse block index table: %w", err)
	}

	n.logger.Info().
		Str("date", date).
		Int("blocks", len(links)).
		Msg("Block links discovered")

	return links, nil
}

// ParseBlockLinks extracts (block name, detail URL) pairs from the index
// table markup. The block link sits in a fixed cell position; relative
// hrefs are resolved against the landing page URL.
func ParseBlockLinks(html, baseURL string, linkColumn int) ([]BlockLink, error) {
	doc, err := parseTableFragment(html)
	if err != nil {
		return nil, fmt.Errorf("invalid markup: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	var links []BlockLink
	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		cell := row.Find("td").Eq(linkColumn)
		if cell.Length() == 0 {
			return
		}

		anchor := cell.Find("a").First()
		if anchor.Length() == 0 {
			return
		}

		href, ok := anchor.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}

		links = append(links, BlockLink{
			BlockName: strings.TrimSpace(anchor.Text()),
			DetailURL: base.ResolveReference(ref).String(),
		})
	})

	return links, nil
}

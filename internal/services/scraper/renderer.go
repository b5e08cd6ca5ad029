package scraper

import "context"

// PageSession drives one rendered page. Sessions are not re-entrant: a
// session belongs to exactly one worker at a time.
type PageSession interface {
	// Navigate loads a URL and waits for network quiescence.
	Navigate(ctx context.Context, url string) error

	// WaitVisible blocks until the element matching selector is rendered
	// and visible, or the session's request timeout elapses.
	WaitVisible(ctx context.Context, selector string) error

	// SelectOptions returns the option values of the select element
	// matching selector.
	SelectOptions(ctx context.Context, selector string) ([]string, error)

	// SetSelect sets the select element's value and fires its change
	// event, triggering any dependent re-render.
	SetSelect(ctx context.Context, selector, value string) error

	// OuterHTML returns the rendered markup of the element matching
	// selector.
	OuterHTML(ctx context.Context, selector string) (string, error)

	// Close releases the session's browser tab.
	Close()
}

// PageRenderer hands out rendering sessions. The chromedp-backed
// implementation lives in browser.go; tests substitute their own.
type PageRenderer interface {
	NewSession(ctx context.Context) (PageSession, error)
	Shutdown() error
}

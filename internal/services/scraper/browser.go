package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/Savio629/nregascan/internal/common"
)

// BrowserPool manages a pool of chromedp browser instances and implements
// PageRenderer. Sessions are tabs opened on pool browsers with round-robin
// allocation, so concurrent workers never share a tab.
type BrowserPool struct {
	config common.ScraperConfig
	logger arbor.ILogger

	browsers         []context.Context
	browserCancels   []context.CancelFunc
	allocatorCancels []context.CancelFunc
	mu               sync.Mutex
	currentIndex     int
	initialized      bool
}

// NewBrowserPool creates a browser pool sized to the configured session
// count. Browsers are launched lazily on Init.
func NewBrowserPool(config common.ScraperConfig, logger arbor.ILogger) *BrowserPool {
	return &BrowserPool{
		config: config,
		logger: logger,
	}
}

// Init launches the pool's browser instances. Failing to launch any
// browser at all is fatal; launching fewer than requested is logged and
// the pool runs degraded.
func (p *BrowserPool) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return fmt.Errorf("browser pool already initialized")
	}

	requested := p.config.MaxSessions
	if requested <= 0 {
		return fmt.Errorf("max_sessions must be greater than 0, got: %d", requested)
	}

	p.logger.Info().
		Int("pool_size", requested).
		Bool("headless", p.config.Headless).
		Msg("Initializing browser pool")

	for i := 0; i < requested; i++ {
		if err := p.createBrowserInstance(i); err != nil {
			p.logger.Warn().
				Err(err).
				Int("browser_index", i).
				Msg("Failed to create browser instance")

			// No working browser at all means no rendering session can
			// ever be acquired; that escalates to whole-run failure.
			if len(p.browsers) == 0 {
				p.cleanupInstances()
				return fmt.Errorf("failed to create any browser instances, last error: %w", err)
			}
		}
	}

	if len(p.browsers) < requested {
		p.logger.Warn().
			Int("requested", requested).
			Int("created", len(p.browsers)).
			Msg("Created fewer browser instances than requested")
	}

	p.initialized = true
	p.logger.Info().
		Int("browsers_created", len(p.browsers)).
		Msg("Browser pool initialized")

	return nil
}

func (p *BrowserPool) createBrowserInstance(index int) error {
	startTime := time.Now()

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", p.config.Headless),
		chromedp.Flag("disable-gpu", p.config.DisableGPU),
		chromedp.Flag("no-sandbox", p.config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-software-rasterizer", true),
		chromedp.UserAgent(p.config.UserAgent),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(
		context.Background(),
		allocatorOpts...,
	)

	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	// Startup test: a browser that cannot reach about:blank is discarded.
	testTimeout := 30 * time.Second
	if p.config.RequestTimeout > 0 {
		testTimeout = time.Duration(p.config.RequestTimeout)
	}
	testCtx, testCancel := context.WithTimeout(browserCtx, testTimeout)
	defer testCancel()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocatorCancel()
		return fmt.Errorf("browser instance failed startup test: %w", err)
	}

	p.browsers = append(p.browsers, browserCtx)
	p.browserCancels = append(p.browserCancels, browserCancel)
	p.allocatorCancels = append(p.allocatorCancels, allocatorCancel)

	p.logger.Debug().
		Int("browser_index", index).
		Dur("startup_time", time.Since(startTime)).
		Msg("Browser instance created")

	return nil
}

// NewSession opens a fresh tab on the next pool browser.
func (p *BrowserPool) NewSession(ctx context.Context) (PageSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return nil, fmt.Errorf("browser pool not initialized")
	}
	if len(p.browsers) == 0 {
		return nil, fmt.Errorf("no browser instances available")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	index := p.currentIndex % len(p.browsers)
	p.currentIndex = (p.currentIndex + 1) % len(p.browsers)

	tabCtx, tabCancel := chromedp.NewContext(p.browsers[index])

	p.logger.Debug().
		Int("browser_index", index).
		Msg("Browser tab allocated from pool")

	return &chromeSession{
		tabCtx:     tabCtx,
		tabCancel:  tabCancel,
		timeout:    time.Duration(p.config.RequestTimeout),
		renderWait: time.Duration(p.config.RenderWait),
		logger:     p.logger,
	}, nil
}

// Shutdown closes all browser instances in the pool.
func (p *BrowserPool) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return nil
	}

	browserCount := len(p.browsers)
	p.logger.Info().
		Int("browser_count", browserCount).
		Msg("Shutting down browser pool")

	done := make(chan struct{})
	go func() {
		p.cleanupInstances()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		p.logger.Warn().
			Int("browser_count", browserCount).
			Msg("Browser pool shutdown timed out")
	}

	p.initialized = false
	return nil
}

// cleanupInstances cancels all browser and allocator contexts (must be
// called with the mutex held)
func (p *BrowserPool) cleanupInstances() {
	for _, cancel := range p.browserCancels {
		if cancel != nil {
			cancel()
		}
	}
	for _, cancel := range p.allocatorCancels {
		if cancel != nil {
			cancel()
		}
	}
	p.browsers = nil
	p.browserCancels = nil
	p.allocatorCancels = nil
	p.currentIndex = 0
}

// chromeSession implements PageSession on a chromedp tab context.
type chromeSession struct {
	tabCtx     context.Context
	tabCancel  context.CancelFunc
	timeout    time.Duration
	renderWait time.Duration
	logger     arbor.ILogger
}

// run executes chromedp actions under the session's request timeout,
// aborting early if the caller's context is already cancelled.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.tabCtx.Err(); err != nil {
		return fmt.Errorf("browser tab cancelled: %w", err)
	}

	runCtx := s.tabCtx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(s.tabCtx, s.timeout)
		defer cancel()
	}

	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromeSession) WaitVisible(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *chromeSession) SelectOptions(ctx context.Context, selector string) ([]string, error) {
	var options []string
	script := fmt.Sprintf(
		`Array.from(document.querySelector(%q)?.options || []).map(o => o.value)`,
		selector,
	)
	if err := s.run(ctx, chromedp.Evaluate(script, &options)); err != nil {
		return nil, fmt.Errorf("failed to read options for %s: %w", selector, err)
	}
	return options, nil
}

func (s *chromeSession) SetSelect(ctx context.Context, selector, value string) error {
	// SetValue alone does not trigger the page's dependent re-render;
	// the change event has to be dispatched explicitly.
	fireChange := fmt.Sprintf(
		`document.querySelector(%q).dispatchEvent(new Event('change', {bubbles: true}))`,
		selector,
	)

	actions := []chromedp.Action{
		chromedp.SetValue(selector, value, chromedp.ByQuery),
		chromedp.Evaluate(fireChange, nil),
	}
	if s.renderWait > 0 {
		actions = append(actions, chromedp.Sleep(s.renderWait))
	}

	if err := s.run(ctx, actions...); err != nil {
		return fmt.Errorf("failed to select %s on %s: %w", value, selector, err)
	}
	return nil
}

func (s *chromeSession) OuterHTML(ctx context.Context, selector string) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML(selector, &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read markup for %s: %w", selector, err)
	}
	return html, nil
}

func (s *chromeSession) Close() {
	if s.tabCancel != nil {
		s.tabCancel()
	}
}

package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
)

type ChromeOptions struct {
	// runs the browser with a visible window, mostly useful
	// when debugging scroll behavior
	Headful      bool
	WindowWidth  int
	WindowHeight int
}

type chromeSession struct {
	ctx     context.Context
	cancels []context.CancelFunc
}

// NewChrome launches a headless chrome instance tied to the given parent
// context. Closing the session (or cancelling the parent) tears the
// browser down.
func NewChrome(parent context.Context, opts ChromeOptions) (Session, error) {
	if opts.WindowWidth == 0 {
		opts.WindowWidth = 1200
	}
	if opts.WindowHeight == 0 {
		opts.WindowHeight = 1200
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
		chromedp.NoSandbox,
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.Headful {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	// starts the browser process eagerly so a broken chrome install
	// surfaces here instead of on the first navigation
	if err := chromedp.Run(ctx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	return &chromeSession{
		ctx:     ctx,
		cancels: []context.CancelFunc{cancelCtx, cancelAlloc},
	}, nil
}

func (s *chromeSession) Open(url string) error {
	return chromedp.Run(s.ctx, chromedp.Navigate(url))
}

func (s *chromeSession) ScrollToBottom() error {
	return chromedp.Run(s.ctx, chromedp.Evaluate(
		`window.scrollTo(0, document.body.scrollHeight)`, nil,
	))
}

func (s *chromeSession) DocumentHeight() (int64, error) {
	var height int64
	err := chromedp.Run(s.ctx, chromedp.Evaluate(
		`document.body.scrollHeight`, &height,
	))
	return height, err
}

func (s *chromeSession) Links(selector string) ([]string, error) {
	var hrefs []string
	expr := fmt.Sprintf(
		`Array.from(document.querySelectorAll(%q)).map(a => a.href)`,
		selector,
	)
	err := chromedp.Run(s.ctx, chromedp.Evaluate(expr, &hrefs))
	return hrefs, err
}

func (s *chromeSession) Close() error {
	for _, cancel := range s.cancels {
		cancel()
	}
	return nil
}

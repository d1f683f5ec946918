package memorial

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"

	"memorialcrawl/lib/browser"
	"memorialcrawl/lib/waitutil"
)

const memorialLinkSelector = "a[href*='/memorial/']"

// Discoverer drives a render session through the listing's
// scroll-triggered pagination and accumulates the set of memorial
// links. The session is created when discovery starts and torn down on
// every exit path; it is never shared with the fetch phase.
type Discoverer struct {
	NewSession func() (browser.Session, error)
	// pause bounds between a scroll and the height re-read, letting
	// lazily-loaded content render. defaults to 2s-4s.
	MinWait time.Duration
	MaxWait time.Duration
}

// Discover returns the deduplicated memorial links found on the
// listing. It converges once a scroll no longer grows the document, and
// is hard-capped at maxScrollSteps for pages that never stabilize. Any
// render failure is fatal to discovery: a partial listing can't be
// trusted.
func (d Discoverer) Discover(ctx context.Context, searchUrl string, maxScrollSteps int) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Discover")
	defer span.End()

	minWait, maxWait := d.MinWait, d.MaxWait
	if minWait == 0 && maxWait == 0 {
		minWait, maxWait = time.Second*2, time.Second*4
	}

	session, err := d.NewSession()
	if err != nil {
		span.SetStatus(codes.Error, "failed to open render session")
		return nil, fmt.Errorf("open render session: %w", err)
	}
	defer session.Close()

	if err := session.Open(searchUrl); err != nil {
		span.SetStatus(codes.Error, "failed to navigate to listing")
		return nil, fmt.Errorf("navigate to listing: %w", err)
	}

	seen := map[string]bool{}
	var links []string
	collect := func() error {
		hrefs, err := session.Links(memorialLinkSelector)
		if err != nil {
			return fmt.Errorf("read listing links: %w", err)
		}
		for _, href := range hrefs {
			if href == "" || seen[href] {
				continue
			}
			seen[href] = true
			links = append(links, href)
		}
		return nil
	}

	if err := collect(); err != nil {
		return nil, err
	}
	lastHeight, err := session.DocumentHeight()
	if err != nil {
		return nil, fmt.Errorf("read document height: %w", err)
	}

	for step := 0; step < maxScrollSteps; step++ {
		if err := session.ScrollToBottom(); err != nil {
			return nil, fmt.Errorf("scroll listing: %w", err)
		}
		if err := waitutil.Sleep(ctx, minWait, maxWait); err != nil {
			return nil, err
		}
		if err := collect(); err != nil {
			return nil, err
		}

		height, err := session.DocumentHeight()
		if err != nil {
			return nil, fmt.Errorf("read document height: %w", err)
		}
		if height == lastHeight {
			slog.DebugContext(ctx, "listing stopped growing", "height", height, "steps", step+1)
			break
		}
		lastHeight = height
	}

	slog.InfoContext(ctx, "discovered memorial links", "count", len(links))
	return links, nil
}

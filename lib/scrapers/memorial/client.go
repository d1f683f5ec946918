package memorial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	fakeua "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"

	"memorialcrawl/lib/restyutil"
)

// ErrRenderBlocked marks a response that came back 200 but contained a
// challenge/interstitial page instead of memorial content.
var ErrRenderBlocked = errors.New("render blocked by challenge page")

type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// FetchError is the permanent, per-url failure produced once the
// attempt budget is exhausted. Cause holds the last soft failure.
type FetchError struct {
	Url      string
	Attempts int
	Cause    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s after %d attempts: %s", e.Url, e.Attempts, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

type ClientOptions struct {
	// proxy urls drawn from at random per attempt, evicted on failure
	Proxies []string
	// attempts per url before a FetchError, defaults to 3
	MaxAttempts int
	// per-attempt timeout, defaults to 30s
	Timeout time.Duration
}

// Client fetches memorial pages, rotating egress identity (user agent,
// proxy) across attempts and retrying soft failures. It is safe for
// concurrent use; the proxy pool is its only shared mutable state.
type Client struct {
	proxies     *ProxyPool
	maxAttempts int
	timeout     time.Duration
}

func NewClient(opts ClientOptions) *Client {
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 3
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}
	return &Client{
		proxies:     NewProxyPool(opts.Proxies),
		maxAttempts: opts.MaxAttempts,
		timeout:     opts.Timeout,
	}
}

// a fresh resty client per attempt keeps identity rotation free of
// shared mutable transport state across workers
func (c *Client) newAttemptClient(proxy string) *resty.Client {
	client := resty.New()
	client.SetTimeout(c.timeout)
	client.SetHeader("user-agent", fakeua.Random())
	if proxy != "" {
		// must happen while the transport is still an *http.Transport,
		// the bypass wrapper below hides it from resty
		client.SetProxy(proxy)
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)
	return client
}

// Fetch retrieves the html of a single page. Non-200 responses,
// timeouts, connection errors and render-blocks are all soft failures
// retried with a new identity until the attempt budget runs out, at
// which point a *FetchError is returned.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		proxy, usingProxy := c.proxies.Pick()

		body, err := c.attempt(ctx, url, proxy)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if usingProxy {
			c.proxies.Evict(proxy)
		}
		slog.WarnContext(
			ctx, "fetch attempt failed",
			"url", url,
			"attempt", attempt,
			"proxy", proxy,
			"err", err,
		)

		if ctx.Err() != nil {
			break
		}
	}

	err := &FetchError{Url: url, Attempts: c.maxAttempts, Cause: lastErr}
	span.RecordError(err)
	span.SetStatus(codes.Error, "attempt budget exhausted")
	return "", err
}

func (c *Client) attempt(ctx context.Context, url, proxy string) (string, error) {
	res, err := c.newAttemptClient(proxy).R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", err
	}
	if res.StatusCode() != http.StatusOK {
		return "", &StatusError{Code: res.StatusCode()}
	}

	body := res.String()
	if isRenderBlocked(body) {
		return "", ErrRenderBlocked
	}
	return body, nil
}

var blockMarkers = []string{
	"just a moment",
	"challenge-platform",
	"cf-browser-verification",
	"attention required",
}

func isRenderBlocked(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range blockMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Memorial fetches and extracts one record. When the page advertises
// more than one photo, the record's photo sub-page is fetched as well;
// a failure there degrades to a record without additional photos.
func (c *Client) Memorial(ctx context.Context, url string) (Record, error) {
	ctx, span := tracer.Start(ctx, "Memorial")
	defer span.End()

	body, err := c.Fetch(ctx, url)
	if err != nil {
		return Record{}, err
	}

	record, photoCount, err := ExtractRecord(body, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse memorial page")
		return Record{}, err
	}

	if photoCount > 1 {
		slog.DebugContext(ctx, "fetching photo gallery", "url", url, "count", photoCount)

		gallery, err := c.Fetch(ctx, url+"/photo")
		if err != nil {
			slog.WarnContext(ctx, "failed to fetch photo gallery", "url", url, "err", err)
			return record, nil
		}
		photos, err := ExtractGallery(gallery, record.ProfileImageUrl)
		if err != nil {
			slog.WarnContext(ctx, "failed to parse photo gallery", "url", url, "err", err)
			return record, nil
		}
		record.AdditionalPhotos = photos
	}

	return record, nil
}

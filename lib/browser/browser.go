package browser

// Session is the narrow contract the crawl phase needs from a rendering
// environment: navigate, scroll, measure, read links, tear down. A session
// is owned by exactly one caller and is not safe for concurrent use.
type Session interface {
	Open(url string) error
	ScrollToBottom() error
	DocumentHeight() (int64, error)
	// Links returns the resolved href of every anchor matched by the
	// given css selector, in document order.
	Links(selector string) ([]string, error)
	Close() error
}

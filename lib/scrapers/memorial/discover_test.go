package memorial

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"memorialcrawl/lib/browser"
)

// fakeSession scripts a listing that grows once and then stabilizes,
// re-serving earlier links on every read the way a real scroll
// pagination does.
type fakeSession struct {
	heights   []int64
	links     [][]string
	reads     int
	opened    string
	scrolls   int
	closed    bool
	openErr   error
	scrollErr error
}

func (s *fakeSession) Open(url string) error {
	s.opened = url
	return s.openErr
}

func (s *fakeSession) ScrollToBottom() error {
	s.scrolls++
	return s.scrollErr
}

func (s *fakeSession) DocumentHeight() (int64, error) {
	height := s.heights[min(s.reads-1, len(s.heights)-1)]
	return height, nil
}

func (s *fakeSession) Links(string) ([]string, error) {
	page := s.links[min(s.reads, len(s.links)-1)]
	s.reads++
	return page, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func newFakeDiscoverer(session *fakeSession) Discoverer {
	return Discoverer{
		NewSession: func() (browser.Session, error) { return session, nil },
		MinWait:    time.Millisecond,
		MaxWait:    time.Millisecond * 2,
	}
}

func TestDiscoverDeduplicatesAndConverges(t *testing.T) {
	session := &fakeSession{
		heights: []int64{100, 200, 200},
		links: [][]string{
			{"https://www.example.com/memorial/1/a", "https://www.example.com/memorial/2/b"},
			{"https://www.example.com/memorial/1/a", "https://www.example.com/memorial/2/b", "https://www.example.com/memorial/3/c", ""},
			{"https://www.example.com/memorial/1/a", "https://www.example.com/memorial/2/b", "https://www.example.com/memorial/3/c"},
		},
	}

	links, err := newFakeDiscoverer(session).Discover(context.Background(), "https://www.example.com/memorial/search", 50)
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://www.example.com/memorial/1/a",
		"https://www.example.com/memorial/2/b",
		"https://www.example.com/memorial/3/c",
	}, links)

	require.Equal(t, "https://www.example.com/memorial/search", session.opened)
	// first scroll grows the page, second does not
	require.Equal(t, 2, session.scrolls)
	require.True(t, session.closed)
}

func TestDiscoverHonorsScrollCap(t *testing.T) {
	session := &fakeSession{
		// every read reports a new height, the page never stabilizes
		heights: []int64{100, 200, 300, 400, 500, 600, 700, 800},
		links:   [][]string{{"https://www.example.com/memorial/1/a"}},
	}

	links, err := newFakeDiscoverer(session).Discover(context.Background(), "https://www.example.com/memorial/search", 3)
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, 3, session.scrolls)
	require.True(t, session.closed)
}

func TestDiscoverFailsWhenNavigationFails(t *testing.T) {
	session := &fakeSession{
		heights: []int64{100},
		links:   [][]string{{}},
		openErr: errors.New("net::ERR_CONNECTION_RESET"),
	}

	_, err := newFakeDiscoverer(session).Discover(context.Background(), "https://www.example.com/memorial/search", 50)
	require.Error(t, err)
	require.True(t, session.closed)
}

func TestDiscoverStopsOnCancelledContext(t *testing.T) {
	session := &fakeSession{
		heights: []int64{100, 200, 300},
		links:   [][]string{{"https://www.example.com/memorial/1/a"}},
	}
	discoverer := newFakeDiscoverer(session)
	discoverer.MinWait = time.Second
	discoverer.MaxWait = time.Second * 2

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := discoverer.Discover(ctx, "https://www.example.com/memorial/search", 50)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, session.closed)
}

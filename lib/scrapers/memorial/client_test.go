package memorial

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(proxies []string) *Client {
	return NewClient(ClientOptions{
		Proxies: proxies,
		Timeout: time.Second * 5,
	})
}

func TestFetchEvictsDeadProxies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("memorial body"))
	}))
	defer server.Close()

	// both proxies refuse connections, so the first two attempts fail
	// and evict them, leaving the third attempt to go out directly
	client := newTestClient([]string{"http://127.0.0.1:1", "http://127.0.0.1:2"})

	body, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "memorial body", body)
	require.Equal(t, 0, client.proxies.Len())
}

func TestFetchExhaustsAttemptBudget(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(nil)

	_, err := client.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	require.EqualValues(t, 3, requests.Load())

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, server.URL, fetchErr.Url)
	require.Equal(t, 3, fetchErr.Attempts)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
}

func TestFetchRecoversAfterSoftFailures(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("finally"))
	}))
	defer server.Close()

	client := newTestClient(nil)

	body, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "finally", body)
	require.EqualValues(t, 3, requests.Load())
}

func TestFetchDetectsChallengePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><title>Just a moment...</title></html>"))
	}))
	defer server.Close()

	client := newTestClient(nil)

	_, err := client.Fetch(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrRenderBlocked)
}

func TestMemorialFetchesGalleryOverflow(t *testing.T) {
	gallery := `<html><body>
	<div id="TabPhotos"><div class="section-photos"><div><div>
		<div>
			<div><button><img src="https://images.example.com/photos/mary.jpg"></button></div>
			<div class="card-body"><p><a href="https://www.example.com/user/1">J. Archer</a></p></div>
		</div>
		<div>
			<div><button><img src="https://images.example.com/photos/grave.jpg"></button></div>
			<div class="card-body"><p><a href="https://www.example.com/user/2">K. Mason</a></p></div>
		</div>
	</div></div></div></div>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/memorial/12345/mary-ann-smith":
			w.Write([]byte(memorialPage))
		case "/memorial/12345/mary-ann-smith/photo":
			w.Write([]byte(gallery))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(nil)

	record, err := client.Memorial(context.Background(), server.URL+"/memorial/12345/mary-ann-smith")
	require.NoError(t, err)
	require.Equal(t, "Mary Ann Smith", record.Name)
	require.Len(t, record.AdditionalPhotos, 1)
	require.Equal(t, "https://images.example.com/photos/grave.jpg", record.AdditionalPhotos[0].ImageUrl)
}

func TestMemorialDegradesWhenGalleryUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/memorial/12345/mary-ann-smith" {
			w.Write([]byte(memorialPage))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(nil)

	record, err := client.Memorial(context.Background(), server.URL+"/memorial/12345/mary-ann-smith")
	require.NoError(t, err)
	require.Equal(t, "Mary Ann Smith", record.Name)
	require.Empty(t, record.AdditionalPhotos)
}

func TestFetchStopsOnCancelledContext(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(nil)

	_, err := client.Fetch(ctx, server.URL)
	require.Error(t, err)
	require.LessOrEqual(t, requests.Load(), int64(1))
}

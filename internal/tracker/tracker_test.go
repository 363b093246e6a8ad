package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vodseek/vodseek/internal/domain"
)

const twitchTrackerPage = `<html><body>
<div class="stream-info">
  <span class="stream-timestamp-dt to-dowdatetime">2021-06-05 01:30:17</span>
</div>
</body></html>`

const streamsChartsExactPage = `<html><body>
<div data-requests='[{"started_at":"05-06-2021 01:30","ended_at":"05-06-2021 05:12"}]'></div>
<time datetime="05-06-2021 01:30"></time>
</body></html>`

const streamsChartsSparsePage = `<html><body>
<time datetime="05-06-2021 01:30"></time>
</body></html>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// rewriteTransport sends every request to the test server regardless of
// the requested host.
type rewriteTransport struct {
	target string
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = "http"
	req.URL.Host = t.target
	return http.DefaultTransport.RoundTrip(req)
}

func newTestTracker(t *testing.T, page string, mode string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	httpClient := &http.Client{Transport: rewriteTransport{target: srv.Listener.Addr().String()}}
	return NewClient(httpClient, nil, mode, testLogger())
}

func TestDeriveWindowTwitchTracker(t *testing.T) {
	c := newTestTracker(t, twitchTrackerPage, ModeExact)

	win, err := c.DeriveWindow(context.Background(), "https://twitchtracker.com/dansgaming/streams/42218705421")
	if err != nil {
		t.Fatalf("DeriveWindow: %v", err)
	}
	if win.Login != "dansgaming" || win.VideoID != 42218705421 {
		t.Errorf("identity = %s/%d", win.Login, win.VideoID)
	}
	if !win.Exact {
		t.Error("expected exact window")
	}
	// 2021-06-05 01:30:17 UTC
	if win.From != 1622856617 || win.To != win.From {
		t.Errorf("window = [%d, %d]", win.From, win.To)
	}
}

func TestDeriveWindowStreamsChartsExact(t *testing.T) {
	c := newTestTracker(t, streamsChartsExactPage, ModeExact)

	win, err := c.DeriveWindow(context.Background(), "https://streamscharts.com/channels/dansgaming/streams/42218705421")
	if err != nil {
		t.Fatalf("DeriveWindow: %v", err)
	}
	if !win.Exact {
		t.Error("expected exact window")
	}
	// 05-06-2021 01:30 UTC
	if win.From != 1622856600 || win.To != win.From {
		t.Errorf("window = [%d, %d]", win.From, win.To)
	}
}

func TestDeriveWindowStreamsChartsBruteforce(t *testing.T) {
	c := newTestTracker(t, streamsChartsExactPage, ModeBruteforce)

	win, err := c.DeriveWindow(context.Background(), "https://streamscharts.com/channels/dansgaming/streams/42218705421")
	if err != nil {
		t.Fatalf("DeriveWindow: %v", err)
	}
	if win.Exact {
		t.Error("expected inexact window")
	}
	if win.From != 1622856600-60 || win.To != 1622856600+60 {
		t.Errorf("window = [%d, %d]", win.From, win.To)
	}
}

func TestDeriveWindowStreamsChartsExactFallsBack(t *testing.T) {
	c := newTestTracker(t, streamsChartsSparsePage, ModeExact)

	win, err := c.DeriveWindow(context.Background(), "https://streamscharts.com/channels/dansgaming/streams/42218705421")
	if err != nil {
		t.Fatalf("DeriveWindow: %v", err)
	}
	if win.Exact {
		t.Error("expected fallback to inexact window")
	}
	if win.To-win.From != 2*bruteforceSlack {
		t.Errorf("window width = %d", win.To-win.From)
	}
}

func TestDeriveWindowUnsupportedHost(t *testing.T) {
	c := NewClient(nil, nil, ModeExact, testLogger())

	_, err := c.DeriveWindow(context.Background(), "https://example.com/dansgaming/streams/1")
	if !errors.Is(err, domain.ErrUnsupportedURL) {
		t.Errorf("expected ErrUnsupportedURL, got %v", err)
	}
}

func TestDeriveWindowMalformedPath(t *testing.T) {
	c := NewClient(nil, nil, ModeExact, testLogger())

	_, err := c.DeriveWindow(context.Background(), "https://twitchtracker.com/dansgaming")
	if !errors.Is(err, domain.ErrUnsupportedURL) {
		t.Errorf("expected ErrUnsupportedURL, got %v", err)
	}
}

func TestAgentPoolFallback(t *testing.T) {
	p := NewAgentPool(nil)
	if got := p.Pick(); got != FallbackUserAgent {
		t.Errorf("Pick = %q, want fallback", got)
	}
}

func TestFetchAgentPoolFiltersX11(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["Mozilla/5.0 (Windows NT 10.0; Win64; x64)","Mozilla/5.0 (X11; Linux x86_64)"]`))
	}))
	t.Cleanup(srv.Close)

	pool, err := FetchAgentPool(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("FetchAgentPool: %v", err)
	}
	for i := 0; i < 10; i++ {
		if got := pool.Pick(); got != "Mozilla/5.0 (Windows NT 10.0; Win64; x64)" {
			t.Fatalf("Pick = %q", got)
		}
	}
}

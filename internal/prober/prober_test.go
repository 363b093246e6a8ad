package prober

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vodseek/vodseek/internal/domain"
)

const testPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:10.000,
0.ts
#EXT-X-ENDLIST
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestProbePlaylist(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus domain.ProbeStatus
		wantMuted  bool
	}{
		{
			name: "valid playlist",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, testPlaylist)
			},
			wantStatus: domain.ProbeHit,
		},
		{
			name: "muted playlist",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:10\n#EXTINF:10.000,\n0-unmuted.ts\n#EXT-X-ENDLIST\n")
			},
			wantStatus: domain.ProbeHit,
			wantMuted:  true,
		},
		{
			name: "200 with non-playlist body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "<html>not here</html>")
			},
			wantStatus: domain.ProbeMiss,
		},
		{
			name:       "403",
			handler:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) },
			wantStatus: domain.ProbeMiss,
		},
		{
			name:       "404",
			handler:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			wantStatus: domain.ProbeMiss,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			p := New(srv.Client(), "curl/7.54.0", fastRetry(2), testLogger())
			out := p.ProbePlaylist(context.Background(), srv.URL)
			if out.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", out.Status, tt.wantStatus)
			}
			if out.Muted != tt.wantMuted {
				t.Errorf("Muted = %v, want %v", out.Muted, tt.wantMuted)
			}
			if out.Status == domain.ProbeHit && out.URL != srv.URL {
				t.Errorf("URL = %q, want %q", out.URL, srv.URL)
			}
		})
	}
}

func TestProbeObjectIgnoresBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "binary mp4 bytes")
	}))
	defer srv.Close()

	p := New(srv.Client(), "curl/7.54.0", fastRetry(1), testLogger())
	out := p.ProbeObject(context.Background(), srv.URL)
	if out.Status != domain.ProbeHit {
		t.Errorf("Status = %q, want hit", out.Status)
	}
}

func TestTransientRetriesThenDemotes(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := New(srv.Client(), "curl/7.54.0", fastRetry(3), testLogger())
	out := p.ProbePlaylist(context.Background(), srv.URL)

	if out.Status != domain.ProbeMiss {
		t.Errorf("Status = %q, want miss", out.Status)
	}
	if !out.Demoted {
		t.Error("Demoted = false, want true after exhausting retries")
	}
	if out.Err == nil {
		t.Error("Err = nil, want last transient failure")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
}

func TestTransientRecovers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, testPlaylist)
	}))
	defer srv.Close()

	p := New(srv.Client(), "curl/7.54.0", fastRetry(3), testLogger())
	out := p.ProbePlaylist(context.Background(), srv.URL)

	if out.Status != domain.ProbeHit {
		t.Errorf("Status = %q, want hit after recovery", out.Status)
	}
	if out.Demoted {
		t.Error("Demoted = true on a successful probe")
	}
}

func TestProbeHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(srv.Client(), "curl/7.54.0", RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour}, testLogger())
	done := make(chan domain.ProbeOutcome, 1)
	go func() { done <- p.ProbePlaylist(ctx, srv.URL) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("probe did not return promptly on cancelled context")
	}
}

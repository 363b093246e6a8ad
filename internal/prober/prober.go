// Package prober issues verification requests against candidate media URLs
// and classifies the outcome.
package prober

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vodseek/vodseek/internal/domain"
	"github.com/vodseek/vodseek/internal/playlist"
)

// maxPlaylistBytes bounds how much of a response body is read for validation.
const maxPlaylistBytes = 4 << 20

// RetryConfig bounds the transient-failure retry budget per probe.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the retry policy used when none is configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

func (c RetryConfig) normalized() RetryConfig {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 500 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 5 * time.Second
	}
	if c.BackoffFactor < 1 {
		c.BackoffFactor = 2.0
	}
	return c
}

// Prober verifies candidate URLs over HTTP.
type Prober struct {
	client    *http.Client
	userAgent string
	retry     RetryConfig
	logger    *slog.Logger
}

// New creates a Prober. The client's timeout bounds each individual request.
func New(client *http.Client, userAgent string, retry RetryConfig, logger *slog.Logger) *Prober {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		client:    client,
		userAgent: userAgent,
		retry:     retry.normalized(),
		logger:    logger,
	}
}

// ProbePlaylist verifies that url serves a well-formed HLS media playlist.
// A 200 whose body fails playlist validation is a miss, not a hit.
func (p *Prober) ProbePlaylist(ctx context.Context, url string) domain.ProbeOutcome {
	return p.probe(ctx, url, true)
}

// ProbeObject verifies that url serves any content at all (clip media);
// only the status code is consulted.
func (p *Prober) ProbeObject(ctx context.Context, url string) domain.ProbeOutcome {
	return p.probe(ctx, url, false)
}

// probe runs probeOnce under the transient retry budget. Exhausting the
// budget demotes the outcome to a miss, marked Demoted so callers can keep
// "confirmed absent" apart from "absent under network trouble".
func (p *Prober) probe(ctx context.Context, url string, validatePlaylist bool) domain.ProbeOutcome {
	delay := p.retry.InitialDelay
	var last domain.ProbeOutcome

	for attempt := 1; attempt <= p.retry.MaxAttempts; attempt++ {
		last = p.probeOnce(ctx, url, validatePlaylist)
		if last.Status != domain.ProbeTransient {
			return last
		}
		if ctx.Err() != nil {
			return last
		}
		if attempt == p.retry.MaxAttempts {
			break
		}

		p.logger.Debug("transient probe failure, retrying",
			"url", url,
			"attempt", attempt,
			"error", last.Err,
		)

		select {
		case <-ctx.Done():
			return last
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * p.retry.BackoffFactor)
		if delay > p.retry.MaxDelay {
			delay = p.retry.MaxDelay
		}
	}

	return domain.ProbeOutcome{Status: domain.ProbeMiss, Demoted: true, Err: last.Err}
}

func (p *Prober) probeOnce(ctx context.Context, url string, validatePlaylist bool) domain.ProbeOutcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.ProbeOutcome{Status: domain.ProbeTransient, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.ProbeOutcome{Status: domain.ProbeTransient, Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if !validatePlaylist {
			return domain.ProbeOutcome{Status: domain.ProbeHit, URL: url}
		}
		info, err := playlist.Validate(io.LimitReader(resp.Body, maxPlaylistBytes))
		if err != nil {
			// The host answered but not with a playlist; it does not
			// have this candidate.
			return domain.ProbeOutcome{Status: domain.ProbeMiss}
		}
		return domain.ProbeOutcome{Status: domain.ProbeHit, URL: url, Muted: info.Muted}

	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusNotFound:
		return domain.ProbeOutcome{Status: domain.ProbeMiss}

	default:
		// 5xx, 429 and friends: possibly throttled, worth retrying.
		return domain.ProbeOutcome{
			Status: domain.ProbeTransient,
			Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
}

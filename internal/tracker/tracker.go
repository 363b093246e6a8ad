// Package tracker derives broadcast start times from third-party stream
// tracking sites. TwitchTracker exposes the exact start timestamp of a
// past broadcast; StreamsCharts exposes either exact request data or a
// minute-granularity window suitable for a brute-force search.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vodseek/vodseek/internal/domain"
	"github.com/vodseek/vodseek/internal/timeutil"
)

// Mode selects how StreamsCharts pages are read.
const (
	ModeExact      = "exact"
	ModeBruteforce = "bruteforce"
)

// bruteforceSlack widens a minute-granularity timestamp into a window.
const bruteforceSlack = 60

// StreamWindow is a broadcast located on a tracking site. When Exact is
// set, From is the precise start timestamp and To equals From.
type StreamWindow struct {
	Login   string
	VideoID uint64
	From    int64
	To      int64
	Exact   bool
}

// Client scrapes tracking sites for broadcast timestamps.
type Client struct {
	httpClient *http.Client
	agents     *AgentPool
	mode       string
	logger     *slog.Logger
}

// NewClient creates a tracker client. mode applies to StreamsCharts
// pages and defaults to ModeExact.
func NewClient(httpClient *http.Client, agents *AgentPool, mode string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if agents == nil {
		agents = NewAgentPool(nil)
	}
	if mode == "" {
		mode = ModeExact
	}
	return &Client{
		httpClient: httpClient,
		agents:     agents,
		mode:       mode,
		logger:     logger,
	}
}

// DeriveWindow resolves a TwitchTracker or StreamsCharts stream URL into
// a search window.
func (c *Client) DeriveWindow(ctx context.Context, rawURL string) (*StreamWindow, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse tracker url: %w", err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch host {
	case "twitchtracker.com":
		// /{login}/streams/{id}
		if len(parts) != 3 || parts[1] != "streams" {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedURL, rawURL)
		}
		return c.twitchTracker(ctx, parts[0], parts[2], rawURL)
	case "streamscharts.com":
		// /channels/{login}/streams/{id}
		if len(parts) != 4 || parts[0] != "channels" || parts[2] != "streams" {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedURL, rawURL)
		}
		return c.streamsCharts(ctx, parts[1], parts[3], rawURL)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedURL, rawURL)
	}
}

// Window locates a broadcast on TwitchTracker by login and broadcast id.
func (c *Client) Window(ctx context.Context, login string, videoID uint64) (*StreamWindow, error) {
	pageURL := fmt.Sprintf("https://twitchtracker.com/%s/streams/%d", login, videoID)
	return c.twitchTracker(ctx, login, strconv.FormatUint(videoID, 10), pageURL)
}

func (c *Client) twitchTracker(ctx context.Context, login, id, pageURL string) (*StreamWindow, error) {
	videoID, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse broadcast id: %w", err)
	}

	doc, err := c.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	raw := strings.TrimSpace(doc.Find(".stream-timestamp-dt.to-dowdatetime").First().Text())
	if raw == "" {
		return nil, fmt.Errorf("no timestamp on %s", pageURL)
	}
	ts, err := timeutil.ParseTimestamp(raw)
	if err != nil {
		return nil, fmt.Errorf("twitchtracker timestamp: %w", err)
	}

	return &StreamWindow{Login: login, VideoID: videoID, From: ts, To: ts, Exact: true}, nil
}

func (c *Client) streamsCharts(ctx context.Context, login, id, pageURL string) (*StreamWindow, error) {
	videoID, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse broadcast id: %w", err)
	}

	doc, err := c.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if c.mode == ModeExact {
		win, err := c.streamsChartsExact(doc, login, videoID)
		if err == nil {
			return win, nil
		}
		c.logger.Warn("exact window unavailable, falling back to bruteforce window",
			"url", pageURL, "error", err)
	}
	return c.streamsChartsBruteforce(doc, login, videoID, pageURL)
}

// streamsChartsExact reads the embedded request data that lists the
// individual stream sessions of the broadcast.
func (c *Client) streamsChartsExact(doc *goquery.Document, login string, videoID uint64) (*StreamWindow, error) {
	raw, ok := doc.Find("div[data-requests]").First().Attr("data-requests")
	if !ok || raw == "" {
		return nil, fmt.Errorf("no request data on page")
	}

	var sessions []struct {
		StartedAt string `json:"started_at"`
		EndedAt   string `json:"ended_at"`
	}
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		return nil, fmt.Errorf("decode request data: %w", err)
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("empty request data")
	}

	from, err := timeutil.ParseTimestamp(sessions[0].StartedAt)
	if err != nil {
		return nil, fmt.Errorf("session start: %w", err)
	}
	return &StreamWindow{Login: login, VideoID: videoID, From: from, To: from, Exact: true}, nil
}

// streamsChartsBruteforce reads the minute-granularity start time and
// widens it by a minute in both directions.
func (c *Client) streamsChartsBruteforce(doc *goquery.Document, login string, videoID uint64, pageURL string) (*StreamWindow, error) {
	raw, ok := doc.Find("time[datetime]").First().Attr("datetime")
	if !ok || raw == "" {
		return nil, fmt.Errorf("no start time on %s", pageURL)
	}
	ts, err := timeutil.ParseTimestamp(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("streamscharts timestamp: %w", err)
	}

	return &StreamWindow{
		Login:   login,
		VideoID: videoID,
		From:    ts - bruteforceSlack,
		To:      ts + bruteforceSlack,
	}, nil
}

func (c *Client) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.agents.Pick())
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, nil
}

// Package twitchgql is a minimal client for the public Twitch GraphQL
// endpoint, covering the two lookups URL recovery needs: the currently
// running broadcast of a login, and the broadcast behind a clip.
package twitchgql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vodseek/vodseek/internal/domain"
)

const (
	defaultBaseURL = "https://gql.twitch.tv/gql"
	// defaultClientID is the public web client id; the endpoint rejects
	// anonymous queries without one.
	defaultClientID = "kimne78kx3ncx6brgo4mv6wki5h1ko"
)

// Config holds GQL client configuration.
type Config struct {
	BaseURL  string
	ClientID string
	Timeout  time.Duration
}

// Client queries the Twitch GQL endpoint.
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
}

// NewClient creates a Client, filling unset config with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.ClientID == "" {
		cfg.ClientID = defaultClientID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		clientID:   cfg.ClientID,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// LiveBroadcast is a currently running stream.
type LiveBroadcast struct {
	VideoID   uint64
	StartedAt time.Time
}

// ClipBroadcast identifies the broadcast a clip was created from.
type ClipBroadcast struct {
	Login   string
	VideoID uint64
}

type gqlQuery struct {
	Query     string `json:"query"`
	Variables any    `json:"variables"`
}

// LiveBroadcast returns the running broadcast for login, or
// domain.ErrStreamOffline when there is none.
func (c *Client) LiveBroadcast(ctx context.Context, login string) (*LiveBroadcast, error) {
	query := gqlQuery{
		Query:     "query($login:String){user(login: $login){stream{id createdAt}}}",
		Variables: map[string]string{"login": login},
	}

	var resp struct {
		Data struct {
			User *struct {
				Stream *struct {
					ID        string    `json:"id"`
					CreatedAt time.Time `json:"createdAt"`
				} `json:"stream"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := c.post(ctx, query, &resp); err != nil {
		return nil, err
	}

	if resp.Data.User == nil || resp.Data.User.Stream == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrStreamOffline, login)
	}

	id, err := strconv.ParseUint(resp.Data.User.Stream.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse broadcast id: %w", err)
	}
	return &LiveBroadcast{VideoID: id, StartedAt: resp.Data.User.Stream.CreatedAt}, nil
}

// ClipBroadcast resolves a clip slug to its broadcaster login and
// broadcast id.
func (c *Client) ClipBroadcast(ctx context.Context, slug string) (*ClipBroadcast, error) {
	query := gqlQuery{
		Query:     "query($slug:ID!){clip(slug: $slug){broadcaster{login}broadcast{id}}}",
		Variables: map[string]string{"slug": slug},
	}

	var resp struct {
		Data struct {
			Clip *struct {
				Broadcaster *struct {
					Login string `json:"login"`
				} `json:"broadcaster"`
				Broadcast *struct {
					ID string `json:"id"`
				} `json:"broadcast"`
			} `json:"clip"`
		} `json:"data"`
	}
	if err := c.post(ctx, query, &resp); err != nil {
		return nil, err
	}

	clip := resp.Data.Clip
	if clip == nil || clip.Broadcaster == nil || clip.Broadcast == nil {
		return nil, fmt.Errorf("%w: clip %q", domain.ErrNotAClip, slug)
	}

	id, err := strconv.ParseUint(clip.Broadcast.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse broadcast id: %w", err)
	}
	return &ClipBroadcast{Login: clip.Broadcaster.Login, VideoID: id}, nil
}

func (c *Client) post(ctx context.Context, query gqlQuery, out any) error {
	body, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gql status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

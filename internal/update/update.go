// Package update checks GitHub for a newer released version.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Checker queries the GitHub releases API for one repository.
type Checker struct {
	baseURL    string
	owner      string
	repo       string
	httpClient *http.Client
}

// NewChecker creates a release checker. baseURL is overridable for tests
// and defaults to the public GitHub API.
func NewChecker(owner, repo, baseURL string) *Checker {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &Checker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		owner:      owner,
		repo:       repo,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// Release is a published GitHub release.
type Release struct {
	TagName     string
	PublishedAt time.Time
	HTMLURL     string
}

// Latest returns the most recent non-draft, non-prerelease release.
func (c *Checker) Latest(ctx context.Context) (*Release, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch latest release: status %d", resp.StatusCode)
	}

	var payload struct {
		TagName     string    `json:"tag_name"`
		PublishedAt time.Time `json:"published_at"`
		HTMLURL     string    `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parse release: %w", err)
	}

	return &Release{
		TagName:     payload.TagName,
		PublishedAt: payload.PublishedAt,
		HTMLURL:     payload.HTMLURL,
	}, nil
}

// Check reports whether a newer release than current is published.
func (c *Checker) Check(ctx context.Context, current string) (*Release, bool, error) {
	latest, err := c.Latest(ctx)
	if err != nil {
		return nil, false, err
	}
	return latest, newerVersion(latest.TagName, current), nil
}

// newerVersion compares dotted numeric versions, ignoring a leading "v".
// Malformed components compare as strings.
func newerVersion(latest, current string) bool {
	lp := strings.Split(strings.TrimPrefix(latest, "v"), ".")
	cp := strings.Split(strings.TrimPrefix(current, "v"), ".")

	for i := 0; i < len(lp) && i < len(cp); i++ {
		ln, lerr := strconv.Atoi(lp[i])
		cn, cerr := strconv.Atoi(cp[i])
		if lerr != nil || cerr != nil {
			if lp[i] != cp[i] {
				return lp[i] > cp[i]
			}
			continue
		}
		if ln != cn {
			return ln > cn
		}
	}
	return len(lp) > len(cp)
}

package playlist

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/grafov/m3u8"

	"github.com/vodseek/vodseek/internal/domain"
)

// Fixer rewrites a dead VOD playlist into a playable one by pointing
// unmuted segment URIs at their muted variants.
type Fixer struct {
	client      *http.Client
	userAgent   string
	concurrency int
	logger      *slog.Logger
}

// NewFixer creates a Fixer. concurrency bounds the slow-mode segment probes.
func NewFixer(client *http.Client, userAgent string, concurrency int, logger *slog.Logger) *Fixer {
	if client == nil {
		client = http.DefaultClient
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fixer{client: client, userAgent: userAgent, concurrency: concurrency, logger: logger}
}

// Fix downloads the playlist at rawURL, rewrites its segment URIs to
// absolute muted-safe URLs and writes the result to w. In slow mode every
// segment is probed and only the ones answering 403 are rewritten.
func (f *Fixer) Fix(ctx context.Context, rawURL string, w io.Writer, slow bool) error {
	base, err := playlistBase(rawURL)
	if err != nil {
		return err
	}

	source, err := f.fetch(ctx, rawURL)
	if err != nil {
		return err
	}

	var segments int
	for _, seg := range source.Segments {
		if seg != nil {
			segments++
		}
	}
	if segments == 0 {
		return fmt.Errorf("%w: playlist has no segments", domain.ErrNotPlaylist)
	}

	fixed, err := m3u8.NewMediaPlaylist(0, uint(segments))
	if err != nil {
		return fmt.Errorf("create playlist: %w", err)
	}
	fixed.TargetDuration = source.TargetDuration
	fixed.SeqNo = source.SeqNo
	fixed.MediaType = m3u8.VOD

	uris, err := f.resolveURIs(ctx, base, source, slow)
	if err != nil {
		return err
	}

	i := 0
	for _, seg := range source.Segments {
		if seg == nil {
			continue
		}
		if err := fixed.Append(uris[i], seg.Duration, ""); err != nil {
			return fmt.Errorf("append segment: %w", err)
		}
		i++
	}
	fixed.Close()

	if _, err := w.Write(fixed.Encode().Bytes()); err != nil {
		return fmt.Errorf("write playlist: %w", err)
	}
	return nil
}

// resolveURIs maps every segment to its absolute, muted-safe URL,
// preserving playlist order.
func (f *Fixer) resolveURIs(ctx context.Context, base string, source *m3u8.MediaPlaylist, slow bool) ([]string, error) {
	var absolute []string
	for _, seg := range source.Segments {
		if seg == nil {
			continue
		}
		absolute = append(absolute, base+seg.URI)
	}

	if !slow {
		for i, u := range absolute {
			if strings.Contains(u, "unmuted") {
				absolute[i] = mutedVariant(u, 11)
			}
		}
		return absolute, nil
	}

	// Slow mode: ask the CDN which segments are actually gone.
	sem := make(chan struct{}, f.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, u := range absolute {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			status, err := f.head(ctx, u)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			if status == http.StatusForbidden {
				removed := 3
				if strings.Contains(u, "unmuted") {
					removed = 11
				}
				mu.Lock()
				absolute[i] = mutedVariant(u, removed)
				mu.Unlock()
				f.logger.Debug("segment only available muted", "url", u)
			}
		}(i, u)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return absolute, nil
}

func (f *Fixer) fetch(ctx context.Context, rawURL string) (*m3u8.MediaPlaylist, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch playlist: status %d", resp.StatusCode)
	}

	decoded, listType, err := m3u8.DecodeFrom(resp.Body, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotPlaylist, err)
	}
	media, ok := decoded.(*m3u8.MediaPlaylist)
	if !ok || listType != m3u8.MEDIA {
		return nil, fmt.Errorf("%w: not a media playlist", domain.ErrNotPlaylist)
	}
	return media, nil
}

func (f *Fixer) head(ctx context.Context, u string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("probe segment: %w", err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// mutedVariant strips the last removed characters of u ("-unmuted.ts" or
// ".ts") and appends "-muted.ts".
func mutedVariant(u string, removed int) string {
	if len(u) < removed {
		return u
	}
	return u[:len(u)-removed] + "-muted.ts"
}

// playlistBase returns the directory URL of the playlist, restricted to the
// domains Twitch serves VODs from.
func playlistBase(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse playlist URL: %w", err)
	}
	host := strings.ToLower(parsed.Hostname())
	if !strings.HasSuffix(host, "twitch.tv") && !strings.HasSuffix(host, "cloudfront.net") {
		return "", fmt.Errorf("%w: only twitch.tv and cloudfront.net playlists are supported", domain.ErrUnsupportedURL)
	}

	idx := strings.LastIndex(parsed.Path, "/")
	if idx < 0 {
		return "", fmt.Errorf("%w: playlist URL has no path", domain.ErrUnsupportedURL)
	}
	return parsed.Scheme + "://" + parsed.Host + parsed.Path[:idx+1], nil
}

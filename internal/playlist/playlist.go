// Package playlist validates and repairs Twitch HLS media playlists.
package playlist

import (
	"fmt"
	"io"
	"strings"

	"github.com/grafov/m3u8"

	"github.com/vodseek/vodseek/internal/domain"
)

// Info summarizes a decoded media playlist.
type Info struct {
	// Segments is the number of media segments in the playlist.
	Segments int
	// Muted reports whether any segment URI carries the "unmuted" marker,
	// meaning those segments 403 until rewritten to their muted variant.
	Muted bool
}

// Validate decodes r as an HLS media playlist. A master playlist, an empty
// playlist or arbitrary non-HLS content all fail with ErrNotPlaylist.
func Validate(r io.Reader) (Info, error) {
	decoded, listType, err := m3u8.DecodeFrom(r, true)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %s", domain.ErrNotPlaylist, err)
	}
	if listType != m3u8.MEDIA {
		return Info{}, fmt.Errorf("%w: not a media playlist", domain.ErrNotPlaylist)
	}

	media, ok := decoded.(*m3u8.MediaPlaylist)
	if !ok {
		return Info{}, fmt.Errorf("%w: unexpected playlist type", domain.ErrNotPlaylist)
	}

	info := Info{}
	for _, seg := range media.Segments {
		if seg == nil {
			continue
		}
		info.Segments++
		if strings.Contains(seg.URI, "unmuted") {
			info.Muted = true
		}
	}
	if info.Segments == 0 {
		return Info{}, fmt.Errorf("%w: playlist has no segments", domain.ErrNotPlaylist)
	}
	return info, nil
}

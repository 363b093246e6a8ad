package playlist

import (
	"errors"
	"strings"
	"testing"

	"github.com/vodseek/vodseek/internal/domain"
)

const validPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0
#EXT-X-PLAYLIST-TYPE:VOD
#EXTINF:10.000,
0.ts
#EXTINF:10.000,
1.ts
#EXTINF:8.500,
2.ts
#EXT-X-ENDLIST
`

const mutedPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:10.000,
0.ts
#EXTINF:10.000,
1-unmuted.ts
#EXT-X-ENDLIST
`

const masterPlaylist = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=1280000,RESOLUTION=1920x1080
chunked/index-dvr.m3u8
`

func TestValidate(t *testing.T) {
	t.Run("media playlist", func(t *testing.T) {
		info, err := Validate(strings.NewReader(validPlaylist))
		if err != nil {
			t.Fatalf("Validate() error: %v", err)
		}
		if info.Segments != 3 {
			t.Errorf("Segments = %d, want 3", info.Segments)
		}
		if info.Muted {
			t.Error("Muted = true for a fully unmuted playlist")
		}
	})

	t.Run("muted markers", func(t *testing.T) {
		info, err := Validate(strings.NewReader(mutedPlaylist))
		if err != nil {
			t.Fatalf("Validate() error: %v", err)
		}
		if !info.Muted {
			t.Error("Muted = false, want true")
		}
	})

	t.Run("master playlist rejected", func(t *testing.T) {
		if _, err := Validate(strings.NewReader(masterPlaylist)); !errors.Is(err, domain.ErrNotPlaylist) {
			t.Errorf("err = %v, want ErrNotPlaylist", err)
		}
	})

	t.Run("html rejected", func(t *testing.T) {
		if _, err := Validate(strings.NewReader("<html><body>404</body></html>")); !errors.Is(err, domain.ErrNotPlaylist) {
			t.Errorf("err = %v, want ErrNotPlaylist", err)
		}
	})

	t.Run("empty playlist rejected", func(t *testing.T) {
		empty := "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:10\n#EXT-X-ENDLIST\n"
		if _, err := Validate(strings.NewReader(empty)); !errors.Is(err, domain.ErrNotPlaylist) {
			t.Errorf("err = %v, want ErrNotPlaylist", err)
		}
	})
}

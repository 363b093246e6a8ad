package twitchgql

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/vodseek/vodseek/internal/domain"
)

// ExtractSlug returns the clip slug from a clip URL, or the input itself
// when it is already a bare slug. Supported URL shapes:
//
//	https://clips.twitch.tv/{slug}
//	https://www.twitch.tv/{channel}/clip/{slug}
func ExtractSlug(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty clip reference", domain.ErrNotAClip)
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		// Not a URL, assume a bare slug.
		return s, nil
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch host {
	case "clips.twitch.tv":
		if len(parts) == 1 && parts[0] != "" {
			return parts[0], nil
		}
	case "twitch.tv", "m.twitch.tv":
		if len(parts) == 3 && parts[1] == "clip" {
			return parts[2], nil
		}
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedURL, u.Host)
	}
	return "", fmt.Errorf("%w: %s", domain.ErrNotAClip, s)
}

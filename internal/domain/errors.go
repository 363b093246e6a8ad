package domain

import "errors"

// Domain errors.
var (
	// ErrInvalidLogin is returned when a broadcaster login cannot be
	// normalized to Twitch's username charset.
	ErrInvalidLogin = errors.New("invalid broadcaster login")

	// ErrInvalidRange is returned when a search range is inverted.
	ErrInvalidRange = errors.New("range start is after range end")

	// ErrNegativeTimestamp is returned for timestamps before the epoch.
	ErrNegativeTimestamp = errors.New("timestamp must not be negative")

	// ErrInvalidTimestamp is returned when a timestamp string cannot be
	// parsed in any supported format.
	ErrInvalidTimestamp = errors.New("unrecognized timestamp format")

	// ErrAborted is returned when a search was cancelled before the
	// candidate space was exhausted.
	ErrAborted = errors.New("search aborted")

	// ErrUnsupportedURL is returned for URLs outside the domains a
	// command accepts.
	ErrUnsupportedURL = errors.New("unsupported URL")

	// ErrNotAClip is returned when a twitch.tv URL does not point at a clip.
	ErrNotAClip = errors.New("not a clip URL or slug")

	// ErrStreamOffline is returned when a live lookup finds no running
	// broadcast for the login.
	ErrStreamOffline = errors.New("streamer is offline")

	// ErrNotPlaylist is returned when a response body does not parse as
	// an HLS media playlist.
	ErrNotPlaylist = errors.New("body is not a media playlist")
)

// HostError wraps a probe failure with the CDN host it happened on.
type HostError struct {
	Host string
	Err  error
}

func (e *HostError) Error() string {
	return e.Host + ": " + e.Err.Error()
}

func (e *HostError) Unwrap() error {
	return e.Err
}

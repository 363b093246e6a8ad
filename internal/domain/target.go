package domain

import (
	"regexp"
	"strings"
)

// loginPattern matches normalized Twitch logins.
var loginPattern = regexp.MustCompile(`^[a-z0-9_]{1,25}$`)

// NormalizeLogin lowercases and trims a broadcaster login and verifies it
// only contains characters Twitch allows in usernames.
func NormalizeLogin(login string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(login))
	if !loginPattern.MatchString(normalized) {
		return "", ErrInvalidLogin
	}
	return normalized, nil
}

// VODTarget describes one VOD search. From == To is exact mode; a wider
// range is bruteforce mode. Both bounds are inclusive unix seconds.
type VODTarget struct {
	Login   string
	VideoID uint64
	From    int64
	To      int64
}

// NewExactTarget builds a single-timestamp target.
func NewExactTarget(login string, videoID uint64, timestamp int64) (VODTarget, error) {
	return NewRangeTarget(login, videoID, timestamp, timestamp)
}

// NewRangeTarget builds a bruteforce target over [from, to].
func NewRangeTarget(login string, videoID uint64, from, to int64) (VODTarget, error) {
	normalized, err := NormalizeLogin(login)
	if err != nil {
		return VODTarget{}, err
	}
	t := VODTarget{Login: normalized, VideoID: videoID, From: from, To: to}
	if err := t.Validate(); err != nil {
		return VODTarget{}, err
	}
	return t, nil
}

// Validate checks the range invariants.
func (t VODTarget) Validate() error {
	if t.From < 0 || t.To < 0 {
		return ErrNegativeTimestamp
	}
	if t.From > t.To {
		return ErrInvalidRange
	}
	return nil
}

// Exact reports whether the target degenerates to a single timestamp.
func (t VODTarget) Exact() bool {
	return t.From == t.To
}

// Size returns the number of candidate timestamps in the range.
func (t VODTarget) Size() int64 {
	return t.To - t.From + 1
}

// ClipTarget describes a clip scan over offsets [Start, End] (seconds from
// VOD start). Stride <= 1 means every second is probed.
type ClipTarget struct {
	VideoID uint64
	Start   int64
	End     int64
	Stride  int64
}

// NewClipTarget builds a clip scan target.
func NewClipTarget(videoID uint64, start, end, stride int64) (ClipTarget, error) {
	t := ClipTarget{VideoID: videoID, Start: start, End: end, Stride: stride}
	if t.Stride < 1 {
		t.Stride = 1
	}
	if err := t.Validate(); err != nil {
		return ClipTarget{}, err
	}
	return t, nil
}

// Validate checks the offset invariants.
func (t ClipTarget) Validate() error {
	if t.Start < 0 || t.End < 0 {
		return ErrNegativeTimestamp
	}
	if t.Start > t.End {
		return ErrInvalidRange
	}
	return nil
}

// Offsets returns the candidate offsets in ascending order.
func (t ClipTarget) Offsets() []int64 {
	stride := t.Stride
	if stride < 1 {
		stride = 1
	}
	offsets := make([]int64, 0, (t.End-t.Start)/stride+1)
	for off := t.Start; off <= t.End; off += stride {
		offsets = append(offsets, off)
	}
	return offsets
}

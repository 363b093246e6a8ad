// Package vodurl builds the deterministic CDN paths Twitch serves VOD
// playlists and clip media from.
package vodurl

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// hashLen is how many hex characters of the SHA1 digest appear in the path.
const hashLen = 20

// DefaultHosts is the known set of CDN hosts that serve VOD manifests.
// Order is the deterministic probe order within a single candidate; it does
// not imply trust priority.
var DefaultHosts = []string{
	"vod-secure.twitch.tv",
	"vod-metro.twitch.tv",
	"vod-pop-secure.twitch.tv",
	"d1m7jfoe9zdc1j.cloudfront.net",
	"d2vjef5jvl6bfs.cloudfront.net",
	"d2nvs31859zcd8.cloudfront.net",
	"d2aba1wr3818hz.cloudfront.net",
	"d3c27h4odz752x.cloudfront.net",
	"dgeft87wbj63p.cloudfront.net",
	"d1ymi26ma8va5x.cloudfront.net",
	"d1mhjrowxxagfy.cloudfront.net",
	"ddacn6pr5v0tl.cloudfront.net",
	"d3aqoihi2n8ty8.cloudfront.net",
	"d2e2de1etea730.cloudfront.net",
	"dqrpb9wgowsf5.cloudfront.net",
	"ds0h3roq6wcgc.cloudfront.net",
	"d3vd9lfkzbru3h.cloudfront.net",
}

// clipHost serves clip media keyed by broadcast id and offset.
const clipHost = "clips-media-assets2.twitch.tv"

// PathHash computes the truncated SHA1 digest Twitch embeds in VOD paths:
// hex(sha1("{login}_{videoID}_{unixTS}"))[:20].
func PathHash(login string, videoID uint64, timestamp int64) string {
	sum := sha1.Sum(fmt.Appendf(nil, "%s_%d_%d", login, videoID, timestamp))
	return hex.EncodeToString(sum[:])[:hashLen]
}

// Builder produces manifest URLs for a fixed, ordered host pool.
type Builder struct {
	hosts []string
}

// NewBuilder creates a Builder over the given host pool. An empty pool
// falls back to DefaultHosts.
func NewBuilder(hosts []string) *Builder {
	if len(hosts) == 0 {
		hosts = DefaultHosts
	}
	return &Builder{hosts: hosts}
}

// Hosts returns the pool in probe order.
func (b *Builder) Hosts() []string {
	return b.hosts
}

// ManifestURL builds the playlist URL for one (host, login, video, timestamp).
func (b *Builder) ManifestURL(host, login string, videoID uint64, timestamp int64) string {
	return fmt.Sprintf("https://%s/%s_%s_%d_%d/chunked/index-dvr.m3u8",
		host, PathHash(login, videoID, timestamp), login, videoID, timestamp)
}

// ManifestURLs builds the playlist URL for every host in pool order.
func (b *Builder) ManifestURLs(login string, videoID uint64, timestamp int64) []string {
	urls := make([]string, len(b.hosts))
	for i, host := range b.hosts {
		urls[i] = b.ManifestURL(host, login, videoID, timestamp)
	}
	return urls
}

// ClipURL builds the clip media URL for a broadcast id and second offset.
func ClipURL(videoID uint64, offset int64) string {
	return fmt.Sprintf("https://%s/%d-offset-%d.mp4", clipHost, videoID, offset)
}

package vodurl

import "testing"

func TestPathHash(t *testing.T) {
	tests := []struct {
		name      string
		login     string
		videoID   uint64
		timestamp int64
		want      string
	}{
		{
			name:      "dansgaming broadcast",
			login:     "dansgaming",
			videoID:   42218705421,
			timestamp: 1622854217,
			want:      "d3dcbaf880c9e36ed8c8",
		},
		{
			name:      "destiny broadcast",
			login:     "destiny",
			videoID:   39700667438,
			timestamp: 1605781794,
			want:      "3d36eb78bcccc84818e1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PathHash(tt.login, tt.videoID, tt.timestamp)
			if got != tt.want {
				t.Errorf("PathHash() = %q, want %q", got, tt.want)
			}
			// Deterministic: a second call must agree.
			if again := PathHash(tt.login, tt.videoID, tt.timestamp); again != got {
				t.Errorf("PathHash() not deterministic: %q then %q", got, again)
			}
		})
	}
}

func TestManifestURL(t *testing.T) {
	b := NewBuilder([]string{"vod-secure.twitch.tv"})
	got := b.ManifestURL("vod-secure.twitch.tv", "dansgaming", 42218705421, 1622854217)
	want := "https://vod-secure.twitch.tv/d3dcbaf880c9e36ed8c8_dansgaming_42218705421_1622854217/chunked/index-dvr.m3u8"
	if got != want {
		t.Errorf("ManifestURL() = %q, want %q", got, want)
	}
}

func TestManifestURLs(t *testing.T) {
	hosts := []string{"a.example.net", "b.example.net", "c.example.net"}
	b := NewBuilder(hosts)

	urls := b.ManifestURLs("destiny", 39700667438, 1605781794)
	if len(urls) != len(hosts) {
		t.Fatalf("got %d urls, want %d", len(urls), len(hosts))
	}
	for i, host := range hosts {
		want := "https://" + host + "/3d36eb78bcccc84818e1_destiny_39700667438_1605781794/chunked/index-dvr.m3u8"
		if urls[i] != want {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want)
		}
	}
}

func TestNewBuilderDefaults(t *testing.T) {
	b := NewBuilder(nil)
	if len(b.Hosts()) != len(DefaultHosts) {
		t.Errorf("empty pool did not fall back to defaults")
	}
}

func TestClipURL(t *testing.T) {
	got := ClipURL(39905263305, 120)
	want := "https://clips-media-assets2.twitch.tv/39905263305-offset-120.mp4"
	if got != want {
		t.Errorf("ClipURL() = %q, want %q", got, want)
	}
}

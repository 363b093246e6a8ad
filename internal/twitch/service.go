// Package twitch orchestrates playable URL recovery for Twitch VODs and
// clips: exact reconstruction from known metadata, brute-force search over
// a timestamp window, live stream lookup, and clip offset scanning.
package twitch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vodseek/vodseek/internal/domain"
	"github.com/vodseek/vodseek/internal/prober"
	"github.com/vodseek/vodseek/internal/search"
	"github.com/vodseek/vodseek/internal/vodurl"
	"github.com/vodseek/vodseek/pkg/twitchgql"
)

// Service recovers playable URLs.
type Service struct {
	builder     *vodurl.Builder
	prober      *prober.Prober
	gql         *twitchgql.Client
	concurrency int
	clipStride  int64
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewService wires the URL builder, prober and GQL client into a Service.
// requestsPerSecond throttles probe dispatch; zero disables throttling.
func NewService(builder *vodurl.Builder, p *prober.Prober, gql *twitchgql.Client,
	concurrency int, clipStride int64, requestsPerSecond float64, logger *slog.Logger) *Service {

	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	if clipStride <= 0 {
		clipStride = 1
	}
	return &Service{
		builder:     builder,
		prober:      p,
		gql:         gql,
		concurrency: concurrency,
		clipStride:  clipStride,
		limiter:     limiter,
		logger:      logger,
	}
}

// VODResult is the outcome of a VOD search.
type VODResult struct {
	State domain.SearchState
	// Timestamp is the confirmed broadcast start, valid when State is
	// StateFound.
	Timestamp int64
	// URLs lists every host currently serving the VOD, valid when State
	// is StateFound.
	URLs    []domain.ReturnURL
	Checked int
	Total   int
	Demoted int
	RunID   uuid.UUID
}

// Exact verifies the single candidate built from fully known metadata.
func (s *Service) Exact(ctx context.Context, login string, videoID uint64, timestamp int64, onProgress func(search.Progress)) (*VODResult, error) {
	target, err := domain.NewExactTarget(login, videoID, timestamp)
	if err != nil {
		return nil, err
	}
	return s.searchVOD(ctx, target, nil, onProgress)
}

// Bruteforce searches the candidate timestamps in [from, to], trying
// hinted timestamps first.
func (s *Service) Bruteforce(ctx context.Context, login string, videoID uint64, from, to int64, hints []int64, onProgress func(search.Progress)) (*VODResult, error) {
	target, err := domain.NewRangeTarget(login, videoID, from, to)
	if err != nil {
		return nil, err
	}
	return s.searchVOD(ctx, target, hints, onProgress)
}

// Live resolves the currently running broadcast of login and verifies
// its VOD URL from the reported start time.
func (s *Service) Live(ctx context.Context, login string, onProgress func(search.Progress)) (*VODResult, error) {
	login, err := domain.NormalizeLogin(login)
	if err != nil {
		return nil, err
	}

	live, err := s.gql.LiveBroadcast(ctx, login)
	if err != nil {
		return nil, err
	}
	s.logger.Info("resolved live broadcast",
		"login", login, "video_id", live.VideoID, "started_at", live.StartedAt)

	return s.Exact(ctx, login, live.VideoID, live.StartedAt.Unix(), onProgress)
}

// ResolveClip turns a clip slug or URL into the broadcaster login and
// broadcast id it was created from.
func (s *Service) ResolveClip(ctx context.Context, ref string) (login string, videoID uint64, err error) {
	slug, err := twitchgql.ExtractSlug(ref)
	if err != nil {
		return "", 0, err
	}
	clip, err := s.gql.ClipBroadcast(ctx, slug)
	if err != nil {
		return "", 0, err
	}
	login, err = domain.NormalizeLogin(clip.Login)
	if err != nil {
		return "", 0, fmt.Errorf("clip broadcaster: %w", err)
	}
	return login, clip.VideoID, nil
}

func (s *Service) searchVOD(ctx context.Context, target domain.VODTarget, hints []int64, onProgress func(search.Progress)) (*VODResult, error) {
	order := search.Order(target.From, target.To, hints)

	res := search.Run(ctx, order, s.vodVerifier(target), search.Options{
		Concurrency: s.concurrency,
		Policy:      search.FirstMatch,
		Limit:       s.limiter,
		OnProgress:  onProgress,
		Logger:      s.logger,
	})

	out := &VODResult{
		State:   res.State,
		Checked: res.Checked,
		Total:   res.Total,
		Demoted: res.Demoted,
		RunID:   res.RunID,
	}
	if res.State != domain.StateFound {
		return out, nil
	}

	out.Timestamp = res.Hits[0].Value
	out.URLs = s.availableURLs(ctx, target.Login, target.VideoID, out.Timestamp)
	if len(out.URLs) == 0 {
		// The winning probe succeeded moments ago; keep its URL even if
		// the full availability sweep came up empty.
		out.URLs = []domain.ReturnURL{{URL: res.Hits[0].URL, Muted: res.Hits[0].Muted}}
	}
	return out, nil
}

// vodVerifier resolves one candidate timestamp by probing every host in
// pool order, short-circuiting on the first hit.
func (s *Service) vodVerifier(target domain.VODTarget) search.VerifyFunc {
	return func(ctx context.Context, ts int64) search.Verdict {
		demoted := false
		for _, host := range s.builder.Hosts() {
			if ctx.Err() != nil {
				return search.Verdict{Demoted: demoted}
			}
			out := s.prober.ProbePlaylist(ctx, s.builder.ManifestURL(host, target.Login, target.VideoID, ts))
			switch out.Status {
			case domain.ProbeHit:
				return search.Verdict{Hits: []search.Hit{{URL: out.URL, Value: ts, Muted: out.Muted}}}
			case domain.ProbeMiss:
				if out.Demoted {
					demoted = true
				}
			}
		}
		return search.Verdict{Demoted: demoted}
	}
}

// availableURLs sweeps the whole host pool for a confirmed timestamp and
// returns every URL that currently serves the VOD.
func (s *Service) availableURLs(ctx context.Context, login string, videoID uint64, timestamp int64) []domain.ReturnURL {
	var urls []domain.ReturnURL
	for _, host := range s.builder.Hosts() {
		if ctx.Err() != nil {
			break
		}
		out := s.prober.ProbePlaylist(ctx, s.builder.ManifestURL(host, login, videoID, timestamp))
		if out.Status == domain.ProbeHit {
			urls = append(urls, domain.ReturnURL{URL: out.URL, Muted: out.Muted})
		}
	}
	return urls
}

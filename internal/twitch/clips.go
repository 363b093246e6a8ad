package twitch

import (
	"context"

	"github.com/google/uuid"

	"github.com/vodseek/vodseek/internal/domain"
	"github.com/vodseek/vodseek/internal/search"
	"github.com/vodseek/vodseek/internal/vodurl"
)

// ClipResult is the outcome of a clip offset scan.
type ClipResult struct {
	State domain.SearchState
	// Clips lists every surviving clip in ascending offset order. Partial
	// results are kept on abort.
	Clips   []domain.ClipHit
	Checked int
	Total   int
	Demoted int
	RunID   uuid.UUID
}

// ClipScan probes every clip offset of a broadcast within [start, end]
// seconds and collects all surviving clips. The scan never stops at the
// first hit.
func (s *Service) ClipScan(ctx context.Context, videoID uint64, start, end int64, onProgress func(search.Progress)) (*ClipResult, error) {
	target, err := domain.NewClipTarget(videoID, start, end, s.clipStride)
	if err != nil {
		return nil, err
	}

	res := search.Run(ctx, target.Offsets(), s.clipVerifier(videoID), search.Options{
		Concurrency: s.concurrency,
		Policy:      search.CollectAll,
		Limit:       s.limiter,
		OnProgress:  onProgress,
		Logger:      s.logger,
	})

	out := &ClipResult{
		State:   res.State,
		Checked: res.Checked,
		Total:   res.Total,
		Demoted: res.Demoted,
		RunID:   res.RunID,
	}
	for _, h := range res.Hits {
		out.Clips = append(out.Clips, domain.ClipHit{URL: h.URL, Offset: h.Value})
	}
	return out, nil
}

// clipVerifier resolves one clip offset against the single clip asset
// host. Clips are plain MP4 objects, so no playlist validation applies.
func (s *Service) clipVerifier(videoID uint64) search.VerifyFunc {
	return func(ctx context.Context, offset int64) search.Verdict {
		out := s.prober.ProbeObject(ctx, vodurl.ClipURL(videoID, offset))
		switch out.Status {
		case domain.ProbeHit:
			return search.Verdict{Hits: []search.Hit{{URL: out.URL, Value: offset}}}
		case domain.ProbeMiss:
			return search.Verdict{Demoted: out.Demoted}
		default:
			return search.Verdict{}
		}
	}
}

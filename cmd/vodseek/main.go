package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vodseek/vodseek/internal/config"
	"github.com/vodseek/vodseek/internal/domain"
	"github.com/vodseek/vodseek/internal/playlist"
	"github.com/vodseek/vodseek/internal/prober"
	"github.com/vodseek/vodseek/internal/search"
	"github.com/vodseek/vodseek/internal/timeutil"
	"github.com/vodseek/vodseek/internal/tracker"
	"github.com/vodseek/vodseek/internal/twitch"
	"github.com/vodseek/vodseek/internal/update"
	"github.com/vodseek/vodseek/internal/vodurl"
	"github.com/vodseek/vodseek/pkg/twitchgql"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

const repoOwner, repoName = "vodseek", "vodseek"

func usage() {
	fmt.Fprintf(os.Stderr, `vodseek %s - recover playable Twitch VOD and clip URLs

Usage:
  vodseek <command> [flags]

Commands:
  exact       verify a VOD URL from channel, broadcast id and start timestamp
  bruteforce  search a timestamp range for a VOD URL
  link        derive the search from a TwitchTracker or StreamsCharts URL
  live        recover the VOD URL of a currently running stream
  clip        recover the source VOD of a clip
  clipforce   scan a broadcast for surviving clips
  fix         rewrite a playlist so muted segments are playable
  update      check for a newer release

Run "vodseek <command> -h" for command flags.
`, Version)
}

func main() {
	// Optional .env for local overrides; absence is not an error.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	os.Exit(run(os.Args[1], os.Args[2:]))
}

func run(command string, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, code := newApp(command, args)
	if app == nil {
		return code
	}

	if err := app.dispatch(ctx, command); err != nil {
		app.logger.Error("command failed", "command", command, "error", err)
		return 1
	}
	return 0
}

// app holds the wired dependencies of one invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	service *twitch.Service
	tracker *tracker.Client
	fixer   *playlist.Fixer
	flags   *appFlags
}

// appFlags are the parsed command line flags of one invocation.
type appFlags struct {
	channel   string
	videoID   uint64
	timestamp string
	from      string
	to        string
	ref       string
	start     int64
	end       int64
	playlist  string
	output    string
	slow      bool
}

func newApp(command string, args []string) (*app, int) {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	verbose := fs.Bool("verbose", false, "enable debug logging")

	f := &appFlags{}
	switch command {
	case "exact":
		fs.StringVar(&f.channel, "channel", "", "channel login")
		fs.Uint64Var(&f.videoID, "id", 0, "broadcast id")
		fs.StringVar(&f.timestamp, "timestamp", "", "broadcast start (unix or datetime)")
	case "bruteforce":
		fs.StringVar(&f.channel, "channel", "", "channel login")
		fs.Uint64Var(&f.videoID, "id", 0, "broadcast id")
		fs.StringVar(&f.from, "from", "", "earliest start (unix or datetime)")
		fs.StringVar(&f.to, "to", "", "latest start (unix or datetime)")
	case "link":
		fs.StringVar(&f.ref, "url", "", "TwitchTracker or StreamsCharts stream URL")
	case "live":
		fs.StringVar(&f.channel, "channel", "", "channel login")
	case "clip":
		fs.StringVar(&f.ref, "clip", "", "clip slug or URL")
	case "clipforce":
		fs.Uint64Var(&f.videoID, "id", 0, "broadcast id")
		fs.Int64Var(&f.start, "start", 0, "first offset to scan, seconds")
		fs.Int64Var(&f.end, "end", 0, "last offset to scan, seconds")
	case "fix":
		fs.StringVar(&f.playlist, "url", "", "playlist URL to fix")
		fs.StringVar(&f.output, "o", "playlist_muted.m3u8", "output file")
		fs.BoolVar(&f.slow, "slow", false, "probe each segment instead of rewriting by name")
	case "update":
		// no command flags
	default:
		usage()
		return nil, 2
	}
	fs.Parse(args)

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return nil, 1
	}

	hosts, err := cfg.CDN.CompileHosts(vodurl.DefaultHosts)
	if err != nil {
		logger.Error("failed to compile host pool", "error", err)
		return nil, 1
	}

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	builder := vodurl.NewBuilder(hosts)
	probe := prober.New(httpClient, cfg.HTTP.UserAgent, prober.RetryConfig{
		MaxAttempts:   cfg.HTTP.RetryAttempts,
		InitialDelay:  cfg.HTTP.RetryDelay,
		MaxDelay:      cfg.HTTP.MaxRetryDelay,
		BackoffFactor: cfg.HTTP.RetryFactor,
	}, logger)
	gql := twitchgql.NewClient(twitchgql.Config{Timeout: cfg.HTTP.Timeout})

	return &app{
		cfg:    cfg,
		logger: logger,
		service: twitch.NewService(builder, probe, gql,
			cfg.Search.Concurrency, cfg.Search.ClipStride, cfg.Search.RequestsPerSecond, logger),
		fixer: playlist.NewFixer(httpClient, cfg.HTTP.UserAgent, cfg.Search.Concurrency, logger),
		flags: f,
	}, 0
}

func (a *app) dispatch(ctx context.Context, command string) error {
	switch command {
	case "exact":
		return a.exact(ctx)
	case "bruteforce":
		return a.bruteforce(ctx)
	case "link":
		return a.link(ctx)
	case "live":
		return a.live(ctx)
	case "clip":
		return a.clip(ctx)
	case "clipforce":
		return a.clipforce(ctx)
	case "fix":
		return a.fix(ctx)
	case "update":
		return a.update(ctx)
	}
	return fmt.Errorf("unknown command %q", command)
}

func (a *app) exact(ctx context.Context) error {
	ts, err := timeutil.ParseTimestamp(a.flags.timestamp)
	if err != nil {
		return err
	}
	res, err := a.service.Exact(ctx, a.flags.channel, a.flags.videoID, ts, a.progress())
	if err != nil {
		return err
	}
	return a.reportVOD(res)
}

func (a *app) bruteforce(ctx context.Context) error {
	from, err := timeutil.ParseTimestamp(a.flags.from)
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	to, err := timeutil.ParseTimestamp(a.flags.to)
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}
	res, err := a.service.Bruteforce(ctx, a.flags.channel, a.flags.videoID, from, to, nil, a.progress())
	if err != nil {
		return err
	}
	return a.reportVOD(res)
}

func (a *app) link(ctx context.Context) error {
	win, err := a.trackerClient(ctx).DeriveWindow(ctx, a.flags.ref)
	if err != nil {
		return err
	}
	return a.searchWindow(ctx, win)
}

func (a *app) live(ctx context.Context) error {
	res, err := a.service.Live(ctx, a.flags.channel, a.progress())
	if err != nil {
		return err
	}
	return a.reportVOD(res)
}

func (a *app) clip(ctx context.Context) error {
	login, videoID, err := a.service.ResolveClip(ctx, a.flags.ref)
	if err != nil {
		return err
	}
	a.logger.Info("resolved clip", "login", login, "video_id", videoID)

	win, err := a.trackerClient(ctx).Window(ctx, login, videoID)
	if err != nil {
		return err
	}
	return a.searchWindow(ctx, win)
}

func (a *app) clipforce(ctx context.Context) error {
	res, err := a.service.ClipScan(ctx, a.flags.videoID, a.flags.start, a.flags.end, a.progress())
	if err != nil {
		return err
	}

	switch res.State {
	case domain.StateFound:
		a.logger.Info("scan complete", "clips", len(res.Clips), "checked", res.Checked, "run_id", res.RunID)
		for _, c := range res.Clips {
			fmt.Printf("%d\t%s\n", c.Offset, c.URL)
		}
	case domain.StateExhausted:
		a.logger.Info("no surviving clips", "checked", res.Checked, "run_id", res.RunID)
	case domain.StateAborted:
		a.logger.Warn("scan aborted", "checked", res.Checked, "total", res.Total, "run_id", res.RunID)
		for _, c := range res.Clips {
			fmt.Printf("%d\t%s\n", c.Offset, c.URL)
		}
		return domain.ErrAborted
	}
	if res.Demoted > 0 {
		a.logger.Warn("offsets skipped after repeated request failures", "count", res.Demoted)
	}
	return nil
}

func (a *app) fix(ctx context.Context) error {
	out, err := os.Create(a.flags.output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	if err := a.fixer.Fix(ctx, a.flags.playlist, out, a.flags.slow); err != nil {
		return err
	}
	a.logger.Info("playlist written", "path", a.flags.output)
	return nil
}

func (a *app) update(ctx context.Context) error {
	checker := update.NewChecker(repoOwner, repoName, "")
	release, newer, err := checker.Check(ctx, Version)
	if err != nil {
		return err
	}
	if newer {
		fmt.Printf("newer release available: %s (%s)\n", release.TagName, release.HTMLURL)
	} else {
		fmt.Printf("up to date (%s)\n", Version)
	}
	return nil
}

func (a *app) searchWindow(ctx context.Context, win *tracker.StreamWindow) error {
	var res *twitch.VODResult
	var err error
	if win.Exact {
		res, err = a.service.Exact(ctx, win.Login, win.VideoID, win.From, a.progress())
	} else {
		res, err = a.service.Bruteforce(ctx, win.Login, win.VideoID, win.From, win.To, nil, a.progress())
	}
	if err != nil {
		return err
	}
	return a.reportVOD(res)
}

func (a *app) reportVOD(res *twitch.VODResult) error {
	switch res.State {
	case domain.StateFound:
		a.logger.Info("vod found",
			"timestamp", res.Timestamp, "checked", res.Checked, "run_id", res.RunID)
		for _, u := range res.URLs {
			fmt.Println(u.URL)
		}
		if res.URLs[0].Muted {
			fmt.Fprintln(os.Stderr, "note: VOD contains muted segments, run \"vodseek fix\" on the URL to make them playable")
		}
	case domain.StateExhausted:
		a.logger.Info("no vod found", "checked", res.Checked, "run_id", res.RunID)
		if res.Demoted > 0 {
			a.logger.Warn("candidates skipped after repeated request failures; absence is not certain", "count", res.Demoted)
		}
	case domain.StateAborted:
		a.logger.Warn("search aborted", "checked", res.Checked, "total", res.Total, "run_id", res.RunID)
		return domain.ErrAborted
	}
	return nil
}

// trackerClient builds the scraper lazily: the user agent list fetch is
// only worth the round trip for commands that scrape.
func (a *app) trackerClient(ctx context.Context) *tracker.Client {
	if a.tracker != nil {
		return a.tracker
	}
	httpClient := &http.Client{Timeout: a.cfg.HTTP.Timeout}

	agents, err := tracker.FetchAgentPool(ctx, httpClient, "")
	if err != nil {
		a.logger.Warn("user agent list unavailable, using fallback", "error", err)
		agents = tracker.NewAgentPool(nil)
	}

	a.tracker = tracker.NewClient(httpClient, agents, a.cfg.Tracker.Mode, a.logger)
	return a.tracker
}

// progress returns a callback that prints coarse progress to stderr.
func (a *app) progress() func(search.Progress) {
	var lastDecile int
	start := time.Now()
	return func(p search.Progress) {
		decile := int(p.Fraction() * 10)
		if decile == lastDecile && p.Done != p.Total {
			return
		}
		lastDecile = decile
		a.logger.Info("progress",
			"done", p.Done, "total", p.Total,
			"percent", int(p.Fraction()*100),
			"elapsed", time.Since(start).Round(time.Second))
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/nvoss/brandpulse/internal/config"
	"github.com/nvoss/brandpulse/internal/pipeline"
	"github.com/nvoss/brandpulse/internal/scheduler"
	"github.com/nvoss/brandpulse/internal/store"
	"github.com/nvoss/brandpulse/pkg/alert"
	"github.com/nvoss/brandpulse/pkg/extract"
	"github.com/nvoss/brandpulse/pkg/report"
	"github.com/nvoss/brandpulse/pkg/sentiment"
	"github.com/nvoss/brandpulse/pkg/server"
	"github.com/nvoss/brandpulse/pkg/source"
)

func loadConfig() (*config.Config, error) {
	// A missing .env is fine; env vars may come from the environment.
	_ = godotenv.Load()

	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func buildClassifier(cfg *config.Config, log zerolog.Logger) (sentiment.Classifier, error) {
	th := sentiment.Thresholds{
		Positive: cfg.Sentiment.PositiveThreshold,
		Negative: cfg.Sentiment.NegativeThreshold,
	}

	switch cfg.Sentiment.Backend {
	case "off":
		return nil, nil
	case "lexicon":
		return sentiment.NewLexicon(th), nil
	case "openai", "anthropic":
		if cfg.Sentiment.APIKey == "" {
			return nil, fmt.Errorf("sentiment backend %s requires an api key", cfg.Sentiment.Backend)
		}
		return sentiment.NewLLM(cfg.Sentiment.Backend, cfg.Sentiment.Model, cfg.Sentiment.APIKey, cfg.Sentiment.BaseURL, th, log), nil
	default:
		return nil, fmt.Errorf("unsupported sentiment backend %q", cfg.Sentiment.Backend)
	}
}

// buildSources returns the enabled post collectors, optionally filtered
// to the names given on the command line.
func buildSources(cfg *config.Config, only []string, log zerolog.Logger) []source.Source {
	wanted := func(name string) bool {
		if len(only) == 0 {
			return true
		}
		for _, w := range only {
			if strings.EqualFold(strings.TrimSpace(w), name) {
				return true
			}
		}
		return false
	}

	var sources []source.Source
	if cfg.Sources.Nitter.Enabled && wanted("nitter") {
		sources = append(sources, source.NewNitter(cfg.Sources.Nitter.URL, cfg.Sources.Nitter.Accounts, log))
	}
	if cfg.Sources.Archive.Enabled && wanted("archive") {
		sources = append(sources, source.NewArchive(cfg.Sources.Archive.Globs, log))
	}
	return sources
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier
	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}
	return alert.NewManager(notifiers)
}

func buildPipeline(cfg *config.Config, s store.Store, classifier sentiment.Classifier, log zerolog.Logger) *pipeline.Pipeline {
	matcher := extract.NewBrandMatcher(cfg.Brands.Tracked)
	return pipeline.New(s, classifier, matcher, cfg.Pipeline.BatchSize, log)
}

func runIngest(only []string, noClassify bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)

	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	var classifier sentiment.Classifier
	if !noClassify {
		classifier, err = buildClassifier(cfg, log)
		if err != nil {
			return err
		}
	}

	sources := buildSources(cfg, only, log)
	if len(sources) == 0 {
		return fmt.Errorf("no sources enabled")
	}

	pipe := buildPipeline(cfg, s, classifier, log)
	ctx := context.Background()

	total := 0
	for _, src := range sources {
		raws, err := src.Collect(ctx)
		if err != nil {
			log.Warn().Err(err).Str("source", src.Name()).Msg("collect failed")
			continue
		}
		saved, err := pipe.Ingest(ctx, raws)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", src.Name(), err)
		}
		log.Info().Str("source", src.Name()).Int("collected", len(raws)).Int("saved", saved).Msg("source ingested")
		total += saved
	}

	fmt.Printf("saved %d new posts\n", total)
	return nil
}

func runRecent(limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	posts, err := s.RecentPosts(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Println("no posts stored yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tAUTHOR\tBRAND\tSENTIMENT\tCONTENT")
	for _, p := range posts {
		cat := "-"
		if p.SentimentCategory != nil {
			cat = *p.SentimentCategory
		}
		brand := p.Brand
		if brand == "" {
			brand = "-"
		}
		content := p.Content
		if len(content) > 60 {
			content = content[:60] + "..."
		}
		fmt.Fprintf(w, "%s\t@%s\t%s\t%s\t%s\n",
			p.CreatedAt.Format(time.RFC3339), p.AuthorHandle, brand, cat, content)
	}
	return w.Flush()
}

func runBrand(name string, days int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	rep, err := report.New(s).Brand(context.Background(), name, days)
	if err != nil {
		return err
	}
	return report.RenderBrand(os.Stdout, rep)
}

func runStats(date string, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	day := time.Now().UTC()
	if date != "" {
		day, err = time.Parse("2006-01-02", date)
		if err != nil {
			return fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
		}
	}

	stats, err := report.New(s).Daily(context.Background(), day)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	return report.RenderDaily(os.Stdout, stats)
}

func runStatsTrend(days int, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	counts, err := s.CountPostsByDay(context.Background(), days)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(counts)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DAY\tPOSTS")
	for _, c := range counts {
		fmt.Fprintf(w, "%s\t%d\n", c.Day, c.Posts)
	}
	return w.Flush()
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)

	if port == 0 {
		port = cfg.Server.Port
	}

	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	classifier, err := buildClassifier(cfg, log)
	if err != nil {
		return err
	}

	pipe := buildPipeline(cfg, s, classifier, log)
	sources := buildSources(cfg, nil, log)
	srv := server.New(s, report.New(s), pipe, sources, port, log)
	return srv.ListenAndServe()
}

// runDaemon starts the scheduler and the HTTP server together and
// blocks until SIGINT or SIGTERM.
func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)

	if port == 0 {
		port = cfg.Server.Port
	}

	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	classifier, err := buildClassifier(cfg, log)
	if err != nil {
		return err
	}

	pipe := buildPipeline(cfg, s, classifier, log)
	sources := buildSources(cfg, nil, log)
	reporter := report.New(s)
	alertMgr := buildAlertManager(cfg)

	sched := scheduler.New(
		sources,
		pipe,
		reporter,
		alertMgr,
		cfg.Brands.Tracked,
		cfg.Schedule.ParseIngestInterval(),
		cfg.Schedule.ParseWatchInterval(),
		cfg.Alerts.NegativeShare,
		cfg.Alerts.MinPosts,
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		srv := server.New(s, reporter, pipe, sources, port, log)
		errCh <- srv.ListenAndServe()
	}()
	go func() {
		errCh <- sched.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}

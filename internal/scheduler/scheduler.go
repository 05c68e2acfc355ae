package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nvoss/brandpulse/internal/pipeline"
	"github.com/nvoss/brandpulse/pkg/alert"
	"github.com/nvoss/brandpulse/pkg/report"
	"github.com/nvoss/brandpulse/pkg/source"
)

// Scheduler runs periodic ingestion and the brand sentiment watch.
type Scheduler struct {
	sources   []source.Source
	pipe      *pipeline.Pipeline
	reporter  *report.Reporter
	alertMgr  *alert.Manager
	brands    []string
	ingestInt time.Duration
	watchInt  time.Duration
	negShare  float64
	minPosts  int
	log       zerolog.Logger
}

// New creates a new scheduler.
func New(
	sources []source.Source,
	pipe *pipeline.Pipeline,
	reporter *report.Reporter,
	alertMgr *alert.Manager,
	brands []string,
	ingestInt, watchInt time.Duration,
	negShare float64,
	minPosts int,
	log zerolog.Logger,
) *Scheduler {
	if ingestInt == 0 {
		ingestInt = 15 * time.Minute
	}
	if watchInt == 0 {
		watchInt = time.Hour
	}
	if negShare <= 0 {
		negShare = 0.6
	}
	if minPosts <= 0 {
		minPosts = 5
	}
	return &Scheduler{
		sources:   sources,
		pipe:      pipe,
		reporter:  reporter,
		alertMgr:  alertMgr,
		brands:    brands,
		ingestInt: ingestInt,
		watchInt:  watchInt,
		negShare:  negShare,
		minPosts:  minPosts,
		log:       log,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ingestTicker := time.NewTicker(s.ingestInt)
	watchTicker := time.NewTicker(s.watchInt)
	defer ingestTicker.Stop()
	defer watchTicker.Stop()

	// Run immediately on start.
	s.ingestAll(ctx)
	s.watchSentiment(ctx)

	s.log.Info().
		Dur("ingest_every", s.ingestInt).
		Dur("watch_every", s.watchInt).
		Msg("scheduler running")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return ctx.Err()
		case <-ingestTicker.C:
			s.ingestAll(ctx)
		case <-watchTicker.C:
			s.watchSentiment(ctx)
		}
	}
}

func (s *Scheduler) ingestAll(ctx context.Context) {
	total := 0
	for _, src := range s.sources {
		raws, err := src.Collect(ctx)
		if err != nil {
			s.log.Warn().Err(err).Str("source", src.Name()).Msg("collect failed")
			continue
		}

		saved, err := s.pipe.Ingest(ctx, raws)
		if err != nil {
			s.log.Error().Err(err).Str("source", src.Name()).Msg("ingest failed")
			continue
		}

		s.log.Info().Str("source", src.Name()).Int("collected", len(raws)).Int("saved", saved).Msg("source ingested")
		total += saved
	}
	s.log.Info().Int("saved", total).Msg("ingest pass complete")
}

// watchSentiment alerts when a tracked brand's negative share over the
// last day crosses the configured threshold.
func (s *Scheduler) watchSentiment(ctx context.Context) {
	if !s.alertMgr.HasNotifiers() {
		return
	}

	for _, brand := range s.brands {
		rep, err := s.reporter.Brand(ctx, brand, 1)
		if err != nil {
			s.log.Warn().Err(err).Str("brand", brand).Msg("sentiment watch query failed")
			continue
		}

		share := rep.NegativeShare()
		if rep.TotalPosts < s.minPosts || share < s.negShare {
			continue
		}

		n := &alert.Notification{
			Brand:         brand,
			Window:        "24h",
			TotalPosts:    rep.TotalPosts,
			NegativePosts: rep.Negative,
			NegativeShare: share,
			Body:          fmt.Sprintf("average sentiment score %.2f", rep.AvgScore),
		}
		if err := s.alertMgr.Broadcast(ctx, n); err != nil {
			s.log.Warn().Err(err).Str("brand", brand).Msg("alert delivery failed")
			continue
		}
		s.log.Info().Str("brand", brand).Float64("negative_share", share).Msg("sentiment alert sent")
	}
}

// Package pipeline wires the ingest path: raw posts are validated,
// optionally classified, entity-normalized, and handed to the store in
// one batch. The pipeline is the single writer; callers from the
// scheduler and the HTTP API share one instance.
package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nvoss/brandpulse/internal/store"
	"github.com/nvoss/brandpulse/pkg/extract"
	"github.com/nvoss/brandpulse/pkg/sentiment"
	"github.com/nvoss/brandpulse/pkg/source"
)

// Pipeline converts raw posts into stored posts.
type Pipeline struct {
	store      store.Store
	classifier sentiment.Classifier // nil = ingest unclassified
	brands     *extract.BrandMatcher
	batchSize  int
	log        zerolog.Logger

	mu sync.Mutex
}

// New creates an ingestion pipeline. A nil classifier disables
// classification; posts are then stored with null sentiment.
func New(s store.Store, classifier sentiment.Classifier, brands *extract.BrandMatcher, batchSize int, log zerolog.Logger) *Pipeline {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Pipeline{
		store:      s,
		classifier: classifier,
		brands:     brands,
		batchSize:  batchSize,
		log:        log,
	}
}

// Ingest processes one batch of raw posts and returns the number of
// posts actually inserted. Raw posts failing validation are dropped
// and logged, never fatal. Batches larger than the configured batch
// size are saved in chunks, each chunk transactional on its own.
func (p *Pipeline) Ingest(ctx context.Context, raws []source.RawPost) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runID := uuid.NewString()
	log := p.log.With().Str("run_id", runID).Logger()

	posts := make([]store.Post, 0, len(raws))
	dropped := 0
	for i := range raws {
		raw := raws[i]
		if err := raw.Validate(); err != nil {
			log.Debug().Err(err).Msg("dropping invalid raw post")
			dropped++
			continue
		}
		posts = append(posts, p.transform(ctx, raw))
	}

	saved := 0
	for start := 0; start < len(posts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(posts) {
			end = len(posts)
		}
		n, err := p.store.SavePosts(ctx, posts[start:end])
		if err != nil {
			log.Error().Err(err).Int("saved", saved).Msg("batch save failed")
			return saved, err
		}
		saved += n
	}

	log.Info().
		Int("received", len(raws)).
		Int("saved", saved).
		Int("duplicates", len(posts)-saved).
		Int("dropped", dropped).
		Msg("ingest complete")
	return saved, nil
}

// transform builds a new store.Post from a validated raw post. The raw
// value is never mutated; classification produces a fresh post value.
func (p *Pipeline) transform(ctx context.Context, raw source.RawPost) store.Post {
	post := store.Post{
		PostID:       raw.ID,
		CreatedAt:    raw.CreatedAt,
		Content:      raw.Content,
		AuthorID:     raw.AuthorID,
		AuthorHandle: raw.AuthorHandle,
		AuthorName:   raw.AuthorName,
		Replies:      raw.Replies,
		Reposts:      raw.Reposts,
		Favorites:    raw.Favorites,
		IsRepost:     raw.IsRepost,
		Language:     raw.Language,
		Origin:       raw.Origin,
		Brand:        raw.Brand,
		Tags:         extract.NormalizeTags(raw.Tags),
		Mentions:     extract.NormalizeMentions(raw.Mentions),
	}

	if post.Brand == "" {
		post.Brand = p.brands.Match(post.Content)
	}

	if p.classifier != nil {
		r := p.classifier.Classify(ctx, post.Content)
		score := r.Score
		category := string(r.Category)
		post.SentimentScore = &score
		post.SentimentCategory = &category
	}

	return post
}

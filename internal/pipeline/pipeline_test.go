package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvoss/brandpulse/internal/store"
	"github.com/nvoss/brandpulse/pkg/extract"
	"github.com/nvoss/brandpulse/pkg/sentiment"
	"github.com/nvoss/brandpulse/pkg/source"
)

func newTestPipeline(t *testing.T, classifier sentiment.Classifier) (*Pipeline, store.Store) {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	brands := extract.NewBrandMatcher([]string{"Tesla", "Netflix"})
	return New(s, classifier, brands, 100, zerolog.Nop()), s
}

func rawPost(id string) source.RawPost {
	return source.RawPost{
		ID:           id,
		CreatedAt:    time.Now().UTC(),
		Content:      "content of " + id,
		AuthorID:     "a-" + id,
		AuthorHandle: "h-" + id,
	}
}

func TestIngestClassifies(t *testing.T) {
	p, s := newTestPipeline(t, sentiment.NewLexicon(sentiment.DefaultThresholds()))
	ctx := context.Background()

	raw := rawPost("p1")
	raw.Content = "I absolutely love this!"

	saved, err := p.Ingest(ctx, []source.RawPost{raw})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	posts, err := s.RecentPosts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	require.NotNil(t, posts[0].SentimentScore)
	assert.Greater(t, *posts[0].SentimentScore, 0.1)
	require.NotNil(t, posts[0].SentimentCategory)
	assert.Equal(t, "positive", *posts[0].SentimentCategory)
}

func TestIngestWithoutClassifier(t *testing.T) {
	p, s := newTestPipeline(t, nil)
	ctx := context.Background()

	saved, err := p.Ingest(ctx, []source.RawPost{rawPost("p1")})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	posts, err := s.RecentPosts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Nil(t, posts[0].SentimentScore)
	assert.Nil(t, posts[0].SentimentCategory)
}

func TestIngestNormalizesEntities(t *testing.T) {
	p, s := newTestPipeline(t, nil)
	ctx := context.Background()

	raw := rawPost("p1")
	raw.Tags = []string{" #Tesla ", "EV", ""}
	raw.Mentions = []string{"@elonmusk", "  "}

	_, err := p.Ingest(ctx, []source.RawPost{raw})
	require.NoError(t, err)

	stats, err := s.DailyStats(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Contains(t, stats.TopTags, store.TagCount{Tag: "tesla", Count: 1})
	assert.Contains(t, stats.TopTags, store.TagCount{Tag: "ev", Count: 1})
	assert.Len(t, stats.TopTags, 2)
}

func TestIngestMatchesBrandFromContent(t *testing.T) {
	p, s := newTestPipeline(t, nil)
	ctx := context.Background()

	raw := rawPost("p1")
	raw.Content = "just watched a netflix documentary"

	labelled := rawPost("p2")
	labelled.Content = "talking about tesla here"
	labelled.Brand = "SpaceX" // producer label wins over content match

	_, err := p.Ingest(ctx, []source.RawPost{raw, labelled})
	require.NoError(t, err)

	posts, err := s.PostsByBrand(ctx, "Netflix", 7)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	posts, err = s.PostsByBrand(ctx, "SpaceX", 7)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestIngestDropsInvalidRawPosts(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	missing := rawPost("")

	saved, err := p.Ingest(ctx, []source.RawPost{missing, rawPost("ok")})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
}

func TestIngestIdempotent(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	batch := []source.RawPost{rawPost("p1"), rawPost("p2")}

	saved, err := p.Ingest(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	saved, err = p.Ingest(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, saved)
}

func TestIngestChunksLargeBatches(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	p := New(s, nil, extract.NewBrandMatcher(nil), 2, zerolog.Nop())

	batch := []source.RawPost{rawPost("p1"), rawPost("p2"), rawPost("p3"), rawPost("p4"), rawPost("p5")}
	saved, err := p.Ingest(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 5, saved)
}

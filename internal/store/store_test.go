package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testPost(id string, created time.Time) Post {
	return Post{
		PostID:       id,
		CreatedAt:    created,
		Content:      "some content for " + id,
		AuthorID:     "author-" + id,
		AuthorHandle: "handle-" + id,
		Language:     "en",
	}
}

func TestSavePostsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	batch := []Post{
		testPost("p1", now),
		testPost("p2", now),
	}

	saved, err := s.SavePosts(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	// Re-ingesting the identical batch saves nothing.
	saved, err = s.SavePosts(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, saved)

	posts, err := s.RecentPosts(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestSavePostsFirstWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := testPost("p1", now)
	first.Content = "original content"
	first.Favorites = 5

	_, err := s.SavePosts(ctx, []Post{first})
	require.NoError(t, err)

	// A reimport with fresher counters must not touch the stored row.
	second := testPost("p1", now)
	second.Content = "changed content"
	second.Favorites = 999

	saved, err := s.SavePosts(ctx, []Post{second})
	require.NoError(t, err)
	assert.Equal(t, 0, saved)

	posts, err := s.RecentPosts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "original content", posts[0].Content)
	assert.Equal(t, 5, posts[0].Favorites)
}

func TestSavePostsDuplicateWithinBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	saved, err := s.SavePosts(ctx, []Post{
		testPost("p1", now),
		testPost("p1", now),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
}

func TestSavePostsFailedBatchWritesNothing(t *testing.T) {
	s := newTestStore(t)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	saved, err := s.SavePosts(cancelled, []Post{testPost("p1", time.Now().UTC())})
	assert.Error(t, err)
	assert.Equal(t, 0, saved)

	posts, err := s.RecentPosts(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestTagUniquenessPerPost(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := testPost("p1", time.Now().UTC())
	p.Tags = []string{"tesla", "tesla", "ev"}

	_, err := s.SavePosts(ctx, []Post{p})
	require.NoError(t, err)

	var n int
	require.NoError(t, s.db.Get(&n, "SELECT COUNT(*) FROM post_tags WHERE post_id = 'p1'"))
	assert.Equal(t, 2, n)
}

func TestMentionsKeptAsMultiset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := testPost("p1", time.Now().UTC())
	p.Mentions = []string{"bob", "bob", "alice"}

	_, err := s.SavePosts(ctx, []Post{p})
	require.NoError(t, err)

	var n int
	require.NoError(t, s.db.Get(&n, "SELECT COUNT(*) FROM post_mentions WHERE post_id = 'p1'"))
	assert.Equal(t, 3, n)
}

func TestBrandRegistryCompleteness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	p1 := testPost("p1", now)
	p1.Brand = "Tesla"
	p2 := testPost("p2", now)
	p2.Brand = "Netflix"
	p3 := testPost("p3", now)

	_, err := s.SavePosts(ctx, []Post{p1, p2, p3})
	require.NoError(t, err)

	brands, err := s.ListBrands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 2)
	assert.Equal(t, "Netflix", brands[0].Name)
	assert.Equal(t, "Tesla", brands[1].Name)

	// Saving the same brand again does not duplicate the registry row.
	p4 := testPost("p4", now)
	p4.Brand = "Tesla"
	_, err = s.SavePosts(ctx, []Post{p4})
	require.NoError(t, err)

	brands, err = s.ListBrands(ctx)
	require.NoError(t, err)
	assert.Len(t, brands, 2)
}

func TestDailyStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	day := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	p1 := testPost("p1", day)
	p1.AuthorID = "a1"
	p1.Brand = "Tesla"
	p1.Tags = []string{"tesla", "ev"}
	p1.Reposts = 10
	p1.Favorites = 20

	p2 := testPost("p2", day.Add(2*time.Hour))
	p2.AuthorID = "a1"
	p2.Brand = "Tesla"
	p2.Tags = []string{"tesla"}
	p2.Reposts = 30
	p2.Favorites = 40

	p3 := testPost("p3", day.Add(5*time.Hour))
	p3.AuthorID = "a2"
	p3.Brand = "Netflix"

	// Outside the day, must not count.
	p4 := testPost("p4", day.AddDate(0, 0, 1))
	p4.Brand = "Tesla"

	_, err := s.SavePosts(ctx, []Post{p1, p2, p3, p4})
	require.NoError(t, err)

	stats, err := s.DailyStats(ctx, day)
	require.NoError(t, err)

	assert.Equal(t, "2026-08-20", stats.Date)
	assert.Equal(t, 3, stats.TotalPosts)
	assert.Equal(t, 2, stats.UniqueAuthors)
	assert.InDelta(t, (10.0+30.0+0.0)/3, stats.AvgReposts, 1e-9)
	assert.InDelta(t, (20.0+40.0+0.0)/3, stats.AvgFavorites, 1e-9)

	require.NotEmpty(t, stats.TopBrands)
	assert.Equal(t, BrandCount{Brand: "Tesla", Mentions: 2}, stats.TopBrands[0])
	assert.Contains(t, stats.TopBrands, BrandCount{Brand: "Netflix", Mentions: 1})

	require.NotEmpty(t, stats.TopTags)
	assert.Equal(t, TagCount{Tag: "tesla", Count: 2}, stats.TopTags[0])
	assert.Contains(t, stats.TopTags, TagCount{Tag: "ev", Count: 1})
}

func TestDailyStatsEmptyDay(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.DailyStats(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalPosts)
	assert.Equal(t, 0, stats.UniqueAuthors)
	assert.Equal(t, 0.0, stats.AvgReposts)
	assert.Equal(t, 0.0, stats.AvgFavorites)
	assert.Empty(t, stats.TopBrands)
	assert.Empty(t, stats.TopTags)
}

func TestTeslaScenario(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 20, 15, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	p := testPost("a1", now)
	p.Content = "Loving my new Tesla!"
	p.Brand = "Tesla"
	p.Tags = []string{"tesla", "ev"}

	saved, err := s.SavePosts(ctx, []Post{p})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	stats, err := s.DailyStats(ctx, now)
	require.NoError(t, err)
	assert.Contains(t, stats.TopBrands, BrandCount{Brand: "Tesla", Mentions: 1})

	saved, err = s.SavePosts(ctx, []Post{p})
	require.NoError(t, err)
	assert.Equal(t, 0, saved)
}

func TestRecentPostsOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	_, err := s.SavePosts(ctx, []Post{
		testPost("old", base),
		testPost("mid", base.Add(1*time.Hour)),
		testPost("new", base.Add(2*time.Hour)),
	})
	require.NoError(t, err)

	posts, err := s.RecentPosts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "new", posts[0].PostID)
	assert.Equal(t, "mid", posts[1].PostID)
}

func TestPostsByBrandWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 20, 15, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	recent := testPost("recent", now.AddDate(0, 0, -2))
	recent.Brand = "Tesla"
	stale := testPost("stale", now.AddDate(0, 0, -30))
	stale.Brand = "Tesla"
	other := testPost("other", now)
	other.Brand = "Netflix"

	_, err := s.SavePosts(ctx, []Post{recent, stale, other})
	require.NoError(t, err)

	posts, err := s.PostsByBrand(ctx, "Tesla", 7)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "recent", posts[0].PostID)
}

func TestSentimentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	score := 0.75
	category := "positive"
	p := testPost("p1", time.Now().UTC())
	p.SentimentScore = &score
	p.SentimentCategory = &category

	unclassified := testPost("p2", time.Now().UTC())

	_, err := s.SavePosts(ctx, []Post{p, unclassified})
	require.NoError(t, err)

	posts, err := s.RecentPosts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	byID := map[string]Post{}
	for _, got := range posts {
		byID[got.PostID] = got
	}

	require.NotNil(t, byID["p1"].SentimentScore)
	assert.InDelta(t, 0.75, *byID["p1"].SentimentScore, 1e-9)
	require.NotNil(t, byID["p1"].SentimentCategory)
	assert.Equal(t, "positive", *byID["p1"].SentimentCategory)

	assert.Nil(t, byID["p2"].SentimentScore)
	assert.Nil(t, byID["p2"].SentimentCategory)
}

func TestCountPostsByDay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 20, 15, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.SavePosts(ctx, []Post{
		testPost("today1", now),
		testPost("today2", now),
		testPost("yesterday", now.AddDate(0, 0, -1)),
	})
	require.NoError(t, err)

	counts, err := s.CountPostsByDay(ctx, 3)
	require.NoError(t, err)
	require.Len(t, counts, 3)

	assert.Equal(t, 2, counts[2].Posts)
	assert.Equal(t, 1, counts[1].Posts)
	assert.Equal(t, 0, counts[0].Posts)
}

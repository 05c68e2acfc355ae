package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Post is one ingested content unit.
type Post struct {
	PostID       string    `db:"post_id" json:"post_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	Content      string    `db:"content" json:"content"`
	AuthorID     string    `db:"author_id" json:"author_id"`
	AuthorHandle string    `db:"author_handle" json:"author_handle"`
	AuthorName   string    `db:"author_name" json:"author_name"`

	Replies   int  `db:"replies" json:"replies"`
	Reposts   int  `db:"reposts" json:"reposts"`
	Favorites int  `db:"favorites" json:"favorites"`
	IsRepost  bool `db:"is_repost" json:"is_repost"`

	Language string `db:"language" json:"language"`
	Origin   string `db:"origin" json:"origin"`

	SentimentScore    *float64 `db:"sentiment_score" json:"sentiment_score"`
	SentimentCategory *string  `db:"sentiment_category" json:"sentiment_category"`

	Brand       string    `db:"brand" json:"brand,omitempty"`
	CollectedAt time.Time `db:"collected_at" json:"collected_at"`
	ProcessedAt time.Time `db:"processed_at" json:"processed_at"`

	// Write-side entities; persisted as join rows, not loaded on reads.
	Tags     []string `db:"-" json:"tags,omitempty"`
	Mentions []string `db:"-" json:"mentions,omitempty"`
}

// Brand is one row of the tracked-brand registry.
type Brand struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Category  string    `db:"category" json:"category,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BrandCount is a brand with its mention volume.
type BrandCount struct {
	Brand    string `db:"brand" json:"brand"`
	Mentions int    `db:"cnt" json:"mentions"`
}

// TagCount is a tag with its usage count.
type TagCount struct {
	Tag   string `db:"tag" json:"tag"`
	Count int    `db:"cnt" json:"count"`
}

// DailyStats aggregates one calendar day (UTC).
type DailyStats struct {
	Date          string       `json:"date"`
	TotalPosts    int          `json:"total_posts"`
	UniqueAuthors int          `json:"unique_authors"`
	AvgReposts    float64      `json:"avg_reposts"`
	AvgFavorites  float64      `json:"avg_favorites"`
	TopBrands     []BrandCount `json:"top_brands"`
	TopTags       []TagCount   `json:"top_tags"`
}

// DayCount is a per-day post total.
type DayCount struct {
	Day   string `json:"day"`
	Posts int    `json:"posts"`
}

// Store is the persistence interface.
type Store interface {
	SavePosts(ctx context.Context, posts []Post) (int, error)
	RecentPosts(ctx context.Context, limit int) ([]Post, error)
	PostsByBrand(ctx context.Context, name string, windowDays int) ([]Post, error)
	DailyStats(ctx context.Context, day time.Time) (*DailyStats, error)
	ListBrands(ctx context.Context) ([]Brand, error)
	CountPostsByDay(ctx context.Context, days int) ([]DayCount, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SavePosts inserts a batch of posts with their tags and mentions in a
// single transaction and returns the number of posts actually inserted.
//
// Dedup policy is first-write-wins: a post whose post_id already exists
// is skipped entirely, never updated, and does not count as saved. Tag
// rows are unique per (post, tag); mention rows are a multiset, so a
// post mentioning the same handle twice records two rows. The brand
// registry is synced before commit, so any brand present on a stored
// post is guaranteed a registry row once SavePosts returns.
//
// Any failure rolls back the whole batch and returns (0, err).
func (s *SQLiteStore) SavePosts(ctx context.Context, posts []Post) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save batch: %w", err)
	}
	defer tx.Rollback()

	saved := 0
	for i := range posts {
		inserted, err := s.insertPost(ctx, tx, &posts[i])
		if err != nil {
			return 0, err
		}
		if inserted {
			saved++
		}
	}

	if err := s.syncBrands(ctx, tx); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save batch: %w", err)
	}
	return saved, nil
}

func (s *SQLiteStore) insertPost(ctx context.Context, tx *sqlx.Tx, p *Post) (bool, error) {
	var exists int
	err := tx.GetContext(ctx, &exists, "SELECT COUNT(*) FROM posts WHERE post_id = ?", p.PostID)
	if err != nil {
		return false, fmt.Errorf("check post %s: %w", p.PostID, err)
	}
	if exists > 0 {
		return false, nil
	}

	if p.CollectedAt.IsZero() {
		p.CollectedAt = s.now()
	}
	p.ProcessedAt = s.now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO posts (post_id, created_at, content, author_id, author_handle, author_name,
			replies, reposts, favorites, is_repost, language, origin,
			sentiment_score, sentiment_category, brand, collected_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.PostID, p.CreatedAt, p.Content, p.AuthorID, p.AuthorHandle, p.AuthorName,
		p.Replies, p.Reposts, p.Favorites, p.IsRepost, p.Language, p.Origin,
		p.SentimentScore, p.SentimentCategory, p.Brand, p.CollectedAt, p.ProcessedAt)
	if err != nil {
		return false, fmt.Errorf("insert post %s: %w", p.PostID, err)
	}

	for _, tag := range p.Tags {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO post_tags (post_id, tag) VALUES (?, ?)",
			p.PostID, tag)
		if err != nil {
			return false, fmt.Errorf("insert tag %q for %s: %w", tag, p.PostID, err)
		}
	}

	for _, handle := range p.Mentions {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO post_mentions (post_id, handle) VALUES (?, ?)",
			p.PostID, handle)
		if err != nil {
			return false, fmt.Errorf("insert mention %q for %s: %w", handle, p.PostID, err)
		}
	}

	return true, nil
}

// syncBrands registers every distinct non-empty brand seen on posts.
// Brands are never deleted.
func (s *SQLiteStore) syncBrands(ctx context.Context, tx *sqlx.Tx) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO brands (name, created_at)
		SELECT DISTINCT brand, ? FROM posts WHERE brand != ''
	`, s.now())
	if err != nil {
		return fmt.Errorf("sync brand registry: %w", err)
	}
	return nil
}

// RecentPosts returns up to limit posts ordered by created_at descending.
func (s *SQLiteStore) RecentPosts(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 100
	}

	var posts []Post
	err := s.db.SelectContext(ctx, &posts,
		"SELECT * FROM posts ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("recent posts: %w", err)
	}
	return posts, nil
}

// PostsByBrand returns posts for a brand created within the last
// windowDays days, newest first.
func (s *SQLiteStore) PostsByBrand(ctx context.Context, name string, windowDays int) ([]Post, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	since := s.now().AddDate(0, 0, -windowDays)

	var posts []Post
	err := s.db.SelectContext(ctx, &posts, `
		SELECT * FROM posts
		WHERE brand = ? AND created_at >= ?
		ORDER BY created_at DESC
	`, name, since)
	if err != nil {
		return nil, fmt.Errorf("posts by brand %s: %w", name, err)
	}
	return posts, nil
}

// DailyStats aggregates the UTC calendar day containing day. Top-K tie
// order follows storage row order and is not part of the contract.
func (s *SQLiteStore) DailyStats(ctx context.Context, day time.Time) (*DailyStats, error) {
	if day.IsZero() {
		day = s.now()
	}
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	stats := &DailyStats{Date: start.Format("2006-01-02")}

	var totals struct {
		Total        int     `db:"total"`
		Authors      int     `db:"authors"`
		AvgReposts   float64 `db:"avg_reposts"`
		AvgFavorites float64 `db:"avg_favorites"`
	}
	err := s.db.GetContext(ctx, &totals, `
		SELECT COUNT(*) AS total,
		       COUNT(DISTINCT author_id) AS authors,
		       COALESCE(AVG(reposts), 0) AS avg_reposts,
		       COALESCE(AVG(favorites), 0) AS avg_favorites
		FROM posts
		WHERE created_at >= ? AND created_at < ?
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("daily totals %s: %w", stats.Date, err)
	}
	stats.TotalPosts = totals.Total
	stats.UniqueAuthors = totals.Authors
	stats.AvgReposts = totals.AvgReposts
	stats.AvgFavorites = totals.AvgFavorites

	err = s.db.SelectContext(ctx, &stats.TopBrands, `
		SELECT brand, COUNT(*) AS cnt
		FROM posts
		WHERE created_at >= ? AND created_at < ? AND brand != ''
		GROUP BY brand
		ORDER BY cnt DESC
		LIMIT 5
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("daily top brands %s: %w", stats.Date, err)
	}

	err = s.db.SelectContext(ctx, &stats.TopTags, `
		SELECT pt.tag AS tag, COUNT(*) AS cnt
		FROM post_tags pt
		JOIN posts p ON pt.post_id = p.post_id
		WHERE p.created_at >= ? AND p.created_at < ?
		GROUP BY pt.tag
		ORDER BY cnt DESC
		LIMIT 10
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("daily top tags %s: %w", stats.Date, err)
	}

	return stats, nil
}

// ListBrands returns the brand registry ordered by name.
func (s *SQLiteStore) ListBrands(ctx context.Context) ([]Brand, error) {
	var brands []Brand
	err := s.db.SelectContext(ctx, &brands, "SELECT * FROM brands ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return brands, nil
}

// CountPostsByDay returns per-day totals for the last days UTC days,
// oldest first.
func (s *SQLiteStore) CountPostsByDay(ctx context.Context, days int) ([]DayCount, error) {
	if days <= 0 {
		days = 7
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	counts := make([]DayCount, 0, days)
	for i := days - 1; i >= 0; i-- {
		start := today.AddDate(0, 0, -i)
		end := start.Add(24 * time.Hour)

		var n int
		err := s.db.GetContext(ctx, &n,
			"SELECT COUNT(*) FROM posts WHERE created_at >= ? AND created_at < ?",
			start, end)
		if err != nil {
			return nil, fmt.Errorf("count posts for %s: %w", start.Format("2006-01-02"), err)
		}
		counts = append(counts, DayCount{Day: start.Format("2006-01-02"), Posts: n})
	}
	return counts, nil
}

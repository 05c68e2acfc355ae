package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() RawPost {
	return RawPost{
		ID:           "p1",
		CreatedAt:    time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		Content:      "hello world",
		AuthorID:     "a1",
		AuthorHandle: "h1",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RawPost)
		wantErr bool
	}{
		{"valid", func(p *RawPost) {}, false},
		{"missing id", func(p *RawPost) { p.ID = " " }, true},
		{"missing created_at", func(p *RawPost) { p.CreatedAt = time.Time{} }, true},
		{"missing content", func(p *RawPost) { p.Content = "" }, true},
		{"missing author_id", func(p *RawPost) { p.AuthorID = "" }, true},
		{"missing author_handle", func(p *RawPost) { p.AuthorHandle = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validRaw()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	p := validRaw()
	p.Replies = -3
	p.Favorites = -1

	require.NoError(t, p.Validate())
	assert.Equal(t, "en", p.Language)
	assert.Equal(t, 0, p.Replies)
	assert.Equal(t, 0, p.Favorites)
}

func TestArchiveCollect(t *testing.T) {
	dir := t.TempDir()
	content := `{"post_id":"p1","created_at":"2026-08-20T12:00:00Z","content":"first","author_id":"a1","author_handle":"h1","tags":["Go"]}
not json at all
{"post_id":"p2","created_at":"2026-08-20T13:00:00Z","content":"second","author_id":"a2","author_handle":"h2"}

`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts.jsonl"), []byte(content), 0o644))

	a := NewArchive([]string{filepath.Join(dir, "*.jsonl")}, zerolog.Nop())
	posts, err := a.Collect(context.Background())
	require.NoError(t, err)

	// Malformed and blank lines are skipped, not fatal.
	require.Len(t, posts, 2)
	assert.Equal(t, "p1", posts[0].ID)
	assert.Equal(t, []string{"Go"}, posts[0].Tags)
	assert.Equal(t, "p2", posts[1].ID)
}

func TestArchiveCollectNoMatches(t *testing.T) {
	a := NewArchive([]string{filepath.Join(t.TempDir(), "*.jsonl")}, zerolog.Nop())
	posts, err := a.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestExtractHashtags(t *testing.T) {
	tags := extractHashtags("loving the #Tesla #EV rollout, no tag here")
	assert.Equal(t, []string{"Tesla", "EV"}, tags)
	assert.Nil(t, extractHashtags("nothing tagged"))
}

func TestExtractMentions(t *testing.T) {
	handles := extractMentions("cc @elonmusk and @tesla")
	assert.Equal(t, []string{"elonmusk", "tesla"}, handles)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
}

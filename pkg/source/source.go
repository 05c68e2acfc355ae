package source

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RawPost is the record shape every upstream producer must deliver.
// Required fields: ID, CreatedAt, Content, AuthorID, AuthorHandle.
// Everything else is optional and defaulted by Validate.
type RawPost struct {
	ID           string    `json:"post_id"`
	CreatedAt    time.Time `json:"created_at"`
	Content      string    `json:"content"`
	AuthorID     string    `json:"author_id"`
	AuthorHandle string    `json:"author_handle"`
	AuthorName   string    `json:"author_name,omitempty"`

	Replies   int  `json:"reply_count,omitempty"`
	Reposts   int  `json:"repost_count,omitempty"`
	Favorites int  `json:"favorite_count,omitempty"`
	IsRepost  bool `json:"is_repost,omitempty"`

	Language string   `json:"language,omitempty"`
	Origin   string   `json:"origin,omitempty"`
	Brand    string   `json:"brand,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Mentions []string `json:"mentions,omitempty"`
}

// Validate checks required fields and fills optional-field defaults.
// The pipeline calls this once at the ingestion boundary; producers
// do not need to.
func (p *RawPost) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("raw post missing post_id")
	case p.CreatedAt.IsZero():
		return fmt.Errorf("raw post %s missing created_at", p.ID)
	case strings.TrimSpace(p.Content) == "":
		return fmt.Errorf("raw post %s missing content", p.ID)
	case strings.TrimSpace(p.AuthorID) == "":
		return fmt.Errorf("raw post %s missing author_id", p.ID)
	case strings.TrimSpace(p.AuthorHandle) == "":
		return fmt.Errorf("raw post %s missing author_handle", p.ID)
	}

	if p.Language == "" {
		p.Language = "en"
	}
	if p.Replies < 0 {
		p.Replies = 0
	}
	if p.Reposts < 0 {
		p.Reposts = 0
	}
	if p.Favorites < 0 {
		p.Favorites = 0
	}
	return nil
}

// Source is the interface every post producer must implement.
type Source interface {
	Name() string
	Collect(ctx context.Context) ([]RawPost, error)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

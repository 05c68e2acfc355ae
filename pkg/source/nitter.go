package source

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

var (
	hashtagRe = regexp.MustCompile(`#(\w+)`)
	mentionRe = regexp.MustCompile(`@(\w+)`)
)

// Nitter collects posts for a set of accounts via Nitter RSS feeds.
type Nitter struct {
	client    *http.Client
	parser    *gofeed.Parser
	nitterURL string
	accounts  []string
	log       zerolog.Logger
}

// NewNitter creates a Nitter RSS collector.
func NewNitter(nitterURL string, accounts []string, log zerolog.Logger) *Nitter {
	if nitterURL == "" {
		nitterURL = "https://nitter.net"
	}
	return &Nitter{
		client:    &http.Client{Timeout: 30 * time.Second},
		parser:    gofeed.NewParser(),
		nitterURL: strings.TrimRight(nitterURL, "/"),
		accounts:  accounts,
		log:       log,
	}
}

func (n *Nitter) Name() string { return "nitter" }

func (n *Nitter) Collect(ctx context.Context) ([]RawPost, error) {
	var all []RawPost

	for _, account := range n.accounts {
		posts, err := n.collectAccount(ctx, account)
		if err != nil {
			n.log.Warn().Err(err).Str("account", account).Msg("nitter account failed")
			continue
		}
		all = append(all, posts...)
	}

	return all, nil
}

func (n *Nitter) collectAccount(ctx context.Context, account string) ([]RawPost, error) {
	feedURL := fmt.Sprintf("%s/%s/rss", n.nitterURL, account)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create nitter request @%s: %w", account, err)
	}
	req.Header.Set("User-Agent", "brandpulse/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch nitter @%s: %w", account, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nitter @%s status %d", account, resp.StatusCode)
	}

	feed, err := n.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse nitter @%s: %w", account, err)
	}

	var posts []RawPost
	for _, entry := range feed.Items {
		created := time.Now().UTC()
		if entry.PublishedParsed != nil {
			created = entry.PublishedParsed.UTC()
		}

		content := entry.Title
		if content == "" {
			content = entry.Description
		}

		posts = append(posts, RawPost{
			ID:           fmt.Sprintf("nitter:%s:%s", account, entry.GUID),
			CreatedAt:    created,
			Content:      truncate(content, 500),
			AuthorID:     account,
			AuthorHandle: account,
			IsRepost:     strings.HasPrefix(content, "RT by"),
			Origin:       "nitter",
			Tags:         extractHashtags(content),
			Mentions:     extractMentions(content),
		})
	}

	return posts, nil
}

// extractHashtags pulls #tag tokens out of post text.
func extractHashtags(text string) []string {
	var tags []string
	for _, m := range hashtagRe.FindAllStringSubmatch(text, -1) {
		tags = append(tags, m[1])
	}
	return tags
}

// extractMentions pulls @handle tokens out of post text.
func extractMentions(text string) []string {
	var handles []string
	for _, m := range mentionRe.FindAllStringSubmatch(text, -1) {
		handles = append(handles, m[1])
	}
	return handles
}

// Package report is the read-only aggregation layer: it composes store
// queries into daily and per-brand reports for the CLI and the HTTP
// API. It never writes.
package report

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/nvoss/brandpulse/internal/store"
	"github.com/nvoss/brandpulse/pkg/sentiment"
)

// Reporter composes store queries into reports.
type Reporter struct {
	store store.Store
}

// New creates a reporter over the given store.
func New(s store.Store) *Reporter {
	return &Reporter{store: s}
}

// Daily returns the aggregate statistics for one UTC calendar day.
func (r *Reporter) Daily(ctx context.Context, day time.Time) (*store.DailyStats, error) {
	return r.store.DailyStats(ctx, day)
}

// BrandReport summarizes sentiment for one brand over a window.
type BrandReport struct {
	Brand        string  `json:"brand"`
	WindowDays   int     `json:"window_days"`
	TotalPosts   int     `json:"total_posts"`
	Positive     int     `json:"positive"`
	Negative     int     `json:"negative"`
	Neutral      int     `json:"neutral"`
	Unclassified int     `json:"unclassified"`
	AvgScore     float64 `json:"avg_score"`

	Posts []store.Post `json:"posts"`
}

// NegativeShare is the fraction of classified posts that are negative,
// 0 when nothing is classified.
func (b *BrandReport) NegativeShare() float64 {
	classified := b.TotalPosts - b.Unclassified
	if classified == 0 {
		return 0
	}
	return float64(b.Negative) / float64(classified)
}

// Brand builds a sentiment report for one brand over the last
// windowDays days.
func (r *Reporter) Brand(ctx context.Context, name string, windowDays int) (*BrandReport, error) {
	posts, err := r.store.PostsByBrand(ctx, name, windowDays)
	if err != nil {
		return nil, fmt.Errorf("brand report %s: %w", name, err)
	}

	rep := &BrandReport{
		Brand:      name,
		WindowDays: windowDays,
		TotalPosts: len(posts),
		Posts:      posts,
	}

	var sum float64
	scored := 0
	for i := range posts {
		if posts[i].SentimentCategory == nil {
			rep.Unclassified++
			continue
		}
		switch sentiment.Category(*posts[i].SentimentCategory) {
		case sentiment.Positive:
			rep.Positive++
		case sentiment.Negative:
			rep.Negative++
		default:
			rep.Neutral++
		}
		if posts[i].SentimentScore != nil {
			sum += *posts[i].SentimentScore
			scored++
		}
	}
	if scored > 0 {
		rep.AvgScore = sum / float64(scored)
	}

	return rep, nil
}

// RenderDaily writes a daily stats table.
func RenderDaily(out io.Writer, stats *store.DailyStats) error {
	fmt.Fprintf(out, "daily stats for %s\n\n", stats.Date)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "posts\t%d\n", stats.TotalPosts)
	fmt.Fprintf(w, "authors\t%d\n", stats.UniqueAuthors)
	fmt.Fprintf(w, "avg reposts\t%.2f\n", stats.AvgReposts)
	fmt.Fprintf(w, "avg favorites\t%.2f\n", stats.AvgFavorites)
	if err := w.Flush(); err != nil {
		return err
	}

	if len(stats.TopBrands) > 0 {
		fmt.Fprintln(out, "\ntop brands:")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BRAND\tMENTIONS")
		for _, b := range stats.TopBrands {
			fmt.Fprintf(w, "%s\t%d\n", b.Brand, b.Mentions)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(stats.TopTags) > 0 {
		fmt.Fprintln(out, "\ntop tags:")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TAG\tCOUNT")
		for _, tag := range stats.TopTags {
			fmt.Fprintf(w, "%s\t%d\n", tag.Tag, tag.Count)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	return nil
}

// RenderBrand writes a brand report table.
func RenderBrand(out io.Writer, rep *BrandReport) error {
	fmt.Fprintf(out, "%s over the last %d days\n\n", rep.Brand, rep.WindowDays)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "posts\t%d\n", rep.TotalPosts)
	fmt.Fprintf(w, "positive\t%d\n", rep.Positive)
	fmt.Fprintf(w, "negative\t%d\n", rep.Negative)
	fmt.Fprintf(w, "neutral\t%d\n", rep.Neutral)
	fmt.Fprintf(w, "unclassified\t%d\n", rep.Unclassified)
	fmt.Fprintf(w, "avg score\t%.3f\n", rep.AvgScore)
	if err := w.Flush(); err != nil {
		return err
	}

	if len(rep.Posts) > 0 {
		fmt.Fprintln(out, "\nrecent posts:")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CREATED\tAUTHOR\tSENTIMENT\tCONTENT")
		limit := 10
		if len(rep.Posts) < limit {
			limit = len(rep.Posts)
		}
		for _, p := range rep.Posts[:limit] {
			cat := "-"
			if p.SentimentCategory != nil {
				cat = *p.SentimentCategory
			}
			content := p.Content
			if len(content) > 60 {
				content = content[:60] + "..."
			}
			fmt.Fprintf(w, "%s\t@%s\t%s\t%s\n",
				p.CreatedAt.Format(time.RFC3339), p.AuthorHandle, cat, content)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	return nil
}

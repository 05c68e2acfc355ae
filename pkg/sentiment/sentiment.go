// Package sentiment defines the classification contract the ingestion
// pipeline consumes, plus the bundled implementations. A Classifier is
// a total function: it never returns an error past its own boundary,
// collapsing every internal failure to the neutral zero result.
package sentiment

import "context"

// Category is a coarse sentiment bucket.
type Category string

const (
	Positive Category = "positive"
	Negative Category = "negative"
	Neutral  Category = "neutral"
)

// Thresholds decide the category boundaries on a [-1, 1] score.
type Thresholds struct {
	Positive float64
	Negative float64
}

// DefaultThresholds returns the standard category boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{Positive: 0.1, Negative: -0.1}
}

// Result is one classification outcome. Confidence is abs(score) for
// positive/negative results and 1-abs(score) for neutral ones.
type Result struct {
	Score      float64  `json:"score"`
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
}

// Classifier maps text to a sentiment result. Implementations must not
// return errors or panic past this boundary; failure means a neutral
// zero result.
type Classifier interface {
	Classify(ctx context.Context, text string) Result
}

// NeutralZero is the result for empty input and internal failures.
func NeutralZero() Result {
	return Result{Score: 0, Category: Neutral, Confidence: 0}
}

// Categorize buckets a score using the thresholds and derives the
// confidence measure.
func Categorize(score float64, th Thresholds) Result {
	r := Result{Score: score}
	switch {
	case score > th.Positive:
		r.Category = Positive
		r.Confidence = abs(score)
	case score < th.Negative:
		r.Category = Negative
		r.Confidence = abs(score)
	default:
		r.Category = Neutral
		r.Confidence = 1 - abs(score)
	}
	return r
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

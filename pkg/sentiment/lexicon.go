package sentiment

import (
	"context"
	"strings"
	"unicode"
)

// positiveWords and negativeWords are the polarity lexicon. Deliberately
// small: short social posts lean on a compact, high-frequency vocabulary.
var positiveWords = map[string]bool{
	"love": true, "loving": true, "loved": true, "like": true, "liked": true,
	"great": true, "good": true, "best": true, "better": true, "amazing": true,
	"awesome": true, "excellent": true, "fantastic": true, "wonderful": true,
	"impressed": true, "impressive": true, "happy": true, "glad": true,
	"perfect": true, "beautiful": true, "brilliant": true, "enjoy": true,
	"enjoyed": true, "recommend": true, "recommended": true, "win": true,
	"winning": true, "nice": true, "cool": true, "solid": true, "smooth": true,
	"fast": true, "reliable": true, "helpful": true, "thanks": true,
	"thank": true, "stunning": true, "superb": true, "delighted": true,
}

var negativeWords = map[string]bool{
	"hate": true, "hated": true, "awful": true, "terrible": true, "bad": true,
	"worst": true, "worse": true, "horrible": true, "disappointed": true,
	"disappointing": true, "broken": true, "useless": true, "garbage": true,
	"trash": true, "scam": true, "slow": true, "buggy": true, "crash": true,
	"crashed": true, "fail": true, "failed": true, "failure": true,
	"annoying": true, "angry": true, "frustrated": true, "frustrating": true,
	"refund": true, "overpriced": true, "poor": true, "ugly": true,
	"unreliable": true, "avoid": true, "never": true, "ridiculous": true,
	"pathetic": true, "nightmare": true, "waste": true, "wasted": true,
}

var negators = map[string]bool{
	"not": true, "no": true, "dont": true, "didnt": true, "doesnt": true,
	"wont": true, "cant": true, "isnt": true, "wasnt": true, "arent": true,
}

var intensifiers = map[string]bool{
	"very": true, "really": true, "so": true, "absolutely": true,
	"totally": true, "extremely": true, "super": true, "incredibly": true,
}

// Lexicon is the default word-list classifier. It is a pure in-process
// scorer with no external calls, so it cannot fail.
type Lexicon struct {
	thresholds Thresholds
}

// NewLexicon creates a lexicon classifier with the given thresholds.
func NewLexicon(th Thresholds) *Lexicon {
	if th.Positive == 0 && th.Negative == 0 {
		th = DefaultThresholds()
	}
	return &Lexicon{thresholds: th}
}

// Classify scores text in [-1, 1]. Blank input yields the neutral zero
// result.
func (l *Lexicon) Classify(_ context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return NeutralZero()
	}

	tokens := tokenize(text)
	var total float64
	hits := 0

	for i, tok := range tokens {
		var polarity float64
		switch {
		case positiveWords[tok]:
			polarity = 0.5
		case negativeWords[tok]:
			polarity = -0.5
		default:
			continue
		}

		// Look back up to two tokens for negation and intensifiers.
		for j := i - 1; j >= 0 && j >= i-2; j-- {
			if negators[tokens[j]] {
				polarity = -polarity
			}
			if intensifiers[tokens[j]] {
				polarity *= 2
			}
		}

		total += polarity
		hits++
	}

	if hits == 0 {
		return Categorize(0, l.thresholds)
	}

	score := clamp(total/float64(hits), -1, 1)
	return Categorize(score, l.thresholds)
}

// tokenize lowercases and splits on non-alphanumerics, folding
// apostrophes so contractions match the negator list.
func tokenize(text string) []string {
	text = strings.ReplaceAll(strings.ToLower(text), "'", "")
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

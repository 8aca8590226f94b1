package news

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Keyword lists for the naive scorer. Matching is case-insensitive and
// word-boundary based.
var (
	positiveWords = []string{
		"gain", "gains", "rally", "surge", "soar", "record", "beat", "beats",
		"growth", "upgrade", "upgraded", "bullish", "strong", "profit",
		"outperform", "rebound", "recovery", "optimism", "boom", "jump",
	}
	negativeWords = []string{
		"loss", "losses", "fall", "falls", "drop", "plunge", "crash", "miss",
		"misses", "downgrade", "downgraded", "bearish", "weak", "recession",
		"underperform", "selloff", "fear", "slump", "layoff", "layoffs", "default",
	}
)

// ScoreSentiment returns a score in [-1, 1] from keyword counts:
// (positive - negative) / (positive + negative), zero when neither appears.
func ScoreSentiment(text string) decimal.Decimal {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	var pos, neg int64
	for _, w := range words {
		if contains(positiveWords, w) {
			pos++
		} else if contains(negativeWords, w) {
			neg++
		}
	}

	total := pos + neg
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(pos - neg).Div(decimal.NewFromInt(total)).Round(4)
}

// SentimentLabel maps a score to positive (> 0.15), negative (< -0.15) or
// neutral.
func SentimentLabel(score decimal.Decimal) string {
	threshold := decimal.NewFromFloat(0.15)
	switch {
	case score.GreaterThan(threshold):
		return "positive"
	case score.LessThan(threshold.Neg()):
		return "negative"
	default:
		return "neutral"
	}
}

func contains(list []string, word string) bool {
	for _, w := range list {
		if w == word {
			return true
		}
	}
	return false
}

// Package sentiment scores chat messages with a small word lexicon.
package sentiment

import (
	"math"
	"regexp"
	"strings"
)

// Label is the coarse polarity of a message.
type Label string

// Polarity labels.
const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// Trend direction between the first and second half of a conversation.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

const (
	labelMargin = 0.1
	trendMargin = 0.1
)

var punctuation = regexp.MustCompile(`[^\w\s]`)

var positiveWords = wordSet(
	"good", "great", "excellent", "amazing", "wonderful", "fantastic", "awesome",
	"perfect", "love", "like", "happy", "pleased", "satisfied", "thank", "thanks",
	"helpful", "useful", "nice", "kind", "friendly", "quick", "fast", "easy",
	"simple", "clear", "smooth", "efficient", "professional", "quality",
)

var negativeWords = wordSet(
	"bad", "terrible", "awful", "horrible", "hate", "dislike", "angry", "frustrated",
	"disappointed", "upset", "annoyed", "confused", "difficult", "hard", "slow",
	"complicated", "broken", "error", "problem", "issue", "wrong", "failed",
	"useless", "poor", "worst", "stupid", "ridiculous", "waste", "unfair",
)

var negations = wordSet("not", "no", "never", "nothing", "nobody", "nowhere", "neither", "nor")

var intensifiers = map[string]float64{
	"very":       1.5,
	"extremely":  2.0,
	"incredibly": 2.0,
	"absolutely": 1.8,
	"really":     1.3,
	"quite":      1.2,
	"rather":     1.1,
	"somewhat":   0.8,
	"slightly":   0.6,
	"barely":     0.4,
}

// Details explains how a score was reached.
type Details struct {
	PositiveWords  []string `json:"positive_words"`
	NegativeWords  []string `json:"negative_words"`
	WordCount      int      `json:"word_count"`
	SentimentWords int      `json:"sentiment_words"`
	PositiveScore  float64  `json:"positive_score"`
	NegativeScore  float64  `json:"negative_score"`
}

// Analysis is the sentiment of one message.
type Analysis struct {
	Score      float64 `json:"score"`
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Details    Details `json:"details"`
}

// Distribution counts messages per label.
type Distribution struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// Trend summarizes the sentiment of a conversation.
type Trend struct {
	AverageScore  float64      `json:"average_score"`
	Trend         string       `json:"trend"`
	Distribution  Distribution `json:"sentiment_distribution"`
	TotalMessages int          `json:"total_messages"`
}

// Analyze scores a message in [-1, 1]. Negation flips the polarity of the next
// sentiment word and an intensifier scales it; both reset after that word.
func Analyze(message string) Analysis {
	words := strings.Fields(punctuation.ReplaceAllString(strings.ToLower(message), " "))
	d := Details{
		PositiveWords: []string{},
		NegativeWords: []string{},
		WordCount:     len(words),
	}
	if len(words) == 0 {
		return Analysis{Label: Neutral, Details: d}
	}

	negated := false
	multiplier := 1.0
	for _, w := range words {
		if _, ok := negations[w]; ok {
			negated = true
			continue
		}
		if m, ok := intensifiers[w]; ok {
			multiplier = m
			continue
		}

		_, pos := positiveWords[w]
		_, neg := negativeWords[w]
		if !pos && !neg {
			continue
		}
		if pos != negated {
			d.PositiveScore += multiplier
			d.PositiveWords = append(d.PositiveWords, w)
		} else {
			d.NegativeScore += multiplier
			d.NegativeWords = append(d.NegativeWords, w)
		}
		negated = false
		multiplier = 1
	}

	d.SentimentWords = len(d.PositiveWords) + len(d.NegativeWords)
	var score float64
	if d.SentimentWords > 0 {
		score = (d.PositiveScore - d.NegativeScore) / float64(d.SentimentWords)
		score = math.Max(-1, math.Min(1, score))
	}
	confidence := math.Min(1, float64(d.SentimentWords)/math.Max(float64(len(words))*0.3, 1))

	score = round2(score)
	return Analysis{
		Score:      score,
		Label:      labelFor(score),
		Confidence: round2(confidence),
		Details:    d,
	}
}

// BatchAnalyze scores messages independently, preserving order.
func BatchAnalyze(messages []string) []Analysis {
	out := make([]Analysis, len(messages))
	for i, m := range messages {
		out[i] = Analyze(m)
	}
	return out
}

// AnalyzeTrend averages message scores and compares the second half of the
// conversation with the first.
func AnalyzeTrend(messages []string) Trend {
	analyses := BatchAnalyze(messages)
	t := Trend{Trend: TrendStable, TotalMessages: len(analyses)}
	if len(analyses) == 0 {
		return t
	}

	var sum float64
	for _, a := range analyses {
		sum += a.Score
		switch a.Label {
		case Positive:
			t.Distribution.Positive++
		case Negative:
			t.Distribution.Negative++
		default:
			t.Distribution.Neutral++
		}
	}
	t.AverageScore = round2(sum / float64(len(analyses)))

	mid := len(analyses) / 2
	if mid == 0 {
		return t
	}
	first, second := mean(analyses[:mid]), mean(analyses[mid:])
	switch {
	case second > first+trendMargin:
		t.Trend = TrendImproving
	case second < first-trendMargin:
		t.Trend = TrendDeclining
	}
	return t
}

func labelFor(score float64) Label {
	switch {
	case score > labelMargin:
		return Positive
	case score < -labelMargin:
		return Negative
	default:
		return Neutral
	}
}

func mean(as []Analysis) float64 {
	var sum float64
	for _, a := range as {
		sum += a.Score
	}
	return sum / float64(len(as))
}

// round2 rounds to two decimals with halves going toward +Inf, so -0.125 becomes -0.12.
func round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

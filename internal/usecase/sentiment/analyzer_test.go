package sentiment

import (
	"reflect"
	"testing"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		score      float64
		label      Label
		confidence float64
	}{
		{"empty", "", 0, Neutral, 0},
		{"punctuation only", "?!...", 0, Neutral, 0},
		{"positive", "Thanks, this was great!", 1, Positive, 1},
		{"negative", "The app is broken", -1, Negative, 0.83},
		{"no sentiment", "where is my package", 0, Neutral, 0},
		{"negation flips", "not good at all", -1, Negative, 0.83},
		{"negated negative", "never slow", 1, Positive, 1},
		{"mixed", "great support but slow delivery", 0, Neutral, 1},
		{"intensifier", "very good but slow", 0.25, Positive, 1},
		{"weak intensifier", "slightly bad but nice", 0.2, Positive, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Analyze(tc.in)
			if got.Score != tc.score {
				t.Errorf("score = %v, want %v", got.Score, tc.score)
			}
			if got.Label != tc.label {
				t.Errorf("label = %s, want %s", got.Label, tc.label)
			}
			if got.Confidence != tc.confidence {
				t.Errorf("confidence = %v, want %v", got.Confidence, tc.confidence)
			}
		})
	}
}

func TestAnalyze_Details(t *testing.T) {
	got := Analyze("Not helpful, really frustrated!")

	if !reflect.DeepEqual(got.Details.NegativeWords, []string{"helpful", "frustrated"}) {
		t.Errorf("negative words = %v", got.Details.NegativeWords)
	}
	if len(got.Details.PositiveWords) != 0 {
		t.Errorf("positive words = %v", got.Details.PositiveWords)
	}
	if got.Details.WordCount != 4 || got.Details.SentimentWords != 2 {
		t.Errorf("counts = %d / %d", got.Details.WordCount, got.Details.SentimentWords)
	}
	if got.Details.NegativeScore != 2.3 {
		t.Errorf("negative score = %v, want 2.3", got.Details.NegativeScore)
	}
	if got.Score != -1 {
		t.Errorf("score = %v, want -1 after clamping", got.Score)
	}
}

func TestBatchAnalyze(t *testing.T) {
	got := BatchAnalyze([]string{"great", "terrible", "ok"})
	if len(got) != 3 {
		t.Fatalf("expected 3 analyses, got %d", len(got))
	}
	want := []Label{Positive, Negative, Neutral}
	for i, a := range got {
		if a.Label != want[i] {
			t.Errorf("[%d] label = %s, want %s", i, a.Label, want[i])
		}
	}
}

func TestAnalyzeTrend(t *testing.T) {
	tests := []struct {
		name     string
		messages []string
		trend    string
		average  float64
		dist     Distribution
	}{
		{"empty", nil, TrendStable, 0, Distribution{}},
		{"single", []string{"great"}, TrendStable, 1, Distribution{Positive: 1}},
		{"improving", []string{"terrible", "bad", "good", "great"}, TrendImproving, 0, Distribution{Positive: 2, Negative: 2}},
		{"declining", []string{"great", "awful"}, TrendDeclining, 0, Distribution{Positive: 1, Negative: 1}},
		{"stable", []string{"hello", "great", "bad"}, TrendStable, 0, Distribution{Positive: 1, Negative: 1, Neutral: 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := AnalyzeTrend(tc.messages)
			if got.Trend != tc.trend {
				t.Errorf("trend = %s, want %s", got.Trend, tc.trend)
			}
			if got.AverageScore != tc.average {
				t.Errorf("average = %v, want %v", got.AverageScore, tc.average)
			}
			if got.Distribution != tc.dist {
				t.Errorf("distribution = %+v, want %+v", got.Distribution, tc.dist)
			}
			if got.TotalMessages != len(tc.messages) {
				t.Errorf("total = %d", got.TotalMessages)
			}
		})
	}
}

func TestRound2_HalvesTowardPositive(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.125, -0.12},
		{0.125, 0.13},
		{-0.375, -0.37},
		{-0.5, -0.5},
		{0.333, 0.33},
		{-0.336, -0.34},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

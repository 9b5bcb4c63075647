package service

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/prepdeck/prepdeck-backend/internal/model"
)

func floatPtr(f float64) *float64 { return &f }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSeedWeakAreaUsesErrorRate(t *testing.T) {
	userID, examID := uuid.New(), uuid.New()

	// 1 of 4 correct: seed weight is the error rate 0.75.
	w := seedWeakArea(userID, examID, "topic-a", model.TopicSample{Correct: 1, Total: 4}, floatPtr(1500))

	if !almostEqual(w.Weight, 0.75) {
		t.Errorf("seed weight = %v, want 0.75", w.Weight)
	}
	if w.Meta.AttemptCount != 1 {
		t.Errorf("attempt count = %d, want 1", w.Meta.AttemptCount)
	}
	if w.Meta.ConsecutiveWrong != 1 {
		t.Errorf("consecutive wrong = %d, want 1", w.Meta.ConsecutiveWrong)
	}
	if w.Meta.AvgTimeMs == nil || *w.Meta.AvgTimeMs != 1500 {
		t.Errorf("avg time = %v, want 1500", w.Meta.AvgTimeMs)
	}
	if w.Meta.LastSamples != (model.TopicSample{Correct: 1, Total: 4}) {
		t.Errorf("last samples = %+v", w.Meta.LastSamples)
	}
}

func TestSeedWeakAreaPerfectSample(t *testing.T) {
	w := seedWeakArea(uuid.New(), uuid.New(), "topic-a", model.TopicSample{Correct: 3, Total: 3}, nil)

	if w.Weight != 0 {
		t.Errorf("seed weight = %v, want 0", w.Weight)
	}
	if w.Meta.ConsecutiveWrong != 0 {
		t.Errorf("consecutive wrong = %d, want 0", w.Meta.ConsecutiveWrong)
	}
}

func TestFoldWeakAreaEMA(t *testing.T) {
	w := &model.WeakArea{
		Weight: 0.6,
		Meta:   model.WeakAreaMeta{AttemptCount: 1},
	}

	// New sample: 3 of 5 correct, error rate 0.4.
	// 0.6*0.6 + 0.4*0.4 = 0.52
	foldWeakArea(w, model.TopicSample{Correct: 3, Total: 5}, nil)

	if !almostEqual(w.Weight, 0.52) {
		t.Errorf("folded weight = %v, want 0.52", w.Weight)
	}
	if w.Meta.AttemptCount != 2 {
		t.Errorf("attempt count = %d, want 2", w.Meta.AttemptCount)
	}
}

func TestFoldWeakAreaEMAFromHighWeight(t *testing.T) {
	w := &model.WeakArea{Weight: 0.7, Meta: model.WeakAreaMeta{AttemptCount: 3}}

	// 0.7*0.6 + 0.4*0.4 = 0.58
	foldWeakArea(w, model.TopicSample{Correct: 3, Total: 5}, nil)

	if !almostEqual(w.Weight, 0.58) {
		t.Errorf("folded weight = %v, want 0.58", w.Weight)
	}
}

func TestFoldWeakAreaStaysInUnitInterval(t *testing.T) {
	w := &model.WeakArea{Weight: 1.0}

	// Folding any sequence of samples must keep the weight in [0,1].
	samples := []model.TopicSample{
		{Correct: 0, Total: 5},
		{Correct: 5, Total: 5},
		{Correct: 0, Total: 1},
		{Correct: 1, Total: 1},
		{Correct: 2, Total: 3},
	}
	for _, s := range samples {
		foldWeakArea(w, s, nil)
		if w.Weight < 0 || w.Weight > 1 {
			t.Fatalf("weight %v left [0,1] after sample %+v", w.Weight, s)
		}
	}
}

func TestFoldWeakAreaConsecutiveWrongStreak(t *testing.T) {
	w := &model.WeakArea{Meta: model.WeakAreaMeta{ConsecutiveWrong: 2, AttemptCount: 2}}

	// Any miss in the sample extends the streak.
	foldWeakArea(w, model.TopicSample{Correct: 1, Total: 3}, nil)
	if w.Meta.ConsecutiveWrong != 3 {
		t.Errorf("streak = %d, want 3", w.Meta.ConsecutiveWrong)
	}

	// A fully correct sample resets it.
	foldWeakArea(w, model.TopicSample{Correct: 2, Total: 2}, nil)
	if w.Meta.ConsecutiveWrong != 0 {
		t.Errorf("streak = %d, want 0 after clean sample", w.Meta.ConsecutiveWrong)
	}
}

func TestFoldWeakAreaAvgTimeRunningMean(t *testing.T) {
	w := &model.WeakArea{
		Meta: model.WeakAreaMeta{AttemptCount: 2, AvgTimeMs: floatPtr(1000)},
	}

	// (1000*2 + 4000) / 3 = 2000
	foldWeakArea(w, model.TopicSample{Correct: 1, Total: 1}, floatPtr(4000))

	if w.Meta.AvgTimeMs == nil || !almostEqual(*w.Meta.AvgTimeMs, 2000) {
		t.Errorf("avg time = %v, want 2000", w.Meta.AvgTimeMs)
	}
	if w.Meta.AttemptCount != 3 {
		t.Errorf("attempt count = %d, want 3", w.Meta.AttemptCount)
	}
}

func TestFoldWeakAreaMissingTimeKeepsPrevious(t *testing.T) {
	w := &model.WeakArea{
		Meta: model.WeakAreaMeta{AttemptCount: 1, AvgTimeMs: floatPtr(800)},
	}

	foldWeakArea(w, model.TopicSample{Correct: 0, Total: 2}, nil)

	if w.Meta.AvgTimeMs == nil || *w.Meta.AvgTimeMs != 800 {
		t.Errorf("avg time = %v, want 800 untouched", w.Meta.AvgTimeMs)
	}
}

func TestTopicSampleRates(t *testing.T) {
	if r := (model.TopicSample{Correct: 3, Total: 4}).ErrorRate(); !almostEqual(r, 0.25) {
		t.Errorf("error rate = %v, want 0.25", r)
	}
	// Empty sample counts as fully wrong rather than dividing by zero.
	if r := (model.TopicSample{}).ErrorRate(); r != 1 {
		t.Errorf("empty sample error rate = %v, want 1", r)
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.5, 1},
	}
	for _, c := range cases {
		if got := clamp01(c.in); got != c.want {
			t.Errorf("clamp01(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

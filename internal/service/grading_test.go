package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prepdeck/prepdeck-backend/internal/model"
)

func boolPtr(b bool) *bool { return &b }

// twoQuestionAttempt builds an attempt with two single-topic questions.
// q1: correct option "opt-1a" ("Paris"), q2: correct option "opt-2b" ("4").
func twoQuestionAttempt() *model.Attempt {
	return &model.Attempt{
		ID:     uuid.New(),
		UserID: uuid.New(),
		ExamID: uuid.New(),
		Snapshot: model.SnapshotBundle{
			Questions: []model.BundleQuestion{
				{
					QuestionID: "q-1",
					SnapshotID: "v-1",
					TopicID:    "topic-geo",
					Text:       "Capital of France?",
					Options: []model.BundleOption{
						{ID: "opt-1a", Text: "Paris", IsCorrect: boolPtr(true)},
						{ID: "opt-1b", Text: "Lyon"},
					},
				},
				{
					QuestionID: "q-2",
					SnapshotID: "v-2",
					TopicID:    "topic-math",
					Text:       "2 + 2?",
					Options: []model.BundleOption{
						{ID: "opt-2a", Text: "3"},
						{ID: "opt-2b", Text: "4", IsCorrect: boolPtr(true)},
					},
				},
			},
		},
	}
}

func TestGradeAnswersAllCorrect(t *testing.T) {
	attempt := twoQuestionAttempt()
	answers := []model.SubmitAnswer{
		{QuestionID: "q-1", SelectedOptionID: "opt-1a"},
		{QuestionID: "q-2", SelectedOptionID: "opt-2b"},
	}

	records, stats, correct := gradeAnswers(attempt, answers, time.Now())

	if correct != 2 {
		t.Fatalf("correct count = %d, want 2", correct)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	for i, r := range records {
		if !r.IsCorrect {
			t.Errorf("record %d graded incorrect", i)
		}
		if r.AttemptID != attempt.ID || r.UserID != attempt.UserID {
			t.Errorf("record %d not bound to attempt owner", i)
		}
	}
	if s := stats["topic-geo"]; s.Correct != 1 || s.Total != 1 {
		t.Errorf("topic-geo sample = %+v, want 1/1", s)
	}
	if s := stats["topic-math"]; s.Correct != 1 || s.Total != 1 {
		t.Errorf("topic-math sample = %+v, want 1/1", s)
	}
}

func TestGradeAnswersAllWrong(t *testing.T) {
	attempt := twoQuestionAttempt()
	answers := []model.SubmitAnswer{
		{QuestionID: "q-1", SelectedOptionID: "opt-1b"},
		{QuestionID: "q-2", SelectedOptionID: "opt-2a"},
	}

	records, stats, correct := gradeAnswers(attempt, answers, time.Now())

	if correct != 0 {
		t.Fatalf("correct count = %d, want 0", correct)
	}
	for i, r := range records {
		if r.IsCorrect {
			t.Errorf("record %d graded correct", i)
		}
		if r.Selected.Unmatched {
			t.Errorf("record %d flagged unmatched for a valid option", i)
		}
	}
	if s := stats["topic-geo"]; s.Correct != 0 || s.Total != 1 {
		t.Errorf("topic-geo sample = %+v, want 0/1", s)
	}
}

func TestGradeAnswersResolvesBySnapshotID(t *testing.T) {
	attempt := twoQuestionAttempt()
	answers := []model.SubmitAnswer{
		{QuestionVersionID: "v-1", SelectedOptionID: "opt-1a"},
	}

	records, _, correct := gradeAnswers(attempt, answers, time.Now())

	if correct != 1 {
		t.Fatalf("correct count = %d, want 1", correct)
	}
	// The bundle entry's ids win over what the client sent (nothing here).
	if records[0].QuestionID == nil || *records[0].QuestionID != "q-1" {
		t.Errorf("question id not backfilled from bundle entry")
	}
}

func TestGradeAnswersTextFallback(t *testing.T) {
	attempt := twoQuestionAttempt()
	answers := []model.SubmitAnswer{
		// Stale option id with a matching literal text.
		{QuestionID: "q-1", SelectedOptionID: "opt-ancient", SelectedText: "Paris"},
		// No option id at all.
		{QuestionID: "q-2", SelectedText: "4"},
	}

	records, _, correct := gradeAnswers(attempt, answers, time.Now())

	if correct != 2 {
		t.Fatalf("correct count = %d, want 2", correct)
	}
	// The matched option's id replaces the stale one.
	if records[0].SelectedOptionID == nil || *records[0].SelectedOptionID != "opt-1a" {
		t.Errorf("selected option id = %v, want opt-1a", records[0].SelectedOptionID)
	}
	if records[1].SelectedOptionID == nil || *records[1].SelectedOptionID != "opt-2b" {
		t.Errorf("selected option id = %v, want opt-2b", records[1].SelectedOptionID)
	}
}

func TestGradeAnswersUnmatchedOptionRecordedAsIncorrect(t *testing.T) {
	attempt := twoQuestionAttempt()
	answers := []model.SubmitAnswer{
		{QuestionID: "q-1", SelectedOptionID: "opt-nope", SelectedText: "Berlin"},
	}

	records, stats, correct := gradeAnswers(attempt, answers, time.Now())

	if correct != 0 {
		t.Fatalf("correct count = %d, want 0", correct)
	}
	r := records[0]
	if r.IsCorrect {
		t.Error("unmatched selection graded correct")
	}
	if !r.Selected.Unmatched {
		t.Error("unmatched flag not set")
	}
	// The submitted id is preserved for later inspection.
	if r.SelectedOptionID == nil || *r.SelectedOptionID != "opt-nope" {
		t.Errorf("selected option id = %v, want opt-nope", r.SelectedOptionID)
	}
	// The correct option is still recorded in the result snapshot.
	if r.Selected.CorrectOptionID == nil || *r.Selected.CorrectOptionID != "opt-1a" {
		t.Errorf("correct option id = %v, want opt-1a", r.Selected.CorrectOptionID)
	}
	// Still counts toward the topic's total.
	if s := stats["topic-geo"]; s.Correct != 0 || s.Total != 1 {
		t.Errorf("topic-geo sample = %+v, want 0/1", s)
	}
}

func TestGradeAnswersUnknownQuestionRecordedAsIncorrect(t *testing.T) {
	attempt := twoQuestionAttempt()
	answers := []model.SubmitAnswer{
		{QuestionID: "q-ghost", SelectedOptionID: "opt-1a"},
		{QuestionID: "q-1", SelectedOptionID: "opt-1a"},
	}

	records, stats, correct := gradeAnswers(attempt, answers, time.Now())

	if correct != 1 {
		t.Fatalf("correct count = %d, want 1", correct)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (unknown question still recorded)", len(records))
	}
	if !records[0].Selected.Unmatched {
		t.Error("unknown question not flagged unmatched")
	}
	// Unknown questions contribute to no topic.
	if s := stats["topic-geo"]; s.Total != 1 {
		t.Errorf("topic-geo total = %d, want 1", s.Total)
	}
}

func TestGradeAnswersWithheldCorrectFlagIsIncorrect(t *testing.T) {
	attempt := &model.Attempt{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Snapshot: model.SnapshotBundle{
			Questions: []model.BundleQuestion{
				{
					QuestionID: "q-1",
					TopicID:    "topic-x",
					Text:       "Pick one",
					Options: []model.BundleOption{
						{ID: "a", Text: "A"},
						{ID: "b", Text: "B"},
					},
				},
			},
		},
	}
	answers := []model.SubmitAnswer{{QuestionID: "q-1", SelectedOptionID: "a"}}

	records, _, correct := gradeAnswers(attempt, answers, time.Now())

	if correct != 0 {
		t.Fatalf("correct count = %d, want 0", correct)
	}
	if records[0].Selected.CorrectOptionID != nil {
		t.Error("correct option recorded for a bundle that withholds the flag")
	}
}

func TestGradeAnswersDuplicateAnswersEachRecorded(t *testing.T) {
	attempt := twoQuestionAttempt()
	answers := []model.SubmitAnswer{
		{QuestionID: "q-1", SelectedOptionID: "opt-1a"},
		{QuestionID: "q-1", SelectedOptionID: "opt-1b"},
	}

	records, stats, correct := gradeAnswers(attempt, answers, time.Now())

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if correct != 1 {
		t.Fatalf("correct count = %d, want 1", correct)
	}
	if s := stats["topic-geo"]; s.Correct != 1 || s.Total != 2 {
		t.Errorf("topic-geo sample = %+v, want 1/2", s)
	}
}

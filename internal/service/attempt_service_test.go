package service

import (
	"errors"
	"testing"

	"github.com/prepdeck/prepdeck-backend/internal/model"
)

func validBundle() model.SnapshotBundle {
	return model.SnapshotBundle{
		Questions: []model.BundleQuestion{
			{
				QuestionID: "q-1",
				Text:       "Pick one",
				Options: []model.BundleOption{
					{ID: "a", Text: "A", IsCorrect: boolPtr(true)},
					{ID: "b", Text: "B"},
				},
			},
		},
	}
}

func TestValidateBundleAccepted(t *testing.T) {
	b := validBundle()
	if err := ValidateBundle(&b); err != nil {
		t.Fatalf("valid bundle rejected: %v", err)
	}
}

func TestValidateBundleEmpty(t *testing.T) {
	b := model.SnapshotBundle{}
	err := ValidateBundle(&b)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestValidateBundleEmptyQuestionText(t *testing.T) {
	b := validBundle()
	b.Questions[0].Text = ""
	if err := ValidateBundle(&b); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestValidateBundleTooFewOptions(t *testing.T) {
	b := validBundle()
	b.Questions[0].Options = b.Questions[0].Options[:1]
	if err := ValidateBundle(&b); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

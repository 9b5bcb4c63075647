package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/prepdeck/prepdeck-backend/internal/model"
)

// bundleIndex provides the two lookups grading needs: bundle entries keyed
// by question id and by snapshot (question version) id.
type bundleIndex struct {
	byQuestion map[string]*model.BundleQuestion
	bySnapshot map[string]*model.BundleQuestion
}

func indexBundle(b *model.SnapshotBundle) bundleIndex {
	idx := bundleIndex{
		byQuestion: make(map[string]*model.BundleQuestion, len(b.Questions)),
		bySnapshot: make(map[string]*model.BundleQuestion, len(b.Questions)),
	}
	for i := range b.Questions {
		q := &b.Questions[i]
		if q.QuestionID != "" {
			idx.byQuestion[q.QuestionID] = q
		}
		if q.SnapshotID != "" {
			idx.bySnapshot[q.SnapshotID] = q
		}
	}
	return idx
}

// resolve locates the bundle entry for a submitted answer: question id
// first, then snapshot id. Returns nil when neither matches.
func (idx bundleIndex) resolve(ans *model.SubmitAnswer) *model.BundleQuestion {
	if ans.QuestionID != "" {
		if q, ok := idx.byQuestion[ans.QuestionID]; ok {
			return q
		}
	}
	if ans.QuestionVersionID != "" {
		if q, ok := idx.bySnapshot[ans.QuestionVersionID]; ok {
			return q
		}
	}
	return nil
}

// gradeAnswers grades a full answer set against an attempt's frozen bundle.
// It is pure: no I/O, deterministic for a given now. Every submitted answer
// produces exactly one record; unresolvable selections degrade to incorrect
// with the unmatched flag set instead of failing the submission.
func gradeAnswers(attempt *model.Attempt, answers []model.SubmitAnswer, now time.Time) ([]model.Answer, map[string]model.TopicSample, int) {
	idx := indexBundle(&attempt.Snapshot)

	records := make([]model.Answer, 0, len(answers))
	topicStats := make(map[string]model.TopicSample)
	correctCount := 0

	for i := range answers {
		ans := &answers[i]
		entry := idx.resolve(ans)
		record := gradeOne(entry, ans)

		record.ID = uuid.New()
		record.AttemptID = attempt.ID
		record.UserID = attempt.UserID
		record.CreatedAt = now

		if record.IsCorrect {
			correctCount++
		}
		if entry != nil && entry.TopicID != "" {
			sample := topicStats[entry.TopicID]
			sample.Total++
			if record.IsCorrect {
				sample.Correct++
			}
			topicStats[entry.TopicID] = sample
		}

		records = append(records, record)
	}

	return records, topicStats, correctCount
}

// gradeOne resolves one answer against its bundle entry. Option resolution
// goes by id first, then by literal selected text; a miss keeps the answer
// but grades it incorrect.
func gradeOne(entry *model.BundleQuestion, ans *model.SubmitAnswer) model.Answer {
	record := model.Answer{
		QuestionID:        optionalString(ans.QuestionID),
		QuestionVersionID: optionalString(ans.QuestionVersionID),
		SelectedOptionID:  optionalString(ans.SelectedOptionID),
		Selected: model.ResultSnapshot{
			SelectedText: optionalString(ans.SelectedText),
		},
	}

	if entry == nil {
		record.Selected.Unmatched = true
		return record
	}

	// The bundle entry's own ids are authoritative over whatever the client
	// echoed back.
	record.QuestionID = optionalString(entry.QuestionID)
	record.QuestionVersionID = optionalString(entry.SnapshotID)

	var matched *model.BundleOption
	switch {
	case ans.SelectedOptionID != "":
		matched = findOptionByID(entry.Options, ans.SelectedOptionID)
		if matched == nil && ans.SelectedText != "" {
			matched = findOptionByText(entry.Options, ans.SelectedText)
		}
	case ans.SelectedText != "":
		matched = findOptionByText(entry.Options, ans.SelectedText)
	}

	if matched != nil {
		record.IsCorrect = matched.Correct()
		record.Selected.SelectedText = optionalString(matched.Text)
		if matched.ID != "" {
			record.SelectedOptionID = optionalString(matched.ID)
		}
	} else {
		record.Selected.Unmatched = true
	}

	if correct := findCorrectOption(entry.Options); correct != nil {
		record.Selected.CorrectOptionID = optionalString(correct.ID)
		record.Selected.CorrectOptionText = optionalString(correct.Text)
	}

	return record
}

func findOptionByID(options []model.BundleOption, id string) *model.BundleOption {
	for i := range options {
		if options[i].ID == id {
			return &options[i]
		}
	}
	return nil
}

func findOptionByText(options []model.BundleOption, text string) *model.BundleOption {
	for i := range options {
		if options[i].Text == text {
			return &options[i]
		}
	}
	return nil
}

func findCorrectOption(options []model.BundleOption) *model.BundleOption {
	for i := range options {
		if options[i].Correct() {
			return &options[i]
		}
	}
	return nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

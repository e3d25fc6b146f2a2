package services

import (
	"encoding/json"
	"strings"

	"pet-adoption-api/models"
)

// RawAnswer is one answer exactly as the client sent it. Selections is
// kept raw so a non-list payload can be reported as MALFORMED_ANSWER
// instead of failing the whole request bind.
type RawAnswer struct {
	QuestionID int             `json:"question_id"`
	Selections json.RawMessage `json:"selections"`
}

// AnswerInput is a normalized answer: selections trimmed, null and blank
// entries dropped, single-valued types reduced to their first selection.
type AnswerInput struct {
	QuestionID int      `json:"question_id"`
	Selections []string `json:"selections"`
}

// ValidateAnswers checks a raw answer list against the form's question
// set and returns the normalized answers. Rules are applied in order:
// unknown question, missing required answer, malformed selections,
// per-type selection checks. Optional questions left blank are skipped
// entirely.
func ValidateAnswers(questions []models.Question, raws []RawAnswer) ([]AnswerInput, error) {
	byID := make(map[int]*models.Question, len(questions))
	for i := range questions {
		byID[questions[i].QuestionID] = &questions[i]
	}

	// Rule 1: every answer must reference a question on the form.
	for _, raw := range raws {
		if _, ok := byID[raw.QuestionID]; !ok {
			return nil, newError(ErrCodeUnknownQuestion,
				"question %d does not belong to this form", raw.QuestionID)
		}
	}

	answerFor := make(map[int]RawAnswer, len(raws))
	for _, raw := range raws {
		answerFor[raw.QuestionID] = raw
	}

	// Rule 2: every required question needs a non-empty answer.
	for i := range questions {
		q := &questions[i]
		if !q.IsRequired() {
			continue
		}
		raw, ok := answerFor[q.QuestionID]
		if !ok {
			return nil, missingRequired(q)
		}
		selections, err := decodeSelections(raw)
		if err != nil {
			return nil, err
		}
		if len(filterBlank(selections)) == 0 {
			return nil, missingRequired(q)
		}
	}

	normalized := make([]AnswerInput, 0, len(raws))
	for i := range questions {
		q := &questions[i]
		raw, ok := answerFor[q.QuestionID]
		if !ok {
			continue
		}

		// Rule 3: selections must decode as a list.
		selections, err := decodeSelections(raw)
		if err != nil {
			return nil, err
		}
		filled := filterBlank(selections)

		// Rule 5: optional questions left blank skip type validation.
		if len(filled) == 0 {
			continue
		}

		// Rule 4: per-type selection shape.
		switch q.Type {
		case models.QuestionTypeSingleChoice:
			if !matchesOption(q, filled[0]) {
				return nil, invalidSelection(q, filled[0])
			}
			filled = filled[:1]
		case models.QuestionTypeMultipleChoice:
			for _, sel := range filled {
				if !matchesOption(q, sel) {
					return nil, invalidSelection(q, sel)
				}
			}
		case models.QuestionTypeYesNo:
			if filled[0] != models.YesNoAnswerYes && filled[0] != models.YesNoAnswerNo {
				return nil, invalidSelection(q, filled[0])
			}
			filled = filled[:1]
		case models.QuestionTypeText:
			filled = filled[:1]
		default:
			return nil, newError(ErrCodeValidation,
				"question %d has unsupported type %q", q.QuestionID, q.Type)
		}

		normalized = append(normalized, AnswerInput{
			QuestionID: q.QuestionID,
			Selections: filled,
		})
	}

	return normalized, nil
}

func decodeSelections(raw RawAnswer) ([]*string, error) {
	if len(raw.Selections) == 0 || string(raw.Selections) == "null" {
		return nil, nil
	}
	var selections []*string
	if err := json.Unmarshal(raw.Selections, &selections); err != nil {
		return nil, newError(ErrCodeMalformedAnswer,
			"selections for question %d must be a list", raw.QuestionID)
	}
	return selections, nil
}

func filterBlank(selections []*string) []string {
	filled := make([]string, 0, len(selections))
	for _, sel := range selections {
		if sel == nil {
			continue
		}
		trimmed := strings.TrimSpace(*sel)
		if trimmed == "" {
			continue
		}
		filled = append(filled, trimmed)
	}
	return filled
}

func matchesOption(q *models.Question, selection string) bool {
	for _, opt := range q.Options {
		if opt.Title == selection {
			return true
		}
	}
	return false
}

func missingRequired(q *models.Question) *Error {
	return newError(ErrCodeMissingRequiredAnswer,
		"question %d (%s) requires an answer", q.QuestionID, q.Title)
}

func invalidSelection(q *models.Question, selection string) *Error {
	return newError(ErrCodeInvalidSelection,
		"selection %q is not valid for question %d (%s)", selection, q.QuestionID, q.Title)
}

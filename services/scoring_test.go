package services

import (
	"testing"

	"pet-adoption-api/models"
)

func question(id int, qType, priority string, options ...models.QuestionOption) models.Question {
	return models.Question{QuestionID: id, Type: qType, Priority: priority, Options: options}
}

func option(title string, correct bool) models.QuestionOption {
	return models.QuestionOption{Title: title, IsCorrect: correct}
}

func TestMatchPercentageWeightedScenario(t *testing.T) {
	// high (3): correct; medium (2): half of two correct options;
	// low (1): wrong. Score = (3 + 1 + 0) / 6 = 67%.
	questions := []models.Question{
		question(1, models.QuestionTypeSingleChoice, models.QuestionPriorityHigh,
			option("house", true), option("apartment", false)),
		question(2, models.QuestionTypeMultipleChoice, models.QuestionPriorityMedium,
			option("food", true), option("vaccines", true), option("nothing", false)),
		question(3, models.QuestionTypeYesNo, models.QuestionPriorityLow,
			option(models.YesNoAnswerYes, true), option(models.YesNoAnswerNo, false)),
	}
	answers := []AnswerInput{
		{QuestionID: 1, Selections: []string{"house"}},
		{QuestionID: 2, Selections: []string{"food"}},
		{QuestionID: 3, Selections: []string{models.YesNoAnswerNo}},
	}

	if got := MatchPercentage(questions, answers); got != 67 {
		t.Fatalf("expected 67, got %d", got)
	}
}

func TestMatchPercentagePartialCredit(t *testing.T) {
	// medium (2): one of two correct options; high (3): both correct.
	// Score = (0.5*2 + 1*3) / 5 = 80%.
	questions := []models.Question{
		question(1, models.QuestionTypeMultipleChoice, models.QuestionPriorityMedium,
			option("blanket", true), option("toys", true), option("none", false)),
		question(2, models.QuestionTypeMultipleChoice, models.QuestionPriorityHigh,
			option("fenced yard", true), option("daily walks", true)),
	}
	answers := []AnswerInput{
		{QuestionID: 1, Selections: []string{"blanket"}},
		{QuestionID: 2, Selections: []string{"fenced yard", "daily walks"}},
	}

	if got := MatchPercentage(questions, answers); got != 80 {
		t.Fatalf("expected 80, got %d", got)
	}
}

func TestMatchPercentagePerfectAndZero(t *testing.T) {
	questions := []models.Question{
		question(1, models.QuestionTypeSingleChoice, models.QuestionPriorityHigh,
			option("yes", true), option("no", false)),
	}

	if got := MatchPercentage(questions, []AnswerInput{{QuestionID: 1, Selections: []string{"yes"}}}); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if got := MatchPercentage(questions, []AnswerInput{{QuestionID: 1, Selections: []string{"no"}}}); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := MatchPercentage(questions, nil); got != 0 {
		t.Fatalf("expected 0 for no answers, got %d", got)
	}
}

func TestMatchPercentageNoScoringQuestions(t *testing.T) {
	// Text questions carry no correct options, so nothing can be scored.
	questions := []models.Question{
		question(1, models.QuestionTypeText, models.QuestionPriorityHigh),
		question(2, models.QuestionTypeText, models.QuestionPriorityNone),
	}
	answers := []AnswerInput{{QuestionID: 1, Selections: []string{"anything"}}}

	if got := MatchPercentage(questions, answers); got != 0 {
		t.Fatalf("expected 0 when no question is scorable, got %d", got)
	}
}

func TestMatchPercentageIgnoresWrongExtraSelections(t *testing.T) {
	// Wrong selections never subtract, they just earn nothing.
	questions := []models.Question{
		question(1, models.QuestionTypeMultipleChoice, models.QuestionPriorityMedium,
			option("a", true), option("b", true), option("c", false)),
	}
	answers := []AnswerInput{{QuestionID: 1, Selections: []string{"a", "c"}}}

	if got := MatchPercentage(questions, answers); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
}

func TestMatchPercentageDeterministic(t *testing.T) {
	questions := []models.Question{
		question(1, models.QuestionTypeSingleChoice, models.QuestionPriorityHigh,
			option("x", true), option("y", false)),
		question(2, models.QuestionTypeMultipleChoice, models.QuestionPriorityLow,
			option("m", true), option("n", true)),
	}
	answers := []AnswerInput{
		{QuestionID: 1, Selections: []string{"x"}},
		{QuestionID: 2, Selections: []string{"n"}},
	}

	first := MatchPercentage(questions, answers)
	for i := 0; i < 50; i++ {
		if got := MatchPercentage(questions, answers); got != first {
			t.Fatalf("run %d: expected %d, got %d", i, first, got)
		}
	}
}

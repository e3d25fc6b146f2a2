package services

import (
	"math"

	"pet-adoption-api/models"
)

// MatchPercentage computes the weighted correctness score of an answer
// set against a form's question set, as an integer percentage 0-100.
//
// Questions without any correct option (free text, pure information
// gathering) contribute nothing. Each scoring question contributes
// partial credit userCorrect/totalCorrect times its priority weight.
// Pure function: identical input always yields identical output.
func MatchPercentage(questions []models.Question, answers []AnswerInput) int {
	byQuestion := make(map[int][]string, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.Selections
	}

	var totalScore, maxScore float64
	for i := range questions {
		q := &questions[i]
		correct := q.CorrectOptions()
		if len(correct) == 0 {
			continue
		}
		weight := float64(q.Weight())
		maxScore += weight

		userCorrect := 0
		for _, sel := range byQuestion[q.QuestionID] {
			for _, opt := range correct {
				if opt.Title == sel {
					userCorrect++
					break
				}
			}
		}
		totalScore += float64(userCorrect) / float64(len(correct)) * weight
	}

	if maxScore == 0 {
		return 0
	}
	return int(math.Round(totalScore / maxScore * 100))
}

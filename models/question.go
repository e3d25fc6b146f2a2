package models

import "time"

// Question types
const (
	QuestionTypeSingleChoice   = "SINGLECHOICE"
	QuestionTypeMultipleChoice = "MULTIPLECHOICE"
	QuestionTypeYesNo          = "YESNO"
	QuestionTypeText           = "TEXT"
)

// Question priorities. Priority doubles as the "required" flag (anything
// above none is required) and as the scoring weight.
const (
	QuestionPriorityNone   = "none"
	QuestionPriorityLow    = "low"
	QuestionPriorityMedium = "medium"
	QuestionPriorityHigh   = "high"
)

// Fixed answer literals for YESNO questions.
const (
	YesNoAnswerYes = "Có"
	YesNoAnswerNo  = "Không"
)

type Question struct {
	QuestionID int        `gorm:"primaryKey;column:question_id" json:"question_id"`
	Title      string     `gorm:"column:title" json:"title"`
	Type       string     `gorm:"column:type" json:"type"`
	Priority   string     `gorm:"column:priority" json:"priority"`
	CreateAt   time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt   time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt   *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Options []QuestionOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

type QuestionOption struct {
	OptionID    int    `gorm:"primaryKey;column:option_id" json:"option_id"`
	QuestionID  int    `gorm:"column:question_id;index" json:"question_id"`
	Title       string `gorm:"column:title" json:"title"`
	IsCorrect   bool   `gorm:"column:is_correct" json:"is_correct"`
	OptionOrder int    `gorm:"column:option_order" json:"option_order"`
}

// TableName overrides
func (Question) TableName() string {
	return "questions"
}

func (QuestionOption) TableName() string {
	return "question_options"
}

// IsRequired reports whether an answer must be supplied for the question.
func (q *Question) IsRequired() bool {
	return q.Priority != QuestionPriorityNone && q.Priority != ""
}

// Weight returns the scoring weight derived from the priority.
func (q *Question) Weight() int {
	switch q.Priority {
	case QuestionPriorityLow:
		return 1
	case QuestionPriorityMedium:
		return 2
	case QuestionPriorityHigh:
		return 3
	default:
		return 0
	}
}

// CorrectOptions returns the options flagged as correct.
func (q *Question) CorrectOptions() []QuestionOption {
	var correct []QuestionOption
	for _, opt := range q.Options {
		if opt.IsCorrect {
			correct = append(correct, opt)
		}
	}
	return correct
}

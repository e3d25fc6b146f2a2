package models

import "time"

// Adoption submission statuses. Transitions between them are owned by
// services.SubmissionService; nothing else writes the status column.
const (
	SubmissionStatusPending      = "pending"
	SubmissionStatusScheduling   = "scheduling"
	SubmissionStatusInterviewing = "interviewing"
	SubmissionStatusReviewed     = "reviewed"
	SubmissionStatusApproved     = "approved"
	SubmissionStatusRejected     = "rejected"
)

// Interview methods
const (
	InterviewMethodOnline    = "online"
	InterviewMethodInPerson  = "in_person"
	InterviewMethodPhoneCall = "phone_call"
)

// AdoptionSubmission is one applicant's adoption request against one
// form. Never deleted, only transitioned to a terminal status.
type AdoptionSubmission struct {
	SubmissionID       int        `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	SubmissionCode     string     `gorm:"column:submission_code;unique" json:"submission_code"`
	AdoptionFormID     int        `gorm:"column:adoption_form_id;index:idx_submission_form;uniqueIndex:idx_submission_user_form" json:"adoption_form_id"`
	UserID             int        `gorm:"column:user_id;uniqueIndex:idx_submission_user_form" json:"user_id"`
	AdoptionsLastMonth int        `gorm:"column:adoptions_last_month" json:"adoptions_last_month"`
	Total              int        `gorm:"column:total" json:"total"` // match percentage 0-100
	Status             string     `gorm:"column:status" json:"status"`
	CreateAt           time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt           time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt           *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	Interview Interview `gorm:"embedded;embeddedPrefix:interview_" json:"interview"`

	// Relations
	User         *User              `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	AdoptionForm *AdoptionForm      `gorm:"foreignKey:AdoptionFormID;references:AdoptionFormID" json:"adoption_form,omitempty"`
	Answers      []SubmissionAnswer `gorm:"foreignKey:SubmissionID" json:"answers,omitempty"`
}

// Interview is the embedded interview sub-document. Its columns carry
// meaning only once the submission has been scheduled: an empty
// InterviewID marks "no interview yet".
type Interview struct {
	InterviewID      string     `gorm:"column:id" json:"interview_id"`
	AvailableFrom    *time.Time `gorm:"column:available_from" json:"available_from,omitempty"`
	AvailableTo      *time.Time `gorm:"column:available_to" json:"available_to,omitempty"`
	Method           string     `gorm:"column:method" json:"method,omitempty"`
	AssignedStaffID  *int       `gorm:"column:assigned_staff_id" json:"assigned_staff_id,omitempty"`
	ReviewedByID     *int       `gorm:"column:reviewed_by_id" json:"reviewed_by_id,omitempty"`
	SelectedSchedule *time.Time `gorm:"column:selected_schedule" json:"selected_schedule,omitempty"`
	Feedback         string     `gorm:"column:feedback" json:"feedback,omitempty"`
	Note             string     `gorm:"column:note" json:"note,omitempty"`
	CreateAt         *time.Time `gorm:"column:create_at" json:"create_at,omitempty"`
	UpdateAt         *time.Time `gorm:"column:update_at" json:"update_at,omitempty"`
}

// Exists reports whether an interview has been scheduled.
func (i *Interview) Exists() bool {
	return i.InterviewID != ""
}

// SubmissionAnswer stores the applicant's selections for one question.
type SubmissionAnswer struct {
	AnswerID     int      `gorm:"primaryKey;column:answer_id" json:"answer_id"`
	SubmissionID int      `gorm:"column:submission_id;index" json:"submission_id"`
	QuestionID   int      `gorm:"column:question_id" json:"question_id"`
	Selections   []string `gorm:"column:selections;serializer:json" json:"selections"`

	Question *Question `gorm:"foreignKey:QuestionID;references:QuestionID" json:"question,omitempty"`
}

// TableName overrides
func (AdoptionSubmission) TableName() string {
	return "adoption_submissions"
}

func (SubmissionAnswer) TableName() string {
	return "submission_answers"
}

// IsTerminal reports whether the submission can never change status again.
func (s *AdoptionSubmission) IsTerminal() bool {
	return s.Status == SubmissionStatusApproved || s.Status == SubmissionStatusRejected
}

package models

import "time"

// Adoption form statuses
const (
	FormStatusDraft    = "draft"
	FormStatusActive   = "active"
	FormStatusArchived = "archived"
)

// AdoptionForm is one pet's open adoption listing. At most one form per
// pet may be active at a time.
type AdoptionForm struct {
	AdoptionFormID int        `gorm:"primaryKey;column:adoption_form_id" json:"adoption_form_id"`
	FormCode       string     `gorm:"column:form_code;unique" json:"form_code"`
	PetID          int        `gorm:"column:pet_id;index" json:"pet_id"`
	ShelterID      int        `gorm:"column:shelter_id;index" json:"shelter_id"`
	Title          string     `gorm:"column:title" json:"title"`
	Description    string     `gorm:"column:description" json:"description"`
	Status         string     `gorm:"column:status" json:"status"`
	CreatedBy      int        `gorm:"column:created_by" json:"created_by"`
	CreateAt       time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt       time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt       *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Pet       *Pet                   `gorm:"foreignKey:PetID;references:PetID" json:"pet,omitempty"`
	Shelter   *Shelter               `gorm:"foreignKey:ShelterID;references:ShelterID" json:"shelter,omitempty"`
	Creator   *User                  `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Questions []AdoptionFormQuestion `gorm:"foreignKey:AdoptionFormID" json:"questions,omitempty"`
}

// AdoptionFormQuestion pins a question to a form with a stable order.
type AdoptionFormQuestion struct {
	AdoptionFormQuestionID int `gorm:"primaryKey;column:adoption_form_question_id" json:"adoption_form_question_id"`
	AdoptionFormID         int `gorm:"column:adoption_form_id;index" json:"adoption_form_id"`
	QuestionID             int `gorm:"column:question_id;index" json:"question_id"`
	QuestionOrder          int `gorm:"column:question_order" json:"question_order"`

	Question *Question `gorm:"foreignKey:QuestionID;references:QuestionID" json:"question,omitempty"`
}

// TableName overrides
func (AdoptionForm) TableName() string {
	return "adoption_forms"
}

func (AdoptionFormQuestion) TableName() string {
	return "adoption_form_questions"
}

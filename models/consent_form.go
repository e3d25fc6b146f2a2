package models

import "time"

// Consent form statuses
const (
	ConsentStatusDraft     = "draft"
	ConsentStatusSend      = "send"
	ConsentStatusAccepted  = "accepted"
	ConsentStatusRejected  = "rejected" // adopter requested edits
	ConsentStatusCancelled = "cancelled"
	ConsentStatusApproved  = "approved"
)

// Consent delivery methods
const (
	ConsentDeliveryPickup   = "pickup"
	ConsentDeliveryShipping = "shipping"
)

// ConsentForm is the final paperwork between a shelter and its chosen
// adopter, gating the actual hand-over. At most one per (pet, adopter).
type ConsentForm struct {
	ConsentFormID  int        `gorm:"primaryKey;column:consent_form_id" json:"consent_form_id"`
	ShelterID      int        `gorm:"column:shelter_id;index" json:"shelter_id"`
	AdopterID      int        `gorm:"column:adopter_id;uniqueIndex:idx_consent_pet_adopter" json:"adopter_id"`
	PetID          int        `gorm:"column:pet_id;uniqueIndex:idx_consent_pet_adopter" json:"pet_id"`
	CreatedBy      int        `gorm:"column:created_by" json:"created_by"`
	Title          string     `gorm:"column:title" json:"title"`
	Commitments    string     `gorm:"column:commitments" json:"commitments"`
	Note           string     `gorm:"column:note" json:"note"`
	TokenMoney     int64      `gorm:"column:token_money" json:"token_money"`
	DeliveryMethod string     `gorm:"column:delivery_method" json:"delivery_method"`
	Address        string     `gorm:"column:address" json:"address"`
	Status         string     `gorm:"column:status" json:"status"`
	CreateAt       time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt       time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt       *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Shelter     *Shelter            `gorm:"foreignKey:ShelterID;references:ShelterID" json:"shelter,omitempty"`
	Adopter     *User               `gorm:"foreignKey:AdopterID" json:"adopter,omitempty"`
	Pet         *Pet                `gorm:"foreignKey:PetID;references:PetID" json:"pet,omitempty"`
	Creator     *User               `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Attachments []ConsentAttachment `gorm:"foreignKey:ConsentFormID" json:"attachments,omitempty"`
}

// ConsentAttachment is an uploaded file hanging off a consent form.
type ConsentAttachment struct {
	AttachmentID  int       `gorm:"primaryKey;column:attachment_id" json:"attachment_id"`
	ConsentFormID int       `gorm:"column:consent_form_id;index" json:"consent_form_id"`
	FileName      string    `gorm:"column:file_name" json:"file_name"`
	URL           string    `gorm:"column:url" json:"url"`
	Size          int64     `gorm:"column:size" json:"size"`
	MimeType      string    `gorm:"column:mime_type" json:"mime_type"`
	CreateAt      time.Time `gorm:"column:create_at" json:"create_at"`
}

// TableName overrides
func (ConsentForm) TableName() string {
	return "consent_forms"
}

func (ConsentAttachment) TableName() string {
	return "consent_attachments"
}

package models

import "time"

// Pet statuses
const (
	PetStatusDraft       = "draft"
	PetStatusUnavailable = "unavailable"
	PetStatusAvailable   = "available"
	PetStatusAdopted     = "adopted"
)

type Species struct {
	SpeciesID int        `gorm:"primaryKey;column:species_id" json:"species_id"`
	Name      string     `gorm:"column:name" json:"name"`
	CreateAt  time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt  time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt  *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

type Breed struct {
	BreedID   int        `gorm:"primaryKey;column:breed_id" json:"breed_id"`
	SpeciesID int        `gorm:"column:species_id;index" json:"species_id"`
	Name      string     `gorm:"column:name" json:"name"`
	CreateAt  time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt  time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt  *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

type Pet struct {
	PetID      int        `gorm:"primaryKey;column:pet_id" json:"pet_id"`
	PetCode    string     `gorm:"column:pet_code;unique" json:"pet_code"`
	Name       string     `gorm:"column:name" json:"name"`
	ShelterID  int        `gorm:"column:shelter_id;index" json:"shelter_id"`
	SpeciesID  *int       `gorm:"column:species_id" json:"species_id,omitempty"`
	BreedID    *int       `gorm:"column:breed_id" json:"breed_id,omitempty"`
	Age        int        `gorm:"column:age" json:"age"`
	IsMale     bool       `gorm:"column:is_male" json:"is_male"`
	Photos     []string   `gorm:"column:photos;serializer:json" json:"photos"`
	TokenMoney int64      `gorm:"column:token_money" json:"token_money"`
	Status     string     `gorm:"column:status" json:"status"`
	AdopterID  *int       `gorm:"column:adopter_id" json:"adopter_id,omitempty"` // set only when adopted
	CreateAt   time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt   time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt   *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Shelter *Shelter `gorm:"foreignKey:ShelterID;references:ShelterID" json:"shelter,omitempty"`
	Species *Species `gorm:"foreignKey:SpeciesID;references:SpeciesID" json:"species,omitempty"`
	Breed   *Breed   `gorm:"foreignKey:BreedID;references:BreedID" json:"breed,omitempty"`
	Adopter *User    `gorm:"foreignKey:AdopterID" json:"adopter,omitempty"`
}

// TableName overrides
func (Species) TableName() string {
	return "species"
}

func (Breed) TableName() string {
	return "breeds"
}

func (Pet) TableName() string {
	return "pets"
}

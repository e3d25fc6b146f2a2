package models

import (
	"strings"
	"time"
)

type User struct {
	UserID       int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	FullName     string     `gorm:"column:full_name" json:"full_name"`
	Email        string     `gorm:"column:email;unique" json:"email"`
	Password     string     `gorm:"column:password" json:"-"`
	PhoneNumber  string     `gorm:"column:phone_number" json:"phone_number"`
	Address      string     `gorm:"column:address" json:"address"`
	Avatar       string     `gorm:"column:avatar" json:"avatar"`
	Status       string     `gorm:"column:status" json:"status"` // active|warned|banned
	WarningCount int        `gorm:"column:warning_count" json:"warning_count"`
	CreateAt     time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt     time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

type Shelter struct {
	ShelterID int        `gorm:"primaryKey;column:shelter_id" json:"shelter_id"`
	Name      string     `gorm:"column:name" json:"name"`
	Email     string     `gorm:"column:email" json:"email"`
	Hotline   string     `gorm:"column:hotline" json:"hotline"`
	Address   string     `gorm:"column:address" json:"address"`
	Avatar    string     `gorm:"column:avatar" json:"avatar"`
	Status    string     `gorm:"column:status" json:"status"` // active|inactive
	CreateAt  time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt  time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt  *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Members []ShelterMember `gorm:"foreignKey:ShelterID" json:"members,omitempty"`
}

// ShelterMember links a user to a shelter with comma separated roles
// (e.g. "staff" or "staff,manager").
type ShelterMember struct {
	ShelterMemberID int       `gorm:"primaryKey;column:shelter_member_id" json:"shelter_member_id"`
	ShelterID       int       `gorm:"column:shelter_id;index" json:"shelter_id"`
	UserID          int       `gorm:"column:user_id;index" json:"user_id"`
	Roles           string    `gorm:"column:roles" json:"roles"`
	CreateAt        time.Time `gorm:"column:create_at" json:"create_at"`

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

func (Shelter) TableName() string {
	return "shelters"
}

func (ShelterMember) TableName() string {
	return "shelter_members"
}

// HasRole reports whether the member carries the given role.
func (m *ShelterMember) HasRole(role string) bool {
	for _, r := range strings.Split(m.Roles, ",") {
		if strings.TrimSpace(r) == role {
			return true
		}
	}
	return false
}

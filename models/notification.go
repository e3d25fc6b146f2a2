package models

import "time"

// Notification categories
const (
	NotificationCategoryAdoption = "adoption"
	NotificationCategorySystem   = "system"
)

type Notification struct {
	NotificationID int       `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	ActorID        int       `gorm:"column:actor_id" json:"actor_id"`
	RecipientID    int       `gorm:"column:recipient_id;index" json:"recipient_id"`
	Content        string    `gorm:"column:content" json:"content"`
	Category       string    `gorm:"column:category" json:"category"`
	DeepLink       string    `gorm:"column:deep_link" json:"deep_link"`
	IsRead         bool      `gorm:"column:is_read" json:"is_read"`
	CreateAt       time.Time `gorm:"column:create_at" json:"create_at"`
}

func (Notification) TableName() string { return "notifications" }

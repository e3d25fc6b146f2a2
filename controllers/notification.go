package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pet-adoption-api/config"
	"pet-adoption-api/models"
)

// ListNotifications returns the caller's notifications, newest first.
// Supports ?unread=true and ?limit=N (default 50).
func ListNotifications(c *gin.Context) {
	userID, _ := getCurrentUserID(c)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}

	q := config.DB.Where("recipient_id = ?", userID)
	if c.Query("unread") == "true" {
		q = q.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := q.Order("create_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		respondError(c, err)
		return
	}

	var unread int64
	config.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&unread)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"notifications": notifications,
		"unread_count":  unread,
	})
}

// MarkNotificationRead marks one of the caller's notifications as read
func MarkNotificationRead(c *gin.Context) {
	notificationID, ok := paramInt(c, "notificationID")
	if !ok {
		return
	}

	userID, _ := getCurrentUserID(c)

	res := config.DB.Model(&models.Notification{}).
		Where("notification_id = ? AND recipient_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification marked as read"})
}

// MarkAllNotificationsRead marks every unread notification of the caller
func MarkAllNotificationsRead(c *gin.Context) {
	userID, _ := getCurrentUserID(c)

	res := config.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "All notifications marked as read",
		"updated": res.RowsAffected,
	})
}

// DeleteOldNotifications prunes read notifications older than 90 days
// for the caller.
func DeleteOldNotifications(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	cutoff := time.Now().AddDate(0, 0, -90)

	res := config.DB.
		Where("recipient_id = ? AND is_read = ? AND create_at < ?", userID, true, cutoff).
		Delete(&models.Notification{})
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": res.RowsAffected})
}

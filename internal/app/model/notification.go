package model

import (
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeBookingConfirmed NotificationType = "booking_confirmed"
	NotificationTypeBookingReminder  NotificationType = "booking_reminder"
	NotificationTypeBookingCancelled NotificationType = "booking_cancelled"
	NotificationTypeReviewRequest    NotificationType = "review_request"
)

// Notification is a persisted in-app notification. Delivery over the
// websocket hub is best-effort; the row is the record.
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID uint  `gorm:"not null;index" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Type    NotificationType `gorm:"type:varchar(50);not null;index" json:"type"`
	Title   string           `gorm:"type:text;not null" json:"title"`
	Content string           `gorm:"type:text;not null" json:"content"`

	IsRead bool `gorm:"default:false;index" json:"is_read"`

	RelatedBookingID    *uint `gorm:"index" json:"related_booking_id,omitempty"`
	RelatedRestaurantID *uint `gorm:"index" json:"related_restaurant_id,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

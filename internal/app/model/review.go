package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Review is feedback for exactly one completed booking.
type Review struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	BookingID    uint `gorm:"not null;uniqueIndex" json:"booking_id"` // at most one review per booking
	RestaurantID uint `gorm:"not null;index" json:"restaurant_id"`
	UserID       uint `gorm:"not null;index" json:"user_id"`

	OverallRating int `gorm:"not null" json:"overall_rating"` // 1-5, mandatory
	FoodRating    int `gorm:"not null" json:"food_rating"`    // sub-ratings default to overall when unset
	ServiceRating int `gorm:"not null" json:"service_rating"`
	AmbianceRating int `gorm:"not null" json:"ambiance_rating"`
	ValueRating   int `gorm:"not null" json:"value_rating"`

	Comment        string         `gorm:"type:text" json:"comment,omitempty"`
	PrivateNotes   string         `gorm:"type:text" json:"-"` // restaurant-only, never in public payloads
	WouldRecommend bool           `gorm:"not null" json:"would_recommend"`
	Photos         pq.StringArray `gorm:"type:text[]" json:"photos,omitempty"`

	// Set for overall_rating <= 2; triggers a private follow-up, no public change.
	FlaggedForFollowup bool `gorm:"default:false" json:"-"`

	Booking    Booking    `gorm:"foreignKey:BookingID" json:"-"`
	Restaurant Restaurant `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`
	User       User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Review) TableName() string {
	return "reviews"
}

// PendingReview is a queue entry for a completed booking awaiting its
// mandatory review. Created on completion, deleted when the review lands.
// Oldest-first is the order shown to the user.
type PendingReview struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	BookingID      uint      `gorm:"not null;uniqueIndex" json:"booking_id"`
	RestaurantID   uint      `gorm:"not null;index" json:"restaurant_id"`
	RestaurantName string    `gorm:"not null" json:"restaurant_name"` // denormalized for display
	BookingDate    time.Time `gorm:"not null" json:"booking_date"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`

	Booking Booking `gorm:"foreignKey:BookingID" json:"-"`
}

func (PendingReview) TableName() string {
	return "pending_reviews"
}

package model

import (
	"time"

	"gorm.io/gorm"
)

// TimeWindow is a bookable discounted slot. current_bookings counts occupied
// seats and must stay within [0, max_capacity]; all mutation goes through
// TimeWindowRepository.Reserve/Release.
type TimeWindow struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	RestaurantID       uint           `gorm:"not null;index:idx_time_windows_restaurant_date" json:"restaurant_id"`
	Date               time.Time      `gorm:"not null;index:idx_time_windows_restaurant_date" json:"date"`
	StartTime          string         `gorm:"type:varchar(5);not null" json:"start_time"` // HH:MM, restaurant-local
	EndTime            string         `gorm:"type:varchar(5);not null" json:"end_time"`   // HH:MM
	DiscountPercentage int            `gorm:"not null" json:"discount_percentage"`
	MaxCapacity        int            `gorm:"not null" json:"max_capacity"`
	CurrentBookings    int            `gorm:"not null;default:0" json:"current_bookings"`
	IsActive           bool           `gorm:"default:true" json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	Restaurant Restaurant `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`
}

func (TimeWindow) TableName() string {
	return "time_windows"
}

// RemainingCapacity returns the seats still available in this window.
func (w *TimeWindow) RemainingCapacity() int {
	return w.MaxCapacity - w.CurrentBookings
}

// IsAvailable reports whether the window can accept any booking.
func (w *TimeWindow) IsAvailable() bool {
	return w.IsActive && w.CurrentBookings < w.MaxCapacity
}

// StartsAt combines the window's date and start time into a single instant.
func (w *TimeWindow) StartsAt() time.Time {
	return combineDateTime(w.Date, w.StartTime)
}

// EndsAt combines the window's date and end time into a single instant.
func (w *TimeWindow) EndsAt() time.Time {
	return combineDateTime(w.Date, w.EndTime)
}

// ValidHHMM reports whether s is a zero-padded 24-hour "HH:MM" time.
func ValidHHMM(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

func combineDateTime(date time.Time, hhmm string) time.Time {
	// Malformed times collapse to midnight; creation rejects them up front.
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}

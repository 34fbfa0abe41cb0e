package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/pkg/logger"
)

type BookingRepository interface {
	Create(booking *model.Booking) error
	FindByID(id uint) (*model.Booking, error)
	FindByIdempotencyKey(userID uint, key string) (*model.Booking, error)
	FindByUserID(userID uint, status string) ([]model.Booking, error)
	FindByRestaurantID(restaurantID uint, from, to time.Time) ([]model.Booking, error)
	FindExpiredPending(cutoff time.Time) ([]model.Booking, error)
	FindPastConfirmed(before time.Time) ([]model.Booking, error)
	FindUpcomingConfirmed(from, to time.Time) ([]model.Booking, error)
	Update(booking *model.Booking) error
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) preloadBooking() *gorm.DB {
	return r.db.Preload("User").Preload("Restaurant").Preload("TimeWindow")
}

func (r *bookingRepository) Create(booking *model.Booking) error {
	logger.Debug("Creating booking in database", map[string]interface{}{
		"user_id":        booking.UserID,
		"restaurant_id":  booking.RestaurantID,
		"time_window_id": booking.TimeWindowID,
		"party_size":     booking.PartySize,
	})

	if err := r.db.Create(booking).Error; err != nil {
		logger.Error("Failed to create booking in database", err, map[string]interface{}{
			"user_id":        booking.UserID,
			"time_window_id": booking.TimeWindowID,
		})
		return err
	}

	logger.Debug("Booking created in database", map[string]interface{}{
		"booking_id":  booking.ID,
		"user_id":     booking.UserID,
		"booking_fee": booking.BookingFee,
	})
	return nil
}

func (r *bookingRepository) FindByID(id uint) (*model.Booking, error) {
	var booking model.Booking
	if err := r.preloadBooking().First(&booking, id).Error; err != nil {
		logger.Error("Failed to find booking by ID in database", err, map[string]interface{}{
			"booking_id": id,
		})
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByIdempotencyKey(userID uint, key string) (*model.Booking, error) {
	var booking model.Booking
	err := r.preloadBooking().
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByUserID(userID uint, status string) ([]model.Booking, error) {
	logger.Debug("Finding bookings by user in database", map[string]interface{}{
		"user_id": userID,
		"status":  status,
	})

	query := r.preloadBooking().Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var bookings []model.Booking
	if err := query.Order("created_at DESC").Find(&bookings).Error; err != nil {
		logger.Error("Failed to find bookings by user in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindByRestaurantID(restaurantID uint, from, to time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.preloadBooking().
		Joins("JOIN time_windows ON time_windows.id = bookings.time_window_id").
		Where("bookings.restaurant_id = ? AND time_windows.date >= ? AND time_windows.date <= ?",
			restaurantID, from, to).
		Order("time_windows.date ASC, time_windows.start_time ASC").
		Find(&bookings).Error
	if err != nil {
		logger.Error("Failed to find bookings by restaurant in database", err, map[string]interface{}{
			"restaurant_id": restaurantID,
		})
		return nil, err
	}
	return bookings, nil
}

// FindExpiredPending returns pending bookings whose payment never completed
// before the cutoff. The scheduler cancels these to free capacity.
func (r *bookingRepository) FindExpiredPending(cutoff time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.
		Where("status = ? AND created_at < ?", model.BookingStatusPending, cutoff).
		Find(&bookings).Error
	if err != nil {
		logger.Error("Failed to find expired pending bookings in database", err, nil)
		return nil, err
	}
	return bookings, nil
}

// FindPastConfirmed returns confirmed bookings whose window has already
// ended, candidates for auto-completion.
func (r *bookingRepository) FindPastConfirmed(before time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.Preload("Restaurant").Preload("TimeWindow").
		Joins("JOIN time_windows ON time_windows.id = bookings.time_window_id").
		Where("bookings.status = ? AND time_windows.date < ?", model.BookingStatusConfirmed, before).
		Find(&bookings).Error
	if err != nil {
		logger.Error("Failed to find past confirmed bookings in database", err, nil)
		return nil, err
	}
	return bookings, nil
}

// FindUpcomingConfirmed returns confirmed bookings inside the reminder
// window.
func (r *bookingRepository) FindUpcomingConfirmed(from, to time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.Preload("Restaurant").Preload("TimeWindow").
		Joins("JOIN time_windows ON time_windows.id = bookings.time_window_id").
		Where("bookings.status = ? AND time_windows.date >= ? AND time_windows.date <= ?",
			model.BookingStatusConfirmed, from, to).
		Find(&bookings).Error
	if err != nil {
		logger.Error("Failed to find upcoming confirmed bookings in database", err, nil)
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) Update(booking *model.Booking) error {
	if err := r.db.Save(booking).Error; err != nil {
		logger.Error("Failed to update booking in database", err, map[string]interface{}{
			"booking_id": booking.ID,
		})
		return err
	}
	return nil
}

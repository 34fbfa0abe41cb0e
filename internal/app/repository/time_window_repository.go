package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/pkg/logger"
)

var (
	// ErrCapacityExceeded means the requested seats do not fit in the window.
	ErrCapacityExceeded = errors.New("time window capacity exceeded")

	// ErrTimeWindowInactive means the window no longer accepts bookings.
	ErrTimeWindowInactive = errors.New("time window is inactive")
)

type TimeWindowRepository interface {
	Create(window *model.TimeWindow) error
	FindByID(id uint) (*model.TimeWindow, error)
	FindByRestaurantID(restaurantID uint, from, to time.Time) ([]model.TimeWindow, error)
	FindAvailable(restaurantID uint, date time.Time) ([]model.TimeWindow, error)
	Update(window *model.TimeWindow) error
	Reserve(tx *gorm.DB, id uint, seats int) error
	Release(tx *gorm.DB, id uint, seats int) error
}

type timeWindowRepository struct {
	db *gorm.DB
}

func NewTimeWindowRepository(db *gorm.DB) TimeWindowRepository {
	return &timeWindowRepository{db: db}
}

func (r *timeWindowRepository) Create(window *model.TimeWindow) error {
	logger.Debug("Creating time window in database", map[string]interface{}{
		"restaurant_id": window.RestaurantID,
		"date":          window.Date,
		"start_time":    window.StartTime,
	})

	if err := r.db.Create(window).Error; err != nil {
		logger.Error("Failed to create time window in database", err, map[string]interface{}{
			"restaurant_id": window.RestaurantID,
			"date":          window.Date,
		})
		return err
	}
	return nil
}

func (r *timeWindowRepository) FindByID(id uint) (*model.TimeWindow, error) {
	var window model.TimeWindow
	if err := r.db.Preload("Restaurant").First(&window, id).Error; err != nil {
		logger.Error("Failed to find time window by ID in database", err, map[string]interface{}{
			"time_window_id": id,
		})
		return nil, err
	}
	return &window, nil
}

func (r *timeWindowRepository) FindByRestaurantID(restaurantID uint, from, to time.Time) ([]model.TimeWindow, error) {
	logger.Debug("Finding time windows by restaurant in database", map[string]interface{}{
		"restaurant_id": restaurantID,
		"from":          from,
		"to":            to,
	})

	var windows []model.TimeWindow
	if err := r.db.
		Where("restaurant_id = ? AND date >= ? AND date <= ?", restaurantID, from, to).
		Order("date ASC, start_time ASC").
		Find(&windows).Error; err != nil {
		logger.Error("Failed to find time windows by restaurant in database", err, map[string]interface{}{
			"restaurant_id": restaurantID,
		})
		return nil, err
	}
	return windows, nil
}

func (r *timeWindowRepository) FindAvailable(restaurantID uint, date time.Time) ([]model.TimeWindow, error) {
	var windows []model.TimeWindow
	if err := r.db.
		Where("restaurant_id = ? AND date = ? AND is_active = ? AND current_bookings < max_capacity",
			restaurantID, date, true).
		Order("start_time ASC").
		Find(&windows).Error; err != nil {
		logger.Error("Failed to find available time windows in database", err, map[string]interface{}{
			"restaurant_id": restaurantID,
			"date":          date,
		})
		return nil, err
	}
	return windows, nil
}

func (r *timeWindowRepository) Update(window *model.TimeWindow) error {
	if err := r.db.Save(window).Error; err != nil {
		logger.Error("Failed to update time window in database", err, map[string]interface{}{
			"time_window_id": window.ID,
		})
		return err
	}
	return nil
}

// Reserve takes seats from a window with a single conditional update so two
// concurrent bookings can never oversell it. Zero rows affected means the
// guard failed; a re-read tells which guard.
func (r *timeWindowRepository) Reserve(tx *gorm.DB, id uint, seats int) error {
	logger.Debug("Reserving time window capacity", map[string]interface{}{
		"time_window_id": id,
		"seats":          seats,
	})

	result := tx.Model(&model.TimeWindow{}).
		Where("id = ? AND is_active = ? AND current_bookings + ? <= max_capacity", id, true, seats).
		UpdateColumn("current_bookings", gorm.Expr("current_bookings + ?", seats))
	if result.Error != nil {
		logger.Error("Failed to reserve time window capacity", result.Error, map[string]interface{}{
			"time_window_id": id,
			"seats":          seats,
		})
		return result.Error
	}

	if result.RowsAffected == 0 {
		var window model.TimeWindow
		if err := tx.First(&window, id).Error; err != nil {
			return err
		}
		if !window.IsActive {
			return ErrTimeWindowInactive
		}
		logger.Debug("Time window capacity exceeded", map[string]interface{}{
			"time_window_id":   id,
			"seats":            seats,
			"current_bookings": window.CurrentBookings,
			"max_capacity":     window.MaxCapacity,
		})
		return ErrCapacityExceeded
	}
	return nil
}

// Release returns seats to a window. The guard keeps the counter from going
// negative; hitting it means reserve/release calls got unbalanced, which is
// worth a warning but not a failed cancellation.
func (r *timeWindowRepository) Release(tx *gorm.DB, id uint, seats int) error {
	logger.Debug("Releasing time window capacity", map[string]interface{}{
		"time_window_id": id,
		"seats":          seats,
	})

	result := tx.Model(&model.TimeWindow{}).
		Where("id = ? AND current_bookings >= ?", id, seats).
		UpdateColumn("current_bookings", gorm.Expr("current_bookings - ?", seats))
	if result.Error != nil {
		logger.Error("Failed to release time window capacity", result.Error, map[string]interface{}{
			"time_window_id": id,
			"seats":          seats,
		})
		return result.Error
	}

	if result.RowsAffected == 0 {
		var window model.TimeWindow
		if err := tx.First(&window, id).Error; err != nil {
			return err
		}
		logger.Warn("Time window release clamped to zero", map[string]interface{}{
			"time_window_id":   id,
			"seats":            seats,
			"current_bookings": window.CurrentBookings,
		})
		return tx.Model(&model.TimeWindow{}).
			Where("id = ?", id).
			UpdateColumn("current_bookings", 0).Error
	}
	return nil
}

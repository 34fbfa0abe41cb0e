package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/pkg/logger"
)

type ReviewRepository interface {
	Create(tx *gorm.DB, review *model.Review) error
	FindByID(id uint) (*model.Review, error)
	FindByBookingID(bookingID uint) (*model.Review, error)
	FindByRestaurantID(restaurantID uint, limit, offset int) ([]model.Review, error)
	FindByUserID(userID uint) ([]model.Review, error)
	ComputeRestaurantRating(tx *gorm.DB, restaurantID uint) (float64, int, error)
	CreatePendingReview(pending *model.PendingReview) error
	FindPendingByUserID(userID uint) ([]model.PendingReview, error)
	FindOldestPendingByUserID(userID uint) (*model.PendingReview, error)
	CountPendingOlderThan(userID uint, cutoff time.Time) (int64, error)
	DeletePendingByBookingID(tx *gorm.DB, bookingID uint) error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(tx *gorm.DB, review *model.Review) error {
	logger.Debug("Creating review in database", map[string]interface{}{
		"booking_id":     review.BookingID,
		"restaurant_id":  review.RestaurantID,
		"overall_rating": review.OverallRating,
	})

	if err := tx.Create(review).Error; err != nil {
		logger.Error("Failed to create review in database", err, map[string]interface{}{
			"booking_id": review.BookingID,
		})
		return err
	}

	logger.Debug("Review created in database", map[string]interface{}{
		"review_id":  review.ID,
		"booking_id": review.BookingID,
	})
	return nil
}

func (r *reviewRepository) FindByID(id uint) (*model.Review, error) {
	var review model.Review
	if err := r.db.Preload("User").First(&review, id).Error; err != nil {
		logger.Error("Failed to find review by ID in database", err, map[string]interface{}{
			"review_id": id,
		})
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) FindByBookingID(bookingID uint) (*model.Review, error) {
	var review model.Review
	if err := r.db.Where("booking_id = ?", bookingID).First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) FindByRestaurantID(restaurantID uint, limit, offset int) ([]model.Review, error) {
	logger.Debug("Finding reviews by restaurant in database", map[string]interface{}{
		"restaurant_id": restaurantID,
		"limit":         limit,
		"offset":        offset,
	})

	query := r.db.Preload("User").
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var reviews []model.Review
	if err := query.Find(&reviews).Error; err != nil {
		logger.Error("Failed to find reviews by restaurant in database", err, map[string]interface{}{
			"restaurant_id": restaurantID,
		})
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) FindByUserID(userID uint) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		logger.Error("Failed to find reviews by user in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return reviews, nil
}

// ComputeRestaurantRating recomputes the aggregate from the review rows
// inside the caller's transaction.
func (r *reviewRepository) ComputeRestaurantRating(tx *gorm.DB, restaurantID uint) (float64, int, error) {
	var result struct {
		Average float64
		Count   int
	}
	err := tx.Model(&model.Review{}).
		Select("COALESCE(AVG(overall_rating), 0) AS average, COUNT(*) AS count").
		Where("restaurant_id = ?", restaurantID).
		Scan(&result).Error
	if err != nil {
		logger.Error("Failed to compute restaurant rating in database", err, map[string]interface{}{
			"restaurant_id": restaurantID,
		})
		return 0, 0, err
	}
	return result.Average, result.Count, nil
}

func (r *reviewRepository) CreatePendingReview(pending *model.PendingReview) error {
	logger.Debug("Creating pending review in database", map[string]interface{}{
		"booking_id": pending.BookingID,
		"user_id":    pending.UserID,
	})

	if err := r.db.Create(pending).Error; err != nil {
		logger.Error("Failed to create pending review in database", err, map[string]interface{}{
			"booking_id": pending.BookingID,
		})
		return err
	}
	return nil
}

// FindPendingByUserID returns the queue oldest first, matching the order
// reviews must be written in.
func (r *reviewRepository) FindPendingByUserID(userID uint) ([]model.PendingReview, error) {
	var pending []model.PendingReview
	err := r.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&pending).Error
	if err != nil {
		logger.Error("Failed to find pending reviews in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return pending, nil
}

func (r *reviewRepository) FindOldestPendingByUserID(userID uint) (*model.PendingReview, error) {
	var pending model.PendingReview
	err := r.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		First(&pending).Error
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *reviewRepository) CountPendingOlderThan(userID uint, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.PendingReview{}).
		Where("user_id = ? AND created_at < ?", userID, cutoff).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to count pending reviews in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return 0, err
	}
	return count, nil
}

func (r *reviewRepository) DeletePendingByBookingID(tx *gorm.DB, bookingID uint) error {
	err := tx.Where("booking_id = ?", bookingID).
		Delete(&model.PendingReview{}).Error
	if err != nil {
		logger.Error("Failed to delete pending review in database", err, map[string]interface{}{
			"booking_id": bookingID,
		})
		return err
	}
	return nil
}

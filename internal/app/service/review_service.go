package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/internal/app/repository"
	"github.com/beforepeak/beforepeak-backend/pkg/logger"
	"github.com/beforepeak/beforepeak-backend/pkg/redis"
)

var (
	ErrReviewNotFound   = errors.New("review not found")
	ErrReviewExists     = errors.New("review already submitted for this booking")
	ErrReviewNotAllowed = errors.New("only completed bookings can be reviewed")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
)

// followupThreshold is the overall rating at or below which a review is
// flagged for private follow-up with the restaurant.
const followupThreshold = 2

// gateCacheTTL bounds how stale the cached gate verdict may be. The
// pending_reviews table stays authoritative.
const gateCacheTTL = 60 * time.Second

// ReviewGate answers whether a user is blocked from booking until overdue
// reviews are submitted.
type ReviewGate interface {
	HasOverdueReviews(userID uint) (bool, error)
	InvalidateGate(userID uint)
}

type SubmitReviewInput struct {
	UserID         uint
	BookingID      uint
	OverallRating  int
	FoodRating     int // 0 defaults to the overall rating
	ServiceRating  int
	AmbianceRating int
	ValueRating    int
	Comment        string
	PrivateNotes   string
	WouldRecommend bool
	Photos         []string
}

type SubmitReviewResult struct {
	Review             *model.Review
	FlaggedForFollowup bool
}

type ReviewService interface {
	ReviewGate
	SubmitReview(input SubmitReviewInput) (*SubmitReviewResult, error)
	GetRestaurantReviews(restaurantID uint, limit, offset int) ([]model.Review, error)
	GetUserReviews(userID uint) ([]model.Review, error)
	GetPendingReviews(userID uint) ([]model.PendingReview, error)
	NextPendingReview(userID uint) (*model.PendingReview, error)
}

type reviewService struct {
	reviewRepo     repository.ReviewRepository
	bookingRepo    repository.BookingRepository
	restaurantRepo repository.RestaurantRepository
	db             *gorm.DB
	gateAge        time.Duration
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	bookingRepo repository.BookingRepository,
	restaurantRepo repository.RestaurantRepository,
	db *gorm.DB,
	gateAge time.Duration,
) ReviewService {
	return &reviewService{
		reviewRepo:     reviewRepo,
		bookingRepo:    bookingRepo,
		restaurantRepo: restaurantRepo,
		db:             db,
		gateAge:        gateAge,
	}
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

// SubmitReview writes the review for a completed booking, removes the
// matching pending-review entry, and recomputes the restaurant's aggregate
// rating, all in one transaction.
func (s *reviewService) SubmitReview(input SubmitReviewInput) (*SubmitReviewResult, error) {
	logger.Info("Submitting review", map[string]interface{}{
		"user_id":        input.UserID,
		"booking_id":     input.BookingID,
		"overall_rating": input.OverallRating,
	})

	if err := validateRating(input.OverallRating); err != nil {
		return nil, err
	}

	// Sub-ratings default to the overall rating when unset.
	subRatings := []*int{&input.FoodRating, &input.ServiceRating, &input.AmbianceRating, &input.ValueRating}
	for _, rating := range subRatings {
		if *rating == 0 {
			*rating = input.OverallRating
			continue
		}
		if err := validateRating(*rating); err != nil {
			return nil, err
		}
	}

	booking, err := s.bookingRepo.FindByID(input.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.UserID != input.UserID {
		return nil, ErrBookingNotFound
	}
	if booking.Status != model.BookingStatusCompleted {
		return nil, ErrReviewNotAllowed
	}

	if _, err := s.reviewRepo.FindByBookingID(input.BookingID); err == nil {
		return nil, ErrReviewExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	review := &model.Review{
		BookingID:          input.BookingID,
		RestaurantID:       booking.RestaurantID,
		UserID:             input.UserID,
		OverallRating:      input.OverallRating,
		FoodRating:         input.FoodRating,
		ServiceRating:      input.ServiceRating,
		AmbianceRating:     input.AmbianceRating,
		ValueRating:        input.ValueRating,
		Comment:            input.Comment,
		PrivateNotes:       input.PrivateNotes,
		WouldRecommend:     input.WouldRecommend,
		Photos:             pq.StringArray(input.Photos),
		FlaggedForFollowup: input.OverallRating <= followupThreshold,
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during review submission, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"booking_id": input.BookingID,
			})
		}
	}()

	if err := s.reviewRepo.Create(tx, review); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := s.reviewRepo.DeletePendingByBookingID(tx, input.BookingID); err != nil {
		tx.Rollback()
		return nil, err
	}

	average, count, err := s.reviewRepo.ComputeRestaurantRating(tx, booking.RestaurantID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := s.restaurantRepo.UpdateRating(tx, booking.RestaurantID, average, count); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.InvalidateGate(input.UserID)

	logger.Info("Review submitted", map[string]interface{}{
		"review_id":     review.ID,
		"booking_id":    input.BookingID,
		"restaurant_id": booking.RestaurantID,
		"new_average":   average,
		"flagged":       review.FlaggedForFollowup,
	})

	return &SubmitReviewResult{
		Review:             review,
		FlaggedForFollowup: review.FlaggedForFollowup,
	}, nil
}

func (s *reviewService) GetRestaurantReviews(restaurantID uint, limit, offset int) ([]model.Review, error) {
	if _, err := s.restaurantRepo.FindByID(restaurantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	return s.reviewRepo.FindByRestaurantID(restaurantID, limit, offset)
}

func (s *reviewService) GetUserReviews(userID uint) ([]model.Review, error) {
	return s.reviewRepo.FindByUserID(userID)
}

func (s *reviewService) GetPendingReviews(userID uint) ([]model.PendingReview, error) {
	return s.reviewRepo.FindPendingByUserID(userID)
}

// NextPendingReview returns the oldest outstanding review for the user, or
// nil when the queue is empty.
func (s *reviewService) NextPendingReview(userID uint) (*model.PendingReview, error) {
	pending, err := s.reviewRepo.FindOldestPendingByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return pending, nil
}

// HasOverdueReviews reports whether any pending review for the user is
// older than the gate age. The verdict is cached briefly in Redis; the
// database stays authoritative.
func (s *reviewService) HasOverdueReviews(userID uint) (bool, error) {
	ctx := context.Background()

	if blocked, found := redis.GetCachedReviewGate(ctx, userID); found {
		return blocked, nil
	}

	cutoff := time.Now().Add(-s.gateAge)
	count, err := s.reviewRepo.CountPendingOlderThan(userID, cutoff)
	if err != nil {
		return false, err
	}
	blocked := count > 0

	if err := redis.CacheReviewGate(ctx, userID, blocked, gateCacheTTL); err != nil {
		logger.Warn("Failed to cache review gate verdict", map[string]interface{}{
			"user_id": userID,
		})
	}
	return blocked, nil
}

// InvalidateGate drops the cached verdict after anything changes the
// user's pending-review queue.
func (s *reviewService) InvalidateGate(userID uint) {
	redis.InvalidateReviewGate(context.Background(), userID)
}

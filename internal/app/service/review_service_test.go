package service

import (
	"testing"
	"time"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/internal/app/repository"
	"github.com/beforepeak/beforepeak-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupReviewServiceTest(t *testing.T) (ReviewService, *gorm.DB, *model.User, *model.Restaurant) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	reviewRepo := repository.NewReviewRepository(testDB)
	bookingRepo := repository.NewBookingRepository(testDB)
	restaurantRepo := repository.NewRestaurantRepository(testDB)
	reviewSvc := NewReviewService(reviewRepo, bookingRepo, restaurantRepo, testDB, 24*time.Hour)

	user := &model.User{
		Email:        "diner@example.com",
		PasswordHash: "hash",
		DisplayName:  "Test Diner",
		Role:         model.RoleCustomer,
		ReferralCode: "DINER123",
		IsActive:     true,
	}
	testDB.Create(user)

	restaurant := &model.Restaurant{
		Name:         "Test Restaurant",
		CuisineType:  "cantonese",
		Territory:    "kowloon",
		Address:      "1 Test Street",
		MaxPartySize: 6,
		IsActive:     true,
	}
	testDB.Create(restaurant)

	return reviewSvc, testDB, user, restaurant
}

// completedBooking inserts a completed booking with its pending-review entry.
func completedBooking(t *testing.T, testDB *gorm.DB, user *model.User, restaurant *model.Restaurant) *model.Booking {
	window := &model.TimeWindow{
		RestaurantID:       restaurant.ID,
		Date:               time.Now().AddDate(0, 0, -1),
		StartTime:          "14:00",
		EndTime:            "16:00",
		DiscountPercentage: 30,
		MaxCapacity:        10,
		IsActive:           true,
	}
	require.NoError(t, testDB.Create(window).Error)

	booking := &model.Booking{
		UserID:         user.ID,
		RestaurantID:   restaurant.ID,
		TimeWindowID:   window.ID,
		PartySize:      2,
		BookingFee:     50,
		Status:         model.BookingStatusCompleted,
		PaymentStatus:  model.PaymentStatusCompleted,
		IdempotencyKey: "key-" + time.Now().Format("150405.000000000"),
	}
	require.NoError(t, testDB.Create(booking).Error)

	require.NoError(t, testDB.Create(&model.PendingReview{
		BookingID:      booking.ID,
		RestaurantID:   restaurant.ID,
		RestaurantName: restaurant.Name,
		BookingDate:    window.Date,
		UserID:         user.ID,
	}).Error)

	return booking
}

func TestReviewService_SubmitReview_Success(t *testing.T) {
	reviewSvc, testDB, user, restaurant := setupReviewServiceTest(t)
	booking := completedBooking(t, testDB, user, restaurant)

	result, err := reviewSvc.SubmitReview(SubmitReviewInput{
		UserID:         user.ID,
		BookingID:      booking.ID,
		OverallRating:  4,
		FoodRating:     5,
		Comment:        "Great dim sum",
		WouldRecommend: true,
	})
	require.NoError(t, err)
	assert.False(t, result.FlaggedForFollowup)
	assert.Equal(t, 4, result.Review.OverallRating)
	assert.Equal(t, 5, result.Review.FoodRating)

	// Unset sub-ratings inherit the overall rating
	assert.Equal(t, 4, result.Review.ServiceRating)
	assert.Equal(t, 4, result.Review.AmbianceRating)
	assert.Equal(t, 4, result.Review.ValueRating)

	// The pending entry is consumed by the submission
	var pendingCount int64
	testDB.Model(&model.PendingReview{}).Where("user_id = ?", user.ID).Count(&pendingCount)
	assert.Zero(t, pendingCount)

	// The restaurant aggregate moves with the review
	var updated model.Restaurant
	testDB.First(&updated, restaurant.ID)
	assert.Equal(t, float64(4), updated.AverageRating)
	assert.Equal(t, 1, updated.TotalReviews)
}

func TestReviewService_SubmitReview_RecomputesMean(t *testing.T) {
	reviewSvc, testDB, user, restaurant := setupReviewServiceTest(t)

	first := completedBooking(t, testDB, user, restaurant)
	second := completedBooking(t, testDB, user, restaurant)

	_, err := reviewSvc.SubmitReview(SubmitReviewInput{
		UserID:         user.ID,
		BookingID:      first.ID,
		OverallRating:  5,
		WouldRecommend: true,
	})
	require.NoError(t, err)

	_, err = reviewSvc.SubmitReview(SubmitReviewInput{
		UserID:        user.ID,
		BookingID:     second.ID,
		OverallRating: 2,
	})
	require.NoError(t, err)

	var updated model.Restaurant
	testDB.First(&updated, restaurant.ID)
	assert.InDelta(t, 3.5, updated.AverageRating, 0.001)
	assert.Equal(t, 2, updated.TotalReviews)
}

func TestReviewService_SubmitReview_LowRatingFlagged(t *testing.T) {
	reviewSvc, testDB, user, restaurant := setupReviewServiceTest(t)
	booking := completedBooking(t, testDB, user, restaurant)

	result, err := reviewSvc.SubmitReview(SubmitReviewInput{
		UserID:        user.ID,
		BookingID:     booking.ID,
		OverallRating: 2,
		Comment:       "Cold food",
	})
	require.NoError(t, err)
	assert.True(t, result.FlaggedForFollowup)

	// The flag is private; the rating still counts toward the public mean
	var updated model.Restaurant
	testDB.First(&updated, restaurant.ID)
	assert.Equal(t, float64(2), updated.AverageRating)
	assert.Equal(t, 1, updated.TotalReviews)
}

func TestReviewService_SubmitReview_Duplicate(t *testing.T) {
	reviewSvc, testDB, user, restaurant := setupReviewServiceTest(t)
	booking := completedBooking(t, testDB, user, restaurant)

	_, err := reviewSvc.SubmitReview(SubmitReviewInput{
		UserID:        user.ID,
		BookingID:     booking.ID,
		OverallRating: 4,
	})
	require.NoError(t, err)

	_, err = reviewSvc.SubmitReview(SubmitReviewInput{
		UserID:        user.ID,
		BookingID:     booking.ID,
		OverallRating: 5,
	})
	assert.ErrorIs(t, err, ErrReviewExists)
}

func TestReviewService_SubmitReview_NotCompleted(t *testing.T) {
	reviewSvc, testDB, user, restaurant := setupReviewServiceTest(t)
	booking := completedBooking(t, testDB, user, restaurant)
	testDB.Model(&model.Booking{}).Where("id = ?", booking.ID).
		Update("status", model.BookingStatusConfirmed)

	_, err := reviewSvc.SubmitReview(SubmitReviewInput{
		UserID:        user.ID,
		BookingID:     booking.ID,
		OverallRating: 4,
	})
	assert.ErrorIs(t, err, ErrReviewNotAllowed)
}

func TestReviewService_SubmitReview_WrongUser(t *testing.T) {
	reviewSvc, testDB, user, restaurant := setupReviewServiceTest(t)
	booking := completedBooking(t, testDB, user, restaurant)

	other := &model.User{
		Email:        "other@example.com",
		PasswordHash: "hash",
		DisplayName:  "Other Diner",
		Role:         model.RoleCustomer,
		ReferralCode: "OTHER123",
		IsActive:     true,
	}
	testDB.Create(other)

	_, err := reviewSvc.SubmitReview(SubmitReviewInput{
		UserID:        other.ID,
		BookingID:     booking.ID,
		OverallRating: 4,
	})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestReviewService_SubmitReview_InvalidRatings(t *testing.T) {
	reviewSvc, testDB, user, restaurant := setupReviewServiceTest(t)
	booking := completedBooking(t, testDB, user, restaurant)

	_, err := reviewSvc.SubmitReview(SubmitReviewInput{
		UserID:        user.ID,
		BookingID:     booking.ID,
		OverallRating: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = reviewSvc.SubmitReview(SubmitReviewInput{
		UserID:        user.ID,
		BookingID:     booking.ID,
		OverallRating: 6,
	})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = reviewSvc.SubmitReview(SubmitReviewInput{
		UserID:        user.ID,
		BookingID:     booking.ID,
		OverallRating: 4,
		FoodRating:    7,
	})
	assert.ErrorIs(t, err, ErrInvalidRating)
}

func TestReviewService_HasOverdueReviews(t *testing.T) {
	reviewSvc, testDB, user, restaurant := setupReviewServiceTest(t)

	blocked, err := reviewSvc.HasOverdueReviews(user.ID)
	require.NoError(t, err)
	assert.False(t, blocked)

	// Fresh pending reviews leave the gate open
	testDB.Create(&model.PendingReview{
		BookingID:      100,
		RestaurantID:   restaurant.ID,
		RestaurantName: restaurant.Name,
		BookingDate:    time.Now().AddDate(0, 0, -1),
		UserID:         user.ID,
		CreatedAt:      time.Now().Add(-1 * time.Hour),
	})
	blocked, err = reviewSvc.HasOverdueReviews(user.ID)
	require.NoError(t, err)
	assert.False(t, blocked)

	// Past the grace period the gate closes
	testDB.Create(&model.PendingReview{
		BookingID:      101,
		RestaurantID:   restaurant.ID,
		RestaurantName: restaurant.Name,
		BookingDate:    time.Now().AddDate(0, 0, -3),
		UserID:         user.ID,
		CreatedAt:      time.Now().Add(-25 * time.Hour),
	})
	blocked, err = reviewSvc.HasOverdueReviews(user.ID)
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestReviewService_NextPendingReview_FIFO(t *testing.T) {
	reviewSvc, testDB, user, restaurant := setupReviewServiceTest(t)

	older := completedBooking(t, testDB, user, restaurant)
	newer := completedBooking(t, testDB, user, restaurant)

	// Oldest entry surfaces first
	testDB.Model(&model.PendingReview{}).Where("booking_id = ?", older.ID).
		Update("created_at", time.Now().Add(-48*time.Hour))

	next, err := reviewSvc.NextPendingReview(user.ID)
	require.NoError(t, err)
	assert.Equal(t, older.ID, next.BookingID)

	_, err = reviewSvc.SubmitReview(SubmitReviewInput{
		UserID:        user.ID,
		BookingID:     older.ID,
		OverallRating: 4,
	})
	require.NoError(t, err)

	next, err = reviewSvc.NextPendingReview(user.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, next.BookingID)
}

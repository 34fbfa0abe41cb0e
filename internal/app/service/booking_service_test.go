package service

import (
	"sync"
	"testing"
	"time"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/internal/app/repository"
	"github.com/beforepeak/beforepeak-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupBookingServiceTest(t *testing.T) (BookingService, *gorm.DB, *model.User, *model.User, *model.Restaurant) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	bookingRepo := repository.NewBookingRepository(testDB)
	timeWindowRepo := repository.NewTimeWindowRepository(testDB)
	restaurantRepo := repository.NewRestaurantRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	reviewRepo := repository.NewReviewRepository(testDB)
	notificationRepo := repository.NewNotificationRepository(testDB)

	notificationSvc := NewNotificationService(notificationRepo, nil)
	reviewSvc := NewReviewService(reviewRepo, bookingRepo, restaurantRepo, testDB, 24*time.Hour)
	bookingSvc := NewBookingService(
		bookingRepo,
		timeWindowRepo,
		restaurantRepo,
		userRepo,
		reviewRepo,
		notificationSvc,
		reviewSvc,
		testDB,
		12*time.Hour,
	)

	user := &model.User{
		Email:        "diner@example.com",
		PasswordHash: "hash",
		DisplayName:  "Test Diner",
		Role:         model.RoleCustomer,
		ReferralCode: "DINER123",
		IsActive:     true,
	}
	testDB.Create(user)

	owner := &model.User{
		Email:        "owner@example.com",
		PasswordHash: "hash",
		DisplayName:  "Test Owner",
		Role:         model.RoleOwner,
		ReferralCode: "OWNER123",
		IsActive:     true,
	}
	testDB.Create(owner)

	restaurant := &model.Restaurant{
		OwnerID:      &owner.ID,
		Name:         "Test Restaurant",
		CuisineType:  "cantonese",
		Territory:    "hong_kong_island",
		Address:      "1 Test Street",
		MaxPartySize: 6,
		IsActive:     true,
	}
	testDB.Create(restaurant)

	return bookingSvc, testDB, user, owner, restaurant
}

// createWindow inserts a time window starting at now+lead.
func createWindow(t *testing.T, testDB *gorm.DB, restaurantID uint, lead time.Duration, capacity int) *model.TimeWindow {
	start := time.Now().Add(lead)
	window := &model.TimeWindow{
		RestaurantID:       restaurantID,
		Date:               time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location()),
		StartTime:          start.Format("15:04"),
		EndTime:            start.Add(90 * time.Minute).Format("15:04"),
		DiscountPercentage: 30,
		MaxCapacity:        capacity,
		IsActive:           true,
	}
	require.NoError(t, testDB.Create(window).Error)
	return window
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 10)

	booking, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    2,
	})
	require.NoError(t, err)
	assert.NotZero(t, booking.ID)
	assert.Equal(t, model.BookingStatusPending, booking.Status)
	assert.Equal(t, model.PaymentStatusPending, booking.PaymentStatus)
	assert.Equal(t, float64(50), booking.BookingFee)
	assert.Equal(t, restaurant.ID, booking.RestaurantID)

	// Seats are held while payment is pending
	var updated model.TimeWindow
	testDB.First(&updated, window.ID)
	assert.Equal(t, 2, updated.CurrentBookings)
}

func TestBookingService_CreateBooking_CapacityExceeded(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 4)

	_, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    3,
	})
	require.NoError(t, err)

	booking, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    3,
	})
	assert.ErrorIs(t, err, repository.ErrCapacityExceeded)
	assert.Nil(t, booking)

	// Failed reservation leaves the counter and the bookings table untouched
	var updated model.TimeWindow
	testDB.First(&updated, window.ID)
	assert.Equal(t, 3, updated.CurrentBookings)

	var count int64
	testDB.Model(&model.Booking{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestBookingService_CreateBooking_IdempotencyKey(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 10)

	input := CreateBookingInput{
		UserID:         user.ID,
		TimeWindowID:   window.ID,
		PartySize:      2,
		IdempotencyKey: "key-abc",
	}

	first, err := bookingSvc.CreateBooking(input)
	require.NoError(t, err)

	second, err := bookingSvc.CreateBooking(input)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Retried create must not reserve seats twice
	var updated model.TimeWindow
	testDB.First(&updated, window.ID)
	assert.Equal(t, 2, updated.CurrentBookings)
}

func TestBookingService_CreateBooking_PastWindow(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, -2*time.Hour, 10)

	_, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    2,
	})
	assert.ErrorIs(t, err, ErrTimeWindowPast)
}

func TestBookingService_CreateBooking_PartySizeTooLarge(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 20)

	_, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    7, // restaurant max is 6
	})
	assert.ErrorIs(t, err, ErrPartySizeTooLarge)
}

func TestBookingService_CreateBooking_ReviewGateBlocked(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 10)

	// A review pending for more than 24 hours blocks new bookings
	testDB.Create(&model.PendingReview{
		BookingID:      999,
		RestaurantID:   restaurant.ID,
		RestaurantName: restaurant.Name,
		BookingDate:    time.Now().AddDate(0, 0, -3),
		UserID:         user.ID,
		CreatedAt:      time.Now().Add(-25 * time.Hour),
	})

	_, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    2,
	})
	assert.ErrorIs(t, err, ErrReviewGateBlocked)
}

func TestBookingService_CreateBooking_FreshPendingReviewDoesNotBlock(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 10)

	testDB.Create(&model.PendingReview{
		BookingID:      999,
		RestaurantID:   restaurant.ID,
		RestaurantName: restaurant.Name,
		BookingDate:    time.Now().AddDate(0, 0, -1),
		UserID:         user.ID,
		CreatedAt:      time.Now().Add(-1 * time.Hour),
	})

	_, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    2,
	})
	assert.NoError(t, err)
}

func TestBookingService_ConfirmPayment(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 10)

	booking, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    4,
	})
	require.NoError(t, err)

	confirmed, err := bookingSvc.ConfirmPayment(booking.ID, "stripe", "pi_test_123")
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, confirmed.Status)
	assert.Equal(t, model.PaymentStatusCompleted, confirmed.PaymentStatus)
	assert.NotNil(t, confirmed.PaymentApprovedAt)

	// Lifetime stats move with the payment
	var updatedUser model.User
	testDB.First(&updatedUser, user.ID)
	assert.Equal(t, 1, updatedUser.TotalBookings)
	assert.Equal(t, float64(80), updatedUser.TotalSpent)

	// Confirming twice is rejected
	_, err = bookingSvc.ConfirmPayment(booking.ID, "stripe", "pi_test_123")
	assert.ErrorIs(t, err, ErrInvalidBookingState)
}

func TestBookingService_CancelBooking_RefundAsCredit(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 10)

	booking, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    2,
	})
	require.NoError(t, err)
	_, err = bookingSvc.ConfirmPayment(booking.ID, "stripe", "pi_test_123")
	require.NoError(t, err)

	cancelled, err := bookingSvc.CancelBooking(user.ID, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, model.PaymentStatusRefunded, cancelled.PaymentStatus)

	// Seats are released back to the window
	var updatedWindow model.TimeWindow
	testDB.First(&updatedWindow, window.ID)
	assert.Equal(t, 0, updatedWindow.CurrentBookings)

	// Refund lands as account credit, never cash
	var updatedUser model.User
	testDB.First(&updatedUser, user.ID)
	assert.Equal(t, float64(50), updatedUser.CreditBalance)

	var credit model.AccountCredit
	require.NoError(t, testDB.Where("user_id = ?", user.ID).First(&credit).Error)
	assert.Equal(t, float64(50), credit.Amount)
	assert.Equal(t, "cancellation_refund", credit.Reason)
}

func TestBookingService_CancelBooking_InsideWindow(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 2*time.Hour, 10)

	booking, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    2,
	})
	require.NoError(t, err)

	_, err = bookingSvc.CancelBooking(user.ID, booking.ID)
	assert.ErrorIs(t, err, ErrCancellationWindowExpired)

	// Nothing moved
	var unchanged model.Booking
	testDB.First(&unchanged, booking.ID)
	assert.Equal(t, model.BookingStatusPending, unchanged.Status)

	var updatedWindow model.TimeWindow
	testDB.First(&updatedWindow, window.ID)
	assert.Equal(t, 2, updatedWindow.CurrentBookings)
}

func TestBookingService_CancelBooking_PendingNoCredit(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 10)

	booking, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    2,
	})
	require.NoError(t, err)

	cancelled, err := bookingSvc.CancelBooking(user.ID, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)

	// Nothing was paid, so nothing is refunded
	var updatedUser model.User
	testDB.First(&updatedUser, user.ID)
	assert.Zero(t, updatedUser.CreditBalance)
}

func TestBookingService_ModifyBooking_MoveWindow(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	oldWindow := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 10)
	newWindow := createWindow(t, testDB, restaurant.ID, 72*time.Hour, 10)

	booking, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: oldWindow.ID,
		PartySize:    3,
	})
	require.NoError(t, err)
	_, err = bookingSvc.ConfirmPayment(booking.ID, "stripe", "pi_test_123")
	require.NoError(t, err)

	modified, err := bookingSvc.ModifyBooking(ModifyBookingInput{
		UserID:          user.ID,
		BookingID:       booking.ID,
		NewTimeWindowID: newWindow.ID,
		NewPartySize:    4,
	})
	require.NoError(t, err)
	assert.Equal(t, newWindow.ID, modified.TimeWindowID)
	assert.Equal(t, 4, modified.PartySize)

	var oldUpdated, newUpdated model.TimeWindow
	testDB.First(&oldUpdated, oldWindow.ID)
	testDB.First(&newUpdated, newWindow.ID)
	assert.Equal(t, 0, oldUpdated.CurrentBookings)
	assert.Equal(t, 4, newUpdated.CurrentBookings)
}

func TestBookingService_ModifyBooking_AllOrNothing(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	oldWindow := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 10)
	fullWindow := createWindow(t, testDB, restaurant.ID, 72*time.Hour, 2)

	booking, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: oldWindow.ID,
		PartySize:    3,
	})
	require.NoError(t, err)
	_, err = bookingSvc.ConfirmPayment(booking.ID, "stripe", "pi_test_123")
	require.NoError(t, err)

	_, err = bookingSvc.ModifyBooking(ModifyBookingInput{
		UserID:          user.ID,
		BookingID:       booking.ID,
		NewTimeWindowID: fullWindow.ID,
	})
	assert.ErrorIs(t, err, repository.ErrCapacityExceeded)

	// The failed move must not leak the released seats
	var oldUpdated, fullUpdated model.TimeWindow
	testDB.First(&oldUpdated, oldWindow.ID)
	testDB.First(&fullUpdated, fullWindow.ID)
	assert.Equal(t, 3, oldUpdated.CurrentBookings)
	assert.Equal(t, 0, fullUpdated.CurrentBookings)

	var unchanged model.Booking
	testDB.First(&unchanged, booking.ID)
	assert.Equal(t, oldWindow.ID, unchanged.TimeWindowID)
}

func TestBookingService_ModifyBooking_PendingRejected(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 10)

	booking, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    2,
	})
	require.NoError(t, err)

	_, err = bookingSvc.ModifyBooking(ModifyBookingInput{
		UserID:       user.ID,
		BookingID:    booking.ID,
		NewPartySize: 3,
	})
	assert.ErrorIs(t, err, ErrInvalidBookingState)
}

func TestBookingService_CompleteBooking(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 10)

	booking, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    2,
	})
	require.NoError(t, err)
	_, err = bookingSvc.ConfirmPayment(booking.ID, "stripe", "pi_test_123")
	require.NoError(t, err)

	require.NoError(t, bookingSvc.CompleteBooking(booking.ID))

	var completed model.Booking
	testDB.First(&completed, booking.ID)
	assert.Equal(t, model.BookingStatusCompleted, completed.Status)

	// Completion enqueues the mandatory review
	var pending model.PendingReview
	require.NoError(t, testDB.Where("booking_id = ?", booking.ID).First(&pending).Error)
	assert.Equal(t, user.ID, pending.UserID)
	assert.Equal(t, restaurant.Name, pending.RestaurantName)
}

func TestBookingService_CompleteBooking_PendingRejected(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 10)

	booking, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    2,
	})
	require.NoError(t, err)

	err = bookingSvc.CompleteBooking(booking.ID)
	assert.ErrorIs(t, err, ErrInvalidBookingState)
}

func TestBookingService_MarkNoShow(t *testing.T) {
	bookingSvc, testDB, user, owner, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 10)

	booking, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    2,
	})
	require.NoError(t, err)
	_, err = bookingSvc.ConfirmPayment(booking.ID, "stripe", "pi_test_123")
	require.NoError(t, err)

	// A stranger cannot flag someone else's restaurant
	err = bookingSvc.MarkNoShow(user.ID, booking.ID)
	assert.ErrorIs(t, err, ErrNotRestaurantOwner)

	require.NoError(t, bookingSvc.MarkNoShow(owner.ID, booking.ID))

	var updated model.Booking
	testDB.First(&updated, booking.ID)
	assert.Equal(t, model.BookingStatusNoShow, updated.Status)
}

func TestBookingService_GetBookingByID_Ownership(t *testing.T) {
	bookingSvc, testDB, user, owner, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 10)

	booking, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    2,
	})
	require.NoError(t, err)

	_, err = bookingSvc.GetBookingByID(owner.ID, booking.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	got, err := bookingSvc.GetBookingByID(user.ID, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)
}

func TestBookingService_CreateBooking_ConcurrentNeverOverbooks(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 5)

	const attempts = 8
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = bookingSvc.CreateBooking(CreateBookingInput{
				UserID:       user.ID,
				TimeWindowID: window.ID,
				PartySize:    2,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, repository.ErrCapacityExceeded)
		}
	}

	// Five seats fit two parties of two, never a third
	assert.Equal(t, 2, succeeded)

	var updated model.TimeWindow
	testDB.First(&updated, window.ID)
	assert.Equal(t, succeeded*2, updated.CurrentBookings)
	assert.LessOrEqual(t, updated.CurrentBookings, updated.MaxCapacity)

	var count int64
	testDB.Model(&model.Booking{}).Where("time_window_id = ?", window.ID).Count(&count)
	assert.Equal(t, int64(succeeded), count)
}

func TestBookingService_ConfirmPayment_ConcurrentSingleWinner(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 10)

	booking, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    2,
	})
	require.NoError(t, err)

	const attempts = 6
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = bookingSvc.ConfirmPayment(booking.ID, "stripe", "pi_race")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInvalidBookingState)
		}
	}
	assert.Equal(t, 1, succeeded)

	// Lifetime counters moved exactly once
	var updatedUser model.User
	testDB.First(&updatedUser, user.ID)
	assert.Equal(t, 1, updatedUser.TotalBookings)
	assert.Equal(t, float64(50), updatedUser.TotalSpent)
}

func TestBookingService_CancelBooking_ConcurrentSingleRefund(t *testing.T) {
	bookingSvc, testDB, user, _, restaurant := setupBookingServiceTest(t)
	window := createWindow(t, testDB, restaurant.ID, 48*time.Hour, 10)

	// A bystander booking holds three seats that a double release would free.
	bystander, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    3,
	})
	require.NoError(t, err)
	_, err = bookingSvc.ConfirmPayment(bystander.ID, "stripe", "pi_bystander")
	require.NoError(t, err)

	target, err := bookingSvc.CreateBooking(CreateBookingInput{
		UserID:       user.ID,
		TimeWindowID: window.ID,
		PartySize:    2,
	})
	require.NoError(t, err)
	_, err = bookingSvc.ConfirmPayment(target.ID, "stripe", "pi_target")
	require.NoError(t, err)

	const attempts = 6
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = bookingSvc.CancelBooking(user.ID, target.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInvalidBookingState)
		}
	}
	assert.Equal(t, 1, succeeded)

	// The target's seats come back once; the bystander's stay held.
	var updatedWindow model.TimeWindow
	testDB.First(&updatedWindow, window.ID)
	assert.Equal(t, 3, updatedWindow.CurrentBookings)

	// Exactly one refund credit
	var credits []model.AccountCredit
	testDB.Where("booking_id = ?", target.ID).Find(&credits)
	require.Len(t, credits, 1)
	assert.Equal(t, float64(50), credits[0].Amount)

	var updatedUser model.User
	testDB.First(&updatedUser, user.ID)
	assert.Equal(t, float64(50), updatedUser.CreditBalance)
}

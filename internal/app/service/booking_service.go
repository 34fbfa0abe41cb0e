package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/internal/app/repository"
	"github.com/beforepeak/beforepeak-backend/pkg/logger"
)

var (
	ErrBookingNotFound           = errors.New("booking not found")
	ErrTimeWindowNotFound        = errors.New("time window not found")
	ErrTimeWindowPast            = errors.New("time window has already started")
	ErrPartySizeTooLarge         = errors.New("party size exceeds restaurant limit")
	ErrInvalidBookingState       = errors.New("operation not allowed in current booking state")
	ErrCancellationWindowExpired = errors.New("cancellation window has expired")
	ErrReviewGateBlocked         = errors.New("overdue reviews must be submitted before booking")
	ErrNotRestaurantOwner        = errors.New("user does not own this restaurant")
)

type BookingService interface {
	CreateBooking(input CreateBookingInput) (*model.Booking, error)
	GetBookingByID(userID, bookingID uint) (*model.Booking, error)
	GetUserBookings(userID uint, status string) ([]model.Booking, error)
	GetRestaurantBookings(ownerID, restaurantID uint, from, to time.Time) ([]model.Booking, error)
	ConfirmPayment(bookingID uint, provider, intentID string) (*model.Booking, error)
	CancelBooking(userID, bookingID uint) (*model.Booking, error)
	ModifyBooking(input ModifyBookingInput) (*model.Booking, error)
	CompleteBooking(bookingID uint) error
	MarkNoShow(ownerID, bookingID uint) error
}

type CreateBookingInput struct {
	UserID          uint
	TimeWindowID    uint
	PartySize       int
	SpecialRequests string
	IdempotencyKey  string
}

type ModifyBookingInput struct {
	UserID          uint
	BookingID       uint
	NewTimeWindowID uint // 0 keeps the current window
	NewPartySize    int  // 0 keeps the current size
	SpecialRequests *string
}

type bookingService struct {
	bookingRepo        repository.BookingRepository
	timeWindowRepo     repository.TimeWindowRepository
	restaurantRepo     repository.RestaurantRepository
	userRepo           repository.UserRepository
	reviewRepo         repository.ReviewRepository
	notificationSvc    NotificationService
	reviewGate         ReviewGate
	db                 *gorm.DB
	cancellationWindow time.Duration
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	timeWindowRepo repository.TimeWindowRepository,
	restaurantRepo repository.RestaurantRepository,
	userRepo repository.UserRepository,
	reviewRepo repository.ReviewRepository,
	notificationSvc NotificationService,
	reviewGate ReviewGate,
	db *gorm.DB,
	cancellationWindow time.Duration,
) BookingService {
	return &bookingService{
		bookingRepo:        bookingRepo,
		timeWindowRepo:     timeWindowRepo,
		restaurantRepo:     restaurantRepo,
		userRepo:           userRepo,
		reviewRepo:         reviewRepo,
		notificationSvc:    notificationSvc,
		reviewGate:         reviewGate,
		db:                 db,
		cancellationWindow: cancellationWindow,
	}
}

func (s *bookingService) CreateBooking(input CreateBookingInput) (*model.Booking, error) {
	logger.Info("Creating booking", map[string]interface{}{
		"user_id":        input.UserID,
		"time_window_id": input.TimeWindowID,
		"party_size":     input.PartySize,
	})

	// A retried create with the same key returns the original booking
	// instead of reserving seats twice.
	if input.IdempotencyKey != "" {
		existing, err := s.bookingRepo.FindByIdempotencyKey(input.UserID, input.IdempotencyKey)
		if err == nil {
			logger.Info("Returning existing booking for idempotency key", map[string]interface{}{
				"user_id":    input.UserID,
				"booking_id": existing.ID,
			})
			return existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if s.reviewGate != nil {
		blocked, err := s.reviewGate.HasOverdueReviews(input.UserID)
		if err != nil {
			return nil, err
		}
		if blocked {
			logger.Warn("Booking blocked by overdue reviews", map[string]interface{}{
				"user_id": input.UserID,
			})
			return nil, ErrReviewGateBlocked
		}
	}

	fee, err := BookingFee(input.PartySize)
	if err != nil {
		return nil, err
	}

	// The column is unique, so a client that sends no key still gets one.
	if input.IdempotencyKey == "" {
		input.IdempotencyKey = uuid.NewString()
	}

	window, err := s.timeWindowRepo.FindByID(input.TimeWindowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeWindowNotFound
		}
		return nil, err
	}

	if !window.StartsAt().After(time.Now()) {
		return nil, ErrTimeWindowPast
	}

	if window.Restaurant.MaxPartySize > 0 && input.PartySize > window.Restaurant.MaxPartySize {
		return nil, ErrPartySizeTooLarge
	}

	booking := &model.Booking{
		UserID:          input.UserID,
		RestaurantID:    window.RestaurantID,
		TimeWindowID:    window.ID,
		PartySize:       input.PartySize,
		BookingFee:      fee,
		Status:          model.BookingStatusPending,
		SpecialRequests: input.SpecialRequests,
		IdempotencyKey:  input.IdempotencyKey,
		PaymentStatus:   model.PaymentStatusPending,
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during booking creation, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": input.UserID,
			})
		}
	}()

	if err := s.timeWindowRepo.Reserve(tx, window.ID, input.PartySize); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Create(booking).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create booking", err, map[string]interface{}{
			"user_id":        input.UserID,
			"time_window_id": window.ID,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	logger.Info("Booking created", map[string]interface{}{
		"booking_id":  booking.ID,
		"user_id":     input.UserID,
		"booking_fee": fee,
	})
	return s.bookingRepo.FindByID(booking.ID)
}

func (s *bookingService) GetBookingByID(userID, bookingID uint) (*model.Booking, error) {
	booking, err := s.bookingRepo.FindByID(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if userID != 0 && booking.UserID != userID {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func (s *bookingService) GetUserBookings(userID uint, status string) ([]model.Booking, error) {
	return s.bookingRepo.FindByUserID(userID, status)
}

func (s *bookingService) GetRestaurantBookings(ownerID, restaurantID uint, from, to time.Time) ([]model.Booking, error) {
	restaurant, err := s.restaurantRepo.FindByID(restaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	if restaurant.OwnerID == nil || *restaurant.OwnerID != ownerID {
		return nil, ErrNotRestaurantOwner
	}
	return s.bookingRepo.FindByRestaurantID(restaurantID, from, to)
}

// ConfirmPayment moves a pending booking to confirmed after the fee has
// been paid, and bumps the user's lifetime counters.
func (s *bookingService) ConfirmPayment(bookingID uint, provider, intentID string) (*model.Booking, error) {
	booking, err := s.bookingRepo.FindByID(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.Status != model.BookingStatusPending {
		logger.Warn("Payment confirmation for non-pending booking", map[string]interface{}{
			"booking_id": bookingID,
			"status":     booking.Status,
		})
		return nil, ErrInvalidBookingState
	}

	now := time.Now()

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// The status predicate makes the transition race-safe: a concurrent
	// confirm or cancel that got there first leaves zero rows to update.
	res := tx.Model(&model.Booking{}).
		Where("id = ? AND status = ?", bookingID, model.BookingStatusPending).
		Updates(map[string]interface{}{
			"status":              model.BookingStatusConfirmed,
			"payment_status":      model.PaymentStatusCompleted,
			"payment_provider":    provider,
			"payment_intent_id":   intentID,
			"payment_approved_at": now,
		})
	if res.Error != nil {
		tx.Rollback()
		logger.Error("Failed to confirm booking payment", res.Error, map[string]interface{}{
			"booking_id": bookingID,
		})
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		logger.Warn("Payment confirmation lost the race for the booking", map[string]interface{}{
			"booking_id": bookingID,
		})
		return nil, ErrInvalidBookingState
	}

	if err := s.userRepo.IncrementBookingStats(tx, booking.UserID, booking.BookingFee); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	logger.Info("Booking confirmed", map[string]interface{}{
		"booking_id": bookingID,
		"user_id":    booking.UserID,
		"provider":   provider,
	})

	if s.notificationSvc != nil {
		s.notificationSvc.NotifyBookingConfirmed(booking)
	}

	return s.bookingRepo.FindByID(bookingID)
}

// CancelBooking cancels a pending or confirmed booking. Confirmed bookings
// can only be cancelled while the slot start is further away than the
// cancellation window; a paid fee comes back as account credit, never cash.
func (s *bookingService) CancelBooking(userID, bookingID uint) (*model.Booking, error) {
	booking, err := s.GetBookingByID(userID, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != model.BookingStatusPending && booking.Status != model.BookingStatusConfirmed {
		return nil, ErrInvalidBookingState
	}

	if time.Until(booking.TimeWindow.StartsAt()) < s.cancellationWindow {
		logger.Warn("Cancellation rejected inside the cancellation window", map[string]interface{}{
			"booking_id":   bookingID,
			"window_start": booking.TimeWindow.StartsAt(),
		})
		return nil, ErrCancellationWindowExpired
	}

	refund := booking.Status == model.BookingStatusConfirmed &&
		booking.PaymentStatus == model.PaymentStatusCompleted

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := s.timeWindowRepo.Release(tx, booking.TimeWindowID, booking.PartySize); err != nil {
		tx.Rollback()
		return nil, err
	}

	updates := map[string]interface{}{
		"status": model.BookingStatusCancelled,
	}
	if refund {
		updates["payment_status"] = model.PaymentStatusRefunded
	}
	// Pin the status the decision was made on. A concurrent cancel or
	// confirmation that committed first leaves zero rows, and the rollback
	// takes the seat release and the credit with it.
	res := tx.Model(&model.Booking{}).
		Where("id = ? AND status = ?", bookingID, booking.Status).
		Updates(updates)
	if res.Error != nil {
		tx.Rollback()
		logger.Error("Failed to cancel booking", res.Error, map[string]interface{}{
			"booking_id": bookingID,
		})
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		logger.Warn("Cancellation lost the race for the booking", map[string]interface{}{
			"booking_id": bookingID,
		})
		return nil, ErrInvalidBookingState
	}

	if refund {
		credit := &model.AccountCredit{
			UserID:    booking.UserID,
			BookingID: &booking.ID,
			Amount:    booking.BookingFee,
			Reason:    "cancellation_refund",
		}
		if err := s.userRepo.AddCredit(tx, credit); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	logger.Info("Booking cancelled", map[string]interface{}{
		"booking_id": bookingID,
		"user_id":    booking.UserID,
		"refunded":   refund,
	})

	if s.notificationSvc != nil {
		s.notificationSvc.NotifyBookingCancelled(booking, refund)
	}

	return s.bookingRepo.FindByID(bookingID)
}

// ModifyBooking changes the party size and/or time window of a confirmed
// booking. Seats move all-or-nothing: if the new reservation does not fit,
// the old one stays untouched. The fee never changes after creation.
func (s *bookingService) ModifyBooking(input ModifyBookingInput) (*model.Booking, error) {
	booking, err := s.GetBookingByID(input.UserID, input.BookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != model.BookingStatusConfirmed {
		return nil, ErrInvalidBookingState
	}

	newWindowID := booking.TimeWindowID
	if input.NewTimeWindowID != 0 {
		newWindowID = input.NewTimeWindowID
	}
	newPartySize := booking.PartySize
	if input.NewPartySize != 0 {
		if input.NewPartySize < 1 {
			return nil, ErrInvalidPartySize
		}
		newPartySize = input.NewPartySize
	}

	window, err := s.timeWindowRepo.FindByID(newWindowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeWindowNotFound
		}
		return nil, err
	}

	if window.RestaurantID != booking.RestaurantID {
		return nil, ErrTimeWindowNotFound
	}

	if !window.StartsAt().After(time.Now()) {
		return nil, ErrTimeWindowPast
	}

	if window.Restaurant.MaxPartySize > 0 && newPartySize > window.Restaurant.MaxPartySize {
		return nil, ErrPartySizeTooLarge
	}

	logger.Info("Modifying booking", map[string]interface{}{
		"booking_id":     input.BookingID,
		"new_window_id":  newWindowID,
		"new_party_size": newPartySize,
	})

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Release first so shrinking or moving within the same window frees
	// the old seats before the new reserve is checked. Both run inside one
	// transaction, so a failed reserve rolls the release back too.
	if err := s.timeWindowRepo.Release(tx, booking.TimeWindowID, booking.PartySize); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := s.timeWindowRepo.Reserve(tx, newWindowID, newPartySize); err != nil {
		tx.Rollback()
		return nil, err
	}

	updates := map[string]interface{}{
		"time_window_id": newWindowID,
		"party_size":     newPartySize,
	}
	if input.SpecialRequests != nil {
		updates["special_requests"] = *input.SpecialRequests
	}
	res := tx.Model(&model.Booking{}).
		Where("id = ? AND status = ?", input.BookingID, model.BookingStatusConfirmed).
		Updates(updates)
	if res.Error != nil {
		tx.Rollback()
		logger.Error("Failed to modify booking", res.Error, map[string]interface{}{
			"booking_id": input.BookingID,
		})
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrInvalidBookingState
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	logger.Info("Booking modified", map[string]interface{}{
		"booking_id": input.BookingID,
	})
	return s.bookingRepo.FindByID(input.BookingID)
}

// CompleteBooking moves a confirmed booking to completed and enqueues the
// mandatory review for the user.
func (s *bookingService) CompleteBooking(bookingID uint) error {
	booking, err := s.bookingRepo.FindByID(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		return err
	}

	if booking.Status != model.BookingStatusConfirmed {
		return ErrInvalidBookingState
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	res := tx.Model(&model.Booking{}).
		Where("id = ? AND status = ?", bookingID, model.BookingStatusConfirmed).
		Update("status", model.BookingStatusCompleted)
	if res.Error != nil {
		tx.Rollback()
		logger.Error("Failed to complete booking", res.Error, map[string]interface{}{
			"booking_id": bookingID,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		// A concurrent cancel got there first; no review to enqueue.
		tx.Rollback()
		return ErrInvalidBookingState
	}

	pending := &model.PendingReview{
		BookingID:      booking.ID,
		RestaurantID:   booking.RestaurantID,
		RestaurantName: booking.Restaurant.Name,
		BookingDate:    booking.TimeWindow.Date,
		UserID:         booking.UserID,
	}
	if err := tx.Create(pending).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to enqueue pending review", err, map[string]interface{}{
			"booking_id": bookingID,
		})
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	if s.reviewGate != nil {
		s.reviewGate.InvalidateGate(booking.UserID)
	}

	logger.Info("Booking completed", map[string]interface{}{
		"booking_id": bookingID,
		"user_id":    booking.UserID,
	})

	if s.notificationSvc != nil {
		s.notificationSvc.NotifyReviewRequested(booking)
	}
	return nil
}

// MarkNoShow records that the party never arrived. Restricted to the
// restaurant owner (or admin via ownerID 0); the fee is forfeited.
func (s *bookingService) MarkNoShow(ownerID, bookingID uint) error {
	booking, err := s.bookingRepo.FindByID(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		return err
	}

	if ownerID != 0 {
		restaurant, err := s.restaurantRepo.FindByID(booking.RestaurantID)
		if err != nil {
			return err
		}
		if restaurant.OwnerID == nil || *restaurant.OwnerID != ownerID {
			return ErrNotRestaurantOwner
		}
	}

	if booking.Status != model.BookingStatusConfirmed {
		return ErrInvalidBookingState
	}

	res := s.db.Model(&model.Booking{}).
		Where("id = ? AND status = ?", bookingID, model.BookingStatusConfirmed).
		Update("status", model.BookingStatusNoShow)
	if res.Error != nil {
		logger.Error("Failed to mark booking as no-show", res.Error, map[string]interface{}{
			"booking_id": bookingID,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidBookingState
	}

	logger.Info("Booking marked as no-show", map[string]interface{}{
		"booking_id": bookingID,
	})
	return nil
}

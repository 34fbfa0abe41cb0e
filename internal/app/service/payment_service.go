package service

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/internal/app/repository"
	"github.com/beforepeak/beforepeak-backend/pkg/logger"
	"github.com/beforepeak/beforepeak-backend/pkg/payment/stripegw"
)

var (
	ErrPaymentNotRequired    = errors.New("booking does not require payment")
	ErrPaymentNotCompleted   = errors.New("payment has not completed")
	ErrPaymentAmountMismatch = errors.New("paid amount does not match booking fee")
)

const paymentProviderStripe = "stripe"

type PaymentService interface {
	CreatePaymentSheet(ctx context.Context, userID, bookingID uint) (*stripegw.SheetResponse, error)
	ConfirmPayment(ctx context.Context, userID, bookingID uint, intentID string) (*model.Booking, error)
}

type paymentService struct {
	bookingRepo repository.BookingRepository
	bookingSvc  BookingService
	stripe      *stripegw.Client
}

func NewPaymentService(
	bookingRepo repository.BookingRepository,
	bookingSvc BookingService,
	stripe *stripegw.Client,
) PaymentService {
	return &paymentService{
		bookingRepo: bookingRepo,
		bookingSvc:  bookingSvc,
		stripe:      stripe,
	}
}

// CreatePaymentSheet sets up the Stripe payment sheet for a pending
// booking's fee.
func (s *paymentService) CreatePaymentSheet(ctx context.Context, userID, bookingID uint) (*stripegw.SheetResponse, error) {
	booking, err := s.bookingSvc.GetBookingByID(userID, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != model.BookingStatusPending || booking.PaymentStatus == model.PaymentStatusCompleted {
		return nil, ErrPaymentNotRequired
	}

	// Stripe dedupes on this key, so a retried sheet request reuses the
	// same intent instead of charging twice.
	idempotencyKey := booking.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	sheet, err := s.stripe.CreatePaymentSheet(ctx, stripegw.SheetRequest{
		BookingID:      booking.ID,
		UserID:         booking.UserID,
		UserEmail:      booking.User.Email,
		AmountCents:    int64(math.Round(booking.BookingFee * 100)),
		IdempotencyKey: "pay-" + idempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	booking.PaymentProvider = paymentProviderStripe
	booking.PaymentIntentID = sheet.PaymentIntentID
	if err := s.bookingRepo.Update(booking); err != nil {
		return nil, err
	}

	return sheet, nil
}

// ConfirmPayment verifies the intent with Stripe before moving the booking
// to confirmed. The client's word is never trusted on payment state.
func (s *paymentService) ConfirmPayment(ctx context.Context, userID, bookingID uint, intentID string) (*model.Booking, error) {
	booking, err := s.bookingSvc.GetBookingByID(userID, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.PaymentIntentID != "" && booking.PaymentIntentID != intentID {
		logger.Warn("Payment confirmation with mismatched intent", map[string]interface{}{
			"booking_id": bookingID,
			"expected":   booking.PaymentIntentID,
			"got":        intentID,
		})
		return nil, ErrPaymentNotCompleted
	}

	status, err := s.stripe.GetIntentStatus(ctx, intentID)
	if err != nil {
		return nil, err
	}

	if !status.Succeeded {
		logger.Warn("Payment confirmation for unsettled intent", map[string]interface{}{
			"booking_id": bookingID,
			"intent_id":  intentID,
			"status":     status.Status,
		})
		return nil, ErrPaymentNotCompleted
	}

	expected := int64(math.Round(booking.BookingFee * 100))
	if status.AmountCents != expected {
		logger.Error("Paid amount does not match booking fee", ErrPaymentAmountMismatch, map[string]interface{}{
			"booking_id": bookingID,
			"expected":   expected,
			"paid":       status.AmountCents,
		})
		return nil, ErrPaymentAmountMismatch
	}

	return s.bookingSvc.ConfirmPayment(bookingID, paymentProviderStripe, intentID)
}

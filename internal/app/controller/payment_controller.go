package controller

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beforepeak/beforepeak-backend/internal/app/service"
	"github.com/beforepeak/beforepeak-backend/internal/errors"
	"github.com/beforepeak/beforepeak-backend/internal/middleware"
)

type PaymentController struct {
	paymentService service.PaymentService
}

func NewPaymentController(paymentService service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

// CreatePaymentSheet provisions the Stripe payment sheet for a booking fee
// POST /api/v1/bookings/:id/payment-sheet
func (ctrl *PaymentController) CreatePaymentSheet(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sheet, err := ctrl.paymentService.CreatePaymentSheet(c.Request.Context(), userID, bookingID)
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrBookingNotFound):
			errors.NotFound(c, errors.BookingNotFound, "Booking not found")
		case stderrors.Is(err, service.ErrPaymentNotRequired):
			errors.Conflict(c, errors.PaymentAlreadyProcessed, "This booking does not require payment")
		default:
			log.Error("Failed to create payment sheet", err, map[string]interface{}{
				"user_id":    userID,
				"booking_id": bookingID,
			})
			errors.RespondWithError(c, http.StatusBadGateway, errors.InternalExternalAPI, "Payment provider unavailable")
		}
		return
	}

	c.JSON(http.StatusOK, sheet)
}

// ConfirmPayment verifies the intent with Stripe and confirms the booking
// POST /api/v1/bookings/:id/confirm-payment
func (ctrl *PaymentController) ConfirmPayment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	booking, err := ctrl.paymentService.ConfirmPayment(c.Request.Context(), userID, bookingID, req.PaymentIntentID)
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrBookingNotFound):
			errors.NotFound(c, errors.BookingNotFound, "Booking not found")
		case stderrors.Is(err, service.ErrInvalidBookingState):
			errors.Conflict(c, errors.BookingInvalidState, "Booking is not awaiting payment")
		case stderrors.Is(err, service.ErrPaymentNotCompleted):
			errors.BadRequest(c, errors.PaymentFailed, "Payment has not completed")
		case stderrors.Is(err, service.ErrPaymentAmountMismatch):
			errors.Conflict(c, errors.PaymentFailed, "Paid amount does not match the booking fee")
		default:
			log.Error("Failed to confirm payment", err, map[string]interface{}{
				"user_id":    userID,
				"booking_id": bookingID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking": booking,
	})
}

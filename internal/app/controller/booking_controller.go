package controller

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beforepeak/beforepeak-backend/internal/app/repository"
	"github.com/beforepeak/beforepeak-backend/internal/app/service"
	"github.com/beforepeak/beforepeak-backend/internal/errors"
	"github.com/beforepeak/beforepeak-backend/internal/middleware"
)

type BookingController struct {
	bookingService service.BookingService
}

func NewBookingController(bookingService service.BookingService) *BookingController {
	return &BookingController{
		bookingService: bookingService,
	}
}

type CreateBookingRequest struct {
	TimeWindowID    uint   `json:"time_window_id" binding:"required"`
	PartySize       int    `json:"party_size" binding:"required,min=1"`
	SpecialRequests string `json:"special_requests"`
}

type ModifyBookingRequest struct {
	TimeWindowID    uint    `json:"time_window_id"`
	PartySize       int     `json:"party_size"`
	SpecialRequests *string `json:"special_requests"`
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		errors.RespondWithError(c, http.StatusBadRequest, errors.ValidationInvalidID, "Invalid ID")
		return 0, false
	}
	return uint(id), true
}

// CreateBooking creates a pending booking and reserves seats
// POST /api/v1/bookings
func (ctrl *BookingController) CreateBooking(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid create booking request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	booking, err := ctrl.bookingService.CreateBooking(service.CreateBookingInput{
		UserID:          userID,
		TimeWindowID:    req.TimeWindowID,
		PartySize:       req.PartySize,
		SpecialRequests: req.SpecialRequests,
		IdempotencyKey:  c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		ctrl.respondBookingError(c, err, userID)
		return
	}

	log.Info("Booking created", map[string]interface{}{
		"user_id":    userID,
		"booking_id": booking.ID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"booking": booking,
	})
}

// GetBookings returns the authenticated user's bookings
// GET /api/v1/bookings
func (ctrl *BookingController) GetBookings(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	bookings, err := ctrl.bookingService.GetUserBookings(userID, c.Query("status"))
	if err != nil {
		errors.InternalError(c, "Failed to fetch bookings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// GetBookingByID returns one booking owned by the user
// GET /api/v1/bookings/:id
func (ctrl *BookingController) GetBookingByID(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := ctrl.bookingService.GetBookingByID(userID, id)
	if err != nil {
		ctrl.respondBookingError(c, err, userID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking": booking,
	})
}

// CancelBooking cancels a booking within the cancellation window
// POST /api/v1/bookings/:id/cancel
func (ctrl *BookingController) CancelBooking(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := ctrl.bookingService.CancelBooking(userID, id)
	if err != nil {
		ctrl.respondBookingError(c, err, userID)
		return
	}

	log.Info("Booking cancelled", map[string]interface{}{
		"user_id":    userID,
		"booking_id": id,
	})
	c.JSON(http.StatusOK, gin.H{
		"booking": booking,
	})
}

// ModifyBooking changes party size and/or time window of a confirmed booking
// PATCH /api/v1/bookings/:id
func (ctrl *BookingController) ModifyBooking(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ModifyBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	booking, err := ctrl.bookingService.ModifyBooking(service.ModifyBookingInput{
		UserID:          userID,
		BookingID:       id,
		NewTimeWindowID: req.TimeWindowID,
		NewPartySize:    req.PartySize,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		ctrl.respondBookingError(c, err, userID)
		return
	}

	log.Info("Booking modified", map[string]interface{}{
		"user_id":    userID,
		"booking_id": id,
	})
	c.JSON(http.StatusOK, gin.H{
		"booking": booking,
	})
}

// CompleteBooking marks a confirmed booking completed (owner/admin)
// POST /api/v1/bookings/:id/complete
func (ctrl *BookingController) CompleteBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.bookingService.CompleteBooking(id); err != nil {
		ctrl.respondBookingError(c, err, 0)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Booking completed",
	})
}

// MarkNoShow records that the party did not arrive (owner/admin)
// POST /api/v1/bookings/:id/no-show
func (ctrl *BookingController) MarkNoShow(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	role, _ := middleware.GetUserRole(c)
	ownerID := userID
	if role == "admin" {
		ownerID = 0
	}

	if err := ctrl.bookingService.MarkNoShow(ownerID, id); err != nil {
		ctrl.respondBookingError(c, err, userID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Booking marked as no-show",
	})
}

// GetRestaurantBookings lists a restaurant's bookings for its owner
// GET /api/v1/owner/restaurants/:id/bookings
func (ctrl *BookingController) GetRestaurantBookings(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	bookings, err := ctrl.bookingService.GetRestaurantBookings(userID, restaurantID, from, to)
	if err != nil {
		ctrl.respondBookingError(c, err, userID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// parseDateRange reads from/to query params, defaulting to the next 30 days.
func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	from := now.AddDate(0, 0, -1)
	to := now.AddDate(0, 0, 30)

	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			errors.RespondWithError(c, http.StatusBadRequest, errors.ValidationInvalidRange, "Invalid from date")
			return from, to, false
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			errors.RespondWithError(c, http.StatusBadRequest, errors.ValidationInvalidRange, "Invalid to date")
			return from, to, false
		}
		to = parsed
	}
	return from, to, true
}

func (ctrl *BookingController) respondBookingError(c *gin.Context, err error, userID uint) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case stderrors.Is(err, service.ErrBookingNotFound):
		errors.RespondWithError(c, http.StatusNotFound, errors.BookingNotFound, "Booking not found")
	case stderrors.Is(err, service.ErrTimeWindowNotFound):
		errors.RespondWithError(c, http.StatusNotFound, errors.ResourceNotFound, "Time window not found")
	case stderrors.Is(err, service.ErrRestaurantNotFound):
		errors.RespondWithError(c, http.StatusNotFound, errors.RestaurantNotFound, "Restaurant not found")
	case stderrors.Is(err, repository.ErrCapacityExceeded):
		errors.RespondWithError(c, http.StatusConflict, errors.BookingCapacityExceeded, "Not enough seats left in this time window")
	case stderrors.Is(err, repository.ErrTimeWindowInactive):
		errors.RespondWithError(c, http.StatusConflict, errors.BookingSlotInactive, "This time window is no longer bookable")
	case stderrors.Is(err, service.ErrTimeWindowPast):
		errors.RespondWithError(c, http.StatusConflict, errors.BookingSlotInactive, "This time window has already started")
	case stderrors.Is(err, service.ErrInvalidPartySize), stderrors.Is(err, service.ErrPartySizeTooLarge):
		errors.RespondWithError(c, http.StatusBadRequest, errors.BookingInvalidPartySize, "Invalid party size")
	case stderrors.Is(err, service.ErrInvalidBookingState):
		errors.RespondWithError(c, http.StatusConflict, errors.BookingInvalidState, "Operation not allowed in current booking state")
	case stderrors.Is(err, service.ErrCancellationWindowExpired):
		errors.RespondWithError(c, http.StatusConflict, errors.BookingCancelWindowOver, "Bookings can no longer be cancelled this close to the reservation")
	case stderrors.Is(err, service.ErrReviewGateBlocked):
		errors.RespondWithError(c, http.StatusConflict, errors.ReviewRequired, "Please submit your outstanding reviews before booking")
	case stderrors.Is(err, service.ErrNotRestaurantOwner):
		errors.RespondWithError(c, http.StatusForbidden, errors.AuthzNotOwner, "")
	default:
		log.Error("Booking operation failed", err, map[string]interface{}{
			"user_id": userID,
		})
		errors.InternalError(c, "")
	}
}

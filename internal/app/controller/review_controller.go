package controller

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/beforepeak/beforepeak-backend/internal/app/service"
	"github.com/beforepeak/beforepeak-backend/internal/errors"
	"github.com/beforepeak/beforepeak-backend/internal/middleware"
)

type ReviewController struct {
	reviewService service.ReviewService
}

func NewReviewController(reviewService service.ReviewService) *ReviewController {
	return &ReviewController{
		reviewService: reviewService,
	}
}

type SubmitReviewRequest struct {
	BookingID      uint     `json:"booking_id" binding:"required"`
	OverallRating  int      `json:"overall_rating" binding:"required,min=1,max=5"`
	FoodRating     int      `json:"food_rating" binding:"omitempty,min=1,max=5"`
	ServiceRating  int      `json:"service_rating" binding:"omitempty,min=1,max=5"`
	AmbianceRating int      `json:"ambiance_rating" binding:"omitempty,min=1,max=5"`
	ValueRating    int      `json:"value_rating" binding:"omitempty,min=1,max=5"`
	Comment        string   `json:"comment"`
	PrivateNotes   string   `json:"private_notes"`
	WouldRecommend *bool    `json:"would_recommend" binding:"required"`
	Photos         []string `json:"photos"`
}

// SubmitReview writes the review for a completed booking
// POST /api/v1/reviews
func (ctrl *ReviewController) SubmitReview(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	result, err := ctrl.reviewService.SubmitReview(service.SubmitReviewInput{
		UserID:         userID,
		BookingID:      req.BookingID,
		OverallRating:  req.OverallRating,
		FoodRating:     req.FoodRating,
		ServiceRating:  req.ServiceRating,
		AmbianceRating: req.AmbianceRating,
		ValueRating:    req.ValueRating,
		Comment:        req.Comment,
		PrivateNotes:   req.PrivateNotes,
		WouldRecommend: *req.WouldRecommend,
		Photos:         req.Photos,
	})
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrBookingNotFound):
			errors.NotFound(c, errors.BookingNotFound, "Booking not found")
		case stderrors.Is(err, service.ErrReviewNotAllowed):
			errors.Conflict(c, errors.ReviewBookingNotEnded, "Only completed bookings can be reviewed")
		case stderrors.Is(err, service.ErrReviewExists):
			errors.Conflict(c, errors.ReviewAlreadyExists, "A review for this booking already exists")
		case stderrors.Is(err, service.ErrInvalidRating):
			errors.BadRequest(c, errors.ReviewInvalidRating, "Ratings must be between 1 and 5")
		default:
			log.Error("Failed to submit review", err, map[string]interface{}{
				"user_id":    userID,
				"booking_id": req.BookingID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	// A low rating triggers a private follow-up; the app shows a softer
	// acknowledgement in that case.
	message := "Thanks for your review!"
	if result.FlaggedForFollowup {
		message = "Thank you for your feedback. Our team will follow up with the restaurant."
	}
	c.JSON(http.StatusCreated, gin.H{
		"review":  result.Review,
		"message": message,
	})
}

// GetRestaurantReviews lists a restaurant's reviews
// GET /api/v1/restaurants/:id/reviews
func (ctrl *ReviewController) GetRestaurantReviews(c *gin.Context) {
	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	limit := 20
	offset := 0
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		limit = n
	}
	if n, err := strconv.Atoi(c.Query("offset")); err == nil && n > 0 {
		offset = n
	}

	reviews, err := ctrl.reviewService.GetRestaurantReviews(restaurantID, limit, offset)
	if err != nil {
		if stderrors.Is(err, service.ErrRestaurantNotFound) {
			errors.NotFound(c, errors.RestaurantNotFound, "Restaurant not found")
			return
		}
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// GetMyReviews lists the authenticated user's reviews
// GET /api/v1/reviews/mine
func (ctrl *ReviewController) GetMyReviews(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	reviews, err := ctrl.reviewService.GetUserReviews(userID)
	if err != nil {
		errors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// GetPendingReviews returns the user's outstanding review queue plus the
// navigation-block flag the app shell polls
// GET /api/v1/reviews/pending
func (ctrl *ReviewController) GetPendingReviews(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	pending, err := ctrl.reviewService.GetPendingReviews(userID)
	if err != nil {
		errors.InternalError(c, "")
		return
	}

	blocked, err := ctrl.reviewService.HasOverdueReviews(userID)
	if err != nil {
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pending_reviews": pending,
		"count":           len(pending),
		"should_block":    blocked,
	})
}

// GetReviewGate tells the client whether navigation should be blocked until
// overdue reviews are submitted; polled on app foreground
// GET /api/v1/reviews/gate
func (ctrl *ReviewController) GetReviewGate(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	blocked, err := ctrl.reviewService.HasOverdueReviews(userID)
	if err != nil {
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"should_block": blocked,
	})
}

// GetNextPendingReview returns the oldest outstanding review, if any
// GET /api/v1/reviews/pending/next
func (ctrl *ReviewController) GetNextPendingReview(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	pending, err := ctrl.reviewService.NextPendingReview(userID)
	if err != nil {
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pending_review": pending,
	})
}

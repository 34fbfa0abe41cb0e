package router

import (
	"github.com/gin-gonic/gin"

	"github.com/beforepeak/beforepeak-backend/config"
	"github.com/beforepeak/beforepeak-backend/internal/app/controller"
	"github.com/beforepeak/beforepeak-backend/internal/middleware"
	"github.com/beforepeak/beforepeak-backend/internal/websocket"
)

type Router struct {
	authController         *controller.AuthController
	restaurantController   *controller.RestaurantController
	bookingController      *controller.BookingController
	reviewController       *controller.ReviewController
	paymentController      *controller.PaymentController
	notificationController *controller.NotificationController
	uploadController       *controller.UploadController
	reportController       *controller.ReportController
	authMiddleware         *middleware.AuthMiddleware
	hub                    *websocket.Hub
	config                 *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	restaurantController *controller.RestaurantController,
	bookingController *controller.BookingController,
	reviewController *controller.ReviewController,
	paymentController *controller.PaymentController,
	notificationController *controller.NotificationController,
	uploadController *controller.UploadController,
	reportController *controller.ReportController,
	authMiddleware *middleware.AuthMiddleware,
	hub *websocket.Hub,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:         authController,
		restaurantController:   restaurantController,
		bookingController:      bookingController,
		reviewController:       reviewController,
		paymentController:      paymentController,
		notificationController: notificationController,
		uploadController:       uploadController,
		reportController:       reportController,
		authMiddleware:         authMiddleware,
		hub:                    hub,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "BeforePeak API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.Refresh)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetProfile)
			auth.PATCH("/me", r.authMiddleware.Authenticate(), r.authController.UpdateProfile)
			auth.GET("/me/credits", r.authMiddleware.Authenticate(), r.authController.GetCredits)
		}

		restaurants := v1.Group("/restaurants")
		{
			restaurants.GET("", r.restaurantController.GetRestaurants)
			restaurants.GET("/territories", r.restaurantController.GetTerritories)
			restaurants.GET("/cuisines", r.restaurantController.GetCuisines)
			restaurants.GET("/:id", r.restaurantController.GetRestaurantByID)
			restaurants.GET("/:id/availability", r.restaurantController.GetAvailability)
			restaurants.GET("/:id/reviews", r.reviewController.GetRestaurantReviews)
		}

		bookings := v1.Group("/bookings", r.authMiddleware.Authenticate())
		{
			bookings.POST("", r.bookingController.CreateBooking)
			bookings.GET("", r.bookingController.GetBookings)
			bookings.GET("/:id", r.bookingController.GetBookingByID)
			bookings.PATCH("/:id", r.bookingController.ModifyBooking)
			bookings.POST("/:id/cancel", r.bookingController.CancelBooking)
			bookings.POST("/:id/payment-sheet", r.paymentController.CreatePaymentSheet)
			bookings.POST("/:id/confirm-payment", r.paymentController.ConfirmPayment)
			bookings.POST("/:id/complete",
				r.authMiddleware.RequireRole("owner", "admin"),
				r.bookingController.CompleteBooking,
			)
			bookings.POST("/:id/no-show",
				r.authMiddleware.RequireRole("owner", "admin"),
				r.bookingController.MarkNoShow,
			)
		}

		reviews := v1.Group("/reviews", r.authMiddleware.Authenticate())
		{
			reviews.POST("", r.reviewController.SubmitReview)
			reviews.GET("/mine", r.reviewController.GetMyReviews)
			reviews.GET("/pending", r.reviewController.GetPendingReviews)
			reviews.GET("/pending/next", r.reviewController.GetNextPendingReview)
			reviews.GET("/gate", r.reviewController.GetReviewGate)
		}

		notifications := v1.Group("/notifications", r.authMiddleware.Authenticate())
		{
			notifications.GET("", r.notificationController.GetNotifications)
			notifications.GET("/unread-count", r.notificationController.GetUnreadCount)
			notifications.POST("/:id/read", r.notificationController.MarkAsRead)
			notifications.POST("/read-all", r.notificationController.MarkAllAsRead)
		}

		owner := v1.Group("/owner",
			r.authMiddleware.Authenticate(),
			r.authMiddleware.RequireRole("owner", "admin"),
		)
		{
			owner.GET("/restaurants", r.restaurantController.GetOwnerRestaurants)
			owner.POST("/restaurants", r.restaurantController.CreateRestaurant)
			owner.PATCH("/restaurants/:id", r.restaurantController.UpdateRestaurant)
			owner.POST("/restaurants/:id/time-windows", r.restaurantController.CreateTimeWindow)
			owner.POST("/restaurants/:id/photos", r.restaurantController.AddPhoto)
			owner.DELETE("/restaurants/:id/photos/:photo_id", r.restaurantController.RemovePhoto)
			owner.PATCH("/time-windows/:id", r.restaurantController.UpdateTimeWindow)
			owner.GET("/restaurants/:id/bookings", r.bookingController.GetRestaurantBookings)
			owner.GET("/restaurants/:id/bookings/export", r.reportController.ExportBookings)
		}

		uploads := v1.Group("/uploads", r.authMiddleware.Authenticate())
		{
			uploads.POST("/presign", r.uploadController.Presign)
		}

		v1.GET("/ws", r.authMiddleware.Authenticate(), websocket.ServeWS(r.hub))
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Idempotency-Key, X-Request-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

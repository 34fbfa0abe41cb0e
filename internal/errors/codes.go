package errors

// Error code constants.
// Format: CATEGORY_SPECIFIC_DETAIL
// The mobile client maps these codes to localized (en / zh-HK) messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthAccountDeactivated = "AUTH_ACCOUNT_DEACTIVATED"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzNotOwner  = "AUTHZ_NOT_OWNER"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resource (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Restaurant (RESTAURANT_) ====================
	RestaurantNotFound = "RESTAURANT_NOT_FOUND"
	RestaurantInactive = "RESTAURANT_INACTIVE"

	// ==================== Booking (BOOKING_) ====================
	BookingNotFound          = "BOOKING_NOT_FOUND"
	BookingCapacityExceeded  = "BOOKING_CAPACITY_EXCEEDED"
	BookingSlotInactive      = "BOOKING_SLOT_INACTIVE"
	BookingInvalidState      = "BOOKING_INVALID_STATE"
	BookingInvalidPartySize  = "BOOKING_INVALID_PARTY_SIZE"
	BookingCancelWindowOver  = "BOOKING_CANCELLATION_WINDOW_EXPIRED"

	// ==================== Payment (PAYMENT_) ====================
	PaymentFailed           = "PAYMENT_FAILED"
	PaymentAlreadyProcessed = "PAYMENT_ALREADY_PROCESSED"
	PaymentNotFound         = "PAYMENT_NOT_FOUND"

	// ==================== Review (REVIEW_) ====================
	ReviewNotFound         = "REVIEW_NOT_FOUND"
	ReviewInvalidRating    = "REVIEW_INVALID_RATING"
	ReviewAlreadyExists    = "REVIEW_ALREADY_EXISTS"
	ReviewBookingNotEnded  = "REVIEW_BOOKING_NOT_COMPLETED"
	ReviewRequired         = "REVIEW_REQUIRED" // overdue reviews block new bookings

	// ==================== Notification (NOTIFICATION_) ====================
	NotificationNotFound = "NOTIFICATION_NOT_FOUND"

	// ==================== Upload (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)

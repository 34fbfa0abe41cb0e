package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo pairs an error code with a user-presentable message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts a low-level error into an ErrorInfo. Sensitive detail
// stays out of the message; the code is what clients branch on.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	// GORM base errors
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// Postgres constraint violations

	// unique_violation (23505)
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStrLower)
	}

	// foreign_key_violation (23503)
	if strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyError(errStrLower)
	}

	// not_null_violation (23502)
	if strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "violates not-null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}

	// check_violation (23514)
	if strings.Contains(errStrLower, "check constraint") {
		if strings.Contains(errStrLower, "rating") {
			return ErrorInfo{Code: ReviewInvalidRating, Message: "Ratings must be between 1 and 5"}
		}
		return ErrorInfo{Code: ValidationInvalidInput, Message: "Some fields are invalid"}
	}

	// network / connectivity
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "An external service is unavailable, please try again later",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: "Something went wrong, please try again later"}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "email") {
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "This email is already registered"}
	}
	if strings.Contains(errLower, "referral_code") {
		return ErrorInfo{Code: ResourceConflict, Message: "Referral code collision, please retry"}
	}
	if strings.Contains(errLower, "idempotency_key") {
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "This booking request was already processed"}
	}
	if strings.Contains(errLower, "reviews") && strings.Contains(errLower, "booking_id") {
		return ErrorInfo{Code: ReviewAlreadyExists, Message: "This booking has already been reviewed"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
}

func parseForeignKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "user_id") {
		return ErrorInfo{Code: ResourceNotFound, Message: "User does not exist"}
	}
	if strings.Contains(errLower, "restaurant_id") {
		return ErrorInfo{Code: RestaurantNotFound, Message: "Restaurant does not exist"}
	}
	if strings.Contains(errLower, "time_window_id") {
		return ErrorInfo{Code: ResourceNotFound, Message: "Time slot does not exist"}
	}
	if strings.Contains(errLower, "booking_id") {
		return ErrorInfo{Code: BookingNotFound, Message: "Booking does not exist"}
	}
	return ErrorInfo{Code: ResourceNotFound, Message: "Referenced record not found"}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "restaurant"):
		return "Restaurant not found"
	case strings.Contains(contextLower, "booking"):
		return "Booking not found"
	case strings.Contains(contextLower, "review"):
		return "Review not found"
	case strings.Contains(contextLower, "user"):
		return "User not found"
	case strings.Contains(contextLower, "notification"):
		return "Notification not found"
	}
	return "Requested record not found"
}

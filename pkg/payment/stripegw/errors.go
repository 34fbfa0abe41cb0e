package stripegw

import "errors"

var (
	// ErrMissingSecretKey is returned when the secret key is not configured.
	ErrMissingSecretKey = errors.New("stripe secret key is not configured")

	// ErrMissingCurrency is returned when no settlement currency is configured.
	ErrMissingCurrency = errors.New("stripe currency is not configured")

	// ErrCustomerFailed is returned when the Stripe customer could not be created.
	ErrCustomerFailed = errors.New("failed to create stripe customer")

	// ErrEphemeralKeyFailed is returned when the ephemeral key could not be issued.
	ErrEphemeralKeyFailed = errors.New("failed to issue stripe ephemeral key")

	// ErrIntentFailed is returned when the payment intent could not be created.
	ErrIntentFailed = errors.New("failed to create stripe payment intent")

	// ErrIntentNotFound is returned when a payment intent lookup fails.
	ErrIntentNotFound = errors.New("stripe payment intent not found")

	// ErrIntentNotSucceeded is returned when an intent has not completed payment.
	ErrIntentNotSucceeded = errors.New("stripe payment intent has not succeeded")
)

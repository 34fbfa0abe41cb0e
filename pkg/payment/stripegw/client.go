package stripegw

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/beforepeak/beforepeak-backend/pkg/logger"
)

// stripeAPIVersion is pinned so ephemeral keys stay compatible with the
// mobile SDK version shipped in the app.
const stripeAPIVersion = "2023-10-16"

// Client wraps the Stripe API for booking-fee payment sheets.
type Client struct {
	config Config
	api    *client.API
}

// NewClient creates a Stripe client from config.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	api := &client.API{}
	api.Init(config.SecretKey, nil)

	return &Client{config: config, api: api}, nil
}

// CreatePaymentSheet provisions everything the mobile payment sheet needs:
// a customer, an ephemeral key scoped to that customer, and a payment
// intent for the booking fee. The idempotency key makes retries safe.
func (c *Client) CreatePaymentSheet(ctx context.Context, req SheetRequest) (*SheetResponse, error) {
	customerParams := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(req.UserEmail),
	}
	customerParams.AddMetadata("user_id", fmt.Sprintf("%d", req.UserID))

	customer, err := c.api.Customers.New(customerParams)
	if err != nil {
		logger.Error("Failed to create stripe customer", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, fmt.Errorf("%w: %v", ErrCustomerFailed, err)
	}

	keyParams := &stripe.EphemeralKeyParams{
		Params:        stripe.Params{Context: ctx},
		Customer:      stripe.String(customer.ID),
		StripeVersion: stripe.String(stripeAPIVersion),
	}

	ephemeralKey, err := c.api.EphemeralKeys.New(keyParams)
	if err != nil {
		logger.Error("Failed to issue stripe ephemeral key", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, fmt.Errorf("%w: %v", ErrEphemeralKeyFailed, err)
	}

	intentParams := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context:        ctx,
			IdempotencyKey: stripe.String(req.IdempotencyKey),
		},
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(c.config.Currency),
		Customer: stripe.String(customer.ID),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	intentParams.AddMetadata("booking_id", fmt.Sprintf("%d", req.BookingID))
	intentParams.AddMetadata("user_id", fmt.Sprintf("%d", req.UserID))

	intent, err := c.api.PaymentIntents.New(intentParams)
	if err != nil {
		logger.Error("Failed to create stripe payment intent", err, map[string]interface{}{
			"booking_id": req.BookingID,
			"amount":     req.AmountCents,
		})
		return nil, fmt.Errorf("%w: %v", ErrIntentFailed, err)
	}

	logger.Info("Stripe payment sheet created", map[string]interface{}{
		"booking_id":        req.BookingID,
		"payment_intent_id": intent.ID,
		"amount":            req.AmountCents,
	})

	return &SheetResponse{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		CustomerID:      customer.ID,
		EphemeralKey:    ephemeralKey.Secret,
		PublishableKey:  c.config.PublishableKey,
	}, nil
}

// GetIntentStatus fetches the current state of a payment intent.
func (c *Client) GetIntentStatus(ctx context.Context, intentID string) (*IntentStatus, error) {
	params := &stripe.PaymentIntentParams{Params: stripe.Params{Context: ctx}}

	intent, err := c.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntentNotFound, err)
	}

	return &IntentStatus{
		ID:          intent.ID,
		Status:      string(intent.Status),
		AmountCents: intent.Amount,
		Succeeded:   intent.Status == stripe.PaymentIntentStatusSucceeded,
	}, nil
}

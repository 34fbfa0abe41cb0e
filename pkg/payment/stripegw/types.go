package stripegw

// SheetRequest describes a payment-sheet initialization for one booking fee.
type SheetRequest struct {
	BookingID      uint
	UserID         uint
	UserEmail      string
	AmountCents    int64  // fee in the smallest currency unit
	IdempotencyKey string // reused on retry so Stripe dedupes the intent
}

// SheetResponse carries everything the mobile payment sheet needs.
type SheetResponse struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	CustomerID      string `json:"customer_id"`
	EphemeralKey    string `json:"ephemeral_key"`
	PublishableKey  string `json:"publishable_key"`
}

// IntentStatus is the subset of intent state the booking flow cares about.
type IntentStatus struct {
	ID          string
	Status      string
	AmountCents int64
	Succeeded   bool
}

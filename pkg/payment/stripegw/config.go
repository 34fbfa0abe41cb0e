package stripegw

// Config holds Stripe API configuration.
type Config struct {
	SecretKey      string
	PublishableKey string
	Currency       string // lower-case ISO code, e.g. "hkd"
}

// Validate checks that required configuration is present.
func (c Config) Validate() error {
	if c.SecretKey == "" {
		return ErrMissingSecretKey
	}
	if c.Currency == "" {
		return ErrMissingCurrency
	}
	return nil
}

package billing

import "errors"

var (
	// ErrNotConfigured indicates a required Stripe secret is missing.
	ErrNotConfigured = errors.New("stripe is not configured")
	// ErrSignature indicates a webhook payload failed signature verification.
	ErrSignature = errors.New("webhook signature verification failed")
	// ErrNoCustomer indicates a checkout session has no customer attached.
	ErrNoCustomer = errors.New("checkout session has no customer")
	// ErrLedger wraps failures reading or writing processed event ids.
	ErrLedger = errors.New("event ledger failure")
)

package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// PortalClient is the subset of the Stripe API the portal endpoint needs.
type PortalClient interface {
	CheckoutSessionCustomer(ctx context.Context, sessionID string) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// StripePortal implements PortalClient with the Stripe API.
type StripePortal struct {
	checkout checkoutsession.Client
	portal   portalsession.Client
}

// NewStripePortal returns a client authenticated with secretKey.
func NewStripePortal(secretKey string) *StripePortal {
	backend := stripe.GetBackend(stripe.APIBackend)
	return &StripePortal{
		checkout: checkoutsession.Client{B: backend, Key: secretKey},
		portal:   portalsession.Client{B: backend, Key: secretKey},
	}
}

func (p *StripePortal) CheckoutSessionCustomer(_ context.Context, sessionID string) (string, error) {
	s, err := p.checkout.Get(sessionID, nil)
	if err != nil {
		return "", err
	}
	if s.Customer == nil || s.Customer.ID == "" {
		return "", fmt.Errorf("%w: %s", ErrNoCustomer, sessionID)
	}
	return s.Customer.ID, nil
}

func (p *StripePortal) CreatePortalSession(_ context.Context, customerID, returnURL string) (string, error) {
	s, err := p.portal.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	})
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

// VerifyEvent checks the Stripe-Signature header of payload against secret
// and decodes the event.
func VerifyEvent(payload []byte, header, secret string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, header, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %w", ErrSignature, err)
	}
	return event, nil
}

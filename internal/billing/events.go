package billing

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v82"
)

// HandledEvents are the event types dispatched to an EventHandler. Anything
// else is logged and acknowledged.
var HandledEvents = map[string]bool{
	"customer.subscription.created":        true,
	"customer.subscription.updated":        true,
	"customer.subscription.deleted":        true,
	"customer.subscription.trial_will_end": true,
	"invoice.payment_succeeded":            true,
	"invoice.payment_failed":               true,
	"checkout.session.completed":           true,
}

// EventHandler reacts to verified webhook events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event stripe.Event) error
}

// LogHandler records each event in the log and does nothing else.
type LogHandler struct{}

func (LogHandler) HandleEvent(_ context.Context, event stripe.Event) error {
	msg := "Billing event received"
	switch string(event.Type) {
	case "customer.subscription.deleted":
		msg = "Subscription cancelled"
	case "customer.subscription.trial_will_end":
		msg = "Subscription trial ending soon"
	case "invoice.payment_failed":
		log.Warn().Str("event_id", event.ID).Msg("Invoice payment failed")
		return nil
	case "checkout.session.completed":
		msg = "Checkout completed"
	}
	log.Info().Str("event_id", event.ID).Str("type", string(event.Type)).Msg(msg)
	return nil
}

// internal/models/events.go
package models

// WebhookEventType is the closed set of billing webhook events this service
// dispatches on. Anything Stripe sends outside this set parses to
// EventUnhandled and is acknowledged without action.
type WebhookEventType string

const (
	EventCheckoutSessionCompleted WebhookEventType = "checkout.session.completed"
	EventPaymentIntentSucceeded   WebhookEventType = "payment_intent.succeeded"
	EventPaymentIntentFailed      WebhookEventType = "payment_intent.payment_failed"
	EventUnhandled                WebhookEventType = "unhandled"
)

func ParseWebhookEventType(s string) WebhookEventType {
	switch WebhookEventType(s) {
	case EventCheckoutSessionCompleted:
		return EventCheckoutSessionCompleted
	case EventPaymentIntentSucceeded:
		return EventPaymentIntentSucceeded
	case EventPaymentIntentFailed:
		return EventPaymentIntentFailed
	default:
		return EventUnhandled
	}
}

// internal/payment/stripe.go
package payment

import (
	"fmt"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/checkout/session"
	"github.com/stripe/stripe-go/v72/customer"
	"github.com/stripe/stripe-go/v72/webhook"
)

type StripeClient struct {
	secretKey     string
	webhookSecret string
}

func NewStripeClient(secretKey, webhookSecret string) *StripeClient {
	// Set the secret key for backend operations
	stripe.Key = secretKey

	return &StripeClient{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
	}
}

func (s *StripeClient) WebhookSecret() string {
	return s.webhookSecret
}

// CheckoutParams carries everything needed to open a billing session.
// CustomerID is optional; when empty and UserEmail is set, Stripe creates
// the customer itself.
type CheckoutParams struct {
	PriceID    string
	PlanType   string
	UserID     string
	UserEmail  string
	CustomerID string
	SuccessURL string
	CancelURL  string
}

// CreateCheckoutSession opens a subscription checkout session and returns
// its id and redirect URL. Plan and user metadata is attached to both the
// session and the subscription it will create, so the webhook receiver can
// recover them from either object.
func (s *StripeClient) CreateCheckoutSession(p CheckoutParams) (string, string, error) {
	if stripe.Key != s.secretKey {
		stripe.Key = s.secretKey
	}

	metadata := map[string]string{
		"plan_type": p.PlanType,
	}
	if p.UserID != "" {
		metadata["user_id"] = p.UserID
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	if p.UserID != "" {
		params.ClientReferenceID = stripe.String(p.UserID)
	}
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	} else if p.UserEmail != "" {
		params.CustomerEmail = stripe.String(p.UserEmail)
	}

	sess, err := session.New(params)
	if err != nil {
		return "", "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	return sess.ID, sess.URL, nil
}

// FindCustomerByEmail returns the id of the first existing customer with the
// given email, or empty when there is none.
func (s *StripeClient) FindCustomerByEmail(email string) (string, error) {
	if stripe.Key != s.secretKey {
		stripe.Key = s.secretKey
	}

	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	params.Limit = stripe.Int64(1)

	iter := customer.List(params)
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("failed to list customers: %w", err)
	}

	return "", nil
}

func (s *StripeClient) VerifyWebhookSignature(payload []byte, sig string) (stripe.Event, error) {
	if s.webhookSecret == "" {
		return stripe.Event{}, fmt.Errorf("webhook secret is not configured")
	}
	return webhook.ConstructEvent(payload, sig, s.webhookSecret)
}

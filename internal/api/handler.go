// Package api holds the HTTP handlers for checkout initiation, webhook
// consumption, the auth proxy and the manual daily-check trigger.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	stripe "github.com/stripe/stripe-go/v72"

	"selective-prep/config"
	"selective-prep/internal/metrics"
	"selective-prep/internal/models"
	"selective-prep/internal/payment"
	"selective-prep/pkg/logger"
)

// Store is the identity-store subset the handlers need.
type Store interface {
	GrantTemporaryAccess(ctx context.Context, userID string, hours int, reason string) error
	ActivateProfile(ctx context.Context, userID string) (bool, error)
	InsertPaymentLog(ctx context.Context, entry *models.PaymentLogEntry) error
	MarkWebhookEventProcessed(ctx context.Context, eventID, eventType string) (bool, error)
}

// Billing is the billing-provider subset the handlers need.
type Billing interface {
	CreateCheckoutSession(p payment.CheckoutParams) (string, string, error)
	FindCustomerByEmail(email string) (string, error)
	VerifyWebhookSignature(payload []byte, sig string) (stripe.Event, error)
}

// SweepRunner runs one reconciliation pass.
type SweepRunner interface {
	Run(ctx context.Context) (int, error)
}

type Handler struct {
	store      Store
	billing    Billing
	sweep      SweepRunner
	metrics    *metrics.Collector
	logger     *logger.Logger
	cfg        *config.Config
	authClient *http.Client
}

func NewHandler(store Store, billing Billing, sweep SweepRunner, m *metrics.Collector, l *logger.Logger, cfg *config.Config) *Handler {
	return &Handler{
		store:      store,
		billing:    billing,
		sweep:      sweep,
		metrics:    m,
		logger:     l,
		cfg:        cfg,
		authClient: &http.Client{Timeout: cfg.Auth.Timeout},
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: code, Message: message})
}

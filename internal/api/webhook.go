// internal/api/webhook.go
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v72"

	"selective-prep/internal/models"
	"selective-prep/pkg/noncritical"
)

// HandleStripeWebhook consumes provider-signed billing events. Signature
// failures are rejected with 400; once the signature verifies, the response
// is always 200 so Stripe does not retry. Finalization failures are logged
// and left to the daily sweep.
func (h *Handler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Errorw("failed to read webhook body", "error", err)
		h.metrics.RecordWebhookRejected()
		http.Error(w, "Webhook Error: failed to read request body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		h.logger.Error("missing Stripe signature header")
		h.metrics.RecordWebhookRejected()
		http.Error(w, "Webhook Error: missing signature", http.StatusBadRequest)
		return
	}

	event, err := h.billing.VerifyWebhookSignature(body, signature)
	if err != nil {
		h.logger.Errorw("failed to verify webhook signature", "error", err)
		h.metrics.RecordWebhookRejected()
		http.Error(w, "Webhook Error: invalid signature", http.StatusBadRequest)
		return
	}

	switch models.ParseWebhookEventType(string(event.Type)) {
	case models.EventCheckoutSessionCompleted:
		h.finalizeCheckout(r.Context(), event)

	case models.EventPaymentIntentSucceeded:
		h.logger.Infow("payment intent succeeded", "event_id", event.ID)

	case models.EventPaymentIntentFailed:
		h.logger.Warnw("payment failed", "event_id", event.ID)

	case models.EventUnhandled:
		h.logger.Infow("ignoring unhandled webhook event", "type", event.Type, "event_id", event.ID)
	}

	h.metrics.RecordWebhookEvent(string(event.Type))

	// Acknowledge receipt regardless of how the event was handled.
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Webhook received"))
}

// finalizeCheckout applies the pending -> active transition for a completed
// checkout. The Stripe event id is the idempotency key: a replayed event is
// recorded as seen once and never applied twice. The status update itself is
// guarded on the current status as a second line of defense.
func (h *Handler) finalizeCheckout(ctx context.Context, event stripe.Event) {
	first, err := h.store.MarkWebhookEventProcessed(ctx, event.ID, string(event.Type))
	if err != nil {
		h.logger.Errorw("failed to record webhook event", "event_id", event.ID, "error", err)
		return
	}
	if !first {
		h.logger.Infow("webhook event already processed", "event_id", event.ID)
		return
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Errorw("failed to parse checkout session", "event_id", event.ID, "error", err)
		return
	}

	userID := sess.Metadata["user_id"]
	if userID == "" {
		userID = sess.ClientReferenceID
	}
	if userID == "" {
		h.logger.Errorw("completed session carries no user reference", "session_id", sess.ID)
		return
	}

	activated, err := h.store.ActivateProfile(ctx, userID)
	if err != nil {
		h.logger.Errorw("failed to activate profile", "user_id", userID, "session_id", sess.ID, "error", err)
		return
	}
	if !activated {
		h.logger.Infow("profile not pending, no transition applied", "user_id", userID, "session_id", sess.ID)
	}

	noncritical.Do(h.logger, "payment log insert", func() error {
		return h.store.InsertPaymentLog(ctx, &models.PaymentLogEntry{
			ID:              uuid.NewString(),
			UserID:          userID,
			StripeSessionID: sess.ID,
			EventType:       string(models.EventCheckoutSessionCompleted),
			PaymentStatus:   string(models.PaymentStatusActive),
			PlanType:        sess.Metadata["plan_type"],
			Metadata:        map[string]string{"event_id": event.ID},
		})
	})

	h.logger.Infow("checkout finalized", "user_id", userID, "session_id", sess.ID)
}

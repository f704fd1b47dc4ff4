// internal/api/checkout.go
package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"selective-prep/internal/models"
	"selective-prep/internal/payment"
	"selective-prep/pkg/noncritical"
)

const checkoutAccessReason = "Payment initiated"

// CreateCheckoutSession opens a billing session for the requested plan.
// When the request names a user, a temporary access window is granted up
// front so a slow or lost webhook never locks a paying user out. Only the
// remote session creation itself can fail the request; the grant, the
// customer lookup and the audit log are side channels.
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	if req.PriceID == "" || req.PlanType == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "priceId and planType are required")
		return
	}

	ctx := r.Context()

	if req.UserID != "" {
		noncritical.Do(h.logger, "grant temporary access", func() error {
			return h.store.GrantTemporaryAccess(ctx, req.UserID, h.cfg.App.TempAccessHours, checkoutAccessReason)
		})
	}

	base := redirectBase(r, h.cfg.App.BaseURL)
	params := payment.CheckoutParams{
		PriceID:    req.PriceID,
		PlanType:   req.PlanType,
		UserID:     req.UserID,
		UserEmail:  req.UserEmail,
		SuccessURL: base + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  base + "/payment-cancelled",
	}

	if req.UserID != "" && req.UserEmail != "" {
		customerID, outcome := noncritical.DoValue(h.logger, "customer lookup", func() (string, error) {
			return h.billing.FindCustomerByEmail(req.UserEmail)
		})
		if outcome.OK() {
			params.CustomerID = customerID
		}
	}

	sessionID, sessionURL, err := h.billing.CreateCheckoutSession(params)
	if err != nil {
		h.logger.Errorw("failed to create checkout session", "plan_type", req.PlanType, "error", err)
		h.metrics.RecordSessionFailed()
		noncritical.Do(h.logger, "payment log insert", func() error {
			return h.store.InsertPaymentLog(ctx, &models.PaymentLogEntry{
				ID:            uuid.NewString(),
				UserID:        req.UserID,
				EventType:     "checkout.session.create_failed",
				PaymentStatus: "failed",
				PlanType:      req.PlanType,
				Metadata:      map[string]string{"error": err.Error()},
			})
		})
		respondError(w, http.StatusInternalServerError, "session_creation_failed", "unable to create checkout session")
		return
	}

	noncritical.Do(h.logger, "payment log insert", func() error {
		return h.store.InsertPaymentLog(ctx, &models.PaymentLogEntry{
			ID:              uuid.NewString(),
			UserID:          req.UserID,
			StripeSessionID: sessionID,
			EventType:       "checkout.session.created",
			PaymentStatus:   string(models.PaymentStatusPending),
			PlanType:        req.PlanType,
			Metadata:        map[string]string{"price_id": req.PriceID},
		})
	})

	h.metrics.RecordSessionCreated(req.PlanType)
	respondJSON(w, http.StatusOK, models.CheckoutResponse{
		URL:       sessionURL,
		SessionID: sessionID,
		Message:   "Checkout session created",
	})
}

// redirectBase resolves the post-payment redirect origin: the caller's
// Origin header, then the origin of its Referer, then the configured
// default.
func redirectBase(r *http.Request, fallback string) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		return strings.TrimSuffix(origin, "/")
	}
	if referer := r.Header.Get("Referer"); referer != "" {
		if u, err := url.Parse(referer); err == nil && u.Scheme != "" && u.Host != "" {
			return u.Scheme + "://" + u.Host
		}
	}
	return strings.TrimSuffix(fallback, "/")
}

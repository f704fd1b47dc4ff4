package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stripe "github.com/stripe/stripe-go/v72"
)

func completedSessionEvent(eventID, sessionID, userID string) stripe.Event {
	raw, _ := json.Marshal(map[string]interface{}{
		"id":                  sessionID,
		"client_reference_id": userID,
		"metadata": map[string]string{
			"user_id":   userID,
			"plan_type": "term",
		},
	})
	return stripe.Event{
		ID:   eventID,
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}

func postWebhook(h *Handler, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", strings.NewReader(`{"id":"evt_1"}`))
	if sig != "" {
		req.Header.Set("Stripe-Signature", sig)
	}
	rec := httptest.NewRecorder()
	h.HandleStripeWebhook(rec, req)
	return rec
}

func TestWebhook_MissingSignature(t *testing.T) {
	store := &mockStore{}
	h := newTestHandler(store, &mockBilling{}, nil)

	rec := postWebhook(h, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Webhook Error")
	assert.Empty(t, store.ActivateCalls)
	assert.Empty(t, store.InsertedLogs)
}

func TestWebhook_InvalidSignature(t *testing.T) {
	store := &mockStore{}
	billing := &mockBilling{
		VerifyFunc: func([]byte, string) (stripe.Event, error) {
			return stripe.Event{}, errors.New("signature mismatch")
		},
	}
	h := newTestHandler(store, billing, nil)

	rec := postWebhook(h, "t=1,v1=bad")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Webhook Error: invalid signature")
	assert.Empty(t, store.ActivateCalls, "no state mutation on rejected webhook")
	assert.Empty(t, store.MarkedEvents)
}

func TestWebhook_UnhandledEventTypeAcknowledged(t *testing.T) {
	store := &mockStore{}
	billing := &mockBilling{
		VerifyFunc: func([]byte, string) (stripe.Event, error) {
			return stripe.Event{ID: "evt_9", Type: "customer.updated"}, nil
		},
	}
	h := newTestHandler(store, billing, nil)

	rec := postWebhook(h, "t=1,v1=good")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Webhook received", rec.Body.String())
	assert.Empty(t, store.ActivateCalls, "unrecognized events perform no mutation")
	assert.Empty(t, store.InsertedLogs)
}

func TestWebhook_CheckoutCompletedFinalizes(t *testing.T) {
	store := &mockStore{}
	billing := &mockBilling{
		VerifyFunc: func([]byte, string) (stripe.Event, error) {
			return completedSessionEvent("evt_1", "cs_123", "user-1"), nil
		},
	}
	h := newTestHandler(store, billing, nil)

	rec := postWebhook(h, "t=1,v1=good")

	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, store.ActivateCalls, 1)
	assert.Equal(t, "user-1", store.ActivateCalls[0])

	require.Len(t, store.MarkedEvents, 1)
	assert.Equal(t, "evt_1", store.MarkedEvents[0])

	require.Len(t, store.InsertedLogs, 1)
	assert.Equal(t, "cs_123", store.InsertedLogs[0].StripeSessionID)
	assert.Equal(t, "checkout.session.completed", store.InsertedLogs[0].EventType)
	assert.Equal(t, "active", store.InsertedLogs[0].PaymentStatus)
}

func TestWebhook_ReplayedEventIsNoOp(t *testing.T) {
	store := &mockStore{
		MarkFunc: func(_ context.Context, _, _ string) (bool, error) {
			return false, nil // already seen
		},
	}
	billing := &mockBilling{
		VerifyFunc: func([]byte, string) (stripe.Event, error) {
			return completedSessionEvent("evt_1", "cs_123", "user-1"), nil
		},
	}
	h := newTestHandler(store, billing, nil)

	rec := postWebhook(h, "t=1,v1=good")

	assert.Equal(t, http.StatusOK, rec.Code, "replays are still acknowledged")
	assert.Empty(t, store.ActivateCalls, "replayed event must not re-apply the transition")
	assert.Empty(t, store.InsertedLogs)
}

func TestWebhook_FallsBackToClientReferenceID(t *testing.T) {
	raw, _ := json.Marshal(map[string]interface{}{
		"id":                  "cs_456",
		"client_reference_id": "user-2",
	})
	store := &mockStore{}
	billing := &mockBilling{
		VerifyFunc: func([]byte, string) (stripe.Event, error) {
			return stripe.Event{
				ID:   "evt_2",
				Type: "checkout.session.completed",
				Data: &stripe.EventData{Raw: raw},
			}, nil
		},
	}
	h := newTestHandler(store, billing, nil)

	rec := postWebhook(h, "t=1,v1=good")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.ActivateCalls, 1)
	assert.Equal(t, "user-2", store.ActivateCalls[0])
}

func TestWebhook_FinalizationFailureStillAcknowledged(t *testing.T) {
	store := &mockStore{
		ActivateFunc: func(context.Context, string) (bool, error) {
			return false, errors.New("db down")
		},
	}
	billing := &mockBilling{
		VerifyFunc: func([]byte, string) (stripe.Event, error) {
			return completedSessionEvent("evt_1", "cs_123", "user-1"), nil
		},
	}
	h := newTestHandler(store, billing, nil)

	rec := postWebhook(h, "t=1,v1=good")

	// The sweep is the safety net; the provider must not retry.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Webhook received", rec.Body.String())
}

func TestWebhook_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(nil, nil, nil)
	router := NewRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/webhook/stripe", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

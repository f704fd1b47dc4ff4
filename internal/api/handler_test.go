package api

import (
	"context"
	"time"

	stripe "github.com/stripe/stripe-go/v72"
	"go.uber.org/zap"

	"selective-prep/config"
	"selective-prep/internal/metrics"
	"selective-prep/internal/models"
	"selective-prep/internal/payment"
	"selective-prep/pkg/logger"
)

// ==========================
// Mock Implementations
// ==========================

type mockStore struct {
	GrantFunc    func(ctx context.Context, userID string, hours int, reason string) error
	ActivateFunc func(ctx context.Context, userID string) (bool, error)
	InsertFunc   func(ctx context.Context, entry *models.PaymentLogEntry) error
	MarkFunc     func(ctx context.Context, eventID, eventType string) (bool, error)

	GrantCalls    []string
	ActivateCalls []string
	InsertedLogs  []*models.PaymentLogEntry
	MarkedEvents  []string
}

func (m *mockStore) GrantTemporaryAccess(ctx context.Context, userID string, hours int, reason string) error {
	m.GrantCalls = append(m.GrantCalls, userID)
	if m.GrantFunc != nil {
		return m.GrantFunc(ctx, userID, hours, reason)
	}
	return nil
}

func (m *mockStore) ActivateProfile(ctx context.Context, userID string) (bool, error) {
	m.ActivateCalls = append(m.ActivateCalls, userID)
	if m.ActivateFunc != nil {
		return m.ActivateFunc(ctx, userID)
	}
	return true, nil
}

func (m *mockStore) InsertPaymentLog(ctx context.Context, entry *models.PaymentLogEntry) error {
	m.InsertedLogs = append(m.InsertedLogs, entry)
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, entry)
	}
	return nil
}

func (m *mockStore) MarkWebhookEventProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	m.MarkedEvents = append(m.MarkedEvents, eventID)
	if m.MarkFunc != nil {
		return m.MarkFunc(ctx, eventID, eventType)
	}
	return true, nil
}

type mockBilling struct {
	CreateFunc func(p payment.CheckoutParams) (string, string, error)
	FindFunc   func(email string) (string, error)
	VerifyFunc func(payload []byte, sig string) (stripe.Event, error)

	CreateCalls int
	LastParams  payment.CheckoutParams
}

func (m *mockBilling) CreateCheckoutSession(p payment.CheckoutParams) (string, string, error) {
	m.CreateCalls++
	m.LastParams = p
	if m.CreateFunc != nil {
		return m.CreateFunc(p)
	}
	return "cs_test_123", "https://checkout.stripe.com/pay/cs_test_123", nil
}

func (m *mockBilling) FindCustomerByEmail(email string) (string, error) {
	if m.FindFunc != nil {
		return m.FindFunc(email)
	}
	return "", nil
}

func (m *mockBilling) VerifyWebhookSignature(payload []byte, sig string) (stripe.Event, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(payload, sig)
	}
	return stripe.Event{}, nil
}

type mockSweep struct {
	RunFunc func(ctx context.Context) (int, error)
}

func (m *mockSweep) Run(ctx context.Context) (int, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	return 0, nil
}

// ==========================
// Test Helper Functions
// ==========================

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.BaseURL = "https://selectiveprep.example"
	cfg.App.TempAccessHours = 24
	cfg.App.PendingAgeHours = 24
	cfg.Auth.BaseURL = "https://auth.invalid"
	cfg.Auth.AnonKey = "anon-key"
	cfg.Auth.Timeout = 5 * time.Second
	cfg.Server.Port = "8080"
	return cfg
}

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func newTestHandler(store *mockStore, billing *mockBilling, sw *mockSweep) *Handler {
	if store == nil {
		store = &mockStore{}
	}
	if billing == nil {
		billing = &mockBilling{}
	}
	if sw == nil {
		sw = &mockSweep{}
	}
	return NewHandler(store, billing, sw, metrics.NewCollector(), testLogger(), testConfig())
}

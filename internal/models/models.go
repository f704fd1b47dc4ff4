// internal/models/models.go
package models

import (
	"time"
)

// PaymentStatus is the lifecycle state of a user profile's subscription.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusActive  PaymentStatus = "active"
	PaymentStatusExpired PaymentStatus = "expired"
)

type UserProfile struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// PaymentLogEntry is an append-only audit record. It is written on session
// creation, on webhook finalization and on errors, and is never read back
// by this service.
type PaymentLogEntry struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	StripeSessionID string            `json:"stripe_session_id"`
	EventType       string            `json:"event_type"`
	PaymentStatus   string            `json:"payment_status"`
	PlanType        string            `json:"plan_type"`
	Metadata        map[string]string `json:"metadata"`
	CreatedAt       time.Time         `json:"created_at"`
}

type CheckoutRequest struct {
	PriceID   string `json:"priceId"`
	PlanType  string `json:"planType"`
	UserID    string `json:"userId,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type DailyCheckResponse struct {
	Success        bool   `json:"success"`
	ProcessedCount int    `json:"processedCount"`
	Message        string `json:"message"`
}

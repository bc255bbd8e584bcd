// Package payment is the bridge to the external gateway. The engine only
// consumes two facts from it: a checkout handle for a new rental, and a
// paid/not-paid answer for an existing session.
package payment

import "context"

type CheckoutReq struct {
	Amount     float64 // major units (EUR)
	Currency   string
	RentalID   string
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	SessionID string
	URL       string
}

// Status is the only gateway state the engine distinguishes. Anything that
// is not Paid leaves the rental pending.
type Status struct {
	Paid   bool
	Raw    string // gateway's own status string, passed through to the UI
	Detail string
}

// WebhookEvent is the parsed, signature-checked push notification.
type WebhookEvent struct {
	Type      string
	SessionID string
}

type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutReq) (*CheckoutSession, error)
	CheckoutStatus(ctx context.Context, sessionID string) (*Status, error)
	// ParseWebhook verifies the signature header and extracts the event.
	ParseWebhook(payload []byte, sigHeader string) (*WebhookEvent, error)
}

package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// FakeGateway stands in when STRIPE_API_KEY is unset (bench setups without
// network). Every session reports paid as soon as it is polled.
type FakeGateway struct {
	mu       sync.Mutex
	sessions map[string]bool
}

func NewFake() *FakeGateway {
	return &FakeGateway{sessions: make(map[string]bool)}
}

func (g *FakeGateway) CreateCheckout(ctx context.Context, req CheckoutReq) (*CheckoutSession, error) {
	id := "fake_" + uuid.NewString()
	g.mu.Lock()
	g.sessions[id] = true
	g.mu.Unlock()
	return &CheckoutSession{
		SessionID: id,
		URL:       fmt.Sprintf("%s?session_id=%s", req.SuccessURL, id),
	}, nil
}

func (g *FakeGateway) CheckoutStatus(ctx context.Context, sessionID string) (*Status, error) {
	g.mu.Lock()
	known := g.sessions[sessionID]
	g.mu.Unlock()
	if !known {
		return &Status{Paid: false, Raw: "unknown"}, nil
	}
	return &Status{Paid: true, Raw: "paid", Detail: "complete"}, nil
}

func (g *FakeGateway) ParseWebhook(payload []byte, sigHeader string) (*WebhookEvent, error) {
	return nil, fmt.Errorf("fake gateway has no webhooks")
}

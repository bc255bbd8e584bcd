package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateCheckoutSendsForm(t *testing.T) {
	var gotForm map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "sk_test_123", user)

		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":  "cs_test_1",
			"url": "https://checkout.stripe.com/pay/cs_test_1",
		})
	}))
	defer ts.Close()

	g := NewStripeWithBase("sk_test_123", "whsec", ts.URL)
	sess, err := g.CreateCheckout(context.Background(), CheckoutReq{
		Amount:     3.0,
		Currency:   "EUR",
		RentalID:   "r1",
		SuccessURL: "http://kiosk/success",
		CancelURL:  "http://kiosk/cancel",
	})
	require.NoError(t, err)
	require.Equal(t, "cs_test_1", sess.SessionID)
	require.Equal(t, "https://checkout.stripe.com/pay/cs_test_1", sess.URL)

	require.Equal(t, "payment", gotForm["mode"][0])
	require.Equal(t, "eur", gotForm["line_items[0][price_data][currency]"][0])
	require.Equal(t, "300", gotForm["line_items[0][price_data][unit_amount]"][0]) // minor units
	require.Equal(t, "r1", gotForm["metadata[rental_id]"][0])
}

func TestCreateCheckoutErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusPaymentRequired)
	}))
	defer ts.Close()

	g := NewStripeWithBase("sk", "whsec", ts.URL)
	_, err := g.CreateCheckout(context.Background(), CheckoutReq{Amount: 2, Currency: "EUR"})
	require.Error(t, err)
}

func TestCheckoutStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions/cs_test_1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"payment_status": "paid",
			"status":         "complete",
		})
	}))
	defer ts.Close()

	g := NewStripeWithBase("sk", "whsec", ts.URL)
	status, err := g.CheckoutStatus(context.Background(), "cs_test_1")
	require.NoError(t, err)
	require.True(t, status.Paid)
	require.Equal(t, "paid", status.Raw)
}

func TestParseWebhookRoundTrip(t *testing.T) {
	g := NewStripe("sk", "whsec_test")
	payload := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_9"}}}`)
	header := SignPayload("whsec_test", "1700000000", payload)

	ev, err := g.ParseWebhook(payload, header)
	require.NoError(t, err)
	require.Equal(t, "checkout.session.completed", ev.Type)
	require.Equal(t, "cs_9", ev.SessionID)
}

func TestParseWebhookRejectsTampering(t *testing.T) {
	g := NewStripe("sk", "whsec_test")
	payload := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_9"}}}`)
	header := SignPayload("whsec_test", "1700000000", payload)

	tampered := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_EVIL"}}}`)
	_, err := g.ParseWebhook(tampered, header)
	require.Error(t, err)

	_, err = g.ParseWebhook(payload, SignPayload("wrong_secret", "1700000000", payload))
	require.Error(t, err)

	_, err = g.ParseWebhook(payload, "garbage")
	require.Error(t, err)
}

func TestFakeGatewayPaysImmediately(t *testing.T) {
	g := NewFake()
	sess, err := g.CreateCheckout(context.Background(), CheckoutReq{SuccessURL: "http://kiosk/success"})
	require.NoError(t, err)

	status, err := g.CheckoutStatus(context.Background(), sess.SessionID)
	require.NoError(t, err)
	require.True(t, status.Paid)

	status, err = g.CheckoutStatus(context.Background(), "cs_unknown")
	require.NoError(t, err)
	require.False(t, status.Paid)
}

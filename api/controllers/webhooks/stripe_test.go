package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	internalorders "github.com/platevine/platevine-backend/internal/orders"
)

type fakeConfirmer struct {
	calls  []internalorders.ConfirmInput
	result error
}

func (f *fakeConfirmer) ConfirmFromPayment(_ context.Context, input internalorders.ConfirmInput) error {
	f.calls = append(f.calls, input)
	return f.result
}

type fakeSigningClient struct {
	secret string
}

func (c *fakeSigningClient) SigningSecret() string {
	return c.secret
}

func TestStripeWebhookConfirmsOrder(t *testing.T) {
	orderID := uuid.New()
	payload, header := buildSignedPaymentIntent(t, "pi_123", 1999, orderID.String())
	confirmer := &fakeConfirmer{}
	handler := StripeWebhook(confirmer, &fakeSigningClient{secret: "whsec_test"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", header)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	if len(confirmer.calls) != 1 {
		t.Fatalf("expected one confirmation, got %d", len(confirmer.calls))
	}
	input := confirmer.calls[0]
	if input.OrderID != orderID || input.IntentID != "pi_123" || input.AmountCents != 1999 {
		t.Fatalf("unexpected confirm input %+v", input)
	}
}

func TestStripeWebhookInvalidSignature(t *testing.T) {
	payload, _ := buildSignedPaymentIntent(t, "pi_123", 1999, uuid.NewString())
	confirmer := &fakeConfirmer{}
	handler := StripeWebhook(confirmer, &fakeSigningClient{secret: "whsec_test"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=invalid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for invalid signature, got %d", rec.Code)
	}
	if len(confirmer.calls) != 0 {
		t.Fatalf("confirmer should not run on invalid signature")
	}
}

func TestStripeWebhookMissingOrderMetadata(t *testing.T) {
	payload, header := buildSignedPaymentIntent(t, "pi_123", 1999, "")
	confirmer := &fakeConfirmer{}
	handler := StripeWebhook(confirmer, &fakeSigningClient{secret: "whsec_test"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", header)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(confirmer.calls) != 0 {
		t.Fatalf("confirmer should not run without order metadata")
	}
}

func TestStripeWebhookIgnoresOtherEvents(t *testing.T) {
	event := &stripe.Event{
		ID:         "evt_" + uuid.NewString(),
		APIVersion: stripe.APIVersion,
		Type:       "charge.refunded",
		Object:     "event",
		Data:       &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	header := buildStripeSignatureHeader(payload, "whsec_test", time.Now().Unix())

	confirmer := &fakeConfirmer{}
	handler := StripeWebhook(confirmer, &fakeSigningClient{secret: "whsec_test"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", header)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(confirmer.calls) != 0 {
		t.Fatalf("confirmer should not run for ignored event types")
	}
}

func buildSignedPaymentIntent(t *testing.T, intentID string, amount int64, orderID string) ([]byte, string) {
	t.Helper()
	intent := &stripe.PaymentIntent{
		ID:     intentID,
		Amount: amount,
	}
	if orderID != "" {
		intent.Metadata = map[string]string{"order_id": orderID}
	}
	rawIntent, err := json.Marshal(intent)
	if err != nil {
		t.Fatalf("marshal payment intent: %v", err)
	}
	event := &stripe.Event{
		ID:         "evt_" + uuid.NewString(),
		APIVersion: stripe.APIVersion,
		Type:       "payment_intent.succeeded",
		Object:     "event",
		Data: &stripe.EventData{
			Raw: rawIntent,
		},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	header := buildStripeSignatureHeader(payload, "whsec_test", time.Now().Unix())
	return payload, header
}

func buildStripeSignatureHeader(payload []byte, secret string, ts int64) string {
	signedPayload := fmt.Sprintf("%d.%s", ts, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

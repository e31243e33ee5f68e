package stripe

import (
	"context"
	"testing"

	"github.com/platevine/platevine-backend/pkg/config"
)

func TestNewClientRejectsMismatchedKey(t *testing.T) {
	_, err := NewClient(context.Background(), config.StripeConfig{
		APIKey: "sk_live_abc",
		Secret: "whsec_x",
		Env:    "test",
	}, nil)
	if err == nil {
		t.Fatal("expected error for live key in test env")
	}
}

func TestNewClientRequiresSecrets(t *testing.T) {
	if _, err := NewClient(context.Background(), config.StripeConfig{}, nil); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_abc"}, nil); err == nil {
		t.Fatal("expected error for missing webhook secret")
	}
}

func TestNewClientNormalizesEnv(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{
		APIKey: "sk_test_abc",
		Secret: "whsec_x",
		Env:    " Test ",
	}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.Environment() != "test" {
		t.Fatalf("unexpected environment: %s", client.Environment())
	}
}

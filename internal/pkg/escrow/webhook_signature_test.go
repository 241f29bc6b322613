package escrow

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyGatewayWebhookSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.confirmed"}`)
	secret := "whsec_test_secret"
	sig := signPayload(payload, secret)

	tests := []struct {
		name      string
		payload   []byte
		signature string
		secret    string
		want      bool
	}{
		{name: "valid signature", payload: payload, signature: sig, secret: secret, want: true},
		{name: "prefixed signature", payload: payload, signature: "sha256=" + sig, secret: secret, want: true},
		{name: "uppercase hex", payload: payload, signature: "SHA256=" + sig, secret: secret, want: true},
		{name: "wrong secret", payload: payload, signature: sig, secret: "whsec_other", want: false},
		{name: "tampered payload", payload: []byte(`{"id":"evt_2"}`), signature: sig, secret: secret, want: false},
		{name: "garbage signature", payload: payload, signature: "not-hex-at-all", secret: secret, want: false},
		{name: "empty signature", payload: payload, signature: "", secret: secret, want: false},
		{name: "empty secret", payload: payload, signature: sig, secret: "", want: false},
	}

	for _, tt := range tests {
		if got := VerifyGatewayWebhookSignature(tt.payload, tt.signature, tt.secret); got != tt.want {
			t.Fatalf("%s: VerifyGatewayWebhookSignature = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPayloadHash(t *testing.T) {
	a := PayloadHash([]byte(`{"id":"evt_1"}`))
	b := PayloadHash([]byte(`{"id":"evt_1"}`))
	c := PayloadHash([]byte(`{"id":"evt_2"}`))

	if a != b {
		t.Fatalf("identical payloads hashed differently: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("distinct payloads collided: %s", a)
	}
	if len(a) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(a))
	}
}

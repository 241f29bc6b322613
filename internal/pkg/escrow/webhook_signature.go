package escrow

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifyGatewayWebhookSignature checks the HMAC-SHA256 signature the gateway
// sends with every callback. Events with a bad signature are persisted for
// audit but never applied to escrow state.
func VerifyGatewayWebhookSignature(payload []byte, signatureHeader, webhookSecret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if sig == "" || secret == "" {
		return false
	}

	// Some gateways prefix the hex digest, e.g. "sha256=<hex>".
	if idx := strings.IndexByte(sig, '='); idx >= 0 && !isHex(sig[:idx]) {
		sig = sig[idx+1:]
	}

	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decodedSig)
}

// PayloadHash returns the hex SHA-256 of a payload, used as a fallback event
// id when the gateway omits one.
func PayloadHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	_, err := hex.DecodeString(strings.ToLower(s))
	return err == nil
}

package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
const SignatureHeader = "X-Webhook-Signature"

// VerifyHMAC checks an HMAC-SHA256 signature over the raw body using the
// shared secret. provided may carry a "sha256=" prefix and either hex case.
// An empty secret never verifies.
func VerifyHMAC(secret string, body []byte, provided string) bool {
	if secret == "" {
		return false
	}
	provided = strings.TrimPrefix(strings.TrimSpace(provided), "sha256=")
	b, err := hex.DecodeString(provided)
	if err != nil || len(b) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), b)
}

// SignHMAC returns lowercase hex of HMAC-SHA256 for use in headers
func SignHMAC(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

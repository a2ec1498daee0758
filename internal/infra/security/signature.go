package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignPayment returns hex(HMAC-SHA256(secret, orderID + "|" + paymentID)),
// the checkout signature format.
func SignPayment(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature compares the supplied signature with the expected
// lowercase hex string byte for byte, in constant time. Case and surrounding
// whitespace are significant. An empty secret never verifies.
func VerifyPaymentSignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	want := SignPayment(secret, orderID, paymentID)
	return hmac.Equal([]byte(want), []byte(signature))
}

package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/anjiri1684/medical_consult/models"
)

// SignatureVerifier authenticates gateway callbacks. The signed payload is
// "<orderId>|<paymentId>", signed with HMAC-SHA256 under the key secret and
// hex encoded.
type SignatureVerifier struct {
	secret []byte
}

func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

func CanonicalPayload(gatewayOrderID, gatewayPaymentID string) string {
	return gatewayOrderID + "|" + gatewayPaymentID
}

func (v *SignatureVerifier) Sign(gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(CanonicalPayload(gatewayOrderID, gatewayPaymentID)))
	return hex.EncodeToString(mac.Sum(nil))
}

func (v *SignatureVerifier) Verify(gatewayOrderID, gatewayPaymentID, signature string) error {
	expected, err := hex.DecodeString(v.Sign(gatewayOrderID, gatewayPaymentID))
	if err != nil {
		return models.ErrInvalidSignature
	}
	given, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || !hmac.Equal(expected, given) {
		return models.ErrInvalidSignature
	}
	return nil
}

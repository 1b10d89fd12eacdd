package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/kokoruadmin/kokoru-backend/pkg/errors"
)

func sign(secret, orderRef, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHMACVerifier(t *testing.T) {
	v := NewHMACVerifier("topsecret")

	good := sign("topsecret", "order_abc", "pay_123")
	assert.NoError(t, v.Verify("order_abc", "pay_123", good))

	// Wrong key.
	bad := sign("otherkey", "order_abc", "pay_123")
	err := v.Verify("order_abc", "pay_123", bad)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// Tampered payment ID.
	err = v.Verify("order_abc", "pay_999", good)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// Empty signature.
	err = v.Verify("order_abc", "pay_123", "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestNopVerifier(t *testing.T) {
	assert.NoError(t, NopVerifier{}.Verify("x", "y", "anything"))
}

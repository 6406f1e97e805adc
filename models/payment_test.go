package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentReferenceRoundTrip(t *testing.T) {
	ref := PaymentReference{
		Type:   PaymentTypeSubscription,
		UserID: 42,
		Nonce:  "9f1b2c3d-4e5f-6a7b-8c9d-0e1f2a3b4c5d",
	}

	encoded := ref.String()
	assert.Equal(t, "assinatura_42_9f1b2c3d-4e5f-6a7b-8c9d-0e1f2a3b4c5d", encoded)

	parsed, err := ParsePaymentReference(encoded)
	require.NoError(t, err)
	assert.Equal(t, ref, parsed)
}

func TestParsePaymentReferenceKeepsNonceUnderscores(t *testing.T) {
	// SplitN must leave everything after the second separator untouched
	parsed, err := ParsePaymentReference("servico_7_nonce_with_underscores")
	require.NoError(t, err)
	assert.Equal(t, PaymentTypeService, parsed.Type)
	assert.Equal(t, uint(7), parsed.UserID)
	assert.Equal(t, "nonce_with_underscores", parsed.Nonce)
}

func TestParsePaymentReferenceMalformed(t *testing.T) {
	cases := []string{
		"",
		"assinatura",
		"assinatura_42",
		"assinatura_42_",
		"mensalidade_42_abc", // unknown charge kind
		"assinatura_abc_xyz", // non-numeric user id
		"assinatura_-1_xyz",
	}

	for _, ref := range cases {
		_, err := ParsePaymentReference(ref)
		assert.Error(t, err, "reference %q must be rejected", ref)
	}
}

func TestWorkerSubscriptionIsCurrent(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	assert.True(t, (&WorkerSubscription{Status: PaymentConfirmed, ExpiresAt: &future}).IsCurrent())
	assert.False(t, (&WorkerSubscription{Status: PaymentConfirmed, ExpiresAt: &past}).IsCurrent())
	assert.False(t, (&WorkerSubscription{Status: PaymentPending, ExpiresAt: &future}).IsCurrent())
	assert.False(t, (&WorkerSubscription{Status: PaymentExpired, ExpiresAt: &past}).IsCurrent())
	assert.False(t, (&WorkerSubscription{Status: PaymentConfirmed}).IsCurrent())
}

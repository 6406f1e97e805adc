package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidUF(t *testing.T) {
	assert.True(t, IsValidUF("SP"))
	assert.True(t, IsValidUF("rj"))
	assert.True(t, IsValidUF(" mg "))

	assert.False(t, IsValidUF("XX"))
	assert.False(t, IsValidUF(""))
	assert.False(t, IsValidUF("SAO"))
}

func TestIsValidCEP(t *testing.T) {
	assert.True(t, IsValidCEP("01310-100"))
	assert.True(t, IsValidCEP("01310100"))

	assert.False(t, IsValidCEP("1310-100"))
	assert.False(t, IsValidCEP("01310-10"))
	assert.False(t, IsValidCEP("abcde-fgh"))
	assert.False(t, IsValidCEP(""))
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("(11) 98765-4321"))
	assert.True(t, IsValidPhone("11987654321"))
	assert.True(t, IsValidPhone("1134567890"))

	assert.False(t, IsValidPhone("123"))
	assert.False(t, IsValidPhone(""))
}

func TestIsValidCPF(t *testing.T) {
	// Check digits computed by the standard mod-11 algorithm
	assert.True(t, IsValidCPF("529.982.247-25"))
	assert.True(t, IsValidCPF("52998224725"))

	assert.False(t, IsValidCPF("529.982.247-26"), "wrong check digit")
	assert.False(t, IsValidCPF("111.111.111-11"), "all-same-digit CPF")
	assert.False(t, IsValidCPF("000.000.000-00"), "all-same-digit CPF")
	assert.False(t, IsValidCPF("5299822472"), "too short")
	assert.False(t, IsValidCPF(""))
}

func TestTrimmedNonEmpty(t *testing.T) {
	assert.True(t, TrimmedNonEmpty("motivo real"))
	assert.True(t, TrimmedNonEmpty(" x "))

	assert.False(t, TrimmedNonEmpty(""))
	assert.False(t, TrimmedNonEmpty("   "))
	assert.False(t, TrimmedNonEmpty("\n\t"))
}

package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "Jo&#x27;ao &lt;script&gt;", SanitizeInput("Jo'ao <script>"))
	assert.Equal(t, "a &amp; b", SanitizeInput("  a & b  "))
	assert.Equal(t, "&quot;aspas&quot;", SanitizeInput(`"aspas"`))
	assert.Equal(t, "texto limpo", SanitizeInput("texto limpo"))
}

func TestValidatePasswordStrength(t *testing.T) {
	ok, errs := ValidatePasswordStrength("SenhaForte1")
	assert.True(t, ok)
	assert.Empty(t, errs)

	cases := []string{
		"curta1A",          // too short
		"semmaiuscula1",    // no uppercase
		"SEMMINUSCULA1",    // no lowercase
		"SemNumeroAqui",    // no digit
	}
	for _, password := range cases {
		ok, errs := ValidatePasswordStrength(password)
		assert.False(t, ok, "password %q must be rejected", password)
		assert.NotEmpty(t, errs)
	}
}

func TestRateLimiterReusesAndCleans(t *testing.T) {
	rl := NewRateLimiter()

	a := rl.GetLimiter("k1", rate.Every(time.Second), 1)
	b := rl.GetLimiter("k1", rate.Every(time.Second), 1)
	assert.Same(t, a, b, "same key must share one limiter")

	assert.True(t, a.Allow())
	assert.False(t, a.Allow(), "burst of one is spent")

	// Idle entries are dropped after an hour
	rl.lastSeen["k1"] = time.Now().Add(-2 * time.Hour)
	rl.Cleanup()
	c := rl.GetLimiter("k1", rate.Every(time.Second), 1)
	assert.NotSame(t, a, c)
}

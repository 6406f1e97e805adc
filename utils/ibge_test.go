package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchMunicipalitiesRejectsInvalidUF(t *testing.T) {
	// Invalid UFs fail before any network call
	for _, uf := range []string{"", "XX", "SAO", "S"} {
		_, err := FetchMunicipalities(context.Background(), uf)
		assert.Error(t, err, "UF %q must be rejected", uf)
	}
}

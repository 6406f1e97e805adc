package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Municipality is one entry of the IBGE municipalities listing for a state.
type Municipality struct {
	ID   int    `json:"id"`
	Name string `json:"nome"`
}

var ibgeClient = &http.Client{Timeout: 10 * time.Second}

// FetchMunicipalities returns the municipalities of a Brazilian state from
// the IBGE localities API. Used by the location pickers on profile and
// order forms.
func FetchMunicipalities(ctx context.Context, uf string) ([]Municipality, error) {
	uf = strings.ToUpper(strings.TrimSpace(uf))
	if !IsValidUF(uf) {
		return nil, fmt.Errorf("UF invalida: %q", uf)
	}

	apiURL := fmt.Sprintf("https://servicodados.ibge.gov.br/api/v1/localidades/estados/%s/municipios?orderBy=nome", uf)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := ibgeClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("falha ao consultar IBGE: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("IBGE retornou status %d", resp.StatusCode)
	}

	var municipalities []Municipality
	if err := json.NewDecoder(resp.Body).Decode(&municipalities); err != nil {
		return nil, fmt.Errorf("resposta invalida do IBGE: %w", err)
	}

	return municipalities, nil
}

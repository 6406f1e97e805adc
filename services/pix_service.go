package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"o-trabalhador-server/config"
	"o-trabalhador-server/models"
)

// PixService creates charges against the configured PIX gateway and renders
// the QR code the contractor scans to pay.
type PixService struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewPixService creates a PIX service using the gateway configured in the
// environment.
func NewPixService() *PixService {
	return &PixService{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: config.AppConfig.Pix.BaseURL,
		apiKey:  config.AppConfig.Pix.APIKey,
	}
}

// PixCharge is the result of a charge creation: the copy-paste code returned
// by the gateway plus a locally rendered QR image of it.
type PixCharge struct {
	ReferenceID string  `json:"reference_id"`
	CopyPaste   string  `json:"pix_copia_cola"`
	QRCodePNG   string  `json:"qr_code_base64"`
	Amount      float64 `json:"valor"`
	ExpiresAt   string  `json:"expira_em"`
}

type gatewayChargeRequest struct {
	ReferenceID string  `json:"reference_id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	TaxID       string  `json:"tax_id"`
	Amount      float64 `json:"amount"`
}

type gatewayChargeResponse struct {
	CopyPaste string `json:"pix_code"`
	ExpiresAt string `json:"expires_at"`
}

// NewReference builds a gateway reference id for the given charge kind and
// payer, with a random nonce so retries never collide.
func NewReference(ptype models.PaymentType, userID uint) models.PaymentReference {
	return models.PaymentReference{
		Type:   ptype,
		UserID: userID,
		Nonce:  uuid.NewString(),
	}
}

// CreateCharge registers a charge with the gateway and returns the payable
// PIX code and QR image.
func (s *PixService) CreateCharge(req models.PixChargeRequest, userID uint) (*PixCharge, error) {
	ref := NewReference(req.PaymentType, userID)

	body, err := json.Marshal(gatewayChargeRequest{
		ReferenceID: ref.String(),
		Name:        req.Name,
		Email:       req.Email,
		TaxID:       req.TaxID,
		Amount:      req.Amount,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, s.baseURL+"/v1/pix/charges", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("falha ao contactar gateway PIX: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("gateway PIX retornou status %d", resp.StatusCode)
	}

	var gwResp gatewayChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&gwResp); err != nil {
		return nil, fmt.Errorf("resposta invalida do gateway PIX: %w", err)
	}
	if gwResp.CopyPaste == "" {
		return nil, fmt.Errorf("gateway PIX nao retornou codigo de pagamento")
	}

	png, err := EncodeQRCode(gwResp.CopyPaste)
	if err != nil {
		return nil, err
	}

	return &PixCharge{
		ReferenceID: ref.String(),
		CopyPaste:   gwResp.CopyPaste,
		QRCodePNG:   png,
		Amount:      req.Amount,
		ExpiresAt:   gwResp.ExpiresAt,
	}, nil
}

// EncodeQRCode renders the PIX copy-paste code as a base64 PNG.
func EncodeQRCode(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("falha ao gerar QR code: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

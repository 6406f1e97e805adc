package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// PaymentType distinguishes the two charge kinds the gateway processes
type PaymentType string

const (
	// PaymentTypeSubscription is the worker's recurring platform subscription
	PaymentTypeSubscription PaymentType = "assinatura"
	// PaymentTypeService is a contractor's one-off payment for an order
	PaymentTypeService PaymentType = "servico"
)

// PaymentStatus follows the gateway's charge lifecycle
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pendente"
	PaymentConfirmed PaymentStatus = "confirmado"
	PaymentExpired   PaymentStatus = "expirado"
)

// WorkerSubscription is a row in assinaturas_trabalhador: the worker's paid
// platform access, renewed by confirmed subscription charges.
type WorkerSubscription struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	UserID      uint          `json:"user_id" gorm:"uniqueIndex;not null"`
	ReferenceID string        `json:"reference_id" gorm:"size:100;index;not null"`
	Status      PaymentStatus `json:"status" gorm:"type:varchar(20);not null;default:'pendente'"`
	PaidAt      *time.Time    `json:"pago_em"`
	ExpiresAt   *time.Time    `json:"expira_em"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name for the WorkerSubscription model
func (WorkerSubscription) TableName() string {
	return "assinaturas_trabalhador"
}

// IsCurrent reports whether the subscription grants access right now.
func (s *WorkerSubscription) IsCurrent() bool {
	return s.Status == PaymentConfirmed && s.ExpiresAt != nil && s.ExpiresAt.After(time.Now())
}

// ContractorPayment is a row in pagamentos_contratante: a one-off charge a
// contractor paid for a service order.
type ContractorPayment struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	UserID      uint          `json:"user_id" gorm:"index;not null"`
	ReferenceID string        `json:"reference_id" gorm:"size:100;uniqueIndex;not null"`
	Amount      float64       `json:"valor" gorm:"type:decimal(10,2);not null"`
	Status      PaymentStatus `json:"status" gorm:"type:varchar(20);not null;default:'pendente'"`
	PaidAt      *time.Time    `json:"pago_em"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name for the ContractorPayment model
func (ContractorPayment) TableName() string {
	return "pagamentos_contratante"
}

// PaymentReference encodes the charge kind and payer into the gateway
// reference id. The wire format is "{tipo}_{userID}_{nonce}" with "_" as the
// separator on both the generating and parsing side.
type PaymentReference struct {
	Type   PaymentType
	UserID uint
	Nonce  string
}

// String renders the reference id sent to the gateway.
func (r PaymentReference) String() string {
	return fmt.Sprintf("%s_%d_%s", r.Type, r.UserID, r.Nonce)
}

// ParsePaymentReference decodes a reference id coming back on a webhook.
func ParsePaymentReference(ref string) (PaymentReference, error) {
	parts := strings.SplitN(ref, "_", 3)
	if len(parts) != 3 {
		return PaymentReference{}, fmt.Errorf("reference_id malformado: %q", ref)
	}
	ptype := PaymentType(parts[0])
	if ptype != PaymentTypeSubscription && ptype != PaymentTypeService {
		return PaymentReference{}, fmt.Errorf("tipo de pagamento desconhecido: %q", parts[0])
	}
	userID, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return PaymentReference{}, fmt.Errorf("user id invalido em reference_id %q: %w", ref, err)
	}
	if parts[2] == "" {
		return PaymentReference{}, fmt.Errorf("reference_id sem nonce: %q", ref)
	}
	return PaymentReference{Type: ptype, UserID: uint(userID), Nonce: parts[2]}, nil
}

// PixChargeRequest is the payload for creating a PIX charge.
type PixChargeRequest struct {
	Name        string      `json:"nome" binding:"required"`
	Email       string      `json:"email" binding:"required,email"`
	TaxID       string      `json:"cpf" binding:"required"`
	Amount      float64     `json:"valor" binding:"required,gt=0"`
	PaymentType PaymentType `json:"tipo" binding:"required,oneof=assinatura servico"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the lifecycle status of a service order
type OrderStatus string

const (
	StatusPublicOffer OrderStatus = "oferta_publica"
	StatusPending     OrderStatus = "pendente"
	StatusAccepted    OrderStatus = "aceita"
	StatusInProgress  OrderStatus = "em_andamento"
	StatusCompleted   OrderStatus = "concluida"
	StatusCancelled   OrderStatus = "cancelada"
)

// IsActive reports whether the order is in an active (accepted or running)
// state. Accepted and in-progress orders share the same action set except
// for the explicit start transition, so every routing decision goes through
// this predicate instead of comparing raw status strings.
func (s OrderStatus) IsActive() bool {
	return s == StatusAccepted || s == StatusInProgress
}

// IsTerminal reports whether no further lifecycle transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsOpen reports whether the order is still waiting for a worker.
func (s OrderStatus) IsOpen() bool {
	return s == StatusPublicOffer || s == StatusPending
}

// Role is the relationship of a caller to a given order
type Role string

const (
	RoleContractor Role = "contratante"
	RoleWorker     Role = "trabalhador"
	RoleVisitor    Role = "visitante"
)

// OrderAction is a lifecycle operation a party may perform on an order
type OrderAction string

const (
	ActionEdit     OrderAction = "editar"
	ActionAccept   OrderAction = "aceitar"
	ActionDeny     OrderAction = "negar"
	ActionStart    OrderAction = "iniciar"
	ActionCancel   OrderAction = "cancelar"
	ActionComplete OrderAction = "finalizar"
	ActionRate     OrderAction = "avaliar"
)

// ServiceOrder represents a unit of work ("ordem de serviço").
// WorkerID is null only while the order is a public offer or was returned to
// the pool after a denial; once accepted both party ids are set and stay set.
type ServiceOrder struct {
	ID           uint  `json:"id" gorm:"primaryKey"`
	ContractorID uint  `json:"contratante_id" gorm:"column:contratante_id;not null;index"`
	WorkerID     *uint `json:"trabalhador_id" gorm:"column:trabalhador_id;index"`

	Contractor User  `json:"contratante,omitempty" gorm:"foreignKey:ContractorID"`
	Worker     *User `json:"trabalhador,omitempty" gorm:"foreignKey:WorkerID"`

	Title       string      `json:"titulo" gorm:"column:titulo;size:200;not null"`
	Description string      `json:"descricao" gorm:"column:descricao;type:text"`
	Skill       string      `json:"habilidade" gorm:"column:habilidade;size:100;not null;index"`
	Value       *float64    `json:"valor" gorm:"column:valor;type:decimal(10,2)"`
	StartsAt    *time.Time  `json:"data_inicio" gorm:"column:data_inicio"`
	EndsAt      *time.Time  `json:"data_fim" gorm:"column:data_fim"`
	Status      OrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'oferta_publica';index"`

	// Service address (free-form record, not tied to the contractor profile)
	Street     string `json:"logradouro" gorm:"column:logradouro;size:255"`
	Number     string `json:"numero" gorm:"column:numero;size:20"`
	District   string `json:"bairro" gorm:"column:bairro;size:100"`
	City       string `json:"cidade" gorm:"column:cidade;size:100;not null"`
	State      string `json:"estado" gorm:"column:estado;size:2;not null"`
	PostalCode string `json:"cep" gorm:"column:cep;size:9"`

	// Extra requirement flags
	NeedsTransport bool `json:"precisa_transporte" gorm:"column:precisa_transporte;default:false"`
	NeedsTools     bool `json:"precisa_ferramentas" gorm:"column:precisa_ferramentas;default:false"`
	NeedsMeal      bool `json:"precisa_refeicao" gorm:"column:precisa_refeicao;default:false"`
	NeedsHelper    bool `json:"precisa_ajudante" gorm:"column:precisa_ajudante;default:false"`
	Notes          string `json:"observacoes" gorm:"column:observacoes;type:text"`

	// Post-completion fields, populated only once the matching transition runs
	CancelReason     string `json:"motivo_cancelamento" gorm:"column:motivo_cancelamento;type:text"`
	CompletionReport string `json:"relatorio_conclusao" gorm:"column:relatorio_conclusao;type:text"`

	RatedByContractor bool   `json:"avaliado_pelo_contratante" gorm:"column:avaliado_pelo_contratante;default:false"`
	RatingComment     string `json:"comentario_avaliacao" gorm:"column:comentario_avaliacao;type:text"`
	RatingPunctuality   int  `json:"nota_pontualidade" gorm:"column:nota_pontualidade;check:nota_pontualidade >= 0 AND nota_pontualidade <= 5"`
	RatingCommunication int  `json:"nota_comunicacao" gorm:"column:nota_comunicacao;check:nota_comunicacao >= 0 AND nota_comunicacao <= 5"`
	RatingAttention     int  `json:"nota_atencao_cliente" gorm:"column:nota_atencao_cliente;check:nota_atencao_cliente >= 0 AND nota_atencao_cliente <= 5"`
	RatingDetail        int  `json:"nota_atencao_detalhes" gorm:"column:nota_atencao_detalhes;check:nota_atencao_detalhes >= 0 AND nota_atencao_detalhes <= 5"`
	RatingOrganization  int  `json:"nota_organizacao" gorm:"column:nota_organizacao;check:nota_organizacao >= 0 AND nota_organizacao <= 5"`
	RatingSpeed         int  `json:"nota_velocidade_execucao" gorm:"column:nota_velocidade_execucao;check:nota_velocidade_execucao >= 0 AND nota_velocidade_execucao <= 5"`
	RatingProactivity   int  `json:"nota_proatividade" gorm:"column:nota_proatividade;check:nota_proatividade >= 0 AND nota_proatividade <= 5"`

	AcceptedAt  *time.Time     `json:"aceita_em" gorm:"column:aceita_em"`
	StartedAt   *time.Time     `json:"iniciada_em" gorm:"column:iniciada_em"`
	CompletedAt *time.Time     `json:"concluida_em" gorm:"column:concluida_em"`
	CancelledAt *time.Time     `json:"cancelada_em" gorm:"column:cancelada_em"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name for the ServiceOrder model
func (ServiceOrder) TableName() string {
	return "ordens_de_servico"
}

// RoleFor resolves the caller's relationship to the order.
func (o *ServiceOrder) RoleFor(callerID uint) Role {
	if callerID == o.ContractorID {
		return RoleContractor
	}
	if o.WorkerID != nil && callerID == *o.WorkerID {
		return RoleWorker
	}
	return RoleVisitor
}

// IsParty reports whether the caller is one of the two parties of the order.
// A public offer has no worker yet, so any worker counts as a candidate
// party for the accept action but not for the work room.
func (o *ServiceOrder) IsParty(callerID uint) bool {
	return o.RoleFor(callerID) != RoleVisitor
}

// actionTable maps (status, role) to the allowed lifecycle actions.
var actionTable = map[OrderStatus]map[Role][]OrderAction{
	StatusPublicOffer: {
		RoleContractor: {ActionEdit, ActionCancel},
		RoleVisitor:    {ActionAccept}, // any worker may claim a public offer
	},
	StatusPending: {
		RoleContractor: {ActionEdit, ActionCancel},
		RoleWorker:     {ActionAccept, ActionDeny},
	},
	StatusAccepted: {
		RoleContractor: {ActionCancel, ActionComplete},
		RoleWorker:     {ActionStart, ActionCancel, ActionComplete},
	},
	StatusInProgress: {
		RoleContractor: {ActionCancel, ActionComplete},
		RoleWorker:     {ActionCancel, ActionComplete},
	},
	StatusCompleted: {
		RoleContractor: {ActionRate}, // only while unrated
	},
	StatusCancelled: {},
}

// AllowedActions returns the lifecycle actions the given role may perform on
// an order in the given state. Rating is excluded once the contractor has
// already rated.
func (o *ServiceOrder) AllowedActions(role Role) []OrderAction {
	actions := actionTable[o.Status][role]
	if o.Status == StatusCompleted && o.RatedByContractor {
		return nil
	}
	return actions
}

// Allows reports whether the role may perform the action in the order's
// current state.
func (o *ServiceOrder) Allows(role Role, action OrderAction) bool {
	for _, a := range o.AllowedActions(role) {
		if a == action {
			return true
		}
	}
	return false
}

// ServiceOrderCreate is the payload for creating a service order. WorkerID
// targets a specific professional (status pendente); leaving it unset
// publishes the order as a public offer.
type ServiceOrderCreate struct {
	WorkerID    *uint    `json:"trabalhador_id"`
	Title       string   `json:"titulo" binding:"required,min=3,max=200"`
	Description string   `json:"descricao"`
	Skill       string   `json:"habilidade" binding:"required"`
	Value       *float64 `json:"valor"`
	StartsAt    *time.Time `json:"data_inicio"`
	EndsAt      *time.Time `json:"data_fim"`

	Street     string `json:"logradouro"`
	Number     string `json:"numero"`
	District   string `json:"bairro"`
	City       string `json:"cidade" binding:"required"`
	State      string `json:"estado" binding:"required,len=2"`
	PostalCode string `json:"cep"`

	NeedsTransport bool   `json:"precisa_transporte"`
	NeedsTools     bool   `json:"precisa_ferramentas"`
	NeedsMeal      bool   `json:"precisa_refeicao"`
	NeedsHelper    bool   `json:"precisa_ajudante"`
	Notes          string `json:"observacoes"`
}

// ServiceOrderUpdate is the payload for editing an open order.
type ServiceOrderUpdate struct {
	Title       string   `json:"titulo" binding:"omitempty,min=3,max=200"`
	Description string   `json:"descricao"`
	Skill       string   `json:"habilidade"`
	Value       *float64 `json:"valor"`
	StartsAt    *time.Time `json:"data_inicio"`
	EndsAt      *time.Time `json:"data_fim"`

	Street     string `json:"logradouro"`
	Number     string `json:"numero"`
	District   string `json:"bairro"`
	City       string `json:"cidade"`
	State      string `json:"estado" binding:"omitempty,len=2"`
	PostalCode string `json:"cep"`

	NeedsTransport *bool  `json:"precisa_transporte"`
	NeedsTools     *bool  `json:"precisa_ferramentas"`
	NeedsMeal      *bool  `json:"precisa_refeicao"`
	NeedsHelper    *bool  `json:"precisa_ajudante"`
	Notes          string `json:"observacoes"`
}

// CancelOrderRequest carries the mandatory cancellation justification.
type CancelOrderRequest struct {
	Reason string `json:"motivo" binding:"required"`
}

// CompleteOrderRequest is submitted by the worker closing an order, or by
// the contractor closing and rating in one atomic payload.
type CompleteOrderRequest struct {
	Report string         `json:"relatorio"`
	Rating *RatingPayload `json:"avaliacao"`
}

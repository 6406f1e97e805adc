package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a person registered on the platform ("perfil").
// A user is a contractor by default; owning a ProfessionalProfile makes
// them also offerable as a worker.
type User struct {
	ID                uint    `json:"id" gorm:"primaryKey"`
	FullName          string  `json:"nome_completo" gorm:"column:nome_completo;size:255;not null"`
	Nickname          string  `json:"apelido" gorm:"column:apelido;size:100"`
	Email             string  `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PhoneNumber       string  `json:"telefone" gorm:"column:telefone;size:20"`
	PasswordHash      string  `json:"-" gorm:"size:255;not null"`
	ProfilePictureURL *string `json:"foto_url" gorm:"column:foto_url;size:500"`

	// Address fields used for search and order prefill
	Street     string `json:"logradouro" gorm:"column:logradouro;size:255"`
	Number     string `json:"numero" gorm:"column:numero;size:20"`
	District   string `json:"bairro" gorm:"column:bairro;size:100"`
	City       string `json:"cidade" gorm:"column:cidade;size:100"`
	State      string `json:"estado" gorm:"column:estado;size:2"`
	PostalCode string `json:"cep" gorm:"column:cep;size:9"`

	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Professional *ProfessionalProfile `json:"perfil_profissional,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "perfis"
}

// IsWorker reports whether the user has a professional profile and can be
// assigned to service orders.
func (u *User) IsWorker() bool {
	return u.Professional != nil
}

// BeforeCreate is a GORM hook that runs before creating a user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Nickname == "" {
		u.Nickname = u.FullName
	}
	return nil
}

// UserUpdateRequest is the payload for editing the personal profile.
type UserUpdateRequest struct {
	FullName    string `json:"nome_completo" binding:"omitempty,min=2,max=100"`
	Nickname    string `json:"apelido" binding:"omitempty,max=100"`
	PhoneNumber string `json:"telefone"`
	Street      string `json:"logradouro"`
	Number      string `json:"numero"`
	District    string `json:"bairro"`
	City        string `json:"cidade"`
	State       string `json:"estado" binding:"omitempty,len=2"`
	PostalCode  string `json:"cep"`
}

// PublicProfile is the subset of User safe to show to the other party of an
// order or in search results.
type PublicProfile struct {
	ID                uint                 `json:"id"`
	FullName          string               `json:"nome_completo"`
	Nickname          string               `json:"apelido"`
	PhoneNumber       string               `json:"telefone"`
	City              string               `json:"cidade"`
	State             string               `json:"estado"`
	ProfilePictureURL *string              `json:"foto_url"`
	Professional      *ProfessionalProfile `json:"perfil_profissional,omitempty"`
}

// Public strips private fields (email, address details, password hash).
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:                u.ID,
		FullName:          u.FullName,
		Nickname:          u.Nickname,
		PhoneNumber:       u.PhoneNumber,
		City:              u.City,
		State:             u.State,
		ProfilePictureURL: u.ProfilePictureURL,
		Professional:      u.Professional,
	}
}

package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ProfessionalProfile is the optional worker-facing sub-profile of a user.
// Average rating and review count are denormalized here and refreshed when a
// contractor rates a completed order.
type ProfessionalProfile struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      uint           `json:"user_id" gorm:"uniqueIndex;not null"`
	Title       string         `json:"titulo" gorm:"column:titulo;size:150;not null"`
	Bio         string         `json:"bio" gorm:"type:text"`
	Skills      pq.StringArray `json:"habilidades" gorm:"column:habilidades;type:text[]"`
	Available   bool           `json:"disponivel" gorm:"column:disponivel;default:true"`
	AvgRating   float64        `json:"media_avaliacoes" gorm:"column:media_avaliacoes;type:decimal(3,2);default:0"`
	TotalRatings int           `json:"total_avaliacoes" gorm:"column:total_avaliacoes;default:0"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name for the ProfessionalProfile model
func (ProfessionalProfile) TableName() string {
	return "perfis_profissionais"
}

// HasSkill reports whether the professional lists the given skill tag.
func (p *ProfessionalProfile) HasSkill(skill string) bool {
	for _, s := range p.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// ProfessionalProfileRequest is the payload for creating or updating the
// professional sub-profile.
type ProfessionalProfileRequest struct {
	Title     string   `json:"titulo" binding:"required,min=2,max=150"`
	Bio       string   `json:"bio" binding:"max=2000"`
	Skills    []string `json:"habilidades" binding:"required,min=1"`
	Available *bool    `json:"disponivel"`
}

// Skill is an entry in the seeded skill catalogue used by pickers and search.
type Skill struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"nome" gorm:"column:nome;size:100;uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Skill model
func (Skill) TableName() string {
	return "habilidades"
}

package models

import (
	"time"
)

// ChatMessage is a single message in an order's work room. Messages are
// append-only and immutable; ordering is creation time ascending with the
// numeric id as tiebreaker. UID is a client-visible unique key so receivers
// can drop redelivered events.
type ChatMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UID       string    `json:"uid" gorm:"size:36;uniqueIndex;not null"`
	OrderID   uint      `json:"ordem_id" gorm:"column:ordem_id;not null;index"`
	SenderID  uint      `json:"remetente_id" gorm:"column:remetente_id;not null"`
	Content   string    `json:"conteudo" gorm:"column:conteudo;type:text;not null"`
	CreatedAt time.Time `json:"created_at"`

	Order  ServiceOrder `json:"-" gorm:"foreignKey:OrderID"`
	Sender User         `json:"remetente,omitempty" gorm:"foreignKey:SenderID"`
}

// TableName specifies the table name for the ChatMessage model
func (ChatMessage) TableName() string {
	return "mensagens"
}

// ChatMessageCreate is the payload for sending a message.
type ChatMessageCreate struct {
	Content string `json:"conteudo" binding:"required"`
}

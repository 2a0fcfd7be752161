package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// PaymentEvent is an append-only audit row recorded whenever the
// verifier talks to the gateway, successful or not. Kept separate from
// the booking/purchase rows so the records themselves stay small.
type PaymentEvent struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	PaymentGateway PaymentProvider `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	OrderID        string          `gorm:"type:varchar(100);index" json:"order_id"`
	PaymentID      string          `gorm:"type:varchar(100)" json:"payment_id"`
	Event          string          `gorm:"type:varchar(50)" json:"event"` // e.g. "captured", "signature_mismatch"
	Metadata       json.RawMessage `gorm:"type:jsonb" json:"metadata"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

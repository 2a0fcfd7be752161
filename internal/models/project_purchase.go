package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectPurchase is a project purchase record. One non-failed
// purchase per (user, project) is enforced by the partial unique
// index; a failed attempt frees the slot for a retry.
type ProjectPurchase struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID    string `gorm:"type:varchar(128);index;uniqueIndex:uniq_project_purchase,priority:1,where:status <> 'failed'" json:"user_id"`
	UserEmail string `gorm:"type:varchar(255)" json:"user_email"`
	ProjectID string `gorm:"type:uuid;index;uniqueIndex:uniq_project_purchase,priority:2,where:status <> 'failed'" json:"project_id"`

	Amount   float64 `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency string  `gorm:"type:varchar(10);default:'INR'" json:"currency"`

	Status            PaymentStatus   `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentProvider   PaymentProvider `gorm:"type:varchar(50);default:'razorpay'" json:"payment_provider"`
	RazorpayOrderID   string          `gorm:"type:varchar(100);index" json:"razorpay_order_id"`
	RazorpayPaymentID string          `gorm:"type:varchar(100)" json:"razorpay_payment_id"`
	IdempotencyKey    string          `gorm:"type:varchar(64)" json:"idempotency_key"`
	Metadata          json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	PurchasedAt       *time.Time      `json:"purchased_at"`

	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (p *ProjectPurchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MentorBooking is a mentor-session purchase record. Created pending
// by the order initiator; the partial unique index below guarantees at
// most one non-failed booking per (user, mentor, slot) even under
// concurrent create requests.
type MentorBooking struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID    string `gorm:"type:varchar(128);index;uniqueIndex:uniq_booking_slot,priority:1,where:status <> 'failed'" json:"user_id"`
	UserEmail string `gorm:"type:varchar(255)" json:"user_email"`
	MentorID  string `gorm:"type:uuid;index;uniqueIndex:uniq_booking_slot,priority:2,where:status <> 'failed'" json:"mentor_id"`

	Amount   float64 `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency string  `gorm:"type:varchar(10);default:'INR'" json:"currency"`

	SessionDate     *time.Time `gorm:"uniqueIndex:uniq_booking_slot,priority:3,where:status <> 'failed'" json:"session_date"`
	SessionDuration int        `gorm:"default:60" json:"session_duration"`
	Notes           string     `gorm:"type:text" json:"notes"`

	Status            PaymentStatus   `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentProvider   PaymentProvider `gorm:"type:varchar(50);default:'razorpay'" json:"payment_provider"`
	RazorpayOrderID   string          `gorm:"type:varchar(100);index" json:"razorpay_order_id"`
	RazorpayPaymentID string          `gorm:"type:varchar(100)" json:"razorpay_payment_id"`
	IdempotencyKey    string          `gorm:"type:varchar(64)" json:"idempotency_key"`
	Metadata          json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	PaymentReceivedAt *time.Time      `json:"payment_received_at"`

	Mentor Mentor `gorm:"foreignKey:MentorID" json:"mentor,omitempty"`
}

func (b *MentorBooking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

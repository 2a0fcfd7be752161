package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Mentor is a bookable mentor profile. Read-only from the payment
// flow's perspective; managed elsewhere (admin tooling).
type Mentor struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name        string   `gorm:"type:varchar(255);not null" json:"name"`
	Title       string   `gorm:"type:varchar(255)" json:"title"`
	Company     string   `gorm:"type:varchar(255)" json:"company"`
	Bio         string   `gorm:"type:text" json:"bio"`
	Expertise   []string `gorm:"serializer:json" json:"expertise"`
	ImageURL    string   `gorm:"type:text" json:"image_url"`
	Rating      float64  `json:"rating"`
	Sessions    int      `json:"sessions"`
	Price       float64  `gorm:"type:decimal(15,2)" json:"price"`
	IsAvailable bool     `gorm:"default:true" json:"is_available"`

	// Session duration bounds in minutes; zero means unconstrained.
	MinDuration int `json:"min_duration"`
	MaxDuration int `json:"max_duration"`
}

func (m *Mentor) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is a purchasable project listing. Read-only from the
// payment flow's perspective.
type Project struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Title       string   `gorm:"type:varchar(255);not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	Author      string   `gorm:"type:varchar(255)" json:"author"`
	Category    string   `gorm:"type:varchar(100)" json:"category"`
	Tags        []string `gorm:"serializer:json" json:"tags"`
	ImageURL    string   `gorm:"type:text" json:"image_url"`
	DemoURL     string   `gorm:"type:text" json:"demo_url"`
	GithubURL   string   `gorm:"type:text" json:"github_url"`
	ZipFileURL  string   `gorm:"type:text" json:"zip_file_url"`
	Stars       int      `json:"stars"`
	Price       float64  `gorm:"type:decimal(15,2)" json:"price"`
	IsAvailable bool     `gorm:"default:true" json:"is_available"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

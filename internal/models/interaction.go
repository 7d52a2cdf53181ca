package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Interaction is the audit record of one pipeline run.
type Interaction struct {
	gorm.Model
	ChatID       int64          `gorm:"index;not null"`
	MessageID    int64
	RequestID    string         `gorm:"index"`
	Modality     string         `gorm:"not null"`
	Intent       string
	Confidence   float64        `gorm:"default:0"`
	State        string         `gorm:"not null"`
	ErrorKind    string
	ErrorDetail  string
	MissingSlots pq.StringArray `gorm:"type:text[]"`
	Degraded     bool           `gorm:"default:false"`
	DurationMs   int64
}

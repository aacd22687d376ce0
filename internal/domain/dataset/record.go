package dataset

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Record holds an entire parsed table as a JSON array of row-documents.
// Filename is indexed but deliberately not unique.
type Record struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Filename  string         `gorm:"size:255;index;column:filename" json:"filename"`
	Data      datatypes.JSON `gorm:"column:data" json:"data"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (Record) TableName() string { return "data_record" }

func (r *Record) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Document is a single row-document.
type Document = map[string]any

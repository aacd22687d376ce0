package dataset

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Metadata is the one-row-per-upload description of a dataset. Filename is
// unique here and only here.
type Metadata struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Filename   string         `gorm:"size:255;uniqueIndex;not null;column:filename" json:"filename"`
	Schema     datatypes.JSON `gorm:"column:schema" json:"schema"`
	Columns    datatypes.JSON `gorm:"column:columns" json:"columns"`
	RowCount   int            `gorm:"not null;default:0;column:row_count" json:"row_count"`
	ArchiveKey string         `gorm:"size:512;column:archive_key" json:"archive_key,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
}

func (Metadata) TableName() string { return "data_set_metadata" }

func (m *Metadata) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ColumnTypes decodes the stored column-name to type-label mapping.
func (m *Metadata) ColumnTypes() (map[string]string, error) {
	out := map[string]string{}
	if m == nil || len(m.Schema) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(m.Schema, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ColumnNames decodes the stored header order.
func (m *Metadata) ColumnNames() ([]string, error) {
	var out []string
	if m == nil || len(m.Columns) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(m.Columns, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HasColumn reports whether name is a column of the dataset.
func (m *Metadata) HasColumn(name string) (bool, error) {
	types, err := m.ColumnTypes()
	if err != nil {
		return false, err
	}
	_, ok := types[name]
	return ok, nil
}

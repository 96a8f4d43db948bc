package model

import (
	"time"

	"gorm.io/datatypes"
)

// ImportBatch records one bulk hierarchy import and what it changed
type ImportBatch struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	BatchID         string         `gorm:"type:varchar(36);not null;uniqueIndex" json:"batch_id"`
	AdminID         *uint          `gorm:"index" json:"admin_id,omitempty"`
	FileName        string         `gorm:"type:varchar(255)" json:"file_name"`
	ArchiveKey      string         `gorm:"type:varchar(512)" json:"archive_key,omitempty"`
	TotalRows       int            `json:"total_rows"`
	Added           int            `json:"added"`
	NewUniversities int            `json:"new_universities"`
	NewColleges     int            `json:"new_colleges"`
	Skipped         int            `json:"skipped"`
	Warnings        datatypes.JSON `json:"warnings"`
	CreatedAt       time.Time      `json:"created_at"`
}

// TableName specifies the table name for ImportBatch
func (ImportBatch) TableName() string {
	return "import_batches"
}

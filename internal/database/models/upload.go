package models

import "github.com/google/uuid"

// Upload is the metadata record for an object stored in S3. The bytes
// themselves never touch the database.
type Upload struct {
	Base
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	UploadedByID   *uuid.UUID `gorm:"type:uuid" json:"uploaded_by,omitempty"`
	FileName       string     `gorm:"not null" json:"file_name"`
	ContentType    string     `json:"content_type,omitempty"`
	SizeBytes      int64      `json:"size_bytes"`
	ObjectKey      string     `gorm:"uniqueIndex;not null" json:"-"`
}

func (Upload) TableName() string {
	return "uploads"
}

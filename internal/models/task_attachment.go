package model

import "time"

type TaskAttachment struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	TaskID     string    `gorm:"size:36;not null;index" json:"task_id"`
	FileURL    string    `gorm:"not null" json:"file_url"`
	UploadedBy string    `gorm:"size:36;not null" json:"uploaded_by"`
	Timestamp  time.Time `gorm:"not null" json:"timestamp"`
}

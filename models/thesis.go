package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ThesisStatus string

const (
	ThesisPending  ThesisStatus = "pending"
	ThesisApproved ThesisStatus = "approved"
	ThesisRejected ThesisStatus = "rejected"
)

type AnalysisStatus string

const (
	AnalysisPending  AnalysisStatus = "pending"
	AnalysisComplete AnalysisStatus = "complete"
	AnalysisFailed   AnalysisStatus = "failed"
)

type Thesis struct {
	ID             uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID                    `gorm:"type:uuid;not null" json:"user_id"` // chủ sở hữu (người nộp)
	User           User                         `gorm:"constraint:OnDelete:CASCADE;" json:"user,omitempty"`
	Title          string                       `gorm:"size:255;not null" json:"title"`
	Abstract       string                       `gorm:"type:text;not null" json:"abstract"`
	Keywords       datatypes.JSONSlice[string]  `json:"keywords"`
	FilePath       string                       `gorm:"type:text;not null" json:"file_path"`
	FileName       string                       `gorm:"size:255;not null" json:"file_name"`
	AuthorName     string                       `gorm:"size:150;not null" json:"author_name"`
	Department     string                       `gorm:"size:150;not null" json:"department"`
	Supervisor     string                       `gorm:"size:150;not null" json:"supervisor"`
	SubmissionYear int                          `gorm:"not null" json:"submission_year"`
	Status         ThesisStatus                 `gorm:"type:varchar(20);not null" json:"status"` // pending | approved | rejected
	IsPublic       bool                         `json:"is_public"`
	SubmissionDate time.Time                    `gorm:"autoCreateTime" json:"submission_date"`
	UpdatedAt      time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`

	// Kết quả phân tích AI (ghi bởi worker, không ghi từ request)
	AISummary      string                       `gorm:"type:text" json:"ai_summary"`
	AIKeywords     datatypes.JSONSlice[string]  `json:"ai_keywords"`
	AISentiment    string                       `gorm:"size:50" json:"ai_sentiment"`
	AnalysisStatus AnalysisStatus               `gorm:"type:varchar(20);not null" json:"analysis_status"` // pending | complete | failed
}

// BeforeCreate sinh UUID phía app để chạy được cả trên Postgres lẫn SQLite (test)
func (t *Thesis) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProcessingJobStatus represents the status of a processing job
type ProcessingJobStatus string

const (
	JobStatusPending    ProcessingJobStatus = "pending"
	JobStatusInProgress ProcessingJobStatus = "in_progress"
	JobStatusCompleted  ProcessingJobStatus = "completed"
	JobStatusFailed     ProcessingJobStatus = "failed"
)

// ProcessingStep represents a step in the consolidation pipeline
type ProcessingStep struct {
	Name        string `json:"name"`
	Status      string `json:"status"` // "pending", "in_progress", "completed", "failed"
	Description string `json:"description,omitempty"`
}

// ProcessingSteps represents the ordered list of pipeline steps
type ProcessingSteps []ProcessingStep

// Value implements driver.Valuer for JSONB
func (p ProcessingSteps) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB
func (p *ProcessingSteps) Scan(value interface{}) error {
	if value == nil {
		*p = make(ProcessingSteps, 0)
		return nil
	}

	// Handle different types that pgx might return for JSONB
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*p = make(ProcessingSteps, 0)
		return nil
	}

	if len(bytes) == 0 {
		*p = make(ProcessingSteps, 0)
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// ProcessingJob tracks one run of the segmentation/extraction/consolidation
// pipeline for a norma
type ProcessingJob struct {
	ID           uuid.UUID           `json:"id"`
	NormaID      uuid.UUID           `json:"norma_id"`
	Status       ProcessingJobStatus `json:"status"`
	CurrentStep  *string             `json:"current_step,omitempty"`
	Steps        ProcessingSteps     `json:"steps"`
	Force        bool                `json:"force"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
}

package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/tax-parser/constants"
)

// TaxForm represents an uploaded tax form for data transfer between layers.
type TaxForm struct {
	ID           uuid.UUID            `json:"id"`
	FileName     string               `json:"file_name"`
	FilePath     string               `json:"file_path"`
	Status       constants.FormStatus `json:"status"`
	ErrorMessage *string              `json:"error_message,omitempty"`
	UploadedAt   time.Time            `json:"uploaded_at"`
	ParsedAt     *time.Time           `json:"parsed_at,omitempty"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is one uploaded artifact and everything derived from it.
type Document struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	OwnerID      uuid.UUID  `json:"owner_id" db:"owner_id"`
	OriginalName string     `json:"original_name" db:"original_name"`
	MimeType     string     `json:"mime_type" db:"mime_type"`
	SizeBytes    int64      `json:"size_bytes" db:"size_bytes"`
	FilePath     string     `json:"file_path,omitempty" db:"file_path"`
	Status       string     `json:"status" db:"status"`
	Kind         string     `json:"document_type,omitempty" db:"document_type"`
	Body         string     `json:"-" db:"body"`
	Entities     EntityMap  `json:"extracted_data,omitempty" db:"extracted_data"`
	TotalCents   *int64     `json:"total_cents,omitempty" db:"total_cents"`
	UploadedAt   time.Time  `json:"uploaded_at" db:"uploaded_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty" db:"processed_at"`
}

// Status values. Transitions are one-directional:
// pending -> processing -> completed|failed.
const (
	DocStatusPending    = "pending"
	DocStatusProcessing = "processing"
	DocStatusCompleted  = "completed"
	DocStatusFailed     = "failed"
)

// Document kinds. KindOther is the default when neither the classifier
// nor the keyword heuristic recognizes the document.
const (
	KindInvoice   = "invoice"
	KindReceipt   = "receipt"
	KindContract  = "contract"
	KindStatement = "financial_statement"
	KindOther     = "other"
)

// KnownKinds lists the closed kind enumeration.
func KnownKinds() []string {
	return []string{KindInvoice, KindReceipt, KindContract, KindStatement, KindOther}
}

func IsKnownKind(kind string) bool {
	for _, k := range KnownKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

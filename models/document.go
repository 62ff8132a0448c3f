package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document lifecycle states. A document is "parked" until it is attached to
// a claim; both stages live in one collection distinguished by this field.
const (
	DocumentStatusParked   = "parked"
	DocumentStatusAttached = "attached"
)

// Text extraction states for the ingest pipeline
const (
	ExtractionPending    = "pending"
	ExtractionProcessing = "processing"
	ExtractionCompleted  = "completed"
	ExtractionFailed     = "failed"
)

// Document represents an uploaded claim document in either lifecycle stage
type Document struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ExternalID   string              `bson:"external_id" json:"external_id"` // caller-facing identifier
	Filename     string              `bson:"filename" json:"filename"`
	OriginalName string              `bson:"original_name" json:"original_name"`
	FileKey      string              `bson:"file_key" json:"file_key"` // storage key
	FileHash     string              `bson:"file_hash,omitempty" json:"-"`
	MimeType     string              `bson:"mime_type,omitempty" json:"mime_type,omitempty"`
	Category     string              `bson:"category,omitempty" json:"category,omitempty"`
	Status       string              `bson:"status" json:"status"` // parked, attached
	ClaimID      *primitive.ObjectID `bson:"claim_id,omitempty" json:"claim_id,omitempty"`

	// Extracted text, brotli-compressed at rest
	CompressedText  []byte `bson:"compressed_text,omitempty" json:"-"`
	TextCompressed  bool   `bson:"text_compressed,omitempty" json:"-"`
	ExtractionState string `bson:"extraction_state" json:"extraction_state"`
	ExtractionError string `bson:"extraction_error,omitempty" json:"extraction_error,omitempty"`

	Entities *EntityBundle `bson:"entities,omitempty" json:"entities,omitempty"`

	MatchHistory []MatchHistoryEntry `bson:"match_history,omitempty" json:"match_history,omitempty"`
	BestMatch    *BestMatch          `bson:"best_match,omitempty" json:"best_match,omitempty"`

	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// EntityBundle is the NER output for one document: per-field candidate value
// lists in extraction order. Any field may be empty and duplicates are
// allowed. Immutable once produced.
type EntityBundle struct {
	ClaimNumbers       []string `bson:"claim_numbers,omitempty" json:"claim_numbers,omitempty"`
	ClaimantNames      []string `bson:"claimant_names,omitempty" json:"claimant_names,omitempty"`
	EmployerNames      []string `bson:"employer_names,omitempty" json:"employer_names,omitempty"`
	InsurerNames       []string `bson:"insurer_names,omitempty" json:"insurer_names,omitempty"`
	ProviderNames      []string `bson:"provider_names,omitempty" json:"provider_names,omitempty"`
	PhysicianNames     []string `bson:"physician_names,omitempty" json:"physician_names,omitempty"`
	DatesOfBirth       []string `bson:"dates_of_birth,omitempty" json:"dates_of_birth,omitempty"`
	DatesOfInjury      []string `bson:"dates_of_injury,omitempty" json:"dates_of_injury,omitempty"`
	InjuryDescriptions []string `bson:"injury_descriptions,omitempty" json:"injury_descriptions,omitempty"`
}

// IsEmpty reports whether the bundle carries no candidate values at all
func (b *EntityBundle) IsEmpty() bool {
	if b == nil {
		return true
	}
	return len(b.ClaimNumbers) == 0 && len(b.ClaimantNames) == 0 &&
		len(b.EmployerNames) == 0 && len(b.InsurerNames) == 0 &&
		len(b.ProviderNames) == 0 && len(b.PhysicianNames) == 0 &&
		len(b.DatesOfBirth) == 0 && len(b.DatesOfInjury) == 0 &&
		len(b.InjuryDescriptions) == 0
}

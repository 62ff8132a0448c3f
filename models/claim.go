package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Claim represents a workers'-compensation claim record
type Claim struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClaimNumber       string             `bson:"claimnumber" json:"claimnumber"`
	Name              string             `bson:"name" json:"name"`
	Date              *time.Time         `bson:"date,omitempty" json:"date,omitempty"`
	Adjuster          string             `bson:"adjuster,omitempty" json:"adjuster,omitempty"`
	EmployerName      string             `bson:"employer_name,omitempty" json:"employer_name,omitempty"`
	PhysicianName     string             `bson:"physician_name,omitempty" json:"physician_name,omitempty"`
	InjuryDescription string             `bson:"injury_description,omitempty" json:"injury_description,omitempty"`
	Documents         []ClaimDocument    `bson:"documents,omitempty" json:"documents,omitempty"`
	MatchHistory      []MatchHistoryEntry `bson:"match_history,omitempty" json:"match_history,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}

// ClaimDocument is a document reference embedded in a claim
type ClaimDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ExternalID string             `bson:"external_id,omitempty" json:"external_id,omitempty"`
	FileName   string             `bson:"file_name" json:"file_name"`
	FileKey    string             `bson:"file_key" json:"file_key"`
	Category   string             `bson:"category,omitempty" json:"category,omitempty"`
	UploadedAt time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}

// ClaimSummary is the minimal claim projection returned with match results
type ClaimSummary struct {
	ID          string     `bson:"id" json:"id"`
	ClaimNumber string     `bson:"claimnumber" json:"claimnumber"`
	Name        string     `bson:"name" json:"name"`
	Date        *time.Time `bson:"date,omitempty" json:"date,omitempty"`
	Adjuster    string     `bson:"adjuster,omitempty" json:"adjuster,omitempty"`
}

// Summary returns the display projection of a claim
func (c *Claim) Summary() ClaimSummary {
	return ClaimSummary{
		ID:          c.ID.Hex(),
		ClaimNumber: c.ClaimNumber,
		Name:        c.Name,
		Date:        c.Date,
		Adjuster:    c.Adjuster,
	}
}

// MatchHistoryEntry is one persisted match attempt. Entries are append-only
// and never mutated after creation.
type MatchHistoryEntry struct {
	MatchedAt     time.Time          `bson:"matched_at" json:"matched_at"`
	Score         float64            `bson:"score" json:"score"`
	MatchedFields []string           `bson:"matched_fields" json:"matched_fields"`
	Confidence    map[string]float64 `bson:"confidence" json:"confidence"`
	CounterpartID string             `bson:"counterpart_id" json:"counterpart_id"`
	IsRecommended bool               `bson:"is_recommended" json:"is_recommended"`
}

// BestMatch caches the highest-scoring history entry for O(1) retrieval.
// It is derived state: recomputed by comparison on every append, never by
// re-scanning history.
type BestMatch struct {
	Score     float64   `bson:"score" json:"score"`
	ClaimID   string    `bson:"claim_id" json:"claim_id"`
	MatchedAt time.Time `bson:"matched_at" json:"matched_at"`
}

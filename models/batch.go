package models

import "time"

// Batch job states
const (
	BatchStatusCreated   = "created"
	BatchStatusRunning   = "running"
	BatchStatusCompleted = "completed"
	BatchStatusFailed    = "failed" // every document in the batch failed
)

// BatchJob tracks one bulk-matching run. Mutated incrementally as chunks
// complete; guarded by the owning service's mutex.
type BatchJob struct {
	ID            string         `json:"batch_id"`
	Status        string         `json:"status"`
	Total         int            `json:"total"`
	Processed     int            `json:"processed"`
	Success       []BatchSuccess `json:"success"`
	Failed        []BatchFailure `json:"failed"`
	InProgress    bool           `json:"in_progress"`
	InProgressIDs []string       `json:"in_progress_ids,omitempty"`
	MinScore      float64        `json:"min_score"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       *time.Time     `json:"end_time,omitempty"`
	RetainUntil   time.Time      `json:"-"`
}

// BatchSuccess records one document that produced at least one match at or
// above the batch minimum score
type BatchSuccess struct {
	DocumentID string       `json:"document_id"`
	TopScore   float64      `json:"top_score"`
	MatchCount int          `json:"match_count"`
	Matches    []BatchMatch `json:"matches"`
}

// BatchMatch is the projection of one recorded match kept on the job, so
// batch reports read from the job instead of re-querying histories.
type BatchMatch struct {
	ClaimID       string   `json:"claim_id"`
	ClaimNumber   string   `json:"claim_number"`
	ClaimantName  string   `json:"claimant_name"`
	Score         float64  `json:"score"`
	IsRecommended bool     `json:"is_recommended"`
	MatchedFields []string `json:"matched_fields"`
}

// BatchFailure records one document that could not be matched. Failures are
// data, not control flow: they never abort sibling documents.
type BatchFailure struct {
	DocumentID string `json:"document_id"`
	Reason     string `json:"reason"`
}

// Snapshot returns a deep copy safe to hand to a caller while the job is
// still being mutated by worker goroutines. Callers must hold the owning
// service's lock. Success entries are never mutated after append, so their
// inner slices are shared.
func (j *BatchJob) Snapshot() BatchJob {
	cp := *j
	cp.Success = append([]BatchSuccess(nil), j.Success...)
	cp.Failed = append([]BatchFailure(nil), j.Failed...)
	cp.InProgressIDs = append([]string(nil), j.InProgressIDs...)
	if j.EndTime != nil {
		end := *j.EndTime
		cp.EndTime = &end
	}
	return cp
}

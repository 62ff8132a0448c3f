package matching

import "errors"

// Sentinel errors for the matching engine and its collaborators. Routes map
// these onto HTTP status codes; the batch orchestrator records them as
// per-document failure reasons.
var (
	ErrNoEntities       = errors.New("no entities extracted")
	ErrDocumentNotFound = errors.New("document not found")
	ErrClaimNotFound    = errors.New("claim not found")
	ErrBatchNotFound    = errors.New("batch not found")
	ErrExtractionFailed = errors.New("entity extraction failed")
)

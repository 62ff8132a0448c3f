package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"claims-intake-platform/internal/logger"
	"claims-intake-platform/internal/matching"
	"claims-intake-platform/internal/telemetry"
	"claims-intake-platform/models"

	"github.com/google/uuid"
)

// documentBatchStore is the slice of DocumentService the batch runner needs.
type documentBatchStore interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.Document, error)
}

// batchMatcher runs the matching engine for one document's entities.
type batchMatcher interface {
	FindMatches(ctx context.Context, bundle *models.EntityBundle, minScore float64) ([]matching.MatchResult, error)
}

// batchRecorder persists match results for one document.
type batchRecorder interface {
	RecordAll(ctx context.Context, documentExternalID string, results []matching.MatchResult) error
}

// BatchService matches many documents in one job. Documents are processed in
// fixed-size chunks; documents within a chunk run concurrently, chunks run
// one after another, so at most chunkSize documents are in flight. One
// document failing never stops the rest of the job.
type BatchService struct {
	mu   sync.RWMutex
	jobs map[string]*models.BatchJob

	documents documentBatchStore
	matcher   batchMatcher
	recorder  batchRecorder
	metrics   *telemetry.Metrics

	chunkSize  int
	docTimeout time.Duration
	retention  time.Duration
}

type BatchOptions struct {
	ChunkSize       int
	DocumentTimeout time.Duration
	Retention       time.Duration
	Metrics         *telemetry.Metrics
}

func NewBatchService(documents *DocumentService, matcher *matching.Matcher, recorder *MatchRecorder, opts BatchOptions) *BatchService {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 5
	}
	if opts.DocumentTimeout <= 0 {
		opts.DocumentTimeout = 30 * time.Second
	}
	if opts.Retention <= 0 {
		opts.Retention = 24 * time.Hour
	}
	return &BatchService{
		jobs:       make(map[string]*models.BatchJob),
		documents:  documents,
		matcher:    matcher,
		recorder:   recorder,
		metrics:    opts.Metrics,
		chunkSize:  opts.ChunkSize,
		docTimeout: opts.DocumentTimeout,
		retention:  opts.Retention,
	}
}

// Start registers a new batch job and begins processing in the background.
// The returned snapshot carries the job id callers poll with.
func (s *BatchService) Start(documentIDs []string, minScore float64) (models.BatchJob, error) {
	if len(documentIDs) == 0 {
		return models.BatchJob{}, fmt.Errorf("batch requires at least one document id")
	}
	if minScore < 0 {
		minScore = 0
	}

	job := &models.BatchJob{
		ID:          uuid.NewString(),
		Status:      models.BatchStatusCreated,
		Total:       len(documentIDs),
		Success:     []models.BatchSuccess{},
		Failed:      []models.BatchFailure{},
		InProgress:  true,
		MinScore:    minScore,
		StartTime:   time.Now(),
		RetainUntil: time.Now().Add(s.retention),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	go s.run(job.ID, documentIDs, minScore)

	return job.Snapshot(), nil
}

// Status returns a snapshot of the job's current state
func (s *BatchService) Status(jobID string) (models.BatchJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return models.BatchJob{}, matching.ErrBatchNotFound
	}
	return job.Snapshot(), nil
}

// Sweep evicts finished jobs past their retention window. Wired to a cron
// schedule at startup.
func (s *BatchService) Sweep() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if job.EndTime != nil && now.After(job.RetainUntil) {
			delete(s.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		logger.Info("swept expired batch jobs", "removed", removed, "remaining", len(s.jobs))
	}
	return removed
}

func (s *BatchService) run(jobID string, documentIDs []string, minScore float64) {
	s.setStatus(jobID, models.BatchStatusRunning)
	logger.Info("batch started", "batch_id", jobID, "total", len(documentIDs))

	for start := 0; start < len(documentIDs); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(documentIDs) {
			end = len(documentIDs)
		}
		chunk := documentIDs[start:end]

		var wg sync.WaitGroup
		for _, docID := range chunk {
			wg.Add(1)
			go func(docID string) {
				defer wg.Done()
				s.processDocument(jobID, docID, minScore)
			}(docID)
		}
		wg.Wait()
	}

	s.finish(jobID)
}

func (s *BatchService) processDocument(jobID, docID string, minScore float64) {
	s.markInProgress(jobID, docID, true)
	defer s.markInProgress(jobID, docID, false)

	ctx, cancel := context.WithTimeout(context.Background(), s.docTimeout)
	defer cancel()

	doc, err := s.documents.FindByExternalID(ctx, docID)
	if err != nil {
		s.recordFailure(jobID, docID, fmt.Sprintf("document lookup failed: %v", err))
		return
	}
	if doc.Entities == nil || doc.Entities.IsEmpty() {
		s.recordFailure(jobID, docID, "document has no extracted entities")
		return
	}

	results, err := s.matcher.FindMatches(ctx, doc.Entities, minScore)
	if err != nil {
		s.recordFailure(jobID, docID, fmt.Sprintf("matching failed: %v", err))
		return
	}
	if len(results) == 0 {
		s.recordFailure(jobID, docID, "no matches above minimum score")
		return
	}

	if err := s.recorder.RecordAll(ctx, docID, results); err != nil {
		s.recordFailure(jobID, docID, fmt.Sprintf("failed to record matches: %v", err))
		return
	}

	s.recordSuccess(jobID, docID, results)
}

func (s *BatchService) recordSuccess(jobID, docID string, results []matching.MatchResult) {
	matches := make([]models.BatchMatch, len(results))
	for i, r := range results {
		matches[i] = models.BatchMatch{
			ClaimID:       r.Claim.ID,
			ClaimNumber:   r.Claim.ClaimNumber,
			ClaimantName:  r.Claim.Name,
			Score:         r.Score,
			IsRecommended: r.IsRecommended,
			MatchedFields: r.MatchedFields,
		}
	}
	topScore := 0.0
	if len(results) > 0 {
		topScore = results[0].Score
	}
	if s.metrics != nil {
		s.metrics.RecordBatchDocument("success")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	job.Processed++
	job.Success = append(job.Success, models.BatchSuccess{
		DocumentID: docID,
		TopScore:   topScore,
		MatchCount: len(matches),
		Matches:    matches,
	})
}

func (s *BatchService) recordFailure(jobID, docID, reason string) {
	logger.Warn("batch document failed", "batch_id", jobID, "document_id", docID, "reason", reason)
	if s.metrics != nil {
		s.metrics.RecordBatchDocument("failure")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	job.Processed++
	job.Failed = append(job.Failed, models.BatchFailure{
		DocumentID: docID,
		Reason:     reason,
	})
}

func (s *BatchService) markInProgress(jobID, docID string, inProgress bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	if inProgress {
		job.InProgressIDs = append(job.InProgressIDs, docID)
		return
	}
	for i, id := range job.InProgressIDs {
		if id == docID {
			job.InProgressIDs = append(job.InProgressIDs[:i], job.InProgressIDs[i+1:]...)
			break
		}
	}
}

func (s *BatchService) setStatus(jobID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		job.Status = status
	}
}

func (s *BatchService) finish(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	now := time.Now()
	job.EndTime = &now
	job.InProgress = false
	job.RetainUntil = now.Add(s.retention)
	if len(job.Failed) == job.Total {
		job.Status = models.BatchStatusFailed
	} else {
		job.Status = models.BatchStatusCompleted
	}
	logger.Info("batch finished",
		"batch_id", jobID,
		"status", job.Status,
		"succeeded", len(job.Success),
		"failed", len(job.Failed))
}

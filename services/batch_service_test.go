package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"claims-intake-platform/internal/matching"
	"claims-intake-platform/models"
)

type fakeDocumentStore struct {
	mu   sync.Mutex
	docs map[string]*models.Document
}

func (f *fakeDocumentStore) FindByExternalID(ctx context.Context, externalID string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[externalID]
	if !ok {
		return nil, matching.ErrDocumentNotFound
	}
	return doc, nil
}

type fakeMatcher struct {
	mu      sync.Mutex
	results []matching.MatchResult
	err     error
	calls   int
}

func (f *fakeMatcher) FindMatches(ctx context.Context, bundle *models.EntityBundle, minScore float64) ([]matching.MatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.results, f.err
}

type fakeRecorder struct {
	mu       sync.Mutex
	recorded map[string][]matching.MatchResult
	err      error
}

func (f *fakeRecorder) RecordAll(ctx context.Context, documentExternalID string, results []matching.MatchResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.recorded == nil {
		f.recorded = map[string][]matching.MatchResult{}
	}
	f.recorded[documentExternalID] = results
	return nil
}

func docWithEntities(id string) *models.Document {
	return &models.Document{
		ExternalID: id,
		Entities:   &models.EntityBundle{ClaimNumbers: []string{"WC-2024-1001"}},
	}
}

func newTestBatchService(docs *fakeDocumentStore, m *fakeMatcher, r *fakeRecorder) *BatchService {
	return &BatchService{
		jobs:       make(map[string]*models.BatchJob),
		documents:  docs,
		matcher:    m,
		recorder:   r,
		chunkSize:  5,
		docTimeout: 5 * time.Second,
		retention:  time.Hour,
	}
}

func waitForBatch(t *testing.T, s *BatchService, jobID string) models.BatchJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := s.Status(jobID)
		if err != nil {
			t.Fatalf("status error: %v", err)
		}
		if job.EndTime != nil {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("batch did not finish in time")
	return models.BatchJob{}
}

func TestBatchProcessesEveryDocument(t *testing.T) {
	docs := &fakeDocumentStore{docs: map[string]*models.Document{}}
	ids := []string{"d1", "d2", "d3", "d4", "d5", "d6", "d7"}
	for _, id := range ids {
		docs.docs[id] = docWithEntities(id)
	}
	m := &fakeMatcher{results: []matching.MatchResult{{Score: 50}}}
	r := &fakeRecorder{}
	s := newTestBatchService(docs, m, r)

	job, err := s.Start(ids, 0)
	if err != nil {
		t.Fatalf("start error: %v", err)
	}

	final := waitForBatch(t, s, job.ID)
	if final.Status != models.BatchStatusCompleted {
		t.Errorf("status = %s, want %s", final.Status, models.BatchStatusCompleted)
	}
	if final.Processed != len(ids) {
		t.Errorf("processed = %d, want %d", final.Processed, len(ids))
	}
	if got := len(final.Success) + len(final.Failed); got != len(ids) {
		t.Errorf("success+failed = %d, want %d", got, len(ids))
	}
	if len(final.InProgressIDs) != 0 {
		t.Errorf("in-progress not drained: %v", final.InProgressIDs)
	}
}

func TestBatchInProgressFlagLifecycle(t *testing.T) {
	docs := &fakeDocumentStore{docs: map[string]*models.Document{
		"d1": docWithEntities("d1"),
		"d2": docWithEntities("d2"),
	}}
	m := &fakeMatcher{results: []matching.MatchResult{{Score: 50}}}
	s := newTestBatchService(docs, m, &fakeRecorder{})

	job, err := s.Start([]string{"d1", "d2"}, 0)
	if err != nil {
		t.Fatalf("start error: %v", err)
	}
	if !job.InProgress {
		t.Error("accepted job not flagged in progress")
	}

	final := waitForBatch(t, s, job.ID)
	if final.InProgress {
		t.Error("finished job still flagged in progress")
	}
	if final.Processed != final.Total || len(final.Success)+len(final.Failed) != final.Total {
		t.Errorf("finished job incomplete: processed=%d success=%d failed=%d total=%d",
			final.Processed, len(final.Success), len(final.Failed), final.Total)
	}
}

func TestBatchZeroMatchesIsFailure(t *testing.T) {
	docs := &fakeDocumentStore{docs: map[string]*models.Document{
		"d1": docWithEntities("d1"),
	}}
	m := &fakeMatcher{results: []matching.MatchResult{}} // everything below min score
	r := &fakeRecorder{}
	s := newTestBatchService(docs, m, r)

	job, err := s.Start([]string{"d1"}, 40)
	if err != nil {
		t.Fatalf("start error: %v", err)
	}

	final := waitForBatch(t, s, job.ID)
	if len(final.Success) != 0 {
		t.Errorf("successes = %d, want 0", len(final.Success))
	}
	if len(final.Failed) != 1 {
		t.Fatalf("failures = %d, want 1", len(final.Failed))
	}
	if final.Failed[0].Reason != "no matches above minimum score" {
		t.Errorf("failure reason = %q, want %q",
			final.Failed[0].Reason, "no matches above minimum score")
	}
	if len(r.recorded) != 0 {
		t.Errorf("empty result set was recorded against histories")
	}
}

func TestBatchSuccessCarriesMatchProjection(t *testing.T) {
	docs := &fakeDocumentStore{docs: map[string]*models.Document{
		"d1": docWithEntities("d1"),
	}}
	m := &fakeMatcher{results: []matching.MatchResult{
		{Score: 85, IsRecommended: true, MatchedFields: []string{matching.FieldClaimNumber},
			Claim: models.ClaimSummary{ID: "c1", ClaimNumber: "WC-2024-1001", Name: "Michael Thompson"}},
		{Score: 45, Claim: models.ClaimSummary{ID: "c2", ClaimNumber: "WC-2024-1002"}},
	}}
	s := newTestBatchService(docs, m, &fakeRecorder{})

	job, err := s.Start([]string{"d1"}, 0)
	if err != nil {
		t.Fatalf("start error: %v", err)
	}

	final := waitForBatch(t, s, job.ID)
	if len(final.Success) != 1 {
		t.Fatalf("successes = %d, want 1", len(final.Success))
	}
	success := final.Success[0]
	if success.TopScore != 85 {
		t.Errorf("top score = %.2f, want 85", success.TopScore)
	}
	if success.MatchCount != 2 || len(success.Matches) != 2 {
		t.Fatalf("match count = %d (%d entries), want 2", success.MatchCount, len(success.Matches))
	}
	if success.Matches[0].ClaimNumber != "WC-2024-1001" || success.Matches[0].ClaimantName != "Michael Thompson" {
		t.Errorf("top match projection = %+v", success.Matches[0])
	}
	if !success.Matches[0].IsRecommended || success.Matches[1].IsRecommended {
		t.Error("recommendation flags not carried into projection")
	}
}

func TestBatchPartialFailure(t *testing.T) {
	docs := &fakeDocumentStore{docs: map[string]*models.Document{
		"good-1": docWithEntities("good-1"),
		"good-2": docWithEntities("good-2"),
		"empty":  {ExternalID: "empty"}, // no entities
	}}
	m := &fakeMatcher{results: []matching.MatchResult{{Score: 75}}}
	r := &fakeRecorder{}
	s := newTestBatchService(docs, m, r)

	job, err := s.Start([]string{"good-1", "missing", "empty", "good-2"}, 0)
	if err != nil {
		t.Fatalf("start error: %v", err)
	}

	final := waitForBatch(t, s, job.ID)
	if final.Status != models.BatchStatusCompleted {
		t.Errorf("status = %s, want %s (partial failure is not batch failure)",
			final.Status, models.BatchStatusCompleted)
	}
	if len(final.Success) != 2 {
		t.Errorf("successes = %d, want 2", len(final.Success))
	}
	if len(final.Failed) != 2 {
		t.Errorf("failures = %d, want 2", len(final.Failed))
	}
	for _, failure := range final.Failed {
		if failure.Reason == "" {
			t.Errorf("failure %s has no reason", failure.DocumentID)
		}
	}
}

func TestBatchAllFailed(t *testing.T) {
	docs := &fakeDocumentStore{docs: map[string]*models.Document{}}
	m := &fakeMatcher{}
	r := &fakeRecorder{}
	s := newTestBatchService(docs, m, r)

	job, err := s.Start([]string{"a", "b"}, 0)
	if err != nil {
		t.Fatalf("start error: %v", err)
	}

	final := waitForBatch(t, s, job.ID)
	if final.Status != models.BatchStatusFailed {
		t.Errorf("status = %s, want %s", final.Status, models.BatchStatusFailed)
	}
}

func TestBatchRecorderFailureIsDocumentFailure(t *testing.T) {
	docs := &fakeDocumentStore{docs: map[string]*models.Document{
		"d1": docWithEntities("d1"),
	}}
	m := &fakeMatcher{results: []matching.MatchResult{{Score: 80}}}
	r := &fakeRecorder{err: errors.New("write failed")}
	s := newTestBatchService(docs, m, r)

	job, err := s.Start([]string{"d1"}, 0)
	if err != nil {
		t.Fatalf("start error: %v", err)
	}

	final := waitForBatch(t, s, job.ID)
	if len(final.Failed) != 1 {
		t.Fatalf("failures = %d, want 1", len(final.Failed))
	}
}

func TestBatchRejectsEmptyInput(t *testing.T) {
	s := newTestBatchService(&fakeDocumentStore{}, &fakeMatcher{}, &fakeRecorder{})
	if _, err := s.Start(nil, 0); err == nil {
		t.Fatal("expected error for empty document list")
	}
}

func TestBatchStatusUnknownJob(t *testing.T) {
	s := newTestBatchService(&fakeDocumentStore{}, &fakeMatcher{}, &fakeRecorder{})
	if _, err := s.Status("nope"); !errors.Is(err, matching.ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}
}

func TestBatchStatusSnapshotIsolated(t *testing.T) {
	docs := &fakeDocumentStore{docs: map[string]*models.Document{
		"d1": docWithEntities("d1"),
	}}
	m := &fakeMatcher{results: []matching.MatchResult{{Score: 80}}}
	s := newTestBatchService(docs, m, &fakeRecorder{})

	job, err := s.Start([]string{"d1"}, 0)
	if err != nil {
		t.Fatalf("start error: %v", err)
	}
	final := waitForBatch(t, s, job.ID)

	// mutating the snapshot must not leak into the live job
	final.Success = append(final.Success, models.BatchSuccess{DocumentID: "injected"})
	again, err := s.Status(job.ID)
	if err != nil {
		t.Fatalf("status error: %v", err)
	}
	for _, success := range again.Success {
		if success.DocumentID == "injected" {
			t.Fatal("snapshot mutation leaked into job store")
		}
	}
}

func TestBatchSweep(t *testing.T) {
	docs := &fakeDocumentStore{docs: map[string]*models.Document{
		"d1": docWithEntities("d1"),
	}}
	m := &fakeMatcher{results: []matching.MatchResult{{Score: 80}}}
	s := newTestBatchService(docs, m, &fakeRecorder{})
	s.retention = time.Millisecond

	job, err := s.Start([]string{"d1"}, 0)
	if err != nil {
		t.Fatalf("start error: %v", err)
	}
	waitForBatch(t, s, job.ID)

	time.Sleep(10 * time.Millisecond)
	if removed := s.Sweep(); removed != 1 {
		t.Errorf("swept %d jobs, want 1", removed)
	}
	if _, err := s.Status(job.ID); !errors.Is(err, matching.ErrBatchNotFound) {
		t.Errorf("expected job evicted, got %v", err)
	}
}

func TestBatchSweepKeepsRunningJobs(t *testing.T) {
	s := newTestBatchService(&fakeDocumentStore{}, &fakeMatcher{}, &fakeRecorder{})
	s.mu.Lock()
	s.jobs["running"] = &models.BatchJob{
		ID:          "running",
		Status:      models.BatchStatusRunning,
		RetainUntil: time.Now().Add(-time.Hour),
	}
	s.mu.Unlock()

	if removed := s.Sweep(); removed != 0 {
		t.Errorf("swept %d running jobs, want 0", removed)
	}
}

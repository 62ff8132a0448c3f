package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"claims-intake-platform/internal/ai"
	"claims-intake-platform/internal/logger"
	"claims-intake-platform/internal/telemetry"
	"claims-intake-platform/models"
	"claims-intake-platform/services"
	"claims-intake-platform/utils"
)

const (
	TaskDocumentIngest = "document:ingest"
)

// DocumentIngestPayload identifies the uploaded document to process
type DocumentIngestPayload struct {
	DocumentID string `json:"document_id"`
	FilePath   string `json:"file_path"`
	Filename   string `json:"filename"`
}

// NewDocumentIngestTask enqueues extraction and entity recognition for one
// uploaded document
func NewDocumentIngestTask(documentID, filePath, filename string) (*asynq.Task, error) {
	payload, err := json.Marshal(DocumentIngestPayload{
		DocumentID: documentID,
		FilePath:   filePath,
		Filename:   filename,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskDocumentIngest,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	), nil
}

// TaskProcessor runs the document ingest pipeline: text extraction, text
// storage, then entity recognition. Each stage records its state on the
// document so the API can report progress.
type TaskProcessor struct {
	documents *services.DocumentService
	extractor *services.TextExtractor
	ner       *ai.NERClient
	metrics   *telemetry.Metrics // nil when telemetry is disabled
}

func NewTaskProcessor(documents *services.DocumentService, extractor *services.TextExtractor, ner *ai.NERClient, metrics *telemetry.Metrics) *TaskProcessor {
	return &TaskProcessor{
		documents: documents,
		extractor: extractor,
		ner:       ner,
		metrics:   metrics,
	}
}

func (p *TaskProcessor) ProcessDocumentIngest(ctx context.Context, t *asynq.Task) error {
	var payload DocumentIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("ingesting document", "document_id", payload.DocumentID, "filename", payload.Filename)

	if err := p.documents.SetExtractionState(ctx, payload.DocumentID, models.ExtractionProcessing, ""); err != nil {
		return err
	}

	result, err := p.extractor.ExtractText(ctx, payload.FilePath)
	if err != nil {
		p.documents.SetExtractionState(ctx, payload.DocumentID, models.ExtractionFailed, err.Error())
		return err
	}
	if p.metrics != nil {
		p.metrics.RecordExtraction(result.ProcessingTime.Seconds(), result.Method)
	}

	compressed, wasCompressed, err := utils.CompressText(result.Text)
	if err != nil {
		p.documents.SetExtractionState(ctx, payload.DocumentID, models.ExtractionFailed, err.Error())
		return err
	}
	if err := p.documents.SetTextContent(ctx, payload.DocumentID, compressed, wasCompressed); err != nil {
		return err
	}

	bundle, err := p.ner.ExtractEntities(ctx, result.Text)
	if err != nil {
		p.documents.SetExtractionState(ctx, payload.DocumentID, models.ExtractionFailed, err.Error())
		return err
	}

	if err := p.documents.SetEntities(ctx, payload.DocumentID, bundle); err != nil {
		return err
	}

	logger.Info("document ingested",
		"document_id", payload.DocumentID,
		"method", result.Method,
		"pages", result.Pages,
		"entities_empty", bundle.IsEmpty())
	return nil
}

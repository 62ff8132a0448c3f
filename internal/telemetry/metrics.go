package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter     metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	MatchRuns          metric.Int64Counter
	MatchScores        metric.Float64Histogram
	BatchDocuments     metric.Int64Counter
	ExtractionDuration metric.Float64Histogram
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("claims-intake-platform")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	matchRuns, err := meter.Int64Counter(
		"matching.runs.total",
		metric.WithDescription("Total matching engine runs"),
	)
	if err != nil {
		return nil, err
	}

	matchScores, err := meter.Float64Histogram(
		"matching.top_score",
		metric.WithDescription("Top score per matching run"),
	)
	if err != nil {
		return nil, err
	}

	batchDocuments, err := meter.Int64Counter(
		"batch.documents.total",
		metric.WithDescription("Documents processed by batch jobs"),
	)
	if err != nil {
		return nil, err
	}

	extractionDuration, err := meter.Float64Histogram(
		"extraction.duration",
		metric.WithDescription("Document text extraction duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:     requestCounter,
		RequestDuration:    requestDuration,
		MatchRuns:          matchRuns,
		MatchScores:        matchScores,
		BatchDocuments:     batchDocuments,
		ExtractionDuration: extractionDuration,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordMatchRun records one matching engine run and its top score
func (m *Metrics) RecordMatchRun(topScore float64, recommended bool) {
	attrs := []attribute.KeyValue{
		attribute.Bool("matching.recommended", recommended),
	}

	m.MatchRuns.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.MatchScores.Record(context.Background(), topScore, metric.WithAttributes(attrs...))
}

// RecordBatchDocument records one document's batch outcome
func (m *Metrics) RecordBatchDocument(status string) {
	attrs := []attribute.KeyValue{
		attribute.String("batch.status", status),
	}

	m.BatchDocuments.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordExtraction records a text extraction attempt
func (m *Metrics) RecordExtraction(duration float64, method string) {
	attrs := []attribute.KeyValue{
		attribute.String("extraction.method", method),
	}

	m.ExtractionDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"claims-intake-platform/internal/logger"
	"claims-intake-platform/models"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

const nerSystemPrompt = `You are an entity extractor for workers' compensation claim documents.
Extract every candidate value you can find and return ONLY a JSON object with these keys,
each holding an array of strings (empty array when nothing is found):
"claim_numbers", "claimant_names", "employer_names", "insurer_names",
"provider_names", "physician_names", "dates_of_birth", "dates_of_injury",
"injury_descriptions".
Copy values exactly as written in the document. Do not invent values. Do not add commentary.`

// NERClient extracts claim entities from document text via the Gemini API.
// Calls run behind a circuit breaker and a rate limiter so a degraded
// upstream cannot stall the ingest pipeline.
type NERClient struct {
	client      *genai.Client
	model       string
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

func NewNERClient(ctx context.Context, apiKey, model, tier string) (*NERClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiNER",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name,
				"from", from.String(), "to", to.String())
		},
	})

	// stays under the published per-tier RPM quota with headroom
	rpm := 9.0
	burst := 2
	if tier == "paid" {
		rpm = 120.0
		burst = 10
	}
	rateLimiter := rate.NewLimiter(rate.Limit(rpm/60.0), burst)

	return &NERClient{
		client:      client,
		model:       model,
		breaker:     breaker,
		rateLimiter: rateLimiter,
	}, nil
}

// ExtractEntities runs NER over document text and returns the candidate
// bundle. Returns an error rather than a partial bundle when the upstream
// call fails; callers retry via the queue.
func (c *NERClient) ExtractEntities(ctx context.Context, text string) (*models.EntityBundle, error) {
	tracer := otel.Tracer("ner-client")
	ctx, span := tracer.Start(ctx, "ner.extract_entities")
	defer span.End()

	span.SetAttributes(
		attribute.Int("ner.text_length", len(text)),
		attribute.String("ner.model", c.model),
	)

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text to extract entities from")
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("ner.rate_limited", true))
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		model := c.client.GenerativeModel(c.model)
		model.SetTemperature(0.1)
		model.ResponseMIMEType = "application/json"
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(nerSystemPrompt)},
		}

		resp, err := model.GenerateContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return nil, fmt.Errorf("empty response from gemini")
		}

		var raw strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if textPart, ok := part.(genai.Text); ok {
				raw.WriteString(string(textPart))
			}
		}
		return raw.String(), nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			span.SetAttributes(attribute.Bool("ner.circuit_breaker_open", true))
			return nil, fmt.Errorf("entity extraction unavailable: %w", err)
		}
		span.SetAttributes(attribute.Bool("ner.error", true))
		return nil, fmt.Errorf("entity extraction failed: %w", err)
	}

	bundle, err := parseEntityResponse(result.(string))
	if err != nil {
		span.SetAttributes(attribute.Bool("ner.parse_error", true))
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("ner.claim_numbers", len(bundle.ClaimNumbers)),
		attribute.Int("ner.claimant_names", len(bundle.ClaimantNames)),
		attribute.Bool("ner.empty", bundle.IsEmpty()),
	)
	return bundle, nil
}

// parseEntityResponse decodes the model's JSON payload. Code-fenced output
// is tolerated since models wrap JSON in fences despite instructions.
func parseEntityResponse(raw string) (*models.EntityBundle, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var bundle models.EntityBundle
	if err := json.Unmarshal([]byte(raw), &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse entity response: %w", err)
	}
	return &bundle, nil
}

func (c *NERClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

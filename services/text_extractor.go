package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"claims-intake-platform/internal/logger"
	"claims-intake-platform/internal/matching"

	"github.com/ledongthuc/pdf"
)

// TextExtractor pulls plain text out of uploaded documents. PDFs with an
// embedded text layer are read directly; scanned PDFs and images fall back
// to the OCR sidecar.
type TextExtractor struct {
	ocr *OCRClient
}

// ExtractionResult carries the text and provenance of one extraction
type ExtractionResult struct {
	Text           string
	Pages          int
	Method         string
	QualityScore   float64
	Confidence     float64
	ProcessingTime time.Duration
}

func NewTextExtractor(ocr *OCRClient) *TextExtractor {
	return &TextExtractor{ocr: ocr}
}

// ExtractText extracts text from a stored file, trying the embedded text
// layer first and OCR second. Low-quality embedded text (garbled encodings,
// image-only pages) also triggers the OCR fallback.
func (e *TextExtractor) ExtractText(ctx context.Context, filePath string) (*ExtractionResult, error) {
	start := time.Now()

	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat document file: %w", err)
	}
	if stat.Size() > 200<<20 {
		return nil, fmt.Errorf("document too large for in-memory extraction")
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read document file: %w", err)
	}

	var embedded *ExtractionResult
	if filepath.Ext(filePath) == ".pdf" {
		embedded, err = e.extractEmbedded(content)
		if err != nil {
			logger.Debug("embedded text extraction failed, falling back to OCR",
				"file", filepath.Base(filePath), "error", err)
		} else {
			embedded.QualityScore = evaluateTextQuality(embedded.Text)
			if embedded.QualityScore >= 0.7 {
				embedded.Method = "embedded"
				embedded.ProcessingTime = time.Since(start)
				return embedded, nil
			}
		}
	}

	ocrResult, ocrErr := e.extractWithOCR(ctx, content, filepath.Base(filePath))
	if ocrErr == nil {
		ocrResult.Method = "ocr"
		ocrResult.ProcessingTime = time.Since(start)
		return ocrResult, nil
	}

	// OCR unavailable; a mediocre embedded result still beats nothing
	if embedded != nil && embedded.QualityScore >= 0.3 {
		embedded.Method = "embedded"
		embedded.ProcessingTime = time.Since(start)
		return embedded, nil
	}

	return nil, fmt.Errorf("%w: %v", matching.ErrExtractionFailed, ocrErr)
}

func (e *TextExtractor) extractEmbedded(content []byte) (*ExtractionResult, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Debug("failed to extract page text", "page", i, "error", err)
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	extracted := strings.TrimSpace(textBuilder.String())
	if len(extracted) == 0 {
		return nil, fmt.Errorf("no embedded text layer")
	}

	return &ExtractionResult{
		Text:       extracted,
		Pages:      pages,
		Confidence: 0.8,
	}, nil
}

func (e *TextExtractor) extractWithOCR(ctx context.Context, content []byte, filename string) (*ExtractionResult, error) {
	if e.ocr == nil {
		return nil, fmt.Errorf("OCR client not configured")
	}

	resp, err := e.ocr.ExtractText(ctx, bytes.NewReader(content), filename)
	if err != nil {
		return nil, err
	}

	return &ExtractionResult{
		Text:         strings.TrimSpace(resp.Text),
		Pages:        resp.Pages,
		Confidence:   resp.Confidence,
		QualityScore: evaluateTextQuality(resp.Text),
	}, nil
}

// evaluateTextQuality scores extracted text on the ratio of readable content
// to replacement characters and control noise. Garbled PDF encodings score
// low and get routed to OCR.
func evaluateTextQuality(text string) float64 {
	text = strings.TrimSpace(text)
	if len(text) < 10 {
		return 0.1
	}

	var alphanumeric, printable, corrupted int
	for _, r := range text {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			alphanumeric++
			printable++
		case r == ' ' || r == '\n' || r == '\t':
			printable++
		case r == '�':
			corrupted++
		case r >= 32 && r <= 126:
			printable++
		case r > 127:
			printable++
		default:
			corrupted++
		}
	}

	total := len([]rune(text))
	alphanumericRatio := float64(alphanumeric) / float64(total)
	printableRatio := float64(printable) / float64(total)
	corruptedRatio := float64(corrupted) / float64(total)

	score := printableRatio * 0.5
	if alphanumericRatio >= 0.3 {
		score += 0.4
	} else {
		score += alphanumericRatio
	}
	score -= corruptedRatio * 2

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

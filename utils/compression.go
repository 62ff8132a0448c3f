package utils

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// Document text below this size is stored raw; compression overhead is not
// worth it for short OCR output.
const compressionFloor = 500

// CompressText brotli-compresses extracted document text for storage.
// Short inputs are returned unchanged with compressed=false.
func CompressText(text string) ([]byte, bool, error) {
	data := []byte(text)
	if len(data) < compressionFloor {
		return data, false, nil
	}

	var buf bytes.Buffer
	writer := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := writer.Write(data); err != nil {
		return nil, false, fmt.Errorf("failed to write to brotli writer: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, false, fmt.Errorf("failed to close brotli writer: %w", err)
	}
	return buf.Bytes(), true, nil
}

// DecompressText reverses CompressText
func DecompressText(data []byte, compressed bool) (string, error) {
	if !compressed || len(data) == 0 {
		return string(data), nil
	}

	reader := brotli.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read from brotli reader: %w", err)
	}
	return string(out), nil
}

package matching

import (
	"regexp"
	"strings"
)

var (
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonDigitRe   = regexp.MustCompile(`\D+`)
)

// NormalizeText lower-cases, strips everything outside [a-z0-9 ], collapses
// internal whitespace and trims. Idempotent; empty input yields "".
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s = nonAlnumRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeID squashes an identifier to bare lowercase alphanumerics.
// "WC-2024-1001", "wc 2024 1001" and "WC2024·1001" all land on the same key.
func NormalizeID(s string) string {
	return strings.ReplaceAll(NormalizeText(s), " ", "")
}

// NormalizeDate produces a best-effort MMDDYYYY key from a free-form date
// string. The first three numeric groups are read positionally as month,
// day, year; two-digit years are expanded with a "20" prefix. Inputs with
// fewer than three numeric groups fall back to NormalizeText with spaces
// removed. OCR output is noisy, so no calendar validation is attempted:
// the goal is a stable comparison key, not a parsed date.
func NormalizeDate(s string) string {
	if s == "" {
		return ""
	}

	var groups []string
	for _, g := range nonDigitRe.Split(s, -1) {
		if g != "" {
			groups = append(groups, g)
		}
	}

	if len(groups) >= 3 {
		month := zeroPad2(groups[0])
		day := zeroPad2(groups[1])
		year := groups[2]
		if len(year) == 2 {
			year = "20" + year
		}
		return month + day + year
	}

	return strings.ReplaceAll(NormalizeText(s), " ", "")
}

func zeroPad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

package matching

import "testing"

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  Michael   Thompson  ", "michael thompson"},
		{"ACME Mfg., Inc.", "acme mfg inc"},
		{"Dr. Sarah Chen", "dr sarah chen"},
		{"WC-2024-1001", "wc20241001"},
		{"already normalized", "already normalized"},
	}

	for _, tc := range cases {
		if got := NormalizeText(tc.in); got != tc.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTextIdempotent(t *testing.T) {
	inputs := []string{"Michael Thompson", "ACME Mfg., Inc.", "  spaced   out  ", "WC-2024-1001"}
	for _, in := range inputs {
		once := NormalizeText(in)
		twice := NormalizeText(once)
		if once != twice {
			t.Errorf("NormalizeText not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeID(t *testing.T) {
	forms := []string{"WC-2024-1001", "wc 2024 1001", "WC.2024.1001"}
	want := "wc20241001"
	for _, f := range forms {
		if got := NormalizeID(f); got != want {
			t.Errorf("NormalizeID(%q) = %q, want %q", f, got, want)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"03/04/2024", "03042024"},
		{"3/4/2024", "03042024"},
		{"3-4-24", "03042024"},
		{"03.04.2024", "03042024"},
	}

	for _, tc := range cases {
		if got := NormalizeDate(tc.in); got != tc.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeDateEquivalentFormats(t *testing.T) {
	// every common rendering of the same date must land on one key
	forms := []string{"03/04/2024", "3/4/2024", "3-4-24", "03-04-2024"}
	want := NormalizeDate(forms[0])
	for _, f := range forms[1:] {
		if got := NormalizeDate(f); got != want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", f, got, want)
		}
	}
}

func TestNormalizeDateFallback(t *testing.T) {
	// fewer than three numeric groups falls back to squashed text
	if got := NormalizeDate("sometime in March"); got != "sometimeinmarch" {
		t.Errorf("NormalizeDate fallback = %q", got)
	}
}

package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   SearchQuery
		wantErr error
	}{
		{"ok", SearchQuery{Text: "iphone 16 pro max", Start: 1}, nil},
		{"empty", SearchQuery{Text: "", Start: 1}, ErrEmptyQuery},
		{"whitespace", SearchQuery{Text: "   ", Start: 1}, ErrEmptyQuery},
		{"max len", SearchQuery{Text: strings.Repeat("a", MaxQueryLength), Start: 1}, nil},
		{"too long", SearchQuery{Text: strings.Repeat("a", MaxQueryLength+1), Start: 1}, ErrQueryTooLong},
		{"too long in bytes", SearchQuery{Text: strings.Repeat("я", MaxQueryLength/2+1), Start: 1}, ErrQueryTooLong},
		{"zero start", SearchQuery{Text: "phone", Start: 0}, ErrInvalidStart},
		{"negative start", SearchQuery{Text: "phone", Start: -3}, ErrInvalidStart},
		{"second page", SearchQuery{Text: "phone", Start: 11}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SearchQuery.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewSearchQuery_DefaultsStart(t *testing.T) {
	q := NewSearchQuery("  pixel 9 ", 0)
	if q.Text != "pixel 9" {
		t.Errorf("Text = %q, want %q", q.Text, "pixel 9")
	}
	if q.Start != 1 {
		t.Errorf("Start = %d, want 1", q.Start)
	}
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "iphone 16 pro max", "IPHONE 16 PRO MAX"},
		{"mixed case", "iPhone 16 Pro Max", "IPHONE 16 PRO MAX"},
		{"padded", "  iphone 16 pro max\t\n", "IPHONE 16 PRO MAX"},
		{"internal spaces kept", "iphone  16", "IPHONE  16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeQuery(tt.input); got != tt.want {
				t.Errorf("NormalizeQuery(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCacheKey_IgnoresCaseAndStart(t *testing.T) {
	a := NewSearchQuery("Galaxy S24 ", 1)
	b := NewSearchQuery(" galaxy s24", 11)
	if a.CacheKey() != b.CacheKey() {
		t.Errorf("CacheKey() differ: %q vs %q", a.CacheKey(), b.CacheKey())
	}
}

func TestUnscrapedEntry(t *testing.T) {
	e := UnscrapedEntry("https://shop.example/p/1")
	if !e.IsPlaceholder() {
		t.Error("UnscrapedEntry should be a placeholder")
	}
	if e.Price != nil {
		t.Error("UnscrapedEntry should have nil price")
	}
	if e.ErrorText != "URL https://shop.example/p/1 couldn't be scraped" {
		t.Errorf("ErrorText = %q", e.ErrorText)
	}
}

func TestEnrichedResult_JSON(t *testing.T) {
	r := NewEnrichedResult(NewSummaryEntry("iphone 16 pro max", StringPtr("$1,199")), nil)

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"name":"iphone 16 pro max","price":"$1,199","image_urls":[]}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestPageContent_Scraped(t *testing.T) {
	if !ScrapedPage("https://a", "text").Scraped() {
		t.Error("ScrapedPage should be scraped")
	}
	if FailedPage("https://a", ErrFetch).Scraped() {
		t.Error("FailedPage should not be scraped")
	}
}

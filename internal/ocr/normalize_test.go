package ocr

import (
	"errors"
	"testing"
)

// TestNormalize covers the accepted response shapes and their priority
// order.
func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare string", `"12+3"`, "12+3"},
		{"object text field", `{"text": "12+3"}`, "12+3"},
		{"object out_text field", `{"out_text": "4*5"}`, "4*5"},
		{"object formula field", `{"formula": "9-2"}`, "9-2"},
		{"text preferred over formula", `{"formula": "9-2", "text": "12+3"}`, "12+3"},
		{"empty text falls through to out_text", `{"text": "", "out_text": "4*5"}`, "4*5"},
		{"string fragments", `["12", "+3"]`, "12\n+3"},
		{"object fragments", `[{"text": "12"}, {"text": "+3"}]`, "12\n+3"},
		{"mixed fragments skip empties", `["12", "", {"text": "+3"}, {"other": "x"}]`, "12\n+3"},
		{"extra object fields ignored", `{"text": "6/2", "confidence": 0.93}`, "6/2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize([]byte(tt.raw))
			if err != nil {
				t.Fatalf("Normalize(%s) returned error %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// TestNormalizeFailures verifies shapes without usable text fail with
// ErrNoText rather than returning garbage.
func TestNormalizeFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty string", `""`},
		{"blank string", `"   "`},
		{"object without text fields", `{"confidence": 0.9}`},
		{"object with empty text", `{"text": "  "}`},
		{"empty array", `[]`},
		{"array of empties", `["", {"text": ""}]`},
		{"number", `42`},
		{"null", `null`},
		{"not json", `garbage`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize([]byte(tt.raw))
			if !errors.Is(err, ErrNoText) {
				t.Errorf("Normalize(%s) = %q, %v, want ErrNoText", tt.raw, got, err)
			}
		})
	}
}

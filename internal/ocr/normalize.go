package ocr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoText reports a sidecar response that carried no usable text,
// whatever its shape.
var ErrNoText = errors.New("ocr: no text in result")

// textFields are the object keys probed for text, in priority order.
// Different sidecar versions answer with different field names.
var textFields = []string{"text", "out_text", "formula"}

// Normalize reduces a raw sidecar response to one text value. The accepted
// shapes, probed in this order:
//
//  1. a bare JSON string: "12+3"
//  2. an object carrying one of the known text fields: {"text": "12+3"}
//  3. a list of fragments, each a string or an object with a "text" field,
//     joined with newlines: ["12", "+3"]
//
// Anything else, or a shape whose text is empty, fails with ErrNoText.
func Normalize(raw []byte) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return nonEmpty(s)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, field := range textFields {
			v, ok := obj[field]
			if !ok {
				continue
			}
			var text string
			if err := json.Unmarshal(v, &text); err != nil {
				continue
			}
			if strings.TrimSpace(text) != "" {
				return text, nil
			}
		}
		return "", fmt.Errorf("%w: object without a text field", ErrNoText)
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		var parts []string
		for _, el := range arr {
			var text string
			if err := json.Unmarshal(el, &text); err == nil {
				if strings.TrimSpace(text) != "" {
					parts = append(parts, text)
				}
				continue
			}
			var frag struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(el, &frag); err == nil && strings.TrimSpace(frag.Text) != "" {
				parts = append(parts, frag.Text)
			}
		}
		return nonEmpty(strings.Join(parts, "\n"))
	}

	return "", fmt.Errorf("%w: unrecognized result shape", ErrNoText)
}

func nonEmpty(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: empty text", ErrNoText)
	}
	return s, nil
}

package richtext

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// ToDisplayString coerces a table field value to plain text.
//
// Sequences are joined with single spaces, taking the "text" entry of mappings. A mapping yields
// its "text" entry, or its JSON form when it has none. A string is parsed as JSON and, failing
// that, as a permissive literal (single quotes, True/False/None); when either yields a rich-text
// sequence only its text runs are kept, a literal mapping yields its "text" entry, and anything
// else keeps the original string. The result is trimmed. ToDisplayString never fails.
func ToDisplayString(v any) string {
	return strings.TrimSpace(displayString(v))
}

func displayString(v any) string {
	switch val := v.(type) {
	case []any:
		parts := make([]string, 0, len(val))

		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				if text, ok := m["text"]; ok {
					parts = append(parts, stringify(text))
					continue
				}
			}

			parts = append(parts, stringify(item))
		}

		return strings.Join(parts, " ")
	case map[string]any:
		if text, ok := val["text"]; ok {
			return stringify(text)
		}

		return stringify(val)
	case string:
		return stringDisplay(val)
	default:
		return stringify(val)
	}
}

// stringDisplay tries strict JSON, then a permissive literal, then falls back to the raw string.
func stringDisplay(s string) string {
	if parsed, err := parseJSON(s); err == nil {
		if text, ok := textRuns(parsed); ok {
			return text
		}

		return s
	}

	parsed, err := parseLiteral(s)
	if err != nil {
		return s
	}

	slog.Debug("Parsed field as literal", slog.String("raw", s))

	if text, ok := textRuns(parsed); ok {
		return text
	}

	if m, ok := parsed.(map[string]any); ok {
		if text, ok := m["text"]; ok {
			return stringify(text)
		}
	}

	return s
}

// textRuns joins the text of "text" nodes when v is a sequence of mappings that all carry a
// "text" entry.
func textRuns(v any) (string, bool) {
	items, ok := v.([]any)
	if !ok {
		return "", false
	}

	parts := make([]string, 0, len(items))

	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return "", false
		}

		text, ok := m["text"]
		if !ok {
			return "", false
		}

		if m["type"] == "text" {
			parts = append(parts, stringify(text))
		}
	}

	return strings.Join(parts, " "), true
}

// IsRichText reports whether v holds rich-text nodes: a sequence of typed mappings, a single
// typed mapping, or a JSON string encoding either.
func IsRichText(v any) bool {
	if s, ok := v.(string); ok {
		trimmed := strings.TrimSpace(s)
		if !strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "{") {
			return false
		}

		parsed, err := parseJSON(trimmed)
		if err != nil {
			return false
		}

		v = parsed
	}

	switch val := v.(type) {
	case map[string]any:
		return ParseKind(typeOf(val)) != KindUnknown
	case []any:
		if len(val) == 0 {
			return false
		}

		for _, item := range val {
			m, ok := item.(map[string]any)
			if !ok || typeOf(m) == "" {
				return false
			}
		}

		return true
	default:
		return false
	}
}

func typeOf(m map[string]any) string {
	name, _ := m["type"].(string)
	return name
}

// parseJSON decodes a single JSON document, keeping numbers as json.Number.
func parseJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}

	return v, nil
}

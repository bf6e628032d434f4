// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package answer turns raw answer payloads into displayable results.
package answer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jeranaias/navi-tui/internal/model"
)

// RecommendationsReady replaces the raw list when an answer carries
// recommendations.
const RecommendationsReady = "recommendations are ready"

// Result is a classified answer. RoleModels is nil unless at least one
// recommendation was produced.
type Result struct {
	Text       string
	RoleModels []model.RecommendationEntry
}

// HasRecommendations reports whether the answer carried role models.
func (r Result) HasRecommendations() bool {
	return len(r.RoleModels) > 0
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classify converts a raw answer payload into a Result. It never fails:
// anything that is not a recognizable document becomes plain text.
//
// Accepted inputs are string, []byte, json.RawMessage, nil, and already
// decoded JSON values (map[string]any, []any). Other values are formatted
// with fmt.Sprint.
func Classify(raw any) Result {
	switch v := raw.(type) {
	case nil:
		return Result{}
	case string:
		return classifyString(v)
	case json.RawMessage:
		return classifyBytes(v)
	case []byte:
		return classifyBytes(v)
	case map[string]any:
		if res, ok := classifyDocument(v); ok {
			return res
		}
		return Result{Text: marshalText(v)}
	case []any:
		return Result{Text: marshalText(v)}
	case fmt.Stringer:
		return Result{Text: v.String()}
	default:
		return Result{Text: fmt.Sprint(v)}
	}
}

// classifyBytes handles raw JSON fragments. A JSON string literal is
// unquoted before classification; anything else is treated as text.
func classifyBytes(b []byte) Result {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return classifyString(s)
		}
	}
	if string(trimmed) == "null" {
		return Result{}
	}
	return classifyString(string(b))
}

func classifyString(s string) Result {
	trimmed := strings.TrimSpace(s)

	// Answers are sometimes double-encoded: a JSON string literal whose
	// content is the document. Only unwrap when the inner text is a document.
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err == nil {
			if doc, ok := decodeDocument(inner); ok {
				if res, ok := classifyDocument(doc); ok {
					return res
				}
			}
		}
		return Result{Text: s}
	}

	doc, ok := decodeDocument(trimmed)
	if !ok {
		return Result{Text: s}
	}
	if res, ok := classifyDocument(doc); ok {
		return res
	}
	return Result{Text: s}
}

// decodeDocument parses s as a JSON object. Numbers are kept as json.Number
// so years can be validated without float rounding surprises.
func decodeDocument(s string) (map[string]any, bool) {
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, false
	}
	// Trailing garbage after the object means the text was not a document.
	if dec.More() {
		return nil, false
	}
	return doc, doc != nil
}

// classifyDocument inspects the "response" field. ok is false when the
// document has no recognizable shape.
func classifyDocument(doc map[string]any) (Result, bool) {
	switch resp := doc["response"].(type) {
	case string:
		return Result{Text: resp}, true
	case []any:
		entries := make([]model.RecommendationEntry, 0, len(resp))
		for _, item := range resp {
			entries = append(entries, toEntry(item))
		}
		if len(entries) == 0 {
			return Result{Text: RecommendationsReady}, true
		}
		return Result{Text: RecommendationsReady, RoleModels: entries}, true
	default:
		return Result{}, false
	}
}

// =============================================================================
// ENTRY MAPPING
// =============================================================================

func toEntry(item any) model.RecommendationEntry {
	entry := model.RecommendationEntry{
		CareerTitle: model.DefaultCareerTitle,
		Name:        model.DefaultName,
	}

	obj, ok := item.(map[string]any)
	if !ok {
		return entry
	}

	entry.Years = coerceYears(obj["years"])
	if title := stringField(obj["careerTitle"]); title != "" {
		entry.CareerTitle = title
	}
	if name := stringField(obj["name"]); name != "" {
		entry.Name = name
	}
	return entry
}

// coerceYears accepts numbers and numeric strings. Anything negative,
// non-finite, or unparseable becomes 0; fractions are truncated.
func coerceYears(v any) int {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

func stringField(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

func marshalText(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// TIMESTAMP
// =============================================================================

// timestampLayouts are tried in order when parsing server timestamps.
// The service emits zone-less local date-times; RFC3339 is accepted as well.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp is a point in time as reported by the remote service.
// It keeps the raw text so a cursor can echo exactly what the server sent.
type Timestamp struct {
	time.Time
	raw string
}

// NewTimestamp wraps t. The raw form is RFC3339 with nanoseconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, raw: t.Format(time.RFC3339Nano)}
}

// ParseTimestamp parses s using the accepted layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t, raw: s}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// String returns the raw server text, or RFC3339 when none was recorded.
func (t Timestamp) String() string {
	if t.raw != "" {
		return t.raw
	}
	if t.Time.IsZero() {
		return ""
	}
	return t.Time.Format(time.RFC3339Nano)
}

// MarshalJSON encodes the raw text.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() && t.raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts a string in any accepted layout, or null.
// Unparseable text is kept raw with a zero time rather than failing the
// whole payload.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		*t = Timestamp{raw: s}
		return nil
	}
	*t = parsed
	return nil
}

// SameDay reports whether t and other fall on the same calendar day in loc.
func (t Timestamp) SameDay(other Timestamp, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	a := t.Time.In(loc)
	b := other.Time.In(loc)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

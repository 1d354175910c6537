package model

// Package model contains the domain records of the motor-assessment service.
// Pure data plus enum parsing; no database or transport coupling here.

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is the stored Parkinson's severity classification. The backend
// keeps the code; the dashboard renders the label.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

var severityLabels = map[Severity]string{
	SeverityLow:    "Mild",
	SeverityMedium: "Moderate",
	SeverityHigh:   "Severe",
}

// Valid reports whether s is one of the known severity codes.
func (s Severity) Valid() bool {
	_, ok := severityLabels[s]
	return ok
}

// Label returns the display label for the code ("low" -> "Mild").
// Unknown codes return an empty label.
func (s Severity) Label() string {
	return severityLabels[s]
}

// ParseSeverity accepts either a stored code or a display label,
// case-insensitively, and returns the canonical code.
func ParseSeverity(v string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "low", "mild":
		return SeverityLow, nil
	case "medium", "moderate":
		return SeverityMedium, nil
	case "high", "severe":
		return SeverityHigh, nil
	}
	return "", fmt.Errorf("unknown severity %q", v)
}

// UnmarshalJSON normalizes incoming values so clients may send either the
// code or the label. An empty string is kept empty for the caller to default.
func (s *Severity) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		*s = ""
		return nil
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

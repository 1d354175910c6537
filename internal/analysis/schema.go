package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// motionSchema is the contract for capture payloads, whether recorded
// client-side or returned by the keypoint extractor. At least one series
// must be present alongside the frame bookkeeping.
const motionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "motion capture",
  "type": "object",
  "properties": {
    "fps": {"type": "number", "exclusiveMinimum": 0},
    "duration_seconds": {"type": "number", "minimum": 0},
    "frames": {"type": "integer", "minimum": 0},
    "amplitude": {"type": "array", "items": {"type": "number"}},
    "angles": {"type": "array", "items": {"type": "number"}},
    "nose_x": {"type": "array", "items": {"type": "number"}},
    "nose_y": {"type": "array", "items": {"type": "number"}},
    "velocity_magnitude": {"type": "array", "items": {"type": "number"}},
    "landmarks": {
      "type": "array",
      "items": {
        "type": "array",
        "items": {
          "type": "array",
          "items": {"type": "number"},
          "minItems": 2
        }
      }
    }
  },
  "anyOf": [
    {"required": ["amplitude"]},
    {"required": ["angles"]},
    {"required": ["landmarks"]},
    {"required": ["nose_x", "nose_y"]}
  ]
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func schema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(motionSchema))
	})
	return compiledSchema, schemaErr
}

// ValidateMotion checks a raw capture payload against the motion schema and
// aggregates every violation into one error.
func ValidateMotion(doc []byte) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("compile motion schema: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validate capture: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("capture failed validation: %s", strings.Join(msgs, "; "))
}

// ParseMotion validates and decodes a capture payload.
func ParseMotion(doc []byte) (Motion, error) {
	if err := ValidateMotion(doc); err != nil {
		return Motion{}, err
	}
	var m Motion
	if err := json.Unmarshal(doc, &m); err != nil {
		return Motion{}, fmt.Errorf("decode capture: %w", err)
	}
	return m, nil
}

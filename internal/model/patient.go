package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Bounds the intake form enforces on patient vitals.
const (
	AgeMax      = 120
	HeightMaxCM = 300
	WeightMaxKG = 500
)

// Patient is a clinical record under management.
// Pure domain model with no database-specific dependencies or tags.
type Patient struct {
	ID           string         `json:"id"`
	RecordNumber string         `json:"record_number"`
	Name         string         `json:"name"`
	Age          int            `json:"age"`
	HeightCM     float64        `json:"height_cm"`
	WeightKG     float64        `json:"weight_kg"`
	LabResults   map[string]any `json:"lab_results"`
	DoctorsNotes string         `json:"doctors_notes"`
	Severity     Severity       `json:"severity"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// MarshalJSON emits the display label next to the stored severity code so
// clients never re-derive the mapping.
func (p Patient) MarshalJSON() ([]byte, error) {
	type alias Patient
	return json.Marshal(struct {
		alias
		SeverityLabel string `json:"severity_label"`
	}{alias(p), p.Severity.Label()})
}

// Validate checks the required fields and vital ranges of the record.
func (p *Patient) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if p.Age < 0 || p.Age > AgeMax {
		return fmt.Errorf("age must be between 0 and %d", AgeMax)
	}
	if p.HeightCM < 0 || p.HeightCM > HeightMaxCM {
		return fmt.Errorf("height_cm must be between 0 and %d", HeightMaxCM)
	}
	if p.WeightKG < 0 || p.WeightKG > WeightMaxKG {
		return fmt.Errorf("weight_kg must be between 0 and %d", WeightMaxKG)
	}
	if !p.Severity.Valid() {
		return fmt.Errorf("severity must be one of low, medium or high")
	}
	return nil
}

// NewRecordNumber derives a record number from the patient name and intake
// time: up to five lowercased name characters followed by a unix timestamp.
func NewRecordNumber(name string, now time.Time) string {
	part := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	if runes := []rune(part); len(runes) > 5 {
		part = string(runes[:5])
	}
	return fmt.Sprintf("%s%d", part, now.Unix())
}

// PatientPatch carries a partial update. Nil fields are left unchanged;
// LabResults replaces the stored object only when present.
type PatientPatch struct {
	Name         *string        `json:"name"`
	Age          *int           `json:"age"`
	HeightCM     *float64       `json:"height_cm"`
	WeightKG     *float64       `json:"weight_kg"`
	LabResults   map[string]any `json:"lab_results"`
	DoctorsNotes *string        `json:"doctors_notes"`
	Severity     *Severity      `json:"severity"`
}

// Apply copies the present patch fields onto the record.
func (p *Patient) Apply(patch PatientPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Age != nil {
		p.Age = *patch.Age
	}
	if patch.HeightCM != nil {
		p.HeightCM = *patch.HeightCM
	}
	if patch.WeightKG != nil {
		p.WeightKG = *patch.WeightKG
	}
	if patch.LabResults != nil {
		p.LabResults = patch.LabResults
	}
	if patch.DoctorsNotes != nil {
		p.DoctorsNotes = *patch.DoctorsNotes
	}
	if patch.Severity != nil {
		p.Severity = *patch.Severity
	}
}

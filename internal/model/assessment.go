package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AssessmentType identifies the standardized motor test a session records.
type AssessmentType string

const (
	TestFingerTapping AssessmentType = "finger_tapping"
	TestPalmOpen      AssessmentType = "palm_open"
	TestStandSit      AssessmentType = "stand_sit"
)

var assessmentTypeLabels = map[AssessmentType]string{
	TestFingerTapping: "Finger tapping",
	TestPalmOpen:      "Palm open/close",
	TestStandSit:      "Stand and sit",
}

// Valid reports whether t is a known test type.
func (t AssessmentType) Valid() bool {
	_, ok := assessmentTypeLabels[t]
	return ok
}

// Label returns the display name of the test type.
func (t AssessmentType) Label() string {
	return assessmentTypeLabels[t]
}

// ParseAssessmentType normalizes dashes and spaces so "finger-tapping" and
// "Finger Tapping" both resolve to the stored form.
func ParseAssessmentType(v string) (AssessmentType, error) {
	norm := strings.ToLower(strings.TrimSpace(v))
	norm = strings.ReplaceAll(norm, "-", "_")
	norm = strings.ReplaceAll(norm, " ", "_")
	t := AssessmentType(norm)
	if !t.Valid() {
		return "", fmt.Errorf("unknown test type %q", v)
	}
	return t, nil
}

// AssessmentStatus tracks a session through its lifecycle. It is a plain
// status field: pending until media or keypoints arrive, processing while
// analysis runs, then completed or failed.
type AssessmentStatus string

const (
	StatusPending    AssessmentStatus = "pending"
	StatusProcessing AssessmentStatus = "processing"
	StatusCompleted  AssessmentStatus = "completed"
	StatusFailed     AssessmentStatus = "failed"
)

// AssessmentResults holds the analysis outcome of a completed session.
type AssessmentResults struct {
	Score             float64  `json:"score"`
	DurationSeconds   float64  `json:"duration_seconds"`
	RepCount          int      `json:"rep_count"`
	RepsPerSecond     float64  `json:"reps_per_second"`
	MeanAmplitude     float64  `json:"mean_amplitude"`
	AmplitudeDecay    float64  `json:"amplitude_decay"`
	PeakSpeed         float64  `json:"peak_speed"`
	SuggestedSeverity Severity `json:"suggested_severity,omitempty"`
}

// Assessment is a recorded motor-test session tied to a patient.
// Keypoints keeps the motion payload the analysis consumed, verbatim.
// It survives analysis failures so a session can be re-analyzed later.
type Assessment struct {
	ID               string             `json:"id"`
	PatientID        string             `json:"patient_id"`
	Type             AssessmentType     `json:"type"`
	Status           AssessmentStatus   `json:"status"`
	RecordedAt       time.Time          `json:"recorded_at"`
	VideoPath        string             `json:"video_path,omitempty"`
	VideoFilename    string             `json:"video_filename,omitempty"`
	VideoContentType string             `json:"video_content_type,omitempty"`
	VideoSize        int64              `json:"video_size,omitempty"`
	Keypoints        json.RawMessage    `json:"keypoints,omitempty"`
	Results          *AssessmentResults `json:"results,omitempty"`
	FailureReason    string             `json:"failure_reason,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// HasVideo reports whether a recording is stored for the session.
func (a *Assessment) HasVideo() bool {
	return a.VideoPath != ""
}

// AssessmentStats aggregates a patient's sessions for the dashboard.
type AssessmentStats struct {
	Total       int                      `json:"total"`
	ByStatus    map[AssessmentStatus]int `json:"by_status"`
	ByType      map[AssessmentType]int   `json:"by_type"`
	LatestScore *float64                 `json:"latest_score,omitempty"`
	MeanScore   *float64                 `json:"mean_score,omitempty"`
}

// PatientSummary is the per-patient dashboard payload.
type PatientSummary struct {
	Patient Patient         `json:"patient"`
	Stats   AssessmentStats `json:"stats"`
	Latest  *Assessment     `json:"latest_test,omitempty"`
}

// TestComparison reports the DTW similarity between two completed sessions.
// Lower similarity means closer movement patterns.
type TestComparison struct {
	PatientID   string  `json:"patient_id"`
	TestID      string  `json:"test_id"`
	OtherTestID string  `json:"other_test_id"`
	Similarity  float64 `json:"similarity"`
}

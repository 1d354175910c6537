package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorapi/internal/model"
)

func TestAssessment(t *testing.T) {
	patient := &model.Patient{
		Name:         "Jane Doe",
		RecordNumber: "jane1767366245",
		Age:          64,
		Severity:     model.SeverityMedium,
		DoctorsNotes: "tremor in left hand, responds well to medication",
	}
	session := &model.Assessment{
		ID:         "session-1",
		Type:       model.TestFingerTapping,
		Status:     model.StatusCompleted,
		RecordedAt: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		Results: &model.AssessmentResults{
			Score:             82.5,
			DurationSeconds:   10,
			RepCount:          41,
			RepsPerSecond:     4.1,
			MeanAmplitude:     0.73,
			AmplitudeDecay:    0.12,
			PeakSpeed:         2.4,
			SuggestedSeverity: model.SeverityLow,
		},
	}

	var buf bytes.Buffer
	err := Assessment(&buf, patient, session)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")), "output should start with the PDF magic")
	assert.Greater(t, buf.Len(), 1000)
}

func TestAssessment_NoResults(t *testing.T) {
	patient := &model.Patient{Name: "John Roe", Severity: model.SeverityHigh}
	session := &model.Assessment{
		Type:          model.TestStandSit,
		Status:        model.StatusFailed,
		RecordedAt:    time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		FailureReason: "no pose detected",
	}

	var buf bytes.Buffer
	err := Assessment(&buf, patient, session)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestFilename(t *testing.T) {
	a := &model.Assessment{
		Type:       model.TestPalmOpen,
		RecordedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "report-palm_open-20260102.pdf", Filename(a))
}

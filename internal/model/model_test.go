package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityRoundTrip(t *testing.T) {
	// Code -> label -> code must be lossless in both directions.
	for _, code := range []Severity{SeverityLow, SeverityMedium, SeverityHigh} {
		label := code.Label()
		require.NotEmpty(t, label)

		back, err := ParseSeverity(label)
		require.NoError(t, err)
		assert.Equal(t, code, back)

		same, err := ParseSeverity(string(code))
		require.NoError(t, err)
		assert.Equal(t, code, same)
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Severity
		wantErr bool
	}{
		{name: "code", in: "medium", want: SeverityMedium},
		{name: "label", in: "Severe", want: SeverityHigh},
		{name: "mixed case", in: "mIlD", want: SeverityLow},
		{name: "padded", in: "  moderate ", want: SeverityMedium},
		{name: "unknown", in: "critical", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSeverity(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverityUnmarshalJSON(t *testing.T) {
	var s Severity
	require.NoError(t, json.Unmarshal([]byte(`"Moderate"`), &s))
	assert.Equal(t, SeverityMedium, s)

	require.NoError(t, json.Unmarshal([]byte(`""`), &s))
	assert.Equal(t, Severity(""), s)

	assert.Error(t, json.Unmarshal([]byte(`"urgent"`), &s))
	assert.Error(t, json.Unmarshal([]byte(`42`), &s))
}

func TestParseAssessmentType(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    AssessmentType
		wantErr bool
	}{
		{name: "stored form", in: "finger_tapping", want: TestFingerTapping},
		{name: "dashed", in: "finger-tapping", want: TestFingerTapping},
		{name: "spaced", in: "Palm Open", want: TestPalmOpen},
		{name: "stand sit", in: "stand_sit", want: TestStandSit},
		{name: "unknown", in: "gait", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAssessmentType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

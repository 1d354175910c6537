package analysis

import (
	"errors"
	"fmt"
	"math"
)

// Capture defaults for the webcam recordings the dashboard produces.
const (
	DefaultFPS           = 20.0
	DefaultRecordSeconds = 10.0
)

// Hysteresis thresholds on the normalized hand amplitude. Values between
// the two keep the previous open/closed state, so jitter inside the band
// never counts as movement.
const (
	ClosedThreshold = 0.5
	OpenThreshold   = 0.8
)

// StandAngleDegrees separates seated from standing posture; a repetition is
// a drop of the hip-knee angle below this threshold.
const StandAngleDegrees = 95.0

// Hand landmark indices in the 21-point layout the keypoint extractor emits.
const (
	handWrist     = 0
	handThumbTip  = 4
	handIndexTip  = 8
	handMiddleMCP = 9
)

// Body landmark indices in the 17-point pose layout.
const (
	poseHip  = 11
	poseKnee = 13
)

// Kind selects the metric set for a motion capture. Values line up with the
// stored assessment types.
type Kind string

const (
	KindFingerTapping Kind = "finger_tapping"
	KindPalmOpen      Kind = "palm_open"
	KindStandSit      Kind = "stand_sit"
)

// Motion is the decoded capture payload: either per-frame landmark sets
// from the keypoint extractor, or precomputed series recorded client-side.
type Motion struct {
	FPS               float64       `json:"fps,omitempty"`
	DurationSeconds   float64       `json:"duration_seconds,omitempty"`
	Frames            int           `json:"frames,omitempty"`
	Amplitude         []float64     `json:"amplitude,omitempty"`
	Angles            []float64     `json:"angles,omitempty"`
	Landmarks         [][][]float64 `json:"landmarks,omitempty"`
	NoseX             []float64     `json:"nose_x,omitempty"`
	NoseY             []float64     `json:"nose_y,omitempty"`
	VelocityMagnitude []float64     `json:"velocity_magnitude,omitempty"`
}

// Summary is the outcome of analyzing one capture.
type Summary struct {
	DurationSeconds float64
	RepCount        int
	RepsPerSecond   float64
	MeanAmplitude   float64
	AmplitudeDecay  float64
	PeakSpeed       float64
	Score           float64
}

// Target repetition rates per second considered unimpaired, used to scale
// the rate component of the score.
var targetRates = map[Kind]float64{
	KindFingerTapping: 4.0,
	KindPalmOpen:      2.0,
	KindStandSit:      0.5,
}

// normalize fills derivable fields: fps falls back to the capture default,
// frames to the primary series length, duration to frames over fps.
func (m *Motion) normalize(kind Kind) {
	if m.FPS <= 0 {
		m.FPS = DefaultFPS
	}
	if m.Frames <= 0 {
		m.Frames = m.seriesLength(kind)
	}
	if m.DurationSeconds <= 0 && m.FPS > 0 {
		m.DurationSeconds = float64(m.Frames) / m.FPS
	}
	if m.DurationSeconds <= 0 {
		m.DurationSeconds = DefaultRecordSeconds
	}
}

func (m *Motion) seriesLength(kind Kind) int {
	if len(m.Landmarks) > 0 {
		return len(m.Landmarks)
	}
	if kind == KindStandSit && len(m.Angles) > 0 {
		return len(m.Angles)
	}
	if len(m.Amplitude) > 0 {
		return len(m.Amplitude)
	}
	return len(m.NoseX)
}

// amplitudeSeries produces the per-frame movement series for the test kind.
// Hand tests use the normalized fingertip distances of the original
// protocol; stand-sit uses the hip-knee angle in degrees.
func (m *Motion) amplitudeSeries(kind Kind) ([]float64, error) {
	switch kind {
	case KindFingerTapping:
		if len(m.Amplitude) > 0 {
			return m.Amplitude, nil
		}
		return handRatio(m.Landmarks, handThumbTip, handIndexTip)
	case KindPalmOpen:
		if len(m.Amplitude) > 0 {
			return m.Amplitude, nil
		}
		return handRatio(m.Landmarks, handWrist, handIndexTip)
	case KindStandSit:
		if len(m.Angles) > 0 {
			return m.Angles, nil
		}
		return hipKneeAngles(m.Landmarks)
	}
	return nil, fmt.Errorf("unknown capture kind %q", kind)
}

// handRatio computes dist(a,b) / dist(middle MCP, wrist) per frame in the
// xy plane. A zero reference distance yields a zero sample.
func handRatio(frames [][][]float64, a, b int) ([]float64, error) {
	if len(frames) == 0 {
		return nil, errors.New("no landmark frames in capture")
	}
	out := make([]float64, len(frames))
	for i, lm := range frames {
		if len(lm) <= handMiddleMCP || len(lm) <= a || len(lm) <= b {
			return nil, fmt.Errorf("frame %d has %d landmarks, need 21-point hand set", i, len(lm))
		}
		ref := pointDist(lm[handMiddleMCP], lm[handWrist])
		if ref == 0 {
			continue
		}
		out[i] = pointDist(lm[a], lm[b]) / ref
	}
	return out, nil
}

// hipKneeAngles returns abs(atan2) of the knee-to-hip segment per frame,
// in degrees.
func hipKneeAngles(frames [][][]float64) ([]float64, error) {
	if len(frames) == 0 {
		return nil, errors.New("no landmark frames in capture")
	}
	out := make([]float64, len(frames))
	for i, lm := range frames {
		if len(lm) <= poseKnee {
			return nil, fmt.Errorf("frame %d has %d landmarks, need 17-point pose set", i, len(lm))
		}
		dx := lm[poseHip][0] - lm[poseKnee][0]
		dy := lm[poseHip][1] - lm[poseKnee][1]
		out[i] = math.Abs(math.Atan2(dy, dx) * 180 / math.Pi)
	}
	return out, nil
}

func pointDist(a, b []float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return math.Hypot(dx, dy)
}

// CountCycles counts open-to-closed transitions of a hand series under the
// hysteresis thresholds. The toggle only changes on definite states;
// samples inside the band keep the previous one.
func CountCycles(amplitude []float64, low, high float64) int {
	count := 0
	prev := ""
	for _, d := range amplitude {
		var cur string
		switch {
		case d <= low:
			cur = "closed"
		case d >= high:
			cur = "open"
		default:
			continue
		}
		if prev == "open" && cur == "closed" {
			count++
		}
		prev = cur
	}
	return count
}

// CountDrops counts downward crossings of the threshold, the stand-sit
// repetition rule.
func CountDrops(values []float64, threshold float64) int {
	count := 0
	for i := 1; i < len(values); i++ {
		if values[i-1] >= threshold && values[i] < threshold {
			count++
		}
	}
	return count
}

// Analyze computes the session metrics for a capture of the given kind.
func Analyze(m Motion, kind Kind) (Summary, error) {
	m.normalize(kind)

	series, err := m.amplitudeSeries(kind)
	if err != nil {
		return Summary{}, err
	}
	if len(series) == 0 {
		return Summary{}, errors.New("empty capture series")
	}

	times := make([]float64, len(series))
	for i := range times {
		times[i] = float64(i) / m.FPS
	}

	var reps int
	if kind == KindStandSit {
		reps = CountDrops(series, StandAngleDegrees)
	} else {
		reps = CountCycles(series, ClosedThreshold, OpenThreshold)
		if reps == 0 {
			// Weak movement may never reach a definite state; fall back to
			// counting smoothed oscillation peaks.
			maxima := LocalMaxima(Smooth(series))
			minima := LocalMinima(Smooth(series))
			if len(maxima) < len(minima) {
				reps = len(maxima)
			} else {
				reps = len(minima)
			}
		}
	}

	// Amplitude statistics are taken on a [0,1] scale so hand ratios and
	// angle series report comparably.
	norm := MinMaxNormalize(series)
	speed := Gradient(norm, times)

	s := Summary{
		DurationSeconds: m.DurationSeconds,
		RepCount:        reps,
		MeanAmplitude:   mean(norm),
		AmplitudeDecay:  decay(norm),
		PeakSpeed:       maxAbs(speed),
	}
	if m.DurationSeconds > 0 {
		s.RepsPerSecond = float64(reps) / m.DurationSeconds
	}
	s.Score = score(kind, s.RepsPerSecond, s.AmplitudeDecay)
	return s, nil
}

// score combines the repetition rate against the per-kind target with the
// sustain of amplitude over the session, on a 0..100 scale. Monotone in the
// repetition rate.
func score(kind Kind, rate, amplitudeDecay float64) float64 {
	target := targetRates[kind]
	if target <= 0 {
		target = targetRates[KindFingerTapping]
	}
	rateComponent := math.Min(rate/target, 1)
	sustain := 1 - clamp01(amplitudeDecay)
	return math.Round((0.7*rateComponent+0.3*sustain)*1000) / 10
}

// decay measures how much the mean amplitude falls from the first half of
// the session to the second, as a fraction of the first half. Negative
// values (movement growing) clamp to zero.
func decay(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	half := len(values) / 2
	first := mean(values[:half])
	second := mean(values[half:])
	if first <= 0 {
		return 0
	}
	return clamp01((first - second) / first)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func maxAbs(values []float64) float64 {
	out := 0.0
	for _, v := range values {
		out = math.Max(out, math.Abs(v))
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Compare resamples and min-max normalizes the nose trajectories of two
// captures, then reports the mean per-axis DTW similarity. Captures without
// a trajectory fall back to their amplitude series.
func Compare(a, b Motion) (float64, error) {
	axesA, err := trajectoryAxes(a)
	if err != nil {
		return 0, err
	}
	axesB, err := trajectoryAxes(b)
	if err != nil {
		return 0, err
	}
	if len(axesA) != len(axesB) {
		return 0, errors.New("captures expose different series, cannot compare")
	}

	total := 0.0
	for i := range axesA {
		sim, err := Similarity(
			Resample(MinMaxNormalize(axesA[i]), ResampleLength),
			Resample(MinMaxNormalize(axesB[i]), ResampleLength),
		)
		if err != nil {
			return 0, err
		}
		total += sim
	}
	return total / float64(len(axesA)), nil
}

func trajectoryAxes(m Motion) ([][]float64, error) {
	if len(m.NoseX) > 0 && len(m.NoseY) > 0 {
		return [][]float64{m.NoseX, m.NoseY}, nil
	}
	if len(m.Amplitude) > 0 {
		return [][]float64{m.Amplitude}, nil
	}
	if len(m.Angles) > 0 {
		return [][]float64{m.Angles}, nil
	}
	return nil, errors.New("capture has no comparable series")
}

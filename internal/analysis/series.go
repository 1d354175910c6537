package analysis

import (
	"errors"
	"math"
)

// Series helpers shared by the motor-test metrics: numerical gradient,
// min-max normalization, linear resampling, smoothing, extrema detection
// and dynamic time warping. All operate on plain float64 slices.

// ResampleLength is the common series length sessions are brought to
// before they are compared.
const ResampleLength = 100

// Gradient returns the numerical derivative of values with respect to
// times: central differences in the interior, one-sided at the edges.
// Fewer than two samples yield a zero gradient.
func Gradient(values, times []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n < 2 || len(times) != n {
		return out
	}
	out[0] = diffQuot(values[1]-values[0], times[1]-times[0])
	out[n-1] = diffQuot(values[n-1]-values[n-2], times[n-1]-times[n-2])
	for i := 1; i < n-1; i++ {
		out[i] = diffQuot(values[i+1]-values[i-1], times[i+1]-times[i-1])
	}
	return out
}

func diffQuot(dv, dt float64) float64 {
	if dt == 0 {
		return 0
	}
	return dv / dt
}

// MinMaxNormalize maps values onto [0,1]. A flat series maps to zeros.
func MinMaxNormalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}

// Resample linearly interpolates values onto target evenly spaced samples,
// preserving the first and last sample.
func Resample(values []float64, target int) []float64 {
	if target <= 0 || len(values) == 0 {
		return nil
	}
	out := make([]float64, target)
	if len(values) == 1 || target == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	step := float64(len(values)-1) / float64(target-1)
	for i := range out {
		pos := float64(i) * step
		j := int(math.Floor(pos))
		if j >= len(values)-1 {
			out[i] = values[len(values)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = values[j]*(1-frac) + values[j+1]*frac
	}
	return out
}

// Smooth applies a Savitzky-Golay filter with window 3 and order 1: a
// centered three-point mean with linear fits at the edges. Series shorter
// than the window are returned as a copy.
func Smooth(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	copy(out, values)
	if n < 3 {
		return out
	}
	out[0] = (5*values[0] + 2*values[1] - values[2]) / 6
	for i := 1; i < n-1; i++ {
		out[i] = (values[i-1] + values[i] + values[i+1]) / 3
	}
	out[n-1] = (-values[n-3] + 2*values[n-2] + 5*values[n-1]) / 6
	return out
}

// LocalMinima returns the indices where the sign of the first difference
// flips from falling to rising.
func LocalMinima(values []float64) []int {
	return extrema(values, 1)
}

// LocalMaxima returns the indices where the sign of the first difference
// flips from rising to falling.
func LocalMaxima(values []float64) []int {
	return extrema(values, -1)
}

func extrema(values []float64, dir int) []int {
	var idx []int
	for i := 1; i < len(values)-1; i++ {
		before := sign(values[i] - values[i-1])
		after := sign(values[i+1] - values[i])
		if dir > 0 && after > before {
			idx = append(idx, i)
		}
		if dir < 0 && after < before {
			idx = append(idx, i)
		}
	}
	return idx
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// DTW computes the dynamic time warping distance between two series using
// squared point costs, plus the length of the best warp path. The distance
// is the square root of the accumulated cost, matching the usual Euclidean
// formulation.
func DTW(a, b []float64) (float64, int, error) {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return 0, 0, errors.New("dtw: empty series")
	}

	acc := make([][]float64, n+1)
	for i := range acc {
		acc[i] = make([]float64, m+1)
		for j := range acc[i] {
			acc[i][j] = math.Inf(1)
		}
	}
	acc[0][0] = 0
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			d := a[i-1] - b[j-1]
			acc[i][j] = d*d + min3(acc[i-1][j], acc[i][j-1], acc[i-1][j-1])
		}
	}

	// Walk the cheapest path back to measure its length.
	pathLen := 1
	for i, j := n, m; i > 1 || j > 1; pathLen++ {
		switch {
		case i == 1:
			j--
		case j == 1:
			i--
		default:
			up, left, diag := acc[i-1][j], acc[i][j-1], acc[i-1][j-1]
			if diag <= up && diag <= left {
				i--
				j--
			} else if up <= left {
				i--
			} else {
				j--
			}
		}
	}

	return math.Sqrt(acc[n][m]), pathLen, nil
}

// Similarity is the DTW distance divided by the warp path length; lower
// values mean closer movement patterns.
func Similarity(a, b []float64) (float64, error) {
	dist, pathLen, err := DTW(a, b)
	if err != nil {
		return 0, err
	}
	return dist / float64(pathLen), nil
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

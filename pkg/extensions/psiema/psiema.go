// Package psiema implements the Ψ-EMA indicator analyzer: a
// three-dimensional {θ, z, R} oscillator computed from a close-price
// sequence, read out through a φ-threshold decision tree.
//
// Grounded on spec.md §4.J; no teacher file addresses market-indicator
// math, so the formulas below are original, following only the shapes and
// thresholds the spec fixes (atan2-derived phase, MAD-based robust
// z-score, amplitude-ratio convergence, φ/φ²/1-over-φ decision bands).
package psiema

import (
	"errors"
	"math"
	"sort"
)

// Golden-ratio thresholds fixed by spec.md §4.J.
const (
	Phi        = 1.618
	PhiSquared = 2.618
	InvPhi     = 0.618
)

// MinDailyBars/MinWeeklyBars are the minimum history lengths required
// before an analysis is considered verified (spec.md §4.F step 5).
const (
	MinDailyBars  = 55
	MinWeeklyBars = 13
)

var ErrInsufficientBars = errors.New("psiema: insufficient bars for analysis")

// Reading is the full Ψ-EMA output for one close-price series.
type Reading struct {
	ThetaDeg float64
	Z        float64
	R        float64
	Category string
	Grade    string // A (high-confidence) .. D (low-confidence/borderline)
}

// Analyze computes the Ψ-EMA reading for closes (oldest first). Requires
// at least MinDailyBars entries.
func Analyze(closes []float64) (Reading, error) {
	if len(closes) < MinDailyBars {
		return Reading{}, ErrInsufficientBars
	}

	theta := phaseDeg(closes)
	z := robustZScore(closes)
	r := amplitudeRatio(closes)

	reading := Reading{ThetaDeg: theta, Z: z, R: r}
	reading.Category = classify(theta, z, r)
	reading.Grade = grade(len(closes), z)
	return reading, nil
}

// phaseDeg computes θ = atan2(flow, stock) in degrees, where "flow" is the
// most recent momentum (last close minus the window mean) and "stock" is
// the window mean itself — a phase angle describing momentum relative to
// price level.
func phaseDeg(closes []float64) float64 {
	mean := meanOf(closes)
	flow := closes[len(closes)-1] - mean
	stock := mean
	if stock == 0 {
		stock = 1e-9
	}
	return radToDeg(math.Atan2(flow, stock))
}

func radToDeg(r float64) float64 { return r * 180 / math.Pi }

// robustZScore computes a MAD-based robust z-score of the last close
// against the window: z = 0.6745 * (x - median) / MAD.
func robustZScore(closes []float64) float64 {
	median := medianOf(closes)
	deviations := make([]float64, len(closes))
	for i, c := range closes {
		deviations[i] = math.Abs(c - median)
	}
	mad := medianOf(deviations)
	if mad == 0 {
		mad = 1e-9
	}
	last := closes[len(closes)-1]
	return 0.6745 * (last - median) / mad
}

// amplitudeRatio computes R as the ratio between the most recent quarter
// of the window's range and the full window's range — a convergence
// measure: R near 1 means recent volatility matches historical volatility.
func amplitudeRatio(closes []float64) float64 {
	fullRange := rangeOf(closes)
	if fullRange == 0 {
		return 1
	}
	recentStart := len(closes) - len(closes)/4
	if recentStart < 1 {
		recentStart = 1
	}
	recentRange := rangeOf(closes[recentStart:])
	return recentRange / fullRange
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func rangeOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo
}

// classify maps {theta,z,r} onto a categorical reading via the φ-threshold
// decision tree: extreme |z| beyond φ² dominates; otherwise R relative to
// φ/1-over-φ distinguishes expansion from contraction; θ's sign breaks ties.
func classify(theta, z, r float64) string {
	switch {
	case math.Abs(z) >= PhiSquared:
		if z > 0 {
			return "overextended-bullish"
		}
		return "overextended-bearish"
	case r >= Phi:
		return "expanding-volatility"
	case r <= InvPhi:
		return "contracting-volatility"
	case theta > 0:
		return "neutral-bullish-drift"
	case theta < 0:
		return "neutral-bearish-drift"
	default:
		return "neutral"
	}
}

// grade assigns a fidelity letter: A (at least 3x MinDailyBars and a
// decisive z), B (at least 2x MinDailyBars), C (at least MinDailyBars),
// D (fewer than MinDailyBars, which Analyze already rejects).
func grade(bars int, z float64) string {
	switch {
	case bars >= MinDailyBars*3 && math.Abs(z) >= InvPhi:
		return "A"
	case bars >= MinDailyBars*2:
		return "B"
	case bars >= MinDailyBars:
		return "C"
	default:
		return "D"
	}
}

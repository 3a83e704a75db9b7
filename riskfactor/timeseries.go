package riskfactor

import (
	"fmt"
	"time"

	"github.com/tidwall/btree"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/utils"
)

// Interpolation selects how a time series answers between observations.
type Interpolation int

const (
	// Step holds the latest observation at or before the query time.
	Step Interpolation = iota
	// Linear interpolates between the surrounding observations.
	Linear
)

// ParseInterpolation maps "step" and "linear" to an Interpolation.
func ParseInterpolation(s string) (Interpolation, error) {
	switch s {
	case "", "step":
		return Step, nil
	case "linear":
		return Linear, nil
	default:
		return Step, fmt.Errorf("ParseInterpolation: unknown interpolation %q", s)
	}
}

// TimeSeries is a market model over dated observations. Queries before the
// first observation fail, queries after the last hold the last value.
type TimeSeries struct {
	points *btree.Map[int64, float64]
	mode   Interpolation
}

// NewTimeSeries creates an empty series.
func NewTimeSeries(mode Interpolation) *TimeSeries {
	return &TimeSeries{points: btree.NewMap[int64, float64](32), mode: mode}
}

// Add sets the observation at t, replacing an earlier one at the same time.
func (ts *TimeSeries) Add(t time.Time, v float64) *TimeSeries {
	ts.points.Set(t.UnixNano(), v)
	return ts
}

// Len returns the number of observations.
func (ts *TimeSeries) Len() int {
	return ts.points.Len()
}

func (ts *TimeSeries) StateAt(t time.Time) (float64, error) {
	key := t.UnixNano()

	var (
		loKey, hiKey int64
		loVal, hiVal float64
		hasLo, hasHi bool
	)
	ts.points.Descend(key, func(k int64, v float64) bool {
		loKey, loVal, hasLo = k, v, true
		return false
	})
	if !hasLo {
		return 0, fmt.Errorf("%w at or before %s", ErrNoObservation, utils.FormatDate(t))
	}
	if loKey == key || ts.mode == Step {
		return loVal, nil
	}

	ts.points.Ascend(key, func(k int64, v float64) bool {
		hiKey, hiVal, hasHi = k, v, true
		return false
	})
	if !hasHi {
		return loVal, nil
	}
	w := float64(key-loKey) / float64(hiKey-loKey)
	return loVal + w*(hiVal-loVal), nil
}

// Constant is a market model with the same value at every time.
type Constant float64

func (c Constant) StateAt(time.Time) (float64, error) {
	return float64(c), nil
}

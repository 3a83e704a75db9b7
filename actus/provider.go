package actus

import (
	"fmt"
	"time"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/calendar"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/utils"
)

// RiskFactorProvider supplies external observations and behavioral decisions.
//
// isMarket distinguishes pure market lookups from behavior models, which may
// read the state and keep per-contract memory between calls.
type RiskFactorProvider interface {
	StateAt(id string, t time.Time, s State, terms *Terms, isMarket bool) (float64, error)
}

// CalloutKind names the event a behavior model asks to be invoked through.
type CalloutKind string

const (
	CalloutAFD CalloutKind = "AFD"
	CalloutMRD CalloutKind = "MRD"
	CalloutPP  CalloutKind = "PP"
	// CalloutSTD settles the contract early. The observed value is the
	// fraction of notional paid; any positive value extinguishes the notional.
	CalloutSTD CalloutKind = "STD"
)

// Callout is a registration by a behavior model to be called at Time.
type Callout struct {
	RiskFactorID string
	Time         time.Time
	Kind         CalloutKind
}

// CalloutSource is implemented by providers whose behavior models register callouts
// when a contract starts.
type CalloutSource interface {
	ContractStart(terms *Terms) ([]Callout, error)
}

// Env bundles what payoff and transition functions read besides time and state.
type Env struct {
	Terms       *Terms
	RiskFactors RiskFactorProvider
	DayCounter  utils.DayCounter
	Adjuster    calendar.Adjuster

	// observations memoizes lookups within a single event so that the payoff
	// and the transition of one event see the same value.
	observations map[observationKey]float64

	covered coveredTimeline
}

type observationKey struct {
	id     string
	market bool
}

// NewEnv derives the day counter and adjuster from the terms.
func NewEnv(terms *Terms, rf RiskFactorProvider) *Env {
	return &Env{
		Terms:       terms,
		RiskFactors: rf,
		DayCounter:  terms.DayCounter(),
		Adjuster:    terms.Adjuster(),
	}
}

// YearFraction measures from..to on calculation-shifted dates.
func (e *Env) YearFraction(from, to time.Time) float64 {
	return e.DayCounter.Fraction(e.Adjuster.ShiftCalcTime(from), e.Adjuster.ShiftCalcTime(to))
}

// Observe queries the risk factor provider.
func (e *Env) Observe(id string, t time.Time, s State, market bool) (float64, error) {
	if id == "" {
		return 0, configErr(e.Terms.ContractID, "riskFactorID", "empty risk factor identifier at %s", utils.FormatDate(t))
	}
	key := observationKey{id: id, market: market}
	if v, ok := e.observations[key]; ok {
		return v, nil
	}
	if e.RiskFactors == nil {
		return 0, fmt.Errorf("%w: %s requested at %s", ErrNoRiskFactors, id, utils.FormatDate(t))
	}
	v, err := e.RiskFactors.StateAt(id, t, s, e.Terms, market)
	if err != nil {
		return 0, err
	}
	if e.observations != nil {
		e.observations[key] = v
	}
	return v, nil
}

func (e *Env) beginEvent() {
	e.observations = make(map[observationKey]float64, 2)
}

func (e *Env) endEvent() {
	e.observations = nil
}

// fxRate converts payoffs into the settlement currency when one is set.
func (e *Env) fxRate(t time.Time, s State) (float64, error) {
	sc := e.Terms.SettlementCurrency
	if sc == "" || sc == e.Terms.Currency {
		return 1, nil
	}
	return e.Observe(e.Terms.Currency+"/"+sc, t, s, true)
}

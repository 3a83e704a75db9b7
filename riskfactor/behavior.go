package riskfactor

import (
	"math"
	"slices"
	"time"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/actus"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/utils"
)

// CollateralLTV monitors the loan-to-value ratio of a collateralized loan and
// answers MRD callouts with the fraction of notional to repay.
//
// Below Threshold nothing is called. From Threshold up the model asks for the
// repayment that brings the ratio back to Target. At Liquidation the whole
// notional is called.
type CollateralLTV struct {
	PriceID         string
	Quantity        float64
	Threshold       float64
	Target          float64
	Liquidation     float64
	MonitoringTimes []time.Time
}

func (m *CollateralLTV) StateAt(t time.Time, s actus.State, _ *actus.Terms, markets MarketReader) (float64, error) {
	price, err := markets.MarketAt(m.PriceID, t)
	if err != nil {
		return 0, err
	}
	if price <= 0 || m.Quantity <= 0 {
		return 0, degenerate("collateral %s valued at %g x %g", m.PriceID, m.Quantity, price)
	}
	nt := math.Abs(s.NotionalPrincipal)
	if nt == 0 {
		return 0, nil
	}
	collateral := m.Quantity * price
	ltv := nt / collateral
	switch {
	case ltv >= m.Liquidation:
		return 1, nil
	case ltv >= m.Threshold:
		return math.Max(0, (nt-m.Target*collateral)/nt), nil
	default:
		return 0, nil
	}
}

func (m *CollateralLTV) ContractStart(id string, terms *actus.Terms) []actus.Callout {
	return callouts(id, m.MonitoringTimes, actus.CalloutMRD, terms)
}

// DepositSurface holds deposit and withdrawal amounts per contract and date.
// Positive amounts increase the notional, negative ones draw it down.
type DepositSurface struct {
	cells map[string]map[time.Time]float64
}

// NewDepositSurface creates an empty surface.
func NewDepositSurface() *DepositSurface {
	return &DepositSurface{cells: make(map[string]map[time.Time]float64)}
}

// Set records the amount moved for contractID at t.
func (m *DepositSurface) Set(contractID string, t time.Time, amount float64) *DepositSurface {
	row, ok := m.cells[contractID]
	if !ok {
		row = make(map[time.Time]float64)
		m.cells[contractID] = row
	}
	row[t.UTC()] = amount
	return m
}

// StateAt returns the amount for the contract at t, 0 where nothing is recorded.
func (m *DepositSurface) StateAt(t time.Time, _ actus.State, terms *actus.Terms, _ MarketReader) (float64, error) {
	if terms == nil {
		return 0, degenerate("deposit surface queried without contract terms")
	}
	return m.cells[terms.ContractID][t.UTC()], nil
}

func (m *DepositSurface) ContractStart(id string, terms *actus.Terms) []actus.Callout {
	row := m.cells[terms.ContractID]
	times := make([]time.Time, 0, len(row))
	for t := range row {
		times = append(times, t)
	}
	slices.SortFunc(times, time.Time.Compare)
	return callouts(id, times, actus.CalloutAFD, terms)
}

// Prepayment answers with the fraction of outstanding notional prepaid at a
// date: Surface when set, Fraction otherwise. EventTimes adds unscheduled PP
// events to contracts that activate the model.
type Prepayment struct {
	Fraction   float64
	Surface    *TimeSeries
	EventTimes []time.Time
}

func (m *Prepayment) StateAt(t time.Time, _ actus.State, _ *actus.Terms, _ MarketReader) (float64, error) {
	f := m.Fraction
	if m.Surface != nil {
		v, err := m.Surface.StateAt(t)
		if err != nil {
			return 0, err
		}
		f = v
	}
	if f < 0 || f > 1 {
		return 0, degenerate("prepayment fraction %g at %s outside [0, 1]", f, utils.FormatDate(t))
	}
	return f, nil
}

func (m *Prepayment) ContractStart(id string, terms *actus.Terms) []actus.Callout {
	return callouts(id, m.EventTimes, actus.CalloutPP, terms)
}

// callouts drops times before the initial exchange date.
func callouts(id string, times []time.Time, kind actus.CalloutKind, terms *actus.Terms) []actus.Callout {
	out := make([]actus.Callout, 0, len(times))
	for _, t := range times {
		if !terms.InitialExchangeDate.IsZero() && t.Before(terms.InitialExchangeDate) {
			continue
		}
		out = append(out, actus.Callout{RiskFactorID: id, Time: t, Kind: kind})
	}
	return out
}

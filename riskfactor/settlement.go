package riskfactor

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/actus"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/utils"
)

// DiscountCurve shapes the early payment discount over the life of an invoice.
type DiscountCurve string

const (
	DiscountLinear      DiscountCurve = "LINEAR"
	DiscountStepwise    DiscountCurve = "STEPWISE"
	DiscountExponential DiscountCurve = "EXPONENTIAL"
	DiscountPower       DiscountCurve = "POWER"
	DiscountCustom      DiscountCurve = "CUSTOM"
)

// ParseDiscountCurve maps a curve name to a DiscountCurve. Empty means LINEAR.
func ParseDiscountCurve(s string) (DiscountCurve, error) {
	c := DiscountCurve(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case "":
		return DiscountLinear, nil
	case DiscountLinear, DiscountStepwise, DiscountExponential, DiscountPower, DiscountCustom:
		return c, nil
	default:
		return "", fmt.Errorf("ParseDiscountCurve: unknown discount curve %q", s)
	}
}

// DiscountStep applies Rate from Days after the invoice date on. Steps are
// kept in ascending order of Days.
type DiscountStep struct {
	Days int
	Rate float64
}

// EarlySettlement decides when a buyer settles an invoice before its due
// date in exchange for a discount. It answers STD callouts with the fraction
// of notional paid, 1 - discount, once the annualized discount reaches
// HurdleRate and the buyer holds enough cash. It settles at most once; use
// Clone to give every contract its own model.
type EarlySettlement struct {
	InvoiceDate time.Time
	DueDate     time.Time
	Curve       DiscountCurve
	// MaxDiscount is the discount on the invoice date.
	MaxDiscount float64
	// Lambda is the decay of the EXPONENTIAL curve, Alpha the exponent of POWER.
	Lambda float64
	Alpha  float64
	Steps  []DiscountStep
	// CustomID names the market object holding the CUSTOM discount.
	CustomID   string
	HurdleRate float64
	// BuyerCashID names the market object holding the buyer's cash. Empty
	// skips the liquidity check.
	BuyerCashID     string
	MonitoringTimes []time.Time

	settled bool
}

func (m *EarlySettlement) StateAt(t time.Time, s actus.State, _ *actus.Terms, markets MarketReader) (float64, error) {
	nt := math.Abs(s.NotionalPrincipal)
	if m.settled || nt == 0 || t.After(m.DueDate) {
		return 0, nil
	}
	if !m.DueDate.After(m.InvoiceDate) {
		return 0, degenerate("invoice due %s is not after %s", utils.FormatDate(m.DueDate), utils.FormatDate(m.InvoiceDate))
	}
	discount, err := m.discount(t, markets)
	if err != nil {
		return 0, err
	}
	if left := utils.Days(t, m.DueDate); left > 0 && discount*365/left < m.HurdleRate {
		return 0, nil
	}
	if m.BuyerCashID != "" {
		cash, err := markets.MarketAt(m.BuyerCashID, t)
		if err != nil {
			return 0, err
		}
		if cash < nt*(1-discount) {
			return 0, nil
		}
	}
	m.settled = true
	return 1 - discount, nil
}

func (m *EarlySettlement) discount(t time.Time, markets MarketReader) (float64, error) {
	elapsed := utils.Days(m.InvoiceDate, t)
	x := min(1, elapsed/utils.Days(m.InvoiceDate, m.DueDate))
	switch m.Curve {
	case DiscountStepwise:
		if len(m.Steps) == 0 {
			return m.MaxDiscount, nil
		}
		rate := 0.0
		for _, st := range m.Steps {
			if elapsed < float64(st.Days) {
				break
			}
			rate = st.Rate
		}
		return rate, nil
	case DiscountExponential:
		if x >= 1 {
			return 0, nil
		}
		return m.MaxDiscount * math.Exp(-m.Lambda*x), nil
	case DiscountPower:
		return m.MaxDiscount * (1 - math.Pow(x, m.Alpha)), nil
	case DiscountCustom:
		if m.CustomID != "" {
			v, err := markets.MarketAt(m.CustomID, t)
			if err != nil {
				return 0, err
			}
			return math.Abs(v), nil
		}
	}
	return m.MaxDiscount * (1 - x), nil
}

func (m *EarlySettlement) ContractStart(id string, terms *actus.Terms) []actus.Callout {
	return callouts(id, m.MonitoringTimes, actus.CalloutSTD, terms)
}

// Clone returns an independent copy.
func (m *EarlySettlement) Clone() BehaviorModel {
	c := *m
	c.Steps = slices.Clone(m.Steps)
	c.MonitoringTimes = slices.Clone(m.MonitoringTimes)
	return &c
}

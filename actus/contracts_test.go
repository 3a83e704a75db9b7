package actus_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/actus"
)

func TestLAMDerivesMaturityAndRedeemsLinearly(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, map[string]any{
		"contractID":                           "lam-1",
		"contractType":                         "LAM",
		"contractRole":                         "RPA",
		"currency":                             "EUR",
		"statusDate":                           "2024-01-01",
		"initialExchangeDate":                  "2024-01-01",
		"notionalPrincipal":                    300.0,
		"nominalInterestRate":                  0.0,
		"cycleOfPrincipalRedemption":           "P1ML1",
		"cycleAnchorDateOfPrincipalRedemption": "2024-02-01",
		"nextPrincipalRedemptionPayment":       100.0,
	})
	events, err := actus.Evaluate(d(2030, 1, 1), terms, nil)
	require.NoError(t, err)
	require.Equal(t, []actus.EventType{actus.IED, actus.PR, actus.PR, actus.IP, actus.MD}, types(events))

	md := events[len(events)-1]
	assert.Equal(t, d(2024, 4, 1), md.Time)
	for _, pr := range only(events, actus.PR) {
		assert.InDelta(t, 100, pr.Payoff, 1e-9)
	}
	assert.InDelta(t, 100, md.Payoff, 1e-9)
	assert.InDelta(t, 100, events[2].State.NotionalPrincipal, 1e-9)
}

func TestLAMInterestAccruesOnReducedNotional(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, map[string]any{
		"contractID":                           "lam-2",
		"contractType":                         "LAM",
		"contractRole":                         "RPA",
		"currency":                             "EUR",
		"statusDate":                           "2024-01-01",
		"initialExchangeDate":                  "2024-01-01",
		"maturityDate":                         "2024-04-01",
		"notionalPrincipal":                    300.0,
		"nominalInterestRate":                  0.12,
		"dayCountConvention":                   "30E360",
		"cycleOfPrincipalRedemption":           "P1ML1",
		"cycleAnchorDateOfPrincipalRedemption": "2024-02-01",
		"cycleOfInterestPayment":               "P1ML1",
		"cycleAnchorDateOfInterestPayment":     "2024-02-01",
	})
	events, err := actus.Evaluate(d(2030, 1, 1), terms, nil)
	require.NoError(t, err)

	ips := only(events, actus.IP)
	require.Len(t, ips, 3)
	assert.InDelta(t, 3.0, ips[0].Payoff, 1e-9)
	assert.InDelta(t, 2.0, ips[1].Payoff, 1e-9)
	assert.InDelta(t, 1.0, ips[2].Payoff, 1e-9)
}

func TestANNPaysConstantInstallments(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, map[string]any{
		"contractID":                           "ann-1",
		"contractType":                         "ANN",
		"contractRole":                         "RPA",
		"currency":                             "USD",
		"statusDate":                           "2024-01-01",
		"initialExchangeDate":                  "2024-01-01",
		"maturityDate":                         "2025-01-01",
		"notionalPrincipal":                    1000.0,
		"nominalInterestRate":                  0.06,
		"dayCountConvention":                   "30E360",
		"cycleOfPrincipalRedemption":           "P1ML1",
		"cycleAnchorDateOfPrincipalRedemption": "2024-02-01",
		"cycleOfInterestPayment":               "P1ML1",
		"cycleAnchorDateOfInterestPayment":     "2024-02-01",
	})
	events, err := actus.Evaluate(d(2030, 1, 1), terms, nil)
	require.NoError(t, err)
	require.Len(t, only(events, actus.PRF), 1)

	installment := map[time.Time]float64{}
	for _, ev := range events {
		if ev.Type == actus.PR || ev.Type == actus.IP || ev.Type == actus.MD {
			installment[ev.Time] += ev.Payoff
		}
	}
	prnxt := only(events, actus.PRF)[0].State.NextPrincipalRedemptionPayment
	assert.InDelta(t, 86.07, prnxt, 0.05)
	for at, amount := range installment {
		assert.InDelta(t, prnxt, amount, 0.01, at.String())
	}
	assert.Zero(t, events[len(events)-1].State.NotionalPrincipal)
}

func TestNAMNegativeAmortizationGrowsNotional(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, map[string]any{
		"contractID":                           "nam-1",
		"contractType":                         "NAM",
		"contractRole":                         "RPA",
		"currency":                             "USD",
		"statusDate":                           "2024-01-01",
		"initialExchangeDate":                  "2024-01-01",
		"maturityDate":                         "2024-04-01",
		"notionalPrincipal":                    1200.0,
		"nominalInterestRate":                  0.12,
		"dayCountConvention":                   "30E360",
		"cycleOfPrincipalRedemption":           "P1ML1",
		"cycleAnchorDateOfPrincipalRedemption": "2024-02-01",
		"cycleOfInterestPayment":               "P1ML1",
		"cycleAnchorDateOfInterestPayment":     "2024-02-01",
		"nextPrincipalRedemptionPayment":       10.0,
	})
	events, err := actus.Evaluate(d(2030, 1, 1), terms, nil)
	require.NoError(t, err)
	prs := only(events, actus.PR)
	require.Len(t, prs, 2)
	assert.InDelta(t, -2.0, prs[0].Payoff, 1e-9)
	assert.InDelta(t, 1202.0, prs[0].State.NotionalPrincipal, 1e-9)
}

func TestNAMMaturityDerivedFromInstallment(t *testing.T) {
	t.Parallel()

	attrs := map[string]any{
		"contractID":                           "nam-2",
		"contractType":                         "NAM",
		"contractRole":                         "RPA",
		"currency":                             "USD",
		"statusDate":                           "2024-01-01",
		"initialExchangeDate":                  "2024-01-01",
		"notionalPrincipal":                    1000.0,
		"nominalInterestRate":                  0.0,
		"cycleOfPrincipalRedemption":           "P1ML1",
		"cycleAnchorDateOfPrincipalRedemption": "2024-02-01",
		"nextPrincipalRedemptionPayment":       250.0,
	}
	events, err := actus.Evaluate(d(2030, 1, 1), mustTerms(t, attrs), nil)
	require.NoError(t, err)
	assert.Equal(t, d(2024, 5, 1), events[len(events)-1].Time)

	_, err = actus.ParseTerms(with(attrs, "nominalInterestRate", 0.5, "nextPrincipalRedemptionPayment", 1.0))
	assert.ErrorIs(t, err, actus.ErrConfiguration)
}

func TestInterestCapitalizationUntilEndDate(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, with(pamAttrs(),
		"maturityDate", "2025-01-01",
		"dayCountConvention", "30E360",
		"cycleOfInterestPayment", "P6ML1",
		"cycleAnchorDateOfInterestPayment", "2024-07-01",
		"capitalizationEndDate", "2024-07-01",
	))
	events, err := actus.Evaluate(d(2030, 1, 1), terms, nil)
	require.NoError(t, err)
	require.Equal(t, []actus.EventType{actus.IED, actus.IPCI, actus.IP, actus.MD}, types(events))
	assert.Zero(t, events[1].Payoff)
	assert.InDelta(t, 1025, events[1].State.NotionalPrincipal, 1e-9)
	assert.InDelta(t, 1025*0.025, events[2].Payoff, 1e-9)
	assert.InDelta(t, 1025, events[3].Payoff, 1e-9)
}

func TestPrepaymentModelReducesNotional(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, with(pamAttrs(),
		"objectCodeOfPrepaymentModel", "ppm",
		"cycleOfOptionality", "P3ML1",
		"dayCountConvention", "30E360",
	))
	rf := newStub()
	rf.values["ppm"] = 0.2
	events, err := actus.Evaluate(d(2030, 1, 1), terms, rf)
	require.NoError(t, err)
	pp := only(events, actus.PP)
	require.Len(t, pp, 1)
	assert.Equal(t, d(2024, 4, 1), pp[0].Time)
	assert.InDelta(t, 200, pp[0].Payoff, 1e-9)
	assert.InDelta(t, 800, pp[0].State.NotionalPrincipal, 1e-9)
	assert.InDelta(t, 1000*0.05*0.25+800*0.05*0.25, only(events, actus.IP)[0].Payoff, 1e-9)
}

func TestScalingIndexAdjustsNotionalMultiplier(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, with(pamAttrs(),
		"scalingEffect", "ONO",
		"cycleOfScalingIndex", "P3ML1",
		"marketObjectCodeOfScalingIndex", "CPI",
		"scalingIndexAtStatusDate", 100.0,
	))
	rf := newStub()
	rf.values["CPI"] = 104
	events, err := actus.Evaluate(d(2030, 1, 1), terms, rf)
	require.NoError(t, err)
	require.Len(t, only(events, actus.SC), 1)
	md := only(events, actus.MD)[0]
	assert.InDelta(t, 1040, md.Payoff, 1e-9)
	assert.InDelta(t, 1, md.State.InterestScalingMultiplier, 1e-12)
}

func TestUMPDepositsThroughCallouts(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, map[string]any{
		"contractID":                       "ump-1",
		"contractType":                     "UMP",
		"contractRole":                     "RPA",
		"currency":                         "USD",
		"statusDate":                       "2024-01-01",
		"initialExchangeDate":              "2024-01-01",
		"notionalPrincipal":                1000.0,
		"nominalInterestRate":              0.04,
		"dayCountConvention":               "30E360",
		"cycleOfInterestPayment":           "P3ML1",
		"cycleAnchorDateOfInterestPayment": "2024-04-01",
	})
	rf := calloutStub{
		stubProvider: newStub(),
		callouts:     []actus.Callout{{RiskFactorID: "deposits", Time: d(2024, 2, 1), Kind: actus.CalloutAFD}},
	}
	rf.values["deposits"] = 200

	events, err := actus.Evaluate(d(2024, 12, 31), terms, rf)
	require.NoError(t, err)
	require.Equal(t, []actus.EventType{actus.IED, actus.AFD, actus.IPCI, actus.IPCI, actus.IPCI}, types(events))
	afd := events[1]
	assert.InDelta(t, -200, afd.Payoff, 1e-9)
	assert.InDelta(t, 1200, afd.State.NotionalPrincipal, 1e-9)

	ipci := events[2]
	want := 1200 + 1000*0.04/12 + 1200*0.04*2/12
	assert.InDelta(t, want, ipci.State.NotionalPrincipal, 1e-9)
	assert.Empty(t, only(events, actus.MD))
}

func TestUMPWithMaturitySettlesInterestAndPrincipal(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, map[string]any{
		"contractID":             "ump-2",
		"contractType":           "UMP",
		"contractRole":           "RPA",
		"currency":               "USD",
		"statusDate":             "2024-01-01",
		"initialExchangeDate":    "2024-01-01",
		"maturityDate":           "2025-01-01",
		"notionalPrincipal":      1000.0,
		"nominalInterestRate":    0.04,
		"dayCountConvention":     "30E360",
		"cycleOfInterestPayment": "P3ML1",
	})
	events, err := actus.Evaluate(d(2030, 1, 1), terms, nil)
	require.NoError(t, err)
	require.Equal(t, []actus.EventType{actus.IED, actus.IPCI, actus.IPCI, actus.IPCI, actus.IP, actus.MD}, types(events))

	capitalized := 1000 * 1.01 * 1.01 * 1.01
	assert.InDelta(t, capitalized, events[3].State.NotionalPrincipal, 1e-9)
	assert.InDelta(t, capitalized*0.01, events[4].Payoff, 1e-9)
	assert.Zero(t, events[4].State.AccruedInterest)
	assert.InDelta(t, capitalized, events[5].Payoff, 1e-9)
	assert.Zero(t, events[5].State.NotionalPrincipal)
}

func TestCLMWithMaturityPaysInterestAtMaturity(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, map[string]any{
		"contractID":          "clm-1",
		"contractType":        "CLM",
		"contractRole":        "RPL",
		"currency":            "USD",
		"statusDate":          "2024-01-01",
		"initialExchangeDate": "2024-01-01",
		"maturityDate":        "2024-07-01",
		"notionalPrincipal":   500.0,
		"nominalInterestRate": 0.02,
		"dayCountConvention":  "30E360",
	})
	events, err := actus.Evaluate(d(2030, 1, 1), terms, nil)
	require.NoError(t, err)
	require.Equal(t, []actus.EventType{actus.IED, actus.IP, actus.MD}, types(events))
	assert.InDelta(t, 500, events[0].Payoff, 1e-9)
	assert.InDelta(t, -5, events[1].Payoff, 1e-9)
	assert.InDelta(t, -500, events[2].Payoff, 1e-9)
}

func TestLAXSegments(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, map[string]any{
		"contractID":          "lax-1",
		"contractType":        "LAX",
		"contractRole":        "RPA",
		"currency":            "USD",
		"statusDate":          "2024-01-01",
		"initialExchangeDate": "2024-01-01",
		"maturityDate":        "2024-06-01",
		"notionalPrincipal":   1000.0,
		"nominalInterestRate": 0.03,
		"dayCountConvention":  "30E360",
		"arrayCycleAnchorDateOfPrincipalRedemption": []any{"2024-02-01", "2024-04-01"},
		"arrayCycleOfPrincipalRedemption":           []any{"P1ML1", "P1ML1"},
		"arrayNextPrincipalRedemptionPayment":       []any{100.0, 50.0},
		"arrayIncreaseDecrease":                     []any{"DEC", "INC"},
		"arrayCycleAnchorDateOfRateReset":           "[2024-03-01]",
		"arrayRate":                                 "[0.04]",
		"arrayFixedVariable":                        "[F]",
	})
	events, err := actus.Evaluate(d(2030, 1, 1), terms, nil)
	require.NoError(t, err)

	notional := []float64{}
	for _, ev := range events {
		if ev.Type == actus.PR || ev.Type == actus.PI {
			notional = append(notional, ev.State.NotionalPrincipal)
		}
	}
	assert.Equal(t, []float64{900, 800, 850, 900}, notional)
	pi := only(events, actus.PI)
	require.Len(t, pi, 2)
	assert.InDelta(t, -50, pi[0].Payoff, 1e-9)

	rrf := only(events, actus.RRF)
	require.Len(t, rrf, 1)
	assert.InDelta(t, 0.04, rrf[0].State.NominalInterestRate, 1e-12)
	assert.InDelta(t, 900, only(events, actus.MD)[0].Payoff, 1e-9)
}

func TestLAXRejectsMismatchedArrays(t *testing.T) {
	t.Parallel()

	_, err := actus.ParseTerms(map[string]any{
		"contractID":          "lax-2",
		"contractType":        "LAX",
		"contractRole":        "RPA",
		"currency":            "USD",
		"statusDate":          "2024-01-01",
		"initialExchangeDate": "2024-01-01",
		"maturityDate":        "2024-06-01",
		"notionalPrincipal":   1000.0,
		"arrayCycleAnchorDateOfPrincipalRedemption": []any{"2024-02-01", "2024-04-01"},
		"arrayNextPrincipalRedemptionPayment":       []any{100.0},
	})
	var ce *actus.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "arrayNextPrincipalRedemptionPayment", ce.Attribute)
}

func swapAttrs() map[string]any {
	return map[string]any{
		"contractID":                  "swp-1",
		"contractType":                "SWPPV",
		"contractRole":                "RFL",
		"currency":                    "USD",
		"statusDate":                  "2024-01-01",
		"initialExchangeDate":         "2024-01-01",
		"maturityDate":                "2025-01-01",
		"notionalPrincipal":           1000.0,
		"nominalInterestRate":         0.05,
		"nominalInterestRate2":        0.03,
		"dayCountConvention":          "30E360",
		"cycleOfInterestPayment":      "P6ML1",
		"cycleOfRateReset":            "P6ML1",
		"marketObjectCodeOfRateReset": "SOFR",
	}
}

func TestSWPPVNetSettlement(t *testing.T) {
	t.Parallel()

	rf := newStub()
	rf.values["SOFR"] = 0.04
	events, err := actus.Evaluate(d(2030, 1, 1), mustTerms(t, with(swapAttrs(), "deliverySettlement", "S")), rf)
	require.NoError(t, err)
	require.Equal(t, []actus.EventType{actus.IED, actus.IP, actus.RR, actus.IP, actus.MD}, types(events))
	assert.Zero(t, events[0].Payoff)
	assert.InDelta(t, 10, events[1].Payoff, 1e-9)
	assert.InDelta(t, 0.04, events[2].State.NominalInterestRate2, 1e-12)
	assert.InDelta(t, 5, events[3].Payoff, 1e-9)
	assert.Zero(t, events[4].Payoff)
}

func TestSWPPVGrossLegs(t *testing.T) {
	t.Parallel()

	rf := newStub()
	rf.values["SOFR"] = 0.04
	events, err := actus.Evaluate(d(2030, 1, 1), mustTerms(t, with(swapAttrs(), "contractRole", "PFL")), rf)
	require.NoError(t, err)
	fx, fl := only(events, actus.IPFX), only(events, actus.IPFL)
	require.Len(t, fx, 2)
	require.Len(t, fl, 2)
	assert.InDelta(t, -25, fx[0].Payoff, 1e-9)
	assert.InDelta(t, 15, fl[0].Payoff, 1e-9)
	assert.InDelta(t, 20, fl[1].Payoff, 1e-9)
}

func TestSTKDividends(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, map[string]any{
		"contractID":                       "stk-1",
		"contractType":                     "STK",
		"contractRole":                     "BUY",
		"currency":                         "USD",
		"statusDate":                       "2024-01-01",
		"purchaseDate":                     "2024-01-02",
		"priceAtPurchaseDate":              50.0,
		"quantity":                         100.0,
		"cycleAnchorDateOfDividendPayment": "2024-03-31",
		"cycleOfDividendPayment":           "P3ML1",
		"nextDividendPaymentAmount":        0.5,
	})
	events, err := actus.Evaluate(d(2024, 12, 31), terms, nil)
	require.NoError(t, err)
	require.Equal(t, actus.PRD, events[0].Type)
	assert.InDelta(t, -5000, events[0].Payoff, 1e-9)
	dv := only(events, actus.DV)
	require.Len(t, dv, 3)
	for _, ev := range dv {
		assert.InDelta(t, 50, ev.Payoff, 1e-9)
	}
}

func TestOPTNSCallSettlesAfterExercise(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, map[string]any{
		"contractID":          "opt-1",
		"contractType":        "OPTNS",
		"contractRole":        "BUY",
		"currency":            "USD",
		"statusDate":          "2024-01-01",
		"purchaseDate":        "2024-01-01",
		"priceAtPurchaseDate": 3.0,
		"quantity":            10.0,
		"maturityDate":        "2024-06-28",
		"optionType":          "C",
		"optionStrike1":       100.0,
		"settlementPeriod":    "P2DL1",
		"contractStructure":   []any{map[string]any{"referenceRole": "UDL", "object": "AAPL"}},
	})
	rf := newStub()
	rf.values["AAPL"] = 120
	events, err := actus.Evaluate(d(2030, 1, 1), terms, rf)
	require.NoError(t, err)
	require.Equal(t, []actus.EventType{actus.PRD, actus.XD, actus.MD, actus.STD}, types(events))
	assert.InDelta(t, -30, events[0].Payoff, 1e-9)
	assert.InDelta(t, 20, events[1].State.ExerciseAmount, 1e-9)
	std := events[3]
	assert.Equal(t, d(2024, 6, 30), std.Time)
	assert.InDelta(t, 200, std.Payoff, 1e-9)
	assert.Zero(t, std.State.ExerciseAmount)
}

func TestOPTNSPutAndCollarAmounts(t *testing.T) {
	t.Parallel()

	base := map[string]any{
		"contractID":       "opt-2",
		"contractType":     "OPTNS",
		"contractRole":     "BUY",
		"currency":         "USD",
		"statusDate":       "2024-01-01",
		"maturityDate":     "2024-06-28",
		"optionStrike1":    100.0,
		"optionStrike2":    90.0,
		"marketObjectCode": "IDX",
	}
	rf := newStub()
	rf.values["IDX"] = 80

	put, err := actus.Evaluate(d(2030, 1, 1), mustTerms(t, with(base, "optionType", "P")), rf)
	require.NoError(t, err)
	assert.InDelta(t, 20, only(put, actus.STD)[0].Payoff, 1e-9)

	collar, err := actus.Evaluate(d(2030, 1, 1), mustTerms(t, with(base, "optionType", "CP")), rf)
	require.NoError(t, err)
	assert.InDelta(t, 10, only(collar, actus.STD)[0].Payoff, 1e-9)

	_, err = actus.ParseTerms(with(base, "optionType", "CP", "optionStrike2", nil))
	assert.ErrorIs(t, err, actus.ErrConfiguration)
}

func fxoutAttrs() map[string]any {
	return map[string]any{
		"contractID":         "fx-1",
		"contractType":       "FXOUT",
		"contractRole":       "BUY",
		"currency":           "EUR",
		"currency2":          "USD",
		"statusDate":         "2024-01-01",
		"maturityDate":       "2024-06-28",
		"notionalPrincipal":  1000.0,
		"notionalPrincipal2": 1100.0,
	}
}

func TestFXOUTDelivery(t *testing.T) {
	t.Parallel()

	events, err := actus.Evaluate(d(2030, 1, 1), mustTerms(t, fxoutAttrs()), nil)
	require.NoError(t, err)
	require.Equal(t, []actus.EventType{actus.MD, actus.MD}, types(events))
	assert.Equal(t, "EUR", events[0].Currency)
	assert.InDelta(t, 1000, events[0].Payoff, 1e-9)
	assert.Equal(t, "USD", events[1].Currency)
	assert.InDelta(t, -1100, events[1].Payoff, 1e-9)
	assert.Zero(t, events[1].State.NotionalPrincipal2)
}

func TestFXOUTCashSettlement(t *testing.T) {
	t.Parallel()

	rf := newStub()
	rf.values["USD/EUR"] = 0.9
	terms := mustTerms(t, with(fxoutAttrs(), "deliverySettlement", "S", "settlementPeriod", "P2DL1"))
	events, err := actus.Evaluate(d(2030, 1, 1), terms, rf)
	require.NoError(t, err)
	require.Equal(t, []actus.EventType{actus.STD}, types(events))
	assert.Equal(t, d(2024, 6, 30), events[0].Time)
	assert.InDelta(t, 1000-0.9*1100, events[0].Payoff, 1e-9)
}

func TestFXOUTTerminationSuppressesSettlement(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, with(fxoutAttrs(), "terminationDate", "2024-03-01", "priceAtTerminationDate", 12.0))
	events, err := actus.Evaluate(d(2030, 1, 1), terms, nil)
	require.NoError(t, err)
	require.Equal(t, []actus.EventType{actus.TD}, types(events))
	assert.InDelta(t, 12, events[0].Payoff, 1e-9)
}

func TestSettlementCurrencyConversion(t *testing.T) {
	t.Parallel()

	rf := newStub()
	rf.values["USD/CHF"] = 0.9
	terms := mustTerms(t, with(pamAttrs(), "settlementCurrency", "CHF"))
	events, err := actus.Evaluate(d(2030, 1, 1), terms, rf)
	require.NoError(t, err)
	assert.InDelta(t, -900, events[0].Payoff, 1e-9)
	assert.InDelta(t, 900, events[2].Payoff, 1e-9)
}

func bcsAttrs(effect string) map[string]any {
	return map[string]any{
		"contractID":                   "bcs-1",
		"contractType":                 "BCS",
		"contractRole":                 "RPA",
		"currency":                     "USD",
		"statusDate":                   "2024-01-01",
		"boundaryValue":                110.0,
		"boundaryDirection":            "INCR",
		"boundaryEffect":               effect,
		"boundaryLegInitiallyActive":   "FIL",
		"boundaryMonitoringAnchorDate": "2024-01-31",
		"boundaryMonitoringEndDate":    "2024-06-30",
		"boundaryMonitoringCycle":      "P1ML1",
		"contractStructure": []any{
			map[string]any{"referenceRole": "externalReferenceIndex", "object": "IDX"},
			map[string]any{"referenceRole": "FIL", "object": map[string]any{
				"contractID":          "bcs-1-fil",
				"contractType":        "PAM",
				"initialExchangeDate": "2024-01-01",
				"maturityDate":        "2024-12-31",
				"notionalPrincipal":   1000.0,
				"nominalInterestRate": 0.0,
			}},
		},
	}
}

func indexCrossingOn(at time.Time) func(time.Time) float64 {
	return func(t time.Time) float64 {
		if t.Before(at) {
			return 100
		}
		return 120
	}
}

func TestBCSKnockOut(t *testing.T) {
	t.Parallel()

	rf := newStub()
	rf.series["IDX"] = indexCrossingOn(d(2024, 3, 31))
	events, err := actus.Evaluate(d(2030, 1, 1), mustTerms(t, bcsAttrs("knockOUTCurrent")), rf)
	require.NoError(t, err)

	me := only(events, actus.ME)
	require.NotEmpty(t, me)
	assert.False(t, me[0].State.BoundaryCrossedFlag)
	var crossedAt time.Time
	for _, ev := range me {
		if ev.State.BoundaryCrossedFlag {
			crossedAt = ev.Time
			break
		}
	}
	assert.Equal(t, d(2024, 3, 31), crossedAt)

	var legIDs []actus.EventType
	for _, ev := range events {
		if ev.ContractID == "bcs-1-fil" {
			legIDs = append(legIDs, ev.Type)
			assert.True(t, ev.Time.Before(crossedAt))
		}
	}
	assert.Equal(t, []actus.EventType{actus.IED}, legIDs)
	td := only(events, actus.TD)
	require.Len(t, td, 1)
	assert.Equal(t, "bcs-1", td[0].ContractID)
}

func TestBCSKnockInStartsLegAtCrossing(t *testing.T) {
	t.Parallel()

	attrs := bcsAttrs("knockINFirstLeg")
	attrs["boundaryLegInitiallyActive"] = ""
	rf := newStub()
	rf.series["IDX"] = indexCrossingOn(d(2024, 4, 30))
	events, err := actus.Evaluate(d(2030, 1, 1), mustTerms(t, attrs), rf)
	require.NoError(t, err)

	leg := []actus.Event{}
	for _, ev := range events {
		if ev.ContractID == "bcs-1-fil" {
			leg = append(leg, ev)
		}
	}
	require.Len(t, leg, 1)
	assert.Equal(t, actus.MD, leg[0].Type)
	assert.InDelta(t, 1000, leg[0].Payoff, 1e-9)

	rf.series["IDX"] = func(time.Time) float64 { return 100 }
	events, err = actus.Evaluate(d(2030, 1, 1), mustTerms(t, attrs), rf)
	require.NoError(t, err)
	for _, ev := range events {
		assert.Equal(t, "bcs-1", ev.ContractID)
	}
}

func TestCEGPaysCoveredExposure(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, map[string]any{
		"contractID":                  "ceg-1",
		"contractType":                "CEG",
		"contractRole":                "GUA",
		"currency":                    "USD",
		"statusDate":                  "2024-01-01",
		"contractDealDate":            "2024-01-01",
		"coverageOfCreditEnhancement": 0.5,
		"guaranteedExposure":          "NI",
		"feeRate":                     0.01,
		"feeBasis":                    "N",
		"cycleOfFee":                  "P3ML1",
		"dayCountConvention":          "30E360",
		"exerciseDate":                "2024-05-01",
		"settlementPeriod":            "P1ML1",
		"contractStructure": []any{map[string]any{"referenceRole": "CVE", "object": map[string]any{
			"contractID":                       "loan-1",
			"contractType":                     "PAM",
			"contractRole":                     "RPA",
			"initialExchangeDate":              "2024-01-01",
			"maturityDate":                     "2025-01-01",
			"notionalPrincipal":                1000.0,
			"nominalInterestRate":              0.06,
			"dayCountConvention":               "30E360",
			"cycleOfInterestPayment":           "P6ML1",
			"cycleAnchorDateOfInterestPayment": "2024-07-01",
		}}},
	})
	events, err := actus.Evaluate(d(2030, 1, 1), terms, nil)
	require.NoError(t, err)
	require.Equal(t, []actus.EventType{actus.FP, actus.XD, actus.STD}, types(events))

	assert.InDelta(t, 500*0.01*0.25, events[0].Payoff, 1e-9)
	xd := events[1]
	assert.InDelta(t, 0.5*(1000+1000*0.06*4/12), xd.State.ExerciseAmount, 1e-9)
	std := events[2]
	assert.Equal(t, d(2024, 6, 1), std.Time)
	assert.InDelta(t, -0.5*(1000+20), std.Payoff, 1e-9)
	assert.Empty(t, only(events, actus.MD))
	assert.True(t, math.Signbit(std.Payoff))
}

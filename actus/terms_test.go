package actus_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/actus"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/utils"
)

func TestParseTermsDefaults(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, with(pamAttrs(), "dayCountConvention", nil))
	assert.Equal(t, utils.AA, terms.DayCountConvention)
	assert.Equal(t, actus.FeeNotional, terms.FeeBasis)
	assert.Equal(t, actus.BaseNT, terms.InterestCalculationBase)
	assert.Equal(t, actus.Delivery, terms.DeliverySettlement)
	assert.Equal(t, 1.0, terms.RateMultiplier)
	assert.Equal(t, 1.0, terms.InterestScalingMultiplier)
	assert.Equal(t, 1.0, terms.NotionalScalingMultiplier)
	assert.Equal(t, 1.0, terms.Quantity)
	assert.True(t, math.IsInf(terms.LifeCap, 1))
	assert.True(t, math.IsInf(terms.PeriodFloor, -1))
	assert.Nil(t, terms.AccruedInterest)
	assert.Nil(t, terms.NextResetRate)
}

func TestParseTermsKeysAreCaseInsensitive(t *testing.T) {
	t.Parallel()

	attrs := pamAttrs()
	delete(attrs, "notionalPrincipal")
	delete(attrs, "contractType")
	attrs["NOTIONALPRINCIPAL"] = "2500"
	attrs["ContractType"] = "pam"

	terms := mustTerms(t, attrs)
	assert.Equal(t, actus.PAM, terms.ContractType)
	assert.Equal(t, 2500.0, terms.NotionalPrincipal)
}

func TestParseTermsReportsEveryProblem(t *testing.T) {
	t.Parallel()

	_, err := actus.ParseTerms(with(pamAttrs(),
		"maturityDate", "2024-13-45",
		"cycleOfInterestPayment", "monthly",
		"notionalPrincipal", "lots",
		"feeBasis", "X",
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, actus.ErrConfiguration)
	for _, attr := range []string{"maturityDate", "cycleOfInterestPayment", "notionalPrincipal", "feeBasis"} {
		assert.Contains(t, err.Error(), attr)
	}

	var ce *actus.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "pam-1", ce.ContractID)
}

func TestParseTermsRequiredAttributes(t *testing.T) {
	t.Parallel()

	_, err := actus.ParseTerms(with(pamAttrs(), "contractID", nil, "currency", "  "))
	require.Error(t, err)
	assert.ErrorIs(t, err, actus.ErrConfiguration)
	assert.Contains(t, err.Error(), "contractID: is required")
	assert.Contains(t, err.Error(), "currency: is required")

	_, err = actus.ParseTerms(with(pamAttrs(), "maturityDate", nil))
	assert.ErrorContains(t, err, "maturityDate")
}

func TestParseTermsRejectsUnknownRoleAndType(t *testing.T) {
	t.Parallel()

	_, err := actus.ParseTerms(with(pamAttrs(), "contractRole", "XYZ"))
	assert.ErrorIs(t, err, actus.ErrConfiguration)
	assert.ErrorContains(t, err, "contractRole")

	_, err = actus.ParseTerms(with(pamAttrs(), "contractType", "FUTUR"))
	assert.ErrorIs(t, err, actus.ErrUnsupportedContract)
}

func TestParseTermsArrays(t *testing.T) {
	t.Parallel()

	r := newArrayTerms(t, "[2024-02-01, 2024-04-01]", []any{100.0, "50"})
	require.Len(t, r.ArrayCycleAnchorDateOfPrincipalRedemption, 2)
	assert.Equal(t, d(2024, 4, 1), r.ArrayCycleAnchorDateOfPrincipalRedemption[1])
	assert.Equal(t, []float64{100, 50}, r.ArrayNextPrincipalRedemptionPayment)

	_, err := actus.ParseTerms(map[string]any{
		"contractID":          "lax-3",
		"contractType":        "LAX",
		"contractRole":        "RPA",
		"currency":            "USD",
		"statusDate":          "2024-01-01",
		"initialExchangeDate": "2024-01-01",
		"maturityDate":        "2024-06-01",
		"arrayCycleAnchorDateOfPrincipalRedemption": "[2024-02-01, someday]",
		"arrayNextPrincipalRedemptionPayment":       "[100, 50]",
	})
	assert.ErrorContains(t, err, "arrayCycleAnchorDateOfPrincipalRedemption")
}

func newArrayTerms(t *testing.T, anchors any, amounts any) *actus.Terms {
	t.Helper()
	return mustTerms(t, map[string]any{
		"contractID":          "lax-3",
		"contractType":        "LAX",
		"contractRole":        "RPA",
		"currency":            "USD",
		"statusDate":          "2024-01-01",
		"initialExchangeDate": "2024-01-01",
		"maturityDate":        "2024-06-01",
		"notionalPrincipal":   1000.0,
		"arrayCycleAnchorDateOfPrincipalRedemption": anchors,
		"arrayNextPrincipalRedemptionPayment":       amounts,
	})
}

func TestParseTermsJSONKeepsNumberPrecision(t *testing.T) {
	t.Parallel()

	terms, err := actus.ParseTermsJSON([]byte(`{
		"contractID":          "pam-json",
		"contractType":        "PAM",
		"contractRole":        "RPA",
		"currency":            "USD",
		"statusDate":          "2024-01-01T00:00:00",
		"initialExchangeDate": "2024-01-01",
		"maturityDate":        "2025-01-01",
		"notionalPrincipal":   1000000.01,
		"nominalInterestRate": 0.0425,
		"accruedInterest":     0
	}`))
	require.NoError(t, err)
	assert.Equal(t, 1000000.01, terms.NotionalPrincipal)
	assert.Equal(t, 0.0425, terms.NominalInterestRate)
	require.NotNil(t, terms.AccruedInterest)
	assert.Zero(t, *terms.AccruedInterest)

	_, err = actus.ParseTermsJSON([]byte(`{"contractID": `))
	assert.Error(t, err)
}

func TestContractStructureInheritsParentAttributes(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, bcsAttrs("knockOUTCurrent"))
	leg, ok := terms.Reference(actus.FirstLeg)
	require.True(t, ok)
	require.NotNil(t, leg.Terms)
	assert.Equal(t, terms.StatusDate, leg.Terms.StatusDate)
	assert.Equal(t, "USD", leg.Terms.Currency)
	assert.Equal(t, actus.RPA, leg.Terms.ContractRole)

	idx, ok := terms.Reference(actus.ExternalReferenceIndex)
	require.True(t, ok)
	assert.Equal(t, "IDX", idx.MarketObjectCode)
	assert.Nil(t, idx.Terms)

	_, ok = terms.Reference(actus.CoveredContract)
	assert.False(t, ok)
}

func TestContractStructureErrors(t *testing.T) {
	t.Parallel()

	attrs := bcsAttrs("knockOUTCurrent")
	attrs["contractStructure"] = []any{
		map[string]any{"object": "IDX"},
		map[string]any{"referenceRole": "FIL", "object": map[string]any{"contractID": "leg", "contractType": "PAM"}},
		"IDX",
	}
	_, err := actus.ParseTerms(attrs)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "entry 0 has no referenceRole")
	assert.Contains(t, msg, "entry 1 (FIL)")
	assert.Contains(t, msg, "entry 2 is not an object")
}

func TestContractStructureMarketObjectEntry(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, map[string]any{
		"contractID":    "opt-3",
		"contractType":  "OPTNS",
		"contractRole":  "SEL",
		"currency":      "USD",
		"statusDate":    "2024-01-01",
		"maturityDate":  "2024-12-20",
		"optionType":    "P",
		"optionStrike1": 4000.0,
		"contractStructure": []any{map[string]any{
			"referenceRole": "UDL",
			"object":        map[string]any{"marketObjectCode": "SPX"},
		}},
	})
	udl, ok := terms.Reference(actus.Underlying)
	require.True(t, ok)
	assert.Equal(t, "SPX", udl.MarketObjectCode)
}

func TestValidateIsRepeatable(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, pamAttrs())
	require.NoError(t, terms.Validate())
	require.NoError(t, terms.Validate())

	broken := *terms
	broken.TerminationDate = d(2025, 1, 1)
	err := broken.Validate()
	var ce *actus.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "terminationDate", ce.Attribute)
}

func TestFunctionTables(t *testing.T) {
	t.Parallel()

	types := actus.ContractTypes()
	assert.Len(t, types, 13)
	assert.IsIncreasing(t, types)

	fn, ok := actus.Functions(actus.PAM, actus.IP)
	require.True(t, ok)
	assert.NotNil(t, fn.Payoff)
	assert.NotNil(t, fn.Transition)

	_, ok = actus.Functions(actus.STK, actus.IP)
	assert.False(t, ok)
	_, ok = actus.Functions("FUTUR", actus.IP)
	assert.False(t, ok)

	for _, ct := range types {
		_, ok := actus.Functions(ct, actus.TD)
		assert.True(t, ok, "%s has no termination", ct)
	}
}

func TestParseTermsAcceptsTimeValues(t *testing.T) {
	t.Parallel()

	terms := mustTerms(t, with(pamAttrs(),
		"maturityDate", d(2024, 10, 1),
		"prepaymentModels", []any{"ppm", "ltv"},
		"collateralModels", []any{"ltv", "margin"},
	))
	assert.Equal(t, d(2024, 10, 1), terms.MaturityDate)
	assert.Equal(t, []string{"ppm", "ltv"}, terms.PrepaymentModels)
	assert.Equal(t, []string{"ppm", "ltv", "margin"}, terms.BehaviorModels())
}

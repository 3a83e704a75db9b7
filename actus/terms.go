package actus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/calendar"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/utils"
)

// ContractReference links a contract to a market object or to another contract.
// Exactly one of MarketObjectCode and Terms is set.
type ContractReference struct {
	Role             ReferenceRole
	MarketObjectCode string
	Terms            *Terms
}

// Terms is the validated attribute set of one contract.
// It is built once by ParseTerms and never mutated afterwards.
type Terms struct {
	ContractID         string       `validate:"required"`
	ContractType       ContractType `validate:"required"`
	ContractRole       ContractRole `validate:"required"`
	Currency           string       `validate:"required"`
	Currency2          string
	SettlementCurrency string
	StatusDate         time.Time `validate:"required"`
	ContractDealDate   time.Time

	ContractPerformance string

	InitialExchangeDate    time.Time
	MaturityDate           time.Time
	TerminationDate        time.Time
	PriceAtTerminationDate float64
	PurchaseDate           time.Time
	PriceAtPurchaseDate    float64
	Quantity               float64

	NotionalPrincipal    float64
	NotionalPrincipal2   float64
	NominalInterestRate  float64
	NominalInterestRate2 float64
	AccruedInterest      *float64
	PremiumDiscountAtIED float64

	DayCountConvention    utils.DayCountConvention
	BusinessDayConvention calendar.BusinessDayConvention
	Calendar              calendar.CalendarID
	EndOfMonthConvention  utils.EndOfMonthConvention

	CycleAnchorDateOfInterestPayment time.Time
	CycleOfInterestPayment           string
	CapitalizationEndDate            time.Time

	CycleAnchorDateOfRateReset  time.Time
	CycleOfRateReset            string
	RateSpread                  float64
	RateMultiplier              float64
	NextResetRate               *float64
	MarketObjectCodeOfRateReset string
	LifeCap                     float64
	LifeFloor                   float64
	PeriodCap                   float64
	PeriodFloor                 float64

	CycleAnchorDateOfFee time.Time
	CycleOfFee           string
	FeeBasis             FeeBasis
	FeeRate              float64
	FeeAccrued           *float64

	CycleAnchorDateOfScalingIndex  time.Time
	CycleOfScalingIndex            string
	ScalingEffect                  string
	ScalingIndexAtStatusDate       float64
	MarketObjectCodeOfScalingIndex string
	NotionalScalingMultiplier      float64
	InterestScalingMultiplier      float64

	CycleAnchorDateOfPrincipalRedemption     time.Time
	CycleOfPrincipalRedemption               string
	NextPrincipalRedemptionPayment           *float64
	InterestCalculationBase                  InterestCalculationBase
	InterestCalculationBaseAmount            *float64
	CycleAnchorDateOfInterestCalculationBase time.Time
	CycleOfInterestCalculationBase           string

	ObjectCodeOfPrepaymentModel  string
	CycleAnchorDateOfOptionality time.Time
	CycleOfOptionality           string

	// Behavior models activated for this contract, per domain. A contract
	// listing none receives no callouts.
	PrepaymentModels  []string
	DepositTrxModels  []string
	CollateralModels  []string
	DiscountingModels []string

	MarketObjectCode                 string
	MarketObjectCodeOfDividends      string
	NextDividendPaymentAmount        *float64
	CycleAnchorDateOfDividendPayment time.Time
	CycleOfDividendPayment           string

	OptionType         OptionType
	OptionStrike1      float64
	OptionStrike2      float64
	ExerciseDate       time.Time
	SettlementPeriod   string
	DeliverySettlement DeliverySettlement

	BoundaryValue                float64
	BoundaryDirection            BoundaryDirection
	BoundaryEffect               BoundaryEffect
	BoundaryLegInitiallyActive   ReferenceRole
	BoundaryMonitoringAnchorDate time.Time
	BoundaryMonitoringEndDate    time.Time
	BoundaryMonitoringCycle      string

	CoverageOfCreditEnhancement float64
	GuaranteedExposure          GuaranteedExposure

	ArrayCycleAnchorDateOfPrincipalRedemption []time.Time
	ArrayCycleOfPrincipalRedemption           []string
	ArrayNextPrincipalRedemptionPayment       []float64
	ArrayIncreaseDecrease                     []string
	ArrayCycleAnchorDateOfInterestPayment     []time.Time
	ArrayCycleOfInterestPayment               []string
	ArrayCycleAnchorDateOfRateReset           []time.Time
	ArrayCycleOfRateReset                     []string
	ArrayRate                                 []float64
	ArrayFixedVariable                        []string

	ContractStructure []ContractReference
}

// ParseTerms converts a flat ACTUS attribute map into Terms.
//
// Keys are the ACTUS camelCase attribute names and are matched case-insensitively.
// Values may be JSON numbers, booleans or strings. All problems are reported together.
func ParseTerms(attrs map[string]any) (*Terms, error) {
	r := newAttrReader(attrs)
	t := &Terms{
		ContractID:          r.str("contractID"),
		ContractType:        ContractType(strings.ToUpper(r.str("contractType"))),
		ContractRole:        ContractRole(strings.ToUpper(r.str("contractRole"))),
		Currency:            r.str("currency"),
		Currency2:           r.str("currency2"),
		SettlementCurrency:  r.str("settlementCurrency"),
		StatusDate:          r.date("statusDate"),
		ContractDealDate:    r.date("contractDealDate"),
		ContractPerformance: r.str("contractPerformance"),

		InitialExchangeDate:    r.date("initialExchangeDate"),
		MaturityDate:           r.date("maturityDate"),
		TerminationDate:        r.date("terminationDate"),
		PriceAtTerminationDate: r.float("priceAtTerminationDate", 0),
		PurchaseDate:           r.date("purchaseDate"),
		PriceAtPurchaseDate:    r.float("priceAtPurchaseDate", 0),
		Quantity:               r.float("quantity", 1),

		NotionalPrincipal:    r.float("notionalPrincipal", 0),
		NotionalPrincipal2:   r.float("notionalPrincipal2", 0),
		NominalInterestRate:  r.float("nominalInterestRate", 0),
		NominalInterestRate2: r.float("nominalInterestRate2", 0),
		AccruedInterest:      r.optFloat("accruedInterest"),
		PremiumDiscountAtIED: r.float("premiumDiscountAtIED", 0),

		CycleAnchorDateOfInterestPayment: r.date("cycleAnchorDateOfInterestPayment"),
		CycleOfInterestPayment:           r.cycle("cycleOfInterestPayment"),
		CapitalizationEndDate:            r.date("capitalizationEndDate"),

		CycleAnchorDateOfRateReset:  r.date("cycleAnchorDateOfRateReset"),
		CycleOfRateReset:            r.cycle("cycleOfRateReset"),
		RateSpread:                  r.float("rateSpread", 0),
		RateMultiplier:              r.float("rateMultiplier", 1),
		NextResetRate:               r.optFloat("nextResetRate"),
		MarketObjectCodeOfRateReset: r.str("marketObjectCodeOfRateReset"),
		LifeCap:                     r.float("lifeCap", math.Inf(1)),
		LifeFloor:                   r.float("lifeFloor", math.Inf(-1)),
		PeriodCap:                   r.float("periodCap", math.Inf(1)),
		PeriodFloor:                 r.float("periodFloor", math.Inf(-1)),

		CycleAnchorDateOfFee: r.date("cycleAnchorDateOfFee"),
		CycleOfFee:           r.cycle("cycleOfFee"),
		FeeRate:              r.float("feeRate", 0),
		FeeAccrued:           r.optFloat("feeAccrued"),

		CycleAnchorDateOfScalingIndex:  r.date("cycleAnchorDateOfScalingIndex"),
		CycleOfScalingIndex:            r.cycle("cycleOfScalingIndex"),
		ScalingEffect:                  strings.ToUpper(r.str("scalingEffect")),
		ScalingIndexAtStatusDate:       r.float("scalingIndexAtStatusDate", 1),
		MarketObjectCodeOfScalingIndex: r.str("marketObjectCodeOfScalingIndex"),
		NotionalScalingMultiplier:      r.float("notionalScalingMultiplier", 1),
		InterestScalingMultiplier:      r.float("interestScalingMultiplier", 1),

		CycleAnchorDateOfPrincipalRedemption:     r.date("cycleAnchorDateOfPrincipalRedemption"),
		CycleOfPrincipalRedemption:               r.cycle("cycleOfPrincipalRedemption"),
		NextPrincipalRedemptionPayment:           r.optFloat("nextPrincipalRedemptionPayment"),
		InterestCalculationBaseAmount:            r.optFloat("interestCalculationBaseAmount"),
		CycleAnchorDateOfInterestCalculationBase: r.date("cycleAnchorDateOfInterestCalculationBase"),
		CycleOfInterestCalculationBase:           r.cycle("cycleOfInterestCalculationBase"),

		ObjectCodeOfPrepaymentModel:  r.str("objectCodeOfPrepaymentModel"),
		CycleAnchorDateOfOptionality: r.date("cycleAnchorDateOfOptionality"),
		CycleOfOptionality:           r.cycle("cycleOfOptionality"),

		PrepaymentModels:  r.strs("prepaymentModels"),
		DepositTrxModels:  r.strs("depositTrxModels"),
		CollateralModels:  r.strs("collateralModels"),
		DiscountingModels: r.strs("discountingModels"),

		MarketObjectCode:                 r.str("marketObjectCode"),
		MarketObjectCodeOfDividends:      r.str("marketObjectCodeOfDividends"),
		NextDividendPaymentAmount:        r.optFloat("nextDividendPaymentAmount"),
		CycleAnchorDateOfDividendPayment: r.date("cycleAnchorDateOfDividendPayment"),
		CycleOfDividendPayment:           r.cycle("cycleOfDividendPayment"),

		OptionStrike1:    r.float("optionStrike1", 0),
		OptionStrike2:    r.float("optionStrike2", 0),
		ExerciseDate:     r.date("exerciseDate"),
		SettlementPeriod: r.cycle("settlementPeriod"),

		BoundaryValue:                r.float("boundaryValue", 0),
		BoundaryMonitoringAnchorDate: r.date("boundaryMonitoringAnchorDate"),
		BoundaryMonitoringEndDate:    r.date("boundaryMonitoringEndDate"),
		BoundaryMonitoringCycle:      r.cycle("boundaryMonitoringCycle"),

		CoverageOfCreditEnhancement: r.float("coverageOfCreditEnhancement", 1),

		ArrayCycleAnchorDateOfPrincipalRedemption: r.dates("arrayCycleAnchorDateOfPrincipalRedemption"),
		ArrayCycleOfPrincipalRedemption:           r.strs("arrayCycleOfPrincipalRedemption"),
		ArrayNextPrincipalRedemptionPayment:       r.floats("arrayNextPrincipalRedemptionPayment"),
		ArrayIncreaseDecrease:                     r.strs("arrayIncreaseDecrease"),
		ArrayCycleAnchorDateOfInterestPayment:     r.dates("arrayCycleAnchorDateOfInterestPayment"),
		ArrayCycleOfInterestPayment:               r.strs("arrayCycleOfInterestPayment"),
		ArrayCycleAnchorDateOfRateReset:           r.dates("arrayCycleAnchorDateOfRateReset"),
		ArrayCycleOfRateReset:                     r.strs("arrayCycleOfRateReset"),
		ArrayRate:                                 r.floats("arrayRate"),
		ArrayFixedVariable:                        r.strs("arrayFixedVariable"),
	}

	if s := r.str("dayCountConvention"); s != "" {
		dc, err := utils.ParseDayCountConvention(s)
		r.fail("dayCountConvention", err)
		t.DayCountConvention = dc
	} else {
		t.DayCountConvention = utils.AA
	}
	bdc, err := calendar.ParseBusinessDayConvention(r.str("businessDayConvention"))
	r.fail("businessDayConvention", err)
	t.BusinessDayConvention = bdc
	t.Calendar = calendar.CalendarID(r.str("calendar"))
	if _, err := calendar.ForID(t.Calendar); err != nil {
		r.fail("calendar", err)
	}
	eom, err := utils.ParseEndOfMonthConvention(r.str("endOfMonthConvention"))
	r.fail("endOfMonthConvention", err)
	t.EndOfMonthConvention = eom

	t.FeeBasis = enumAttr(r, "feeBasis", FeeNotional, FeeAbsolute, FeeNotional)
	t.InterestCalculationBase = enumAttr(r, "interestCalculationBase", BaseNT, BaseNT, BaseNTIED, BaseNTL)
	t.OptionType = enumAttr(r, "optionType", "", Call, Put, Collar)
	t.DeliverySettlement = enumAttr(r, "deliverySettlement", Delivery, Delivery, Settlement)
	t.GuaranteedExposure = enumAttr(r, "guaranteedExposure", ExposureNotional, ExposureNotional, ExposureNotionalInterest)
	t.BoundaryDirection = enumAttr(r, "boundaryDirection", "", Increasing, Decreasing)
	t.BoundaryEffect = enumAttr(r, "boundaryEffect", "", KnockInFirstLeg, KnockInSecondLeg, KnockOutCurrent)
	t.BoundaryLegInitiallyActive = enumAttr(r, "boundaryLegInitiallyActive", "", FirstLeg, SecondLeg)

	t.ContractStructure = r.structure("contractStructure", t)

	if len(r.errs) > 0 {
		for _, e := range r.errs {
			var ce *ConfigError
			if errors.As(e, &ce) && ce.ContractID == "" {
				ce.ContractID = t.ContractID
			}
		}
		return nil, fmt.Errorf("ParseTerms: %w", r.err())
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseTermsJSON decodes a JSON object of ACTUS attributes.
func ParseTermsJSON(b []byte) (*Terms, error) {
	var attrs map[string]any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&attrs); err != nil {
		return nil, fmt.Errorf("ParseTermsJSON: %w", err)
	}
	return ParseTerms(attrs)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the common attributes and the contract type's required attributes.
func (t *Terms) Validate() error {
	var errs []error
	if err := validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, configErr(t.ContractID, lowerFirst(fe.Field()), "is required"))
			}
		} else {
			errs = append(errs, err)
		}
	}
	if t.ContractRole != "" && t.ContractRole.Sign() == 0 {
		errs = append(errs, configErr(t.ContractID, "contractRole", "unsupported role %q", t.ContractRole))
	}
	if t.ContractType != "" {
		m, ok := models[t.ContractType]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnsupportedContract, t.ContractType))
		} else if m.validate != nil {
			errs = append(errs, m.validate(t)...)
		}
	}
	return errors.Join(errs...)
}

// Adjuster returns the business day adjuster of the terms.
func (t *Terms) Adjuster() calendar.Adjuster {
	cal, err := calendar.ForID(t.Calendar)
	if err != nil {
		cal = calendar.NoHolidays{}
	}
	return calendar.NewAdjuster(t.BusinessDayConvention, cal)
}

// DayCounter returns the day count calculator of the terms.
func (t *Terms) DayCounter() utils.DayCounter {
	return utils.DayCounter{Convention: t.DayCountConvention, Maturity: t.MaturityDate}
}

// BehaviorModels returns the activated behavior model ids of every domain,
// in declaration order and without duplicates.
func (t *Terms) BehaviorModels() []string {
	var out []string
	seen := make(map[string]bool)
	for _, list := range [][]string{t.PrepaymentModels, t.DepositTrxModels, t.CollateralModels, t.DiscountingModels} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// Reference returns the first structure entry with the given role.
func (t *Terms) Reference(role ReferenceRole) (ContractReference, bool) {
	for _, ref := range t.ContractStructure {
		if ref.Role == role {
			return ref, true
		}
	}
	return ContractReference{}, false
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	if strings.HasPrefix(s, "ContractID") {
		return "contractID"
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// attrReader reads typed values out of a loosely typed attribute map and
// collects every conversion error.
type attrReader struct {
	m    map[string]any
	errs []error
}

func newAttrReader(attrs map[string]any) *attrReader {
	m := make(map[string]any, len(attrs))
	for k, v := range attrs {
		m[strings.ToLower(k)] = v
	}
	return &attrReader{m: m}
}

func (r *attrReader) fail(attr string, err error) {
	if err != nil {
		r.errs = append(r.errs, &ConfigError{Attribute: attr, Reason: err.Error()})
	}
}

func (r *attrReader) err() error {
	return errors.Join(r.errs...)
}

func (r *attrReader) raw(key string) (any, bool) {
	v, ok := r.m[strings.ToLower(key)]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func (r *attrReader) str(key string) string {
	v, ok := r.raw(key)
	if !ok {
		return ""
	}
	return stringify(v)
}

// stringify also accepts the time.Time values YAML decoders produce for dates.
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case time.Time:
		return utils.FormatDate(x.UTC())
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func (r *attrReader) cycle(key string) string {
	s := r.str(key)
	if s == "" {
		return ""
	}
	if _, err := utils.ParseCycle(s); err != nil {
		r.fail(key, err)
		return ""
	}
	return s
}

func (r *attrReader) date(key string) time.Time {
	s := r.str(key)
	if s == "" {
		return time.Time{}
	}
	t, err := utils.ParseDate(s)
	r.fail(key, err)
	return t
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

func (r *attrReader) float(key string, def float64) float64 {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	f, err := toFloat(v)
	r.fail(key, err)
	return f
}

func (r *attrReader) optFloat(key string) *float64 {
	v, ok := r.raw(key)
	if !ok {
		return nil
	}
	f, err := toFloat(v)
	if err != nil {
		r.fail(key, err)
		return nil
	}
	return &f
}

// list accepts a JSON array or a bracketed, comma separated string.
func (r *attrReader) list(key string) []any {
	v, ok := r.raw(key)
	if !ok {
		return nil
	}
	switch x := v.(type) {
	case []any:
		return x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case string:
		body := strings.Trim(strings.TrimSpace(x), "[]")
		if body == "" {
			return nil
		}
		parts := strings.Split(body, ",")
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = strings.TrimSpace(p)
		}
		return out
	default:
		return []any{x}
	}
}

func (r *attrReader) strs(key string) []string {
	items := r.list(key)
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = stringify(it)
	}
	return out
}

func (r *attrReader) dates(key string) []time.Time {
	items := r.strs(key)
	if items == nil {
		return nil
	}
	out := make([]time.Time, 0, len(items))
	for _, it := range items {
		t, err := utils.ParseDate(it)
		if err != nil {
			r.fail(key, err)
			continue
		}
		out = append(out, t)
	}
	return out
}

func (r *attrReader) floats(key string) []float64 {
	items := r.list(key)
	if items == nil {
		return nil
	}
	out := make([]float64, 0, len(items))
	for _, it := range items {
		f, err := toFloat(it)
		if err != nil {
			r.fail(key, err)
			continue
		}
		out = append(out, f)
	}
	return out
}

func enumAttr[T ~string](r *attrReader, key string, def T, allowed ...T) T {
	raw := r.str(key)
	if raw == "" {
		return def
	}
	v, err := parseEnum(key, raw, allowed...)
	if err != nil {
		r.errs = append(r.errs, &ConfigError{Attribute: key, Reason: fmt.Sprintf("unsupported value %q", raw)})
		return def
	}
	return v
}

// structure reads contractStructure entries of the form
// {"referenceRole": "UDL", "object": "AAPL"} or {"referenceRole": "FIL", "object": {...terms...}}.
// Nested terms inherit statusDate, currency and contractRole when absent.
func (r *attrReader) structure(key string, parent *Terms) []ContractReference {
	items := r.list(key)
	if items == nil {
		return nil
	}
	refs := make([]ContractReference, 0, len(items))
	for i, it := range items {
		entry, ok := it.(map[string]any)
		if !ok {
			r.fail(key, fmt.Errorf("entry %d is not an object", i))
			continue
		}
		er := newAttrReader(entry)
		role := er.str("referenceRole")
		if role == "" {
			role = er.str("role")
		}
		if role == "" {
			r.fail(key, fmt.Errorf("entry %d has no referenceRole", i))
			continue
		}
		ref := ContractReference{Role: ReferenceRole(role)}
		obj, _ := er.raw("object")
		switch o := obj.(type) {
		case map[string]any:
			child := make(map[string]any, len(o)+3)
			for k, v := range o {
				child[k] = v
			}
			inherit(child, "statusDate", utils.FormatDate(parent.StatusDate), !parent.StatusDate.IsZero())
			inherit(child, "currency", parent.Currency, parent.Currency != "")
			inherit(child, "contractRole", string(parent.ContractRole), parent.ContractRole != "")
			if _, hasType := lookupFold(child, "contractType"); !hasType {
				if moc, hasMOC := lookupFold(child, "marketObjectCode"); hasMOC {
					ref.MarketObjectCode = fmt.Sprint(moc)
					break
				}
			}
			nested, err := ParseTerms(child)
			if err != nil {
				r.fail(key, fmt.Errorf("entry %d (%s): %w", i, role, err))
				continue
			}
			ref.Terms = nested
		case nil:
			r.fail(key, fmt.Errorf("entry %d (%s) has no object", i, role))
			continue
		default:
			ref.MarketObjectCode = strings.TrimSpace(fmt.Sprint(o))
		}
		refs = append(refs, ref)
	}
	return refs
}

func lookupFold(m map[string]any, key string) (any, bool) {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func inherit(m map[string]any, key, value string, ok bool) {
	if !ok {
		return
	}
	if _, exists := lookupFold(m, key); !exists {
		m[key] = value
	}
}

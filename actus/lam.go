package actus

import (
	"math"
	"time"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/utils"
)

// LAM, NAM and ANN: amortizing loans. They share the schedule and differ in
// how the redemption amount is determined.

// maxAmortizationPeriods bounds maturity derivation for loans that never amortize.
const maxAmortizationPeriods = 10000

func lamFunctions() map[EventType]FunctionPair {
	fns := baseFunctions()
	fns[IED] = FunctionPair{Payoff: pofIED, Transition: stfIEDLAM}
	fns[PR] = FunctionPair{Payoff: pofPRLAM, Transition: stfPRLAM}
	fns[IPCB] = FunctionPair{Payoff: pofZero, Transition: stfIPCB}
	return fns
}

func namFunctions() map[EventType]FunctionPair {
	fns := lamFunctions()
	fns[PR] = FunctionPair{Payoff: pofPRNAM, Transition: stfPRNAM}
	return fns
}

func annFunctions() map[EventType]FunctionPair {
	fns := namFunctions()
	fns[IED] = FunctionPair{Payoff: pofIED, Transition: stfIEDANN}
	fns[PRF] = FunctionPair{Payoff: pofZero, Transition: stfPRF}
	fns[RR] = FunctionPair{Payoff: pofZero, Transition: stfRRANN}
	fns[RRF] = FunctionPair{Payoff: pofZero, Transition: stfRRFANN}
	return fns
}

// lamRedemption is the principal repaid at a PR event, capped at the outstanding notional.
func lamRedemption(s State, env *Env) float64 {
	return roleSign(env) * math.Min(math.Abs(s.NotionalPrincipal), math.Abs(s.NextPrincipalRedemptionPayment))
}

func pofPRLAM(t time.Time, s State, env *Env) (float64, error) {
	return withFX(t, s, env, s.NotionalScalingMultiplier*lamRedemption(s, env))
}

func stfPRLAM(t time.Time, s State, env *Env) (State, error) {
	r := lamRedemption(s, env)
	s = accrue(t, s, env)
	s.NotionalPrincipal -= r
	return refreshBase(s, env), nil
}

// namRedemption is the installment net of interest due. A negative result
// increases the notional.
func namRedemption(t time.Time, s State, env *Env) float64 {
	ra := s.NextPrincipalRedemptionPayment - accruedInterestAt(t, s, env)
	if ra*s.NotionalPrincipal > 0 && math.Abs(ra) > math.Abs(s.NotionalPrincipal) {
		return s.NotionalPrincipal
	}
	return ra
}

func pofPRNAM(t time.Time, s State, env *Env) (float64, error) {
	return withFX(t, s, env, s.NotionalScalingMultiplier*namRedemption(t, s, env))
}

func stfPRNAM(t time.Time, s State, env *Env) (State, error) {
	r := namRedemption(t, s, env)
	s = accrue(t, s, env)
	s.NotionalPrincipal -= r
	return refreshBase(s, env), nil
}

func stfIEDANN(t time.Time, s State, env *Env) (State, error) {
	s, err := stfIED(t, s, env)
	if err != nil || env.Terms.NextPrincipalRedemptionPayment != nil {
		return s, err
	}
	s.NextPrincipalRedemptionPayment = annuity(t, s, env)
	return s, nil
}

func stfPRF(t time.Time, s State, env *Env) (State, error) {
	s = accrue(t, s, env)
	s.NextPrincipalRedemptionPayment = annuity(t, s, env)
	return s, nil
}

func stfRRANN(t time.Time, s State, env *Env) (State, error) {
	s, err := stfRR(t, s, env)
	if err != nil {
		return s, err
	}
	s.NextPrincipalRedemptionPayment = annuity(t, s, env)
	return s, nil
}

func stfRRFANN(t time.Time, s State, env *Env) (State, error) {
	s, err := stfRRF(t, s, env)
	if err != nil {
		return s, err
	}
	s.NextPrincipalRedemptionPayment = annuity(t, s, env)
	return s, nil
}

// annuity returns the constant installment that repays notional plus accrued
// interest over the remaining redemption dates at the current rate.
func annuity(t time.Time, s State, env *Env) float64 {
	dates := []time.Time{t}
	for _, d := range redemptionDates(env.Terms, s.MaturityDate) {
		if d.After(t) {
			dates = append(dates, d)
		}
	}
	if !s.MaturityDate.IsZero() && s.MaturityDate.After(dates[len(dates)-1]) {
		dates = append(dates, s.MaturityDate)
	}
	return annuityAmount(s.NotionalPrincipal+s.AccruedInterest, s.NominalInterestRate, dates, env.YearFraction)
}

// annuityAmount solves balance * prod(f) = P * sum_k prod_{j>k}(f_j) for P,
// with f_i = 1 + rate * fraction(dates[i-1], dates[i]).
func annuityAmount(balance, rate float64, dates []time.Time, fraction func(from, to time.Time) float64) float64 {
	m := len(dates) - 1
	if m <= 0 {
		return balance
	}
	tail, sum := 1.0, 0.0
	for k := m; k >= 1; k-- {
		sum += tail
		tail *= 1 + rate*fraction(dates[k-1], dates[k])
	}
	return balance * tail / sum
}

// redemptionDates is the PR cycle up to but excluding maturity.
func redemptionDates(tm *Terms, maturity time.Time) []time.Time {
	anchor := anchorOr(tm.CycleAnchorDateOfPrincipalRedemption, tm.InitialExchangeDate, tm.CycleOfPrincipalRedemption)
	if anchor.IsZero() || maturity.IsZero() || anchor.After(maturity) {
		return nil
	}
	dates, err := utils.GenerateSchedule(anchor, maturity, tm.CycleOfPrincipalRedemption, tm.EndOfMonthConvention, false)
	if err != nil {
		return nil
	}
	if len(dates) > 0 && dates[len(dates)-1].Equal(maturity) {
		dates = dates[:len(dates)-1]
	}
	return dates
}

// amortizerMaturity returns the maturity date, deriving it from the
// redemption amount when it is not given.
func amortizerMaturity(tm *Terms) (time.Time, error) {
	if !tm.MaturityDate.IsZero() {
		return tm.MaturityDate, nil
	}
	if tm.NextPrincipalRedemptionPayment == nil || *tm.NextPrincipalRedemptionPayment == 0 {
		return time.Time{}, configErr(tm.ContractID, "maturityDate", "is required when nextPrincipalRedemptionPayment is not set")
	}
	c, err := utils.ParseCycle(tm.CycleOfPrincipalRedemption)
	if err != nil {
		return time.Time{}, configErr(tm.ContractID, "cycleOfPrincipalRedemption", "is required to derive the maturity date")
	}
	anchor := anchorOr(tm.CycleAnchorDateOfPrincipalRedemption, tm.InitialExchangeDate, tm.CycleOfPrincipalRedemption)
	if anchor.IsZero() {
		return time.Time{}, configErr(tm.ContractID, "initialExchangeDate", "is required to derive the maturity date")
	}
	prnxt := math.Abs(*tm.NextPrincipalRedemptionPayment)
	nt := math.Abs(tm.NotionalPrincipal)

	if tm.ContractType == LAM {
		n := int(math.Ceil(nt / prnxt))
		return c.Shift(anchor, max(n-1, 0)), nil
	}

	// NAM and ANN: the installment covers interest first.
	dc, adj := tm.DayCounter(), tm.Adjuster()
	prev := lastCycleDate(tm, tm.CycleAnchorDateOfInterestPayment, tm.CycleOfInterestPayment, anchor)
	for k := 0; k < maxAmortizationPeriods; k++ {
		d := c.Shift(anchor, k)
		interest := dc.Fraction(adj.ShiftCalcTime(prev), adj.ShiftCalcTime(d)) * tm.NominalInterestRate * nt
		principal := prnxt - interest
		if principal <= 0 {
			return time.Time{}, configErr(tm.ContractID, "nextPrincipalRedemptionPayment", "%g does not cover interest of %g", prnxt, interest)
		}
		nt -= principal
		if nt <= 0 {
			return d, nil
		}
		prev = d
	}
	return time.Time{}, configErr(tm.ContractID, "nextPrincipalRedemptionPayment", "does not amortize within %d periods", maxAmortizationPeriods)
}

func scheduleAmortizer(_ time.Time, tm *Terms) ([]Event, error) {
	md, err := amortizerMaturity(tm)
	if err != nil {
		return nil, err
	}
	b := newScheduleBuilder(tm)
	b.add(tm.InitialExchangeDate, IED)
	if tm.TerminationDate.IsZero() {
		b.add(md, MD)
	}
	for _, d := range redemptionDates(tm, md) {
		b.add(d, PR)
	}
	if tm.ContractType == ANN && tm.NextPrincipalRedemptionPayment == nil {
		anchor := anchorOr(tm.CycleAnchorDateOfPrincipalRedemption, tm.InitialExchangeDate, tm.CycleOfPrincipalRedemption)
		if prf := anchor.AddDate(0, 0, -1); !anchor.IsZero() && prf.After(tm.InitialExchangeDate) && prf.Before(md) {
			b.add(prf, PRF)
		}
	}
	b.interestSchedule(md)
	if tm.InterestCalculationBase == BaseNTL {
		anchor := anchorOr(tm.CycleAnchorDateOfInterestCalculationBase, tm.InitialExchangeDate, tm.CycleOfInterestCalculationBase)
		b.cycle(anchor, md, tm.CycleOfInterestCalculationBase, false, IPCB)
	}
	b.rateResetSchedule(md)
	b.feeSchedule(md)
	b.scalingSchedule(md)
	b.prepaymentSchedule(md)
	b.purchase(true)
	b.termination(true, MD)
	return b.result()
}

func validateAmortizer(tm *Terms) []error {
	var errs []error
	errs = appendErr(errs, requireDate(tm, "initialExchangeDate", tm.InitialExchangeDate))
	if tm.CycleOfPrincipalRedemption == "" && tm.CycleAnchorDateOfPrincipalRedemption.IsZero() {
		errs = append(errs, configErr(tm.ContractID, "cycleOfPrincipalRedemption", "is required for %s", tm.ContractType))
	}
	if tm.ContractType != ANN && tm.NextPrincipalRedemptionPayment == nil && tm.MaturityDate.IsZero() {
		errs = append(errs, configErr(tm.ContractID, "nextPrincipalRedemptionPayment", "or maturityDate is required for %s", tm.ContractType))
	}
	if tm.InterestCalculationBase == BaseNTL && tm.CycleOfInterestCalculationBase == "" && tm.CycleAnchorDateOfInterestCalculationBase.IsZero() {
		errs = append(errs, configErr(tm.ContractID, "cycleOfInterestCalculationBase", "is required with interestCalculationBase NTL"))
	}
	if len(errs) == 0 {
		md, err := amortizerMaturity(tm)
		errs = appendErr(errs, err)
		errs = appendErr(errs, terminationAfterMaturity(tm, md))
	}
	return append(errs, commonChecks(tm)...)
}

func initAmortizer(env *Env) (State, error) {
	tm := env.Terms
	md, err := amortizerMaturity(tm)
	if err != nil {
		return State{}, err
	}
	s := initDebt(env, md)
	if s.NotionalPrincipal == 0 || tm.NextPrincipalRedemptionPayment != nil {
		return s, nil
	}
	switch tm.ContractType {
	case ANN:
		s.NextPrincipalRedemptionPayment = annuity(tm.StatusDate, s, env)
	default:
		n := len(redemptionDates(tm, md)) + 1
		s.NextPrincipalRedemptionPayment = s.NotionalPrincipal / float64(n)
	}
	return s, nil
}

// stfIEDLAM books the principal and derives the straight line installment when it is not given.
func stfIEDLAM(t time.Time, s State, env *Env) (State, error) {
	s, err := stfIED(t, s, env)
	if err != nil || env.Terms.NextPrincipalRedemptionPayment != nil {
		return s, err
	}
	n := len(redemptionDates(env.Terms, s.MaturityDate)) + 1
	s.NextPrincipalRedemptionPayment = s.NotionalPrincipal / float64(n)
	return s, nil
}

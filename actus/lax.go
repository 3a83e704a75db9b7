package actus

import (
	"math"
	"strings"
	"time"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/utils"
)

// LAX: exotic linear amortizer. Principal and rate schedules are given as
// arrays of segments, each with its own anchor, cycle and amount.

func laxFunctions() map[EventType]FunctionPair {
	fns := baseFunctions()
	fns[IPCB] = FunctionPair{Payoff: pofZero, Transition: stfIPCB}
	return fns
}

func laxRedemption(amount float64) FunctionPair {
	redemption := func(s State, env *Env) float64 {
		return roleSign(env) * math.Min(math.Abs(s.NotionalPrincipal), math.Abs(amount))
	}
	return FunctionPair{
		Payoff: func(t time.Time, s State, env *Env) (float64, error) {
			return withFX(t, s, env, s.NotionalScalingMultiplier*redemption(s, env))
		},
		Transition: func(t time.Time, s State, env *Env) (State, error) {
			r := redemption(s, env)
			s = accrue(t, s, env)
			s.NotionalPrincipal -= r
			s.NextPrincipalRedemptionPayment = roleSign(env) * amount
			return refreshBase(s, env), nil
		},
	}
}

func laxIncrease(amount float64) FunctionPair {
	return FunctionPair{
		Payoff: func(t time.Time, s State, env *Env) (float64, error) {
			return withFX(t, s, env, -roleSign(env)*s.NotionalScalingMultiplier*amount)
		},
		Transition: func(t time.Time, s State, env *Env) (State, error) {
			s = accrue(t, s, env)
			s.NotionalPrincipal += roleSign(env) * amount
			s.NextPrincipalRedemptionPayment = roleSign(env) * amount
			return refreshBase(s, env), nil
		},
	}
}

func laxFixedRate(rate float64) FunctionPair {
	return FunctionPair{
		Payoff: pofZero,
		Transition: func(t time.Time, s State, env *Env) (State, error) {
			s = accrue(t, s, env)
			s.NominalInterestRate = clamp(rate, env.Terms.LifeFloor, env.Terms.LifeCap)
			return s, nil
		},
	}
}

func laxVariableRate(spread float64) FunctionPair {
	return FunctionPair{
		Payoff: pofZero,
		Transition: func(t time.Time, s State, env *Env) (State, error) {
			tm := env.Terms
			obs, err := env.Observe(tm.MarketObjectCodeOfRateReset, t, s, true)
			if err != nil {
				return s, err
			}
			s = accrue(t, s, env)
			s.NominalInterestRate = resetRate(s.NominalInterestRate, obs, tm.RateMultiplier, spread, tm)
			return s, nil
		},
	}
}

// segments calls fn once per array segment with its date range and cycle.
func (b *scheduleBuilder) segments(anchors []time.Time, cycles []string, end time.Time, fn func(i int, dates []time.Time)) {
	for i, a := range anchors {
		segEnd := end
		if i+1 < len(anchors) {
			segEnd = anchors[i+1]
		}
		cycle := ""
		if i < len(cycles) {
			cycle = cycles[i]
		}
		if a.After(segEnd) {
			continue
		}
		dates, err := utils.GenerateSchedule(a, segEnd, cycle, b.terms.EndOfMonthConvention, false)
		if err != nil {
			b.err = configErr(b.terms.ContractID, "array schedule", "%v", err)
			return
		}
		if len(dates) > 0 && dates[len(dates)-1].Equal(segEnd) {
			dates = dates[:len(dates)-1]
		}
		fn(i, dates)
	}
}

func isIncrease(tm *Terms, i int) bool {
	return i < len(tm.ArrayIncreaseDecrease) && strings.EqualFold(tm.ArrayIncreaseDecrease[i], "INC")
}

func isFixed(tm *Terms, i int) bool {
	return i < len(tm.ArrayFixedVariable) && strings.EqualFold(tm.ArrayFixedVariable[i], "F")
}

func scheduleLAX(_ time.Time, tm *Terms) ([]Event, error) {
	md := tm.MaturityDate
	b := newScheduleBuilder(tm)
	b.add(tm.InitialExchangeDate, IED)
	if tm.TerminationDate.IsZero() {
		b.add(md, MD)
	}
	b.segments(tm.ArrayCycleAnchorDateOfPrincipalRedemption, tm.ArrayCycleOfPrincipalRedemption, md, func(i int, dates []time.Time) {
		amount := tm.ArrayNextPrincipalRedemptionPayment[i]
		typ, fn := PR, laxRedemption(amount)
		if isIncrease(tm, i) {
			typ, fn = PI, laxIncrease(amount)
		}
		for _, d := range dates {
			b.addWith(d, typ, tm.Currency, fn)
		}
	})

	if len(tm.ArrayCycleAnchorDateOfInterestPayment) > 0 {
		dates, err := utils.GenerateArraySchedule(tm.ArrayCycleAnchorDateOfInterestPayment, md,
			tm.ArrayCycleOfInterestPayment, tm.EndOfMonthConvention, true)
		if err != nil {
			return nil, configErr(tm.ContractID, "arrayCycleOfInterestPayment", "%v", err)
		}
		for _, d := range dates {
			b.add(d, IP)
		}
	} else {
		b.interestSchedule(md)
	}

	b.segments(tm.ArrayCycleAnchorDateOfRateReset, tm.ArrayCycleOfRateReset, md, func(i int, dates []time.Time) {
		typ, fn := RR, laxVariableRate(tm.ArrayRate[i])
		if isFixed(tm, i) {
			typ, fn = RRF, laxFixedRate(tm.ArrayRate[i])
		}
		for _, d := range dates {
			b.addWith(d, typ, tm.Currency, fn)
		}
	})

	if tm.InterestCalculationBase == BaseNTL {
		anchor := anchorOr(tm.CycleAnchorDateOfInterestCalculationBase, tm.InitialExchangeDate, tm.CycleOfInterestCalculationBase)
		b.cycle(anchor, md, tm.CycleOfInterestCalculationBase, false, IPCB)
	}
	b.feeSchedule(md)
	b.scalingSchedule(md)
	b.purchase(true)
	b.termination(true, MD)
	return b.result()
}

func validateLAX(tm *Terms) []error {
	var errs []error
	errs = appendErr(errs, requireDate(tm, "initialExchangeDate", tm.InitialExchangeDate))
	errs = appendErr(errs, requireDate(tm, "maturityDate", tm.MaturityDate))
	errs = appendErr(errs, terminationAfterMaturity(tm, tm.MaturityDate))

	n := len(tm.ArrayCycleAnchorDateOfPrincipalRedemption)
	if len(tm.ArrayNextPrincipalRedemptionPayment) != n {
		errs = append(errs, configErr(tm.ContractID, "arrayNextPrincipalRedemptionPayment",
			"has %d entries for %d anchors", len(tm.ArrayNextPrincipalRedemptionPayment), n))
	}
	if c := len(tm.ArrayCycleOfPrincipalRedemption); c != 0 && c != n {
		errs = append(errs, configErr(tm.ContractID, "arrayCycleOfPrincipalRedemption", "has %d entries for %d anchors", c, n))
	}
	if c := len(tm.ArrayIncreaseDecrease); c != 0 && c != n {
		errs = append(errs, configErr(tm.ContractID, "arrayIncreaseDecrease", "has %d entries for %d anchors", c, n))
	}

	m := len(tm.ArrayCycleAnchorDateOfRateReset)
	if len(tm.ArrayRate) != m {
		errs = append(errs, configErr(tm.ContractID, "arrayRate", "has %d entries for %d anchors", len(tm.ArrayRate), m))
	}
	if c := len(tm.ArrayCycleOfRateReset); c != 0 && c != m {
		errs = append(errs, configErr(tm.ContractID, "arrayCycleOfRateReset", "has %d entries for %d anchors", c, m))
	}
	if c := len(tm.ArrayFixedVariable); c != 0 && c != m {
		errs = append(errs, configErr(tm.ContractID, "arrayFixedVariable", "has %d entries for %d anchors", c, m))
	}
	for i := 0; i < m; i++ {
		if !isFixed(tm, i) && tm.MarketObjectCodeOfRateReset == "" {
			errs = append(errs, configErr(tm.ContractID, "marketObjectCodeOfRateReset", "is required for variable rate segments"))
			break
		}
	}
	if c := len(tm.ArrayCycleOfInterestPayment); c != 0 && c != len(tm.ArrayCycleAnchorDateOfInterestPayment) {
		errs = append(errs, configErr(tm.ContractID, "arrayCycleOfInterestPayment",
			"has %d entries for %d anchors", c, len(tm.ArrayCycleAnchorDateOfInterestPayment)))
	}
	return append(errs, commonChecks(tm)...)
}

func initLAX(env *Env) (State, error) {
	tm := env.Terms
	s := initDebt(env, tm.MaturityDate)
	if s.NotionalPrincipal != 0 && len(tm.ArrayNextPrincipalRedemptionPayment) > 0 {
		s.NextPrincipalRedemptionPayment = roleSign(env) * tm.ArrayNextPrincipalRedemptionPayment[0]
	}
	return s, nil
}

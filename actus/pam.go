package actus

import (
	"time"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/utils"
)

// PAM: principal at maturity.

func pamFunctions() map[EventType]FunctionPair {
	return baseFunctions()
}

func interestBearing(tm *Terms) bool {
	return tm.NominalInterestRate != 0 ||
		tm.CycleOfInterestPayment != "" ||
		!tm.CycleAnchorDateOfInterestPayment.IsZero() ||
		tm.CycleOfRateReset != "" ||
		!tm.CycleAnchorDateOfRateReset.IsZero()
}

func schedulePAM(_ time.Time, tm *Terms) ([]Event, error) {
	b := newScheduleBuilder(tm)
	md := tm.MaturityDate
	b.add(tm.InitialExchangeDate, IED)
	if tm.TerminationDate.IsZero() {
		b.add(md, MD)
	}
	if interestBearing(tm) {
		b.interestSchedule(md)
	}
	b.rateResetSchedule(md)
	b.feeSchedule(md)
	b.scalingSchedule(md)
	b.prepaymentSchedule(md)
	b.purchase(interestBearing(tm))
	b.termination(interestBearing(tm), MD)
	return b.result()
}

func validatePAM(tm *Terms) []error {
	var errs []error
	errs = appendErr(errs, requireDate(tm, "initialExchangeDate", tm.InitialExchangeDate))
	errs = appendErr(errs, requireDate(tm, "maturityDate", tm.MaturityDate))
	errs = appendErr(errs, terminationAfterMaturity(tm, tm.MaturityDate))
	return append(errs, commonChecks(tm)...)
}

// initDebt initializes the state of a debt contract as of the status date.
// Before initial exchange the contract holds no principal.
func initDebt(env *Env, maturity time.Time) State {
	tm := env.Terms
	s := State{
		StatusDate:                tm.StatusDate,
		MaturityDate:              maturity,
		Performance:               tm.ContractPerformance,
		NotionalScalingMultiplier: tm.NotionalScalingMultiplier,
		InterestScalingMultiplier: tm.InterestScalingMultiplier,
	}
	if tm.FeeAccrued != nil {
		s.FeeAccrued = *tm.FeeAccrued
	}
	if tm.InitialExchangeDate.IsZero() || tm.InitialExchangeDate.After(tm.StatusDate) {
		return s
	}
	r := roleSign(env)
	s.NotionalPrincipal = r * tm.NotionalPrincipal
	s.NominalInterestRate = tm.NominalInterestRate
	s.InterestCalculationBaseAmount = initialBase(s, tm)
	switch {
	case tm.AccruedInterest != nil:
		s.AccruedInterest = r * *tm.AccruedInterest
	case s.NominalInterestRate != 0:
		last := lastCycleDate(tm, tm.CycleAnchorDateOfInterestPayment, tm.CycleOfInterestPayment, tm.StatusDate)
		s.AccruedInterest = env.YearFraction(last, tm.StatusDate) * s.NominalInterestRate * interestBase(s, env)
	}
	if tm.NextPrincipalRedemptionPayment != nil {
		s.NextPrincipalRedemptionPayment = r * *tm.NextPrincipalRedemptionPayment
	}
	return s
}

// lastCycleDate is the latest cycle date not after sd, falling back to initial exchange.
func lastCycleDate(tm *Terms, anchor time.Time, cycle string, sd time.Time) time.Time {
	last := tm.InitialExchangeDate
	anchor = anchorOr(anchor, tm.InitialExchangeDate, cycle)
	if anchor.IsZero() || anchor.After(sd) {
		return last
	}
	dates, err := utils.GenerateSchedule(anchor, sd.AddDate(0, 0, 1), cycle, tm.EndOfMonthConvention, false)
	if err != nil {
		return last
	}
	for _, d := range dates {
		if !d.After(sd) && d.After(last) {
			last = d
		}
	}
	return last
}

func initPAM(env *Env) (State, error) {
	return initDebt(env, env.Terms.MaturityDate), nil
}

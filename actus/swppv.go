package actus

import "time"

// SWPPV: plain vanilla interest rate swap. The first leg pays the fixed rate
// in NominalInterestRate, the second leg the floating rate in NominalInterestRate2.
// Both legs accrue on the same notional, which is never exchanged.

func swppvFunctions() map[EventType]FunctionPair {
	return map[EventType]FunctionPair{
		IED:  {Payoff: pofZero, Transition: stfIEDSwap},
		MD:   {Payoff: pofZero, Transition: stfMDSwap},
		IPFX: {Payoff: pofIPFX, Transition: stfIPFX},
		IPFL: {Payoff: pofIPFL, Transition: stfIPFL},
		IP:   {Payoff: pofIPNet, Transition: stfIPNet},
		RR:   {Payoff: pofZero, Transition: stfRRSwap},
		RRF:  {Payoff: pofZero, Transition: stfRRFSwap},
		PRD:  {Payoff: pofPRD, Transition: stfAccrueSwap},
		TD:   {Payoff: pofTD, Transition: stfTD},
	}
}

func accrueSwap(t time.Time, s State, env *Env) State {
	dcf := env.YearFraction(s.StatusDate, t)
	s.AccruedInterest += dcf * s.NominalInterestRate * s.NotionalPrincipal
	s.AccruedInterest2 += dcf * s.NominalInterestRate2 * s.NotionalPrincipal
	s.StatusDate = t
	return s
}

func fixedLegAt(t time.Time, s State, env *Env) float64 {
	return s.AccruedInterest + env.YearFraction(s.StatusDate, t)*s.NominalInterestRate*s.NotionalPrincipal
}

func floatingLegAt(t time.Time, s State, env *Env) float64 {
	return s.AccruedInterest2 + env.YearFraction(s.StatusDate, t)*s.NominalInterestRate2*s.NotionalPrincipal
}

func stfIEDSwap(t time.Time, s State, env *Env) (State, error) {
	tm := env.Terms
	s.NotionalPrincipal = roleSign(env) * tm.NotionalPrincipal
	s.NominalInterestRate = tm.NominalInterestRate
	s.NominalInterestRate2 = tm.NominalInterestRate2
	s.AccruedInterest = 0
	s.AccruedInterest2 = 0
	s.StatusDate = t
	return s, nil
}

func stfMDSwap(t time.Time, s State, _ *Env) (State, error) {
	s.NotionalPrincipal = 0
	s.AccruedInterest = 0
	s.AccruedInterest2 = 0
	s.StatusDate = t
	return s, nil
}

func stfAccrueSwap(t time.Time, s State, env *Env) (State, error) {
	return accrueSwap(t, s, env), nil
}

func pofIPFX(t time.Time, s State, env *Env) (float64, error) {
	return withFX(t, s, env, fixedLegAt(t, s, env))
}

func stfIPFX(t time.Time, s State, env *Env) (State, error) {
	s = accrueSwap(t, s, env)
	s.AccruedInterest = 0
	return s, nil
}

func pofIPFL(t time.Time, s State, env *Env) (float64, error) {
	return withFX(t, s, env, -floatingLegAt(t, s, env))
}

func stfIPFL(t time.Time, s State, env *Env) (State, error) {
	s = accrueSwap(t, s, env)
	s.AccruedInterest2 = 0
	return s, nil
}

func pofIPNet(t time.Time, s State, env *Env) (float64, error) {
	return withFX(t, s, env, fixedLegAt(t, s, env)-floatingLegAt(t, s, env))
}

func stfIPNet(t time.Time, s State, env *Env) (State, error) {
	s = accrueSwap(t, s, env)
	s.AccruedInterest = 0
	s.AccruedInterest2 = 0
	return s, nil
}

func stfRRSwap(t time.Time, s State, env *Env) (State, error) {
	tm := env.Terms
	obs, err := env.Observe(tm.MarketObjectCodeOfRateReset, t, s, true)
	if err != nil {
		return s, err
	}
	s = accrueSwap(t, s, env)
	s.NominalInterestRate2 = resetRate(s.NominalInterestRate2, obs, tm.RateMultiplier, tm.RateSpread, tm)
	return s, nil
}

func stfRRFSwap(t time.Time, s State, env *Env) (State, error) {
	s = accrueSwap(t, s, env)
	if env.Terms.NextResetRate != nil {
		s.NominalInterestRate2 = *env.Terms.NextResetRate
	}
	return s, nil
}

func scheduleSWPPV(_ time.Time, tm *Terms) ([]Event, error) {
	md := tm.MaturityDate
	b := newScheduleBuilder(tm)
	b.add(tm.InitialExchangeDate, IED)
	if tm.TerminationDate.IsZero() {
		b.add(md, MD)
	}
	anchor := anchorOr(tm.CycleAnchorDateOfInterestPayment, tm.InitialExchangeDate, tm.CycleOfInterestPayment)
	if tm.DeliverySettlement == Settlement {
		b.cycle(anchor, md, tm.CycleOfInterestPayment, true, IP)
	} else {
		b.cycle(anchor, md, tm.CycleOfInterestPayment, true, IPFX)
		b.cycle(anchor, md, tm.CycleOfInterestPayment, true, IPFL)
	}
	b.rateResetSchedule(md)
	b.purchase(false)
	b.termination(false, MD)
	return b.result()
}

func validateSWPPV(tm *Terms) []error {
	var errs []error
	errs = appendErr(errs, requireDate(tm, "initialExchangeDate", tm.InitialExchangeDate))
	errs = appendErr(errs, requireDate(tm, "maturityDate", tm.MaturityDate))
	errs = appendErr(errs, terminationAfterMaturity(tm, tm.MaturityDate))
	errs = appendErr(errs, requireString(tm, "marketObjectCodeOfRateReset", tm.MarketObjectCodeOfRateReset))
	if tm.CycleOfInterestPayment == "" && tm.CycleAnchorDateOfInterestPayment.IsZero() {
		errs = append(errs, configErr(tm.ContractID, "cycleOfInterestPayment", "is required for %s", tm.ContractType))
	}
	if tm.CycleOfRateReset == "" && tm.CycleAnchorDateOfRateReset.IsZero() {
		errs = append(errs, configErr(tm.ContractID, "cycleOfRateReset", "is required for %s", tm.ContractType))
	}
	return errs
}

func initSWPPV(env *Env) (State, error) {
	tm := env.Terms
	s := State{StatusDate: tm.StatusDate, MaturityDate: tm.MaturityDate, Performance: tm.ContractPerformance}
	if tm.InitialExchangeDate.After(tm.StatusDate) {
		return s, nil
	}
	s.NotionalPrincipal = roleSign(env) * tm.NotionalPrincipal
	s.NominalInterestRate = tm.NominalInterestRate
	s.NominalInterestRate2 = tm.NominalInterestRate2
	if tm.AccruedInterest != nil {
		s.AccruedInterest = roleSign(env) * *tm.AccruedInterest
	}
	return s, nil
}

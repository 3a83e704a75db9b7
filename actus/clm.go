package actus

import "time"

// CLM (call money) and UMP (undefined maturity profile) capitalize interest
// on their cycle and run until maturity, termination or the horizon.

func clmFunctions() map[EventType]FunctionPair {
	return baseFunctions()
}

func umpFunctions() map[EventType]FunctionPair {
	return baseFunctions()
}

// openEnd is the last date an open maturity contract is scheduled to.
func openEnd(to time.Time, tm *Terms) time.Time {
	switch {
	case !tm.MaturityDate.IsZero():
		return tm.MaturityDate
	case !tm.TerminationDate.IsZero():
		return tm.TerminationDate
	}
	return to
}

func capitalizationSchedule(b *scheduleBuilder, end time.Time) {
	tm := b.terms
	if tm.CycleOfInterestPayment == "" && tm.CycleAnchorDateOfInterestPayment.IsZero() {
		return
	}
	anchor := anchorOr(tm.CycleAnchorDateOfInterestPayment, tm.InitialExchangeDate, tm.CycleOfInterestPayment)
	b.cycle(anchor, end, tm.CycleOfInterestPayment, false, IPCI)
}

func scheduleCLM(to time.Time, tm *Terms) ([]Event, error) {
	b := newScheduleBuilder(tm)
	end := openEnd(to, tm)
	b.add(tm.InitialExchangeDate, IED)
	capitalizationSchedule(b, end)
	if !tm.MaturityDate.IsZero() && tm.TerminationDate.IsZero() {
		b.add(tm.MaturityDate, IP)
		b.add(tm.MaturityDate, MD)
	}
	b.rateResetSchedule(end)
	b.feeSchedule(end)
	b.purchase(true)
	b.termination(true, MD)
	return b.result()
}

func scheduleUMP(to time.Time, tm *Terms) ([]Event, error) {
	b := newScheduleBuilder(tm)
	end := openEnd(to, tm)
	b.add(tm.InitialExchangeDate, IED)
	capitalizationSchedule(b, end)
	if !tm.MaturityDate.IsZero() && tm.TerminationDate.IsZero() {
		b.add(tm.MaturityDate, IP)
		b.add(tm.MaturityDate, MD)
	}
	b.rateResetSchedule(end)
	b.feeSchedule(end)
	b.purchase(true)
	b.termination(true, MD)
	return b.result()
}

func validateOpenMaturity(tm *Terms) []error {
	var errs []error
	errs = appendErr(errs, requireDate(tm, "initialExchangeDate", tm.InitialExchangeDate))
	errs = appendErr(errs, terminationAfterMaturity(tm, tm.MaturityDate))
	return append(errs, commonChecks(tm)...)
}

func initOpenMaturity(env *Env) (State, error) {
	return initDebt(env, env.Terms.MaturityDate), nil
}

package actus

import "time"

// STK: stock position with an optional dividend cycle.

func stkFunctions() map[EventType]FunctionPair {
	return map[EventType]FunctionPair{
		PRD: {Payoff: pofPRD, Transition: stfNoop},
		TD:  {Payoff: pofTD, Transition: stfNoop},
		DV:  {Payoff: pofDV, Transition: stfNoop},
	}
}

// pofDV pays the observed dividend per share when a dividend market object is
// configured and the fixed next dividend otherwise.
func pofDV(t time.Time, s State, env *Env) (float64, error) {
	tm := env.Terms
	var dv float64
	switch {
	case tm.MarketObjectCodeOfDividends != "":
		obs, err := env.Observe(tm.MarketObjectCodeOfDividends, t, s, true)
		if err != nil {
			return 0, err
		}
		dv = obs
	case tm.NextDividendPaymentAmount != nil:
		dv = *tm.NextDividendPaymentAmount
	}
	return withFX(t, s, env, roleSign(env)*tm.Quantity*dv)
}

func scheduleSTK(to time.Time, tm *Terms) ([]Event, error) {
	b := newScheduleBuilder(tm)
	b.add(tm.PurchaseDate, PRD)
	if !tm.CycleAnchorDateOfDividendPayment.IsZero() {
		end := to
		if !tm.TerminationDate.IsZero() {
			end = tm.TerminationDate
		}
		b.cycle(tm.CycleAnchorDateOfDividendPayment, end, tm.CycleOfDividendPayment, false, DV)
	}
	b.termination(false)
	return b.result()
}

func validateSTK(tm *Terms) []error {
	var errs []error
	if tm.CycleOfDividendPayment != "" {
		errs = appendErr(errs, requireDate(tm, "cycleAnchorDateOfDividendPayment", tm.CycleAnchorDateOfDividendPayment))
	}
	if !tm.CycleAnchorDateOfDividendPayment.IsZero() && tm.MarketObjectCodeOfDividends == "" && tm.NextDividendPaymentAmount == nil {
		errs = append(errs, configErr(tm.ContractID, "nextDividendPaymentAmount",
			"or marketObjectCodeOfDividends is required with a dividend schedule"))
	}
	if !tm.PurchaseDate.IsZero() && !tm.TerminationDate.IsZero() && tm.TerminationDate.Before(tm.PurchaseDate) {
		errs = append(errs, configErr(tm.ContractID, "terminationDate", "is before purchaseDate"))
	}
	return errs
}

func initSTK(env *Env) (State, error) {
	tm := env.Terms
	return State{StatusDate: tm.StatusDate, Performance: tm.ContractPerformance}, nil
}

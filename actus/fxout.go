package actus

import "time"

// FXOUT: foreign exchange outright. Delivery exchanges both notionals at
// maturity; cash settlement pays the net amount in the first currency.

func fxoutFunctions() map[EventType]FunctionPair {
	return map[EventType]FunctionPair{
		PRD: {Payoff: pofPRD, Transition: stfNoop},
		TD:  {Payoff: pofTD, Transition: stfTD},
		MD:  {Payoff: pofMDFirstCurrency, Transition: stfNoop},
		STD: {Payoff: pofSTDFX, Transition: stfMDFX},
	}
}

func pofMDFirstCurrency(t time.Time, s State, env *Env) (float64, error) {
	return withFX(t, s, env, roleSign(env)*env.Terms.NotionalPrincipal)
}

// secondCurrencyDelivery pays the second notional in its own currency.
var secondCurrencyDelivery = FunctionPair{
	Payoff: func(_ time.Time, _ State, env *Env) (float64, error) {
		return -roleSign(env) * env.Terms.NotionalPrincipal2, nil
	},
	Transition: stfMDFX,
}

// pofSTDFX nets the second notional into the first currency at the observed
// rate of Currency2/Currency.
func pofSTDFX(t time.Time, s State, env *Env) (float64, error) {
	tm := env.Terms
	rate, err := env.Observe(tm.Currency2+"/"+tm.Currency, t, s, true)
	if err != nil {
		return 0, err
	}
	return withFX(t, s, env, roleSign(env)*(tm.NotionalPrincipal-rate*tm.NotionalPrincipal2))
}

func stfMDFX(t time.Time, s State, _ *Env) (State, error) {
	s.NotionalPrincipal = 0
	s.NotionalPrincipal2 = 0
	s.StatusDate = t
	return s, nil
}

func scheduleFXOUT(_ time.Time, tm *Terms) ([]Event, error) {
	b := newScheduleBuilder(tm)
	b.add(tm.PurchaseDate, PRD)
	if tm.TerminationDate.IsZero() {
		if tm.DeliverySettlement == Settlement {
			std, err := settlementDate(tm, tm.MaturityDate)
			if err != nil {
				return nil, configErr(tm.ContractID, "settlementPeriod", "%v", err)
			}
			b.add(std, STD)
		} else {
			b.add(tm.MaturityDate, MD)
			b.addWith(tm.MaturityDate, MD, tm.Currency2, secondCurrencyDelivery)
		}
	}
	b.termination(false)
	return b.result()
}

func validateFXOUT(tm *Terms) []error {
	var errs []error
	errs = appendErr(errs, requireDate(tm, "maturityDate", tm.MaturityDate))
	errs = appendErr(errs, terminationAfterMaturity(tm, tm.MaturityDate))
	errs = appendErr(errs, requireString(tm, "currency2", tm.Currency2))
	if tm.NotionalPrincipal == 0 {
		errs = append(errs, configErr(tm.ContractID, "notionalPrincipal", "is required for %s", tm.ContractType))
	}
	if tm.NotionalPrincipal2 == 0 {
		errs = append(errs, configErr(tm.ContractID, "notionalPrincipal2", "is required for %s", tm.ContractType))
	}
	return errs
}

func initFXOUT(env *Env) (State, error) {
	tm := env.Terms
	r := roleSign(env)
	return State{
		StatusDate:         tm.StatusDate,
		MaturityDate:       tm.MaturityDate,
		Performance:        tm.ContractPerformance,
		NotionalPrincipal:  r * tm.NotionalPrincipal,
		NotionalPrincipal2: -r * tm.NotionalPrincipal2,
	}, nil
}

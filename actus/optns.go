package actus

import (
	"math"
	"time"
)

// OPTNS: call, put or collar on a market observed underlier, settled in cash
// one settlement period after exercise.

func optnsFunctions() map[EventType]FunctionPair {
	return map[EventType]FunctionPair{
		PRD: {Payoff: pofPRD, Transition: stfNoop},
		TD:  {Payoff: pofTD, Transition: stfTD},
		MD:  {Payoff: pofZero, Transition: stfNoop},
		XD:  {Payoff: pofZero, Transition: stfXD},
		STD: {Payoff: pofSTD, Transition: stfSTD},
	}
}

// underlyingCode is the market object the option is written on.
func underlyingCode(tm *Terms) string {
	if ref, ok := tm.Reference(Underlying); ok && ref.MarketObjectCode != "" {
		return ref.MarketObjectCode
	}
	return tm.MarketObjectCode
}

func exerciseAmount(tm *Terms, spot float64) float64 {
	switch tm.OptionType {
	case Call:
		return math.Max(spot-tm.OptionStrike1, 0)
	case Put:
		return math.Max(tm.OptionStrike1-spot, 0)
	case Collar:
		return math.Max(spot-tm.OptionStrike1, 0) + math.Max(tm.OptionStrike2-spot, 0)
	}
	return 0
}

func stfXD(t time.Time, s State, env *Env) (State, error) {
	spot, err := env.Observe(underlyingCode(env.Terms), t, s, true)
	if err != nil {
		return s, err
	}
	s.ExerciseAmount = exerciseAmount(env.Terms, spot)
	s.ExerciseDate = t
	s.StatusDate = t
	return s, nil
}

func pofSTD(t time.Time, s State, env *Env) (float64, error) {
	return withFX(t, s, env, roleSign(env)*quantity(env.Terms)*s.ExerciseAmount)
}

func stfSTD(t time.Time, s State, _ *Env) (State, error) {
	s.ExerciseAmount = 0
	s.StatusDate = t
	return s, nil
}

func scheduleOPTNS(_ time.Time, tm *Terms) ([]Event, error) {
	b := newScheduleBuilder(tm)
	b.add(tm.PurchaseDate, PRD)
	terminated := !tm.TerminationDate.IsZero()
	if !terminated {
		b.add(tm.MaturityDate, MD)
	}
	xd := tm.ExerciseDate
	if xd.IsZero() && !terminated {
		xd = tm.MaturityDate
	}
	if !xd.IsZero() {
		std, err := settlementDate(tm, xd)
		if err != nil {
			return nil, configErr(tm.ContractID, "settlementPeriod", "%v", err)
		}
		b.add(xd, XD)
		b.add(std, STD)
	}
	b.termination(false, MD)
	return b.result()
}

func validateOPTNS(tm *Terms) []error {
	var errs []error
	errs = appendErr(errs, requireDate(tm, "maturityDate", tm.MaturityDate))
	errs = appendErr(errs, terminationAfterMaturity(tm, tm.MaturityDate))
	errs = appendErr(errs, requireString(tm, "optionType", string(tm.OptionType)))
	if underlyingCode(tm) == "" {
		errs = append(errs, configErr(tm.ContractID, "contractStructure", "an underlying market object is required for %s", tm.ContractType))
	}
	if tm.OptionType == Collar && tm.OptionStrike2 == 0 {
		errs = append(errs, configErr(tm.ContractID, "optionStrike2", "is required for collars"))
	}
	if !tm.ExerciseDate.IsZero() && tm.ExerciseDate.After(tm.MaturityDate) {
		errs = append(errs, configErr(tm.ContractID, "exerciseDate", "is after maturityDate"))
	}
	return errs
}

func initOPTNS(env *Env) (State, error) {
	tm := env.Terms
	return State{
		StatusDate:   tm.StatusDate,
		MaturityDate: tm.MaturityDate,
		ExerciseDate: tm.ExerciseDate,
		Performance:  tm.ContractPerformance,
	}, nil
}

package actus

import (
	"math"
	"time"
)

// CEG: credit enhancement guarantee over a covered contract. The guarantor
// earns a fee and pays the covered exposure after exercise.

func cegFunctions() map[EventType]FunctionPair {
	return map[EventType]FunctionPair{
		PRD: {Payoff: pofPRD, Transition: stfAccrue},
		FP:  {Payoff: pofFPCEG, Transition: stfFP},
		XD:  {Payoff: pofZero, Transition: stfXDCEG},
		STD: {Payoff: pofSTD, Transition: stfSTD},
		MD:  {Payoff: pofZero, Transition: stfMD},
		TD:  {Payoff: pofTD, Transition: stfTD},
	}
}

// pofFPCEG is paid by the protection buyer to the guarantor.
func pofFPCEG(t time.Time, s State, env *Env) (float64, error) {
	fee, err := pofFP(t, s, env)
	return -fee, err
}

func coveredTerms(tm *Terms) *Terms {
	if ref, ok := tm.Reference(CoveredContract); ok {
		return ref.Terms
	}
	return nil
}

func cegMaturity(tm *Terms) time.Time {
	if !tm.MaturityDate.IsZero() {
		return tm.MaturityDate
	}
	if cov := coveredTerms(tm); cov != nil {
		return cov.MaturityDate
	}
	return time.Time{}
}

// exposure is the guaranteed amount of the covered contract state.
func exposure(tm *Terms, cov State) float64 {
	e := math.Abs(cov.NotionalPrincipal)
	if tm.GuaranteedExposure == ExposureNotionalInterest {
		e += math.Abs(cov.AccruedInterest)
	}
	return tm.CoverageOfCreditEnhancement * e
}

func stfXDCEG(t time.Time, s State, env *Env) (State, error) {
	s = accrue(t, s, env)
	s.ExerciseAmount = exposure(env.Terms, env.coveredStateAt(t))
	s.ExerciseDate = t
	return s, nil
}

func scheduleCEG(_ time.Time, tm *Terms) ([]Event, error) {
	md := cegMaturity(tm)
	b := newScheduleBuilder(tm)
	b.add(tm.PurchaseDate, PRD)
	if tm.CycleOfFee != "" || !tm.CycleAnchorDateOfFee.IsZero() {
		b.cycle(anchorOr(tm.CycleAnchorDateOfFee, tm.ContractDealDate, tm.CycleOfFee), md, tm.CycleOfFee, true, FP)
	}
	if !tm.ExerciseDate.IsZero() {
		std, err := settlementDate(tm, tm.ExerciseDate)
		if err != nil {
			return nil, configErr(tm.ContractID, "settlementPeriod", "%v", err)
		}
		b.add(tm.ExerciseDate, XD)
		b.add(std, STD)
		b.remove(func(ev Event) bool { return ev.Type == FP && ev.ScheduleTime.After(tm.ExerciseDate) })
	} else if tm.TerminationDate.IsZero() {
		b.add(md, MD)
	}
	b.termination(false, MD)
	return b.result()
}

func validateCEG(tm *Terms) []error {
	var errs []error
	cov := coveredTerms(tm)
	if cov == nil {
		errs = append(errs, configErr(tm.ContractID, "contractStructure", "covered contract is required for %s", tm.ContractType))
	}
	if cegMaturity(tm).IsZero() {
		errs = append(errs, configErr(tm.ContractID, "maturityDate", "is required for %s without a covered maturity", tm.ContractType))
	}
	errs = appendErr(errs, terminationAfterMaturity(tm, cegMaturity(tm)))
	if tm.CoverageOfCreditEnhancement <= 0 {
		errs = append(errs, configErr(tm.ContractID, "coverageOfCreditEnhancement", "must be positive"))
	}
	if tm.CycleOfFee != "" && tm.CycleAnchorDateOfFee.IsZero() && tm.ContractDealDate.IsZero() {
		errs = append(errs, configErr(tm.ContractID, "cycleAnchorDateOfFee", "or contractDealDate is required with a fee cycle"))
	}
	if tm.FeeBasis == FeeAbsolute && tm.FeeRate != 0 && tm.CycleOfFee == "" {
		errs = append(errs, configErr(tm.ContractID, "cycleOfFee", "is required for absolute fees"))
	}
	return errs
}

func initCEG(env *Env) (State, error) {
	tm := env.Terms
	s := State{
		StatusDate:   tm.StatusDate,
		MaturityDate: cegMaturity(tm),
		Performance:  tm.ContractPerformance,
	}
	if tm.FeeAccrued != nil {
		s.FeeAccrued = *tm.FeeAccrued
	}
	nt := tm.NotionalPrincipal
	if cov := coveredTerms(tm); nt == 0 && cov != nil {
		nt = tm.CoverageOfCreditEnhancement * math.Abs(cov.NotionalPrincipal)
	}
	s.NotionalPrincipal = roleSign(env) * nt
	return s, nil
}

// applyCEG evaluates the covered contract up to the exercise date so that
// the exercise can read the covered exposure.
func applyCEG(events []Event, env *Env) ([]Event, error) {
	tm := env.Terms
	if cov := coveredTerms(tm); cov != nil && !tm.ExerciseDate.IsZero() {
		covEnv := NewEnv(cov, env.RiskFactors)
		init, err := models[cov.ContractType].initState(covEnv)
		if err != nil {
			return nil, err
		}
		timeline, err := Evaluate(tm.ExerciseDate, cov, env.RiskFactors)
		if err != nil {
			return nil, err
		}
		env.covered = coveredTimeline{init: init, events: timeline, env: covEnv}
	}
	return fold(events, env)
}

// coveredTimeline is the evaluated covered contract of a guarantee.
type coveredTimeline struct {
	init   State
	events []Event
	env    *Env
}

// coveredStateAt returns the covered state after the last event at or before
// t, with interest accrued up to t.
func (e *Env) coveredStateAt(t time.Time) State {
	s := e.covered.init
	for _, ev := range e.covered.events {
		if ev.ScheduleTime.After(t) {
			break
		}
		s = ev.State
	}
	if e.covered.env != nil && s.StatusDate.Before(t) {
		s.AccruedInterest = accruedInterestAt(t, s, e.covered.env)
		s.StatusDate = t
	}
	return s
}

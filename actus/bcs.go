package actus

import "time"

// BCS: boundary controlled switch. A market observable is monitored against a
// boundary; the crossing knocks a leg in or the active leg out. The legs are
// complete contracts in the contract structure.

func bcsFunctions() map[EventType]FunctionPair {
	return map[EventType]FunctionPair{
		PRD: {Payoff: pofPRD, Transition: stfNoop},
		TD:  {Payoff: pofTD, Transition: stfTD},
		ME:  {Payoff: pofZero, Transition: stfME},
	}
}

// boundaryCode is the market object monitored against the boundary.
func boundaryCode(tm *Terms) string {
	if ref, ok := tm.Reference(ExternalReferenceIndex); ok && ref.MarketObjectCode != "" {
		return ref.MarketObjectCode
	}
	return tm.MarketObjectCode
}

func crossed(tm *Terms, v float64) bool {
	if tm.BoundaryDirection == Increasing {
		return v >= tm.BoundaryValue
	}
	return v <= tm.BoundaryValue
}

// stfME checks the boundary once per monitoring date until the first crossing.
func stfME(t time.Time, s State, env *Env) (State, error) {
	s.StatusDate = t
	if !s.BoundaryMonitoringFlag || s.BoundaryCrossedFlag {
		return s, nil
	}
	tm := env.Terms
	v, err := env.Observe(boundaryCode(tm), t, s, true)
	if err != nil {
		return s, err
	}
	if !crossed(tm, v) {
		return s, nil
	}
	s.BoundaryCrossedFlag = true
	s.BoundaryMonitoringFlag = false
	switch tm.BoundaryEffect {
	case KnockInFirstLeg:
		s.BoundaryLeg1ActiveFlag, s.BoundaryLeg2ActiveFlag = true, false
	case KnockInSecondLeg:
		s.BoundaryLeg1ActiveFlag, s.BoundaryLeg2ActiveFlag = false, true
	case KnockOutCurrent:
		s.BoundaryLeg1ActiveFlag, s.BoundaryLeg2ActiveFlag = false, false
	}
	return s, nil
}

func monitoringEnd(to time.Time, tm *Terms) time.Time {
	switch {
	case !tm.BoundaryMonitoringEndDate.IsZero():
		return tm.BoundaryMonitoringEndDate
	case !tm.MaturityDate.IsZero():
		return tm.MaturityDate
	}
	return to
}

func scheduleBCS(to time.Time, tm *Terms) ([]Event, error) {
	b := newScheduleBuilder(tm)
	b.add(tm.PurchaseDate, PRD)
	b.cycle(tm.BoundaryMonitoringAnchorDate, monitoringEnd(to, tm), tm.BoundaryMonitoringCycle, true, ME)
	b.termination(false)
	return b.result()
}

func validateBCS(tm *Terms) []error {
	var errs []error
	errs = appendErr(errs, requireDate(tm, "boundaryMonitoringAnchorDate", tm.BoundaryMonitoringAnchorDate))
	errs = appendErr(errs, requireString(tm, "boundaryDirection", string(tm.BoundaryDirection)))
	errs = appendErr(errs, requireString(tm, "boundaryEffect", string(tm.BoundaryEffect)))
	if boundaryCode(tm) == "" {
		errs = append(errs, configErr(tm.ContractID, "contractStructure", "a monitored market object is required for %s", tm.ContractType))
	}
	ref, ok := tm.Reference(FirstLeg)
	if !ok || ref.Terms == nil {
		errs = append(errs, configErr(tm.ContractID, "contractStructure", "first leg contract is required for %s", tm.ContractType))
	}
	if tm.BoundaryEffect == KnockInSecondLeg {
		if ref, ok := tm.Reference(SecondLeg); !ok || ref.Terms == nil {
			errs = append(errs, configErr(tm.ContractID, "contractStructure", "second leg contract is required for %s", tm.BoundaryEffect))
		}
	}
	return errs
}

func initBCS(env *Env) (State, error) {
	tm := env.Terms
	s := State{StatusDate: tm.StatusDate, Performance: tm.ContractPerformance, MaturityDate: tm.BoundaryMonitoringEndDate}
	s.BoundaryMonitoringFlag = tm.BoundaryMonitoringEndDate.IsZero() || tm.StatusDate.Before(tm.BoundaryMonitoringEndDate)
	s.BoundaryLeg1ActiveFlag = tm.BoundaryLegInitiallyActive == FirstLeg
	s.BoundaryLeg2ActiveFlag = tm.BoundaryLegInitiallyActive == SecondLeg
	return s, nil
}

// applyBCS folds the switch's own events, then evaluates each leg over the
// window in which it is active.
func applyBCS(events []Event, env *Env) ([]Event, error) {
	out, err := fold(events, env)
	if err != nil {
		return nil, err
	}
	tm := env.Terms
	var crossing Event
	var hit bool
	horizon := tm.StatusDate
	for _, ev := range out {
		if ev.Time.After(horizon) {
			horizon = ev.Time
		}
		if !hit && ev.Type == ME && ev.State.BoundaryCrossedFlag {
			crossing, hit = ev, true
		}
	}
	if hit && tm.BoundaryEffect == KnockOutCurrent {
		td := NewEvent(crossing.ScheduleTime, TD, tm.Currency, tm.ContractID, FunctionPair{}, env.Adjuster)
		td.State = crossing.State
		out = append(out, td)
	}

	for _, role := range []ReferenceRole{FirstLeg, SecondLeg} {
		ref, ok := tm.Reference(role)
		if !ok || ref.Terms == nil {
			continue
		}
		leg := ref.Terms
		var from, until time.Time
		knockIn := (tm.BoundaryEffect == KnockInFirstLeg && role == FirstLeg) ||
			(tm.BoundaryEffect == KnockInSecondLeg && role == SecondLeg)
		switch {
		case knockIn:
			if !hit {
				continue
			}
			from = crossing.Time
			started := *leg
			started.StatusDate = crossing.ScheduleTime
			leg = &started
		case tm.BoundaryLegInitiallyActive == role:
			if hit {
				until = crossing.Time
			}
		default:
			continue
		}
		legHorizon := horizon
		if leg.MaturityDate.After(legHorizon) {
			legHorizon = leg.MaturityDate
		}
		legEvents, err := Evaluate(legHorizon, leg, env.RiskFactors)
		if err != nil {
			return nil, err
		}
		for _, ev := range legEvents {
			if !from.IsZero() && ev.Time.Before(from) {
				continue
			}
			if !until.IsZero() && !ev.Time.Before(until) {
				continue
			}
			out = append(out, ev)
		}
	}
	SortEvents(out)
	return out, nil
}

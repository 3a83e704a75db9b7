package actus

import (
	"fmt"
	"slices"
	"time"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/utils"
)

// contractModel is the behavior of one contract type.
type contractModel struct {
	functions map[EventType]FunctionPair
	schedule  func(to time.Time, tm *Terms) ([]Event, error)
	initState func(env *Env) (State, error)
	validate  func(tm *Terms) []error

	// apply replaces the default fold for types composed of other contracts.
	apply func(events []Event, env *Env) ([]Event, error)
}

var models map[ContractType]contractModel

func init() {
	models = map[ContractType]contractModel{
		PAM:   {functions: pamFunctions(), schedule: schedulePAM, initState: initPAM, validate: validatePAM},
		LAM:   {functions: lamFunctions(), schedule: scheduleAmortizer, initState: initAmortizer, validate: validateAmortizer},
		NAM:   {functions: namFunctions(), schedule: scheduleAmortizer, initState: initAmortizer, validate: validateAmortizer},
		ANN:   {functions: annFunctions(), schedule: scheduleAmortizer, initState: initAmortizer, validate: validateAmortizer},
		CLM:   {functions: clmFunctions(), schedule: scheduleCLM, initState: initOpenMaturity, validate: validateOpenMaturity},
		UMP:   {functions: umpFunctions(), schedule: scheduleUMP, initState: initOpenMaturity, validate: validateOpenMaturity},
		LAX:   {functions: laxFunctions(), schedule: scheduleLAX, initState: initLAX, validate: validateLAX},
		SWPPV: {functions: swppvFunctions(), schedule: scheduleSWPPV, initState: initSWPPV, validate: validateSWPPV},
		STK:   {functions: stkFunctions(), schedule: scheduleSTK, initState: initSTK, validate: validateSTK},
		OPTNS: {functions: optnsFunctions(), schedule: scheduleOPTNS, initState: initOPTNS, validate: validateOPTNS},
		FXOUT: {functions: fxoutFunctions(), schedule: scheduleFXOUT, initState: initFXOUT, validate: validateFXOUT},
		BCS:   {functions: bcsFunctions(), schedule: scheduleBCS, initState: initBCS, validate: validateBCS, apply: applyBCS},
		CEG:   {functions: cegFunctions(), schedule: scheduleCEG, initState: initCEG, validate: validateCEG, apply: applyCEG},
	}
}

// ContractTypes lists the supported contract types.
func ContractTypes() []ContractType {
	types := make([]ContractType, 0, len(models))
	for ct := range models {
		types = append(types, ct)
	}
	slices.Sort(types)
	return types
}

// Functions returns the payoff and transition of event type et for contract type ct.
func Functions(ct ContractType, et EventType) (FunctionPair, bool) {
	m, ok := models[ct]
	if !ok {
		return FunctionPair{}, false
	}
	fn, ok := m.functions[et]
	return fn, ok
}

// Schedule generates the non-contingent events of a contract between its
// status date and to, both inclusive, in evaluation order. A zero to leaves
// the end open for types with a fixed maturity.
func Schedule(to time.Time, terms *Terms) ([]Event, error) {
	if terms == nil {
		return nil, fmt.Errorf("Schedule: %w: nil terms", ErrConfiguration)
	}
	if err := terms.Validate(); err != nil {
		return nil, fmt.Errorf("Schedule: %w", err)
	}
	events, err := models[terms.ContractType].schedule(to, terms)
	if err != nil {
		return nil, fmt.Errorf("Schedule: %w", err)
	}
	kept := events[:0]
	for _, ev := range events {
		if ev.Time.Before(terms.StatusDate) || (!to.IsZero() && ev.Time.After(to)) {
			continue
		}
		kept = append(kept, ev)
	}
	SortEvents(kept)
	return kept, nil
}

// Apply merges the callouts registered by rf, sorts, and folds the events
// through the contract state. Each returned event carries its payoff and the
// state after it. Events before the purchase date are folded but not
// returned. The input slice is not modified.
func Apply(events []Event, terms *Terms, rf RiskFactorProvider) ([]Event, error) {
	if terms == nil {
		return nil, fmt.Errorf("Apply: %w: nil terms", ErrConfiguration)
	}
	m, ok := models[terms.ContractType]
	if !ok {
		return nil, fmt.Errorf("Apply: %w: %q", ErrUnsupportedContract, terms.ContractType)
	}
	merged := slices.Clone(events)
	if src, ok := rf.(CalloutSource); ok {
		callouts, err := src.ContractStart(terms)
		if err != nil {
			return nil, fmt.Errorf("Apply: contract start of %s: %w", terms.ContractID, err)
		}
		merged = MergeCallouts(merged, callouts, terms)
	}
	SortEvents(merged)

	env := NewEnv(terms, rf)
	apply := fold
	if m.apply != nil {
		apply = m.apply
	}
	out, err := apply(merged, env)
	if err != nil {
		return nil, fmt.Errorf("Apply: %w", err)
	}
	return afterPurchase(out, terms.PurchaseDate), nil
}

// afterPurchase drops the events the holder did not take part in. They are
// evaluated first so the state at the purchase date carries their effect.
func afterPurchase(events []Event, prd time.Time) []Event {
	if prd.IsZero() {
		return events
	}
	kept := events[:0]
	for _, ev := range events {
		if !ev.ScheduleTime.Before(prd) {
			kept = append(kept, ev)
		}
	}
	return kept
}

// Evaluate schedules and applies a contract up to to.
func Evaluate(to time.Time, terms *Terms, rf RiskFactorProvider) ([]Event, error) {
	events, err := Schedule(to, terms)
	if err != nil {
		return nil, err
	}
	out, err := Apply(events, terms, rf)
	if err != nil {
		return nil, err
	}
	if to.IsZero() {
		return out, nil
	}
	kept := out[:0]
	for _, ev := range out {
		if !ev.Time.After(to) {
			kept = append(kept, ev)
		}
	}
	return kept, nil
}

// MergeCallouts appends one event per callout that falls within the life of
// the contract. Callouts before initial exchange or the status date, or after
// termination or maturity, are dropped.
func MergeCallouts(events []Event, callouts []Callout, terms *Terms) []Event {
	out := make([]Event, len(events), len(events)+len(callouts))
	copy(out, events)
	adj := terms.Adjuster()
	for _, c := range callouts {
		if !withinLife(c.Time, terms) {
			continue
		}
		out = append(out, NewEvent(c.Time, EventType(c.Kind), terms.Currency, terms.ContractID, calloutFunctions(c), adj))
	}
	return out
}

func withinLife(t time.Time, tm *Terms) bool {
	switch {
	case t.IsZero(), t.Before(tm.StatusDate):
		return false
	case !tm.InitialExchangeDate.IsZero() && t.Before(tm.InitialExchangeDate):
		return false
	case !tm.TerminationDate.IsZero() && t.After(tm.TerminationDate):
		return false
	case !tm.MaturityDate.IsZero() && t.After(tm.MaturityDate):
		return false
	}
	return true
}

// fold evaluates payoff then transition of each event in order, starting
// from the state as of the status date.
func fold(events []Event, env *Env) ([]Event, error) {
	tm := env.Terms
	m := models[tm.ContractType]
	s, err := m.initState(env)
	if err != nil {
		return nil, err
	}
	out := make([]Event, len(events))
	for i, ev := range events {
		fn := ev.fn
		if fn.Payoff == nil && fn.Transition == nil {
			fn = m.functions[ev.Type]
		}
		env.beginEvent()
		if fn.Payoff != nil {
			p, err := fn.Payoff(ev.ScheduleTime, s, env)
			if err != nil {
				env.endEvent()
				return nil, eventError(tm, ev, err)
			}
			ev.Payoff = p
		}
		next := s
		next.StatusDate = ev.ScheduleTime
		if fn.Transition != nil {
			next, err = fn.Transition(ev.ScheduleTime, s, env)
			if err != nil {
				env.endEvent()
				return nil, eventError(tm, ev, err)
			}
		}
		env.endEvent()
		s = next
		ev.State = s
		out[i] = ev
	}
	return out, nil
}

func eventError(tm *Terms, ev Event, err error) error {
	return &EventError{ContractID: tm.ContractID, Event: ev.Type, Time: utils.FormatDate(ev.Time), Err: err}
}

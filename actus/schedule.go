package actus

import (
	"fmt"
	"time"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/calendar"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/utils"
)

// scheduleBuilder accumulates candidate events of one contract and keeps the
// first generation error.
type scheduleBuilder struct {
	terms  *Terms
	table  map[EventType]FunctionPair
	adj    calendar.Adjuster
	events []Event
	err    error
}

func newScheduleBuilder(tm *Terms) *scheduleBuilder {
	return &scheduleBuilder{
		terms: tm,
		table: models[tm.ContractType].functions,
		adj:   tm.Adjuster(),
	}
}

func (b *scheduleBuilder) add(t time.Time, typ EventType) {
	b.addWith(t, typ, b.terms.Currency, b.table[typ])
}

func (b *scheduleBuilder) addWith(t time.Time, typ EventType, currency string, fn FunctionPair) {
	if t.IsZero() {
		return
	}
	b.events = append(b.events, NewEvent(t, typ, currency, b.terms.ContractID, fn, b.adj))
}

// cycle adds one event per date of anchor + k*cycle up to end. An anchor
// past end yields only end when addEnd is set.
func (b *scheduleBuilder) cycle(anchor, end time.Time, cycle string, addEnd bool, typ EventType) []time.Time {
	return b.cycleWith(anchor, end, cycle, addEnd, typ, b.table[typ])
}

func (b *scheduleBuilder) cycleWith(anchor, end time.Time, cycle string, addEnd bool, typ EventType, fn FunctionPair) []time.Time {
	if b.err != nil || anchor.IsZero() {
		return nil
	}
	if !end.IsZero() && anchor.After(end) {
		if !addEnd {
			return nil
		}
		b.addWith(end, typ, b.terms.Currency, fn)
		return []time.Time{end}
	}
	dates, err := utils.GenerateSchedule(anchor, end, cycle, b.terms.EndOfMonthConvention, addEnd)
	if err != nil {
		b.err = configErr(b.terms.ContractID, string(typ)+" schedule", "%v", err)
		return nil
	}
	for _, d := range dates {
		b.addWith(d, typ, b.terms.Currency, fn)
	}
	return dates
}

func (b *scheduleBuilder) has(t time.Time, typ EventType) bool {
	for _, ev := range b.events {
		if ev.Type == typ && ev.ScheduleTime.Equal(t) {
			return true
		}
	}
	return false
}

// remove drops the events for which drop returns true.
func (b *scheduleBuilder) remove(drop func(Event) bool) {
	kept := b.events[:0]
	for _, ev := range b.events {
		if !drop(ev) {
			kept = append(kept, ev)
		}
	}
	b.events = kept
}

// anchorOr returns anchor, or start shifted by one cycle when anchor is unset.
func anchorOr(anchor, start time.Time, cycle string) time.Time {
	if !anchor.IsZero() || start.IsZero() || cycle == "" {
		return anchor
	}
	c, err := utils.ParseCycle(cycle)
	if err != nil {
		return anchor
	}
	return c.Shift(start, 1)
}

// interestSchedule adds IP events, converting those up to the capitalization end date to IPCI.
// Without a cycle or anchor a single IP falls on the maturity date.
func (b *scheduleBuilder) interestSchedule(maturity time.Time) {
	tm := b.terms
	anchor := anchorOr(tm.CycleAnchorDateOfInterestPayment, tm.InitialExchangeDate, tm.CycleOfInterestPayment)
	if anchor.IsZero() {
		b.add(maturity, IP)
	} else {
		b.cycle(anchor, maturity, tm.CycleOfInterestPayment, true, IP)
	}
	if tm.CapitalizationEndDate.IsZero() {
		return
	}
	ced := tm.CapitalizationEndDate
	for i, ev := range b.events {
		if ev.Type == IP && !ev.ScheduleTime.After(ced) {
			b.events[i] = NewEvent(ev.ScheduleTime, IPCI, ev.Currency, ev.ContractID, b.table[IPCI], b.adj)
		}
	}
	if !b.has(ced, IPCI) {
		b.add(ced, IPCI)
	}
}

// rateResetSchedule adds RR events and turns the first one after the status date
// into RRF when the next reset rate is already known.
func (b *scheduleBuilder) rateResetSchedule(maturity time.Time) {
	tm := b.terms
	anchor := anchorOr(tm.CycleAnchorDateOfRateReset, tm.InitialExchangeDate, tm.CycleOfRateReset)
	if anchor.IsZero() {
		return
	}
	b.cycle(anchor, maturity, tm.CycleOfRateReset, false, RR)
	if tm.NextResetRate == nil {
		return
	}
	first := -1
	for i, ev := range b.events {
		if ev.Type != RR || ev.Time.Before(tm.StatusDate) {
			continue
		}
		if first < 0 || ev.Time.Before(b.events[first].Time) {
			first = i
		}
	}
	if first >= 0 {
		ev := b.events[first]
		b.events[first] = NewEvent(ev.ScheduleTime, RRF, ev.Currency, ev.ContractID, b.table[RRF], b.adj)
	}
}

func (b *scheduleBuilder) feeSchedule(maturity time.Time) {
	tm := b.terms
	if tm.CycleOfFee == "" && tm.CycleAnchorDateOfFee.IsZero() {
		return
	}
	anchor := anchorOr(tm.CycleAnchorDateOfFee, tm.InitialExchangeDate, tm.CycleOfFee)
	b.cycle(anchor, maturity, tm.CycleOfFee, true, FP)
}

func (b *scheduleBuilder) scalingSchedule(maturity time.Time) {
	tm := b.terms
	if tm.ScalingEffect == "" || tm.ScalingEffect == "OOO" {
		return
	}
	anchor := anchorOr(tm.CycleAnchorDateOfScalingIndex, tm.InitialExchangeDate, tm.CycleOfScalingIndex)
	b.cycle(anchor, maturity, tm.CycleOfScalingIndex, false, SC)
}

func (b *scheduleBuilder) prepaymentSchedule(maturity time.Time) {
	tm := b.terms
	if tm.ObjectCodeOfPrepaymentModel == "" {
		return
	}
	anchor := anchorOr(tm.CycleAnchorDateOfOptionality, tm.InitialExchangeDate, tm.CycleOfOptionality)
	b.cycle(anchor, maturity, tm.CycleOfOptionality, false, PP)
}

// purchase adds PRD and, for interest bearing contracts, the accrued interest
// the buyer pays. Earlier events stay in the schedule so the state they build
// is in place at PRD; Apply drops them from the result.
func (b *scheduleBuilder) purchase(accrued bool) {
	prd := b.terms.PurchaseDate
	if prd.IsZero() {
		return
	}
	b.add(prd, PRD)
	if accrued && !b.has(prd, IP) {
		b.addWith(prd, IP, b.terms.Currency, FunctionPair{Payoff: pofIPAtPurchase, Transition: stfIP})
	}
}

// termination adds TD, drops everything after it together with the
// maturity-driven events and, for interest bearing contracts, pays accrued
// interest at TD.
func (b *scheduleBuilder) termination(accrued bool, maturityDriven ...EventType) {
	td := b.terms.TerminationDate
	if td.IsZero() {
		return
	}
	b.remove(func(ev Event) bool {
		if ev.ScheduleTime.After(td) {
			return true
		}
		for _, typ := range maturityDriven {
			if ev.Type == typ {
				return true
			}
		}
		return false
	})
	if accrued && !b.has(td, IP) {
		b.add(td, IP)
	}
	b.add(td, TD)
}

func (b *scheduleBuilder) result() ([]Event, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.events, nil
}

// terminationAfterMaturity is shared by types with a fixed maturity date.
func terminationAfterMaturity(tm *Terms, maturity time.Time) error {
	if tm.TerminationDate.IsZero() || maturity.IsZero() || !tm.TerminationDate.After(maturity) {
		return nil
	}
	return configErr(tm.ContractID, "terminationDate", "%s is after maturity %s",
		utils.FormatDate(tm.TerminationDate), utils.FormatDate(maturity))
}

func requireDate(tm *Terms, attr string, t time.Time) error {
	if t.IsZero() {
		return configErr(tm.ContractID, attr, "is required for %s", tm.ContractType)
	}
	return nil
}

func requireString(tm *Terms, attr, v string) error {
	if v == "" {
		return configErr(tm.ContractID, attr, "is required for %s", tm.ContractType)
	}
	return nil
}

// commonChecks validates the optional features every interest bearing type supports.
func commonChecks(tm *Terms) []error {
	var errs []error
	if tm.CycleOfRateReset != "" || !tm.CycleAnchorDateOfRateReset.IsZero() {
		if err := requireString(tm, "marketObjectCodeOfRateReset", tm.MarketObjectCodeOfRateReset); err != nil {
			errs = append(errs, err)
		}
	}
	if tm.ScalingEffect != "" && tm.ScalingEffect != "OOO" {
		if err := requireString(tm, "marketObjectCodeOfScalingIndex", tm.MarketObjectCodeOfScalingIndex); err != nil {
			errs = append(errs, err)
		}
		if tm.ScalingIndexAtStatusDate == 0 {
			errs = append(errs, configErr(tm.ContractID, "scalingIndexAtStatusDate", "must not be zero"))
		}
	}
	if tm.FeeBasis == FeeAbsolute && tm.FeeRate != 0 && tm.CycleOfFee == "" {
		errs = append(errs, configErr(tm.ContractID, "cycleOfFee", "is required for absolute fees"))
	}
	if tm.LifeFloor > tm.LifeCap {
		errs = append(errs, configErr(tm.ContractID, "lifeFloor", "%g exceeds lifeCap %g", tm.LifeFloor, tm.LifeCap))
	}
	if tm.PeriodFloor > tm.PeriodCap {
		errs = append(errs, configErr(tm.ContractID, "periodFloor", "%g exceeds periodCap %g", tm.PeriodFloor, tm.PeriodCap))
	}
	return errs
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}

func settlementDate(tm *Terms, t time.Time) (time.Time, error) {
	if tm.SettlementPeriod == "" {
		return t, nil
	}
	c, err := utils.ParseCycle(tm.SettlementPeriod)
	if err != nil {
		return time.Time{}, fmt.Errorf("settlementPeriod: %w", err)
	}
	return c.Shift(t, 1), nil
}

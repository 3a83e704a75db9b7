package actus

import (
	"sort"
	"time"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/calendar"
)

// EventType is the ACTUS event code.
type EventType string

const (
	AD   EventType = "AD"   // monitoring
	IED  EventType = "IED"  // initial exchange
	FP   EventType = "FP"   // fee payment
	PR   EventType = "PR"   // principal redemption
	PI   EventType = "PI"   // principal increase
	PRF  EventType = "PRF"  // principal payment amount fixing
	PP   EventType = "PP"   // principal prepayment
	MRD  EventType = "MRD"  // margin or collateral driven repayment (callout)
	AFD  EventType = "AFD"  // absolute funded delta, deposit or withdrawal (callout)
	IP   EventType = "IP"   // interest payment
	IPFX EventType = "IPFX" // fixed leg interest payment
	IPFL EventType = "IPFL" // floating leg interest payment
	IPCI EventType = "IPCI" // interest capitalization
	RRF  EventType = "RRF"  // rate reset fixing with known rate
	RR   EventType = "RR"   // rate reset
	DV   EventType = "DV"   // dividend payment
	PRD  EventType = "PRD"  // purchase
	SC   EventType = "SC"   // scaling index fixing
	IPCB EventType = "IPCB" // interest calculation base fixing
	XD   EventType = "XD"   // exercise
	STD  EventType = "STD"  // settlement
	TD   EventType = "TD"   // termination
	MD   EventType = "MD"   // maturity
	ME   EventType = "ME"   // boundary monitoring
)

// eventPriority breaks ties between events at the same time.
// Principal flows settle before interest, interest before fees,
// and informational or monitoring events run last.
var eventPriority = map[EventType]int{
	IED:  10,
	PRF:  15,
	PR:   20,
	PI:   21,
	PP:   22,
	MRD:  23,
	AFD:  24,
	IP:   30,
	IPFX: 30,
	IPFL: 31,
	IPCI: 32,
	FP:   40,
	DV:   45,
	PRD:  50,
	RRF:  55,
	RR:   56,
	SC:   60,
	IPCB: 65,
	XD:   70,
	STD:  75,
	TD:   80,
	MD:   85,
	ME:   90,
	AD:   95,
}

// Priority returns the tie-break rank. Unknown types sort after all known ones.
func (t EventType) Priority() int {
	if p, ok := eventPriority[t]; ok {
		return p
	}
	return 999
}

// PayoffFunc computes the amount of an event from the pre-event state. It must not mutate state.
type PayoffFunc func(t time.Time, s State, env *Env) (float64, error)

// TransitionFunc returns the post-event state.
type TransitionFunc func(t time.Time, s State, env *Env) (State, error)

// FunctionPair is the payoff and state transition of one event.
type FunctionPair struct {
	Payoff     PayoffFunc
	Transition TransitionFunc
}

// Event is one time-stamped occurrence in a contract's life.
//
// Time is the settlement time after business day shifting; ScheduleTime is the
// unadjusted cycle date handed to the payoff and transition functions.
// Payoff and State are filled by Apply.
type Event struct {
	Time         time.Time
	ScheduleTime time.Time
	Type         EventType
	Currency     string
	ContractID   string
	Payoff       float64
	State        State

	fn FunctionPair
}

// NewEvent builds an unevaluated event at the shifted schedule time.
func NewEvent(scheduleTime time.Time, typ EventType, currency, contractID string, fn FunctionPair, adj calendar.Adjuster) Event {
	return Event{
		Time:         adj.ShiftEventTime(scheduleTime),
		ScheduleTime: scheduleTime,
		Type:         typ,
		Currency:     currency,
		ContractID:   contractID,
		fn:           fn,
	}
}

// Before reports whether e sorts strictly before o.
func (e Event) Before(o Event) bool {
	if !e.Time.Equal(o.Time) {
		return e.Time.Before(o.Time)
	}
	return e.Type.Priority() < o.Type.Priority()
}

// SortEvents orders events by time, then by type priority.
// Equal keys keep their relative order.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Before(events[j])
	})
}

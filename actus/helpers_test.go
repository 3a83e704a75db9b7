package actus_test

import (
	"fmt"
	"maps"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/actus"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// pamAttrs is a six month bullet loan with a single interest payment at maturity.
func pamAttrs() map[string]any {
	return map[string]any{
		"contractID":                       "pam-1",
		"contractType":                     "PAM",
		"contractRole":                     "RPA",
		"currency":                         "USD",
		"statusDate":                       "2024-01-01",
		"initialExchangeDate":              "2024-01-01",
		"maturityDate":                     "2024-07-01",
		"notionalPrincipal":                1000.0,
		"nominalInterestRate":              0.05,
		"dayCountConvention":               "AA",
		"cycleAnchorDateOfInterestPayment": "2024-07-01",
	}
}

func with(base map[string]any, kv ...any) map[string]any {
	out := maps.Clone(base)
	for i := 0; i+1 < len(kv); i += 2 {
		k := kv[i].(string)
		if kv[i+1] == nil {
			delete(out, k)
			continue
		}
		out[k] = kv[i+1]
	}
	return out
}

func mustTerms(t *testing.T, attrs map[string]any) *actus.Terms {
	t.Helper()
	terms, err := actus.ParseTerms(attrs)
	require.NoError(t, err)
	return terms
}

func types(events []actus.Event) []actus.EventType {
	out := make([]actus.EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func only(events []actus.Event, typ actus.EventType) []actus.Event {
	var out []actus.Event
	for _, ev := range events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// stubProvider answers from fixed values or per-time functions.
type stubProvider struct {
	values map[string]float64
	series map[string]func(time.Time) float64
	calls  map[string]int
}

func newStub() *stubProvider {
	return &stubProvider{
		values: map[string]float64{},
		series: map[string]func(time.Time) float64{},
		calls:  map[string]int{},
	}
}

func (p *stubProvider) StateAt(id string, t time.Time, _ actus.State, _ *actus.Terms, _ bool) (float64, error) {
	p.calls[id]++
	if fn, ok := p.series[id]; ok {
		return fn(t), nil
	}
	if v, ok := p.values[id]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("unknown risk factor %q", id)
}

// calloutStub also registers callouts at contract start.
type calloutStub struct {
	*stubProvider
	callouts []actus.Callout
}

func (c calloutStub) ContractStart(*actus.Terms) ([]actus.Callout, error) {
	return c.callouts, nil
}

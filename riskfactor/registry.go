// Package riskfactor answers the observations an ACTUS evaluation asks for:
// market data keyed by market object code and behavior model decisions
// keyed by model id.
package riskfactor

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/actus"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/logger"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/utils"
)

// MarketModel returns the value of one market object at a point in time.
type MarketModel interface {
	StateAt(t time.Time) (float64, error)
}

// MarketReader resolves market object codes. Behavior models read their
// inputs through it.
type MarketReader interface {
	MarketAt(id string, t time.Time) (float64, error)
}

// BehaviorModel decides contract-dependent quantities such as a prepayment
// fraction, a deposit amount or a collateral call.
type BehaviorModel interface {
	StateAt(t time.Time, s actus.State, terms *actus.Terms, markets MarketReader) (float64, error)
	// ContractStart returns the times the model wants to be called for the contract.
	ContractStart(id string, terms *actus.Terms) []actus.Callout
}

// Cloner is implemented by behavior models that keep memory between calls.
type Cloner interface {
	Clone() BehaviorModel
}

// DegeneratePolicy decides what a degenerate observation turns into.
type DegeneratePolicy int

const (
	// PolicyZero answers a degenerate observation with 0.
	PolicyZero DegeneratePolicy = iota
	// PolicyError fails the observation with ErrDegenerateInput.
	PolicyError
)

// ParsePolicy maps "zero" and "error" to a DegeneratePolicy.
func ParsePolicy(s string) (DegeneratePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zero":
		return PolicyZero, nil
	case "error":
		return PolicyError, nil
	default:
		return PolicyZero, fmt.Errorf("ParsePolicy: unknown degenerate policy %q", s)
	}
}

func (p DegeneratePolicy) String() string {
	if p == PolicyError {
		return "error"
	}
	return "zero"
}

// Registry implements actus.RiskFactorProvider and actus.CalloutSource over a
// set of market and behavior models.
type Registry struct {
	markets   map[string]MarketModel
	behaviors map[string]BehaviorModel
	policy    DegeneratePolicy
	logger    *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithPolicy sets the degenerate input policy.
func WithPolicy(p DegeneratePolicy) Option {
	return func(r *Registry) { r.policy = p }
}

// WithLogger sets the logger used to report degenerate observations.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		markets:   make(map[string]MarketModel),
		behaviors: make(map[string]BehaviorModel),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logger.OrDiscard(r.logger)
	return r
}

// AddMarket registers a market model, replacing any model with the same id.
func (r *Registry) AddMarket(id string, m MarketModel) {
	r.markets[id] = m
}

// AddBehavior registers a behavior model, replacing any model with the same id.
func (r *Registry) AddBehavior(id string, m BehaviorModel) {
	r.behaviors[id] = m
}

// Policy returns the degenerate input policy.
func (r *Registry) Policy() DegeneratePolicy {
	return r.policy
}

// Keys returns every registered id in ascending order.
func (r *Registry) Keys() []string {
	keys := slices.Collect(maps.Keys(r.markets))
	for id := range r.behaviors {
		if _, ok := r.markets[id]; !ok {
			keys = append(keys, id)
		}
	}
	slices.Sort(keys)
	return keys
}

// MarketAt returns the value of market object id at t.
func (r *Registry) MarketAt(id string, t time.Time) (float64, error) {
	m, ok := r.markets[id]
	if !ok {
		return 0, &NotFoundError{ID: id, Kind: "market object", Available: sortedKeys(r.markets)}
	}
	v, err := m.StateAt(t)
	if err != nil {
		return 0, fmt.Errorf("MarketAt: %s at %s: %w", id, utils.FormatDate(t), err)
	}
	return v, nil
}

// StateAt dispatches to the market model (isMarket) or the behavior model id.
func (r *Registry) StateAt(id string, t time.Time, s actus.State, terms *actus.Terms, isMarket bool) (float64, error) {
	if isMarket {
		return r.MarketAt(id, t)
	}
	b, ok := r.behaviors[id]
	if !ok {
		return 0, &NotFoundError{ID: id, Kind: "behavior model", Available: sortedKeys(r.behaviors)}
	}
	v, err := b.StateAt(t, s, terms, r)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, ErrDegenerateInput) && r.policy == PolicyZero {
		r.logger.Debug("degenerate observation answered with zero",
			"risk_factor", id, "contract_id", contractID(terms), "time", utils.FormatDate(t), "err", err)
		return 0, nil
	}
	return 0, fmt.Errorf("StateAt: %s at %s: %w", id, utils.FormatDate(t), err)
}

// ContractStart collects the callouts of the behavior models the contract
// activates. A contract activating none gets no callouts. The result is
// ordered by time.
func (r *Registry) ContractStart(terms *actus.Terms) ([]actus.Callout, error) {
	var out []actus.Callout
	for _, id := range terms.BehaviorModels() {
		b, ok := r.behaviors[id]
		if !ok {
			return nil, &NotFoundError{ID: id, Kind: "behavior model", Available: sortedKeys(r.behaviors)}
		}
		out = append(out, b.ContractStart(id, terms)...)
	}
	slices.SortStableFunc(out, func(a, b actus.Callout) int { return a.Time.Compare(b.Time) })
	return out, nil
}

// Clone returns a registry sharing market models and holding its own copy of
// every behavior model that keeps memory.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		markets:   maps.Clone(r.markets),
		behaviors: make(map[string]BehaviorModel, len(r.behaviors)),
		policy:    r.policy,
		logger:    r.logger,
	}
	for id, b := range r.behaviors {
		if cl, ok := b.(Cloner); ok {
			b = cl.Clone()
		}
		c.behaviors[id] = b
	}
	return c
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func contractID(terms *actus.Terms) string {
	if terms == nil {
		return ""
	}
	return terms.ContractID
}

// Package batch evaluates many contracts concurrently. Contracts are
// independent: each job gets its own risk factor provider and a failing
// contract never affects its siblings.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/actus"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/logger"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/riskfactor"
)

// Job is one contract to evaluate up to To. A zero To evaluates the whole life.
type Job struct {
	Terms *actus.Terms
	To    time.Time
}

// Result is the outcome of one job, in the order of the input jobs.
type Result struct {
	RunID      string
	ContractID string
	Events     []actus.Event
	Err        error
	Duration   time.Duration
}

// ProviderFactory returns a provider owned by a single job.
type ProviderFactory func() (actus.RiskFactorProvider, error)

// FromRegistry adapts a registry constructor such as scenario.Document.Factory.
func FromRegistry(f func() (*riskfactor.Registry, error)) ProviderFactory {
	return func() (actus.RiskFactorProvider, error) {
		r, err := f()
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// Options configures Run.
type Options struct {
	// Workers bounds concurrent evaluations. Values below 1 mean 1.
	Workers int
	// Providers builds the provider of each job. Nil evaluates without one.
	Providers ProviderFactory
	// RunID tags every result. Empty generates a random one.
	RunID   string
	Logger  *slog.Logger
	Metrics *Metrics
}

// Run evaluates jobs with at most opts.Workers in flight. Once ctx is done no
// new job starts and the remaining ones report ctx.Err().
func Run(ctx context.Context, jobs []Job, opts Options) []Result {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := logger.OrDiscard(opts.Logger).With("run_id", runID)
	workers := max(opts.Workers, 1)

	results := make([]Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(workers)

	log.Info("batch started", "contracts", len(jobs), "workers", workers)
	for i, job := range jobs {
		results[i] = Result{RunID: runID, ContractID: contractID(job.Terms)}
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			start := time.Now()
			events, err := evaluate(job, opts.Providers)
			results[i].Events = events
			results[i].Err = err
			results[i].Duration = time.Since(start)
			opts.Metrics.observe(results[i])
			if err != nil {
				log.Warn("contract failed", "contract_id", results[i].ContractID, "err", err)
			} else {
				log.Debug("contract evaluated", "contract_id", results[i].ContractID, "events", len(events))
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	log.Info("batch finished", "contracts", len(jobs), "failed", failed)
	return results
}

func evaluate(job Job, providers ProviderFactory) ([]actus.Event, error) {
	if job.Terms == nil {
		return nil, fmt.Errorf("batch: job without terms")
	}
	var rf actus.RiskFactorProvider
	if providers != nil {
		p, err := providers()
		if err != nil {
			return nil, fmt.Errorf("batch: provider for %s: %w", job.Terms.ContractID, err)
		}
		rf = p
	}
	return actus.Evaluate(job.To, job.Terms, rf)
}

// Totals sums the payoffs of successful results per currency.
func Totals(results []Result) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for _, ev := range r.Events {
			out[ev.Currency] = out[ev.Currency].Add(decimal.NewFromFloat(ev.Payoff))
		}
	}
	return out
}

func contractID(terms *actus.Terms) string {
	if terms == nil {
		return ""
	}
	return terms.ContractID
}

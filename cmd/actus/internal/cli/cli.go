// Package cli holds what the actus subcommands share: input decoding,
// configuration, scenario loading and the JSON timeline output.
package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/actus"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/calendar"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/config"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/logger"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/riskfactor"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/scenario"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/utils"
)

// Setup loads the configuration at path (empty reads only ACTUS_* variables),
// makes it active, registers its holiday calendars and builds the logger.
func Setup(path string) (config.Config, *slog.Logger, func() error, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	config.SetConfig(cfg)
	for name, days := range cfg.HolidayCalendars {
		cal, err := calendar.ParseHolidayCalendar(strings.ToUpper(name), days)
		if err != nil {
			return config.Config{}, nil, nil, err
		}
		if err := calendar.Register(calendar.CalendarID(name), cal); err != nil {
			return config.Config{}, nil, nil, fmt.Errorf("holiday calendar %s: %w", name, err)
		}
	}
	log, sync, err := logger.New(cfg.LogProduction, cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, log, sync, nil
}

// ReadInput reads path, or stdin when path is empty.
func ReadInput(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

// IsTerminal reports whether r is an interactive terminal, in which case
// there is no piped input to read.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	return err == nil && stat.Mode()&os.ModeCharDevice != 0
}

// DecodeContracts decodes one contract object or an array of them. YAML is
// used for .yaml and .yml paths, JSON otherwise. Contracts without a calendar
// get defaultCalendar.
func DecodeContracts(b []byte, path, defaultCalendar string) ([]map[string]any, error) {
	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML input: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON input: %w", err)
		}
	}

	var items []any
	switch x := raw.(type) {
	case map[string]any:
		if list, ok := x["contracts"].([]any); ok {
			items = list
		} else {
			items = []any{x}
		}
	case []any:
		items = x
	default:
		return nil, fmt.Errorf("input must be a contract object or an array of contracts")
	}

	out := make([]map[string]any, 0, len(items))
	for i, it := range items {
		attrs, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("contract %d is not an object", i)
		}
		if _, ok := attrs["calendar"]; !ok && defaultCalendar != "" {
			attrs["calendar"] = defaultCalendar
		}
		out = append(out, attrs)
	}
	return out, nil
}

// ParseTo reads the -to flag. Empty means the whole contract life.
func ParseTo(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := utils.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -to: %w", err)
	}
	return t, nil
}

// ScenarioFlags locate the risk factors of a run.
type ScenarioFlags struct {
	Path       string
	DSN        string
	ScenarioID string
}

// Registries loads the scenario document and, when a DSN is given by flag or
// configuration, the market observations stored in PostgreSQL. It returns a
// registry constructor, or nil without any source.
func Registries(ctx context.Context, flags ScenarioFlags, cfg config.Config, log *slog.Logger) (func() (*riskfactor.Registry, error), error) {
	dsn := flags.DSN
	if dsn == "" {
		dsn = cfg.PostgresDSN
	}
	if flags.Path == "" && dsn == "" {
		return nil, nil
	}

	doc := &scenario.Document{SchemaVersion: "1.0", ID: flags.ScenarioID}
	if flags.Path != "" {
		var err error
		if doc, err = scenario.LoadFile(flags.Path); err != nil {
			return nil, err
		}
	}
	if doc.DegeneratePolicy == "" {
		doc.DegeneratePolicy = cfg.DegeneratePolicy
	}

	if dsn != "" {
		id := flags.ScenarioID
		if id == "" {
			id = doc.ID
		}
		if id == "" {
			return nil, fmt.Errorf("a scenario id is required to read observations from postgres")
		}
		markets, err := loadPostgres(ctx, dsn, id)
		if err != nil {
			return nil, err
		}
		doc.SetMarkets(markets...)
		log.Info("scenario observations loaded", "scenario", id, "markets", len(markets))
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc.Factory(riskfactor.WithLogger(log)), nil
}

func loadPostgres(ctx context.Context, dsn, scenarioID string) ([]scenario.Market, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()
	return scenario.LoadPostgres(ctx, db, scenarioID)
}

// Timeline is the JSON output of one evaluated contract.
type Timeline struct {
	RunID      string       `json:"run_id,omitempty"`
	ContractID string       `json:"contract_id,omitempty"`
	Events     []EventEntry `json:"events,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// EventEntry is one event with amounts rounded for output.
type EventEntry struct {
	Time     string          `json:"time"`
	Type     string          `json:"type"`
	Currency string          `json:"currency"`
	Payoff   decimal.Decimal `json:"payoff"`
	Notional decimal.Decimal `json:"notional"`
	Rate     decimal.Decimal `json:"rate"`
	Accrued  decimal.Decimal `json:"accrued"`
	Fee      decimal.Decimal `json:"fee_accrued"`
}

// NewTimeline renders events with amounts rounded to decimals places.
// Rates keep full precision.
func NewTimeline(runID, contractID string, events []actus.Event, err error, decimals int32) Timeline {
	tl := Timeline{RunID: runID, ContractID: contractID}
	if err != nil {
		tl.Error = err.Error()
		return tl
	}
	tl.Events = make([]EventEntry, len(events))
	for i, ev := range events {
		if !finite(ev.Payoff, ev.State.NotionalPrincipal, ev.State.NominalInterestRate, ev.State.AccruedInterest, ev.State.FeeAccrued) {
			return Timeline{RunID: runID, ContractID: contractID, Error: fmt.Sprintf("%s event at %s has a non-finite amount", ev.Type, utils.FormatDate(ev.Time))}
		}
		tl.Events[i] = EventEntry{
			Time:     utils.FormatDate(ev.Time),
			Type:     string(ev.Type),
			Currency: ev.Currency,
			Payoff:   amount(ev.Payoff, decimals),
			Notional: amount(ev.State.NotionalPrincipal, decimals),
			Rate:     decimal.NewFromFloat(ev.State.NominalInterestRate),
			Accrued:  amount(ev.State.AccruedInterest, decimals),
			Fee:      amount(ev.State.FeeAccrued, decimals),
		}
	}
	return tl
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func amount(v float64, decimals int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(decimals)
}

// WriteJSON writes v as one line.
func WriteJSON(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(b)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// WriteError writes a timeline holding only msg and returns exit code 1.
// When stdout cannot take it, msg and the write error go to stderr.
func WriteError(stdout, stderr io.Writer, msg string) int {
	if err := WriteJSON(stdout, Timeline{Error: msg}); err != nil {
		fmt.Fprintf(stderr, "%s (%v)\n", msg, err)
	}
	return 1
}

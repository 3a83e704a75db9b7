package batch

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/actus"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/batch"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/cmd/actus/internal/cli"
)

// Summary is the last output line of a batch run.
type Summary struct {
	RunID     string                     `json:"run_id"`
	Contracts int                        `json:"contracts"`
	Failed    int                        `json:"failed"`
	Totals    map[string]decimal.Decimal `json:"totals"`
}

// Run evaluates a portfolio concurrently. Every contract gets its own
// registry; a failing contract is reported on its own line and the others
// still run.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "portfolio path, JSON or YAML array of terms (optional; if set, ignores stdin)")
	to := fs.String("to", "", "last event date to include (optional)")
	configPath := fs.String("config", "", "config file (optional)")
	workers := fs.Int("workers", 0, "concurrent evaluations (defaults to the configured workers)")
	metricsPath := fs.String("metrics", "", "write Prometheus metrics to this textfile (optional)")
	var sf cli.ScenarioFlags
	fs.StringVar(&sf.Path, "scenario", "", "scenario document, YAML or JSON (optional)")
	fs.StringVar(&sf.DSN, "dsn", "", "postgres DSN holding scenario observations (optional)")
	fs.StringVar(&sf.ScenarioID, "scenario-id", "", "scenario id to read from postgres (defaults to the document id)")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		return 0
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" && cli.IsTerminal(stdin) {
		usage(stderr)
		return 2
	}

	cfg, log, sync, err := cli.Setup(*configPath)
	if err != nil {
		return cli.WriteError(stdout, stderr, err.Error())
	}
	defer sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	until, err := cli.ParseTo(*to)
	if err != nil {
		return cli.WriteError(stdout, stderr, err.Error())
	}
	registries, err := cli.Registries(ctx, sf, cfg, log)
	if err != nil {
		return cli.WriteError(stdout, stderr, fmt.Sprintf("failed to load scenario: %v", err))
	}
	input, err := cli.ReadInput(stdin, path)
	if err != nil {
		return cli.WriteError(stdout, stderr, fmt.Sprintf("failed to read input: %v", err))
	}
	contracts, err := cli.DecodeContracts(input, path, cfg.DefaultCalendar)
	if err != nil {
		return cli.WriteError(stdout, stderr, err.Error())
	}

	runID := uuid.NewString()
	code := 0
	jobs := make([]batch.Job, 0, len(contracts))
	for _, attrs := range contracts {
		terms, err := actus.ParseTerms(attrs)
		if err != nil {
			if werr := cli.WriteJSON(stdout, cli.Timeline{RunID: runID, Error: err.Error()}); werr != nil {
				fmt.Fprintln(stderr, werr)
				return 1
			}
			code = 1
			continue
		}
		jobs = append(jobs, batch.Job{Terms: terms, To: until})
	}

	opts := batch.Options{
		Workers: cfg.Workers,
		RunID:   runID,
		Logger:  log,
	}
	if *workers > 0 {
		opts.Workers = *workers
	}
	if registries != nil {
		opts.Providers = batch.FromRegistry(registries)
	}
	reg := prometheus.NewRegistry()
	if *metricsPath != "" {
		opts.Metrics = batch.NewMetrics(reg)
	}

	results := batch.Run(ctx, jobs, opts)
	failed := len(contracts) - len(jobs)
	for _, r := range results {
		if r.Err != nil {
			failed++
			code = 1
		}
		if werr := cli.WriteJSON(stdout, cli.NewTimeline(r.RunID, r.ContractID, r.Events, r.Err, cfg.AmountDecimals)); werr != nil {
			fmt.Fprintln(stderr, werr)
			return 1
		}
	}

	totals := batch.Totals(results)
	for ccy, v := range totals {
		totals[ccy] = v.Round(cfg.AmountDecimals)
	}
	if werr := cli.WriteJSON(stdout, Summary{RunID: runID, Contracts: len(contracts), Failed: failed, Totals: totals}); werr != nil {
		fmt.Fprintln(stderr, werr)
		return 1
	}

	if *metricsPath != "" {
		if err := prometheus.WriteToTextfile(*metricsPath, reg); err != nil {
			log.Error("failed to write metrics", "path", *metricsPath, "err", err)
			return 1
		}
	}
	return code
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  actus batch -input portfolio.json -scenario scenario.yaml [-workers 8]")
	fmt.Fprintln(w, "  actus batch -input portfolio.yaml -dsn postgres://... -scenario-id stress -metrics batch.prom")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Evaluate a portfolio concurrently, output one JSON timeline per contract and a summary line.")
}

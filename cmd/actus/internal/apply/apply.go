package apply

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/actus"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/cmd/actus/internal/cli"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/riskfactor"
)

// Run evaluates each input contract in turn against a fresh risk factor
// registry built from the scenario.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "terms path, JSON or YAML (optional; if set, ignores stdin)")
	to := fs.String("to", "", "last event date to include (optional)")
	configPath := fs.String("config", "", "config file (optional)")
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

	until, err := cli.ParseTo(*to)
	if err != nil {
		return cli.WriteError(stdout, stderr, err.Error())
	}
	registries, err := cli.Registries(context.Background(), sf, cfg, log)
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
		events, err := evaluate(terms, until, registries)
		if err != nil {
			log.Warn("contract failed", "contract_id", terms.ContractID, "err", err)
			code = 1
		}
		if werr := cli.WriteJSON(stdout, cli.NewTimeline(runID, terms.ContractID, events, err, cfg.AmountDecimals)); werr != nil {
			fmt.Fprintln(stderr, werr)
			return 1
		}
	}
	return code
}

func evaluate(terms *actus.Terms, until time.Time, registries func() (*riskfactor.Registry, error)) ([]actus.Event, error) {
	if registries == nil {
		return actus.Evaluate(until, terms, nil)
	}
	r, err := registries()
	if err != nil {
		return nil, err
	}
	return actus.Evaluate(until, terms, r)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  actus apply -input terms.json -scenario scenario.yaml")
	fmt.Fprintln(w, "  actus apply -input terms.json -dsn postgres://... -scenario-id base -to 2030-01-01")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Read contract terms, evaluate payoffs and states, output one JSON timeline per contract.")
}

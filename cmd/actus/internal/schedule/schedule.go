package schedule

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/actus"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/cmd/actus/internal/cli"
)

// Run lists the scheduled events of each input contract without evaluating
// payoffs. Amounts in the output are zero.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "terms path, JSON or YAML (optional; if set, ignores stdin)")
	to := fs.String("to", "", "last event date to include (optional)")
	configPath := fs.String("config", "", "config file (optional)")
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
		events, err := actus.Schedule(until, terms)
		if err != nil {
			code = 1
		}
		log.Debug("schedule generated", "contract_id", terms.ContractID, "events", len(events))
		if werr := cli.WriteJSON(stdout, cli.NewTimeline(runID, terms.ContractID, events, err, cfg.AmountDecimals)); werr != nil {
			fmt.Fprintln(stderr, werr)
			return 1
		}
	}
	return code
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  actus schedule < terms.json")
	fmt.Fprintln(w, "  actus schedule -input terms.yaml -to 2030-01-01")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Read contract terms, output the event schedule of each contract as one JSON line.")
}

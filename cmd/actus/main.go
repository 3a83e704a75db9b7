package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/cmd/actus/internal/apply"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/cmd/actus/internal/batch"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/cmd/actus/internal/schedule"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "schedule":
		return schedule.Run(args[1:], stdin, stdout, stderr)
	case "apply", "evaluate":
		return apply.Run(args[1:], stdin, stdout, stderr)
	case "batch":
		return batch.Run(args[1:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: actus <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  schedule  Event schedule of contract terms")
	fmt.Fprintln(w, "  apply     Evaluate payoffs and states against a scenario")
	fmt.Fprintln(w, "  batch     Evaluate a portfolio concurrently")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run `actus <command> -h` for command-specific help.")
}

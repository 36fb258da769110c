package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeWorker  = "ticket-worker"
	ModeReprint = "reprint"
	ModeIntake  = "order-intake"
)

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeWorker, "worker":
		return ModeWorker, true
	case ModeReprint, "print":
		return ModeReprint, true
	case ModeIntake, "intake":
		return ModeIntake, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `reprint --order-id=1001`
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "--mode=") {
			mode = strings.TrimPrefix(arg, "--mode=")
			continue
		}

		if mode == "" {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return "", out, nil
	}

	m, ok := isKnownMode(mode)
	if !ok {
		return "", out, fmt.Errorf("unknown mode %q", mode)
	}

	return m, out, nil
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage:
  ./ticketworker --mode=<mode> [flags]

Modes:
  ticket-worker    RabbitMQ consumer that prints a fulfillment ticket per order
  reprint          Print the ticket for one order without the broker
  order-intake     HTTP webhook receiver that queues order ids for the worker

Examples:
  ./ticketworker --mode=ticket-worker --config=config/config.yaml
  ./ticketworker reprint --order-id=1001
  ./ticketworker --mode=order-intake --max-concurrent=20`)
}

func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ./ticketworker --mode=%s [flags]\n", mode)
		fs.PrintDefaults()
	}
}

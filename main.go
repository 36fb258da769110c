package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata"

	"github.com/retailops/ticketworker/cmd/intakeservice"
	"github.com/retailops/ticketworker/cmd/ticketworker"
	"github.com/retailops/ticketworker/internal/cli"
)

func main() {
	// check for help flag first
	if len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		cli.PrintUsage(os.Stdout)
		os.Exit(0)
	}

	// parse all command-line arguments
	mode, svcArgs, err := cli.ParseMode(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// the worker is the default mode
	if mode == "" {
		mode = cli.ModeWorker
	}

	// create context cancelled on SIGINT/SIGTERM signals ensuring graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch mode {
	case cli.ModeWorker:
		fs := flag.NewFlagSet(cli.ModeWorker, flag.ContinueOnError)
		configPath := fs.String("config", "config/config.yaml", "Path to the YAML configuration file")
		cli.AttachUsage(fs, cli.ModeWorker)
		parseOrExit(fs, svcArgs)

		if err := ticketworker.Run(ctx, *configPath); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeReprint:
		fs := flag.NewFlagSet(cli.ModeReprint, flag.ContinueOnError)
		configPath := fs.String("config", "config/config.yaml", "Path to the YAML configuration file")
		orderID := fs.String("order-id", "", "Order id to print (required)")
		cli.AttachUsage(fs, cli.ModeReprint)
		parseOrExit(fs, svcArgs)

		if strings.TrimSpace(*orderID) == "" {
			fmt.Fprintln(os.Stderr, "Error: --order-id is required")
			fs.Usage()
			os.Exit(2)
		}

		if err := ticketworker.Reprint(ctx, *configPath, strings.TrimSpace(*orderID)); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeIntake:
		fs := flag.NewFlagSet(cli.ModeIntake, flag.ContinueOnError)
		configPath := fs.String("config", "config/config.yaml", "Path to the YAML configuration file")
		maxConcurrent := fs.Int("max-concurrent", 50, "Maximum number of concurrent webhook requests (0 disables the limit)")
		cli.AttachUsage(fs, cli.ModeIntake)
		parseOrExit(fs, svcArgs)

		if *maxConcurrent < 0 {
			fmt.Fprintln(os.Stderr, "Error: --max-concurrent must be >= 0")
			os.Exit(2)
		}

		if err := intakeservice.Run(ctx, *configPath, *maxConcurrent); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	}
}

func parseOrExit(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order-flow/cmd/notificationservice"
	"order-flow/cmd/orderservice"
	"order-flow/cmd/paymentservice"
	"order-flow/internal/cli"
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

	// ensure that mode is not empty
	if mode == "" {
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// create context cancelled on SIGINT/SIGTERM signals ensuring graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// run the service specified by the mode flag
	switch mode {
	case cli.ModeOrder:
		fs := flag.NewFlagSet(cli.ModeOrder, flag.ContinueOnError)
		port := fs.Int("port", 8000, "HTTP port for the API")
		cli.AttachUsage(fs, cli.ModeOrder)

		if err := fs.Parse(svcArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}

		if *port <= 0 || *port > 65535 {
			fmt.Fprintln(os.Stderr, "Error: --port must be between 1 and 65535")
			fs.Usage()
			os.Exit(2)
		}

		if err := orderservice.Run(ctx, *port); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModePay:
		fs := flag.NewFlagSet(cli.ModePay, flag.ContinueOnError)
		prefetch := fs.Int("prefetch", 1, "RabbitMQ prefetch count (1 gives strict sequential processing)")
		cli.AttachUsage(fs, cli.ModePay)

		if err := fs.Parse(svcArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}

		if *prefetch <= 0 {
			fmt.Fprintln(os.Stderr, "Error: --prefetch must be > 0")
			fs.Usage()
			os.Exit(2)
		}

		if err := paymentservice.Run(ctx, *prefetch); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeNotify:
		fs := flag.NewFlagSet(cli.ModeNotify, flag.ContinueOnError)
		prefetch := fs.Int("prefetch", 1, "RabbitMQ prefetch count per queue")
		cli.AttachUsage(fs, cli.ModeNotify)

		if err := fs.Parse(svcArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}

		if *prefetch <= 0 {
			fmt.Fprintln(os.Stderr, "Error: --prefetch must be > 0")
			fs.Usage()
			os.Exit(2)
		}

		if err := notificationservice.Run(ctx, *prefetch); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	}

	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Millisecond):
	}
}

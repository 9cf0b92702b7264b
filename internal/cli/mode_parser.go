package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeOrder  = "order-service"
	ModePay    = "payment-worker"
	ModeNotify = "notification-subscriber"
)

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeOrder, "order":
		return ModeOrder, true
	case ModePay, "payment", "pay":
		return ModePay, true
	case ModeNotify, "notify":
		return ModeNotify, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `order-service --port=8000`
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

	if m, ok := isKnownMode(mode); ok {
		return m, out, nil
	}

	return "", out, fmt.Errorf("unknown mode %q", mode)
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage:
  ./order-flow --mode=<service> [flags]

Services (modes):
  order-service              HTTP API that accepts orders and publishes order.created
  payment-worker             RabbitMQ consumer that processes payments
  notification-subscriber    RabbitMQ subscriber that renders notifications

Examples:
  ./order-flow --mode=order-service --port=8000
  ./order-flow --mode=payment-worker --prefetch=1
  ./order-flow --mode=notification-subscriber`)
}

func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ./order-flow --mode=%s [flags]\n", mode)
		fs.PrintDefaults()
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/seantiz/edgemgmt/internal/config"
	"github.com/seantiz/edgemgmt/internal/edgelet"
)

// Exit codes for modctl.
const (
	exitCodeError = 1
	// exitCodeNotFound lets scripts tell a missing module or identity apart.
	exitCodeNotFound = 2
	// exitCodeUnavailable means the runtime kept failing after all retries.
	exitCodeUnavailable = 3
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	uri        string
	apiVersion string
	output     string

	// tracerProvider is started by the first client when an OTLP endpoint
	// is configured.
	tracerProvider *sdktrace.TracerProvider
}

func newRootCmd(opts *globalOptions) *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:   "modctl",
		Short: "Manage modules and identities on an edge runtime",
		Long: `modctl talks to the management API of an edge runtime. It creates,
updates and controls modules, manages module identities, and reports
runtime information. Transient runtime failures are retried.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != outputTable && opts.output != outputJSON {
				return fmt.Errorf("unsupported output format %q (use %s or %s)", opts.output, outputTable, outputJSON)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.uri, "uri", cfg.ManagementURI, "management API base URI")
	root.PersistentFlags().StringVar(&opts.apiVersion, "api-version", cfg.APIVersion, "management API version")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", outputTable, "output format (table|json)")

	client := func() (*edgelet.Client, error) {
		v, err := edgelet.ParseVersion(opts.apiVersion)
		if err != nil {
			return nil, err
		}
		logger := config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		clientOpts := []edgelet.Option{
			edgelet.WithLogger(logger),
			edgelet.WithHTTPTimeout(cfg.HTTPTimeout),
		}
		if cfg.OTLPEndpoint != "" {
			if opts.tracerProvider == nil {
				tp, err := newTracerProvider(context.Background(), cfg.OTLPEndpoint)
				if err != nil {
					return nil, err
				}
				opts.tracerProvider = tp
			}
			clientOpts = append(clientOpts, edgelet.WithTracerProvider(opts.tracerProvider))
		}
		return edgelet.New(opts.uri, v, clientOpts...)
	}

	root.AddCommand(
		newIdentityCmd(opts, client),
		newModuleCmd(opts, client),
		newSystemInfoCmd(opts, client),
	)
	return root
}

// clientFactory builds a client from the resolved flags.
type clientFactory func() (*edgelet.Client, error)

func exitCode(err error) int {
	if edgelet.IsNotFound(err) {
		return exitCodeNotFound
	}
	if code, ok := edgelet.StatusCode(err); ok && code >= 500 {
		return exitCodeUnavailable
	}
	return exitCodeError
}

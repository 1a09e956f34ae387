// Package cli implements the biconnector command line: serve runs the HTTP
// front controller, call runs one action in-process and prints the result.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/koustreak/biconnector/internal/config"
	"github.com/koustreak/biconnector/internal/connector"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := newRootCmd(runtime{stdin: os.Stdin, logOut: os.Stderr})
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runtime carries what tests replace.
type runtime struct {
	stdin  io.Reader
	logOut io.Writer
	open   connector.Opener
}

type rootOptions struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd(rt runtime) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "biconnector",
		Short:         "BI connector for MySQL and PostgreSQL",
		Long:          "Serves schema discovery and filtered reads from MySQL and PostgreSQL to a BI platform.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = opts.logLevel
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("BICONNECTOR_CONFIG"), "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd(opts, rt))
	cmd.AddCommand(newCallCmd(opts, rt))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "biconnector %s (%s)\n", version, commit)
		},
	}
}

func withApp(ctx context.Context, opts *rootOptions, rt runtime, fn func(*app) error) error {
	logOut := rt.logOut
	if logOut == nil {
		logOut = os.Stderr
	}
	a, err := newApp(ctx, opts.cfg, logOut, rt.open)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

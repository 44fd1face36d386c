// Package cli defines the command-line interface for netweave.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/netweave/netweave/internal/app"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Options stores the global flags shared between commands.
type Options struct {
	ConfigPaths []string
	LogLevel    string
	LogFormat   string
	Parallelism int
	Provider    string

	StateBackend string
	StatePath    string
}

// Execute builds the root command and runs it with the given args.
func Execute(args []string, out, errW io.Writer) error {
	opts := &Options{}

	root := newRootCommand(opts, out, errW)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errW)
	return root.Execute()
}

func newRootCommand(opts *Options, out, errW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "netweave",
		Short:         "netweave provisions cloud network topologies from declarative configuration",
		Long:          "netweave reads HCL resource declarations, computes a dependency-ordered plan against recorded state, and drives the provider to make the network match.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringSliceVarP(&opts.ConfigPaths, "config", "c", []string{"."}, "HCL files or directories to load")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "log format: text or json")
	cmd.PersistentFlags().IntVar(&opts.Parallelism, "parallelism", 4, "maximum concurrent provider operations")
	cmd.PersistentFlags().StringVar(&opts.Provider, "provider", "aws", "provider: aws or memory")
	cmd.PersistentFlags().StringVar(&opts.StateBackend, "state-backend", "", "state backend: file or s3")
	cmd.PersistentFlags().StringVar(&opts.StatePath, "state", "", "path of the local state file")

	cmd.AddCommand(
		newValidateCommand(opts, out, errW),
		newPlanCommand(opts, out, errW),
		newApplyCommand(opts, out, errW),
		newDestroyCommand(opts, out, errW),
		newGraphCommand(opts, out, errW),
		newVersionCommand(out),
	)
	return cmd
}

// newApp assembles an App from the global options; environment variables
// fill whatever the flags leave unset.
func newApp(opts *Options, out, errW io.Writer) (*app.App, error) {
	cfg, err := app.NewConfig(app.Config{
		ConfigPaths:  opts.ConfigPaths,
		LogLevel:     opts.LogLevel,
		LogFormat:    opts.LogFormat,
		Parallelism:  opts.Parallelism,
		Provider:     opts.Provider,
		StateBackend: opts.StateBackend,
		StatePath:    opts.StatePath,
	})
	if err != nil {
		return nil, err
	}
	return app.New(cfg, out, errW), nil
}

// pathArgs lets commands take config paths positionally; they override the
// --config flag when present.
func pathArgs(opts *Options, args []string) {
	if len(args) > 0 {
		opts.ConfigPaths = args
	}
}

func newValidateCommand(opts *Options, out, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path...]",
		Short: "Check the configuration and its cross-references without touching state",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pathArgs(opts, args)
			a, err := newApp(opts, out, errW)
			if err != nil {
				return err
			}
			return a.Validate(cmd.Context())
		},
	}
}

func newPlanCommand(opts *Options, out, errW io.Writer) *cobra.Command {
	var destroy bool
	cmd := &cobra.Command{
		Use:   "plan [path...]",
		Short: "Show what apply would change",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pathArgs(opts, args)
			a, err := newApp(opts, out, errW)
			if err != nil {
				return err
			}
			return a.Plan(cmd.Context(), destroy)
		},
	}
	cmd.Flags().BoolVar(&destroy, "destroy", false, "plan the removal of all managed resources")
	return cmd
}

func newApplyCommand(opts *Options, out, errW io.Writer) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "apply [path...]",
		Short: "Make the control plane match the declarations",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pathArgs(opts, args)
			a, err := newApp(opts, out, errW)
			if err != nil {
				return err
			}
			if dryRun {
				return a.Plan(cmd.Context(), false)
			}
			return a.Apply(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render the plan without calling the provider")
	return cmd
}

func newDestroyCommand(opts *Options, out, errW io.Writer) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "destroy [path...]",
		Short: "Remove every managed resource, dependents first",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pathArgs(opts, args)
			a, err := newApp(opts, out, errW)
			if err != nil {
				return err
			}
			if dryRun {
				return a.Plan(cmd.Context(), true)
			}
			return a.Destroy(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render the destroy plan without calling the provider")
	return cmd
}

func newGraphCommand(opts *Options, out, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "graph [path...]",
		Short: "Print the dependency graph in DOT format",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pathArgs(opts, args)
			a, err := newApp(opts, out, errW)
			if err != nil {
				return err
			}
			return a.Graph(cmd.Context())
		},
	}
}

func newVersionCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the netweave version",
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(out, "netweave %s\n", Version)
			return err
		},
	}
}

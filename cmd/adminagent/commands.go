package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/storekit/adminagent/config"
	"github.com/storekit/adminagent/logger"
	"github.com/storekit/adminagent/types"
	"github.com/storekit/adminagent/version"
)

type rootOptions struct {
	ConfigPath string
	Verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "adminagent",
		Short: "Natural-language store administration with guardrails",
		Long: `adminagent turns plain-English admin commands ("change the price of
HP-BLK-001 to 49.99", "cancel order 1002") into validated, policy-checked
store operations. Risky changes pause and ask for confirmation before
anything is written.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetVerbose(opts.Verbose)
			logger.Debug("starting", version.Current().LogAttrs()...)
		},
		SilenceUsage: true,
	}

	build := version.Current()
	cmd.Version = build.Version
	cmd.SetVersionTemplate(build.String() + "\n")

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(newAskCommand(opts))
	cmd.AddCommand(newReplCommand(opts))
	cmd.AddCommand(newResetDataCommand(opts))

	return cmd
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	return config.Load(opts.ConfigPath)
}

func newAskCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message>",
		Short: "Run a single admin command",
		Long: `Run one natural-language admin command. If the change needs
confirmation, the question is printed and the answer read from stdin.

Example:
  adminagent ask "set the headphones to 49.99"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			startMetrics(cfg)
			a, err := buildAgent(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			message := strings.Join(args, " ")
			return runTurn(ctx, a, "", message, bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout())
		},
	}
}

func newReplCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive admin session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			startMetrics(cfg)
			a, err := buildAgent(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			in := bufio.NewReader(cmd.InOrStdin())
			fmt.Fprintln(out, "Store admin assistant. Type a command, or \"exit\" to quit.")

			sessionID := "repl"
			for {
				fmt.Fprint(out, "> ")
				line, err := in.ReadString('\n')
				if err != nil {
					return nil
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					return nil
				}
				if err := runTurn(ctx, a, sessionID, line, in, out); err != nil {
					fmt.Fprintln(out, "Error:", err)
				}
				if ctx.Err() != nil {
					return nil
				}
			}
		},
	}
}

func newResetDataCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-data",
		Short: "Discard working data and restore the seed datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			a, err := buildAgent(cfg)
			if err != nil {
				return err
			}
			if err := a.catalog.Arena.Reset(); err != nil {
				return fmt.Errorf("resetting data: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Working data discarded; collections restored to seed state.")
			return nil
		},
	}
}

// runTurn drives one workflow, including the confirmation round-trip.
func runTurn(ctx context.Context, a *agent, sessionID, message string, in *bufio.Reader, out io.Writer) error {
	state, err := a.orchestrator.Run(ctx, sessionID, message)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, state.Response)
	if state.Status != types.StatusPendingConfirmation {
		return nil
	}

	fmt.Fprint(out, "? ")
	reply, err := in.ReadString('\n')
	if err != nil {
		return nil
	}
	resumed, err := a.orchestrator.Resume(ctx, state.WorkflowID, strings.TrimSpace(reply))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, resumed.Response)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cashflow/internal/api"
	"cashflow/internal/app"
	"cashflow/internal/config"
	"cashflow/internal/game"
	"cashflow/internal/money"
	"cashflow/internal/tui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type rootOptions struct {
	configPath string
	slot       string
}

func main() {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "cashflow",
		Short:        "Idle personal finance game",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $CASHFLOW_CONFIG or ~/.cashflow/config.yaml)")
	root.PersistentFlags().StringVar(&opts.slot, "slot", "", "save slot to play")

	root.AddCommand(
		newPlayCmd(opts),
		newStatusCmd(opts),
		newLedgerCmd(opts),
		newReportCmd(opts),
		newActionsCmd(opts),
		newDoCmd(opts),
		newFilterCmd(opts),
		newResetCmd(opts),
		newRemoteCmd(opts),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(config.Path(o.configPath))
	if err != nil {
		return cfg, err
	}
	if slot := strings.TrimSpace(o.slot); slot != "" {
		cfg.Slot = slot
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// openLogger sends logs to the configured file so they never draw over the terminal.
func openLogger(cfg config.Config) (*slog.Logger, func(), error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o700); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = f.Close() }, nil
}

// openLocal loads the configured save slot without starting the ticks.
func openLocal(ctx context.Context, opts *rootOptions) (*app.App, func(), error) {
	cfg, err := opts.load()
	if err != nil {
		return nil, nil, err
	}
	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return a, func() {
		if err := a.Close(); err != nil {
			printError("save failed: " + err.Error())
		}
		closeLog()
	}, nil
}

func newPlayCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play in the full-screen terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("play needs an interactive terminal")
			}
			a, done, err := openLocal(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer done()
			if err := a.Start(cmd.Context()); err != nil {
				return err
			}
			return tui.Run(a.Session, a.Reset)
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cash, accounts and perks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := openLocal(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer done()
			renderStatus(api.NewStateView(a.Session.State()))
			return nil
		},
	}
}

func newLedgerCmd(opts *rootOptions) *cobra.Command {
	var all bool
	var limit int
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show ledger entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("limit must be non-negative")
			}
			a, done, err := openLocal(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer done()
			entries := a.Session.FilteredLedger()
			if all {
				entries = game.Filter(a.Session.Ledger(), nil)
			}
			if limit > 0 && limit < len(entries) {
				entries = entries[:limit]
			}
			renderLedger(api.NewEntryViews(entries), time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "ignore the active ledger filters")
	cmd.Flags().IntVar(&limit, "limit", 20, "entries to show (0 for all)")
	return cmd
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a formatted summary of your finances",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := openLocal(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer done()
			entries := game.Filter(a.Session.Ledger(), nil)
			md := buildReport(api.NewStateView(a.Session.State()), api.NewEntryViews(entries), time.Now())
			if raw {
				fmt.Print(md)
				return nil
			}
			out, err := renderReport(md)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "markdown", false, "print raw markdown")
	return cmd
}

func newActionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the actions you can take",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := openLocal(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer done()
			renderActions(api.NewActionViews(a.Session))
			return nil
		},
	}
}

func newDoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "do <action>",
		Short: "Take one action, e.g. `cashflow do earn-money`",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := game.ActionID(strings.TrimSpace(args[0]))
			if _, err := game.LookupAction(id); err != nil {
				return err
			}
			a, done, err := openLocal(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer done()
			applied, err := a.Session.Attempt(id)
			if errors.Is(err, game.ErrActionUnavailable) {
				printWarn(string(id) + " is not available right now.")
				return nil
			}
			if err != nil {
				return err
			}
			renderActionResult(api.ActionResult{
				Action:  string(id),
				Applied: applied,
				State:   api.NewStateView(a.Session.State()),
			})
			return a.Save(cmd.Context())
		},
	}
}

func newFilterCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "filter <account>",
		Short: "Toggle a ledger filter, e.g. Cash, Stocks or Event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := openLocal(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer done()
			a.Session.ToggleFilter(strings.TrimSpace(args[0]))
			active := a.Session.State().ActiveFilters.Sorted()
			if len(active) == 0 {
				printInfo("Ledger filters cleared.")
			} else {
				printInfo("Ledger filters: " + strings.Join(active, ", "))
			}
			return a.Save(cmd.Context())
		},
	}
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Start over with $100",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				answer, err := promptChoice("Erase this game and start over?", []string{"yes", "no"}, "no")
				if err != nil {
					return err
				}
				if answer != "yes" {
					printInfo("Reset cancelled.")
					return nil
				}
			}
			a, done, err := openLocal(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer done()
			if err := a.Reset(); err != nil {
				return err
			}
			if err := a.Save(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Game reset. You have " + money.Format(a.Session.State().Cash) + ".")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

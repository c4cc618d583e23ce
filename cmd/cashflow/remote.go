package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	cl "cashflow/internal/cli"
	"cashflow/internal/config"

	"github.com/spf13/cobra"
)

const remoteTimeout = 15 * time.Second

func newRemoteCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Drive a game running inside cashflowd",
	}
	cmd.AddCommand(
		newRemoteSetCmd(opts),
		newRemoteClearCmd(opts),
		newRemoteStatusCmd(opts),
		newRemoteLedgerCmd(opts),
		newRemoteActionsCmd(opts),
		newRemoteDoCmd(opts),
		newRemoteFilterCmd(opts),
		newRemoteResetCmd(opts),
	)
	return cmd
}

// remoteClient uses the saved daemon address, falling back to the configured api.addr.
func remoteClient(opts *rootOptions) (*cl.Client, error) {
	cfg, err := opts.load()
	if err != nil {
		return nil, err
	}
	r, err := cl.LoadRemote(cfg.DataDir)
	switch {
	case err == nil:
		return cl.NewClient(r.Addr), nil
	case errors.Is(err, os.ErrNotExist):
		addr := cfg.API.Addr
		if addr == "" {
			addr = config.DefaultAPIAddr
		}
		return cl.NewClient(addr), nil
	default:
		return nil, err
	}
}

func withRemote(opts *rootOptions, fn func(ctx context.Context, c *cl.Client) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := remoteClient(opts)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), remoteTimeout)
		defer cancel()
		return fn(ctx, c)
	}
}

func newRemoteSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <addr>",
		Short: "Remember the daemon address, e.g. 127.0.0.1:7777",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			addr := strings.TrimSpace(args[0])
			ctx, cancel := context.WithTimeout(cmd.Context(), remoteTimeout)
			defer cancel()
			if err := cl.NewClient(addr).Health(ctx); err != nil {
				printWarn(fmt.Sprintf("Daemon at %s is not answering yet: %v", addr, err))
			}
			if err := cl.SaveRemote(cfg.DataDir, cl.Remote{Addr: addr}); err != nil {
				return err
			}
			printSuccess("Daemon address saved.")
			return nil
		},
	}
}

func newRemoteClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the saved daemon address",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := cl.ClearRemote(cfg.DataDir); err != nil {
				return err
			}
			printSuccess("Daemon address cleared.")
			return nil
		},
	}
}

func newRemoteStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the daemon's game",
		RunE: withRemote(opts, func(ctx context.Context, c *cl.Client) error {
			st, err := c.State(ctx)
			if err != nil {
				return err
			}
			printInfo("Daemon: " + c.BaseURL)
			renderStatus(st)
			return nil
		}),
	}
}

func newRemoteLedgerCmd(opts *rootOptions) *cobra.Command {
	var all bool
	var limit int
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show the daemon's ledger",
		RunE: withRemote(opts, func(ctx context.Context, c *cl.Client) error {
			entries, err := c.Ledger(ctx, all, limit)
			if err != nil {
				return err
			}
			renderLedger(entries, time.Now())
			return nil
		}),
	}
	cmd.Flags().BoolVar(&all, "all", false, "ignore the active ledger filters")
	cmd.Flags().IntVar(&limit, "limit", 20, "entries to show (0 for all)")
	return cmd
}

func newRemoteActionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the daemon's actions and cooldowns",
		RunE: withRemote(opts, func(ctx context.Context, c *cl.Client) error {
			actions, err := c.Actions(ctx)
			if err != nil {
				return err
			}
			renderActions(actions)
			return nil
		}),
	}
}

func newRemoteDoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "do <action>",
		Short: "Take one action in the daemon's game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRemote(opts, func(ctx context.Context, c *cl.Client) error {
				res, err := c.Perform(ctx, strings.TrimSpace(args[0]))
				var statusErr *cl.StatusError
				if errors.As(err, &statusErr) {
					switch statusErr.Code {
					case http.StatusConflict:
						printWarn(args[0] + " is cooling down.")
						return nil
					case http.StatusUnprocessableEntity:
						printWarn(args[0] + " is not available right now.")
						return nil
					}
				}
				if err != nil {
					return err
				}
				renderActionResult(res)
				return nil
			})(cmd, args)
		},
	}
}

func newRemoteFilterCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "filter <account>",
		Short: "Toggle a ledger filter in the daemon's game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRemote(opts, func(ctx context.Context, c *cl.Client) error {
				active, err := c.ToggleFilter(ctx, strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if len(active) == 0 {
					printInfo("Ledger filters cleared.")
				} else {
					printInfo("Ledger filters: " + strings.Join(active, ", "))
				}
				return nil
			})(cmd, args)
		},
	}
}

func newRemoteResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restart the daemon's game",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				answer, err := promptChoice("Erase the daemon's game and start over?", []string{"yes", "no"}, "no")
				if err != nil {
					return err
				}
				if answer != "yes" {
					printInfo("Reset cancelled.")
					return nil
				}
			}
			return withRemote(opts, func(ctx context.Context, c *cl.Client) error {
				st, err := c.Reset(ctx)
				if err != nil {
					return err
				}
				printSuccess("Daemon game reset.")
				renderStatus(st)
				return nil
			})(cmd, args)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"cashflow/internal/api"
	"cashflow/internal/money"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

func renderStatus(st api.StateView) {
	accent.Println("\n== CASHFLOW ==")
	fmt.Printf("Cash:             %s\n", money.Format(st.Cash))
	fmt.Printf("Portfolio:        %s\n", money.Format(st.PortfolioValue))
	fmt.Printf("Net Worth:        %s\n", money.Format(st.NetWorth))
	fmt.Printf("Shifts Worked:    %s\n", money.Count(int64(st.WorkCount)))
	fmt.Printf("Shift Cooldown:   %s\n", time.Duration(st.WorkCooldownMS)*time.Millisecond)

	perks := make([]string, 0, 4)
	if st.HasVehicle {
		perks = append(perks, "vehicle")
	}
	if st.SecondJobAvailable {
		perks = append(perks, "second job")
	}
	if st.AdvisorHired {
		perks = append(perks, "advisor")
	}
	if st.PRProtection > 0 {
		perks = append(perks, "PR "+money.Percent(st.PRProtection))
	}
	if len(perks) > 0 {
		fmt.Printf("Perks:            %s\n", strings.Join(perks, ", "))
	}
	if st.CompanyOwned {
		fmt.Printf("Company Age:      %d ticks\n", st.CompanyAge)
	}

	fmt.Println()
	accent.Println("Accounts")
	fmt.Printf("%-12s %12s %10s %8s %14s\n", "ACCOUNT", "QTY", "PER UNIT", "RISK", "VALUE")
	for _, a := range st.Accounts {
		fmt.Printf("%-12s %12.2f %10.4f %8.2f %14s\n",
			a.Kind,
			a.Quantity,
			a.ValuePerUnit,
			a.Risk,
			colorizeMoney(a.Value, false),
		)
	}
	if len(st.ActiveFilters) > 0 {
		fmt.Println()
		printInfo("Ledger filters: " + strings.Join(st.ActiveFilters, ", "))
	}
	fmt.Println()
}

func renderLedger(entries []api.EntryView, now time.Time) {
	accent.Println("\n== LEDGER ==")
	if len(entries) == 0 {
		printInfo("No entries.")
		return
	}
	fmt.Printf("%-6s %-16s %-11s %-44s %14s %14s\n", "ID", "WHEN", "ACCOUNT", "DESCRIPTION", "AMOUNT", "TOTAL")
	for _, e := range entries {
		amount, total := "", ""
		if e.Amount != nil && e.Total != nil {
			amount = colorizeMoney(*e.Amount, true)
			total = money.Format(*e.Total)
		}
		fmt.Printf("%-6s %-16s %-11s %-44s %14s %14s\n",
			money.Count(e.ID),
			money.Ago(e.Timestamp, now),
			truncate(e.AccountType, 11),
			truncate(e.Description, 44),
			amount,
			total,
		)
	}
	fmt.Println()
}

func renderActions(actions []api.ActionView) {
	accent.Println("\n== ACTIONS ==")
	fmt.Printf("%-26s %-34s %-10s %10s\n", "ID", "LABEL", "STATUS", "COOLDOWN")
	for _, a := range actions {
		if !a.Available {
			continue
		}
		status := success.Sprint("ready")
		if a.Disabled {
			status = warn.Sprintf("%3.0f%% left", a.Remaining*100)
			if a.CooldownMS < 0 {
				status = neutral.Sprint("done")
			}
		}
		cooldown := "once"
		if a.CooldownMS >= 0 {
			cooldown = (time.Duration(a.CooldownMS) * time.Millisecond).String()
		}
		fmt.Printf("%-26s %-34s %-10s %10s\n", a.ID, truncate(a.Label, 34), status, cooldown)
	}
	fmt.Println()
}

func renderActionResult(res api.ActionResult) {
	if res.Applied {
		printSuccess(fmt.Sprintf("%s done. Cash %s, net worth %s.", res.Action, money.Format(res.State.Cash), money.Format(res.State.NetWorth)))
		return
	}
	printWarn(fmt.Sprintf("%s had no effect: not enough cash or nothing to do.", res.Action))
}

func colorizeMoney(v float64, signed bool) string {
	text := money.Format(v)
	if signed {
		text = money.Signed(v)
	}
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

package main

import (
	"fmt"
	"strings"
	"time"

	"cashflow/internal/api"
	"cashflow/internal/money"

	"github.com/charmbracelet/glamour"
)

const reportEntries = 10

func buildReport(st api.StateView, entries []api.EntryView, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Cashflow report\n\n")
	fmt.Fprintf(&b, "Generated %s.\n\n", now.Format("Jan 2, 2006 15:04"))

	b.WriteString("## Net worth\n\n")
	b.WriteString("| | |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Cash | %s |\n", money.Format(st.Cash))
	fmt.Fprintf(&b, "| Portfolio | %s |\n", money.Format(st.PortfolioValue))
	fmt.Fprintf(&b, "| **Net worth** | **%s** |\n\n", money.Format(st.NetWorth))

	b.WriteString("## Portfolio\n\n")
	b.WriteString("| Account | Quantity | Per unit | Value | Share |\n|---|---:|---:|---:|---:|\n")
	for _, a := range st.Accounts {
		share := 0.0
		if st.PortfolioValue > 0 {
			share = a.Value / st.PortfolioValue
		}
		fmt.Fprintf(&b, "| %s | %.2f | %.4f | %s | %s |\n", a.Kind, a.Quantity, a.ValuePerUnit, money.Format(a.Value), money.Percent(share))
	}
	b.WriteString("\n")

	b.WriteString("## Career\n\n")
	fmt.Fprintf(&b, "- Shifts worked: %s\n", money.Count(int64(st.WorkCount)))
	fmt.Fprintf(&b, "- Vehicle: %s\n", yesNo(st.HasVehicle))
	fmt.Fprintf(&b, "- Financial advisor: %s\n", yesNo(st.AdvisorHired))
	fmt.Fprintf(&b, "- PR protection: %s\n", money.Percent(st.PRProtection))
	if st.CompanyOwned {
		fmt.Fprintf(&b, "- Company age: %d ticks\n", st.CompanyAge)
	} else {
		b.WriteString("- Company: not founded\n")
	}
	b.WriteString("\n")

	b.WriteString("## Recent activity\n\n")
	if len(entries) == 0 {
		b.WriteString("_Nothing yet._\n")
		return b.String()
	}
	if len(entries) > reportEntries {
		entries = entries[:reportEntries]
	}
	b.WriteString("| When | Account | Description | Amount |\n|---|---|---|---:|\n")
	for _, e := range entries {
		amount := ""
		if e.Amount != nil {
			amount = money.Signed(*e.Amount)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", money.Ago(e.Timestamp, now), e.AccountType, escapeCell(e.Description), amount)
	}
	return b.String()
}

func renderReport(markdown string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return "", err
	}
	return r.Render(markdown)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

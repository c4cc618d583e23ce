package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cashflow/internal/game"
	"cashflow/internal/money"
)

const (
	refreshEvery = 100 * time.Millisecond
	ledgerRows   = 12
	ledgerWidth  = 112
	barWidth     = 16
)

// filterAccounts are the account types the number keys toggle, in key order.
var filterAccounts = []string{
	game.CategoryCash,
	game.Savings.Category(),
	game.ETFs.Category(),
	game.Stocks.Category(),
	game.Bonds.Category(),
	game.RealEstate.Category(),
	game.Equity.Category(),
	game.Company.Category(),
	game.CategoryEvent,
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cashStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	flashStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("214"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	filterOn      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("86"))
)

type refreshMsg time.Time

// Model is the bubbletea model of an interactive game. It reads the session on every
// refresh instead of subscribing, so the session lock is never held while the UI runs.
type Model struct {
	session *game.Session
	reset   func() error
	now     func() time.Time

	keys   keyMap
	help   help.Model
	bar    progress.Model
	ledger table.Model
	cursor int
	flash  string
	width  int
}

// New builds the model. reset restarts the whole game (ticks included); when nil the
// session alone is reset.
func New(session *game.Session, reset func() error) Model {
	if reset == nil {
		reset = func() error {
			session.Reset()
			session.Greet()
			return nil
		}
	}
	ledger := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 5},
			{Title: "When", Width: 16},
			{Title: "Account", Width: 10},
			{Title: "Description", Width: 44},
			{Title: "Amount", Width: 12},
			{Title: "Total", Width: 12},
		}),
		table.WithHeight(ledgerRows),
		table.WithWidth(ledgerWidth),
	)
	m := Model{
		session: session,
		reset:   reset,
		now:     time.Now,
		keys:    defaultKeys(),
		help:    help.New(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth), progress.WithoutPercentage()),
		ledger:  ledger,
	}
	m.refreshLedger()
	return m
}

func refresh() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return refresh()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.refreshLedger()
		return m, refresh()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.visibleActions()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Perform):
		if m.cursor >= len(visible) {
			return m, nil
		}
		a := visible[m.cursor]
		applied, err := m.session.Attempt(a.ID)
		switch {
		case errors.Is(err, game.ErrCoolingDown):
			m.flash = a.Label + " is cooling down"
		case errors.Is(err, game.ErrActionUnavailable):
			m.flash = a.Label + " is no longer offered"
		case applied:
			m.flash = ""
		default:
			m.flash = "Not possible right now: " + a.Label
		}
	case key.Matches(msg, m.keys.Filter):
		idx := int(msg.String()[0] - '1')
		if idx >= 0 && idx < len(filterAccounts) {
			m.session.ToggleFilter(filterAccounts[idx])
		}
	case key.Matches(msg, m.keys.Clear):
		for _, account := range m.session.State().ActiveFilters.Sorted() {
			m.session.ToggleFilter(account)
		}
	case key.Matches(msg, m.keys.Reset):
		if err := m.reset(); err != nil {
			m.flash = "Reset failed: " + err.Error()
		} else {
			m.flash = "Game reset"
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	m.refreshLedger()
	return m, nil
}

func (m Model) visibleActions() []game.Action {
	st := m.session.State()
	out := make([]game.Action, 0, len(game.Catalog))
	for _, a := range game.Catalog {
		if a.Available(st) {
			out = append(out, a)
		}
	}
	return out
}

func (m *Model) refreshLedger() {
	entries := m.session.FilteredLedger()
	if len(entries) > ledgerRows {
		entries = entries[:ledgerRows]
	}
	now := m.now()
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		amount, total := "", ""
		if e.Monetary() {
			amount, total = money.Signed(e.Amount), money.Format(e.Total)
		}
		rows = append(rows, table.Row{
			money.Count(e.ID),
			money.Ago(e.Timestamp, now),
			e.AccountType,
			e.Description,
			amount,
			total,
		})
	}
	m.ledger.SetRows(rows)
	if visible := len(m.visibleActions()); m.cursor >= visible && visible > 0 {
		m.cursor = visible - 1
	}
}

func (m Model) View() string {
	st := m.session.State()
	var b strings.Builder

	b.WriteString(titleStyle.Render("CASHFLOW"))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("cash ") + cashStyle.Render(money.Format(st.Cash)))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("portfolio ") + money.Format(st.TotalPortfolioValue))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("net worth ") + money.Format(st.NetWorth()))
	b.WriteString("\n\n")

	left := panelStyle.Render(m.actionsView())
	right := panelStyle.Render(m.portfolioView(st))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	b.WriteString("\n")

	b.WriteString(m.filtersView(st))
	b.WriteString("\n")
	b.WriteString(m.ledger.View())
	b.WriteString("\n")
	if m.flash != "" {
		b.WriteString(flashStyle.Render(m.flash))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) actionsView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Actions"))
	b.WriteString("\n")
	for i, a := range m.visibleActions() {
		label := a.Label
		cooling := m.session.IsDisabled(a.ID)
		switch {
		case i == m.cursor:
			label = selectedStyle.Render("> " + label)
		case cooling:
			label = disabledStyle.Render("  " + label)
		default:
			label = "  " + label
		}
		b.WriteString(fmt.Sprintf("%-36s ", label))
		if cooling {
			if frac := m.session.RemainingFraction(a.ID); frac > 0 {
				b.WriteString(m.bar.ViewAs(frac))
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) portfolioView(st game.State) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Portfolio"))
	b.WriteString("\n")
	for _, k := range game.Kinds {
		inv := st.Portfolio[k]
		b.WriteString(fmt.Sprintf("%-11s %12s  ", k.Category(), money.Format(inv.Value())))
		b.WriteString(labelStyle.Render(fmt.Sprintf("x%.3f", inv.ValuePerUnit)))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\nshifts %d", st.WorkCount))
	if st.HasVehicle {
		b.WriteString(" | vehicle")
	}
	if st.AdvisorHired {
		b.WriteString(" | advisor")
	}
	if st.PRProtection > 0 {
		b.WriteString(" | PR " + money.Percent(st.PRProtection))
	}
	if st.CompanyOwned {
		b.WriteString(fmt.Sprintf(" | company age %d", st.CompanyAge))
	}
	return b.String()
}

func (m Model) filtersView(st game.State) string {
	parts := make([]string, 0, len(filterAccounts))
	for i, account := range filterAccounts {
		label := fmt.Sprintf("%d %s", i+1, account)
		if st.ActiveFilters.Has(account) {
			parts = append(parts, filterOn.Render(label))
		} else {
			parts = append(parts, labelStyle.Render(label))
		}
	}
	return titleStyle.Render("Ledger") + "  " + strings.Join(parts, " ")
}

// Run starts the full-screen program and blocks until the player quits.
func Run(session *game.Session, reset func() error) error {
	_, err := tea.NewProgram(New(session, reset), tea.WithAltScreen()).Run()
	return err
}

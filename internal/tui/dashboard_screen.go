package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/bobzap/batisync/internal/app"
	"github.com/bobzap/batisync/internal/domain"
	"github.com/bobzap/batisync/internal/repository"
	"github.com/bobzap/batisync/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DashboardModel shows the financial summary of the selected project
type DashboardModel struct {
	app       *app.App
	projectID int64

	summary  service.Summary
	unbilled float64
	recent   []*domain.Invoice

	loading bool
	err     error
}

type dashboardDataMsg struct {
	summary  service.Summary
	unbilled float64
	recent   []*domain.Invoice
	err      error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(a *app.App, projectID int64) tea.Model {
	return &DashboardModel{
		app:       a,
		projectID: projectID,
		loading:   true,
	}
}

func (m *DashboardModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *DashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		now := time.Now()
		var msg dashboardDataMsg

		summary, err := m.app.ReportService.ProjectSummary(ctx, m.projectID, repository.InvoiceFilters{}, now)
		if err != nil {
			msg.err = fmt.Errorf("summary: %w", err)
			return msg
		}
		msg.summary = summary

		msg.unbilled, _ = m.app.ReportService.UnbilledTotal(ctx, m.projectID)

		// Most recently issued invoices
		invoices, err := m.app.InvoiceService.List(ctx, m.projectID, repository.InvoiceFilters{})
		if err == nil {
			service.SortInvoices(invoices, service.SortByDate, true)
			if len(invoices) > 8 {
				invoices = invoices[:8]
			}
			msg.recent = invoices
		}

		return msg
	}
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.summary = msg.summary
		m.unbilled = msg.unbilled
		m.recent = msg.recent
		return m, nil

	case RefreshDataMsg:
		m.loading = true
		return m, m.loadData()
	}

	return m, nil
}

func (m *DashboardModel) View() string {
	if m.loading {
		return "Loading dashboard..."
	}

	if m.err != nil {
		return lipgloss.NewStyle().Foreground(errorColor).
			Render(fmt.Sprintf("Error: %v", m.err))
	}

	s := fmt.Sprintf(
		"  Invoices: %-6d  Amount HT:  %-14s  Amount TTC: %s\n",
		m.summary.Total,
		formatMoney(m.summary.AmountHT),
		formatMoney(m.summary.AmountTTC),
	)

	s += "\n  By status:  "
	for _, status := range domain.AllInvoiceStatuses {
		s += fmt.Sprintf("%s %d   ", status.Label(), m.summary.ByStatus[status])
	}
	s += "\n"

	s += fmt.Sprintf("\n  Paid: %d   Unpaid: %d   %s   %s\n",
		m.summary.PaidCount,
		m.summary.UnpaidCount,
		overdueStyle.Render(fmt.Sprintf("Overdue: %d", m.summary.OverdueCount)),
		dueSoonStyle.Render(fmt.Sprintf("Due soon: %d", m.summary.DueSoonCount)),
	)

	s += fmt.Sprintf("\n  Unbilled vouchers: %s\n", formatMoney(m.unbilled))

	s += "\n" + m.renderRecentInvoices()
	return s
}

func (m *DashboardModel) renderRecentInvoices() string {
	header := "  Recent Invoices\n"
	if len(m.recent) == 0 {
		return header + subtitleStyle.Render("  No invoices yet") + "\n"
	}

	now := time.Now()
	s := header
	for _, inv := range m.recent {
		state := ""
		if inv.IsPaid() {
			state = paidStyle.Render("paid")
		} else if inv.IsOverdue(now) {
			state = overdueStyle.Render("overdue")
		} else if inv.IsDueSoon(now) {
			state = dueSoonStyle.Render("due soon")
		}
		s += fmt.Sprintf("  %-12s %-20s %-12s %12s  %s\n",
			truncateStr(inv.Number, 12),
			truncateStr(inv.Supplier, 20),
			inv.Date.Format("02/01/2006"),
			formatMoney(inv.AmountTTC),
			state,
		)
	}

	return s
}

package tui

import (
	"context"
	"fmt"

	"github.com/bobzap/batisync/internal/app"
	"github.com/bobzap/batisync/internal/domain"
	"github.com/bobzap/batisync/internal/repository"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// VouchersModel displays a scrollable list of the project's vouchers
type VouchersModel struct {
	app       *app.App
	projectID int64

	vouchers      []*domain.Voucher
	cursor        int
	offset        int
	maxVisible    int
	availableOnly bool
	loading       bool
	err           error
}

type vouchersDataMsg struct {
	vouchers []*domain.Voucher
	err      error
}

// NewVouchersModel creates a new vouchers screen model
func NewVouchersModel(a *app.App, projectID int64) tea.Model {
	return &VouchersModel{
		app:        a,
		projectID:  projectID,
		maxVisible: 15,
		loading:    true,
	}
}

func (m *VouchersModel) Init() tea.Cmd {
	return m.loadVouchers()
}

func (m *VouchersModel) loadVouchers() tea.Cmd {
	availableOnly := m.availableOnly
	return func() tea.Msg {
		ctx := context.Background()
		var (
			vouchers []*domain.Voucher
			err      error
		)
		if availableOnly {
			vouchers, err = m.app.VoucherService.ListAvailable(ctx, m.projectID, repository.VoucherFilters{})
		} else {
			vouchers, err = m.app.VoucherService.List(ctx, m.projectID, repository.VoucherFilters{})
		}
		if err != nil {
			return vouchersDataMsg{err: err}
		}
		return vouchersDataMsg{vouchers: vouchers}
	}
}

func (m *VouchersModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case vouchersDataMsg:
		m.loading = false
		m.err = msg.err
		m.vouchers = msg.vouchers
		if m.cursor >= len(m.vouchers) {
			m.cursor = 0
			m.offset = 0
		}
		return m, nil

	case RefreshDataMsg:
		m.loading = true
		return m, m.loadVouchers()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}

		case key.Matches(msg, DefaultKeyMap.Down):
			if m.cursor < len(m.vouchers)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.maxVisible {
					m.offset = m.cursor - m.maxVisible + 1
				}
			}

		case key.Matches(msg, DefaultKeyMap.Filter):
			m.availableOnly = !m.availableOnly
			m.cursor = 0
			m.offset = 0
			m.loading = true
			return m, m.loadVouchers()
		}
	}

	return m, nil
}

func (m *VouchersModel) View() string {
	if m.loading {
		return "Loading vouchers..."
	}

	if m.err != nil {
		return lipgloss.NewStyle().Foreground(errorColor).
			Render(fmt.Sprintf("Error: %v", m.err))
	}

	scope := "all"
	if m.availableOnly {
		scope = "available only"
	}
	s := subtitleStyle.Render("  showing: "+scope) + "\n\n"

	if len(m.vouchers) == 0 {
		s += subtitleStyle.Render("  No vouchers")
		return s + "\n\n" + helpStyle.Render("  f: toggle available filter")
	}

	s += fmt.Sprintf("  %-12s %-20s %-12s %10s %-6s %12s %s\n",
		"Type", "Supplier", "Date", "Qty", "Unit", "Amount", "Invoice")

	end := m.offset + m.maxVisible
	if end > len(m.vouchers) {
		end = len(m.vouchers)
	}

	for i := m.offset; i < end; i++ {
		v := m.vouchers[i]

		invoiceRef := "-"
		if v.InvoiceID != nil {
			invoiceRef = fmt.Sprintf("#%d", *v.InvoiceID)
		}
		amount := "-"
		if v.UnitPrice != nil {
			amount = formatMoney(v.Amount())
		}

		line := fmt.Sprintf("%-12s %-20s %-12s %10.2f %-6s %12s %s",
			v.Type,
			truncateStr(v.Supplier, 20),
			v.Date.Format("02/01/2006"),
			v.Quantity,
			v.Unit,
			amount,
			invoiceRef,
		)

		if i == m.cursor {
			s += selectedStyle.Render("> "+line) + "\n"
		} else {
			s += "  " + line + "\n"
		}
	}

	s += "\n" + helpStyle.Render("  f: toggle available filter")
	return s
}

package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/bobzap/batisync/internal/app"
	"github.com/bobzap/batisync/internal/domain"
	"github.com/bobzap/batisync/internal/repository"
	"github.com/bobzap/batisync/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type invoiceMode int

const (
	invoiceModeList invoiceMode = iota
	invoiceModeDetail
	invoiceModeConfirmDelete
)

// invoiceSortFields is the cycle order for the sort key
var invoiceSortFields = []service.SortField{
	service.SortByDate,
	service.SortByDueDate,
	service.SortByNumber,
	service.SortBySupplier,
	service.SortByAmountTTC,
	service.SortByStatus,
}

// InvoicesModel displays a sortable list of the project's invoices
type InvoicesModel struct {
	app       *app.App
	projectID int64

	invoices   []*domain.Invoice
	cursor     int
	offset     int
	maxVisible int
	loading    bool
	err        error
	statusMsg  string

	mode     invoiceMode
	detail   *domain.Invoice
	sortIdx  int
	sortDesc bool
}

type invoicesDataMsg struct {
	invoices []*domain.Invoice
	err      error
}

type invoiceDetailMsg struct {
	invoice *domain.Invoice
	err     error
}

type invoiceDeletedMsg struct {
	err error
}

// IsCapturingInput returns true when the delete confirmation is active
func (m *InvoicesModel) IsCapturingInput() bool {
	return m.mode == invoiceModeConfirmDelete
}

// NewInvoicesModel creates a new invoices screen model
func NewInvoicesModel(a *app.App, projectID int64) tea.Model {
	return &InvoicesModel{
		app:        a,
		projectID:  projectID,
		maxVisible: 15,
		loading:    true,
	}
}

func (m *InvoicesModel) Init() tea.Cmd {
	return m.loadInvoices()
}

func (m *InvoicesModel) loadInvoices() tea.Cmd {
	return func() tea.Msg {
		invoices, err := m.app.InvoiceService.List(context.Background(), m.projectID, repository.InvoiceFilters{})
		if err != nil {
			return invoicesDataMsg{err: err}
		}
		return invoicesDataMsg{invoices: invoices}
	}
}

func (m *InvoicesModel) loadDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		invoice, err := m.app.InvoiceService.Get(context.Background(), id)
		if err != nil {
			return invoiceDetailMsg{err: err}
		}
		return invoiceDetailMsg{invoice: invoice}
	}
}

func (m *InvoicesModel) deleteSelected() tea.Cmd {
	if m.cursor >= len(m.invoices) {
		return nil
	}
	id := m.invoices[m.cursor].ID
	return func() tea.Msg {
		return invoiceDeletedMsg{err: m.app.InvoiceService.Delete(context.Background(), id)}
	}
}

// applySort re-sorts the list in place with the current key and direction
func (m *InvoicesModel) applySort() {
	service.SortInvoices(m.invoices, invoiceSortFields[m.sortIdx], m.sortDesc)
}

func (m *InvoicesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case invoicesDataMsg:
		m.loading = false
		m.err = msg.err
		m.invoices = msg.invoices
		m.applySort()
		if m.cursor >= len(m.invoices) {
			m.cursor = 0
			m.offset = 0
		}
		return m, nil

	case invoiceDetailMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.detail = msg.invoice
		m.mode = invoiceModeDetail
		return m, nil

	case invoiceDeletedMsg:
		m.mode = invoiceModeList
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusMsg = "Invoice deleted"
		m.loading = true
		return m, m.loadInvoices()

	case RefreshDataMsg:
		m.loading = true
		return m, m.loadInvoices()

	case tea.KeyMsg:
		switch m.mode {
		case invoiceModeConfirmDelete:
			switch msg.String() {
			case "y", "Y":
				return m, m.deleteSelected()
			default:
				m.mode = invoiceModeList
			}
			return m, nil

		case invoiceModeDetail:
			if key.Matches(msg, DefaultKeyMap.Back) {
				m.mode = invoiceModeList
				m.detail = nil
			}
			return m, nil
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m *InvoicesModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = ""

	switch {
	case key.Matches(msg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}

	case key.Matches(msg, DefaultKeyMap.Down):
		if m.cursor < len(m.invoices)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.maxVisible {
				m.offset = m.cursor - m.maxVisible + 1
			}
		}

	case key.Matches(msg, DefaultKeyMap.Sort):
		// A second press on the same key flips direction, then the next
		// press moves to the next sort field
		if m.sortDesc {
			m.sortIdx = (m.sortIdx + 1) % len(invoiceSortFields)
			m.sortDesc = false
		} else {
			m.sortDesc = true
		}
		m.applySort()

	case key.Matches(msg, DefaultKeyMap.Select):
		if m.cursor < len(m.invoices) {
			return m, m.loadDetail(m.invoices[m.cursor].ID)
		}

	case key.Matches(msg, DefaultKeyMap.Delete):
		if m.cursor < len(m.invoices) {
			m.mode = invoiceModeConfirmDelete
		}
	}

	return m, nil
}

func (m *InvoicesModel) View() string {
	if m.loading {
		return "Loading invoices..."
	}

	if m.err != nil {
		return lipgloss.NewStyle().Foreground(errorColor).
			Render(fmt.Sprintf("Error: %v", m.err))
	}

	switch m.mode {
	case invoiceModeDetail:
		return m.viewDetail()
	case invoiceModeConfirmDelete:
		inv := m.invoices[m.cursor]
		return fmt.Sprintf("  Delete invoice %s and release its vouchers? [y/N]", inv.Number)
	}

	return m.viewList()
}

func (m *InvoicesModel) viewList() string {
	if len(m.invoices) == 0 {
		return subtitleStyle.Render("  No invoices for this project")
	}

	dir := "asc"
	if m.sortDesc {
		dir = "desc"
	}
	s := subtitleStyle.Render(fmt.Sprintf("  sort: %s (%s)", invoiceSortFields[m.sortIdx], dir)) + "\n\n"

	s += fmt.Sprintf("  %-12s %-20s %-12s %-12s %12s %-10s %s\n",
		"Number", "Supplier", "Date", "Due", "TTC", "Status", "Payment")

	now := time.Now()
	end := m.offset + m.maxVisible
	if end > len(m.invoices) {
		end = len(m.invoices)
	}

	for i := m.offset; i < end; i++ {
		inv := m.invoices[i]

		payment := "-"
		if inv.IsPaid() {
			payment = paidStyle.Render(inv.PaymentDate.Format("02/01/2006"))
		} else if inv.IsOverdue(now) {
			payment = overdueStyle.Render("overdue")
		} else if inv.IsDueSoon(now) {
			payment = dueSoonStyle.Render("due soon")
		}

		line := fmt.Sprintf("%-12s %-20s %-12s %-12s %12s %-10s %s",
			truncateStr(inv.Number, 12),
			truncateStr(inv.Supplier, 20),
			inv.Date.Format("02/01/2006"),
			inv.DueDate.Format("02/01/2006"),
			formatMoney(inv.AmountTTC),
			inv.Status,
			payment,
		)

		if i == m.cursor {
			s += selectedStyle.Render("> "+line) + "\n"
		} else {
			s += "  " + line + "\n"
		}
	}

	if m.statusMsg != "" {
		s += "\n" + lipgloss.NewStyle().Foreground(successColor).Render("  "+m.statusMsg)
	}

	s += "\n" + helpStyle.Render("  enter: details   s: sort   x: delete")
	return s
}

func (m *InvoicesModel) viewDetail() string {
	inv := m.detail
	if inv == nil {
		return "Loading..."
	}

	s := titleStyle.Render("  Invoice "+inv.Number) + "\n\n"
	s += fmt.Sprintf("  Supplier: %s\n", inv.Supplier)
	if inv.Reference != "" {
		s += fmt.Sprintf("  Reference: %s\n", inv.Reference)
	}
	s += fmt.Sprintf("  Issued: %s   Due: %s\n",
		inv.Date.Format("02/01/2006"),
		inv.DueDate.Format("02/01/2006"))
	s += fmt.Sprintf("  Status: %s\n", inv.Status.Label())
	if inv.IsPaid() {
		s += "  Paid: " + paidStyle.Render(inv.PaymentDate.Format("02/01/2006"))
		if inv.PaymentReference != "" {
			s += " (" + inv.PaymentReference + ")"
		}
		s += "\n"
	}
	s += "\n"

	if len(inv.Links) > 0 {
		s += "  Linked vouchers:\n"
		var total float64
		for _, link := range inv.Links {
			s += fmt.Sprintf("    #%-6d %12s\n", link.VoucherID, formatMoney(link.Amount))
			total += link.Amount
		}
		s += fmt.Sprintf("    Total:  %12s\n\n", formatMoney(domain.Round2(total)))
	}

	if len(inv.Documents) > 0 {
		s += "  Documents:\n"
		for _, doc := range inv.Documents {
			s += fmt.Sprintf("    #%d %s\n", doc.ID, doc.Name)
		}
		s += "\n"
	}

	s += fmt.Sprintf("  Amount HT:  %s\n", formatMoney(inv.AmountHT))
	s += fmt.Sprintf("  VAT rate:   %.2f%%\n", inv.VATRate)
	s += fmt.Sprintf("  Amount TTC: %s\n", formatMoney(inv.AmountTTC))

	s += "\n" + helpStyle.Render("  esc: back")
	return s
}

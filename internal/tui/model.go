package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobzap/batisync/internal/app"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen represents the current active screen
type Screen int

const (
	ScreenProjects Screen = iota
	ScreenDashboard
	ScreenInvoices
	ScreenVouchers
)

// String returns the screen name
func (s Screen) String() string {
	switch s {
	case ScreenProjects:
		return "Projects"
	case ScreenDashboard:
		return "Dashboard"
	case ScreenInvoices:
		return "Invoices"
	case ScreenVouchers:
		return "Vouchers"
	default:
		return "Unknown"
	}
}

// Model is the root Bubble Tea model
type Model struct {
	app           *app.App
	currentScreen Screen
	projectID     int64 // 0 until a project is selected
	projectName   string
	width         int
	height        int

	// Screen models (lazy initialized)
	projects  tea.Model
	dashboard tea.Model
	invoices  tea.Model
	vouchers  tea.Model

	// First-run state
	checkedFirstRun bool

	// Error state
	err error
}

// New creates a new root model
func New(a *app.App) Model {
	projects := NewProjectsModel(a)
	return Model{
		app:           a,
		currentScreen: ScreenProjects,
		projects:      projects,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.checkFirstRun(),
	}
	if m.projects != nil {
		cmds = append(cmds, m.projects.Init())
	}
	return tea.Batch(cmds...)
}

// checkFirstRun checks if any projects exist in the database
func (m *Model) checkFirstRun() tea.Cmd {
	return func() tea.Msg {
		projects, err := m.app.ProjectRepo.List(context.Background(), false)
		if err != nil {
			return firstRunCheckMsg{hasProjects: true} // assume yes on error
		}
		return firstRunCheckMsg{hasProjects: len(projects) > 0}
	}
}

// initScreen lazy-initializes a screen on first visit,
// and sends a RefreshDataMsg on subsequent visits so screens reload data.
func (m *Model) initScreen(screen Screen) tea.Cmd {
	switch screen {
	case ScreenProjects:
		if m.projects == nil {
			m.projects = NewProjectsModel(m.app)
			return m.projects.Init()
		}
		return func() tea.Msg { return RefreshDataMsg{} }
	case ScreenDashboard:
		if m.dashboard == nil {
			m.dashboard = NewDashboardModel(m.app, m.projectID)
			return m.dashboard.Init()
		}
		return func() tea.Msg { return RefreshDataMsg{} }
	case ScreenInvoices:
		if m.invoices == nil {
			m.invoices = NewInvoicesModel(m.app, m.projectID)
			return m.invoices.Init()
		}
		return func() tea.Msg { return RefreshDataMsg{} }
	case ScreenVouchers:
		if m.vouchers == nil {
			m.vouchers = NewVouchersModel(m.app, m.projectID)
			return m.vouchers.Init()
		}
		return func() tea.Msg { return RefreshDataMsg{} }
	}
	return nil
}

// InputCapturer is implemented by screens that capture keyboard input (e.g. text forms).
// When active, global navigation keys (P, D, I, V, Q) are suppressed.
type InputCapturer interface {
	IsCapturingInput() bool
}

// activeScreen returns the model for the current screen
func (m *Model) activeScreen() tea.Model {
	switch m.currentScreen {
	case ScreenProjects:
		return m.projects
	case ScreenDashboard:
		return m.dashboard
	case ScreenInvoices:
		return m.invoices
	case ScreenVouchers:
		return m.vouchers
	}
	return nil
}

// activeScreenCapturingInput returns true if the current screen is capturing text input
func (m *Model) activeScreenCapturingInput() bool {
	if ic, ok := m.activeScreen().(InputCapturer); ok {
		return ic.IsCapturingInput()
	}
	return false
}

// Update implements tea.Model - routes keys to screens
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Skip global navigation when a screen is capturing text input
		if !m.activeScreenCapturingInput() {
			// Global key handlers (screen navigation)
			switch {
			case key.Matches(msg, DefaultKeyMap.Quit):
				return m, tea.Quit

			case key.Matches(msg, DefaultKeyMap.Projects):
				m.currentScreen = ScreenProjects
				cmd := m.initScreen(ScreenProjects)
				return m, cmd

			case key.Matches(msg, DefaultKeyMap.Dashboard):
				if m.projectID != 0 {
					m.currentScreen = ScreenDashboard
					cmd := m.initScreen(ScreenDashboard)
					return m, cmd
				}

			case key.Matches(msg, DefaultKeyMap.Invoices):
				if m.projectID != 0 {
					m.currentScreen = ScreenInvoices
					cmd := m.initScreen(ScreenInvoices)
					return m, cmd
				}

			case key.Matches(msg, DefaultKeyMap.Vouchers):
				if m.projectID != 0 {
					m.currentScreen = ScreenVouchers
					cmd := m.initScreen(ScreenVouchers)
					return m, cmd
				}
			}
		}

	case firstRunCheckMsg:
		if !m.checkedFirstRun && !msg.hasProjects {
			m.checkedFirstRun = true
			openFormCmd := func() tea.Msg { return OpenNewProjectFormMsg{} }
			return m, openFormCmd
		}
		m.checkedFirstRun = true
		return m, nil

	case ProjectSelectedMsg:
		m.projectID = msg.ID
		m.projectName = msg.Name
		// Screens are scoped to a project; drop any built for the old one
		m.dashboard = nil
		m.invoices = nil
		m.vouchers = nil
		m.currentScreen = ScreenDashboard
		cmd := m.initScreen(ScreenDashboard)
		return m, cmd

	case SwitchScreenMsg:
		m.currentScreen = msg.Screen
		cmd := m.initScreen(msg.Screen)
		return m, cmd

	case ErrorMsg:
		m.err = msg.Err
		return m, nil
	}

	// Route message to current screen
	var cmd tea.Cmd
	switch m.currentScreen {
	case ScreenProjects:
		if m.projects != nil {
			m.projects, cmd = m.projects.Update(msg)
		}
	case ScreenDashboard:
		if m.dashboard != nil {
			m.dashboard, cmd = m.dashboard.Update(msg)
		}
	case ScreenInvoices:
		if m.invoices != nil {
			m.invoices, cmd = m.invoices.Update(msg)
		}
	case ScreenVouchers:
		if m.vouchers != nil {
			m.vouchers, cmd = m.vouchers.Update(msg)
		}
	}

	return m, cmd
}

// View implements tea.Model - renders header + current screen + footer
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	// Header
	title := fmt.Sprintf("batisync - %s", m.currentScreen.String())
	if m.projectName != "" {
		title = fmt.Sprintf("batisync - %s - %s", m.projectName, m.currentScreen.String())
	}
	header := headerStyle.Render(title)

	// Footer with navigation keys
	footer := footerStyle.Render("[P]rojects  [D]ashboard  [I]nvoices  [V]ouchers  [Q]uit")

	// Current screen content
	content := "Loading..."
	if screen := m.activeScreen(); screen != nil {
		content = screen.View()
	}

	// Error display
	errorDisplay := ""
	if m.err != nil {
		errorDisplay = lipgloss.NewStyle().
			Foreground(errorColor).
			Render(fmt.Sprintf("\nError: %s", m.err.Error()))
	}

	// Divider line between header and content
	innerWidth := m.width - 6 // account for border (2) + padding (4)
	if innerWidth < 20 {
		innerWidth = 20
	}
	dividerWidth := innerWidth - 12
	if dividerWidth < 10 {
		dividerWidth = 10
	}
	divider := lipgloss.NewStyle().Foreground(borderColor).Render(
		strings.Repeat("─", dividerWidth),
	)

	body := fmt.Sprintf("%s\n%s\n\n%s%s\n\n%s\n%s", header, divider, content, errorDisplay, divider, footer)

	// Wrap in border, sized to terminal
	frame := appBorderStyle.
		Width(innerWidth).
		Height(m.height - 4) // leave room for border top/bottom
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, frame.Render(body))
}

// Run starts the TUI
func Run(a *app.App) error {
	p := tea.NewProgram(New(a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

package tui

import (
	"context"

	"github.com/bobzap/batisync/internal/app"
	"github.com/bobzap/batisync/internal/domain"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type projectMode int

const (
	projectModeList projectMode = iota
	projectModeNew
)

// ProjectsModel lets the user pick or create a project
type ProjectsModel struct {
	app      *app.App
	projects []*domain.Project
	cursor   int
	loading  bool
	err      error

	// Form state
	mode      projectMode
	nameInput textinput.Model
	codeInput textinput.Model
	formFocus int
}

type projectsDataMsg struct {
	projects []*domain.Project
	err      error
}

type projectSavedMsg struct {
	err error
}

// IsCapturingInput returns true when the new project form is active
func (m *ProjectsModel) IsCapturingInput() bool {
	return m.mode == projectModeNew
}

// NewProjectsModel creates a new projects screen model
func NewProjectsModel(a *app.App) tea.Model {
	return &ProjectsModel{
		app:     a,
		loading: true,
	}
}

func (m *ProjectsModel) Init() tea.Cmd {
	return m.loadProjects()
}

func (m *ProjectsModel) loadProjects() tea.Cmd {
	return func() tea.Msg {
		projects, err := m.app.ProjectRepo.List(context.Background(), false)
		if err != nil {
			return projectsDataMsg{err: err}
		}
		return projectsDataMsg{projects: projects}
	}
}

func (m *ProjectsModel) openForm() {
	m.nameInput = textinput.New()
	m.nameInput.Placeholder = "Project name"
	m.nameInput.CharLimit = 100
	m.nameInput.Width = 40
	m.nameInput.Focus()

	m.codeInput = textinput.New()
	m.codeInput.Placeholder = "Site code (optional)"
	m.codeInput.CharLimit = 20
	m.codeInput.Width = 20

	m.formFocus = 0
	m.mode = projectModeNew
}

func (m *ProjectsModel) saveProject() tea.Cmd {
	name := m.nameInput.Value()
	code := m.codeInput.Value()
	return func() tea.Msg {
		project := domain.NewProject(name, code)
		if err := project.Validate(); err != nil {
			return projectSavedMsg{err: err}
		}
		if err := m.app.ProjectRepo.Create(context.Background(), project); err != nil {
			return projectSavedMsg{err: err}
		}
		return projectSavedMsg{}
	}
}

func (m *ProjectsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case projectsDataMsg:
		m.loading = false
		m.err = msg.err
		m.projects = msg.projects
		if m.cursor >= len(m.projects) {
			m.cursor = 0
		}
		return m, nil

	case projectSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.mode = projectModeList
		m.loading = true
		return m, m.loadProjects()

	case RefreshDataMsg:
		m.loading = true
		return m, m.loadProjects()

	case OpenNewProjectFormMsg:
		m.openForm()
		return m, textinput.Blink

	case tea.KeyMsg:
		if m.mode == projectModeNew {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m *ProjectsModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, DefaultKeyMap.Down):
		if m.cursor < len(m.projects)-1 {
			m.cursor++
		}
	case key.Matches(msg, DefaultKeyMap.New):
		m.openForm()
		return m, textinput.Blink
	case key.Matches(msg, DefaultKeyMap.Select):
		if m.cursor < len(m.projects) {
			project := m.projects[m.cursor]
			return m, func() tea.Msg {
				return ProjectSelectedMsg{ID: project.ID, Name: project.Name}
			}
		}
	}
	return m, nil
}

func (m *ProjectsModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = projectModeList
		return m, nil
	case "tab", "shift+tab":
		m.formFocus = (m.formFocus + 1) % 2
		if m.formFocus == 0 {
			m.nameInput.Focus()
			m.codeInput.Blur()
		} else {
			m.nameInput.Blur()
			m.codeInput.Focus()
		}
		return m, textinput.Blink
	case "enter":
		return m, m.saveProject()
	}

	var cmd tea.Cmd
	if m.formFocus == 0 {
		m.nameInput, cmd = m.nameInput.Update(msg)
	} else {
		m.codeInput, cmd = m.codeInput.Update(msg)
	}
	return m, cmd
}

func (m *ProjectsModel) View() string {
	if m.loading {
		return "Loading projects..."
	}

	if m.mode == projectModeNew {
		return m.viewForm()
	}

	if m.err != nil {
		return lipgloss.NewStyle().Foreground(errorColor).
			Render("Error: " + m.err.Error())
	}

	if len(m.projects) == 0 {
		return subtitleStyle.Render("  No projects yet. Press 'n' to create one.")
	}

	s := titleStyle.Render("  Select a project") + "\n\n"
	for i, project := range m.projects {
		line := "  " + project.Name
		if project.Code != "" {
			line += "  " + subtitleStyle.Render("["+project.Code+"]")
		}
		if i == m.cursor {
			line = selectedStyle.Render("> " + project.Name)
			if project.Code != "" {
				line += "  " + subtitleStyle.Render("["+project.Code+"]")
			}
		}
		s += line + "\n"
	}

	s += "\n" + helpStyle.Render("  enter: open   n: new project")
	return s
}

func (m *ProjectsModel) viewForm() string {
	s := titleStyle.Render("  New project") + "\n\n"
	s += "  Name: " + m.nameInput.View() + "\n"
	s += "  Code: " + m.codeInput.View() + "\n"
	if m.err != nil {
		s += "\n" + lipgloss.NewStyle().Foreground(errorColor).Render("  "+m.err.Error())
	}
	s += "\n" + helpStyle.Render("  tab: next field   enter: save   esc: cancel")
	return s
}

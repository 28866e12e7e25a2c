package tui

// SwitchScreenMsg requests a screen change
type SwitchScreenMsg struct {
	Screen Screen
}

// RefreshDataMsg requests data refresh
type RefreshDataMsg struct{}

// ErrorMsg carries error information
type ErrorMsg struct {
	Err error
}

// ProjectSelectedMsg announces the project the user picked; the
// dashboard, invoices, and vouchers screens are scoped to it
type ProjectSelectedMsg struct {
	ID   int64
	Name string
}

// OpenNewProjectFormMsg tells the projects screen to open the new project form
type OpenNewProjectFormMsg struct{}

// firstRunCheckMsg reports whether the database has any projects
type firstRunCheckMsg struct {
	hasProjects bool
}

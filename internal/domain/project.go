package domain

import (
	"errors"
	"time"
)

// Project scopes vouchers and invoices to a construction site
type Project struct {
	ID         int64
	Name       string
	Code       string // short site code, optional
	IsArchived bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewProject creates a new active project
func NewProject(name, code string) *Project {
	now := time.Now()
	return &Project{
		Name:      name,
		Code:      code,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate returns an error if the project is invalid
func (p *Project) Validate() error {
	if p.Name == "" {
		return errors.New("project name is required")
	}
	return nil
}

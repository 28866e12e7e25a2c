package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// parseDate parses a flexible date string
func parseDate(s string) (time.Time, error) {
	switch s {
	case "today":
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	case "yesterday":
		now := time.Now().AddDate(0, 0, -1)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	default:
		// Try dd/mm/yyyy first, then YYYY-MM-DD
		if t, err := time.Parse("02/01/2006", s); err == nil {
			return t, nil
		}
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("expected format: dd/mm/yyyy, YYYY-MM-DD, 'today', or 'yesterday'")
		}
		return t, nil
	}
}

// parseID parses a numeric command-line argument
func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s ID '%s'", what, s)
	}
	return id, nil
}

// resolveProjectID resolves a project argument that may be an ID or a name
func resolveProjectID(ctx context.Context, idOrName string) (int64, error) {
	// Try to parse as ID first
	if id, err := strconv.ParseInt(idOrName, 10, 64); err == nil {
		project, err := appInstance.ProjectRepo.GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		return project.ID, nil
	}

	// Try to find by name
	project, err := appInstance.ProjectRepo.GetByName(ctx, idOrName)
	if err != nil {
		return 0, fmt.Errorf("project '%s' not found", idOrName)
	}
	return project.ID, nil
}

// truncate shortens a string for table display
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// Package audit fetches the admin-only audit log.
package audit

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/tgienger/taskr/internal/models"
)

// ErrAdminOnly is returned for non-admin viewers; no request is made
var ErrAdminOnly = errors.New("audit log is available to admins only")

// Backend is the subset of the API client used for the audit log
type Backend interface {
	ListAudit(ctx context.Context) ([]models.AuditEntry, error)
}

// Fetch returns the audit log, most recent first
func Fetch(ctx context.Context, b Backend, viewer models.Viewer) ([]models.AuditEntry, error) {
	if !viewer.Admin {
		return nil, ErrAdminOnly
	}
	entries, err := b.ListAudit(ctx)
	if err != nil {
		return nil, fmt.Errorf("load audit log: %w", err)
	}
	SortRecent(entries)
	return entries, nil
}

// SortRecent orders entries by updated-or-created time, newest first
func SortRecent(entries []models.AuditEntry) {
	slices.SortStableFunc(entries, func(a, b models.AuditEntry) int {
		return b.When().Compare(a.When())
	})
}

// TaskTitle returns the entry's task title, or "-"
func TaskTitle(e models.AuditEntry) string {
	if e.TaskTitle == "" {
		return "-"
	}
	return e.TaskTitle
}

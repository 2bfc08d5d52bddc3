package repository

import (
	"context"
	"errors"

	"vlanislands/internal/domain"
)

// ErrRunNotFound is returned when no run matches the requested id
var ErrRunNotFound = errors.New("run not found")

// ListOptions narrows a run listing
type ListOptions struct {
	// Limit caps the number of runs returned; 0 means no limit
	Limit int
	// Source filters on the exact input source name
	Source string
	// UnhealthyOnly keeps runs with at least one fragmented VLAN
	UnhealthyOnly bool
}

// RunRepository defines the interface for analysis run persistence
type RunRepository interface {
	// Write operations
	SaveRun(ctx context.Context, run *domain.Run) error
	DeleteRun(ctx context.Context, id string) error

	// Read operations. Listed runs omit the report body; GetRun and
	// LatestRun return it.
	GetRun(ctx context.Context, id string) (*domain.Run, error)
	ListRuns(ctx context.Context, opts ListOptions) ([]*domain.Run, error)
	LatestRun(ctx context.Context, source string) (*domain.Run, error)

	// Close releases resources
	Close() error
}

package ports

import (
	"context"

	"github.com/aretw0/becas/pkg/domain"
)

// ScholarshipRepository is the read side of the scholarship catalog.
type ScholarshipRepository interface {
	// FindByFilters returns scholarships matching every set filter.
	// Unset filters and domain.AnyValue are wildcards.
	// Returns domain.ErrNoResults when nothing matches.
	FindByFilters(ctx context.Context, filters domain.Filters) ([]domain.Scholarship, error)

	// Criteria lists the distinct catalog values of a field.
	Criteria(ctx context.Context, field domain.Field) ([]string, error)

	// Names lists every scholarship name.
	Names(ctx context.Context) ([]string, error)

	// Requirements returns the requirements of the named scholarship.
	// Returns domain.ErrNoResults when the scholarship is unknown or has none.
	Requirements(ctx context.Context, name string) ([]domain.Requirement, error)

	// Deadlines returns the deadlines of the named scholarship.
	// Returns domain.ErrNoResults when the scholarship is unknown or has none.
	Deadlines(ctx context.Context, name string) ([]domain.Deadline, error)
}

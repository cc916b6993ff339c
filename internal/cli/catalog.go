package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/becas/internal/config"
	loamcatalog "github.com/aretw0/becas/pkg/adapters/loam"
	"github.com/aretw0/becas/pkg/adapters/memory"
	"github.com/aretw0/becas/pkg/adapters/postgres"
	"github.com/aretw0/becas/pkg/domain"
	"github.com/aretw0/becas/pkg/ports"
)

type upserter interface {
	Upsert(ctx context.Context, s domain.Scholarship) error
}

// ImportCatalog copies a YAML file or markdown directory into the PostgreSQL
// catalog of cfg, creating the schema first. It returns the number of entries written.
func ImportCatalog(ctx context.Context, cfg *config.Config, source string, logger *slog.Logger) (int, error) {
	if cfg.Catalog.DSN == "" {
		return 0, errors.New("catalog.dsn (or BECAS_DATABASE_URL) is required to import")
	}
	src, err := openSource(ctx, source, logger)
	if err != nil {
		return 0, err
	}

	repo, err := postgres.Connect(ctx, cfg.Catalog.DSN)
	if err != nil {
		return 0, fmt.Errorf("error connecting to postgres: %w", err)
	}
	defer repo.Close()

	if err := repo.Migrate(ctx); err != nil {
		return 0, err
	}
	return copyCatalog(ctx, src, repo, logger)
}

func openSource(ctx context.Context, source string, logger *slog.Logger) (ports.ScholarshipRepository, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog source: %w", err)
	}
	if info.IsDir() {
		return loamcatalog.Open(ctx, source, logger.With("component", "catalog"))
	}
	return memory.LoadCatalog(source)
}

func copyCatalog(ctx context.Context, src ports.ScholarshipRepository, dst upserter, logger *slog.Logger) (int, error) {
	// No filter set matches every entry.
	items, err := src.FindByFilters(ctx, domain.Filters{})
	if errors.Is(err, domain.ErrNoResults) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	for i, s := range items {
		if err := dst.Upsert(ctx, s); err != nil {
			return i, fmt.Errorf("error importing %q: %w", s.Name, err)
		}
		logger.Debug("Scholarship imported", "name", s.Name)
	}
	return len(items), nil
}

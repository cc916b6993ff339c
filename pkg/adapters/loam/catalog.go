// Package loam serves the scholarship catalog from a directory of
// markdown documents managed by Loam. Each document is one scholarship:
// the front matter carries its criteria and the body its description.
package loam

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/aretw0/becas/pkg/adapters/memory"
	"github.com/aretw0/becas/pkg/domain"
	"github.com/aretw0/loam"
)

// Catalog implements ports.ScholarshipRepository on top of a Loam repository.
// Documents are read into an in-memory snapshot; Reload and Watch refresh it.
type Catalog struct {
	Repo   *loam.TypedRepository[ScholarshipMetadata]
	logger *slog.Logger

	mu       sync.RWMutex
	snapshot *memory.Catalog
}

// New creates a catalog over repo and performs the first load.
func New(ctx context.Context, repo *loam.TypedRepository[ScholarshipMetadata], logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Catalog{Repo: repo, logger: logger}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Open initializes a read-only Loam repository at dir.
func Open(ctx context.Context, dir string, logger *slog.Logger) (*Catalog, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", dir, err)
	}
	return New(ctx, loam.NewTypedRepository[ScholarshipMetadata](repo), logger)
}

// Reload reads every document again and swaps the snapshot.
// Two documents naming the same scholarship are rejected.
func (c *Catalog) Reload(ctx context.Context) error {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	items := make([]domain.Scholarship, 0, len(docs))
	for _, doc := range docs {
		s := toScholarship(doc.ID, doc.Data, doc.Content)
		if existing, ok := seen[s.Name]; ok {
			return fmt.Errorf("collision detected: scholarship '%s' is defined in both '%s' and '%s'", s.Name, existing, doc.ID)
		}
		seen[s.Name] = doc.ID
		items = append(items, s)
	}

	c.mu.Lock()
	c.snapshot = memory.NewCatalog(items...)
	c.mu.Unlock()

	c.logger.Debug("catalog loaded", "scholarships", len(items))
	return nil
}

// Watch reloads the snapshot whenever a document changes, until ctx is done.
// The returned channel receives the ID of each changed document after reload.
func (c *Catalog) Watch(ctx context.Context) (<-chan string, error) {
	events, err := c.Repo.Watch(ctx, "**/*.md")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				if err := c.Reload(ctx); err != nil {
					c.logger.Error("catalog reload failed", "doc", evt.ID, "err", err)
					continue
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func (c *Catalog) current() *memory.Catalog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

func (c *Catalog) FindByFilters(ctx context.Context, filters domain.Filters) ([]domain.Scholarship, error) {
	return c.current().FindByFilters(ctx, filters)
}

func (c *Catalog) Criteria(ctx context.Context, field domain.Field) ([]string, error) {
	return c.current().Criteria(ctx, field)
}

func (c *Catalog) Names(ctx context.Context) ([]string, error) {
	return c.current().Names(ctx)
}

func (c *Catalog) Requirements(ctx context.Context, name string) ([]domain.Requirement, error) {
	return c.current().Requirements(ctx, name)
}

func (c *Catalog) Deadlines(ctx context.Context, name string) ([]domain.Deadline, error) {
	return c.current().Deadlines(ctx, name)
}

package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/aretw0/becas/internal/textutil"
	"github.com/aretw0/becas/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Catalog implements ports.ScholarshipRepository over a fixed list.
// It is read-only after construction and safe for concurrent use.
type Catalog struct {
	items []domain.Scholarship
}

type catalogFile struct {
	Scholarships []domain.Scholarship `yaml:"scholarships"`
}

// NewCatalog creates a catalog from the given scholarships.
func NewCatalog(items ...domain.Scholarship) *Catalog {
	return &Catalog{items: slices.Clone(items)}
}

// ParseCatalog reads a YAML document with a top-level "scholarships" list.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	for i, s := range f.Scholarships {
		if s.Name == "" {
			return nil, fmt.Errorf("catalog entry %d has no name", i)
		}
	}
	return NewCatalog(f.Scholarships...), nil
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

func (c *Catalog) FindByFilters(ctx context.Context, filters domain.Filters) ([]domain.Scholarship, error) {
	var out []domain.Scholarship
	for _, s := range c.items {
		if s.MatchesFilters(filters) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrNoResults
	}
	return out, nil
}

func (c *Catalog) Criteria(ctx context.Context, field domain.Field) ([]string, error) {
	if !field.Valid() {
		return nil, &domain.FieldNotFoundError{Alias: string(field)}
	}
	seen := map[string]bool{}
	var out []string
	for _, s := range c.items {
		v := s.Value(field)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func (c *Catalog) Names(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(c.items))
	for _, s := range c.items {
		out = append(out, s.Name)
	}
	sort.Strings(out)
	return out, nil
}

func (c *Catalog) Requirements(ctx context.Context, name string) ([]domain.Requirement, error) {
	s, ok := c.find(name)
	if !ok || len(s.Requirements) == 0 {
		return nil, domain.ErrNoResults
	}
	return slices.Clone(s.Requirements), nil
}

func (c *Catalog) Deadlines(ctx context.Context, name string) ([]domain.Deadline, error) {
	s, ok := c.find(name)
	if !ok || len(s.Deadlines) == 0 {
		return nil, domain.ErrNoResults
	}
	return slices.Clone(s.Deadlines), nil
}

// find matches names ignoring case, accents and underscores.
func (c *Catalog) find(name string) (domain.Scholarship, bool) {
	want := foldName(name)
	for _, s := range c.items {
		if foldName(s.Name) == want {
			return s, true
		}
	}
	return domain.Scholarship{}, false
}

func foldName(s string) string {
	return textutil.Fold(domain.Pretty(s))
}

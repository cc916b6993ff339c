package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/becas/pkg/adapters/memory"
	"github.com/aretw0/becas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
scholarships:
  - name: beca_general
    description: Ayuda general al estudio.
    area: cualquiera
    education_level: grado
    location: cualquiera
    organization: ministerio
    requirements:
      - name: renta
        description: No superar los umbrales de renta.
    deadlines:
      - name: solicitud
        date: "2026-05-15"
  - name: fundacion_carolina_doctorado
    description: Doctorado en universidades españolas.
    area: ingenieria
    education_level: doctorado
    location: madrid
    organization: fundacion_carolina
`

func loadCatalog(t *testing.T) *memory.Catalog {
	t.Helper()
	c, err := memory.ParseCatalog([]byte(catalogYAML))
	require.NoError(t, err)
	return c
}

func TestCatalog_FindByFilters(t *testing.T) {
	c := loadCatalog(t)
	ctx := context.Background()

	got, err := c.FindByFilters(ctx, domain.Filters{EducationLevel: "doctorado"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fundacion_carolina_doctorado", got[0].Name)

	got, err = c.FindByFilters(ctx, domain.Filters{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = c.FindByFilters(ctx, domain.Filters{Area: domain.AnyValue, Organization: "ministerio"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = c.FindByFilters(ctx, domain.Filters{Location: "sevilla", EducationLevel: "doctorado"})
	assert.ErrorIs(t, err, domain.ErrNoResults)
}

func TestCatalog_CatalogWildcardMatchesAnyFilter(t *testing.T) {
	c := loadCatalog(t)

	// beca_general is open to every area, so a concrete area filter still matches it.
	got, err := c.FindByFilters(context.Background(), domain.Filters{Area: "salud", EducationLevel: "grado"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "beca_general", got[0].Name)
}

func TestCatalog_Criteria(t *testing.T) {
	c := loadCatalog(t)
	ctx := context.Background()

	levels, err := c.Criteria(ctx, domain.FieldEducationLevel)
	require.NoError(t, err)
	assert.Equal(t, []string{"doctorado", "grado"}, levels)

	_, err = c.Criteria(ctx, domain.Field("financiamiento"))
	assert.ErrorIs(t, err, domain.ErrFieldNotFound)
}

func TestCatalog_Details(t *testing.T) {
	c := loadCatalog(t)
	ctx := context.Background()

	reqs, err := c.Requirements(ctx, "Beca general")
	require.NoError(t, err)
	assert.Equal(t, []domain.Requirement{{Name: "renta", Description: "No superar los umbrales de renta."}}, reqs)

	deadlines, err := c.Deadlines(ctx, "beca_general")
	require.NoError(t, err)
	assert.Equal(t, "2026-05-15", deadlines[0].Date)

	_, err = c.Requirements(ctx, "fundacion_carolina_doctorado")
	assert.ErrorIs(t, err, domain.ErrNoResults)

	_, err = c.Deadlines(ctx, "inexistente")
	assert.ErrorIs(t, err, domain.ErrNoResults)

	names, err := c.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beca_general", "fundacion_carolina_doctorado"}, names)
}

func TestParseCatalog_RejectsUnnamed(t *testing.T) {
	_, err := memory.ParseCatalog([]byte("scholarships:\n  - area: salud\n"))
	assert.Error(t, err)
}

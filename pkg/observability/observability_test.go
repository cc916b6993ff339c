package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/becas"
	"github.com/aretw0/becas/pkg/adapters/keyword"
	"github.com/aretw0/becas/pkg/adapters/memory"
	"github.com/aretw0/becas/pkg/domain"
	"github.com/aretw0/becas/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_FullSearch(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	catalog := memory.NewCatalog(domain.Scholarship{
		Name:           "beca_salud",
		Area:           "salud",
		EducationLevel: "master",
		Location:       domain.AnyValue,
		Organization:   "ministerio",
	})
	eng, err := becas.New(context.Background(), catalog, keyword.New(), becas.WithLifecycleHooks(metrics.Hooks()))
	require.NoError(t, err)

	ctx := context.Background()
	for _, msg := range []string{"busco becas de salud", "master", "cualquiera", "ministerio", "sí"} {
		_, _, err := eng.Chat(ctx, "s1", msg)
		require.NoError(t, err)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Turns.WithLabelValues("not_started", "collecting", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Turns.WithLabelValues("collecting", "collecting", "ok"))+
		testutil.ToFloat64(metrics.Turns.WithLabelValues("collecting", "awaiting_confirmation", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Turns.WithLabelValues("awaiting_confirmation", "completed", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Searches.WithLabelValues("results")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Extractions.WithLabelValues("confirmation", "ok")))
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestAggregate(t *testing.T) {
	var calls []string
	first := domain.LifecycleHooks{
		OnTurn: func(context.Context, *domain.TurnEvent) { calls = append(calls, "first") },
	}
	second := domain.LifecycleHooks{
		OnTurn:   func(context.Context, *domain.TurnEvent) { calls = append(calls, "second") },
		OnSearch: func(context.Context, *domain.SearchEvent) { calls = append(calls, "search") },
	}

	hooks := observability.Aggregate(first, domain.LifecycleHooks{}, second)
	require.NotNil(t, hooks.OnTurn)
	require.NotNil(t, hooks.OnSearch)
	assert.Nil(t, hooks.OnExtraction, "no hook set listens to extractions")

	hooks.OnTurn(context.Background(), &domain.TurnEvent{})
	hooks.OnSearch(context.Background(), &domain.SearchEvent{})
	assert.Equal(t, []string{"first", "second", "search"}, calls)
}

func TestAuditLog(t *testing.T) {
	var buf bytes.Buffer
	hooks := observability.AuditLog(slog.New(slog.NewTextHandler(&buf, nil)))

	ctx := context.Background()
	hooks.OnTurn(ctx, &domain.TurnEvent{SessionID: "s1", From: domain.StateNotStarted, To: domain.StateCollecting})
	hooks.OnTurn(ctx, &domain.TurnEvent{SessionID: "s1", Err: errors.New("boom")})
	hooks.OnExtraction(ctx, &domain.ExtractionEvent{SessionID: "s1", Mode: "criterion"})
	hooks.OnExtraction(ctx, &domain.ExtractionEvent{SessionID: "s1", Mode: "criterion", Failed: true})

	out := buf.String()
	assert.Contains(t, out, "msg=turn ")
	assert.Contains(t, out, "to=collecting")
	assert.Contains(t, out, "msg=turn_failed")
	assert.Contains(t, out, "err=boom")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("extraction_failed")))
}

package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/becas/internal/config"
	"github.com/aretw0/becas/internal/logging"
	"github.com/aretw0/becas/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
scholarships:
  - name: beca_salud_master
    area: salud
    education_level: master
    location: madrid
    organization: ministerio
    deadlines:
      - name: solicitud
        date: "2026-05-01"
  - name: beca_general
    area: cualquiera
    education_level: grado
    location: cualquiera
    organization: fundacion_carolina
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scholarships.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0644))

	cfg := config.Default()
	cfg.Catalog.Path = path
	return cfg
}

func build(t *testing.T, cfg *config.Config, reg prometheus.Registerer) *App {
	t.Helper()
	app, err := Build(context.Background(), cfg, logging.NewNop(), reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestBuild_Defaults(t *testing.T) {
	reg := prometheus.NewRegistry()
	app := build(t, testConfig(t), reg)

	assert.ElementsMatch(t, []string{"salud", domain.AnyValue}, app.Engine.Vocabulary().Values(domain.FieldArea))

	s, reply, err := app.Engine.Chat(context.Background(), "s1", "Busco becas de salud")
	require.NoError(t, err)
	assert.Equal(t, domain.StateCollecting, s.Machine.State())
	assert.Contains(t, reply, "Área: Salud")

	require.NotNil(t, app.Metrics)
	assert.Equal(t, 1.0, testutil.ToFloat64(app.Metrics.Turns.WithLabelValues("not_started", "collecting", "ok")))
}

func TestBuild_ActiveFieldsAndVocabulary(t *testing.T) {
	cfg := testConfig(t)
	cfg.ActiveFields = []string{"nivel"}
	cfg.Vocabulary = map[string][]string{"nivel": {"Doctorado"}}
	app := build(t, cfg, nil)

	assert.Equal(t, []string{"doctorado", domain.AnyValue}, app.Engine.Vocabulary().Values(domain.FieldEducationLevel))
	assert.Nil(t, app.Metrics)

	s, _, err := app.Engine.Chat(context.Background(), "s1", "quiero un doctorado")
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingConfirmation, s.Machine.State(), "the only active field is set")
}

func TestBuild_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.ActiveFields = []string{"color"}
	_, err := Build(context.Background(), cfg, logging.NewNop(), nil)
	assert.ErrorIs(t, err, domain.ErrFieldNotFound)

	cfg = testConfig(t)
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = Build(context.Background(), cfg, logging.NewNop(), nil)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Flow = filepath.Join(t.TempDir(), "missing-flow.yaml")
	_, err = Build(context.Background(), cfg, logging.NewNop(), nil)
	assert.Error(t, err)
}

func TestBuild_RedisStoreWithProtections(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.Store.Driver = config.StoreRedis
	cfg.Store.Redis.Addr = mr.Addr()
	cfg.Store.Redis.Lock = true
	cfg.Store.MaskPII = true
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	app := build(t, cfg, nil)

	ctx := context.Background()
	_, _, err := app.Engine.Chat(ctx, "s1", "Soy ana@example.com y busco becas de salud")
	require.NoError(t, err)

	raw, err := mr.Get("becas:session:s1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "salud", "criteria and history are sealed")
	assert.NotContains(t, raw, "ana@example.com")

	s, err := app.Engine.Session(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "salud", s.Criteria.Area)
	assert.Equal(t, "Soy *** y busco becas de salud", s.History[0].Content)

	ids, err := app.Engine.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
	assert.False(t, mr.Exists("becas:session:lock:s1"), "the turn lock is released")
}

func TestBuild_FileStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = config.StoreFile
	cfg.Store.Path = t.TempDir()
	app := build(t, cfg, nil)

	_, _, err := app.Engine.Chat(context.Background(), "s1", "hola")
	require.NoError(t, err)

	entries, err := os.ReadDir(cfg.Store.Path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "s1"))
}

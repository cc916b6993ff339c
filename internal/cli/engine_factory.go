package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/becas"
	"github.com/aretw0/becas/internal/config"
	"github.com/aretw0/becas/pkg/adapters/file"
	"github.com/aretw0/becas/pkg/adapters/keyword"
	"github.com/aretw0/becas/pkg/adapters/llm"
	loamcatalog "github.com/aretw0/becas/pkg/adapters/loam"
	"github.com/aretw0/becas/pkg/adapters/memory"
	"github.com/aretw0/becas/pkg/adapters/postgres"
	"github.com/aretw0/becas/pkg/adapters/redis"
	"github.com/aretw0/becas/pkg/adapters/template"
	"github.com/aretw0/becas/pkg/domain"
	"github.com/aretw0/becas/pkg/observability"
	"github.com/aretw0/becas/pkg/persistence/middleware"
	"github.com/aretw0/becas/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// App bundles an engine with the resources it was built from.
type App struct {
	Engine  *becas.Engine
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.Metrics

	closers []func() error
}

// Close releases stores, pools and clients in reverse creation order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Build wires the engine described by cfg. Metrics are registered on reg when it is not nil.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (_ *App, err error) {
	app := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	repo, err := app.openCatalog(ctx)
	if err != nil {
		return nil, err
	}
	store, locker, err := app.openStore()
	if err != nil {
		return nil, err
	}

	var gen llm.Generator
	if cfg.Extractor.Driver == config.ExtractorLLM {
		gen, err = llm.NewGenerator(ctx, cfg.Extractor.LLM)
		if err != nil {
			return nil, fmt.Errorf("error initializing llm: %w", err)
		}
		if c, ok := gen.(interface{ Close() error }); ok {
			app.onClose(c.Close)
		}
	}
	extractor, err := app.extractor(gen)
	if err != nil {
		return nil, err
	}

	vocab, err := app.vocabulary(ctx, repo)
	if err != nil {
		return nil, err
	}
	renderer, err := app.renderer(vocab, gen)
	if err != nil {
		return nil, err
	}
	active, err := activeFields(cfg.ActiveFields)
	if err != nil {
		return nil, err
	}

	hooks := []domain.LifecycleHooks{observability.AuditLog(logger)}
	if reg != nil {
		app.Metrics, err = observability.NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("error registering metrics: %w", err)
		}
		hooks = append(hooks, app.Metrics.Hooks())
	}

	engineOpts := []becas.Option{
		becas.WithName(cfg.Name),
		becas.WithLogger(logger),
		becas.WithVocabulary(vocab),
		becas.WithRenderer(renderer),
		becas.WithSessionStore(store),
		becas.WithActiveFields(active...),
		becas.WithLifecycleHooks(observability.Aggregate(hooks...)),
	}
	if locker != nil {
		engineOpts = append(engineOpts, becas.WithLocker(locker))
	}

	app.Engine, err = becas.New(ctx, repo, extractor, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return app, nil
}

func (a *App) openCatalog(ctx context.Context) (ports.ScholarshipRepository, error) {
	c := a.Config.Catalog
	switch c.Driver {
	case config.CatalogMarkdown:
		catalog, err := loamcatalog.Open(ctx, c.Path, a.Logger.With("component", "catalog"))
		if err != nil {
			return nil, fmt.Errorf("error opening catalog: %w", err)
		}
		return catalog, nil
	case config.CatalogPostgres:
		repo, err := postgres.Connect(ctx, c.DSN)
		if err != nil {
			return nil, fmt.Errorf("error connecting to postgres: %w", err)
		}
		a.onClose(func() error {
			repo.Close()
			return nil
		})
		if c.Migrate {
			if err := repo.Migrate(ctx); err != nil {
				return nil, fmt.Errorf("error migrating catalog: %w", err)
			}
		}
		return repo, nil
	default:
		catalog, err := memory.LoadCatalog(c.Path)
		if err != nil {
			return nil, fmt.Errorf("error loading catalog: %w", err)
		}
		return catalog, nil
	}
}

// WatchCatalog keeps a markdown catalog in sync with its directory until ctx ends.
// It is a no-op for catalogs that cannot report changes.
func (a *App) WatchCatalog(ctx context.Context) error {
	catalog, ok := a.Engine.Repository().(*loamcatalog.Catalog)
	if !ok || !a.Config.Catalog.Watch {
		return nil
	}
	changes, err := catalog.Watch(ctx)
	if err != nil {
		return fmt.Errorf("error watching catalog: %w", err)
	}
	go func() {
		for id := range changes {
			a.Logger.Info("Catalog reloaded", "document", id)
		}
	}()
	return nil
}

func (a *App) openStore() (ports.SessionStore, ports.DistributedLocker, error) {
	c := a.Config.Store

	var (
		store  ports.SessionStore
		locker ports.DistributedLocker
	)
	switch c.Driver {
	case config.StoreFile:
		store = file.New(c.Path)
	case config.StoreRedis:
		var opts []redis.Option
		if c.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(c.Redis.TTL))
		}
		if c.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(c.Redis.Prefix))
		}
		rs := redis.New(c.Redis.Addr, c.Redis.Password, c.Redis.DB, opts...)
		a.onClose(rs.Close)
		if c.Redis.Lock {
			locker = redis.NewLocker(rs.Client(), rs.Prefix())
		}
		store = rs
	default:
		store = memory.NewStore()
	}

	var mws []middleware.Middleware
	if c.MaskPII {
		patterns := c.PIIPatterns
		if len(patterns) == 0 {
			patterns = middleware.DefaultPIIPatterns
		}
		pii, err := middleware.NewPIIMiddleware(patterns)
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, pii)
	}
	active, fallback, err := c.Keys()
	if err != nil {
		return nil, nil, err
	}
	if active != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(store, mws...), locker, nil
}

func (a *App) extractor(gen llm.Generator) (ports.SlotExtractor, error) {
	c := a.Config.Extractor
	if gen == nil {
		return keyword.New(keyword.WithForeignPhrases(c.ForeignPhrases...)), nil
	}
	prompts := llm.DefaultPrompts()
	if c.Prompts != "" {
		p, err := llm.LoadPrompts(c.Prompts)
		if err != nil {
			return nil, err
		}
		prompts = p
	}
	return llm.NewExtractor(gen,
		llm.WithPrompts(prompts),
		llm.WithLogger(a.Logger.With("component", "extractor")),
	), nil
}

func (a *App) vocabulary(ctx context.Context, repo ports.ScholarshipRepository) (domain.Vocabulary, error) {
	if len(a.Config.Vocabulary) == 0 {
		return becas.LoadVocabulary(ctx, repo)
	}
	values := make(map[domain.Field][]string, len(a.Config.Vocabulary))
	for alias, vals := range a.Config.Vocabulary {
		f, err := domain.LookupField(alias)
		if err != nil {
			return domain.Vocabulary{}, fmt.Errorf("invalid vocabulary: %w", err)
		}
		values[f] = vals
	}
	return domain.NewVocabulary(values), nil
}

func (a *App) renderer(vocab domain.Vocabulary, gen llm.Generator) (ports.Renderer, error) {
	flow := template.DefaultFlow()
	if a.Config.Flow != "" {
		f, err := template.LoadFlow(a.Config.Flow)
		if err != nil {
			return nil, err
		}
		flow = f
	}
	base, err := template.New(flow, template.WithVocabulary(vocab))
	if err != nil {
		return nil, fmt.Errorf("error compiling templates: %w", err)
	}
	if gen == nil || !a.Config.Extractor.Paraphrase {
		return base, nil
	}
	return llm.NewRenderer(base, gen, llm.WithLogger(a.Logger.With("component", "renderer"))), nil
}

func activeFields(aliases []string) ([]domain.Field, error) {
	fields := make([]domain.Field, 0, len(aliases))
	for _, alias := range aliases {
		f, err := domain.LookupField(alias)
		if err != nil {
			return nil, fmt.Errorf("invalid active field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

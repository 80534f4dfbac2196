package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	familystore "welfarehub/internal/family/store"
	jwttoken "welfarehub/internal/jwt_token"
	lifecycleconsumer "welfarehub/internal/lifecycle/consumer"
	lifecyclehandler "welfarehub/internal/lifecycle/handler"
	lifecycleservice "welfarehub/internal/lifecycle/service"
	lifecyclestore "welfarehub/internal/lifecycle/store"
	"welfarehub/internal/platform/config"
	"welfarehub/internal/platform/httpserver"
	"welfarehub/internal/platform/kafka"
	kafkaconsumer "welfarehub/internal/platform/kafka/consumer"
	"welfarehub/internal/platform/logger"
	httpmetrics "welfarehub/internal/platform/metrics"
	"welfarehub/internal/platform/postgres"
	"welfarehub/internal/platform/redis"
	"welfarehub/internal/platform/scheduler"
	"welfarehub/internal/platform/tracing"
	"welfarehub/internal/ratelimit"
	savingshandler "welfarehub/internal/savings/handler"
	savingsservice "welfarehub/internal/savings/service"
	savingsstore "welfarehub/internal/savings/store"
	httptransport "welfarehub/internal/transport/http"
	"welfarehub/internal/welfare/bookmark"
	"welfarehub/internal/welfare/catalog/source"
	catalogstore "welfarehub/internal/welfare/catalog/store"
	"welfarehub/internal/welfare/catalog/synchronizer"
	"welfarehub/internal/welfare/criteria"
	welfarehandler "welfarehub/internal/welfare/handler"
	welfaremetrics "welfarehub/internal/welfare/metrics"
	"welfarehub/internal/welfare/profile"
	"welfarehub/internal/welfare/recommend"
	audit "welfarehub/pkg/platform/audit"
	auditmemory "welfarehub/pkg/platform/audit/store/memory"
	auditpostgres "welfarehub/pkg/platform/audit/store/postgres"
)

const serviceName = "welfarehub"

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

type catalogStore interface {
	synchronizer.Store
	recommend.Catalog
}

type familyStore interface {
	profile.UserReader
	profile.FamilyReader
	profile.FinanceReader
}

type stores struct {
	catalog   catalogStore
	family    familyStore
	bookmarks bookmark.Store
	lifecycle lifecycleservice.Store
	savings   savingsservice.Store
	audit     audit.Store
}

// newStores picks Postgres when a database is configured and in-memory
// stores otherwise.
func newStores(db *sql.DB) stores {
	if db == nil {
		return stores{
			catalog:   catalogstore.NewInMemory(),
			family:    familystore.NewInMemory(),
			bookmarks: bookmark.NewInMemory(),
			lifecycle: lifecyclestore.NewInMemory(),
			savings:   savingsstore.NewInMemory(),
			audit:     auditmemory.NewInMemoryStore(),
		}
	}
	return stores{
		catalog:   catalogstore.NewPostgres(db),
		family:    familystore.NewPostgres(db),
		bookmarks: bookmark.NewPostgres(db),
		lifecycle: lifecyclestore.NewPostgres(db),
		savings:   savingsstore.NewPostgres(db),
		audit:     auditpostgres.New(db),
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, serviceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	healthChecks := map[string]httptransport.HealthCheck{}
	if db != nil {
		defer db.Close()
		if cfg.Database.RunMigrations {
			if err := postgres.Migrate(db, log); err != nil {
				return err
			}
		}
		healthChecks["postgres"] = db.PingContext
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}
	st := newStores(db)

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close()
		healthChecks["redis"] = rc.Health
	}

	welfareMetrics := welfaremetrics.New()
	auditor := audit.NewPublisher(st.audit, audit.WithLogger(log))

	registry := source.NewRegistry()
	if cfg.Welfare.ServiceKey != "" {
		if err := registerSources(registry, cfg.Welfare); err != nil {
			return err
		}
	} else {
		log.Warn("WELFARE_SERVICE_KEY not set, catalog sync disabled")
	}
	syncer := synchronizer.New(registry, st.catalog, synchronizer.Config{
		Enabled:       cfg.Welfare.SyncActive(),
		PageSize:      cfg.Welfare.BatchSize,
		MaxPages:      cfg.Welfare.MaxPages,
		MaxRetryCount: cfg.Welfare.MaxRetryCount,
		RetryDelay:    cfg.Welfare.RetryDelay,
		RegionDelay:   cfg.Welfare.RegionDelay,
		StaleAfter:    cfg.Welfare.StaleAfter,
		MajorRegions:  cfg.Welfare.MajorRegions,
	}, synchronizer.WithLogger(log), synchronizer.WithMetrics(welfareMetrics))

	genOpts := []criteria.Option{criteria.WithLogger(log), criteria.WithMetrics(welfareMetrics)}
	if rc != nil {
		genOpts = append(genOpts, criteria.WithCache(criteria.NewRedisCache(rc.Client, cfg.LLM.CacheTTL)))
	}
	var completer criteria.Completer
	if c := criteria.NewOpenAICompleter(cfg.LLM); c != nil {
		completer = c
	} else {
		log.Warn("LLM_API_KEY not set, criteria served from rule-based fallback")
	}
	generator := criteria.New(completer, criteria.Config{
		Timeout:        cfg.LLM.Timeout,
		MaxPromptBytes: cfg.LLM.MaxPromptBytes,
	}, genOpts...)

	aggregator := profile.New(st.family, st.family, st.family, profile.WithLogger(log))
	recommendations := recommend.New(st.catalog, aggregator, generator,
		recommend.WithLogger(log),
		recommend.WithMetrics(welfareMetrics),
	)
	bookmarks := bookmark.New(st.bookmarks, st.catalog,
		bookmark.WithLogger(log),
		bookmark.WithAuditor(auditor),
	)
	lifecycle := lifecycleservice.New(st.lifecycle, recommendations,
		lifecycleservice.WithLogger(log),
		lifecycleservice.WithMetrics(welfareMetrics),
		lifecycleservice.WithAuditor(auditor),
	)
	savings := savingsservice.New(st.savings,
		savingsservice.WithLogger(log),
		savingsservice.WithAuditor(auditor),
	)

	var limiter ratelimit.Store = ratelimit.NewInMemory(nil)
	if rc != nil {
		limiter = ratelimit.NewRedisStore(rc.Client)
	}

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	router := httptransport.NewRouter(httptransport.Deps{
		Modules: []httptransport.Module{
			welfarehandler.New(recommendations, bookmarks, syncer, log),
			lifecyclehandler.New(lifecycle, log),
			savingshandler.New(savings, log),
		},
		Validator:     jwttoken.NewJWTServiceAdapter(jwtService),
		AdminToken:    cfg.Server.AdminAPIToken,
		Metrics:       httpmetrics.New(),
		MetricsHandle: httpmetrics.Handler(),
		HealthChecks:  healthChecks,
		Logger:        log,
		Auditor:       auditor,
		RateLimiter:   limiter,
		RateLimitPolicy: ratelimit.Policy{
			Limit:  cfg.Limits.PerUser,
			Window: cfg.Limits.Window,
		},
	})
	srv := httpserver.New(cfg.Server.Addr, otelhttp.NewHandler(router, serviceName))

	schedOpts := []scheduler.Option{scheduler.WithLogger(log)}
	if rc != nil {
		schedOpts = append(schedOpts, scheduler.WithLocker(scheduler.NewRedisLocker(rc.Client)))
	}
	sched := scheduler.New(schedOpts...)
	jobs := []struct {
		name, spec string
		job        scheduler.Job
	}{
		{"catalog-central", "0 2 * * *", syncer.CentralJob},
		{"catalog-local", "0 3 * * *", syncer.LocalJob},
		{"catalog-cleanup", "0 4 * * 0", syncer.CleanupJob},
		{"lifecycle-sweep", "0 * * * *", lifecycle.ProcessDue},
	}
	for _, j := range jobs {
		if err := sched.Add(j.name, j.spec, j.job); err != nil {
			return err
		}
	}

	consumer, kcl, err := newLifecycleConsumer(ctx, cfg.Kafka, lifecycle, log)
	if err != nil {
		return err
	}
	if kcl != nil {
		defer kcl.Close()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting welfarehub", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	sched.Start()
	if cfg.Welfare.SyncOnStartup && syncer.Enabled() {
		g.Go(func() error {
			sched.RunNow(gctx, "catalog-central", syncer.CentralJob)
			sched.RunNow(gctx, "catalog-local", syncer.LocalJob)
			return nil
		})
	}
	if consumer != nil {
		g.Go(func() error { return consumer.Run(gctx) })
	}
	g.Go(func() error { return auditor.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		sched.Stop(shutdownCtx)
		err := srv.Shutdown(shutdownCtx)
		if serr := syncer.Shutdown(shutdownCtx); serr != nil {
			log.Warn("background catalog sync did not stop in time", "error", serr)
		}
		return err
	})
	return g.Wait()
}

func registerSources(registry *source.Registry, cfg config.WelfareConfig) error {
	base := source.ClientConfig{
		BaseURL:        cfg.BaseURL,
		ServiceKey:     cfg.ServiceKey,
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
	}
	central := base
	central.Path = cfg.CentralPath
	local := base
	local.Path = cfg.LocalPath
	return errors.Join(
		registry.Register(source.NewCentralSource("central", central)),
		registry.Register(source.NewLocalSource("local", local)),
	)
}

// newLifecycleConsumer returns nil values when Kafka is not configured; the
// creation hook is then only reachable in-process.
func newLifecycleConsumer(ctx context.Context, cfg config.KafkaConfig, svc *lifecycleservice.Service, log *slog.Logger) (*kafkaconsumer.Consumer, *kgo.Client, error) {
	cl, err := kafka.NewClient(cfg.Brokers,
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(cfg.LifecycleTopic),
		kgo.DisableAutoCommit(),
	)
	if err != nil || cl == nil {
		if cl == nil && err == nil {
			log.Warn("KAFKA_BROKERS not set, lifecycle consumer disabled")
		}
		return nil, nil, err
	}
	if err := kafka.EnsureTopics(ctx, cl, cfg.LifecycleTopic); err != nil {
		cl.Close()
		return nil, nil, err
	}
	router := kafkaconsumer.NewRouter(log)
	router.Register(cfg.LifecycleTopic, lifecycleconsumer.NewHandler(svc, log))
	return kafkaconsumer.New(cl, router, kafkaconsumer.WithLogger(log)), cl, nil
}

package app

import (
	"context"
	"fmt"

	"github.com/guan-wang/guans-lala-land/internal/data/db"
	"github.com/guan-wang/guans-lala-land/internal/data/repos"
	httpapi "github.com/guan-wang/guans-lala-land/internal/http"
	httpH "github.com/guan-wang/guans-lala-land/internal/http/handlers"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/pipeline"
	"github.com/guan-wang/guans-lala-land/internal/observability"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
	"github.com/guan-wang/guans-lala-land/internal/temporalx/lessonrun"
	"github.com/guan-wang/guans-lala-land/internal/temporalx/temporalworker"
)

type Options struct {
	// Temporal dials the configured frontend; required by worker and trigger modes.
	Temporal bool
}

type App struct {
	Log      *logger.Logger
	Cfg      *Config
	DB       *db.Service
	Repos    repos.Repos
	Clients  Clients
	Services Services

	shutdownOtel func(context.Context) error
}

func New(ctx context.Context, cfg *Config, opts Options) (*App, error) {
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.Otel.ServiceName,
		Environment: cfg.Otel.Environment,
		Endpoint:    cfg.Otel.Endpoint,
		Insecure:    cfg.Otel.Insecure,
		Headers:     observability.ParseHeaders(cfg.Otel.Headers),
		SampleRatio: cfg.Otel.SampleRatio,
	})

	fail := func(err error) (*App, error) {
		_ = shutdown(context.Background())
		log.Sync()
		return nil, err
	}

	database, err := db.NewService(log, db.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN, Migrate: cfg.Database.Migrate})
	if err != nil {
		return fail(fmt.Errorf("init database: %w", err))
	}
	reposet := repos.New(database.DB(), log)

	clients, err := wireClients(ctx, log, cfg, opts.Temporal)
	if err != nil {
		_ = database.Close()
		return fail(err)
	}

	serviceset, err := wireServices(log, cfg, clients, reposet)
	if err != nil {
		clients.Close()
		_ = database.Close()
		return fail(err)
	}

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           database,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		shutdownOtel: shutdown,
	}, nil
}

// RunOnce executes one pipeline run in-process.
func (a *App) RunOnce(ctx context.Context) pipeline.Outcome {
	return a.Services.Pipeline.Run(ctx)
}

// Serve runs the HTTP trigger API until ctx is done. Runs are dispatched to
// Temporal when a client is configured, otherwise executed in-process.
func (a *App) Serve(ctx context.Context) error {
	var starter httpH.RunStarter
	var launcher *pipeline.Launcher
	if a.Clients.Temporal != nil {
		s, err := lessonrun.NewStarter(a.Clients.Temporal, a.Cfg.Temporal.TaskQueue)
		if err != nil {
			return err
		}
		starter = s
	} else {
		launcher = pipeline.NewLauncher(a.Services.Pipeline)
		starter = launcher
	}

	checks := map[string]httpH.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := a.DB.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if a.Clients.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.Clients.Redis.Ping(ctx).Err() }
	}

	srv := httpapi.NewServer(httpapi.RouterConfig{
		Log:           a.Log.With("service", "HTTP"),
		ServiceName:   a.Cfg.Otel.ServiceName,
		CORSOrigins:   a.Cfg.corsOrigins(),
		RunHandler:    httpH.NewRunHandler(starter, a.Repos.LessonRuns),
		HealthHandler: httpH.NewHealthHandler(checks),
	})
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTP.Addr)
	err := srv.Run(ctx, a.Cfg.HTTP.Addr)
	if launcher != nil {
		launcher.Wait()
	}
	return err
}

// Worker polls the Temporal task queue until ctx is done.
func (a *App) Worker(ctx context.Context) error {
	runner, err := temporalworker.NewRunner(a.Log, a.Clients.Temporal, temporalConfig(a.Cfg), &lessonrun.Activities{
		Log:      a.Log.With("service", "LessonRunActivities"),
		Pipeline: a.Services.Pipeline,
		Recorder: a.Services.Recorder,
	})
	if err != nil {
		return err
	}
	if err := runner.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Trigger starts one workflow execution and returns its run id.
func (a *App) Trigger(ctx context.Context) (string, error) {
	s, err := lessonrun.NewStarter(a.Clients.Temporal, a.Cfg.Temporal.TaskQueue)
	if err != nil {
		return "", err
	}
	id, err := s.Start(ctx)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.shutdownOtel != nil {
		_ = a.shutdownOtel(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/valro-hq/valro-api/internal/config"
	"github.com/valro-hq/valro-api/internal/events"
	"github.com/valro-hq/valro-api/internal/platform/agentcore"
	"github.com/valro-hq/valro-api/internal/platform/postgres"
	"github.com/valro-hq/valro-api/internal/service"
	"github.com/valro-hq/valro-api/internal/store"
	"github.com/valro-hq/valro-api/internal/task"
)

// application holds the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	taskStore store.TaskStore
	jobStore  task.JobStore

	agentClient *agentcore.Client
	taskService service.TaskService

	eventEmitter events.EventEmitter
	jobRunner    *task.Runner
}

// newApplication wires every dependency together: stores over the shared
// connection, the agent runtime client, the background job runner with
// its reviver, and the intake service publishing hand-off events. The
// runner is started last so recovery sees a fully wired factory.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	taskStore := postgres.NewPostgresTaskStore(db)
	app.taskStore = taskStore
	app.jobStore = postgres.NewPostgresJobStore(db)

	agentClient, err := agentcore.NewClient(cfg.Agent, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize agent runtime client: %w", err)
	}
	app.agentClient = agentClient
	logger.Info("agent runtime client initialized", "runtime_url", cfg.Agent.RuntimeURL)

	app.jobRunner = task.NewRunner(app.jobStore, task.RunnerConfig{
		WorkerCount:           cfg.Worker.Count,
		QueueSize:             cfg.Worker.QueueSize,
		StuckJobAge:           time.Duration(cfg.Worker.StuckJobAgeMinutes) * time.Minute,
		StuckJobCheckInterval: time.Duration(cfg.Worker.StuckJobCheckMinutes) * time.Minute,
	}, logger)

	factory := task.NewOutreachTaskFactory(taskStore, agentClient, logger)
	app.jobRunner.SetReviver(factory.ReviveTask)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(task.NewOutreachEventHandler(factory, app.jobRunner, logger))
	app.eventEmitter = emitter

	app.taskService, err = service.NewTaskService(taskStore, emitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	// Start workers after the reviver and handler are in place so jobs
	// interrupted by the previous shutdown are requeued, not dropped.
	if err := app.jobRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start job runner: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.jobRunner != nil {
		app.jobRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/events"
	"github.com/phrazzld/tasks-api/internal/platform/csvstore"
	"github.com/phrazzld/tasks-api/internal/service"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	taskStore   *csvstore.TaskStore
	taskService service.TaskService

	eventEmitter *events.InMemoryEventEmitter
}

// newApplication creates a new application instance with all dependencies initialized.
// The task file is read once here; a missing or unreadable file yields an empty list.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.taskStore, err = csvstore.Open(cfg.Store.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open task store: %w", err)
	}

	report := app.taskStore.LoadReport()
	if report.ReadErr != nil {
		logger.Warn("starting with an empty task list",
			"store_path", report.Path,
			"error", report.ReadErr)
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewAuditLogHandler(logger))

	app.taskService, err = service.NewTaskService(
		app.taskStore,
		logger,
		service.WithEventEmitter(app.eventEmitter),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("Application initialized successfully",
		"tasks_loaded", report.Loaded,
		"rows_skipped", len(report.Skipped))
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns when ctx is canceled and the server has shut down, or when the
// server fails.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
// Every mutation is already on disk, so there is nothing to flush.
func (app *application) cleanup() {
	app.logger.Info("Application shutdown completed",
		"store_path", app.taskStore.Path())
}

// Package server wires the reference record server: storage, the record
// service and the gRPC endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/keepsync/internal/logging"
	"github.com/dmitrijs2005/keepsync/internal/server/config"
	"github.com/dmitrijs2005/keepsync/internal/server/migrations"
	"github.com/dmitrijs2005/keepsync/internal/server/repositories/records"
	"github.com/dmitrijs2005/keepsync/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/keepsync/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	records *services.RecordService
}

// openDB is a seam for tests.
var openDB = func(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewApp opens storage selected by c.DatabaseDSN: PostgreSQL when set,
// process memory otherwise.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}

	var repo records.Repository
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database DSN, records are kept in memory")
		repo = records.NewMemoryRepository()
	} else {
		db, err := openDB(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.db = db
		repo = records.NewPostgresRepository(db)
	}

	rs, err := services.NewRecordService(ctx, repo, c.MaxPayloadBytes, c.PullPageSize, services.WithLogger(logger))
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.records = rs
	return app, nil
}

// Run serves until ctx is done.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")
	defer app.logger.Info(ctx, "App stopped")

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.records)
	return s.Run(ctx)
}

func (app *App) Close() error {
	if app.db == nil {
		return nil
	}
	return app.db.Close()
}

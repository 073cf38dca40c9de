package store

import (
	"context"

	"ideascentral/internal/config"
	"ideascentral/internal/database"
	"ideascentral/internal/observability"
	contextutils "ideascentral/internal/utils"
)

// New builds the backend selected by cfg.Store.Backend. The postgres backend opens the
// instrumented connection pool and applies the bundled schema when store.apply_schema is set.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger) (Store, error) {
	switch cfg.Store.Backend {
	case "", config.StoreBackendMemory:
		logger.Info(ctx, "Using in-memory store")
		return NewMemoryStore(), nil
	case config.StoreBackendPostgres:
		manager := database.NewManager(logger)
		db, err := manager.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Store.ApplySchema {
			if err := manager.ApplySchema(ctx, db); err != nil {
				if closeErr := db.Close(); closeErr != nil {
					logger.Error(ctx, "Failed to close database after schema error", closeErr)
				}
				return nil, err
			}
		}
		logger.Info(ctx, "Using postgres store", map[string]interface{}{"apply_schema": cfg.Store.ApplySchema})
		return NewPostgresStore(db, logger), nil
	default:
		return nil, contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityFatal,
			"unknown store backend", cfg.Store.Backend)
	}
}

// Package database provides the instrumented postgres connection and schema bootstrap.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"net/url"
	"strings"
	"sync"

	"ideascentral/internal/config"
	"ideascentral/internal/observability"
	contextutils "ideascentral/internal/utils"

	// Import PostgreSQL driver for database/sql
	_ "github.com/lib/pq"

	"go.nhat.io/otelsql"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

//go:embed schema.sql
var schemaSQL string

// Manager handles database operations with proper logging
type Manager struct {
	logger *observability.Logger
}

var (
	otelDriverNameCache string
	otelDriverOnce      sync.Once
	otelDriverErr       error
)

// NewManager creates a new database manager with the provided logger
func NewManager(logger *observability.Logger) *Manager {
	return &Manager{
		logger: logger,
	}
}

// Open connects to postgres through the otelsql-instrumented driver and verifies the connection
func (dm *Manager) Open(ctx context.Context, cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	dbName := extractDatabaseName(cfg.URL)
	ctx, span := observability.TraceDatabaseFunction(ctx, "Open",
		attribute.String("db.name", dbName),
		attribute.String("db.system", "postgresql"),
		attribute.Int("db.max_open_conns", cfg.MaxOpenConns),
		attribute.Int("db.max_idle_conns", cfg.MaxIdleConns),
	)
	defer observability.FinishSpan(span, &err)

	if cfg.URL == "" {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeDatabaseConnection, contextutils.SeverityFatal, "database url is not configured", "set database.url or DATABASE_URL")
	}

	// Register OpenTelemetry SQL driver once per process and reuse the name
	otelDriverOnce.Do(func() {
		otelDriverNameCache, otelDriverErr = otelsql.Register("postgres",
			otelsql.WithDatabaseName(dbName),
			otelsql.WithSystem(semconv.DBSystemPostgreSQL),
			otelsql.TraceRowsAffected(),
		)
	})
	if otelDriverErr != nil {
		return nil, contextutils.WrapError(otelDriverErr, "failed to register otelsql driver")
	}

	db, err := sql.Open(otelDriverNameCache, cfg.URL)
	if err != nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeDatabaseConnection, contextutils.SeverityError, "failed to open database connection", err.Error(), err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			dm.logger.Error(ctx, "Failed to close database connection after ping failure", closeErr)
		}
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeDatabaseConnection, contextutils.SeverityError, "failed to ping database", err.Error(), err)
	}

	dm.logger.Info(ctx, "Database connection established", map[string]interface{}{
		"db_name":           dbName,
		"max_open_conns":    cfg.MaxOpenConns,
		"max_idle_conns":    cfg.MaxIdleConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime.String(),
	})

	return db, nil
}

// ApplySchema runs the bundled schema. Tables are created before indexes.
func (dm *Manager) ApplySchema(ctx context.Context, db *sql.DB) (err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "ApplySchema",
		attribute.String("db.system", "postgresql"),
		attribute.Int("schema.file.size", len(schemaSQL)),
	)
	defer observability.FinishSpan(span, &err)

	statements := ParseSchemaStatements(schemaSQL)
	span.SetAttributes(attribute.Int("schema.statements.count", len(statements)))

	var indexStatements []string
	for _, statement := range statements {
		if strings.HasPrefix(strings.ToUpper(statement), "CREATE INDEX") {
			indexStatements = append(indexStatements, statement)
			continue
		}
		if _, execErr := db.ExecContext(ctx, statement); execErr != nil && !isAlreadyExistsError(execErr) {
			return contextutils.WrapErrorf(execErr, "failed to execute schema statement: %s", statement)
		}
	}

	for _, statement := range indexStatements {
		if _, execErr := db.ExecContext(ctx, statement); execErr != nil && !isAlreadyExistsError(execErr) {
			return contextutils.WrapErrorf(execErr, "failed to execute index statement: %s", statement)
		}
	}

	dm.logger.Info(ctx, "Application schema applied", map[string]interface{}{
		"statements": len(statements),
	})
	return nil
}

// ParseSchemaStatements strips comments from a schema file and splits it into statements
func ParseSchemaStatements(schema string) []string {
	var cleanedLines []string
	inComment := false

	for _, line := range strings.Split(schema, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "/*"):
			inComment = !strings.HasSuffix(line, "*/")
			continue
		case inComment:
			if strings.HasSuffix(line, "*/") {
				inComment = false
			}
			continue
		case strings.HasPrefix(line, "--"):
			continue
		}

		if commentIndex := strings.Index(line, "--"); commentIndex != -1 {
			line = strings.TrimSpace(line[:commentIndex])
		}
		cleanedLines = append(cleanedLines, line)
	}

	var result []string
	for _, stmt := range strings.Split(strings.Join(cleanedLines, " "), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			result = append(result, stmt)
		}
	}
	return result
}

func isAlreadyExistsError(err error) bool {
	return strings.Contains(err.Error(), "already exists")
}

// extractDatabaseName extracts the database name from a PostgreSQL connection string
func extractDatabaseName(databaseURL string) string {
	if u, err := url.Parse(databaseURL); err == nil && u.Path != "" {
		if dbName := strings.TrimPrefix(u.Path, "/"); dbName != "" {
			return dbName
		}
	}

	// key=value DSN form
	for _, field := range strings.Fields(databaseURL) {
		if name, ok := strings.CutPrefix(field, "dbname="); ok && name != "" {
			return name
		}
	}

	return "ideas_db"
}

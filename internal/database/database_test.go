package database

import (
	"context"
	"strings"
	"testing"

	"ideascentral/internal/config"
	"ideascentral/internal/observability"
	contextutils "ideascentral/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchemaStatements(t *testing.T) {
	statements := ParseSchemaStatements(`
-- leading comment
/* block
   comment */
CREATE TABLE a (id TEXT PRIMARY KEY); -- trailing
/* one-line block */
CREATE INDEX IF NOT EXISTS idx_a ON a (id);
`)
	require.Len(t, statements, 2)
	assert.Equal(t, "CREATE TABLE a (id TEXT PRIMARY KEY)", statements[0])
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS idx_a ON a (id)", statements[1])
}

func TestBundledSchemaIsIdempotent(t *testing.T) {
	statements := ParseSchemaStatements(schemaSQL)
	require.NotEmpty(t, statements)
	for _, stmt := range statements {
		upper := strings.ToUpper(stmt)
		assert.True(t, strings.Contains(upper, "IF NOT EXISTS"), stmt)
	}
}

func TestExtractDatabaseName(t *testing.T) {
	assert.Equal(t, "ideas", extractDatabaseName("postgres://u:p@localhost:5432/ideas?sslmode=disable"))
	assert.Equal(t, "ideas_test", extractDatabaseName("host=localhost dbname=ideas_test sslmode=disable"))
	assert.Equal(t, "ideas_db", extractDatabaseName(""))
}

func TestOpen_MissingURL(t *testing.T) {
	dm := NewManager(observability.NewNopLogger())
	db, err := dm.Open(context.Background(), config.DatabaseConfig{})
	assert.Nil(t, db)
	assert.Equal(t, contextutils.ErrorCodeDatabaseConnection, contextutils.GetErrorCode(err))
}

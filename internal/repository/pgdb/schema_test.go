package pgdb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const migrationsDir = "../../../db/migrations"

func readMigration(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(migrationsDir, name))
	require.NoError(t, err)
	return string(data)
}

func assertColumns(t *testing.T, schema, columns string) {
	t.Helper()
	for _, column := range strings.Split(columns, ",") {
		assert.Contains(t, schema, strings.TrimSpace(column))
	}
}

// The repositories and the migrations evolve separately; these checks catch
// a column rename landing on only one side.
func TestQueriesMatchSchema(t *testing.T) {
	t.Run("sync_jobs timestamps under created_at", func(t *testing.T) {
		schema := readMigration(t, "000004_create_sync_jobs.up.sql")
		assertColumns(t, schema, "id, batch_id, created_at")
		assert.NotContains(t, schema, "enqueued_at")
	})

	t.Run("sync_queue columns", func(t *testing.T) {
		schema := readMigration(t, "000003_create_sync_queue.up.sql")
		assertColumns(t, schema, queueColumns)
	})

	t.Run("products columns", func(t *testing.T) {
		schema := readMigration(t, "000002_create_products.up.sql")
		assertColumns(t, schema, productColumns)
	})

	t.Run("product code uniqueness skips empty codes", func(t *testing.T) {
		schema := readMigration(t, "000002_create_products.up.sql")
		assert.Contains(t, schema, "products_product_code_key")
		assert.Contains(t, schema, "WHERE product_code <> ''")
	})

	t.Run("categories columns", func(t *testing.T) {
		schema := readMigration(t, "000001_create_categories.up.sql")
		assertColumns(t, schema, categoryColumns)
	})
}

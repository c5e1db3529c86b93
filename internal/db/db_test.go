package db

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationFilesOrdered(t *testing.T) {
	files, err := migrationFiles()
	require.NoError(t, err)
	require.Equal(t, []string{"0001_legal_chunks.sql", "0002_chunk_ctime.sql"}, files)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE EXTENSION IF NOT EXISTS vector;\n\n  ;CREATE TABLE t (id INT);\n")
	require.Equal(t, []string{"CREATE EXTENSION IF NOT EXISTS vector", "CREATE TABLE t (id INT)"}, stmts)
}

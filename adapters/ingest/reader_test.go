package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileReader_CSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "measurements.csv")
	content := "datetime,no2\n2024-03-01 10:00:00,12.5\n2024-03-01 11:00:00,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := NewFileReader(path).Read(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"datetime", "no2"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "12.5", table.Rows[0][1])
	assert.Equal(t, "", table.Rows[1][1], "empty cells survive as empty strings")
}

func TestFileReader_MissingFile(t *testing.T) {
	_, err := NewFileReader(filepath.Join(t.TempDir(), "nope.csv")).Read(context.Background())
	require.Error(t, err)
}

func TestFileReader_RaggedRowsTolerated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ragged.csv")
	content := "datetime,a,b\n2024-03-01 10:00:00,1\n2024-03-01 11:00:00,2,3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := NewFileReader(path).Read(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Len(t, table.Rows[0], 2)
}

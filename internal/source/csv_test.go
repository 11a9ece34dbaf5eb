package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vereinskasse/sepa-exporter/internal/schema"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCSVSourceQuery(t *testing.T) {
	path := writeFile(t, "nicknames.csv", "Name;Spitzname\nMaximilian;Max\nJohannes;Hannes\n")
	src := NewCSVSource(map[string]string{schema.NicknameTable.Name: path}, 0)
	defer src.Close()

	set, err := src.Query(context.Background(), schema.NicknameTable)
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Spitzname"}, set.Header)
	require.Len(t, set.Rows, 2)
	assert.Equal(t, []string{"Maximilian", "Max"}, set.Rows[0])
	assert.Equal(t, path, set.Source)
}

func TestCSVSourceCustomDelimiter(t *testing.T) {
	path := writeFile(t, "nicknames.csv", "Name,Spitzname\nMaximilian,Max\n")
	src := NewCSVSource(map[string]string{schema.NicknameTable.Name: path}, ',')

	set, err := src.Query(context.Background(), schema.NicknameTable)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Spitzname"}, set.Header)
	require.Len(t, set.Rows, 1)
}

func TestCSVSourceQuotedFields(t *testing.T) {
	path := writeFile(t, "nicknames.csv", "Name;Spitzname\n\"von Berg; Hans\";Hansi\n")
	src := NewCSVSource(map[string]string{schema.NicknameTable.Name: path}, 0)

	set, err := src.Query(context.Background(), schema.NicknameTable)
	require.NoError(t, err)
	assert.Equal(t, []string{"von Berg; Hans", "Hansi"}, set.Rows[0])
}

func TestCSVSourceUnknownTable(t *testing.T) {
	src := NewCSVSource(map[string]string{}, 0)

	_, err := src.Query(context.Background(), schema.NicknameTable)
	assert.ErrorIs(t, err, ErrTableUnavailable)
}

func TestCSVSourceEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", "")
	src := NewCSVSource(map[string]string{schema.NicknameTable.Name: path}, 0)

	_, err := src.Query(context.Background(), schema.NicknameTable)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTableUnavailable)
}

func TestCSVSourceRaggedRows(t *testing.T) {
	path := writeFile(t, "ragged.csv", "Name;Spitzname\nMaximilian\n")
	src := NewCSVSource(map[string]string{schema.NicknameTable.Name: path}, 0)

	_, err := src.Query(context.Background(), schema.NicknameTable)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}

func TestCSVSourceCancelledContext(t *testing.T) {
	path := writeFile(t, "nicknames.csv", "Name;Spitzname\n")
	src := NewCSVSource(map[string]string{schema.NicknameTable.Name: path}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Query(ctx, schema.NicknameTable)
	assert.ErrorIs(t, err, context.Canceled)
}

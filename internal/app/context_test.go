package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langcodec/internal/config"
	"langcodec/internal/db"
)

func TestOpenWorkspaceDefaults(t *testing.T) {
	dir := t.TempDir()
	ws, err := OpenWorkspace(context.Background(), dir)
	require.NoError(t, err)
	defer ws.Close()

	assert.Equal(t, "en", ws.Config.Defaults.SourceLanguage)
	assert.FileExists(t, db.Path(dir))

	snaps, err := ws.Store.ListSnapshots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestOpenWorkspaceReadsConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName),
		[]byte("defaults:\n  source_language: ja\n  version: \"2.0\"\n"), 0o644))
	ws, err := OpenWorkspace(context.Background(), dir)
	require.NoError(t, err)
	defer ws.Close()
	assert.Equal(t, "ja", ws.Config.Defaults.SourceLanguage)
	assert.Equal(t, "2.0", ws.Config.Defaults.Version)

	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("conversions:\n  - input: a.csv\n"), 0o644))
	_, err = OpenWorkspace(context.Background(), dir)
	assert.Error(t, err)
}

package filestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	local, err := NewLocal(dir, "/uploads/")
	require.NoError(t, err)

	url, err := local.Save(context.Background(), "PanCard.PDF", strings.NewReader("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"), url)
	assert.True(t, strings.HasSuffix(url, ".pdf"), url)

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	other, err := local.Save(context.Background(), "PanCard.pdf", strings.NewReader("x"), "")
	require.NoError(t, err)
	assert.NotEqual(t, url, other)
}

func TestLocalSaveRejectsUnsupportedType(t *testing.T) {
	local, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	for _, name := range []string{"setup.exe", "notes.txt", "noext"} {
		_, err := local.Save(context.Background(), name, strings.NewReader("x"), "")
		assert.ErrorIs(t, err, ErrUnsupportedType, name)
	}

	entries, err := os.ReadDir(local.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalSaveCanceled(t *testing.T) {
	local, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = local.Save(ctx, "menu.png", strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, context.Canceled)
}

package filestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/legalqa/internal/config"
)

type readSeekNopCloser struct {
	*strings.Reader
}

func (readSeekNopCloser) Close() error { return nil }

func TestNewWithoutTypeDisablesArchive(t *testing.T) {
	store, err := New(config.FileStoreConfig{})
	require.NoError(t, err)
	require.Nil(t, store)
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
}

func TestLocalStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())

	body := "%PDF-1.4 test"
	reader := readSeekNopCloser{strings.NewReader(body)}
	_, _ = reader.Seek(3, 0)
	key := ArchiveKey("doc-1")
	require.NoError(t, store.Save(context.Background(), key, reader, int64(len(body))))

	raw, err := os.ReadFile(filepath.Join(dir, "doc-1.pdf"))
	require.NoError(t, err)
	require.Equal(t, body, string(raw))
}

func TestLocalStoreRejectsPathKeys(t *testing.T) {
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)
	err = store.Save(context.Background(), "../escape.pdf", readSeekNopCloser{strings.NewReader("x")}, 1)
	require.Error(t, err)
}

func TestS3StoreRequiresCredentials(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "s3", Data: map[string]interface{}{"bucket": "b"}})
	require.Error(t, err)
}

package sources

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"

	"github.com/stretchr/testify/require"
)

const samplePage = "<!DOCTYPE html><html><head><title>t</title></head><body><p>hello</p></body></html>"

func TestDirectoryOpener_Open(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.html"), []byte(samplePage), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "2.html"), 0o700))

	opener := NewDirectoryOpener(dir, ".html")

	t.Run("existing file", func(t *testing.T) {
		req := require.New(t)

		handle, err := opener.Open(context.Background(), "1")
		req.NoError(err)
		defer handle.Close()

		req.True(strings.HasPrefix(handle.MediaType(), "text/html"), handle.MediaType())

		body, err := io.ReadAll(handle)
		req.NoError(err)
		req.Equal(samplePage, string(body))
	})

	t.Run("missing file", func(t *testing.T) {
		req := require.New(t)

		_, err := opener.Open(context.Background(), "404")
		req.ErrorIs(err, fs.ErrNotExist)
		req.True(contracts.IsNotFound(contracts.NewOpenError("s", "404", err)))
	})

	t.Run("directory", func(t *testing.T) {
		req := require.New(t)

		_, err := opener.Open(context.Background(), "2")
		req.ErrorIs(err, contracts.ErrContentNotFound)
	})

	t.Run("path traversal", func(t *testing.T) {
		for _, identifier := range []string{"", "../1", "..", ".hidden", "a/b", `a\b`} {
			_, err := opener.Open(context.Background(), identifier)
			require.ErrorIs(t, err, contracts.ErrContentNotFound, identifier)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := opener.Open(ctx, "1")
		require.True(t, errors.Is(err, context.Canceled))
	})
}

func TestDirectoryOpener_ChunkSource(t *testing.T) {
	req := require.New(t)

	dir := t.TempDir()
	req.NoError(os.WriteFile(filepath.Join(dir, "7.html"), []byte(samplePage), 0o600))

	s, err := NewChunkSource(NewDirectoryOpener(dir, ".html"), "7", 16)
	req.NoError(err)
	req.NoError(s.Open(context.Background()))
	defer s.Close()

	var joined []byte
	for _, chunk := range drain(t, s) {
		req.LessOrEqual(len(chunk), 16)
		joined = append(joined, chunk...)
	}
	req.Equal(samplePage, string(joined))
}

package sources

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"

	"github.com/stretchr/testify/require"
)

func TestTemplateOpener_Open(t *testing.T) {
	opener := NewTemplateOpener(3)

	t.Run("renders numeric ids", func(t *testing.T) {
		req := require.New(t)

		handle, err := opener.Open(context.Background(), "42")
		req.NoError(err)
		defer handle.Close()

		body, err := io.ReadAll(handle)
		req.NoError(err)
		req.Contains(string(body), "<title>Site 42</title>")
		req.Contains(string(body), `id="section-3"`)
		req.NotContains(string(body), `id="section-4"`)
	})

	t.Run("identifiers with leading zeros share a page", func(t *testing.T) {
		req := require.New(t)

		renders := 0
		opener := NewTemplateOpener(1)
		opener.now = func() time.Time {
			renders++
			return time.Date(2026, 1, 1, 0, 0, renders, 0, time.UTC)
		}

		read := func(identifier string) string {
			handle, err := opener.Open(context.Background(), identifier)
			req.NoError(err)
			defer handle.Close()
			body, err := io.ReadAll(handle)
			req.NoError(err)
			return string(body)
		}

		first := read("9")
		req.Equal(first, read("009"))
		req.Equal(1, renders)
		req.NotEqual(first, read("10"))
	})

	t.Run("rejects other ids", func(t *testing.T) {
		for _, identifier := range []string{"0", "-1", "abc", ""} {
			_, err := opener.Open(context.Background(), identifier)
			require.ErrorIs(t, err, contracts.ErrContentNotFound, identifier)
		}
	})
}

func TestMemoryOpener_Open(t *testing.T) {
	req := require.New(t)

	opener := NewMemoryOpener()
	data := []byte("plain text content")
	opener.Put("a", data)
	data[0] = 'X'

	handle, err := opener.Open(context.Background(), "a")
	req.NoError(err)
	body, err := io.ReadAll(handle)
	req.NoError(err)
	req.Equal("plain text content", string(body))
	req.Contains(handle.MediaType(), "text/plain")

	_, err = opener.Open(context.Background(), "b")
	req.ErrorIs(err, contracts.ErrContentNotFound)
}

func TestFallbackOpener_Open(t *testing.T) {
	primary := NewMemoryOpener()
	primary.Put("1", []byte("from primary"))

	t.Run("primary wins", func(t *testing.T) {
		req := require.New(t)

		handle, err := NewFallbackOpener(primary, NewTemplateOpener(1)).Open(context.Background(), "1")
		req.NoError(err)
		body, _ := io.ReadAll(handle)
		req.Equal("from primary", string(body))
	})

	t.Run("fallback on not found", func(t *testing.T) {
		req := require.New(t)

		handle, err := NewFallbackOpener(primary, NewTemplateOpener(1)).Open(context.Background(), "2")
		req.NoError(err)
		body, _ := io.ReadAll(handle)
		req.Contains(string(body), "Site 2")
	})

	t.Run("other errors are not masked", func(t *testing.T) {
		req := require.New(t)

		broken := &trackingOpener{openErr: errors.New("permission denied")}
		_, err := NewFallbackOpener(broken, NewTemplateOpener(1)).Open(context.Background(), "2")
		req.EqualError(err, "permission denied")
	})

	t.Run("fallback miss stays not found", func(t *testing.T) {
		req := require.New(t)

		_, err := NewFallbackOpener(primary, NewTemplateOpener(1)).Open(context.Background(), "nope")
		req.ErrorIs(err, contracts.ErrContentNotFound)
	})
}

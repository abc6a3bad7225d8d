package utils

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderCache_GetOrRender(t *testing.T) {
	t.Run("renders once per key", func(t *testing.T) {
		req := require.New(t)
		cache := NewRenderCache(10)

		var renders atomic.Int32
		render := func() ([]byte, error) {
			renders.Add(1)
			return []byte("page"), nil
		}

		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				body, err := cache.GetOrRender("1", render)
				if err == nil && string(body) != "page" {
					t.Errorf("unexpected body %q", body)
				}
			}()
		}
		wg.Wait()

		req.EqualValues(1, renders.Load())
		req.Equal(1, cache.Len())
	})

	t.Run("errors are not cached", func(t *testing.T) {
		req := require.New(t)
		cache := NewRenderCache(10)

		_, err := cache.GetOrRender("1", func() ([]byte, error) { return nil, errors.New("boom") })
		req.EqualError(err, "boom")
		req.Zero(cache.Len())

		body, err := cache.GetOrRender("1", func() ([]byte, error) { return []byte("ok"), nil })
		req.NoError(err)
		req.Equal("ok", string(body))
	})

	t.Run("stops storing at the limit", func(t *testing.T) {
		req := require.New(t)
		cache := NewRenderCache(2)

		for i := range 4 {
			body, err := cache.GetOrRender(fmt.Sprint(i), func() ([]byte, error) {
				return []byte(fmt.Sprint("page ", i)), nil
			})
			req.NoError(err)
			req.Equal(fmt.Sprint("page ", i), string(body))
		}
		req.Equal(2, cache.Len())

		cache.Clear()
		req.Zero(cache.Len())
	})
}

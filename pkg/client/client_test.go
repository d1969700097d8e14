package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cachemgr/internal/cache"
	"cachemgr/internal/server"
	cmerrors "cachemgr/pkg/errors"
)

func setupClient(t *testing.T, capacity int) (*Client, *cache.Cache) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	c, err := cache.New(capacity)
	require.NoError(t, err)
	t.Cleanup(c.Destroy)

	ts := httptest.NewServer(server.New(c, nil, nil).Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL), c
}

func TestClient_RoundTrip(t *testing.T) {
	cl, _ := setupClient(t, 2)
	ctx := context.Background()

	ok, err := cl.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, cl.Put(ctx, "a", "1"))
	require.NoError(t, cl.Put(ctx, "b", "2"))
	value, err := cl.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", value)

	require.NoError(t, cl.Put(ctx, "c", "3"))
	_, err = cl.Get(ctx, "b")
	assert.ErrorIs(t, err, cmerrors.ErrMiss)

	keys, err := cl.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, keys)

	stats, err := cl.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestClient_Delete(t *testing.T) {
	cl, _ := setupClient(t, 2)
	ctx := context.Background()

	require.NoError(t, cl.Put(ctx, "a", "1"))
	require.NoError(t, cl.Delete(ctx, "a"))

	err := cl.Delete(ctx, "a")
	assert.ErrorIs(t, err, cmerrors.ErrNotFound)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClient_KeysNeedEscaping(t *testing.T) {
	cl, c := setupClient(t, 2)
	ctx := context.Background()

	require.NoError(t, cl.Put(ctx, "user 42?x", "v"))
	value, err := c.Get("user 42?x")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}

func TestClient_EmptyKeyRejectedLocally(t *testing.T) {
	cl := New("http://127.0.0.1:0")
	ctx := context.Background()

	assert.ErrorIs(t, cl.Put(ctx, "", "v"), cmerrors.ErrInvalidArgument)
	_, err := cl.Get(ctx, "")
	assert.ErrorIs(t, err, cmerrors.ErrInvalidArgument)
	assert.ErrorIs(t, cl.Delete(ctx, ""), cmerrors.ErrInvalidArgument)
}

func TestClient_DestroyedCache(t *testing.T) {
	cl, c := setupClient(t, 1)
	c.Destroy()

	_, err := cl.Get(context.Background(), "a")
	assert.ErrorIs(t, err, cmerrors.ErrDestroyed)
}

func TestClient_KeysWithSlash(t *testing.T) {
	cl, c := setupClient(t, 2)
	ctx := context.Background()

	require.NoError(t, cl.Put(ctx, "users/42", "alice"))
	value, err := c.Get("users/42")
	require.NoError(t, err)
	assert.Equal(t, "alice", value)

	value, err = cl.Get(ctx, "users/42")
	require.NoError(t, err)
	assert.Equal(t, "alice", value)

	require.NoError(t, cl.Delete(ctx, "users/42"))
	assert.Equal(t, 0, c.Len())
}

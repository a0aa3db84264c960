package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectAndKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := Connect(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Raw().Set(ctx, "k", "v", time.Minute).Err())
	v, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestConnectFailures(t *testing.T) {
	_, err := Connect(context.Background(), "not a url")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = Connect(context.Background(), "redis://"+addr)
	assert.Error(t, err)
}

func TestDeletePrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	c, err := Connect(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)

	for i := 0; i < 450; i++ {
		require.NoError(t, mr.Set(fmt.Sprintf("cache:%d", i), "x"))
	}
	require.NoError(t, mr.Set("other", "keep"))

	n, err := DeletePrefix(ctx, c.Raw(), "cache:")
	require.NoError(t, err)
	assert.EqualValues(t, 450, n)
	assert.True(t, mr.Exists("other"))
	for _, k := range mr.Keys() {
		assert.NotContains(t, k, "cache:", "left behind %s", k)
	}
	assert.Len(t, mr.Keys(), 1)

	n, err = DeletePrefix(ctx, c.Raw(), "cache:")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeletePrefixManyPages(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	c, err := Connect(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		require.NoError(t, mr.Set(fmt.Sprintf("cms:cache:/api/articles?page=%d", i), "x"))
		if i%3 == 0 {
			require.NoError(t, mr.Set(fmt.Sprintf("cms:idem:%d", i), "1"))
		}
	}

	n, err := DeletePrefix(ctx, c.Raw(), "cms:cache:")
	require.NoError(t, err)
	assert.EqualValues(t, 1000, n)
	assert.Len(t, mr.Keys(), 334)
}

func TestNilClient(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Raw())
	assert.NoError(t, c.Close())
}

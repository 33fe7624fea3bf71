package runlock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRunLock(t *testing.T) {
	ctx := context.Background()
	lock := NewInMemoryRunLock()

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire while held must fail")

	require.NoError(t, lock.Release(ctx))

	ok, err = lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "acquire after release must succeed")
}

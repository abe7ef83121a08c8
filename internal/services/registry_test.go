package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	down := errors.New("connection refused")

	r := NewRegistry()
	r.Register("storage", NewPingFunc("memory", func(ctx context.Context) error { return nil }))
	r.Register("redis", NewPingFunc("redis", func(ctx context.Context) error { return down }))

	assert.Equal(t, []string{"redis", "storage"}, r.List())
	require.NotNil(t, r.Get("storage"))
	assert.Equal(t, "memory", r.Get("storage").Type())

	results := r.HealthCheckAll(context.Background())
	require.Len(t, results, 2)
	assert.NoError(t, results["storage"])
	assert.ErrorIs(t, results["redis"], down)

	r.Unregister("redis")
	assert.Nil(t, r.Get("redis"))
	assert.Len(t, r.HealthCheckAll(context.Background()), 1)
}

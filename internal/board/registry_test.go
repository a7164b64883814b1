package board

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"order-board/internal/models"
)

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	api := &memoryAPI{}
	r := NewRegistry(api, time.Hour)

	first := r.Get("a")
	second := r.Get("b")
	require.NotSame(t, first, second)
	assert.Same(t, first, r.Get("a"))
	assert.Equal(t, 2, r.Len())

	first.OpenNew()
	assert.True(t, first.View().Form.Open)
	assert.False(t, second.View().Form.Open)

	require.NoError(t, first.Save(context.Background(), "", models.OrderInput{Name: "Alpha", Owner: "Bob"}, nil))
	require.NoError(t, second.Load(context.Background()))
	require.Len(t, second.View().Orders, 1)

	require.NoError(t, second.RequestDelete("o-1"))
	assert.False(t, first.View().Confirm.Open)
}

func TestRegistry_EvictsIdleSessions(t *testing.T) {
	r := NewRegistry(&memoryAPI{}, time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	old := r.Get("old")
	now = now.Add(30 * time.Second)
	r.Get("fresh")
	now = now.Add(45 * time.Second)

	r.Get("fresh")
	assert.Equal(t, 1, r.Len())
	assert.NotSame(t, old, r.Get("old"))
}

func TestRegistry_ZeroTTLKeepsSessions(t *testing.T) {
	r := NewRegistry(&memoryAPI{}, 0)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	b := r.Get("a")
	now = now.Add(24 * time.Hour)
	assert.Same(t, b, r.Get("a"))
	assert.NotEmpty(t, NewSessionID())
}

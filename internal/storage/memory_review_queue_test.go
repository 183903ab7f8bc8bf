package storage_test

import (
	"context"
	"gurimarket/backend/internal/models"
	"gurimarket/backend/internal/storage"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryReviewQueue_OneOpenReviewPerUser(t *testing.T) {
	ctx := context.Background()
	q := storage.NewMemoryReviewQueue()

	first := &models.AdminReview{UserID: "u1", Recent30Days: 7, HiddenPosts: 2, Categories: pq.StringArray{"spam"}}
	require.NoError(t, q.Open(ctx, first))
	second := &models.AdminReview{UserID: "u1", Recent30Days: 8, HiddenPosts: 1, Categories: pq.StringArray{"spam", "scam"}}
	require.NoError(t, q.Open(ctx, second))
	require.NoError(t, q.Open(ctx, &models.AdminReview{UserID: "u2", Recent30Days: 7}))

	assert.Equal(t, first.ID, second.ID)
	pending, err := q.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	got, err := q.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Recent30Days)
	assert.Equal(t, 3, got.HiddenPosts)
	assert.Equal(t, pq.StringArray{"spam", "scam"}, got.Categories)

	limited, err := q.Pending(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMemoryReviewQueue_Resolve(t *testing.T) {
	ctx := context.Background()
	q := storage.NewMemoryReviewQueue()
	r := &models.AdminReview{UserID: "u1"}
	require.NoError(t, q.Open(ctx, r))

	resolved, err := q.Resolve(ctx, r.ID, "dismissed")
	require.NoError(t, err)
	assert.Equal(t, models.AdminReviewResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)

	_, err = q.Resolve(ctx, r.ID, "dismissed")
	assert.ErrorIs(t, err, storage.ErrNotPending)
	_, err = q.Resolve(ctx, "nope", "dismissed")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = q.Get(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// A resolved review does not absorb the next flag.
	next := &models.AdminReview{UserID: "u1"}
	require.NoError(t, q.Open(ctx, next))
	assert.NotEqual(t, r.ID, next.ID)
}

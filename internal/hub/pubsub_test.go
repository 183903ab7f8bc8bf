package hub_test

import (
	"context"
	"encoding/json"
	"gurimarket/backend/internal/hub"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPubSubSource_DeliversEnvelopes(t *testing.T) {
	rdb := newRedis(t)
	d := hub.NewDispatcher(2, zap.NewNop().Sugar())
	got := make(chan hub.Event, 4)
	d.Register(hub.KindReviewCreated, func(_ context.Context, ev hub.Event) error {
		got <- ev
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	src := hub.NewPubSubSource(rdb, zap.NewNop().Sugar())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, d) }()

	// Wait for the subscriber before publishing.
	require.Eventually(t, func() bool {
		n, err := rdb.PubSubNumSub(ctx, hub.TriggerChannel).Result()
		return err == nil && n[hub.TriggerChannel] == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, rdb.Publish(ctx, hub.TriggerChannel, "{not json").Err())
	require.NoError(t, hub.Publish(ctx, rdb, hub.Envelope{ID: "x", Kind: "listing.created"}))
	require.NoError(t, hub.Publish(ctx, rdb, hub.Envelope{
		ID:       "rv-9",
		Kind:     hub.KindReviewCreated,
		Params:   map[string]string{hub.ParamDocumentID: "rv-9"},
		Document: json.RawMessage(`{"receiverId":"seller","value":1}`),
	}))

	select {
	case ev := <-got:
		assert.Equal(t, "rv-9", ev.ID)
		assert.Equal(t, "rv-9", ev.Param(hub.ParamDocumentID))
		var doc struct {
			ReceiverID string `json:"receiverId"`
		}
		require.NoError(t, ev.Decode(&doc))
		assert.Equal(t, "seller", doc.ReceiverID)
	case <-time.After(2 * time.Second):
		t.Fatal("envelope was not delivered")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	d.Wait()
	assert.Empty(t, got, "malformed and unknown envelopes are skipped")
}

package redis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "storefront/internal/domain/cart"
)

func TestCartKey(t *testing.T) {
	assert.Equal(t, "cart:abc", cartKey("abc"))
}

func TestSnapshotJSON(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	in := cartdom.Snapshot{
		SessionID: "s1",
		Items: []cartdom.LineItem{
			{ID: "p1", Name: "Cone", UnitPrice: decimal.RequireFromString("120.50"), Quantity: 3},
		},
		UpdatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	// prices travel as decimal strings
	assert.Contains(t, string(b), `"unitPrice":"120.5"`)

	out, err := decodeSnapshot(b)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.True(t, out.Items[0].UnitPrice.Equal(in.Items[0].UnitPrice))
	assert.Equal(t, 3, out.Items[0].Quantity)
	assert.True(t, out.ExpiresAt.Equal(in.ExpiresAt))

	_, err = decodeSnapshot([]byte("{not json"))
	assert.Error(t, err)

	empty, err := decodeSnapshot([]byte(`{"sessionId":"s1"}`))
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
}

func TestTTLFor(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, cartdom.DefaultSnapshotTTL, ttlFor(cartdom.Snapshot{}, now))
	assert.Equal(t, 2*time.Hour, ttlFor(cartdom.Snapshot{ExpiresAt: now.Add(2 * time.Hour)}, now))
	assert.Equal(t, cartdom.DefaultSnapshotTTL, ttlFor(cartdom.Snapshot{ExpiresAt: now.Add(-time.Minute)}, now))
}

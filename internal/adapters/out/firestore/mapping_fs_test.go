package firestore

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "storefront/internal/domain/cart"
)

func TestProductFromData(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	p, err := productFromData("p1", map[string]any{
		"name":       " Bridal Kit ",
		"price":      "1299.50",
		"imageUrl":   "",
		"categoryId": "c-bridal",
		"isFeatured": true,
		"createdAt":  created,
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Bridal Kit", p.Name)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("1299.5")))
	assert.Nil(t, p.ImageURL)
	require.NotNil(t, p.CategoryID)
	assert.Equal(t, "c-bridal", *p.CategoryID)
	assert.True(t, p.IsFeatured)
	assert.True(t, p.CreatedAt.Equal(created))

	numeric, err := productFromData("p2", map[string]any{"price": float64(75)})
	require.NoError(t, err)
	assert.True(t, numeric.Price.Equal(decimal.NewFromInt(75)))
	assert.Nil(t, numeric.CategoryID)

	_, err = productFromData("p3", map[string]any{"price": "abc"})
	assert.Error(t, err)
}

func TestCategoryFromData(t *testing.T) {
	c := categoryFromData("c1", map[string]any{
		"name":        "Henna Cones",
		"slug":        "henna-cones",
		"description": "Natural henna",
	})
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, "henna-cones", c.Slug)
	require.NotNil(t, c.Description)
	assert.Equal(t, "Natural henna", *c.Description)
	assert.Nil(t, c.ImageURL)
}

func TestCartDocRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	snap := cartdom.Snapshot{
		SessionID: "s1",
		Items: []cartdom.LineItem{
			{ID: "b", Name: "B", UnitPrice: decimal.RequireFromString("10.25"), Quantity: 2, ImageRef: "gs://bkt/b.png"},
			{ID: "a", Name: "A", UnitPrice: decimal.NewFromInt(3), Quantity: 1},
			{ID: " ", Name: "blank", Quantity: 1},
		},
		UpdatedAt: now,
		ExpiresAt: now.Add(cartdom.DefaultSnapshotTTL),
	}

	doc := cartDocFromSnapshot(snap)
	require.Len(t, doc.Items, 2)
	assert.Equal(t, "10.25", doc.Items[0].UnitPrice)

	// what Firestore hands back from snap.Data()
	raw := map[string]any{
		"updatedAt": doc.UpdatedAt,
		"expiresAt": doc.ExpiresAt,
		"items": []any{
			map[string]any{"id": "b", "name": "B", "unitPrice": "10.25", "quantity": int64(2), "imageRef": "gs://bkt/b.png"},
			map[string]any{"id": "a", "name": "A", "unitPrice": "3", "quantity": int64(1), "imageRef": ""},
			"garbage",
			map[string]any{"id": "c", "unitPrice": "not-a-number", "quantity": int64(1)},
		},
	}
	got := snapshotFromData(raw)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "b", got.Items[0].ID)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.25")))
	assert.Equal(t, "a", got.Items[1].ID)
	assert.True(t, got.ExpiresAt.Equal(now.Add(cartdom.DefaultSnapshotTTL)))
}

func TestSnapshotFromData_Empty(t *testing.T) {
	got := snapshotFromData(nil)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
}

// internal/domain/cart/repository_port.go
package cart

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidSnapshot = errors.New("cart: invalid snapshot")
)

// DefaultSnapshotTTL is the inactivity window after which a saved cart may be
// dropped by the backing store (Firestore TTL on expiresAt, Redis key TTL).
const DefaultSnapshotTTL = 7 * 24 * time.Hour

// Snapshot is the persisted form of a session cart.
type Snapshot struct {
	SessionID string     `json:"sessionId"`
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// NewSnapshot captures st for sessionID at now.
func NewSnapshot(sessionID string, st State, now time.Time) (Snapshot, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return Snapshot{}, ErrInvalidSnapshot
	}
	items := make([]LineItem, len(st.Items))
	copy(items, st.Items)
	return Snapshot{
		SessionID: sid,
		Items:     items,
		UpdatedAt: now,
		ExpiresAt: now.Add(DefaultSnapshotTTL),
	}, nil
}

// SnapshotRepository is the optional save/load boundary for carts.
// It is not part of the Store contract; the store works without one.
//
// Not-found policy: Load returns (nil, nil) when no snapshot exists.
type SnapshotRepository interface {
	Load(ctx context.Context, sessionID string) (*Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Delete(ctx context.Context, sessionID string) error
}

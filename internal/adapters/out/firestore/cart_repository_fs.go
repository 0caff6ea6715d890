// internal/adapters/out/firestore/cart_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cartdom "storefront/internal/domain/cart"
)

// CartRepositoryFS implements cart.SnapshotRepository using Firestore.
//
// Collection design:
// - collection: carts
// - docId: sessionId (docId is the source of truth)
// - fields: items(array, insertion order), updatedAt, expiresAt
//
// TTL:
// - Configure Firestore TTL on "expiresAt".
type CartRepositoryFS struct {
	Client *firestore.Client
}

func NewCartRepositoryFS(client *firestore.Client) *CartRepositoryFS {
	return &CartRepositoryFS{Client: client}
}

func (r *CartRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("carts")
}

// Load returns (nil, nil) if not found (nil policy).
func (r *CartRepositoryFS) Load(ctx context.Context, sessionID string) (*cartdom.Snapshot, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cart_repository_fs: firestore client is nil")
	}

	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, errors.New("cart_repository_fs: sessionID is empty")
	}

	snap, err := r.col().Doc(sid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	// Parse snap.Data() by hand: a document written by an older schema must
	// not fail the whole cart with a DataTo type mismatch.
	s := snapshotFromData(snap.Data())
	s.SessionID = sid
	return &s, nil
}

// Save overwrites the full doc (simple & predictable).
func (r *CartRepositoryFS) Save(ctx context.Context, s cartdom.Snapshot) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}

	sid := strings.TrimSpace(s.SessionID)
	if sid == "" {
		return cartdom.ErrInvalidSnapshot
	}

	_, err := r.col().Doc(sid).Set(ctx, cartDocFromSnapshot(s))
	return err
}

func (r *CartRepositoryFS) Delete(ctx context.Context, sessionID string) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}

	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return errors.New("cart_repository_fs: sessionID is empty")
	}

	_, err := r.col().Doc(sid).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

// -----------------------------------------
// Firestore DTO
// -----------------------------------------

type cartDoc struct {
	Items     []cartItemDoc `firestore:"items"`
	UpdatedAt time.Time     `firestore:"updatedAt"`
	ExpiresAt time.Time     `firestore:"expiresAt"`
}

type cartItemDoc struct {
	ID        string `firestore:"id"`
	Name      string `firestore:"name"`
	UnitPrice string `firestore:"unitPrice"`
	Quantity  int    `firestore:"quantity"`
	ImageRef  string `firestore:"imageRef"`
}

func cartDocFromSnapshot(s cartdom.Snapshot) cartDoc {
	items := make([]cartItemDoc, 0, len(s.Items))
	for _, it := range s.Items {
		id := strings.TrimSpace(it.ID)
		if id == "" || it.Quantity <= 0 {
			continue
		}
		items = append(items, cartItemDoc{
			ID:        id,
			Name:      it.Name,
			UnitPrice: it.UnitPrice.String(),
			Quantity:  it.Quantity,
			ImageRef:  it.ImageRef,
		})
	}
	return cartDoc{
		Items:     items,
		UpdatedAt: s.UpdatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

// snapshotFromData skips malformed entries instead of failing; the store's
// Restore applies the remaining invariants (duplicates, clamping).
func snapshotFromData(raw map[string]any) cartdom.Snapshot {
	out := cartdom.Snapshot{Items: []cartdom.LineItem{}}
	if raw == nil {
		return out
	}

	if t, ok := asTime(raw["updatedAt"]); ok {
		out.UpdatedAt = t
	}
	if t, ok := asTime(raw["expiresAt"]); ok {
		out.ExpiresAt = t
	}

	list, _ := raw["items"].([]any)
	for _, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		id := strings.TrimSpace(asString(m["id"]))
		if id == "" {
			continue
		}
		price, err := asDecimal(m["unitPrice"])
		if err != nil {
			continue
		}
		out.Items = append(out.Items, cartdom.LineItem{
			ID:        id,
			Name:      asString(m["name"]),
			UnitPrice: price,
			Quantity:  asInt(m["quantity"]),
			ImageRef:  asString(m["imageRef"]),
		})
	}
	return out
}

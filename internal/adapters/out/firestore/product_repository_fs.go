// internal/adapters/out/firestore/product_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	productdom "storefront/internal/domain/product"
)

// ProductRepositoryFS is a Firestore-based implementation of product.Repository.
//
// Collection: products
// Fields: name, price (number or decimal string), imageUrl, categoryId,
// isFeatured, createdAt
type ProductRepositoryFS struct {
	Client *firestore.Client
}

func NewProductRepositoryFS(client *firestore.Client) *ProductRepositoryFS {
	return &ProductRepositoryFS{Client: client}
}

func (r *ProductRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("products")
}

func (r *ProductRepositoryFS) GetByID(ctx context.Context, id string) (productdom.Product, error) {
	if r == nil || r.Client == nil {
		return productdom.Product{}, errors.New("product_repository_fs: firestore client is nil")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, productdom.ErrInvalidID
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return productdom.Product{}, productdom.ErrNotFound
		}
		return productdom.Product{}, err
	}
	return productFromData(snap.Ref.ID, snap.Data())
}

// List pushes the equality conditions down to Firestore. Substring search has
// no Firestore equivalent, so name matching, ordering and limit run in memory.
func (r *ProductRepositoryFS) List(ctx context.Context, filter productdom.Filter, opts productdom.ListOptions) ([]productdom.Product, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("product_repository_fs: firestore client is nil")
	}

	q := r.col().Query
	if c := strings.TrimSpace(filter.CategoryID); c != "" {
		q = q.Where("categoryId", "==", c)
	}
	if filter.FeaturedOnly {
		q = q.Where("isFeatured", "==", true)
	}

	it := q.Documents(ctx)
	defer it.Stop()

	items := []productdom.Product{}
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("product_repository_fs: list: %w", err)
		}
		p, err := productFromData(doc.Ref.ID, doc.Data())
		if err != nil {
			return nil, err
		}
		if filter.Match(p) {
			items = append(items, p)
		}
	}
	return opts.Apply(items), nil
}

func (r *ProductRepositoryFS) CountByCategory(ctx context.Context) (map[string]int, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("product_repository_fs: firestore client is nil")
	}

	it := r.col().Select("categoryId").Documents(ctx)
	defer it.Stop()

	out := map[string]int{}
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("product_repository_fs: count: %w", err)
		}
		if c := asStringPtr(doc.Data()["categoryId"]); c != nil {
			out[*c]++
		}
	}
	return out, nil
}

func productFromData(id string, data map[string]any) (productdom.Product, error) {
	price, err := asDecimal(data["price"])
	if err != nil {
		return productdom.Product{}, fmt.Errorf("product_repository_fs: product %s: %w", id, err)
	}
	p := productdom.Product{
		ID:         id,
		Name:       strings.TrimSpace(asString(data["name"])),
		Price:      price,
		ImageURL:   asStringPtr(data["imageUrl"]),
		CategoryID: asStringPtr(data["categoryId"]),
		IsFeatured: asBool(data["isFeatured"]),
	}
	if t, ok := asTime(data["createdAt"]); ok {
		p.CreatedAt = t.UTC()
	}
	return p, nil
}

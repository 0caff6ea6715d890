// internal/adapters/out/firestore/category_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	categorydom "storefront/internal/domain/category"
)

// CategoryRepositoryFS implements category.Repository using Firestore.
// Collection: categories (fields: name, slug, description, imageUrl)
type CategoryRepositoryFS struct {
	Client *firestore.Client
}

func NewCategoryRepositoryFS(client *firestore.Client) *CategoryRepositoryFS {
	return &CategoryRepositoryFS{Client: client}
}

func (r *CategoryRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("categories")
}

func (r *CategoryRepositoryFS) List(ctx context.Context, opts categorydom.ListOptions) ([]categorydom.Category, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("category_repository_fs: firestore client is nil")
	}

	q := r.col().Query
	if opts.OrderByName {
		q = q.OrderBy("name", firestore.Asc)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	return r.collect(q.Documents(ctx))
}

func (r *CategoryRepositoryFS) GetBySlug(ctx context.Context, slug string) (categorydom.Category, error) {
	if r == nil || r.Client == nil {
		return categorydom.Category{}, errors.New("category_repository_fs: firestore client is nil")
	}
	s, err := categorydom.NormalizeSlug(slug)
	if err != nil {
		return categorydom.Category{}, categorydom.ErrNotFound
	}

	items, err := r.collect(r.col().Where("slug", "==", s).Limit(1).Documents(ctx))
	if err != nil {
		return categorydom.Category{}, err
	}
	if len(items) == 0 {
		return categorydom.Category{}, categorydom.ErrNotFound
	}
	return items[0], nil
}

func (r *CategoryRepositoryFS) collect(it *firestore.DocumentIterator) ([]categorydom.Category, error) {
	defer it.Stop()

	out := []categorydom.Category{}
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("category_repository_fs: %w", err)
		}
		out = append(out, categoryFromData(doc.Ref.ID, doc.Data()))
	}
	return out, nil
}

func categoryFromData(id string, data map[string]any) categorydom.Category {
	return categorydom.Category{
		ID:          id,
		Name:        strings.TrimSpace(asString(data["name"])),
		Slug:        strings.TrimSpace(asString(data["slug"])),
		Description: asStringPtr(data["description"]),
		ImageURL:    asStringPtr(data["imageUrl"]),
	}
}

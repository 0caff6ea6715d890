// internal/application/query/storefront/catalog_query.go
package storefront

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/internal/application/query/storefront/dto"
	appresolver "storefront/internal/application/resolver"
	categorydom "storefront/internal/domain/category"
	productdom "storefront/internal/domain/product"
)

const (
	homeFeaturedLimit   = 4
	homeCategoriesLimit = 4

	// AllCategories is the category filter value meaning "no filter".
	AllCategories = "all"
)

// ProductsParams filter the product listing.
type ProductsParams struct {
	Search     string
	CategoryID string
}

// Normalize trims both fields and maps AllCategories to no filter.
func (p ProductsParams) Normalize() ProductsParams {
	out := ProductsParams{
		Search:     strings.TrimSpace(p.Search),
		CategoryID: strings.TrimSpace(p.CategoryID),
	}
	if strings.EqualFold(out.CategoryID, AllCategories) {
		out.CategoryID = ""
	}
	return out
}

// CatalogQuery builds the read models of the catalog pages.
type CatalogQuery struct {
	ProductRepo  productdom.Repository
	CategoryRepo categorydom.Repository
	Images       appresolver.ImageURLResolver

	// FallbackImageURL is served for products without an image.
	FallbackImageURL string

	log *zap.Logger
}

func NewCatalogQuery(products productdom.Repository, categories categorydom.Repository, images appresolver.ImageURLResolver, fallbackImageURL string, log *zap.Logger) *CatalogQuery {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogQuery{
		ProductRepo:      products,
		CategoryRepo:     categories,
		Images:           appresolver.OrPassthrough(images),
		FallbackImageURL: strings.TrimSpace(fallbackImageURL),
		log:              log.Named("catalog_query"),
	}
}

// Home returns up to four featured products and four categories, fetched
// concurrently. Either list renders empty when its fetch fails.
func (q *CatalogQuery) Home(ctx context.Context) (dto.HomeDTO, error) {
	var (
		featured []productdom.Product
		cats     []categorydom.Category
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		featured, err = q.ProductRepo.List(ctx,
			productdom.Filter{FeaturedOnly: true},
			productdom.ListOptions{Limit: homeFeaturedLimit},
		)
		return q.inert(ctx, "list featured products", err)
	})
	g.Go(func() error {
		var err error
		cats, err = q.CategoryRepo.List(ctx, categorydom.ListOptions{Limit: homeCategoriesLimit})
		return q.inert(ctx, "list categories", err)
	})
	if err := g.Wait(); err != nil {
		return dto.HomeDTO{}, fmt.Errorf("catalog_query: home: %w", err)
	}

	return dto.HomeDTO{
		Featured:   q.productDTOs(ctx, featured, nil),
		Categories: q.categoryDTOs(ctx, cats, nil),
	}, nil
}

// Products lists products by name substring and/or category, with the
// category names attached, plus the categories of the filter. A failing
// category fetch leaves the filter empty and the names unset.
func (q *CatalogQuery) Products(ctx context.Context, params ProductsParams) (dto.ProductsDTO, error) {
	p := params.Normalize()

	var (
		items []productdom.Product
		cats  []categorydom.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = q.ProductRepo.List(gctx,
			productdom.Filter{NameContains: p.Search, CategoryID: p.CategoryID},
			productdom.ListOptions{},
		)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = q.CategoryRepo.List(gctx, categorydom.ListOptions{OrderByName: true})
		return q.inert(ctx, "list categories", err)
	})
	if err := g.Wait(); err != nil {
		return dto.ProductsDTO{}, fmt.Errorf("catalog_query: products: %w", err)
	}

	return dto.ProductsDTO{
		Search:     p.Search,
		CategoryID: p.CategoryID,
		Items:      q.productDTOs(ctx, items, categoryNames(cats)),
		Categories: q.categoryDTOs(ctx, cats, nil),
	}, nil
}

// Categories lists all categories by name with their product counts.
// A failing count leaves every count at zero.
func (q *CatalogQuery) Categories(ctx context.Context) (dto.CategoriesDTO, error) {
	var (
		cats   []categorydom.Category
		counts map[string]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cats, err = q.CategoryRepo.List(gctx, categorydom.ListOptions{OrderByName: true})
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = q.ProductRepo.CountByCategory(gctx)
		if err != nil {
			counts = nil
		}
		return q.inert(ctx, "count products", err)
	})
	if err := g.Wait(); err != nil {
		return dto.CategoriesDTO{}, fmt.Errorf("catalog_query: categories: %w", err)
	}

	return dto.CategoriesDTO{Items: q.categoryDTOs(ctx, cats, counts)}, nil
}

// inert swallows the error of an optional fetch. Only the end of the page
// request itself is reported; a sibling's cancellation is dropped silently.
func (q *CatalogQuery) inert(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if !errors.Is(err, context.Canceled) {
		q.log.Warn(op+" failed", zap.Error(err))
	}
	return nil
}

// CategoryDetail returns the category with slug and its products, featured
// first then newest.
func (q *CatalogQuery) CategoryDetail(ctx context.Context, slug string) (dto.CategoryDetailDTO, error) {
	c, err := q.CategoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, categorydom.ErrNotFound) {
			return dto.CategoryDetailDTO{}, fmt.Errorf("%w: category %q", ErrNotFound, slug)
		}
		return dto.CategoryDetailDTO{}, fmt.Errorf("catalog_query: category detail: %w", err)
	}

	items, err := q.ProductRepo.List(ctx,
		productdom.Filter{CategoryID: c.ID},
		productdom.ListOptions{Order: productdom.OrderFeaturedThenNewest},
	)
	if err != nil {
		return dto.CategoryDetailDTO{}, fmt.Errorf("catalog_query: category products: %w", err)
	}

	names := map[string]string{c.ID: c.Name}
	return dto.CategoryDetailDTO{
		Category: q.categoryDTO(ctx, c, len(items)),
		Products: q.productDTOs(ctx, items, names),
	}, nil
}

// ProductByID is used by the CLI.
func (q *CatalogQuery) ProductByID(ctx context.Context, id string) (dto.ProductDTO, error) {
	p, err := q.ProductRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, productdom.ErrNotFound) {
			return dto.ProductDTO{}, fmt.Errorf("%w: product %q", ErrNotFound, id)
		}
		return dto.ProductDTO{}, err
	}
	return q.productDTO(ctx, p, nil), nil
}

func (q *CatalogQuery) productDTOs(ctx context.Context, items []productdom.Product, names map[string]string) []dto.ProductDTO {
	out := make([]dto.ProductDTO, 0, len(items))
	for _, p := range items {
		out = append(out, q.productDTO(ctx, p, names))
	}
	return out
}

func (q *CatalogQuery) productDTO(ctx context.Context, p productdom.Product, names map[string]string) dto.ProductDTO {
	img := q.Images.ResolveImageURL(ctx, p.ImageOr(""))
	if img == "" {
		img = q.FallbackImageURL
	}
	d := dto.ProductDTO{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price.String(),
		ImageURL:   img,
		CategoryID: p.CategoryID,
		IsFeatured: p.IsFeatured,
		CreatedAt:  p.CreatedAt,
	}
	if p.CategoryID != nil {
		if n, ok := names[*p.CategoryID]; ok {
			d.CategoryName = &n
		}
	}
	return d
}

func (q *CatalogQuery) categoryDTOs(ctx context.Context, cats []categorydom.Category, counts map[string]int) []dto.CategoryDTO {
	out := make([]dto.CategoryDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, q.categoryDTO(ctx, c, counts[c.ID]))
	}
	return out
}

func (q *CatalogQuery) categoryDTO(ctx context.Context, c categorydom.Category, count int) dto.CategoryDTO {
	d := dto.CategoryDTO{
		ID:           c.ID,
		Name:         c.Name,
		Slug:         c.Slug,
		Description:  c.Description,
		ProductCount: count,
	}
	if c.ImageURL != nil {
		if u := q.Images.ResolveImageURL(ctx, *c.ImageURL); u != "" {
			d.ImageURL = &u
		}
	}
	return d
}

func categoryNames(cats []categorydom.Category) map[string]string {
	m := make(map[string]string, len(cats))
	for _, c := range cats {
		m[c.ID] = c.Name
	}
	return m
}

// CatalogLoaders are the latest-wins entry points of the catalog pages.
// View keys are chosen by the caller, typically "<session>/<page>".
type CatalogLoaders struct {
	Home           *Loader[struct{}, dto.HomeDTO]
	Products       *Loader[ProductsParams, dto.ProductsDTO]
	Categories     *Loader[struct{}, dto.CategoriesDTO]
	CategoryDetail *Loader[string, dto.CategoryDetailDTO]
}

func NewCatalogLoaders(q *CatalogQuery, timeout time.Duration) *CatalogLoaders {
	return &CatalogLoaders{
		Home: NewLoader("home", func(ctx context.Context, _ struct{}) (dto.HomeDTO, error) {
			return q.Home(ctx)
		}, timeout),
		Products: NewLoader("products", func(ctx context.Context, p ProductsParams) (dto.ProductsDTO, error) {
			return q.Products(ctx, p)
		}, timeout),
		Categories: NewLoader("categories", func(ctx context.Context, _ struct{}) (dto.CategoriesDTO, error) {
			return q.Categories(ctx)
		}, timeout),
		CategoryDetail: NewLoader("category_detail", func(ctx context.Context, slug string) (dto.CategoryDetailDTO, error) {
			return q.CategoryDetail(ctx, slug)
		}, timeout),
	}
}

// LoadState is the load status of one page view.
type LoadState struct {
	Status Status
	Err    error
}

// State reports the state of a page view; page is one of home, products,
// categories, category_detail. ok is false for an unknown page.
func (l *CatalogLoaders) State(page, view string) (LoadState, bool) {
	var (
		s   Status
		err error
	)
	switch page {
	case "home":
		s, err = l.Home.Status(view)
	case "products":
		s, err = l.Products.Status(view)
	case "categories":
		s, err = l.Categories.Status(view)
	case "category_detail":
		s, err = l.CategoryDetail.Status(view)
	default:
		return LoadState{}, false
	}
	return LoadState{Status: s, Err: err}, true
}

// Prune forgets views of every page finished before cutoff.
func (l *CatalogLoaders) Prune(cutoff time.Time) int {
	return l.Home.Prune(cutoff) +
		l.Products.Prune(cutoff) +
		l.Categories.Prune(cutoff) +
		l.CategoryDetail.Prune(cutoff)
}

// cmd/storefront/catalog.go
package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	sfquery "storefront/internal/application/query/storefront"
	shared "storefront/internal/platform/di/shared"
	storefrontDI "storefront/internal/platform/di/storefront"
)

var (
	productsSearch   string
	productsCategory string
	productsLimit    int
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the configured catalog",
}

var catalogProductsCmd = &cobra.Command{
	Use:   "products",
	Short: "List products as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCatalog(cmd, func(ctx context.Context, q *sfquery.CatalogQuery) (any, error) {
			page, err := q.Products(ctx, sfquery.ProductsParams{Search: productsSearch, CategoryID: productsCategory})
			if err != nil {
				return nil, err
			}
			items := page.Items
			if productsLimit > 0 && len(items) > productsLimit {
				items = items[:productsLimit]
			}
			return items, nil
		})
	},
}

var catalogCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories with product counts as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCatalog(cmd, func(ctx context.Context, q *sfquery.CatalogQuery) (any, error) {
			page, err := q.Categories(ctx)
			if err != nil {
				return nil, err
			}
			return page.Items, nil
		})
	},
}

func init() {
	catalogProductsCmd.Flags().StringVar(&productsSearch, "q", "", "name substring (case-insensitive)")
	catalogProductsCmd.Flags().StringVar(&productsCategory, "category", "", `category id ("all" for every category)`)
	catalogProductsCmd.Flags().IntVar(&productsLimit, "limit", 0, "maximum number of products (0 = all)")

	catalogCmd.AddCommand(catalogProductsCmd, catalogCategoriesCmd)
}

// withCatalog wires the catalog from config, runs fn and prints its result.
func withCatalog(cmd *cobra.Command, fn func(ctx context.Context, q *sfquery.CatalogQuery) (any, error)) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	infra, err := shared.NewInfra(ctx, cfg, log, version)
	if err != nil {
		return err
	}
	defer infra.Close()

	cont, err := storefrontDI.NewContainer(ctx, infra)
	if err != nil {
		return err
	}
	defer cont.Close()

	v, err := fn(ctx, cont.CatalogQuery)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), v)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

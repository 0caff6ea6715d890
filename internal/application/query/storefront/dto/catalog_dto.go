// internal/application/query/storefront/dto/catalog_dto.go
package dto

import "time"

// ProductDTO is a product card. Price is a decimal string; ImageURL is
// always set (catalog image or the fallback).
type ProductDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Price        string    `json:"price"`
	ImageURL     string    `json:"imageUrl"`
	CategoryID   *string   `json:"categoryId"`
	CategoryName *string   `json:"categoryName"`
	IsFeatured   bool      `json:"isFeatured"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CategoryDTO struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Description  *string `json:"description"`
	ImageURL     *string `json:"imageUrl"`
	ProductCount int     `json:"productCount"`
}

type HomeDTO struct {
	Featured   []ProductDTO  `json:"featured"`
	Categories []CategoryDTO `json:"categories"`
}

// ProductsDTO is the product listing plus the categories of its filter.
type ProductsDTO struct {
	Search     string        `json:"search"`
	CategoryID string        `json:"categoryId"`
	Items      []ProductDTO  `json:"items"`
	Categories []CategoryDTO `json:"categories"`
}

type CategoriesDTO struct {
	Items []CategoryDTO `json:"items"`
}

type CategoryDetailDTO struct {
	Category CategoryDTO  `json:"category"`
	Products []ProductDTO `json:"products"`
}

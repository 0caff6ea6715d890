// internal/application/query/storefront/dto/cart_dto.go
package dto

type CartItemDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
	ImageURL  string `json:"imageUrl"`
}

// CartDTO is the cart panel. Amounts are decimal strings.
type CartDTO struct {
	Items       []CartItemDTO `json:"items"`
	TotalItems  int           `json:"totalItems"`
	TotalAmount string        `json:"totalAmount"`
	Version     uint64        `json:"version"`
}

// BadgeDTO is the navigation badge.
type BadgeDTO struct {
	TotalItems int `json:"totalItems"`
}

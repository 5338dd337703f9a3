// AngelaMos | 2026
// dto.go

package product

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductRequest is the body for both create and update. Update replaces
// every editable field, so omitted optional fields fall back to defaults.
type ProductRequest struct {
	Name        string           `json:"name"        validate:"required,min=1,max=200"`
	Description string           `json:"description" validate:"required,max=5000"`
	Price       *decimal.Decimal `json:"price"       validate:"required"`
	Image       string           `json:"image"       validate:"omitempty,max=500"`
	Category    string           `json:"category"    validate:"required,max=100"`
	Quantity    *int             `json:"quantity"    validate:"omitempty,gte=0,lte=2147483647"`
}

type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type ListParams struct {
	Category string
}

func (req ProductRequest) apply(p *Product) {
	p.Name = strings.TrimSpace(req.Name)
	p.Description = req.Description
	p.Price = req.Price.Round(priceScale)
	p.Category = strings.TrimSpace(req.Category)

	p.Image = strings.TrimSpace(req.Image)
	if p.Image == "" {
		p.Image = DefaultImage
	}

	p.Quantity = DefaultQuantity
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
}

func ToProductResponse(p *Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		Category:    p.Category,
		Quantity:    p.Quantity,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToProductResponseList(products []Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, ToProductResponse(&products[i]))
	}
	return out
}

// AngelaMos | 2026
// dto.go

package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront-api/internal/order"
	"github.com/carterperez-dev/storefront-api/internal/product"
)

type ItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity"  validate:"gte=1,lte=10000"`
}

type ItemResponse struct {
	ID        string                   `json:"id"`
	ProductID string                   `json:"productId"`
	Quantity  int                      `json:"quantity"`
	Product   *product.ProductResponse `json:"product,omitempty"`
	Subtotal  decimal.Decimal          `json:"subtotal"`
}

type CartResponse struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Items       []ItemResponse  `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type CheckoutResponse struct {
	Msg         string          `json:"msg"`
	OrderID     string          `json:"orderId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

func ToCartResponse(c *Cart) CartResponse {
	items := make([]ItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		resp := ItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal(),
		}
		if it.Product != nil {
			p := product.ToProductResponse(it.Product)
			resp.Product = &p
		}
		items = append(items, resp)
	}

	return CartResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		Items:       items,
		TotalAmount: c.Total(),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func ToCheckoutResponse(o *order.Order) CheckoutResponse {
	return CheckoutResponse{
		Msg:         "order placed successfully",
		OrderID:     o.ID,
		TotalAmount: o.TotalAmount,
	}
}

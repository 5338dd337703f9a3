// AngelaMos | 2026
// entity.go

package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is written once at checkout and never changes afterwards.
type Order struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	TotalAmount decimal.Decimal `db:"total_amount"`
	CreatedAt   time.Time       `db:"created_at"`
	Items       []Item          `db:"-"`
}

// Item snapshots the product as it was when the order was placed.
type Item struct {
	ID        string          `db:"id"`
	OrderID   string          `db:"order_id"`
	ProductID string          `db:"product_id"`
	Name      string          `db:"name"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	Quantity  int             `db:"quantity"`
	Position  int             `db:"position"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Line struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// New builds an order from cart lines and computes its total once.
func New(userID string, lines []Line) *Order {
	o := &Order{
		ID:          uuid.New().String(),
		UserID:      userID,
		TotalAmount: decimal.Zero,
		Items:       make([]Item, 0, len(lines)),
	}

	for i, l := range lines {
		item := Item{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Position:  i,
		}
		o.TotalAmount = o.TotalAmount.Add(item.Subtotal())
		o.Items = append(o.Items, item)
	}

	return o
}

type Stats struct {
	Count   int             `db:"count"`
	Revenue decimal.Decimal `db:"revenue"`
}

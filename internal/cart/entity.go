// AngelaMos | 2026
// entity.go

package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront-api/internal/product"
)

// Cart belongs to exactly one user and holds at most one line per product.
type Cart struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	Items     []Item    `db:"-"`
}

type Item struct {
	ID        string
	ProductID string
	Quantity  int
	Product   *product.Product
}

// MaxQuantity caps a single line. Keep in sync with the lte tag on
// ItemRequest.Quantity.
const MaxQuantity = 10_000

func validQuantity(quantity int) bool {
	return quantity >= 1 && quantity <= MaxQuantity
}

// Add merges quantity into the line for productID or appends a new line.
// A merge that would push the line past MaxQuantity leaves the cart as is.
func (c *Cart) Add(productID string, quantity int) (*Item, error) {
	if !validQuantity(quantity) {
		return nil, ErrInvalidQuantity
	}

	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			if c.Items[i].Quantity > MaxQuantity-quantity {
				return nil, ErrInvalidQuantity
			}
			c.Items[i].Quantity += quantity
			return &c.Items[i], nil
		}
	}

	c.Items = append(c.Items, Item{
		ID:        uuid.New().String(),
		ProductID: productID,
		Quantity:  quantity,
	})
	return &c.Items[len(c.Items)-1], nil
}

// SetQuantity replaces the quantity of an existing line.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	if !validQuantity(quantity) {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return ErrItemNotFound
}

// Remove drops the line with itemID and reports whether one was found.
func (c *Cart) Remove(itemID string) bool {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (i Item) Subtotal() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total prices the cart with the products' current prices.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

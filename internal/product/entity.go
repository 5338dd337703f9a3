// AngelaMos | 2026
// entity.go

package product

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultImage    = "no-image.jpg"
	DefaultQuantity = 0
)

// Product is a catalog entry. Quantity is stock on hand and is only
// informational; nothing decrements it.
type Product struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Image       string          `db:"image"`
	Category    string          `db:"category"`
	Quantity    int             `db:"quantity"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

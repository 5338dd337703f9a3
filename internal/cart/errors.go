// AngelaMos | 2026
// errors.go

package cart

import (
	"fmt"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

var (
	ErrCartNotFound    = fmt.Errorf("cart: %w", core.ErrNotFound)
	ErrItemNotFound    = fmt.Errorf("cart item: %w", core.ErrNotFound)
	ErrProductNotFound = fmt.Errorf("product: %w", core.ErrNotFound)
	ErrEmptyCart       = fmt.Errorf("cart is empty: %w", core.ErrInvalidInput)
	ErrInvalidQuantity = fmt.Errorf("quantity must be between 1 and 10000: %w", core.ErrInvalidInput)
)

// AngelaMos | 2026
// service.go

package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/order"
	"github.com/carterperez-dev/storefront-api/internal/product"
)

const tracerName = "github.com/carterperez-dev/storefront-api/internal/cart"

type Catalog interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

// Service is the cart manager. Every mutation and checkout runs in one
// transaction holding the user's cart row lock, so operations on the same
// cart apply one at a time.
type Service struct {
	repo    Repository
	tx      Transactor
	catalog Catalog
	tracer  trace.Tracer
	logger  *slog.Logger
}

func NewService(
	repo Repository,
	tx Transactor,
	catalog Catalog,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Service {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		tx:      tx,
		catalog: catalog,
		tracer:  tracer,
		logger:  logger,
	}
}

func (s *Service) GetCart(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, cartErr(err)
	}
	return c, nil
}

func (s *Service) AddItem(
	ctx context.Context,
	userID, productID string,
	quantity int,
) (*Cart, error) {
	if !validQuantity(quantity) {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.catalog.GetByID(ctx, productID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("look up product: %w", err)
	}

	var result *Cart
	err := s.tx.WithinTx(ctx, func(carts Repository, _ OrderWriter) error {
		c, err := carts.GetOrCreateForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		if _, err := c.Add(productID, quantity); err != nil {
			return err
		}

		if err := carts.SaveItems(ctx, c); err != nil {
			return err
		}

		result, err = carts.Get(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}

	return result, nil
}

func (s *Service) UpdateItem(
	ctx context.Context,
	userID, productID string,
	quantity int,
) (*Cart, error) {
	if !validQuantity(quantity) {
		return nil, ErrInvalidQuantity
	}

	var result *Cart
	err := s.tx.WithinTx(ctx, func(carts Repository, _ OrderWriter) error {
		c, err := carts.GetForUpdate(ctx, userID)
		if err != nil {
			return cartErr(err)
		}

		if err := c.SetQuantity(productID, quantity); err != nil {
			return err
		}

		if err := carts.SaveItems(ctx, c); err != nil {
			return err
		}

		result, err = carts.Get(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	return result, nil
}

// RemoveItem deletes a line by its id. Removing a line that is not there
// succeeds without touching the cart.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) error {
	err := s.tx.WithinTx(ctx, func(carts Repository, _ OrderWriter) error {
		c, err := carts.GetForUpdate(ctx, userID)
		if err != nil {
			return cartErr(err)
		}

		if !c.Remove(itemID) {
			return nil
		}

		return carts.SaveItems(ctx, c)
	})
	if err != nil {
		return fmt.Errorf("remove item: %w", err)
	}

	return nil
}

// Checkout turns the cart into an order priced at current product prices
// and empties the cart. Both writes commit together or not at all.
func (s *Service) Checkout(ctx context.Context, userID string) (*order.Order, error) {
	ctx, span := s.tracer.Start(ctx, "cart.Checkout",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	var placed *order.Order
	err := s.tx.WithinTx(ctx, func(carts Repository, orders OrderWriter) error {
		c, err := carts.GetForUpdate(ctx, userID)
		if err != nil {
			return cartErr(err)
		}

		if c.IsEmpty() {
			return ErrEmptyCart
		}

		lines := make([]order.Line, 0, len(c.Items))
		for _, it := range c.Items {
			if it.Product == nil {
				return fmt.Errorf("cart item %s has no product: %w", it.ID, ErrProductNotFound)
			}
			lines = append(lines, order.Line{
				ProductID: it.ProductID,
				Name:      it.Product.Name,
				UnitPrice: it.Product.Price,
				Quantity:  it.Quantity,
			})
			core.AddSpanEvent(ctx, "line priced",
				attribute.String("product.id", it.ProductID),
				attribute.Int("quantity", it.Quantity),
				core.MoneyAttr("unit_price", it.Product.Price),
			)
		}

		o := order.New(userID, lines)
		if err := orders.Create(ctx, o); err != nil {
			return err
		}

		c.Clear()
		if err := carts.SaveItems(ctx, c); err != nil {
			return err
		}

		placed = o
		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("checkout: %w", err)
	}

	span.SetAttributes(
		attribute.String("order.id", placed.ID),
		attribute.Int("order.items", len(placed.Items)),
		core.MoneyAttr("order.total", placed.TotalAmount),
	)

	s.logger.InfoContext(ctx, "order placed",
		"user_id", userID,
		"order_id", placed.ID,
		"items", len(placed.Items),
		"total", placed.TotalAmount.String(),
	)

	return placed, nil
}

func cartErr(err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return ErrCartNotFound
	}
	return err
}

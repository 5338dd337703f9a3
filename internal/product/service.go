// AngelaMos | 2026
// service.go

package product

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req ProductRequest) (*Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	p := &Product{ID: uuid.New().String()}
	req.apply(p)

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Product, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Update(
	ctx context.Context,
	id string,
	req ProductRequest,
) (*Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	p := &Product{ID: id}
	req.apply(p)

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Bounds of the NUMERIC(12, 2) price and INTEGER stock columns.
const (
	priceScale = 2
	maxStock   = math.MaxInt32
)

var maxPrice = decimal.RequireFromString("9999999999.99")

func validateRequest(req ProductRequest) error {
	if req.Price == nil {
		return core.InvalidInputError("price is required")
	}
	if req.Price.IsNegative() {
		return core.InvalidInputError("price must not be negative")
	}
	if !req.Price.Equal(req.Price.Round(priceScale)) {
		return core.InvalidInputError("price must have at most 2 decimal places")
	}
	if req.Price.GreaterThan(maxPrice) {
		return core.InvalidInputError("price must not exceed " + maxPrice.String())
	}
	if req.Quantity != nil && (*req.Quantity < 0 || *req.Quantity > maxStock) {
		return core.InvalidInputError("quantity must be between 0 and 2147483647")
	}
	return nil
}

// AngelaMos | 2026
// service.go

package order

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetForUser hides other users' orders behind the same not-found answer
// as a missing order.
func (s *Service) GetForUser(ctx context.Context, userID, orderID string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.UserID != userID {
		return nil, fmt.Errorf("get order %s: %w", orderID, core.ErrNotFound)
	}

	return o, nil
}

func (s *Service) ListForUser(
	ctx context.Context,
	userID string,
	params ListParams,
) ([]Order, int, error) {
	params.Normalize()
	return s.repo.ListByUser(ctx, userID, params)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

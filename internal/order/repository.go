// AngelaMos | 2026
// repository.go

package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string, params ListParams) ([]Order, int, error)
	Stats(ctx context.Context) (*Stats, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Create writes the order and its items. Callers that need atomicity with
// other writes pass a transaction as the DBTX.
func (r *repository) Create(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO orders (id, user_id, total_amount)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	row := r.db.QueryRowxContext(ctx, query, o.ID, o.UserID, o.TotalAmount)
	if err := row.Scan(&o.CreatedAt); err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	if len(o.Items) == 0 {
		return nil
	}

	itemsQuery := `
		INSERT INTO order_items (id, order_id, product_id, name, unit_price, quantity, position)
		VALUES (:id, :order_id, :product_id, :name, :unit_price, :quantity, :position)`

	if _, err := sqlx.NamedExecContext(ctx, r.db, itemsQuery, o.Items); err != nil {
		return fmt.Errorf("create order items: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	query := `SELECT id, user_id, total_amount, created_at FROM orders WHERE id = $1`

	var o Order
	err := r.db.GetContext(ctx, &o, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get order: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	orders := []Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

func (r *repository) ListByUser(
	ctx context.Context,
	userID string,
	params ListParams,
) ([]Order, int, error) {
	params.Normalize()

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := `
		SELECT id, user_id, total_amount, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	orders := []Order{}
	if err := r.db.SelectContext(ctx, &orders, query,
		userID, params.PageSize, params.Offset()); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *repository) attachItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, 0, len(orders))
	index := make(map[string]int, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
		index[orders[i].ID] = i
		orders[i].Items = []Item{}
	}

	query, args, err := sqlx.In(`
		SELECT id, order_id, product_id, name, unit_price, quantity, position
		FROM order_items
		WHERE order_id IN (?)
		ORDER BY order_id, position`, ids)
	if err != nil {
		return fmt.Errorf("build order items query: %w", err)
	}

	var items []Item
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("list order items: %w", err)
	}

	for _, item := range items {
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	return nil
}

func (r *repository) Stats(ctx context.Context) (*Stats, error) {
	query := `SELECT COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS revenue FROM orders`

	var s Stats
	if err := r.db.GetContext(ctx, &s, query); err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}

	return &s, nil
}

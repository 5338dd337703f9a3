// AngelaMos | 2026
// repository.go

package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/order"
	"github.com/carterperez-dev/storefront-api/internal/product"
)

// Repository reads and writes one user's cart. The ForUpdate variants
// take the cart row lock and are only meaningful inside a transaction.
type Repository interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	GetForUpdate(ctx context.Context, userID string) (*Cart, error)
	GetOrCreateForUpdate(ctx context.Context, userID string) (*Cart, error)
	SaveItems(ctx context.Context, c *Cart) error
}

type OrderWriter interface {
	Create(ctx context.Context, o *order.Order) error
}

// Transactor runs fn with a cart repository and an order writer that share
// one database transaction.
type Transactor interface {
	WithinTx(
		ctx context.Context,
		fn func(carts Repository, orders OrderWriter) error,
	) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

type itemRow struct {
	ID               string          `db:"id"`
	ProductID        string          `db:"product_id"`
	Quantity         int             `db:"quantity"`
	Name             string          `db:"name"`
	Description      string          `db:"description"`
	Price            decimal.Decimal `db:"price"`
	Image            string          `db:"image"`
	Category         string          `db:"category"`
	Stock            int             `db:"stock"`
	ProductCreatedAt time.Time       `db:"product_created_at"`
	ProductUpdatedAt time.Time       `db:"product_updated_at"`
}

func (row itemRow) toItem() Item {
	return Item{
		ID:        row.ID,
		ProductID: row.ProductID,
		Quantity:  row.Quantity,
		Product: &product.Product{
			ID:          row.ProductID,
			Name:        row.Name,
			Description: row.Description,
			Price:       row.Price,
			Image:       row.Image,
			Category:    row.Category,
			Quantity:    row.Stock,
			CreatedAt:   row.ProductCreatedAt,
			UpdatedAt:   row.ProductUpdatedAt,
		},
	}
}

func (r *repository) Get(ctx context.Context, userID string) (*Cart, error) {
	return r.load(ctx, userID, false)
}

func (r *repository) GetForUpdate(ctx context.Context, userID string) (*Cart, error) {
	return r.load(ctx, userID, true)
}

func (r *repository) GetOrCreateForUpdate(
	ctx context.Context,
	userID string,
) (*Cart, error) {
	query := `
		INSERT INTO carts (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, uuid.New().String(), userID); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	return r.load(ctx, userID, true)
}

func (r *repository) load(ctx context.Context, userID string, lock bool) (*Cart, error) {
	query := `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var c Cart
	err := r.db.GetContext(ctx, &c, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get cart: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	itemsQuery := `
		SELECT ci.id, ci.product_id, ci.quantity,
		       p.name, p.description, p.price, p.image, p.category,
		       p.quantity AS stock,
		       p.created_at AS product_created_at,
		       p.updated_at AS product_updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.position`

	var rows []itemRow
	if err := r.db.SelectContext(ctx, &rows, itemsQuery, c.ID); err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}

	c.Items = make([]Item, 0, len(rows))
	for _, row := range rows {
		c.Items = append(c.Items, row.toItem())
	}

	return &c, nil
}

// SaveItems replaces the stored lines with c.Items, keeping their order.
func (r *repository) SaveItems(ctx context.Context, c *Cart) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1`, c.ID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	if len(c.Items) > 0 {
		type lineRow struct {
			ID        string `db:"id"`
			CartID    string `db:"cart_id"`
			ProductID string `db:"product_id"`
			Quantity  int    `db:"quantity"`
			Position  int    `db:"position"`
		}

		lines := make([]lineRow, 0, len(c.Items))
		for i, it := range c.Items {
			lines = append(lines, lineRow{
				ID:        it.ID,
				CartID:    c.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Position:  i,
			})
		}

		query := `
			INSERT INTO cart_items (id, cart_id, product_id, quantity, position)
			VALUES (:id, :cart_id, :product_id, :quantity, :position)`

		if _, err := sqlx.NamedExecContext(ctx, r.db, query, lines); err != nil {
			return fmt.Errorf("save cart items: %w", err)
		}
	}

	row := r.db.QueryRowxContext(ctx,
		`UPDATE carts SET updated_at = NOW() WHERE id = $1 RETURNING updated_at`, c.ID)
	if err := row.Scan(&c.UpdatedAt); err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}

	return nil
}

type sqlTransactor struct {
	db *sqlx.DB
}

func NewTransactor(db *sqlx.DB) Transactor {
	return &sqlTransactor{db: db}
}

func (t *sqlTransactor) WithinTx(
	ctx context.Context,
	fn func(carts Repository, orders OrderWriter) error,
) error {
	return core.InTx(ctx, t.db, func(tx *sqlx.Tx) error {
		return fn(NewRepository(tx), order.NewRepository(tx))
	})
}

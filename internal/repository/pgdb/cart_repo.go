package pgdb

import (
	"context"

	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// CartRepo хранит корзины пользователей. Позиция несёт копию данных
// товара на момент добавления.
type CartRepo struct {
	pool *pgxpool.Pool
}

func NewCartRepo(pool *pgxpool.Pool) *CartRepo {
	return &CartRepo{pool: pool}
}

// Upsert добавляет позицию в корзину. Повторное добавление того же
// товара суммирует количество и обновляет копию данных товара.
func (c *CartRepo) Upsert(ctx context.Context, item *domain.CartItem) (*domain.CartItem, error) {
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, product_name, price, image_key, category_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity,
			product_name = EXCLUDED.product_name,
			price = EXCLUDED.price,
			image_key = EXCLUDED.image_key,
			category_name = EXCLUDED.category_name,
			updated_at = NOW()
		RETURNING id, quantity, created_at;
	`

	saved := *item
	err := c.pool.QueryRow(ctx, query,
		item.UserID, item.ProductID, item.Quantity,
		item.Name, item.Price, item.ImageKey, item.CategoryName,
	).Scan(&saved.ID, &saved.Quantity, &saved.CreatedAt)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &saved, nil
}

// ListByUser возвращает корзину пользователя, старые позиции первыми.
func (c *CartRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	query := `
		SELECT id, user_id, product_id, quantity, product_name, price, COALESCE(image_key, ''), COALESCE(category_name, ''), created_at, updated_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY created_at;
	`

	rows, err := c.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ProductID, &item.Quantity,
			&item.Name, &item.Price, &item.ImageKey, &item.CategoryName,
			&item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// Delete убирает товар из корзины пользователя.
func (c *CartRepo) Delete(ctx context.Context, userID string, productID int64) error {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2;`

	result, err := c.pool.Exec(ctx, query, userID, productID)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if result.RowsAffected() == 0 {
		return e.ErrProductNotFound
	}

	return nil
}

// Clear опустошает корзину после оформления заказа.
func (c *CartRepo) Clear(ctx context.Context, userID string) error {
	query := `DELETE FROM cart_items WHERE user_id = $1;`

	if _, err := c.pool.Exec(ctx, query, userID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

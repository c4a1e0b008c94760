package pgdb

import (
	"context"

	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// WishlistRepo хранит избранное пользователей.
type WishlistRepo struct {
	pool *pgxpool.Pool
}

func NewWishlistRepo(pool *pgxpool.Pool) *WishlistRepo {
	return &WishlistRepo{pool: pool}
}

// Create добавляет товар в избранное. Повторное добавление — ошибка.
func (w *WishlistRepo) Create(ctx context.Context, item *domain.WishlistItem) (*domain.WishlistItem, error) {
	query := `
		INSERT INTO wishlist_items (user_id, product_id, product_name, price, image_key, category_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, product_id) DO NOTHING
		RETURNING id, created_at;
	`

	saved := *item
	err := w.pool.QueryRow(ctx, query,
		item.UserID, item.ProductID,
		item.Name, item.Price, item.ImageKey, item.CategoryName,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, e.ErrAlreadyInWishlist
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &saved, nil
}

// ListByUser возвращает избранное пользователя, новые первыми.
func (w *WishlistRepo) ListByUser(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	query := `
		SELECT id, user_id, product_id, product_name, price, COALESCE(image_key, ''), COALESCE(category_name, ''), created_at
		FROM wishlist_items
		WHERE user_id = $1
		ORDER BY created_at DESC;
	`

	rows, err := w.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	items := make([]domain.WishlistItem, 0)
	for rows.Next() {
		var item domain.WishlistItem
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ProductID,
			&item.Name, &item.Price, &item.ImageKey, &item.CategoryName,
			&item.CreatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// Delete убирает товар из избранного.
func (w *WishlistRepo) Delete(ctx context.Context, userID string, productID int64) error {
	query := `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2;`

	result, err := w.pool.Exec(ctx, query, userID, productID)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if result.RowsAffected() == 0 {
		return e.ErrProductNotFound
	}

	return nil
}

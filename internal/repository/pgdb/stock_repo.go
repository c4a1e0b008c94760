package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/shop-backend/internal/usecase"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// StockRepo реализует атомарные операции над остатками поверх PostgreSQL.
// Проверка "хватает ли остатка" и списание выполняются одним условным
// UPDATE, поэтому две конкурентные брони последней единицы не могут
// пройти обе: вторая не найдёт строку, удовлетворяющую условию.
type StockRepo struct {
	pool *pgxpool.Pool
}

func NewStockRepo(pool *pgxpool.Pool) *StockRepo {
	return &StockRepo{pool: pool}
}

// DecrementStock атомарно списывает quantity единиц и возвращает снимок
// товара (имя, цену, категорию, изображение) из того же запроса.
func (s *StockRepo) DecrementStock(ctx context.Context, productID, quantity int64) (*usecase.ProductSnapshot, error) {
	query := `
		WITH decremented AS (
			UPDATE products
			SET quantity = quantity - $2, updated_at = NOW()
			WHERE id = $1 AND NOT is_archived AND quantity >= $2
			RETURNING id, name, price, category_id, image_key, quantity
		)
		SELECT d.id, d.name, d.price, COALESCE(cat.name, ''), COALESCE(d.image_key, ''), d.quantity
		FROM decremented d
		LEFT JOIN categories cat ON cat.id = d.category_id;
	`

	var snapshot usecase.ProductSnapshot
	err := s.pool.QueryRow(ctx, query, productID, quantity).Scan(
		&snapshot.ProductID,
		&snapshot.Name,
		&snapshot.Price,
		&snapshot.CategoryName,
		&snapshot.ImageKey,
		&snapshot.Remaining,
	)
	if err == nil {
		return &snapshot, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	// Условие не выполнено: различаем отсутствие товара и нехватку остатка.
	// Прочитанный здесь остаток нужен только для текста ошибки.
	var available int64
	err = s.pool.QueryRow(ctx,
		`SELECT quantity FROM products WHERE id = $1 AND NOT is_archived`,
		productID,
	).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, e.ErrProductNotFound
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return nil, e.NewInsufficientStockError(productID, quantity, available)
}

// IncrementStock возвращает остаток на место после неудавшейся брони.
func (s *StockRepo) IncrementStock(ctx context.Context, productID, quantity int64) error {
	query := `
		UPDATE products
		SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1;
	`

	result, err := s.pool.Exec(ctx, query, productID, quantity)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if result.RowsAffected() == 0 {
		return e.ErrProductNotFound
	}

	return nil
}

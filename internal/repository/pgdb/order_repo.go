package pgdb

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/internal/usecase"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// OrderRepo реализует репозиторий заказов поверх PostgreSQL.
// Заказы append-only: после создания изменяется только колонка status.
type OrderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// Create сохраняет заказ вместе со строками-снимками.
// Выполняется внутри транзакции из контекста: заказ, строки и
// outbox-событие фиксируются или откатываются вместе.
func (o *OrderRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	orderQuery := `
		INSERT INTO orders (user_id, total_amount, address, phone_number, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at;
	`

	created := *order
	err = tx.QueryRow(ctx, orderQuery,
		order.UserID, order.TotalAmount, order.Address, order.PhoneNumber, string(order.Status),
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_name, unit_price, quantity, line_total, image_key, category_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

	for _, item := range order.Items {
		if _, err := tx.Exec(ctx, itemQuery,
			created.ID, item.ProductName, item.UnitPrice, item.Quantity,
			item.LineTotal, item.ImageKey, item.CategoryName,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	return &created, nil
}

// GetByID возвращает заказ со строками.
func (o *OrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `
		SELECT id, user_id, total_amount, address, phone_number, status, created_at, updated_at
		FROM orders
		WHERE id = $1;
	`

	var order domain.Order
	var status string
	err := o.pool.QueryRow(ctx, query, id).Scan(
		&order.ID, &order.UserID, &order.TotalAmount, &order.Address,
		&order.PhoneNumber, &status, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, e.ErrOrderNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	order.Status = domain.OrderStatus(status)

	itemsByOrder, err := o.loadItems(ctx, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = itemsByOrder[order.ID]

	return &order, nil
}

// List возвращает заказы по фильтру, новые первыми.
func (o *OrderRepo) List(ctx context.Context, filter *usecase.OrderFilter) ([]domain.Order, error) {
	query := `
		SELECT id, user_id, total_amount, address, phone_number, status, created_at, updated_at
		FROM orders
		WHERE 1=1
	`
	args := make([]any, 0, 4)

	if filter != nil {
		if filter.UserID != "" {
			args = append(args, filter.UserID)
			query += fmt.Sprintf(" AND user_id = $%d", len(args))
		}
		if filter.Status != "" {
			args = append(args, filter.Status)
			query += fmt.Sprintf(" AND status = $%d", len(args))
		}
		if filter.From != nil {
			args = append(args, *filter.From)
			query += fmt.Sprintf(" AND created_at >= $%d", len(args))
		}
		if filter.To != nil {
			args = append(args, *filter.To)
			query += fmt.Sprintf(" AND created_at <= $%d", len(args))
		}
	}

	query += " ORDER BY created_at DESC;"

	rows, err := o.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		var order domain.Order
		var status string
		if err := rows.Scan(
			&order.ID, &order.UserID, &order.TotalAmount, &order.Address,
			&order.PhoneNumber, &status, &order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		order.Status = domain.OrderStatus(status)
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if len(ids) == 0 {
		return orders, nil
	}

	itemsByOrder, err := o.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
	}

	return orders, nil
}

// MarkDelivered выполняет условный переход Placed -> Delivered одним UPDATE.
// Отсутствие затронутой строки различается на "нет заказа" и "уже доставлен".
func (o *OrderRepo) MarkDelivered(ctx context.Context, id int64) (*domain.Order, error) {
	query := `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3;
	`

	result, err := o.pool.Exec(ctx, query, id, string(domain.StatusDelivered), string(domain.StatusPlaced))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if result.RowsAffected() == 0 {
		var status string
		err := o.pool.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&status)
		if isNoRows(err) {
			return nil, e.ErrOrderNotFound
		}
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		return nil, e.ErrOrderDelivered
	}

	return o.GetByID(ctx, id)
}

// RevenueByCategory агрегирует выручку доставленных заказов по категориям.
// Категория строки: снимок из самой строки, иначе текущая категория товара
// с тем же именем, иначе "Uncategorized". Сопоставление по имени намеренно
// приблизительное: переименованные и совпадающие имена — задокументированное
// ограничение, история при этом не переписывается.
func (o *OrderRepo) RevenueByCategory(ctx context.Context, filter *usecase.RevenueFilter) ([]usecase.CategoryRevenue, error) {
	query := `
		SELECT
			COALESCE(NULLIF(item.category_name, ''), cat.name, 'Uncategorized') AS category,
			SUM(item.line_total) AS total_revenue,
			SUM(item.quantity) AS units_sold
		FROM order_items item
		JOIN orders ord ON ord.id = item.order_id
		LEFT JOIN LATERAL (
			SELECT c.name
			FROM products p
			JOIN categories c ON c.id = p.category_id
			WHERE p.name = item.product_name
			ORDER BY p.id
			LIMIT 1
		) cat ON TRUE
		WHERE ord.status = $1
	`
	args := []any{string(domain.StatusDelivered)}

	if filter != nil {
		if filter.From != nil {
			args = append(args, *filter.From)
			query += fmt.Sprintf(" AND ord.created_at >= $%d", len(args))
		}
		if filter.To != nil {
			args = append(args, *filter.To)
			query += fmt.Sprintf(" AND ord.created_at <= $%d", len(args))
		}
	}

	query += `
		GROUP BY 1
		ORDER BY total_revenue DESC;
	`

	rows, err := o.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]usecase.CategoryRevenue, 0)
	for rows.Next() {
		var row usecase.CategoryRevenue
		if err := rows.Scan(&row.Category, &row.TotalRevenue, &row.UnitsSold); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// loadItems загружает строки сразу для набора заказов.
func (o *OrderRepo) loadItems(ctx context.Context, orderIDs []int64) (map[int64][]domain.OrderLineItem, error) {
	query := `
		SELECT order_id, product_name, unit_price, quantity, line_total, COALESCE(image_key, ''), COALESCE(category_name, '')
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id;
	`

	rows, err := o.pool.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make(map[int64][]domain.OrderLineItem, len(orderIDs))
	for rows.Next() {
		var orderID int64
		var item domain.OrderLineItem
		if err := rows.Scan(
			&orderID, &item.ProductName, &item.UnitPrice, &item.Quantity,
			&item.LineTotal, &item.ImageKey, &item.CategoryName,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result[orderID] = append(result[orderID], item)
	}

	return result, rows.Err()
}

package pgdb

import (
	"context"

	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/shop-backend/internal/usecase"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// ProductRepo реализует репозиторий каталога поверх PostgreSQL.
// Остатки здесь только читаются и задаются правкой карточки;
// списания и возвраты — зона ответственности StockRepo.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// Create добавляет товар; выполняется внутри транзакции из контекста.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (name, price, category_id, image_key, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, price, category_id, COALESCE(image_key, ''), quantity, created_at, updated_at, is_archived;
	`

	var model converter.ProductModel
	err = tx.QueryRow(ctx, query,
		product.Name, product.Price, product.CategoryID, product.ImageKey, product.Quantity,
	).Scan(
		&model.ID, &model.Name, &model.Price, &model.CategoryID,
		&model.ImageKey, &model.Quantity, &model.CreatedAt, &model.UpdatedAt, &model.IsArchived,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// Update изменяет карточку товара; пустой image_key сохраняет старое изображение.
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET name = $2,
			price = $3,
			category_id = $4,
			image_key = CASE WHEN $5 <> '' THEN $5 ELSE image_key END,
			quantity = $6,
			updated_at = NOW()
		WHERE id = $1 AND NOT is_archived
		RETURNING id, name, price, category_id, COALESCE(image_key, ''), quantity, created_at, updated_at, is_archived;
	`

	var model converter.ProductModel
	err = tx.QueryRow(ctx, query,
		product.ID, product.Name, product.Price, product.CategoryID, product.ImageKey, product.Quantity,
	).Scan(
		&model.ID, &model.Name, &model.Price, &model.CategoryID,
		&model.ImageKey, &model.Quantity, &model.CreatedAt, &model.UpdatedAt, &model.IsArchived,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, e.ErrProductNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// Archive скрывает товар из каталога, не удаляя запись.
func (p *ProductRepo) Archive(ctx context.Context, id int64) error {
	query := `
		UPDATE products
		SET is_archived = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT is_archived;
	`

	result, err := p.pool.Exec(ctx, query, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if result.RowsAffected() == 0 {
		return e.ErrProductNotFound
	}

	return nil
}

// GetProductsInfo возвращает информацию о товарах по их идентификаторам, включая название категории.
func (p *ProductRepo) GetProductsInfo(ctx context.Context, ids []int64) ([]usecase.ProductInfo, error) {
	query := `
		SELECT pr.id, pr.name, cat.name, pr.price, COALESCE(pr.image_key, ''), pr.quantity
		FROM products pr
		JOIN categories cat ON pr.category_id = cat.id
		WHERE pr.id = ANY($1) AND NOT pr.is_archived;
	`

	rows, err := p.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]usecase.ProductInfo, 0)
	for rows.Next() {
		var (
			id, price, quantity  int64
			name, category, key  string
		)
		if err := rows.Scan(&id, &name, &category, &price, &key, &quantity); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, usecase.NewProductInfo(id, name, category, price, key, quantity))
	}

	return result, rows.Err()
}

// List возвращает весь неархивированный каталог.
func (p *ProductRepo) List(ctx context.Context) ([]usecase.ProductInfo, error) {
	query := `
		SELECT pr.id, pr.name, cat.name, pr.price, COALESCE(pr.image_key, ''), pr.quantity
		FROM products pr
		JOIN categories cat ON pr.category_id = cat.id
		WHERE NOT pr.is_archived
		ORDER BY pr.id;
	`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]usecase.ProductInfo, 0)
	for rows.Next() {
		var (
			id, price, quantity  int64
			name, category, key  string
		)
		if err := rows.Scan(&id, &name, &category, &price, &key, &quantity); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, usecase.NewProductInfo(id, name, category, price, key, quantity))
	}

	return result, rows.Err()
}

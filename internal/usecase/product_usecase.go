package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
)

// ProductUseCase реализует бизнес-логику каталога товаров.
// Остатки товаров здесь только задаются при создании/правке карточки;
// все списания и возвраты идут через StockLedger.
type ProductUseCase struct {
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	cacheRepo    CacheRepository
	imagesInfra  ImagesInfra
	dbPool       transaction.Transactional
	logger       logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	categoryRepo CategoryRepository,
	cacheRepo CacheRepository,
	imagesInfra ImagesInfra,
	dbPool transaction.Transactional,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		cacheRepo:    cacheRepo,
		imagesInfra:  imagesInfra,
		dbPool:       dbPool,
		logger:       logger,
	}
}

// AddProduct добавляет товар с изображением и идемпотентным созданием категории.
func (p *ProductUseCase) AddProduct(ctx context.Context, req *AddProductReq) (*ProductInfo, error) {
	const op = "ProductUseCase.AddProduct"

	var err error
	if err = p.validateProduct(req.Name, req.CategoryName, req.Price, req.Quantity); err != nil {
		return nil, e.Wrap(op, err)
	}

	var (
		imageKey string
		uploaded bool
	)

	if req.Image != nil {
		imageKey, err = p.imagesInfra.UploadImage(ctx, NewUploadImageReq(req.Name, *req.Image))
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		uploaded = true
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	// Если произошла ошибка, происходит Rollback транзакции и очистка загруженного изображения
	defer func() {
		if err != nil {
			if tx.IsActive() {
				tx.Rollback(ctx)
			}

			if uploaded {
				p.logger.Warnf(
					"Cleaning up orphaned image after transaction failure. product_name: %s, error: %v",
					req.Name,
					e.Wrap(op, err),
				)
				p.imagesInfra.CleanupImages([]string{imageKey})
			}
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	var category *domain.Category
	category, err = p.categoryRepo.GetOrCreate(ctx, domain.NewCategory(req.CategoryName))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var product *domain.Product
	product, err = p.productRepo.Create(ctx, domain.NewProduct(req.Name, req.Price, category.ID, imageKey, req.Quantity))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	info := NewProductInfo(product.ID, product.Name, category.Name, product.Price, product.ImageKey, product.Quantity)
	return &info, nil
}

// UpdateProduct изменяет карточку товара; изображение заменяется при наличии нового.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, req *UpdateProductReq) (*ProductInfo, error) {
	const op = "ProductUseCase.UpdateProduct"

	var err error
	if err = p.validateProduct(req.Name, req.CategoryName, req.Price, req.Quantity); err != nil {
		return nil, e.Wrap(op, err)
	}

	var (
		imageKey string
		uploaded bool
	)

	if req.Image != nil {
		imageKey, err = p.imagesInfra.UploadImage(ctx, NewUploadImageReq(req.Name, *req.Image))
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		uploaded = true
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil {
			if tx.IsActive() {
				tx.Rollback(ctx)
			}

			if uploaded {
				p.imagesInfra.CleanupImages([]string{imageKey})
			}
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	var category *domain.Category
	category, err = p.categoryRepo.GetOrCreate(ctx, domain.NewCategory(req.CategoryName))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	updated := domain.NewProduct(req.Name, req.Price, category.ID, imageKey, req.Quantity)
	updated.ID = req.ID

	var product *domain.Product
	product, err = p.productRepo.Update(ctx, updated)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := p.cacheRepo.DeleteProducts(ctx, []int64{product.ID}); err != nil {
		p.logger.Warnf("Failed to delete product from cache: %v", e.Wrap(op, err))
	}

	info := NewProductInfo(product.ID, product.Name, category.Name, product.Price, product.ImageKey, product.Quantity)
	return &info, nil
}

// ArchiveProduct скрывает товар из каталога. Запись не удаляется:
// на неё не ссылаются заказы, но она нужна отчётности по имени.
func (p *ProductUseCase) ArchiveProduct(ctx context.Context, id int64) error {
	const op = "ProductUseCase.ArchiveProduct"

	if err := p.productRepo.Archive(ctx, id); err != nil {
		return e.Wrap(op, err)
	}

	if err := p.cacheRepo.DeleteProducts(ctx, []int64{id}); err != nil {
		p.logger.Warnf("Failed to delete product from cache: %v", e.Wrap(op, err))
	}

	return nil
}

// ListProducts возвращает весь каталог с производным наличием
// и presigned-ссылками на изображения.
func (p *ProductUseCase) ListProducts(ctx context.Context) ([]ProductInfo, error) {
	const op = "ProductUseCase.ListProducts"

	products, err := p.productRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.attachImageURLs(ctx, products)
	return products, nil
}

// GetProductsInfo возвращает информацию о товарах по их идентификаторам,
// сначала пытаясь прочитать их из кэша.
func (p *ProductUseCase) GetProductsInfo(ctx context.Context, req *GetProductsReq) (*GetProductsRes, error) {
	const op = "ProductUseCase.GetProductsInfo"

	if len(req.IDs) == 0 {
		return NewGetProductsRes(nil, nil), nil
	}

	cacheProductsMap, err := p.cacheRepo.GetProducts(ctx, req.IDs)
	var nonCacheable []int64
	if err != nil {
		nonCacheable = append(nonCacheable, req.IDs...)
	} else {
		for _, productID := range req.IDs {
			if _, ok := cacheProductsMap[productID]; !ok {
				nonCacheable = append(nonCacheable, productID)
			}
		}
	}

	var productsInfoFromDB []ProductInfo
	if len(nonCacheable) > 0 {
		productsInfoFromDB, err = p.productRepo.GetProductsInfo(ctx, nonCacheable)
		if err != nil {
			return nil, e.Wrap(op, err)
		}

		// Фоновое добавление товаров в кэш
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			if err := p.cacheRepo.SetProducts(bgCtx, productsInfoFromDB); err != nil {
				p.logger.Warnf("Failed to cache products in background: %v", e.Wrap(op, err))
			}
		}()
	}

	dbProductsMap := make(map[int64]ProductInfo, len(productsInfoFromDB))
	for _, productInfo := range productsInfoFromDB {
		dbProductsMap[productInfo.ID] = productInfo
	}

	result := make([]ProductInfo, 0, len(req.IDs))
	notFoundProducts := make([]int64, 0)
	for _, id := range req.IDs {
		if pr, ok := cacheProductsMap[id]; ok {
			result = append(result, pr)
		} else if pr, ok := dbProductsMap[id]; ok {
			result = append(result, pr)
		} else {
			notFoundProducts = append(notFoundProducts, id)
		}
	}

	p.attachImageURLs(ctx, result)
	return NewGetProductsRes(result, notFoundProducts), nil
}

// attachImageURLs заполняет presigned-ссылки; отказ подписи не фатален.
func (p *ProductUseCase) attachImageURLs(ctx context.Context, products []ProductInfo) {
	for i := range products {
		if products[i].ImageKey == "" {
			continue
		}

		url, err := p.imagesInfra.PresignURL(ctx, products[i].ImageKey)
		if err != nil {
			p.logger.Warnf("Failed to presign image URL for product %d: %v", products[i].ID, err)
			continue
		}
		products[i].ImageURL = url
	}
}

// validateProduct проверяет корректность входных данных карточки товара.
func (p *ProductUseCase) validateProduct(name, categoryName string, price, quantity int64) error {
	if strings.TrimSpace(name) == "" {
		return e.ErrProductNameRequired
	}

	if strings.TrimSpace(categoryName) == "" {
		return e.ErrCategoryRequired
	}

	if price <= 0 {
		return e.ErrPriceMustBePositive
	}

	if quantity < 0 {
		return e.ErrQuantityMustBePositive
	}

	return nil
}

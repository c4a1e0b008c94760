package usecase

import (
	"context"

	"github.com/DRSN-tech/shop-backend/internal/domain"
)

// StockRepository — единственная точка записи остатков.
// DecrementStock обязан выполняться одним условным UPDATE в хранилище,
// а не парой чтение+запись на уровне приложения.
type StockRepository interface {
	// DecrementStock атомарно уменьшает остаток товара, если его хватает,
	// и возвращает снимок товара из того же запроса.
	// Возвращает e.ErrProductNotFound или *e.InsufficientStockError.
	DecrementStock(ctx context.Context, productID, quantity int64) (*ProductSnapshot, error)
	// IncrementStock возвращает остаток на место (компенсация резерва).
	IncrementStock(ctx context.Context, productID, quantity int64) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Archive(ctx context.Context, id int64) error
	GetProductsInfo(ctx context.Context, ids []int64) ([]ProductInfo, error)
	List(ctx context.Context) ([]ProductInfo, error)
}

type CategoryRepository interface {
	GetOrCreate(ctx context.Context, category *domain.Category) (*domain.Category, error)
}

type OrderRepository interface {
	// Create сохраняет заказ вместе со строками; вызывается внутри транзакции.
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, filter *OrderFilter) ([]domain.Order, error)
	// MarkDelivered выполняет условный переход Placed -> Delivered.
	// Возвращает e.ErrOrderNotFound или e.ErrOrderDelivered.
	MarkDelivered(ctx context.Context, id int64) (*domain.Order, error)
	RevenueByCategory(ctx context.Context, filter *RevenueFilter) ([]CategoryRevenue, error)
}

type CartRepository interface {
	// Upsert добавляет позицию; при повторном добавлении того же товара
	// количество суммируется.
	Upsert(ctx context.Context, item *domain.CartItem) (*domain.CartItem, error)
	ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error)
	Delete(ctx context.Context, userID string, productID int64) error
	Clear(ctx context.Context, userID string) error
}

type WishlistRepository interface {
	Create(ctx context.Context, item *domain.WishlistItem) (*domain.WishlistItem, error)
	ListByUser(ctx context.Context, userID string) ([]domain.WishlistItem, error)
	Delete(ctx context.Context, userID string, productID int64) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}

type CacheRepository interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]ProductInfo, error)
	SetProducts(ctx context.Context, products []ProductInfo) error
	DeleteProducts(ctx context.Context, ids []int64) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string) (string, error)
}

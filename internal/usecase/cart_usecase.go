package usecase

import (
	"context"

	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
)

// CartUseCase — накопление корзины и избранного до оформления заказа.
// Позиции хранят копию данных товара на момент добавления.
type CartUseCase struct {
	cartRepo     CartRepository
	wishlistRepo WishlistRepository
	productRepo  ProductRepository
	logger       logger.Logger
}

func NewCartUC(
	cartRepo CartRepository,
	wishlistRepo WishlistRepository,
	productRepo ProductRepository,
	logger logger.Logger,
) *CartUseCase {
	return &CartUseCase{
		cartRepo:     cartRepo,
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
		logger:       logger,
	}
}

// AddToCart добавляет товар в корзину; повторное добавление суммирует количество.
func (c *CartUseCase) AddToCart(ctx context.Context, req *AddToCartReq) error {
	const op = "CartUseCase.AddToCart"

	if req.Quantity < 1 {
		return e.Wrap(op, e.ErrQuantityMustBePositive)
	}

	product, err := c.lookupProduct(ctx, req.ProductID)
	if err != nil {
		return e.Wrap(op, err)
	}

	item := domain.NewCartItem(
		req.UserID,
		req.ProductID,
		req.Quantity,
		domain.NewProduct(product.Name, product.Price, 0, product.ImageKey, product.Quantity),
		product.CategoryName,
	)

	if _, err := c.cartRepo.Upsert(ctx, item); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

func (c *CartUseCase) ListCart(ctx context.Context, userID string) ([]CartItemInfo, error) {
	const op = "CartUseCase.ListCart"

	items, err := c.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	result := make([]CartItemInfo, 0, len(items))
	for i := range items {
		result = append(result, NewCartItemInfo(&items[i]))
	}

	return result, nil
}

func (c *CartUseCase) RemoveFromCart(ctx context.Context, userID string, productID int64) error {
	const op = "CartUseCase.RemoveFromCart"

	if err := c.cartRepo.Delete(ctx, userID, productID); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// AddToWishlist добавляет товар в избранное; дубликаты отклоняются.
func (c *CartUseCase) AddToWishlist(ctx context.Context, userID string, productID int64) error {
	const op = "CartUseCase.AddToWishlist"

	product, err := c.lookupProduct(ctx, productID)
	if err != nil {
		return e.Wrap(op, err)
	}

	item := domain.NewWishlistItem(
		userID,
		productID,
		domain.NewProduct(product.Name, product.Price, 0, product.ImageKey, product.Quantity),
		product.CategoryName,
	)

	if _, err := c.wishlistRepo.Create(ctx, item); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

func (c *CartUseCase) ListWishlist(ctx context.Context, userID string) ([]WishlistItemInfo, error) {
	const op = "CartUseCase.ListWishlist"

	items, err := c.wishlistRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	result := make([]WishlistItemInfo, 0, len(items))
	for i := range items {
		result = append(result, NewWishlistItemInfo(&items[i]))
	}

	return result, nil
}

func (c *CartUseCase) RemoveFromWishlist(ctx context.Context, userID string, productID int64) error {
	const op = "CartUseCase.RemoveFromWishlist"

	if err := c.wishlistRepo.Delete(ctx, userID, productID); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// lookupProduct находит товар по идентификатору для копии его данных.
func (c *CartUseCase) lookupProduct(ctx context.Context, productID int64) (*ProductInfo, error) {
	products, err := c.productRepo.GetProductsInfo(ctx, []int64{productID})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, e.ErrProductNotFound
	}

	return &products[0], nil
}

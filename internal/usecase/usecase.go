package usecase

import "context"

type OrderUC interface {
	PlaceOrder(ctx context.Context, req *PlaceOrderReq) (*PlaceOrderRes, error)
	Checkout(ctx context.Context, req *CheckoutReq) (*PlaceOrderRes, error)
	ListOrders(ctx context.Context, filter *OrderFilter) ([]OrderInfo, error)
	MarkDelivered(ctx context.Context, orderID int64) (*OrderInfo, error)
	RevenueByCategory(ctx context.Context, filter *RevenueFilter) ([]CategoryRevenue, error)
}

type ProductUC interface {
	AddProduct(ctx context.Context, req *AddProductReq) (*ProductInfo, error)
	UpdateProduct(ctx context.Context, req *UpdateProductReq) (*ProductInfo, error)
	ArchiveProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context) ([]ProductInfo, error)
	GetProductsInfo(ctx context.Context, req *GetProductsReq) (*GetProductsRes, error)
}

type CartUC interface {
	AddToCart(ctx context.Context, req *AddToCartReq) error
	ListCart(ctx context.Context, userID string) ([]CartItemInfo, error)
	RemoveFromCart(ctx context.Context, userID string, productID int64) error
	AddToWishlist(ctx context.Context, userID string, productID int64) error
	ListWishlist(ctx context.Context, userID string) ([]WishlistItemInfo, error)
	RemoveFromWishlist(ctx context.Context, userID string, productID int64) error
}

package domain

import "time"

// WishlistItem — позиция избранного с копией данных товара.
type WishlistItem struct {
	ID           int64
	UserID       string
	ProductID    int64
	Name         string
	Price        int64
	ImageKey     string
	CategoryName string
	CreatedAt    time.Time
}

func NewWishlistItem(userID string, productID int64, product *Product, categoryName string) *WishlistItem {
	return &WishlistItem{
		UserID:       userID,
		ProductID:    productID,
		Name:         product.Name,
		Price:        product.Price,
		ImageKey:     product.ImageKey,
		CategoryName: categoryName,
	}
}

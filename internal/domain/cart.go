package domain

import "time"

// CartItem — позиция корзины с копией данных товара на момент добавления.
type CartItem struct {
	ID           int64
	UserID       string
	ProductID    int64
	Quantity     int64
	Name         string
	Price        int64
	ImageKey     string
	CategoryName string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

func NewCartItem(userID string, productID, quantity int64, product *Product, categoryName string) *CartItem {
	return &CartItem{
		UserID:       userID,
		ProductID:    productID,
		Quantity:     quantity,
		Name:         product.Name,
		Price:        product.Price,
		ImageKey:     product.ImageKey,
		CategoryName: categoryName,
	}
}

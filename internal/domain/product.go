package domain

import "time"

// Availability — производное состояние наличия товара.
// Никогда не хранится отдельно: вычисляется из Quantity.
type Availability string

const (
	InStock    Availability = "InStock"
	OutOfStock Availability = "OutOfStock"
)

// AvailabilityOf возвращает наличие как чистую функцию от остатка.
func AvailabilityOf(quantity int64) Availability {
	if quantity > 0 {
		return InStock
	}
	return OutOfStock
}

// Product описывает товар каталога
type Product struct {
	ID         int64
	Name       string
	Price      int64 // Цена хранится в пайсах
	CategoryID int64
	ImageKey   string // ключ объекта в MinIO, может быть пустым
	Quantity   int64  // остаток на складе, никогда не отрицательный
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	IsArchived bool
}

func NewProduct(name string, price int64, categoryID int64, imageKey string, quantity int64) *Product {
	return &Product{
		Name:       name,
		Price:      price,
		CategoryID: categoryID,
		ImageKey:   imageKey,
		Quantity:   quantity,
	}
}

// Availability вычисляет наличие товара по остатку.
func (p *Product) Availability() Availability {
	return AvailabilityOf(p.Quantity)
}

package domain

import "time"

// OrderStatus — статус жизненного цикла заказа.
// Единственный допустимый переход: Placed -> Delivered.
type OrderStatus string

const (
	StatusPlaced    OrderStatus = "Placed"
	StatusDelivered OrderStatus = "Delivered"
)

// OrderLineItem — строка заказа. Все поля — снимки данных каталога
// на момент оформления: последующие изменения товара не влияют на историю.
type OrderLineItem struct {
	ProductName  string
	UnitPrice    int64 // пайсы на момент оформления
	Quantity     int64
	LineTotal    int64 // UnitPrice * Quantity
	ImageKey     string
	CategoryName string
}

func NewOrderLineItem(productName string, unitPrice, quantity int64, imageKey, categoryName string) OrderLineItem {
	return OrderLineItem{
		ProductName:  productName,
		UnitPrice:    unitPrice,
		Quantity:     quantity,
		LineTotal:    unitPrice * quantity,
		ImageKey:     imageKey,
		CategoryName: categoryName,
	}
}

// Order — заказ. После создания мутирует только Status.
type Order struct {
	ID          int64
	UserID      string
	Items       []OrderLineItem
	TotalAmount int64 // Σ LineTotal, фиксируется при создании
	Address     string
	PhoneNumber string
	Status      OrderStatus
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// NewOrder создаёт заказ в статусе Placed; TotalAmount вычисляется
// из строк один раз и далее не пересчитывается.
func NewOrder(userID string, items []OrderLineItem, address, phoneNumber string) *Order {
	var total int64
	for _, item := range items {
		total += item.LineTotal
	}

	return &Order{
		UserID:      userID,
		Items:       items,
		TotalAmount: total,
		Address:     address,
		PhoneNumber: phoneNumber,
		Status:      StatusPlaced,
	}
}

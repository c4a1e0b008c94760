package usecase

import (
	"time"

	"github.com/DRSN-tech/shop-backend/internal/domain"
)

// ORDER USECASE

// PlaceOrderItem — одна запрошенная позиция заказа.
type PlaceOrderItem struct {
	ProductID int64
	Quantity  int64
}

// PlaceOrderReq — запрос на оформление заказа.
type PlaceOrderReq struct {
	UserID      string
	Items       []PlaceOrderItem
	Address     string
	PhoneNumber string
}

// PlaceOrderRes — результат успешного оформления.
type PlaceOrderRes struct {
	OrderID int64
}

// CheckoutReq — оформление заказа из корзины пользователя.
type CheckoutReq struct {
	UserID      string
	Address     string
	PhoneNumber string
}

// OrderFilter — фильтр списка заказов. Нулевые поля не ограничивают выборку.
type OrderFilter struct {
	UserID string
	Status string
	From   *time.Time
	To     *time.Time
}

// OrderItemInfo — строка заказа для внешнего использования.
type OrderItemInfo struct {
	ProductName  string
	UnitPrice    int64
	Quantity     int64
	LineTotal    int64
	ImageKey     string
	CategoryName string
}

// OrderInfo — DTO заказа для внешнего использования.
type OrderInfo struct {
	ID          int64
	UserID      string
	Items       []OrderItemInfo
	TotalAmount int64
	Address     string
	PhoneNumber string
	Status      string
	CreatedAt   time.Time
}

// RevenueFilter — необязательный диапазон дат для отчёта по выручке.
type RevenueFilter struct {
	From *time.Time
	To   *time.Time
}

// CategoryRevenue — строка отчёта: выручка и количество проданных единиц
// по категории. Считается только по доставленным заказам.
type CategoryRevenue struct {
	Category     string
	TotalRevenue int64 // пайсы
	UnitsSold    int64
}

// STOCK LEDGER

// ProductSnapshot — снимок товара, возвращаемый тем же запросом,
// что и атомарное списание остатка.
type ProductSnapshot struct {
	ProductID    int64
	Name         string
	Price        int64
	CategoryName string
	ImageKey     string
	Remaining    int64 // остаток после списания
}

// PRODUCT USECASE

// ProductImage представляет изображение, загруженное через multipart/form-data.
type ProductImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type из multipart (image/jpeg)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
}

// AddProductReq — запрос на добавление нового товара.
type AddProductReq struct {
	Name         string
	CategoryName string
	Price        int64
	Quantity     int64
	Image        *ProductImage
}

// UpdateProductReq — запрос на изменение товара.
type UpdateProductReq struct {
	ID           int64
	Name         string
	CategoryName string
	Price        int64
	Quantity     int64
	Image        *ProductImage
}

// GetProductsReq — запрос информации о товарах по их идентификаторам.
type GetProductsReq struct {
	IDs []int64
}

// GetProductsRes — ответ с данными запрошенных товаров.
type GetProductsRes struct {
	Products         []ProductInfo
	NotFoundProducts []int64
}

// ProductInfo — DTO с информацией о товаре для внешнего использования.
// Availability всегда вычисляется из Quantity.
type ProductInfo struct {
	ID           int64
	Name         string
	CategoryName string
	Price        int64
	ImageKey     string
	ImageURL     string
	Quantity     int64
	Availability domain.Availability
}

// CART / WISHLIST

type AddToCartReq struct {
	UserID    string
	ProductID int64
	Quantity  int64
}

type CartItemInfo struct {
	ProductID    int64
	Name         string
	Price        int64
	Quantity     int64
	ImageKey     string
	CategoryName string
}

type WishlistItemInfo struct {
	ProductID    int64
	Name         string
	Price        int64
	ImageKey     string
	CategoryName string
}

// OUTBOX / MESSAGING

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const OrderPlacedEventType OutboxEventType = "order_placed"

// OutboxEvent — запись transactional outbox; создаётся в одной транзакции
// с заказом и публикуется воркером в Kafka.
type OutboxEvent struct {
	ID        int64
	EventID   string // uuid
	EventType OutboxEventType
	OrderID   int64
	Payload   []byte
	Status    OutboxStatus
	CreatedAt time.Time
}

// OrderPlacedEvent — JSON-уведомление о размещённом заказе.
// Потребители (нотификации и т.п.) находятся вне этого сервиса.
type OrderPlacedEvent struct {
	EventID     string                 `json:"event_id"`
	OrderID     int64                  `json:"order_id"`
	UserID      string                 `json:"user_id"`
	TotalAmount int64                  `json:"total_amount"`
	Items       []OrderPlacedEventItem `json:"items"`
	CreatedAt   time.Time              `json:"created_at"`
}

type OrderPlacedEventItem struct {
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int64  `json:"quantity"`
}

type WriteRawMessageReq struct {
	OrderID int64
	Payload []byte
}

// INFRASTRUCTURE

// UploadImageReq — запрос на загрузку изображения товара.
type UploadImageReq struct {
	Name  string
	Image ProductImage
}

// MAPPERS

func NewPlaceOrderReq(userID string, items []PlaceOrderItem, address, phoneNumber string) *PlaceOrderReq {
	return &PlaceOrderReq{
		UserID:      userID,
		Items:       items,
		Address:     address,
		PhoneNumber: phoneNumber,
	}
}

func NewPlaceOrderRes(orderID int64) *PlaceOrderRes {
	return &PlaceOrderRes{OrderID: orderID}
}

func NewProductSnapshot(productID int64, name string, price int64, categoryName, imageKey string, remaining int64) *ProductSnapshot {
	return &ProductSnapshot{
		ProductID:    productID,
		Name:         name,
		Price:        price,
		CategoryName: categoryName,
		ImageKey:     imageKey,
		Remaining:    remaining,
	}
}

func NewProductInfo(id int64, name string, category string, price int64, imageKey string, quantity int64) ProductInfo {
	return ProductInfo{
		ID:           id,
		Name:         name,
		CategoryName: category,
		Price:        price,
		ImageKey:     imageKey,
		Quantity:     quantity,
		Availability: domain.AvailabilityOf(quantity),
	}
}

func NewGetProductsReq(ids []int64) *GetProductsReq {
	return &GetProductsReq{ids}
}

func NewGetProductsRes(pr []ProductInfo, notFoundProducts []int64) *GetProductsRes {
	return &GetProductsRes{
		Products:         pr,
		NotFoundProducts: notFoundProducts,
	}
}

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewUploadImageReq(name string, image ProductImage) *UploadImageReq {
	return &UploadImageReq{
		Name:  name,
		Image: image,
	}
}

func NewWriteRawMessageReq(orderID int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		OrderID: orderID,
		Payload: payload,
	}
}

func NewOrderInfo(order *domain.Order) OrderInfo {
	items := make([]OrderItemInfo, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemInfo{
			ProductName:  item.ProductName,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			LineTotal:    item.LineTotal,
			ImageKey:     item.ImageKey,
			CategoryName: item.CategoryName,
		})
	}

	return OrderInfo{
		ID:          order.ID,
		UserID:      order.UserID,
		Items:       items,
		TotalAmount: order.TotalAmount,
		Address:     order.Address,
		PhoneNumber: order.PhoneNumber,
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt,
	}
}

func NewCartItemInfo(item *domain.CartItem) CartItemInfo {
	return CartItemInfo{
		ProductID:    item.ProductID,
		Name:         item.Name,
		Price:        item.Price,
		Quantity:     item.Quantity,
		ImageKey:     item.ImageKey,
		CategoryName: item.CategoryName,
	}
}

func NewWishlistItemInfo(item *domain.WishlistItem) WishlistItemInfo {
	return WishlistItemInfo{
		ProductID:    item.ProductID,
		Name:         item.Name,
		Price:        item.Price,
		ImageKey:     item.ImageKey,
		CategoryName: item.CategoryName,
	}
}

package converter

// ProductInfoRedisModel — JSON-представление товара в кэше.
// Признак наличия не хранится: он выводится из quantity при чтении.
type ProductInfoRedisModel struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CategoryName string `json:"category_name"`
	Price        int64  `json:"price"`
	ImageKey     string `json:"image_key"`
	Quantity     int64  `json:"quantity"`
}

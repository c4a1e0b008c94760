package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// 400 Bad Request — валидация запроса на оформление заказа
	ErrEmptyOrder             = fmt.Errorf("order must contain at least one item")
	ErrQuantityMustBePositive = fmt.Errorf("item quantity must be at least 1")
	ErrAddressRequired        = fmt.Errorf("address is required")
	ErrInvalidPhoneNumber     = fmt.Errorf("phone number must be exactly 10 digits")

	// 400 Bad Request — валидация каталога
	ErrProductNameRequired = fmt.Errorf("product name is required")
	ErrCategoryRequired    = fmt.Errorf("category is required")
	ErrPriceMustBePositive = fmt.Errorf("price must be positive")
	ErrInvalidPrice        = fmt.Errorf("invalid price")
	ErrPricePrecision      = fmt.Errorf("price must have at most 2 decimal places")
	ErrMissingFields       = fmt.Errorf("missing required fields")
	ErrExpectedMultipart   = fmt.Errorf("expected multipart/form-data")
	ErrTooManyImages       = fmt.Errorf("too many images")
	ErrFileTooLarge        = fmt.Errorf("file too large")

	// 415 Unsupported Media Type
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// 404 Not Found
	ErrProductNotFound = fmt.Errorf("product not found")
	ErrOrderNotFound   = fmt.Errorf("order not found")

	// 409 Conflict
	ErrInsufficientStock = fmt.Errorf("insufficient stock")
	ErrOrderDelivered    = fmt.Errorf("order is already delivered")
	ErrAlreadyInWishlist = fmt.Errorf("product is already in wishlist")

	// 403 Forbidden
	ErrForbidden = fmt.Errorf("forbidden")

	// 500 Internal Server Error
	ErrInternalServerError  = fmt.Errorf("internal server error")
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
	ErrStatusBadRequest     = fmt.Errorf("bad request")
)

// InsufficientStockError уточняет ErrInsufficientStock: какой товар,
// сколько единиц запрошено и сколько фактически осталось на складе.
type InsufficientStockError struct {
	ProductID int64
	Requested int64
	Available int64
}

func (err *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for product %d: requested %d, available %d",
		err.ProductID, err.Requested, err.Available,
	)
}

// Unwrap поддерживает проверку errors.Is(err, ErrInsufficientStock)
func (err *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

func NewInsufficientStockError(productID, requested, available int64) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID: productID,
		Requested: requested,
		Available: available,
	}
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

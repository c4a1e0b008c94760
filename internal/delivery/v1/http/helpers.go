package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/shop-backend/internal/usecase"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ProductMetadata struct {
	Name         string
	CategoryName string
	Price        int64
	Quantity     int64
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrExpectedMultipart):
		return http.StatusBadRequest, e.ErrExpectedMultipart.Error()
	case errors.Is(err, e.ErrMissingFields):
		return http.StatusBadRequest, e.ErrMissingFields.Error()
	case errors.Is(err, e.ErrInvalidPrice):
		return http.StatusBadRequest, e.ErrInvalidPrice.Error()
	case errors.Is(err, e.ErrPricePrecision):
		return http.StatusBadRequest, e.ErrPricePrecision.Error()
	case errors.Is(err, e.ErrTooManyImages):
		return http.StatusBadRequest, e.ErrTooManyImages.Error()
	case errors.Is(err, e.ErrFileTooLarge):
		return http.StatusBadRequest, e.ErrFileTooLarge.Error()
	case errors.Is(err, e.ErrEmptyOrder):
		return http.StatusBadRequest, e.ErrEmptyOrder.Error()
	case errors.Is(err, e.ErrQuantityMustBePositive):
		return http.StatusBadRequest, e.ErrQuantityMustBePositive.Error()
	case errors.Is(err, e.ErrAddressRequired):
		return http.StatusBadRequest, e.ErrAddressRequired.Error()
	case errors.Is(err, e.ErrInvalidPhoneNumber):
		return http.StatusBadRequest, e.ErrInvalidPhoneNumber.Error()
	case errors.Is(err, e.ErrProductNameRequired):
		return http.StatusBadRequest, e.ErrProductNameRequired.Error()
	case errors.Is(err, e.ErrCategoryRequired):
		return http.StatusBadRequest, e.ErrCategoryRequired.Error()
	case errors.Is(err, e.ErrPriceMustBePositive):
		return http.StatusBadRequest, e.ErrPriceMustBePositive.Error()
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, e.ErrUnsupportedMediaType.Error()
	case errors.Is(err, e.ErrForbidden):
		return http.StatusForbidden, e.ErrForbidden.Error()
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, e.ErrProductNotFound.Error()
	case errors.Is(err, e.ErrOrderNotFound):
		return http.StatusNotFound, e.ErrOrderNotFound.Error()
	case errors.Is(err, e.ErrInsufficientStock):
		return http.StatusConflict, insufficientStockMessage(err)
	case errors.Is(err, e.ErrOrderDelivered):
		return http.StatusConflict, e.ErrOrderDelivered.Error()
	case errors.Is(err, e.ErrAlreadyInWishlist):
		return http.StatusConflict, e.ErrAlreadyInWishlist.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

// insufficientStockMessage раскрывает детали нехватки остатка, если они есть.
func insufficientStockMessage(err error) string {
	var stockErr *e.InsufficientStockError
	if errors.As(err, &stockErr) {
		return stockErr.Error()
	}
	return e.ErrInsufficientStock.Error()
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parsePriceToPaise разбирает цену вида "599.99" в пайсы. Не больше двух
// знаков после запятой, не отрицательная, не больше миллиарда рупий.
func parsePriceToPaise(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, e.ErrInvalidPrice
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, e.ErrInvalidPrice
	}

	if d.LessThan(decimal.Zero) {
		return 0, e.ErrInvalidPrice
	}

	maxPrice := decimal.NewFromInt(1_000_000_000)
	if d.GreaterThan(maxPrice) {
		return 0, e.ErrInvalidPrice
	}

	if d.Exponent() < -2 {
		return 0, e.ErrPricePrecision
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// formatPaise печатает пайсы как строку в рупиях: 59999 -> "599.99".
func formatPaise(paise int64) string {
	return decimal.NewFromInt(paise).Div(decimal.NewFromInt(100)).StringFixed(2)
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}
	return r.ParseMultipartForm(maxMemory)
}

func parseProductForm(r *http.Request) (*ProductMetadata, error) {
	name := r.FormValue("name")
	category := r.FormValue("category")
	priceStr := r.FormValue("price")
	quantityStr := r.FormValue("quantity")

	if name == "" || category == "" || priceStr == "" {
		return nil, e.Wrap(fmt.Sprintf("name: %s, category: %s, price: %s", name, category, priceStr), e.ErrMissingFields)
	}

	pricePaise, err := parsePriceToPaise(priceStr)
	if err != nil {
		return nil, err
	}

	var quantity int64
	if quantityStr != "" {
		quantity, err = strconv.ParseInt(quantityStr, 10, 64)
		if err != nil || quantity < 0 {
			return nil, e.Wrap(fmt.Sprintf("quantity: %s", quantityStr), e.ErrStatusBadRequest)
		}
	}

	return &ProductMetadata{
		Name:         name,
		CategoryName: category,
		Price:        pricePaise,
		Quantity:     quantity,
	}, nil
}

// parseImage читает единственное изображение товара из multipart-формы.
// Отсутствие файла — не ошибка: товар может быть без изображения.
func parseImage(files []*multipart.FileHeader) (*usecase.ProductImage, error) {
	const (
		maxImageCount = 1
		maxFileSize   = 15 << 20
	)

	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > maxImageCount {
		return nil, e.ErrTooManyImages
	}

	fh := files[0]
	data, mimeType, err := readFile(fh, maxFileSize)
	if err != nil {
		return nil, err
	}

	return usecase.NewProductImage(data, mimeType, int64(len(data)), fh.Filename), nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	if int64(len(data)) > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])
	return data, mimeType, nil
}

// parseTimeParam разбирает необязательный query-параметр даты в RFC3339
// или формате YYYY-MM-DD.
func parseTimeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t, err = time.Parse("2006-01-02", value)
		if err != nil {
			return nil, e.Wrap(value, e.ErrStatusBadRequest)
		}
	}

	return &t, nil
}

func parseIDParam(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id < 1 {
		return 0, e.Wrap(value, e.ErrStatusBadRequest)
	}
	return id, nil
}

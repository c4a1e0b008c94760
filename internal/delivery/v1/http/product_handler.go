package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/shop-backend/internal/usecase"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

type productResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CategoryName string `json:"category_name"`
	Price        string `json:"price"`
	ImageURL     string `json:"image_url,omitempty"`
	Quantity     int64  `json:"quantity"`
	Availability string `json:"availability"`
}

func newProductResponse(info *usecase.ProductInfo) productResponse {
	return productResponse{
		ID:           info.ID,
		Name:         info.Name,
		CategoryName: info.CategoryName,
		Price:        formatPaise(info.Price),
		ImageURL:     info.ImageURL,
		Quantity:     info.Quantity,
		Availability: string(info.Availability),
	}
}

// addProduct
//
//	@Summary		Добавление товара
//	@Description	Создаёт товар в каталоге, опционально с изображением
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			name		formData	string			true	"Название товара"
//	@Param			category	formData	string			true	"Категория"
//	@Param			price		formData	number			true	"Цена"
//	@Param			quantity	formData	integer			false	"Начальный остаток"
//	@Param			image		formData	file			false	"Изображение товара"
//	@Success		201			{object}	productResponse	"Созданный товар"
//	@Failure		400			{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/products [post]
func (p *ProductHandler) addProduct(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 20 << 20
		maxMemory           = 16 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	prMeta, err := parseProductForm(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	image, err := parseImage(r.MultipartForm.File["image"])
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	info, err := p.productUsecase.AddProduct(r.Context(), &usecase.AddProductReq{
		Name:         prMeta.Name,
		CategoryName: prMeta.CategoryName,
		Price:        prMeta.Price,
		Quantity:     prMeta.Quantity,
		Image:        image,
	})
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, newProductResponse(info))
}

// updateProduct
//
//	@Summary		Изменение товара
//	@Description	Обновляет данные товара, новое изображение замещает старое
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id			path		int				true	"ID товара"
//	@Param			name		formData	string			true	"Название товара"
//	@Param			category	formData	string			true	"Категория"
//	@Param			price		formData	number			true	"Цена"
//	@Param			quantity	formData	integer			false	"Остаток"
//	@Param			image		formData	file			false	"Изображение товара"
//	@Success		200			{object}	productResponse	"Обновлённый товар"
//	@Failure		404			{object}	ErrorResponse	"Товар не найден"
//	@Router			/products/{id} [put]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 20 << 20
		maxMemory           = 16 << 20
	)

	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	prMeta, err := parseProductForm(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	image, err := parseImage(r.MultipartForm.File["image"])
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	info, err := p.productUsecase.UpdateProduct(r.Context(), &usecase.UpdateProductReq{
		ID:           id,
		Name:         prMeta.Name,
		CategoryName: prMeta.CategoryName,
		Price:        prMeta.Price,
		Quantity:     prMeta.Quantity,
		Image:        image,
	})
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductResponse(info))
}

// archiveProduct
//
//	@Summary		Архивация товара
//	@Description	Убирает товар из каталога, история заказов сохраняется
//	@Tags			products
//	@Produce		json
//	@Param			id	path		int						true	"ID товара"
//	@Success		200	{object}	map[string]interface{}	"Архивирован"
//	@Failure		404	{object}	ErrorResponse			"Товар не найден"
//	@Router			/products/{id} [delete]
func (p *ProductHandler) archiveProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := p.productUsecase.ArchiveProduct(r.Context(), id); err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"archived": true,
	})
}

// listProducts
//
//	@Summary		Каталог товаров
//	@Description	Возвращает активные товары; параметр ids ограничивает выборку
//	@Tags			products
//	@Produce		json
//	@Param			ids	query		string			false	"Список ID через запятую"
//	@Success		200	{array}		productResponse	"Товары"
//	@Router			/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	idsParam := r.URL.Query().Get("ids")

	var products []usecase.ProductInfo
	if idsParam == "" {
		all, err := p.productUsecase.ListProducts(r.Context())
		if err != nil {
			p.logger.Warnf("%s", err.Error())
			WriteError(w, err)
			return
		}
		products = all
	} else {
		ids, err := parseIDList(idsParam)
		if err != nil {
			WriteError(w, err)
			return
		}

		res, err := p.productUsecase.GetProductsInfo(r.Context(), usecase.NewGetProductsReq(ids))
		if err != nil {
			p.logger.Warnf("%s", err.Error())
			WriteError(w, err)
			return
		}
		products = res.Products
	}

	result := make([]productResponse, 0, len(products))
	for i := range products {
		result = append(result, newProductResponse(&products[i]))
	}

	WriteSuccess(w, http.StatusOK, result)
}

func parseIDList(param string) ([]int64, error) {
	parts := strings.Split(param, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id < 1 {
			return nil, e.Wrap(param, e.ErrStatusBadRequest)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

package http

import (
	"encoding/json"
	"net/http"

	"github.com/DRSN-tech/shop-backend/internal/usecase"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	cartUsecase usecase.CartUC
	logger      logger.Logger
}

func NewCartHandler(cartUsecase usecase.CartUC, logger logger.Logger) *CartHandler {
	return &CartHandler{cartUsecase: cartUsecase, logger: logger}
}

type addToCartBody struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type addToWishlistBody struct {
	ProductID int64 `json:"product_id"`
}

type cartItemResponse struct {
	ProductID    int64  `json:"product_id"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	Quantity     int64  `json:"quantity"`
	ImageKey     string `json:"image_key,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
}

type wishlistItemResponse struct {
	ProductID    int64  `json:"product_id"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	ImageKey     string `json:"image_key,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
}

// addToCart
//
//	@Summary		Добавление в корзину
//	@Description	Добавляет товар в корзину, повтор суммирует количество
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			request	body		addToCartBody			true	"Товар и количество"
//	@Success		200		{object}	map[string]interface{}	"Добавлено"
//	@Failure		404		{object}	ErrorResponse			"Товар не найден"
//	@Router			/cart [post]
func (c *CartHandler) addToCart(w http.ResponseWriter, r *http.Request) {
	var body addToCartBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		c.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	err := c.cartUsecase.AddToCart(r.Context(), &usecase.AddToCartReq{
		UserID:    userIDFromCtx(r.Context()),
		ProductID: body.ProductID,
		Quantity:  body.Quantity,
	})
	if err != nil {
		c.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"added": true,
	})
}

// listCart
//
//	@Summary	Корзина пользователя
//	@Tags		cart
//	@Produce	json
//	@Success	200	{array}	cartItemResponse	"Позиции корзины"
//	@Router		/cart [get]
func (c *CartHandler) listCart(w http.ResponseWriter, r *http.Request) {
	items, err := c.cartUsecase.ListCart(r.Context(), userIDFromCtx(r.Context()))
	if err != nil {
		c.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	result := make([]cartItemResponse, 0, len(items))
	for _, item := range items {
		result = append(result, cartItemResponse{
			ProductID:    item.ProductID,
			Name:         item.Name,
			Price:        formatPaise(item.Price),
			Quantity:     item.Quantity,
			ImageKey:     item.ImageKey,
			CategoryName: item.CategoryName,
		})
	}

	WriteSuccess(w, http.StatusOK, result)
}

// removeFromCart
//
//	@Summary	Удаление из корзины
//	@Tags		cart
//	@Produce	json
//	@Param		productID	path		int						true	"ID товара"
//	@Success	200			{object}	map[string]interface{}	"Удалено"
//	@Failure	404			{object}	ErrorResponse			"Нет такой позиции"
//	@Router		/cart/{productID} [delete]
func (c *CartHandler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	productID, err := parseIDParam(chi.URLParam(r, "productID"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := c.cartUsecase.RemoveFromCart(r.Context(), userIDFromCtx(r.Context()), productID); err != nil {
		c.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"removed": true,
	})
}

// addToWishlist
//
//	@Summary	Добавление в избранное
//	@Tags		wishlist
//	@Accept		json
//	@Produce	json
//	@Param		request	body		addToWishlistBody		true	"Товар"
//	@Success	200		{object}	map[string]interface{}	"Добавлено"
//	@Failure	409		{object}	ErrorResponse			"Уже в избранном"
//	@Router		/wishlist [post]
func (c *CartHandler) addToWishlist(w http.ResponseWriter, r *http.Request) {
	var body addToWishlistBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		c.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	if err := c.cartUsecase.AddToWishlist(r.Context(), userIDFromCtx(r.Context()), body.ProductID); err != nil {
		c.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"added": true,
	})
}

// listWishlist
//
//	@Summary	Избранное пользователя
//	@Tags		wishlist
//	@Produce	json
//	@Success	200	{array}	wishlistItemResponse	"Позиции избранного"
//	@Router		/wishlist [get]
func (c *CartHandler) listWishlist(w http.ResponseWriter, r *http.Request) {
	items, err := c.cartUsecase.ListWishlist(r.Context(), userIDFromCtx(r.Context()))
	if err != nil {
		c.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	result := make([]wishlistItemResponse, 0, len(items))
	for _, item := range items {
		result = append(result, wishlistItemResponse{
			ProductID:    item.ProductID,
			Name:         item.Name,
			Price:        formatPaise(item.Price),
			ImageKey:     item.ImageKey,
			CategoryName: item.CategoryName,
		})
	}

	WriteSuccess(w, http.StatusOK, result)
}

// removeFromWishlist
//
//	@Summary	Удаление из избранного
//	@Tags		wishlist
//	@Produce	json
//	@Param		productID	path		int						true	"ID товара"
//	@Success	200			{object}	map[string]interface{}	"Удалено"
//	@Failure	404			{object}	ErrorResponse			"Нет такой позиции"
//	@Router		/wishlist/{productID} [delete]
func (c *CartHandler) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	productID, err := parseIDParam(chi.URLParam(r, "productID"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := c.cartUsecase.RemoveFromWishlist(r.Context(), userIDFromCtx(r.Context()), productID); err != nil {
		c.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"removed": true,
	})
}

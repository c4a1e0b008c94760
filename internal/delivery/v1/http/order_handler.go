package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/DRSN-tech/shop-backend/internal/usecase"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	orderUsecase usecase.OrderUC
	logger       logger.Logger
}

func NewOrderHandler(orderUsecase usecase.OrderUC, logger logger.Logger) *OrderHandler {
	return &OrderHandler{orderUsecase: orderUsecase, logger: logger}
}

type placeOrderItemBody struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type placeOrderBody struct {
	Items       []placeOrderItemBody `json:"items"`
	Address     string               `json:"address"`
	PhoneNumber string               `json:"phone_number"`
}

type checkoutBody struct {
	Address     string `json:"address"`
	PhoneNumber string `json:"phone_number"`
}

type orderItemResponse struct {
	ProductName  string `json:"product_name"`
	UnitPrice    string `json:"unit_price"`
	Quantity     int64  `json:"quantity"`
	LineTotal    string `json:"line_total"`
	ImageKey     string `json:"image_key,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
}

type orderResponse struct {
	ID          int64               `json:"id"`
	UserID      string              `json:"user_id"`
	Items       []orderItemResponse `json:"items"`
	TotalAmount string              `json:"total_amount"`
	Address     string              `json:"address"`
	PhoneNumber string              `json:"phone_number"`
	Status      string              `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
}

type categoryRevenueResponse struct {
	Category     string `json:"category"`
	TotalRevenue string `json:"total_revenue"`
	UnitsSold    int64  `json:"units_sold"`
}

func newOrderResponse(info *usecase.OrderInfo) orderResponse {
	items := make([]orderItemResponse, 0, len(info.Items))
	for _, item := range info.Items {
		items = append(items, orderItemResponse{
			ProductName:  item.ProductName,
			UnitPrice:    formatPaise(item.UnitPrice),
			Quantity:     item.Quantity,
			LineTotal:    formatPaise(item.LineTotal),
			ImageKey:     item.ImageKey,
			CategoryName: item.CategoryName,
		})
	}

	return orderResponse{
		ID:          info.ID,
		UserID:      info.UserID,
		Items:       items,
		TotalAmount: formatPaise(info.TotalAmount),
		Address:     info.Address,
		PhoneNumber: info.PhoneNumber,
		Status:      info.Status,
		CreatedAt:   info.CreatedAt,
	}
}

// placeOrder
//
//	@Summary		Оформление заказа
//	@Description	Резервирует остатки и создаёт заказ из переданных позиций
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			request	body		placeOrderBody			true	"Позиции, адрес и телефон"
//	@Success		201		{object}	map[string]interface{}	"Создан"
//	@Failure		400		{object}	ErrorResponse			"Ошибка валидации"
//	@Failure		409		{object}	ErrorResponse			"Недостаточно остатка"
//	@Router			/orders [post]
func (o *OrderHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var body placeOrderBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		o.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	items := make([]usecase.PlaceOrderItem, 0, len(body.Items))
	for _, item := range body.Items {
		items = append(items, usecase.PlaceOrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	req := usecase.NewPlaceOrderReq(userIDFromCtx(r.Context()), items, body.Address, body.PhoneNumber)
	res, err := o.orderUsecase.PlaceOrder(r.Context(), req)
	if err != nil {
		o.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, map[string]interface{}{
		"order_id": res.OrderID,
	})
}

// checkout
//
//	@Summary		Оформление заказа из корзины
//	@Description	Создаёт заказ из текущей корзины пользователя и очищает её
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			request	body		checkoutBody			true	"Адрес и телефон"
//	@Success		201		{object}	map[string]interface{}	"Создан"
//	@Failure		400		{object}	ErrorResponse			"Ошибка валидации или пустая корзина"
//	@Failure		409		{object}	ErrorResponse			"Недостаточно остатка"
//	@Router			/orders/checkout [post]
func (o *OrderHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var body checkoutBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		o.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	req := &usecase.CheckoutReq{
		UserID:      userIDFromCtx(r.Context()),
		Address:     body.Address,
		PhoneNumber: body.PhoneNumber,
	}

	res, err := o.orderUsecase.Checkout(r.Context(), req)
	if err != nil {
		o.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, map[string]interface{}{
		"order_id": res.OrderID,
	})
}

// listOrders
//
//	@Summary		Список заказов
//	@Description	Пользователь видит свои заказы, администратор — все с фильтрами
//	@Tags			orders
//	@Produce		json
//	@Param			user_id	query		string			false	"Фильтр по пользователю (только админ)"
//	@Param			status	query		string			false	"Фильтр по статусу"
//	@Param			from	query		string			false	"Начало периода (RFC3339 или YYYY-MM-DD)"
//	@Param			to		query		string			false	"Конец периода"
//	@Success		200		{array}		orderResponse	"Список заказов"
//	@Failure		400		{object}	ErrorResponse	"Неверный фильтр"
//	@Router			/orders [get]
func (o *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := o.buildOrderFilter(r)
	if err != nil {
		o.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	orders, err := o.orderUsecase.ListOrders(r.Context(), filter)
	if err != nil {
		o.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	result := make([]orderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, newOrderResponse(&orders[i]))
	}

	WriteSuccess(w, http.StatusOK, result)
}

// markDelivered
//
//	@Summary		Отметка о доставке
//	@Description	Переводит заказ из Placed в Delivered, повторная отметка — конфликт
//	@Tags			orders
//	@Produce		json
//	@Param			id	path		int				true	"ID заказа"
//	@Success		200	{object}	orderResponse	"Обновлённый заказ"
//	@Failure		404	{object}	ErrorResponse	"Заказ не найден"
//	@Failure		409	{object}	ErrorResponse	"Заказ уже доставлен"
//	@Router			/orders/{id}/deliver [put]
func (o *OrderHandler) markDelivered(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		o.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	order, err := o.orderUsecase.MarkDelivered(r.Context(), id)
	if err != nil {
		o.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newOrderResponse(order))
}

// revenueByCategory
//
//	@Summary		Выручка по категориям
//	@Description	Агрегирует выручку доставленных заказов по категориям товаров
//	@Tags			orders
//	@Produce		json
//	@Param			from	query		string					false	"Начало периода"
//	@Param			to		query		string					false	"Конец периода"
//	@Success		200		{array}		categoryRevenueResponse	"Отчёт"
//	@Router			/orders/revenue-by-category [get]
func (o *OrderHandler) revenueByCategory(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeParam(r.URL.Query().Get("from"))
	if err != nil {
		WriteError(w, err)
		return
	}
	to, err := parseTimeParam(r.URL.Query().Get("to"))
	if err != nil {
		WriteError(w, err)
		return
	}

	rows, err := o.orderUsecase.RevenueByCategory(r.Context(), &usecase.RevenueFilter{From: from, To: to})
	if err != nil {
		o.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	result := make([]categoryRevenueResponse, 0, len(rows))
	for _, row := range rows {
		result = append(result, categoryRevenueResponse{
			Category:     row.Category,
			TotalRevenue: formatPaise(row.TotalRevenue),
			UnitsSold:    row.UnitsSold,
		})
	}

	WriteSuccess(w, http.StatusOK, result)
}

// buildOrderFilter собирает фильтр выборки. Обычный пользователь всегда
// ограничен своими заказами, query-параметр user_id доступен админу.
func (o *OrderHandler) buildOrderFilter(r *http.Request) (*usecase.OrderFilter, error) {
	query := r.URL.Query()

	from, err := parseTimeParam(query.Get("from"))
	if err != nil {
		return nil, err
	}
	to, err := parseTimeParam(query.Get("to"))
	if err != nil {
		return nil, err
	}

	userID := userIDFromCtx(r.Context())
	if roleFromCtx(r.Context()) == roleAdmin {
		userID = query.Get("user_id")
	}

	return &usecase.OrderFilter{
		UserID: userID,
		Status: query.Get("status"),
		From:   from,
		To:     to,
	}, nil
}

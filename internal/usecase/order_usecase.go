package usecase

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var phoneNumberRe = regexp.MustCompile(`^[0-9]{10}$`)

// OrderUseCase реализует приём заказов, их жизненный цикл и отчётность.
type OrderUseCase struct {
	ledger     *StockLedger
	orderRepo  OrderRepository
	outboxRepo OutboxRepository
	cartRepo   CartRepository
	dbPool     transaction.Transactional
	logger     logger.Logger
}

func NewOrderUC(
	ledger *StockLedger,
	orderRepo OrderRepository,
	outboxRepo OutboxRepository,
	cartRepo CartRepository,
	dbPool transaction.Transactional,
	logger logger.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		ledger:     ledger,
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		cartRepo:   cartRepo,
		dbPool:     dbPool,
		logger:     logger,
	}
}

// PlaceOrder превращает проверенный запрос в неизменяемый заказ,
// сохраняя согласованность остатков при любом частичном сбое.
//
// Протокол: сначала атомарное резервирование каждой позиции в порядке
// запроса; первый отказ откатывает все уже взятые брони в обратном порядке
// и проваливает вызов целиком. Затем заказ, его строки-снимки и outbox-событие
// сохраняются одной транзакцией; сбой сохранения также возвращает все брони.
// Вызывающий никогда не видит списанный остаток без созданного заказа.
func (o *OrderUseCase) PlaceOrder(ctx context.Context, req *PlaceOrderReq) (*PlaceOrderRes, error) {
	const op = "OrderUseCase.PlaceOrder"

	if err := o.validateOrder(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	// Фаза резервирования. Позиции обрабатываются в порядке запроса,
	// чтобы отказы были воспроизводимы; дубликаты одного товара суммируются
	// на уровне хранилища, потому что каждое списание условное.
	reservations := make([]*Reservation, 0, len(req.Items))
	rollback := func() {
		for i := len(reservations) - 1; i >= 0; i-- {
			o.ledger.Release(ctx, reservations[i])
		}
	}

	for _, item := range req.Items {
		reservation, err := o.ledger.Reserve(ctx, item.ProductID, item.Quantity)
		if err != nil {
			rollback()
			return nil, e.Wrap(op, err)
		}
		reservations = append(reservations, reservation)
	}

	// Фаза фиксации: строки заказа собираются из снимков, сделанных
	// тем же запросом, что и списание.
	items := make([]domain.OrderLineItem, 0, len(reservations))
	for _, reservation := range reservations {
		snapshot := reservation.Snapshot
		items = append(items, domain.NewOrderLineItem(
			snapshot.Name,
			snapshot.Price,
			reservation.Quantity,
			snapshot.ImageKey,
			snapshot.CategoryName,
		))
	}

	order := domain.NewOrder(req.UserID, items, strings.TrimSpace(req.Address), req.PhoneNumber)

	created, err := o.persistOrder(ctx, order)
	if err != nil {
		o.logger.Errorf(err, "%s: persistence failed after %d reservations, rolling back", op, len(reservations))
		rollback()
		return nil, e.Wrap(op, e.ErrInternalServerError)
	}

	for _, reservation := range reservations {
		o.ledger.Commit(reservation)
	}

	return NewPlaceOrderRes(created.ID), nil
}

// Checkout оформляет заказ из корзины пользователя и очищает её.
func (o *OrderUseCase) Checkout(ctx context.Context, req *CheckoutReq) (*PlaceOrderRes, error) {
	const op = "OrderUseCase.Checkout"

	cartItems, err := o.cartRepo.ListByUser(ctx, req.UserID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	items := make([]PlaceOrderItem, 0, len(cartItems))
	for _, item := range cartItems {
		items = append(items, PlaceOrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	res, err := o.PlaceOrder(ctx, NewPlaceOrderReq(req.UserID, items, req.Address, req.PhoneNumber))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := o.cartRepo.Clear(ctx, req.UserID); err != nil {
		o.logger.Warnf("%s: failed to clear cart for user %s: %v", op, req.UserID, err)
	}

	return res, nil
}

// ListOrders возвращает заказы по фильтру. Резервы в полёте здесь не видны:
// читаются только уже зафиксированные заказы.
func (o *OrderUseCase) ListOrders(ctx context.Context, filter *OrderFilter) ([]OrderInfo, error) {
	const op = "OrderUseCase.ListOrders"

	orders, err := o.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	result := make([]OrderInfo, 0, len(orders))
	for i := range orders {
		result = append(result, NewOrderInfo(&orders[i]))
	}

	return result, nil
}

// MarkDelivered выполняет единственный допустимый переход статуса
// Placed -> Delivered. Строки и суммы заказа не меняются.
func (o *OrderUseCase) MarkDelivered(ctx context.Context, orderID int64) (*OrderInfo, error) {
	const op = "OrderUseCase.MarkDelivered"

	order, err := o.orderRepo.MarkDelivered(ctx, orderID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	info := NewOrderInfo(order)
	return &info, nil
}

// RevenueByCategory — свод выручки по категориям. Учитываются только
// доставленные заказы: неразвезённые заказы не считаются реализованной
// выручкой. Категория берётся из снимка строки; при его отсутствии —
// из текущего каталога по имени товара; иначе "Uncategorized".
func (o *OrderUseCase) RevenueByCategory(ctx context.Context, filter *RevenueFilter) ([]CategoryRevenue, error) {
	const op = "OrderUseCase.RevenueByCategory"

	rows, err := o.orderRepo.RevenueByCategory(ctx, filter)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return rows, nil
}

// persistOrder сохраняет заказ, его строки и outbox-событие одной транзакцией.
func (o *OrderUseCase) persistOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	const op = "OrderUseCase.persistOrder"

	var err error
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, o.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	var created *domain.Order
	created, err = o.orderRepo.Create(ctx, order)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var event *OutboxEvent
	event, err = o.buildOrderPlacedEvent(created)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if _, err = o.outboxRepo.Create(ctx, event); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	return created, nil
}

// buildOrderPlacedEvent сериализует уведомление о размещённом заказе.
func (o *OrderUseCase) buildOrderPlacedEvent(order *domain.Order) (*OutboxEvent, error) {
	eventID := uuid.NewString()

	items := make([]OrderPlacedEventItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderPlacedEventItem{
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}

	payload, err := json.Marshal(OrderPlacedEvent{
		EventID:     eventID,
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Items:       items,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		EventID:   eventID,
		EventType: OrderPlacedEventType,
		OrderID:   order.ID,
		Payload:   payload,
		Status:    Pending,
	}, nil
}

// validateOrder проверяет запрос до каких-либо мутаций.
func (o *OrderUseCase) validateOrder(req *PlaceOrderReq) error {
	if len(req.Items) == 0 {
		return e.ErrEmptyOrder
	}

	for _, item := range req.Items {
		if item.Quantity < 1 {
			return e.ErrQuantityMustBePositive
		}
	}

	if strings.TrimSpace(req.Address) == "" {
		return e.ErrAddressRequired
	}

	if !phoneNumberRe.MatchString(req.PhoneNumber) {
		return e.ErrInvalidPhoneNumber
	}

	return nil
}

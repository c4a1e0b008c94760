package usecase

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingTxPool имитирует недоступность базы на старте транзакции.
type failingTxPool struct {
	err error
}

func (f *failingTxPool) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return nil, f.err
}

// fakeTx — заглушка pgx.Tx для happy-path: репозитории в тестах
// транзакцию не используют, важны только Commit/Rollback.
type fakeTx struct{}

func (fakeTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions are not supported")
}
func (fakeTx) Commit(ctx context.Context) error   { return nil }
func (fakeTx) Rollback(ctx context.Context) error { return nil }
func (fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (fakeTx) Conn() *pgx.Conn                                               { return nil }

type workingTxPool struct{}

func (workingTxPool) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return fakeTx{}, nil
}

type fakeOrderRepo struct {
	orders       []domain.Order
	deliveredIDs []int64
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	created := *order
	created.ID = int64(len(f.orders) + 1)
	created.CreatedAt = time.Now()
	f.orders = append(f.orders, created)
	return &created, nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	for i := range f.orders {
		if f.orders[i].ID == id {
			return &f.orders[i], nil
		}
	}
	return nil, e.ErrOrderNotFound
}

func (f *fakeOrderRepo) List(ctx context.Context, filter *OrderFilter) ([]domain.Order, error) {
	return f.orders, nil
}

func (f *fakeOrderRepo) MarkDelivered(ctx context.Context, id int64) (*domain.Order, error) {
	for i := range f.orders {
		if f.orders[i].ID == id {
			if f.orders[i].Status == domain.StatusDelivered {
				return nil, e.ErrOrderDelivered
			}
			f.orders[i].Status = domain.StatusDelivered
			f.deliveredIDs = append(f.deliveredIDs, id)
			return &f.orders[i], nil
		}
	}
	return nil, e.ErrOrderNotFound
}

// RevenueByCategory повторяет контракт SQL-агрегации: только доставленные
// заказы, категория из снимка строки (пустая — "Uncategorized"),
// сортировка по убыванию выручки.
func (f *fakeOrderRepo) RevenueByCategory(ctx context.Context, filter *RevenueFilter) ([]CategoryRevenue, error) {
	byCategory := make(map[string]*CategoryRevenue)

	for _, order := range f.orders {
		if order.Status != domain.StatusDelivered {
			continue
		}
		if filter != nil {
			if filter.From != nil && order.CreatedAt.Before(*filter.From) {
				continue
			}
			if filter.To != nil && order.CreatedAt.After(*filter.To) {
				continue
			}
		}

		for _, item := range order.Items {
			category := item.CategoryName
			if category == "" {
				category = "Uncategorized"
			}
			row, ok := byCategory[category]
			if !ok {
				row = &CategoryRevenue{Category: category}
				byCategory[category] = row
			}
			row.TotalRevenue += item.LineTotal
			row.UnitsSold += item.Quantity
		}
	}

	result := make([]CategoryRevenue, 0, len(byCategory))
	for _, row := range byCategory {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TotalRevenue > result[j].TotalRevenue })

	return result, nil
}

type fakeOutboxRepo struct {
	events []*OutboxEvent
}

func (f *fakeOutboxRepo) Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	return nil
}

type fakeCartRepo struct {
	items   []domain.CartItem
	cleared bool
}

func (f *fakeCartRepo) Upsert(ctx context.Context, item *domain.CartItem) (*domain.CartItem, error) {
	f.items = append(f.items, *item)
	return item, nil
}

func (f *fakeCartRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	return f.items, nil
}

func (f *fakeCartRepo) Delete(ctx context.Context, userID string, productID int64) error {
	return nil
}

func (f *fakeCartRepo) Clear(ctx context.Context, userID string) error {
	f.cleared = true
	return nil
}

type orderUCFixture struct {
	uc        *OrderUseCase
	stockRepo *fakeStockRepo
	orderRepo *fakeOrderRepo
	outbox    *fakeOutboxRepo
	cart      *fakeCartRepo
}

// newOrderUCFixture собирает usecase поверх фейков с работающей
// транзакцией-заглушкой.
func newOrderUCFixture(products map[int64]*fakeProduct) *orderUCFixture {
	return newOrderUCFixtureWithPool(products, workingTxPool{})
}

// newBrokenDBFixture — то же, но BeginTx падает: проверка откатов
// при сбое сохранения.
func newBrokenDBFixture(products map[int64]*fakeProduct) *orderUCFixture {
	return newOrderUCFixtureWithPool(products, &failingTxPool{err: errors.New("connection refused")})
}

func newOrderUCFixtureWithPool(products map[int64]*fakeProduct, pool transaction.Transactional) *orderUCFixture {
	stockRepo := newFakeStockRepo(products)
	orderRepo := &fakeOrderRepo{}
	outbox := &fakeOutboxRepo{}
	cart := &fakeCartRepo{}
	log := logger.NewSlogLogger()

	uc := NewOrderUC(
		NewStockLedger(stockRepo, nil, log),
		orderRepo,
		outbox,
		cart,
		pool,
		log,
	)

	return &orderUCFixture{uc: uc, stockRepo: stockRepo, orderRepo: orderRepo, outbox: outbox, cart: cart}
}

func validPlaceOrderReq(items ...PlaceOrderItem) *PlaceOrderReq {
	return NewPlaceOrderReq("user-1", items, "12 MG Road, Bengaluru", "9876543210")
}

func TestPlaceOrderValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     *PlaceOrderReq
		wantErr error
	}{
		{
			name:    "empty order",
			req:     validPlaceOrderReq(),
			wantErr: e.ErrEmptyOrder,
		},
		{
			name:    "zero quantity",
			req:     validPlaceOrderReq(PlaceOrderItem{ProductID: 1, Quantity: 0}),
			wantErr: e.ErrQuantityMustBePositive,
		},
		{
			name:    "negative quantity",
			req:     validPlaceOrderReq(PlaceOrderItem{ProductID: 1, Quantity: -3}),
			wantErr: e.ErrQuantityMustBePositive,
		},
		{
			name: "blank address",
			req: NewPlaceOrderReq("user-1",
				[]PlaceOrderItem{{ProductID: 1, Quantity: 1}}, "   ", "9876543210"),
			wantErr: e.ErrAddressRequired,
		},
		{
			name: "short phone",
			req: NewPlaceOrderReq("user-1",
				[]PlaceOrderItem{{ProductID: 1, Quantity: 1}}, "12 MG Road", "12345"),
			wantErr: e.ErrInvalidPhoneNumber,
		},
		{
			name: "phone with letters",
			req: NewPlaceOrderReq("user-1",
				[]PlaceOrderItem{{ProductID: 1, Quantity: 1}}, "12 MG Road", "98765abcde"),
			wantErr: e.ErrInvalidPhoneNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fix := newOrderUCFixture(map[int64]*fakeProduct{
				1: {name: "Teak Chair", price: 59999, quantity: 10},
			})

			_, err := fix.uc.PlaceOrder(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			// Отказ валидации ничего не списывает.
			assert.Equal(t, int64(10), fix.stockRepo.quantityOf(1))
		})
	}
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	fix := newOrderUCFixture(map[int64]*fakeProduct{
		1: {name: "Teak Chair", price: 59999, quantity: 5},
		2: {name: "Oak Table", price: 129999, quantity: 0},
	})

	_, err := fix.uc.PlaceOrder(context.Background(), validPlaceOrderReq(
		PlaceOrderItem{ProductID: 1, Quantity: 2},
		PlaceOrderItem{ProductID: 2, Quantity: 1},
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrInsufficientStock)

	// Успевшая бронь первой позиции возвращена.
	assert.Equal(t, int64(5), fix.stockRepo.quantityOf(1))
	assert.Equal(t, int64(0), fix.stockRepo.quantityOf(2))
	assert.Empty(t, fix.orderRepo.orders)
}

func TestPlaceOrderRollsBackInReverseOrder(t *testing.T) {
	fix := newOrderUCFixture(map[int64]*fakeProduct{
		1: {name: "Teak Chair", price: 59999, quantity: 5},
		2: {name: "Oak Table", price: 129999, quantity: 5},
	})

	_, err := fix.uc.PlaceOrder(context.Background(), validPlaceOrderReq(
		PlaceOrderItem{ProductID: 1, Quantity: 1},
		PlaceOrderItem{ProductID: 2, Quantity: 1},
		PlaceOrderItem{ProductID: 3, Quantity: 1},
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrProductNotFound)

	// Возвраты идут в порядке, обратном взятию броней.
	assert.Equal(t, []int64{2, 1}, fix.stockRepo.increments)
}

func TestPlaceOrderHappyPath(t *testing.T) {
	fix := newOrderUCFixture(map[int64]*fakeProduct{
		1: {name: "Teak Chair", price: 59999, categoryName: "Chairs", imageKey: "chairs/1.jpg", quantity: 5},
	})

	res, err := fix.uc.PlaceOrder(context.Background(), validPlaceOrderReq(
		PlaceOrderItem{ProductID: 1, Quantity: 3},
	))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.OrderID)
	assert.Equal(t, int64(2), fix.stockRepo.quantityOf(1))

	require.Len(t, fix.orderRepo.orders, 1)
	order := fix.orderRepo.orders[0]
	assert.Equal(t, domain.StatusPlaced, order.Status)
	assert.Equal(t, int64(3*59999), order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Teak Chair", order.Items[0].ProductName)
	assert.Equal(t, "Chairs", order.Items[0].CategoryName)
	assert.Equal(t, int64(3*59999), order.Items[0].LineTotal)

	require.Len(t, fix.outbox.events, 1)
	event := fix.outbox.events[0]
	assert.Equal(t, OrderPlacedEventType, event.EventType)
	assert.Equal(t, int64(1), event.OrderID)
	assert.NotEmpty(t, event.EventID)
	assert.NotEmpty(t, event.Payload)

	// Повторный заказ сверх остатка отклоняется, остаток не меняется.
	_, err = fix.uc.PlaceOrder(context.Background(), validPlaceOrderReq(
		PlaceOrderItem{ProductID: 1, Quantity: 10},
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrInsufficientStock)
	assert.Equal(t, int64(2), fix.stockRepo.quantityOf(1))
	assert.Len(t, fix.orderRepo.orders, 1)
}

func TestCheckoutPlacesOrderAndClearsCart(t *testing.T) {
	fix := newOrderUCFixture(map[int64]*fakeProduct{
		1: {name: "Teak Chair", price: 59999, categoryName: "Chairs", quantity: 5},
		2: {name: "Oak Table", price: 129999, categoryName: "Tables", quantity: 2},
	})
	fix.cart.items = []domain.CartItem{
		{UserID: "user-1", ProductID: 1, Quantity: 2},
		{UserID: "user-1", ProductID: 2, Quantity: 1},
	}

	res, err := fix.uc.Checkout(context.Background(), &CheckoutReq{
		UserID:      "user-1",
		Address:     "12 MG Road, Bengaluru",
		PhoneNumber: "9876543210",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.OrderID)

	assert.True(t, fix.cart.cleared)
	assert.Equal(t, int64(3), fix.stockRepo.quantityOf(1))
	assert.Equal(t, int64(1), fix.stockRepo.quantityOf(2))

	require.Len(t, fix.orderRepo.orders, 1)
	assert.Equal(t, int64(2*59999+129999), fix.orderRepo.orders[0].TotalAmount)
}

func TestPlaceOrderPersistenceFailureRestoresStock(t *testing.T) {
	fix := newBrokenDBFixture(map[int64]*fakeProduct{
		1: {name: "Teak Chair", price: 59999, quantity: 5},
		2: {name: "Oak Table", price: 129999, quantity: 3},
	})

	_, err := fix.uc.PlaceOrder(context.Background(), validPlaceOrderReq(
		PlaceOrderItem{ProductID: 1, Quantity: 2},
		PlaceOrderItem{ProductID: 2, Quantity: 3},
	))
	require.Error(t, err)

	// Сбой сохранения не должен просачиваться деталями хранилища.
	assert.ErrorIs(t, err, e.ErrInternalServerError)

	// Все брони возвращены, заказ не создан.
	assert.Equal(t, int64(5), fix.stockRepo.quantityOf(1))
	assert.Equal(t, int64(3), fix.stockRepo.quantityOf(2))
	assert.Empty(t, fix.orderRepo.orders)
	assert.Empty(t, fix.outbox.events)
}

func TestPlaceOrderDuplicateItemsDecrementAdditively(t *testing.T) {
	fix := newOrderUCFixture(map[int64]*fakeProduct{
		1: {name: "Teak Chair", price: 59999, quantity: 5},
	})

	// 3 + 3 > 5: первая бронь проходит, вторая падает, всё возвращается.
	_, err := fix.uc.PlaceOrder(context.Background(), validPlaceOrderReq(
		PlaceOrderItem{ProductID: 1, Quantity: 3},
		PlaceOrderItem{ProductID: 1, Quantity: 3},
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrInsufficientStock)
	assert.Equal(t, int64(5), fix.stockRepo.quantityOf(1))
}

func TestCheckoutEmptyCart(t *testing.T) {
	fix := newOrderUCFixture(map[int64]*fakeProduct{})

	_, err := fix.uc.Checkout(context.Background(), &CheckoutReq{
		UserID:      "user-1",
		Address:     "12 MG Road, Bengaluru",
		PhoneNumber: "9876543210",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrEmptyOrder)
}

func TestCheckoutKeepsCartOnFailure(t *testing.T) {
	fix := newBrokenDBFixture(map[int64]*fakeProduct{
		1: {name: "Teak Chair", price: 59999, quantity: 5},
	})
	fix.cart.items = []domain.CartItem{
		{UserID: "user-1", ProductID: 1, Quantity: 2, Name: "Teak Chair", Price: 59999},
	}

	_, err := fix.uc.Checkout(context.Background(), &CheckoutReq{
		UserID:      "user-1",
		Address:     "12 MG Road, Bengaluru",
		PhoneNumber: "9876543210",
	})
	require.Error(t, err)

	// Заказ не создан — корзина не очищается, остаток возвращён.
	assert.False(t, fix.cart.cleared)
	assert.Equal(t, int64(5), fix.stockRepo.quantityOf(1))
}

func TestListOrdersMapsDomain(t *testing.T) {
	fix := newOrderUCFixture(map[int64]*fakeProduct{})
	fix.orderRepo.orders = []domain.Order{
		{
			ID:     7,
			UserID: "user-1",
			Items: []domain.OrderLineItem{
				domain.NewOrderLineItem("Teak Chair", 59999, 2, "chairs/1.jpg", "Chairs"),
			},
			TotalAmount: 119998,
			Address:     "12 MG Road, Bengaluru",
			PhoneNumber: "9876543210",
			Status:      domain.StatusPlaced,
			CreatedAt:   time.Now(),
		},
	}

	orders, err := fix.uc.ListOrders(context.Background(), &OrderFilter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, orders, 1)

	assert.Equal(t, int64(7), orders[0].ID)
	assert.Equal(t, "Placed", orders[0].Status)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, int64(119998), orders[0].Items[0].LineTotal)
	assert.Equal(t, int64(119998), orders[0].TotalAmount)
}

func TestMarkDeliveredOnce(t *testing.T) {
	fix := newOrderUCFixture(map[int64]*fakeProduct{})
	fix.orderRepo.orders = []domain.Order{
		{ID: 7, UserID: "user-1", Status: domain.StatusPlaced},
	}

	info, err := fix.uc.MarkDelivered(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Delivered", info.Status)

	// Повторная отметка — конфликт, статус не «мигает».
	_, err = fix.uc.MarkDelivered(context.Background(), 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrOrderDelivered)
	assert.Equal(t, []int64{7}, fix.orderRepo.deliveredIDs)
}

func TestMarkDeliveredUnknownOrder(t *testing.T) {
	fix := newOrderUCFixture(map[int64]*fakeProduct{})

	_, err := fix.uc.MarkDelivered(context.Background(), 404)
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrOrderNotFound)
}

func TestRevenueByCategoryExcludesPlacedOrders(t *testing.T) {
	fix := newOrderUCFixture(map[int64]*fakeProduct{})
	now := time.Now()
	fix.orderRepo.orders = []domain.Order{
		{
			ID:     1,
			UserID: "user-1",
			Status: domain.StatusPlaced,
			Items: []domain.OrderLineItem{
				domain.NewOrderLineItem("Teak Chair", 50000, 1, "", "Chairs"),
			},
			CreatedAt: now,
		},
		{
			ID:     2,
			UserID: "user-2",
			Status: domain.StatusDelivered,
			Items: []domain.OrderLineItem{
				domain.NewOrderLineItem("Oak Table", 30000, 1, "", "Tables"),
			},
			CreatedAt: now,
		},
	}

	rows, err := fix.uc.RevenueByCategory(context.Background(), &RevenueFilter{})
	require.NoError(t, err)

	// Размещённый заказ на 500 рупий не попадает в выручку:
	// считаются только доставленные.
	require.Len(t, rows, 1)
	assert.Equal(t, "Tables", rows[0].Category)
	assert.Equal(t, int64(30000), rows[0].TotalRevenue)
	assert.Equal(t, int64(1), rows[0].UnitsSold)
}

func TestRevenueByCategoryFallbackAndSort(t *testing.T) {
	fix := newOrderUCFixture(map[int64]*fakeProduct{})
	now := time.Now()
	fix.orderRepo.orders = []domain.Order{
		{
			ID:     1,
			Status: domain.StatusDelivered,
			Items: []domain.OrderLineItem{
				domain.NewOrderLineItem("Oak Table", 129999, 1, "", "Tables"),
				domain.NewOrderLineItem("Teak Chair", 59999, 2, "", "Chairs"),
				domain.NewOrderLineItem("Brass Lamp", 9999, 1, "", ""),
			},
			CreatedAt: now,
		},
	}

	rows, err := fix.uc.RevenueByCategory(context.Background(), &RevenueFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Строка без снимка категории попадает в "Uncategorized",
	// порядок — по убыванию выручки.
	assert.Equal(t, "Tables", rows[0].Category)
	assert.Equal(t, int64(129999), rows[0].TotalRevenue)
	assert.Equal(t, "Chairs", rows[1].Category)
	assert.Equal(t, int64(2*59999), rows[1].TotalRevenue)
	assert.Equal(t, "Uncategorized", rows[2].Category)
	assert.Equal(t, int64(9999), rows[2].TotalRevenue)
}

func TestRevenueByCategoryDateRange(t *testing.T) {
	fix := newOrderUCFixture(map[int64]*fakeProduct{})
	old := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	fix.orderRepo.orders = []domain.Order{
		{
			ID:     1,
			Status: domain.StatusDelivered,
			Items: []domain.OrderLineItem{
				domain.NewOrderLineItem("Teak Chair", 59999, 1, "", "Chairs"),
			},
			CreatedAt: old,
		},
		{
			ID:     2,
			Status: domain.StatusDelivered,
			Items: []domain.OrderLineItem{
				domain.NewOrderLineItem("Oak Table", 129999, 1, "", "Tables"),
			},
			CreatedAt: recent,
		},
	}

	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	rows, err := fix.uc.RevenueByCategory(context.Background(), &RevenueFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Tables", rows[0].Category)
}

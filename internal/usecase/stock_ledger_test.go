package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProduct struct {
	name         string
	price        int64
	categoryName string
	imageKey     string
	quantity     int64
}

// fakeStockRepo повторяет контракт условного UPDATE: проверка остатка и
// списание происходят под одной блокировкой.
type fakeStockRepo struct {
	mu       sync.Mutex
	products map[int64]*fakeProduct

	failIncrements int
	increments     []int64 // product IDs в порядке возвратов
}

func newFakeStockRepo(products map[int64]*fakeProduct) *fakeStockRepo {
	return &fakeStockRepo{products: products}
}

func (f *fakeStockRepo) DecrementStock(ctx context.Context, productID, quantity int64) (*ProductSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.products[productID]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	if product.quantity < quantity {
		return nil, e.NewInsufficientStockError(productID, quantity, product.quantity)
	}

	product.quantity -= quantity
	return NewProductSnapshot(productID, product.name, product.price, product.categoryName, product.imageKey, product.quantity), nil
}

func (f *fakeStockRepo) IncrementStock(ctx context.Context, productID, quantity int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failIncrements > 0 {
		f.failIncrements--
		return errors.New("storage unavailable")
	}

	product, ok := f.products[productID]
	if !ok {
		return e.ErrProductNotFound
	}

	product.quantity += quantity
	f.increments = append(f.increments, productID)
	return nil
}

func (f *fakeStockRepo) quantityOf(productID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[productID].quantity
}

func newTestLedger(repo *fakeStockRepo) *StockLedger {
	return NewStockLedger(repo, nil, logger.NewSlogLogger())
}

func TestStockLedgerReserve(t *testing.T) {
	repo := newFakeStockRepo(map[int64]*fakeProduct{
		1: {name: "Teak Chair", price: 59999, categoryName: "Chairs", imageKey: "chairs/1.jpg", quantity: 5},
	})
	ledger := newTestLedger(repo)

	reservation, err := ledger.Reserve(context.Background(), 1, 3)
	require.NoError(t, err)

	assert.Equal(t, int64(1), reservation.ProductID)
	assert.Equal(t, int64(3), reservation.Quantity)
	assert.Equal(t, "Teak Chair", reservation.Snapshot.Name)
	assert.Equal(t, int64(2), reservation.Snapshot.Remaining)
	assert.Equal(t, int64(2), repo.quantityOf(1))
}

func TestStockLedgerReserveUnknownProduct(t *testing.T) {
	ledger := newTestLedger(newFakeStockRepo(map[int64]*fakeProduct{}))

	_, err := ledger.Reserve(context.Background(), 42, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrProductNotFound)
}

func TestStockLedgerReserveInsufficientStock(t *testing.T) {
	repo := newFakeStockRepo(map[int64]*fakeProduct{
		1: {name: "Teak Chair", price: 59999, quantity: 2},
	})
	ledger := newTestLedger(repo)

	_, err := ledger.Reserve(context.Background(), 1, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrInsufficientStock)

	var stockErr *e.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(1), stockErr.ProductID)
	assert.Equal(t, int64(5), stockErr.Requested)
	assert.Equal(t, int64(2), stockErr.Available)

	// Отказ ничего не списывает.
	assert.Equal(t, int64(2), repo.quantityOf(1))
}

func TestStockLedgerReleaseReturnsStock(t *testing.T) {
	repo := newFakeStockRepo(map[int64]*fakeProduct{
		1: {name: "Teak Chair", price: 59999, quantity: 5},
	})
	ledger := newTestLedger(repo)

	reservation, err := ledger.Reserve(context.Background(), 1, 3)
	require.NoError(t, err)
	require.Equal(t, int64(2), repo.quantityOf(1))

	ledger.Release(context.Background(), reservation)
	assert.Equal(t, int64(5), repo.quantityOf(1))
}

func TestStockLedgerReleaseIsIdempotent(t *testing.T) {
	repo := newFakeStockRepo(map[int64]*fakeProduct{
		1: {name: "Teak Chair", price: 59999, quantity: 5},
	})
	ledger := newTestLedger(repo)

	reservation, err := ledger.Reserve(context.Background(), 1, 2)
	require.NoError(t, err)

	ledger.Release(context.Background(), reservation)
	ledger.Release(context.Background(), reservation)
	ledger.Release(context.Background(), reservation)

	assert.Equal(t, int64(5), repo.quantityOf(1))
	assert.Len(t, repo.increments, 1)
}

func TestStockLedgerReleaseAfterCommitIsNoop(t *testing.T) {
	repo := newFakeStockRepo(map[int64]*fakeProduct{
		1: {name: "Teak Chair", price: 59999, quantity: 5},
	})
	ledger := newTestLedger(repo)

	reservation, err := ledger.Reserve(context.Background(), 1, 2)
	require.NoError(t, err)

	ledger.Commit(reservation)
	ledger.Release(context.Background(), reservation)

	// Зафиксированная бронь не возвращается на склад.
	assert.Equal(t, int64(3), repo.quantityOf(1))
	assert.Empty(t, repo.increments)
}

func TestStockLedgerReleaseRetriesTransientFailure(t *testing.T) {
	repo := newFakeStockRepo(map[int64]*fakeProduct{
		1: {name: "Teak Chair", price: 59999, quantity: 5},
	})
	repo.failIncrements = 2
	ledger := newTestLedger(repo)

	reservation, err := ledger.Reserve(context.Background(), 1, 3)
	require.NoError(t, err)

	ledger.Release(context.Background(), reservation)
	assert.Equal(t, int64(5), repo.quantityOf(1))
}

func TestStockLedgerConcurrentReserveLastUnit(t *testing.T) {
	repo := newFakeStockRepo(map[int64]*fakeProduct{
		1: {name: "Teak Chair", price: 59999, quantity: 1},
	})
	ledger := newTestLedger(repo)

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Reserve(context.Background(), 1, 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, insufficient int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, e.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, insufficient)
	assert.Equal(t, int64(0), repo.quantityOf(1))
}

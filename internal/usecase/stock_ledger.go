package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/jitter"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
)

// Reservation — подтверждённое атомарное списание остатка под одну строку
// одной попытки заказа. Несёт снимок товара, сделанный тем же запросом.
type Reservation struct {
	ProductID int64
	Quantity  int64
	Snapshot  *ProductSnapshot

	mu       sync.Mutex
	released bool
}

// StockLedger — единственный владелец остатков товаров. Все списания и
// возвраты проходят через него; само условие "хватает ли остатка"
// проверяется одним условным UPDATE в хранилище, поэтому две конкурентные
// брони на последнюю единицу не могут пройти обе.
type StockLedger struct {
	stockRepo StockRepository
	cacheRepo CacheRepository
	logger    logger.Logger
}

func NewStockLedger(stockRepo StockRepository, cacheRepo CacheRepository, logger logger.Logger) *StockLedger {
	return &StockLedger{
		stockRepo: stockRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
	}
}

// Reserve атомарно списывает quantity единиц товара productID.
// Возвращает e.ErrProductNotFound, если товара нет, или
// *e.InsufficientStockError, если остатка не хватает.
func (l *StockLedger) Reserve(ctx context.Context, productID, quantity int64) (*Reservation, error) {
	const op = "StockLedger.Reserve"

	snapshot, err := l.stockRepo.DecrementStock(ctx, productID, quantity)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	l.invalidateCache(ctx, productID)

	return &Reservation{
		ProductID: productID,
		Quantity:  quantity,
		Snapshot:  snapshot,
	}, nil
}

// Release — компенсирующий возврат остатка для брони, которую не удалось
// довести до заказа. Идемпотентен: повторный вызов для уже возвращённой
// брони — no-op. Выполняется на отдельном контексте, чтобы откат завершился
// даже после таймаута исходного запроса.
func (l *StockLedger) Release(ctx context.Context, reservation *Reservation) {
	const (
		op          = "StockLedger.Release"
		maxAttempts = 3
		baseBackoff = 100 * time.Millisecond
		maxBackoff  = time.Second
	)

	reservation.mu.Lock()
	if reservation.released {
		reservation.mu.Unlock()
		return
	}
	reservation.released = true
	reservation.mu.Unlock()

	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = l.stockRepo.IncrementStock(releaseCtx, reservation.ProductID, reservation.Quantity)
		if err == nil {
			l.invalidateCache(releaseCtx, reservation.ProductID)
			return
		}

		select {
		case <-time.After(jitter.ExponentialBackoff(baseBackoff, maxBackoff, attempt, jitter.DefaultJitter)):
		case <-releaseCtx.Done():
			l.logger.Errorf(releaseCtx.Err(), "%s: rollback interrupted, product_id: %d, quantity: %d",
				op, reservation.ProductID, reservation.Quantity)
			return
		}
	}

	l.logger.Errorf(err, "%s: failed to return stock, product_id: %d, quantity: %d",
		op, reservation.ProductID, reservation.Quantity)
}

// Commit финализирует бронь. Списание в Reserve уже окончательное,
// поэтому здесь бронь лишь помечается удержанной: поздний Release
// для зафиксированной брони становится no-op.
func (l *StockLedger) Commit(reservation *Reservation) {
	reservation.mu.Lock()
	reservation.released = true
	reservation.mu.Unlock()
}

// invalidateCache сбрасывает закэшированный товар после изменения остатка.
func (l *StockLedger) invalidateCache(ctx context.Context, productID int64) {
	if l.cacheRepo == nil {
		return
	}
	if err := l.cacheRepo.DeleteProducts(ctx, []int64{productID}); err != nil {
		l.logger.Warnf("failed to invalidate product cache: %v", err)
	}
}

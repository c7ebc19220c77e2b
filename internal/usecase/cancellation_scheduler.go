package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/metrics"
	repo "storefront/internal/repository"
)

// 1回の遷移書き込みにかける上限
const transitionTimeout = 10 * time.Second

// CancellationScheduler はキャンセル要求から一定時間後に
// Cancel Requested → Processing へ進める遅延タスクを持つ。
// 発火時に現在値を比較してから書くので、管理者が先に進めた注文は上書きしない
type CancellationScheduler struct {
	orders  repo.OrderRepository
	clock   Clock
	delay   time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func NewCancellationScheduler(orders repo.OrderRepository, delay time.Duration, clock Clock, logger *slog.Logger, m *metrics.Metrics) *CancellationScheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.Noop()
	}
	return &CancellationScheduler{
		orders:  orders,
		clock:   clock,
		delay:   delay,
		logger:  logger,
		metrics: m,
		timers:  make(map[string]*time.Timer),
	}
}

func (s *CancellationScheduler) Delay() time.Duration {
	return s.delay
}

// Schedule は要求時刻+遅延で遷移させる。期限切れなら即時
func (s *CancellationScheduler) Schedule(orderID string, requestedAt time.Time) {
	s.ScheduleAt(orderID, requestedAt.Add(s.delay))
}

func (s *CancellationScheduler) ScheduleAt(orderID string, due time.Time) {
	wait := due.Sub(s.clock.Now())
	if wait < 0 {
		wait = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	//同じ注文の予約は置き換える
	if t, ok := s.timers[orderID]; ok {
		t.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(wait, func() {
		s.mu.Lock()
		//置き換え・取消済みのタイマーなら何もしない
		if s.timers[orderID] != timer || s.stopped {
			s.mu.Unlock()
			return
		}
		delete(s.timers, orderID)
		s.wg.Add(1)
		s.mu.Unlock()

		defer s.wg.Done()
		s.fire(orderID)
	})
	s.timers[orderID] = timer
}

// Cancel は予約を取り消す。予約があればtrue
func (s *CancellationScheduler) Cancel(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[orderID]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.timers, orderID)
	return true
}

// Pending は未発火の予約数
func (s *CancellationScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop は未発火の予約を捨て、実行中の遷移を待つ
func (s *CancellationScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Resume は起動時にCancel Requestedのまま残った注文を予約し直す
func (s *CancellationScheduler) Resume(ctx context.Context) (int, error) {
	orders, err := s.orders.ListByCancellationStatus(ctx, model.CancellationRequested)
	if err != nil {
		return 0, err
	}

	for _, o := range orders {
		requestedAt := o.UpdatedAt
		if o.CancellationRequestedAt != nil {
			requestedAt = *o.CancellationRequestedAt
		}
		s.Schedule(o.ID, requestedAt)
	}

	if len(orders) > 0 {
		s.logger.Info("resumed pending cancellation reviews", slog.Int("count", len(orders)))
	}
	return len(orders), nil
}

func (s *CancellationScheduler) fire(orderID string) {
	ctx, cancel := context.WithTimeout(context.Background(), transitionTimeout)
	defer cancel()

	ok, err := s.orders.AdvanceCancellation(ctx, orderID, model.CancellationRequested, model.CancellationProcessing, s.clock.Now())
	if err != nil {
		s.logger.Error("cancellation review transition failed",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
		return
	}
	if !ok {
		s.logger.Info("cancellation review skipped, status already changed", slog.String("order_id", orderID))
		return
	}

	s.metrics.RecordCancellationTransition(ctx, string(model.CancellationProcessing))
	s.logger.Info("cancellation moved to processing", slog.String("order_id", orderID))
}

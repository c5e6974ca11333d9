package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Service buffers records in a channel and writes them to a Store from a
// background worker. Record never blocks: when the buffer is full the record
// is dropped and counted.
type Service struct {
	store         Store
	records       chan Record
	wg            sync.WaitGroup
	logger        *slog.Logger
	batchSize     int
	flushInterval time.Duration
	bufferSize    int
	dropCount     atomic.Int64

	// mu guards closed; Record holds it shared so Stop cannot close the
	// channel under an in-flight send.
	mu     sync.RWMutex
	closed bool
}

// Option configures a Service.
type Option func(*Service)

// WithBatchSize sets the number of records written per Append.
func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithFlushInterval sets how often a partial batch is written.
func WithFlushInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.flushInterval = interval
		}
	}
}

// WithBufferSize sets the capacity of the record channel.
func WithBufferSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.bufferSize = size
		}
	}
}

// NewService creates a Service writing to store. Call Start before Record.
func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		store:         store,
		logger:        logger,
		batchSize:     100,
		flushInterval: time.Second,
		bufferSize:    1024,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.records = make(chan Record, s.bufferSize)
	return s
}

// Start launches the background worker. It stops when ctx is cancelled or
// Stop is called, flushing pending records either way.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.worker(ctx)
}

// Record queues r for writing. It never blocks. Records arriving after Stop
// are dropped.
func (s *Service) Record(r Record) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.dropCount.Add(1)
		return
	}

	select {
	case s.records <- r:
	default:
		drops := s.dropCount.Add(1)
		s.logger.Warn("audit record dropped",
			"client_ip", r.ClientAddress,
			"total_drops", drops,
		)
	}
}

// DroppedRecords returns the number of records dropped on a full buffer.
func (s *Service) DroppedRecords() int64 {
	return s.dropCount.Load()
}

// QueueDepth returns the number of records waiting to be written.
func (s *Service) QueueDepth() int {
	return len(s.records)
}

// QueueCapacity returns the capacity of the record buffer.
func (s *Service) QueueCapacity() int {
	return cap(s.records)
}

// Stop closes the queue and waits for the worker to flush and exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.records)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()

	batch := make([]Record, 0, s.batchSize)
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case r, ok := <-s.records:
			if !ok {
				s.finalFlush(batch)
				return
			}
			batch = append(batch, r)
			if len(batch) >= s.batchSize {
				s.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ctx.Done():
			for {
				select {
				case r, ok := <-s.records:
					if !ok {
						s.finalFlush(batch)
						return
					}
					batch = append(batch, r)
				default:
					s.finalFlush(batch)
					return
				}
			}
		}
	}
}

// finalFlush writes what is left with a bounded deadline, independent of the
// worker context which may already be cancelled.
func (s *Service) finalFlush(batch []Record) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(ctx, batch)
}

// flush writes a batch. Errors are logged, never propagated.
func (s *Service) flush(ctx context.Context, batch []Record) {
	if err := s.store.Append(ctx, batch...); err != nil {
		s.logger.Error("failed to write audit batch",
			"err", err,
			"count", len(batch),
		)
	}
}

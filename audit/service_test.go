package audit_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sagarc03/davgate/audit"
)

type memStore struct {
	mu      sync.Mutex
	records []audit.Record
	batches int
	err     error
	block   chan struct{}
}

func (m *memStore) Append(_ context.Context, records ...audit.Record) error {
	if m.block != nil {
		<-m.block
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.batches++
	m.records = append(m.records, records...)
	return nil
}

func (m *memStore) List(context.Context, audit.ListQuery) ([]audit.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audit.Record(nil), m.records...), nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestService_FlushesOnStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &memStore{}
	svc := audit.NewService(store, discardLogger(), audit.WithFlushInterval(time.Hour))
	svc.Start(context.Background())

	for i := 0; i < 5; i++ {
		svc.Record(audit.Record{Method: "GET", Path: "/", Reason: "missing"})
	}
	svc.Stop()

	assert.Equal(t, 5, store.count())
	assert.Zero(t, svc.DroppedRecords())
}

func TestService_FlushesFullBatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &memStore{}
	svc := audit.NewService(store, discardLogger(), audit.WithBatchSize(2), audit.WithFlushInterval(time.Hour))
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Record(audit.Record{Method: "GET"})
	svc.Record(audit.Record{Method: "PUT"})

	require.Eventually(t, func() bool { return store.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestService_FlushesOnInterval(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &memStore{}
	svc := audit.NewService(store, discardLogger(), audit.WithFlushInterval(10*time.Millisecond))
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Record(audit.Record{Method: "GET"})

	require.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestService_DropsWhenFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &memStore{block: make(chan struct{})}
	svc := audit.NewService(store, discardLogger(),
		audit.WithBufferSize(1),
		audit.WithBatchSize(1),
		audit.WithFlushInterval(time.Hour),
	)
	svc.Start(context.Background())

	// The worker takes the first record and blocks in Append; the second
	// fills the buffer; everything after is dropped without blocking.
	svc.Record(audit.Record{Method: "A"})
	require.Eventually(t, func() bool { return svc.QueueDepth() == 0 }, time.Second, time.Millisecond)
	svc.Record(audit.Record{Method: "B"})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			svc.Record(audit.Record{Method: "C"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full buffer")
	}

	assert.Equal(t, int64(10), svc.DroppedRecords())
	assert.Equal(t, 1, svc.QueueDepth())

	close(store.block)
	svc.Stop()
	assert.Equal(t, 2, store.count())
}

func TestService_StoreErrorIsLogged(t *testing.T) {
	defer goleak.VerifyNone(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	store := &memStore{err: errors.New("disk full")}
	svc := audit.NewService(store, logger)
	svc.Start(context.Background())

	svc.Record(audit.Record{Method: "GET"})
	svc.Stop()

	assert.Contains(t, buf.String(), "failed to write audit batch")
	assert.Contains(t, buf.String(), "disk full")
}

func TestService_ContextCancelFlushes(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &memStore{}
	svc := audit.NewService(store, discardLogger(), audit.WithFlushInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)

	svc.Record(audit.Record{Method: "GET"})
	svc.Record(audit.Record{Method: "PUT"})
	require.Eventually(t, func() bool { return svc.QueueDepth() == 0 }, time.Second, time.Millisecond)

	cancel()
	svc.Stop()

	assert.Equal(t, 2, store.count())
}

func TestService_StopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := audit.NewService(&memStore{}, discardLogger())
	svc.Start(context.Background())

	svc.Stop()
	svc.Stop()
}

func TestService_RecordAfterStopIsDropped(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &memStore{}
	svc := audit.NewService(store, discardLogger())
	svc.Start(context.Background())
	svc.Stop()

	assert.NotPanics(t, func() { svc.Record(audit.Record{Method: "GET"}) })
	assert.Equal(t, int64(1), svc.DroppedRecords())
	assert.Zero(t, store.count())
}

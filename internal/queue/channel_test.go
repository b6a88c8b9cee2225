package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/internal/codec"
	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/store"
	"github.com/MKhiriev/go-proc-box/models"
)

var testQueueConfig = config.Queue{
	PollInterval:      10 * time.Millisecond,
	VisibilityTimeout: time.Minute,
}

func newTestChannel(t *testing.T, storage store.QueueStorage) *Channel[models.ProcessingMessage] {
	t.Helper()
	return NewChannel("requests", storage, codec.NewCBOR[models.ProcessingMessage](), testQueueConfig, logger.Nop())
}

func TestChannel_EnqueueDequeueAck(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryQueueStorage()
	ch := newTestChannel(t, storage)
	msg := models.ProcessingMessage{ID: "r1", FileURI: "files/u1/a.txt", ToolName: "MD5 calculator"}

	_, err := ch.Enqueue(ctx, msg)
	require.NoError(t, err)

	d, err := ch.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, msg, d.Message)
	assert.Equal(t, 1, d.Deliveries)

	assert.Equal(t, 1, storage.Len("requests"), "entry survives until acknowledged")
	require.NoError(t, d.Ack(ctx))
	assert.Zero(t, storage.Len("requests"))
}

func TestChannel_NackRedelivers(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t, store.NewMemoryQueueStorage())

	_, err := ch.Enqueue(ctx, models.ProcessingMessage{ID: "r1"})
	require.NoError(t, err)

	first, err := ch.Dequeue(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Nack(ctx))

	second, err := ch.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Deliveries)

	assert.ErrorIs(t, first.Ack(ctx), store.ErrStaleReceipt)
	assert.NoError(t, second.Ack(ctx))
}

func TestChannel_DequeueHonoursContext(t *testing.T) {
	ch := newTestChannel(t, store.NewMemoryQueueStorage())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := ch.Dequeue(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannel_DequeueWakesOnPush(t *testing.T) {
	storage := store.NewMemoryQueueStorage()
	ch := NewChannel("requests", storage, codec.NewCBOR[models.ProcessingMessage](),
		config.Queue{PollInterval: time.Hour, VisibilityTimeout: time.Minute}, logger.Nop())

	got := make(chan *Delivery[models.ProcessingMessage], 1)
	go func() {
		d, err := ch.Dequeue(context.Background())
		if err == nil {
			got <- d
		}
	}()

	time.Sleep(20 * time.Millisecond)
	_, err := ch.Enqueue(context.Background(), models.ProcessingMessage{ID: "wake"})
	require.NoError(t, err)

	select {
	case d := <-got:
		assert.Equal(t, "wake", d.Message.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("dequeue was not woken by the push")
	}
}

func TestChannel_UndecodablePayloadIsDropped(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryQueueStorage()
	ch := newTestChannel(t, storage)

	_, err := storage.Push(ctx, "requests", []byte{0xff, 0xfe})
	require.NoError(t, err)

	_, ok, err := ch.TryDequeue(ctx)

	assert.False(t, ok)
	assert.ErrorIs(t, err, app.ErrChannelDeliveryFailure)
	assert.Zero(t, storage.Len("requests"))
}

func TestChannel_ConsumeReleasesOnHandlerError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	storage := store.NewMemoryQueueStorage()
	ch := newTestChannel(t, storage)

	_, err := ch.Enqueue(ctx, models.ProcessingMessage{ID: "flaky"})
	require.NoError(t, err)

	var attempts int
	done := make(chan struct{})
	go func() {
		_ = ch.Consume(ctx, func(_ context.Context, msg models.ProcessingMessage) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			close(done)
			return nil
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("message was not redelivered")
	}
	cancel()

	assert.Eventually(t, func() bool { return storage.Len("requests") == 0 }, time.Second, 5*time.Millisecond)
}

func TestChannel_TwoConsumersNeverCompleteSameMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	storage := store.NewMemoryQueueStorage()
	const total = 100

	producer := newTestChannel(t, storage)
	for i := range total {
		_, err := producer.Enqueue(ctx, models.ProcessingMessage{ID: strconv.Itoa(i)})
		require.NoError(t, err)
	}

	var (
		mu        sync.Mutex
		completed = make(map[string][]int)
		wg        sync.WaitGroup
	)
	for worker := range 2 {
		ch := newTestChannel(t, storage)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ch.Consume(ctx, func(_ context.Context, msg models.ProcessingMessage) error {
				mu.Lock()
				completed[msg.ID] = append(completed[msg.ID], worker)
				mu.Unlock()
				return nil
			})
		}()
	}

	require.Eventually(t, func() bool { return storage.Len("requests") == 0 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	wg.Wait()

	assert.Len(t, completed, total)
	for id, workers := range completed {
		assert.Len(t, workers, 1, "message %s completed by %v", id, workers)
	}
}

func TestChannel_SlowHandlerKeepsMessageHidden(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	storage := store.NewMemoryQueueStorage()
	cfg := config.Queue{PollInterval: 5 * time.Millisecond, VisibilityTimeout: 90 * time.Millisecond}
	const total = 3

	producer := NewChannel("requests", storage, codec.NewCBOR[models.ProcessingMessage](), cfg, logger.Nop())
	for i := range total {
		_, err := producer.Enqueue(ctx, models.ProcessingMessage{ID: strconv.Itoa(i)})
		require.NoError(t, err)
	}

	var (
		mu      sync.Mutex
		handled = make(map[string]int)
		wg      sync.WaitGroup
	)
	for range 2 {
		ch := NewChannel("requests", storage, codec.NewCBOR[models.ProcessingMessage](), cfg, logger.Nop())
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ch.Consume(ctx, func(ctx context.Context, msg models.ProcessingMessage) error {
				select {
				case <-time.After(250 * time.Millisecond):
				case <-ctx.Done():
					return ctx.Err()
				}
				mu.Lock()
				handled[msg.ID]++
				mu.Unlock()
				return nil
			})
		}()
	}

	require.Eventually(t, func() bool { return storage.Len("requests") == 0 }, 5*time.Second, 5*time.Millisecond)
	time.Sleep(cfg.VisibilityTimeout * 3)
	cancel()
	wg.Wait()

	assert.Equal(t, map[string]int{"0": 1, "1": 1, "2": 1}, handled)
}

// staleExtendStorage loses every receipt on the first extension.
type staleExtendStorage struct {
	*store.MemoryQueueStorage
}

func (staleExtendStorage) Extend(context.Context, string, string, string, time.Duration) error {
	return store.ErrStaleReceipt
}

func TestChannel_LostReceiptCancelsHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	storage := staleExtendStorage{store.NewMemoryQueueStorage()}
	cfg := config.Queue{PollInterval: 5 * time.Millisecond, VisibilityTimeout: 30 * time.Millisecond}
	ch := NewChannel("requests", storage, codec.NewCBOR[models.ProcessingMessage](), cfg, logger.Nop())

	_, err := ch.Enqueue(ctx, models.ProcessingMessage{ID: "r1"})
	require.NoError(t, err)

	causes := make(chan error, 1)
	go func() {
		_ = ch.Consume(ctx, func(hctx context.Context, _ models.ProcessingMessage) error {
			<-hctx.Done()
			select {
			case causes <- context.Cause(hctx):
			default:
			}
			return hctx.Err()
		})
	}()

	select {
	case cause := <-causes:
		assert.ErrorIs(t, cause, errReceiptLost)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not cancelled")
	}
	assert.Equal(t, 1, storage.Len("requests"), "message is neither acknowledged nor released")
}

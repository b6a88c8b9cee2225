package store

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryQueueEntry struct {
	id         string
	seq        uint64
	payload    []byte
	visibleAt  time.Time
	receipt    string
	deliveries int
}

// MemoryQueueStorage is an in-process [QueueStorage]. Entries do not survive
// a restart. Push additionally signals local waiters through [MemoryQueueStorage.Notify].
type MemoryQueueStorage struct {
	mu     sync.Mutex
	seq    uint64
	queues map[string][]*memoryQueueEntry
	notify map[string]chan struct{}
	now    func() time.Time
}

// NewMemoryQueueStorage returns an empty queue storage.
func NewMemoryQueueStorage() *MemoryQueueStorage {
	return &MemoryQueueStorage{
		queues: make(map[string][]*memoryQueueEntry),
		notify: make(map[string]chan struct{}),
		now:    time.Now,
	}
}

// Notify returns a channel that receives a value after a push to queue.
// The signal is a hint for same-process waiters only; it is coalesced and
// may be missed, so receivers must keep polling.
func (m *MemoryQueueStorage) Notify(queue string) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifyLocked(queue)
}

func (m *MemoryQueueStorage) notifyLocked(queue string) chan struct{} {
	ch, ok := m.notify[queue]
	if !ok {
		ch = make(chan struct{}, 1)
		m.notify[queue] = ch
	}
	return ch
}

func (m *MemoryQueueStorage) Push(_ context.Context, queue string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	e := &memoryQueueEntry{
		id:        strconv.FormatUint(m.seq, 10),
		seq:       m.seq,
		payload:   slices.Clone(payload),
		visibleAt: m.now(),
	}
	m.queues[queue] = append(m.queues[queue], e)

	select {
	case m.notifyLocked(queue) <- struct{}{}:
	default:
	}

	return e.id, nil
}

func (m *MemoryQueueStorage) Receive(_ context.Context, queue string, visibility time.Duration) (QueueEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, e := range m.queues[queue] {
		if e.visibleAt.After(now) {
			continue
		}
		e.receipt = uuid.NewString()
		e.visibleAt = now.Add(visibility)
		e.deliveries++

		return QueueEntry{
			ID:         e.id,
			Payload:    slices.Clone(e.payload),
			Receipt:    e.receipt,
			Deliveries: e.deliveries,
		}, true, nil
	}

	return QueueEntry{}, false, nil
}

func (m *MemoryQueueStorage) Delete(_ context.Context, queue, id, receipt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.queues[queue]
	i := m.indexLocked(entries, id, receipt)
	if i < 0 {
		return ErrStaleReceipt
	}
	m.queues[queue] = slices.Delete(entries, i, i+1)
	return nil
}

func (m *MemoryQueueStorage) Release(_ context.Context, queue, id, receipt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.queues[queue]
	i := m.indexLocked(entries, id, receipt)
	if i < 0 {
		return ErrStaleReceipt
	}
	entries[i].receipt = ""
	entries[i].visibleAt = m.now()

	select {
	case m.notifyLocked(queue) <- struct{}{}:
	default:
	}
	return nil
}

func (m *MemoryQueueStorage) Extend(_ context.Context, queue, id, receipt string, visibility time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.queues[queue]
	i := m.indexLocked(entries, id, receipt)
	if i < 0 {
		return ErrStaleReceipt
	}
	entries[i].visibleAt = m.now().Add(visibility)
	return nil
}

// Len returns the number of entries in queue, visible or not.
func (m *MemoryQueueStorage) Len(queue string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[queue])
}

func (m *MemoryQueueStorage) indexLocked(entries []*memoryQueueEntry, id, receipt string) int {
	return slices.IndexFunc(entries, func(e *memoryQueueEntry) bool {
		return e.id == id && e.receipt != "" && e.receipt == receipt
	})
}

// Package queue implements typed message channels over a durable
// [store.QueueStorage].
//
// Delivery is at-least-once: a consumer receives a [Delivery], handles it and
// only then acknowledges it. While [Channel.Consume] runs a handler it keeps
// extending the message's visibility; a delivery nobody extends or settles
// becomes visible again after the visibility timeout, so a crashed
// consumer's messages are picked up by another one.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/internal/codec"
	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/store"
)

// errReceiptLost cancels a handler whose message was handed to another
// consumer.
var errReceiptLost = errors.New("queue receipt lost")

// Notifier is implemented by queue storages that can wake up same-process
// waiters after a push.
type Notifier interface {
	Notify(queue string) <-chan struct{}
}

// Channel is a named, typed queue.
type Channel[T any] struct {
	name       string
	storage    store.QueueStorage
	codec      codec.Codec[T]
	poll       time.Duration
	visibility time.Duration
	notify     <-chan struct{}
	logger     *logger.Logger
}

// NewChannel returns a channel reading and writing the queue called name.
func NewChannel[T any](name string, storage store.QueueStorage, c codec.Codec[T], cfg config.Queue, log *logger.Logger) *Channel[T] {
	ch := &Channel[T]{
		name:       name,
		storage:    storage,
		codec:      c,
		poll:       cfg.PollInterval,
		visibility: cfg.VisibilityTimeout,
		logger:     log.WithStr("queue", name),
	}
	if ch.poll <= 0 {
		ch.poll = config.DefaultPollInterval
	}
	if ch.visibility <= 0 {
		ch.visibility = config.DefaultVisibilityTimeout
	}
	if n, ok := storage.(Notifier); ok {
		ch.notify = n.Notify(name)
	}
	return ch
}

// Name returns the underlying queue name.
func (c *Channel[T]) Name() string {
	return c.name
}

// Enqueue encodes msg and appends it to the queue.
func (c *Channel[T]) Enqueue(ctx context.Context, msg T) (string, error) {
	payload, err := c.codec.Encode(msg)
	if err != nil {
		return "", fmt.Errorf("%w: %w", app.ErrChannelDeliveryFailure, err)
	}

	id, err := c.storage.Push(ctx, c.name, payload)
	if err != nil {
		return "", fmt.Errorf("%w: %w", app.ErrChannelDeliveryFailure, err)
	}

	c.logger.Debug().Str("entry_id", id).Msg("message enqueued")
	return id, nil
}

// TryDequeue polls the queue once. ok is false when no message is visible.
//
// A payload that does not decode is deleted from the queue and reported as
// [app.ErrChannelDeliveryFailure]; it would fail the same way on every
// redelivery.
func (c *Channel[T]) TryDequeue(ctx context.Context) (*Delivery[T], bool, error) {
	entry, ok, err := c.storage.Receive(ctx, c.name, c.visibility)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", app.ErrChannelDeliveryFailure, err)
	}
	if !ok {
		return nil, false, nil
	}

	msg, err := c.codec.Decode(entry.Payload)
	if err != nil {
		c.logger.Error().Err(err).
			Str("entry_id", entry.ID).
			Str("payload", codec.Diagnose(entry.Payload)).
			Msg("dropping undecodable message")
		if delErr := c.storage.Delete(ctx, c.name, entry.ID, entry.Receipt); delErr != nil {
			c.logger.Err(delErr).Str("entry_id", entry.ID).Msg("error dropping undecodable message")
		}
		return nil, false, fmt.Errorf("%w: %w", app.ErrChannelDeliveryFailure, err)
	}

	return &Delivery[T]{
		Message:    msg,
		ID:         entry.ID,
		Deliveries: entry.Deliveries,
		receipt:    entry.Receipt,
		channel:    c,
	}, true, nil
}

// Dequeue blocks until a message is visible or ctx is done. Between polls it
// waits for the poll interval or a local push notification, whichever comes
// first.
func (c *Channel[T]) Dequeue(ctx context.Context) (*Delivery[T], error) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		d, ok, err := c.TryDequeue(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			return d, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		case <-c.notify:
		}
	}
}

// Handler processes one message. Returning an error releases the message for
// redelivery.
type Handler[T any] func(ctx context.Context, msg T) error

// Consume dequeues and handles messages until ctx is cancelled. A message is
// acknowledged only after handler returned nil. While the handler runs the
// message's visibility is extended every third of the visibility timeout; if
// the receipt is lost anyway the handler's context is cancelled and the
// message is left to its new consumer.
func (c *Channel[T]) Consume(ctx context.Context, handler Handler[T]) error {
	for {
		d, err := c.Dequeue(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, app.ErrChannelDeliveryFailure):
			c.logger.Err(err).Msg("dequeue failed")
			if !sleep(ctx, c.poll) {
				return nil
			}
			continue
		case err != nil:
			return err
		}

		log := c.logger.WithStr("entry_id", d.ID)
		lost, err := c.handle(ctx, d, handler)
		if lost {
			log.Warn().Err(err).Int("deliveries", d.Deliveries).Msg("receipt lost while handling, message left to its new consumer")
			continue
		}
		if err != nil {
			log.Err(err).Int("deliveries", d.Deliveries).Msg("handler failed, releasing message")
			if nackErr := d.Nack(context.WithoutCancel(ctx)); nackErr != nil {
				log.Err(nackErr).Msg("error releasing message")
			}
			continue
		}

		if err = d.Ack(context.WithoutCancel(ctx)); err != nil {
			log.Err(err).Msg("error acknowledging message")
		}
	}
}

// handle runs handler under a keep-alive that extends d's visibility. lost
// reports that the receipt went stale before the handler finished.
func (c *Channel[T]) handle(ctx context.Context, d *Delivery[T], handler Handler[T]) (lost bool, err error) {
	hctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.keepAlive(hctx, d, done, cancel)
	}()

	err = handler(hctx, d.Message)
	close(done)
	wg.Wait()

	return errors.Is(context.Cause(hctx), errReceiptLost), err
}

func (c *Channel[T]) keepAlive(ctx context.Context, d *Delivery[T], done <-chan struct{}, cancel context.CancelCauseFunc) {
	interval := c.visibility / 3
	if interval <= 0 {
		interval = c.visibility
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		err := d.Extend(ctx)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrStaleReceipt):
			cancel(errReceiptLost)
			return
		case ctx.Err() == nil:
			c.logger.Err(err).Str("entry_id", d.ID).Msg("error extending visibility")
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

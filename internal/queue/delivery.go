package queue

import (
	"context"
	"fmt"
)

// Delivery is one received message together with the receipt needed to
// settle it.
type Delivery[T any] struct {
	Message T
	// ID is the storage entry ID. It stays the same across redeliveries.
	ID string
	// Deliveries counts how often the entry was received, this one included.
	Deliveries int

	receipt string
	channel *Channel[T]
}

// Ack deletes the message. It fails with [store.ErrStaleReceipt] if the
// visibility timeout expired and the message was handed to another consumer.
func (d *Delivery[T]) Ack(ctx context.Context) error {
	if err := d.channel.storage.Delete(ctx, d.channel.name, d.ID, d.receipt); err != nil {
		return fmt.Errorf("ack %s: %w", d.ID, err)
	}
	return nil
}

// Nack makes the message visible again immediately.
func (d *Delivery[T]) Nack(ctx context.Context) error {
	if err := d.channel.storage.Release(ctx, d.channel.name, d.ID, d.receipt); err != nil {
		return fmt.Errorf("nack %s: %w", d.ID, err)
	}
	return nil
}

// Extend hides the message for another visibility timeout, counted from now.
// It fails with [store.ErrStaleReceipt] once the message was handed to
// another consumer.
func (d *Delivery[T]) Extend(ctx context.Context) error {
	if err := d.channel.storage.Extend(ctx, d.channel.name, d.ID, d.receipt, d.channel.visibility); err != nil {
		return fmt.Errorf("extend %s: %w", d.ID, err)
	}
	return nil
}

// Package services orchestrates domain operations across storage, FX
// resolution and event publishing.
package services

import "context"

// RateResolver converts between currencies. Satisfied by *fx.Resolver.
type RateResolver interface {
	Resolve(ctx context.Context, from, to string) (date string, rate float64, err error)
}

// SyncPublisher announces a new expense row to the sheets worker.
// Satisfied by *amqp.Client.
type SyncPublisher interface {
	PublishExpenseSync(ctx context.Context, id, userID int64) error
}

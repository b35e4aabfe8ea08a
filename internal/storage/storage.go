// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"dmhy/internal/model"
)

// Storage is the persistence medium behind the subscription database.
type Storage interface {
	// LoadSubscriptions returns every stored subscription in saved order.
	LoadSubscriptions(ctx context.Context) ([]model.Subscription, error)
	// ReplaceSubscriptions atomically overwrites the stored sequence.
	ReplaceSubscriptions(ctx context.Context, subs []model.Subscription) error

	MarkSeen(ctx context.Context, subscriptionID, key string) error
	IsSeen(ctx context.Context, subscriptionID, key string) (bool, error)

	Close() error
}

// Package database holds the ordered, in-memory subscription store and its
// single durability boundary, Save.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"dmhy/internal/model"
	"dmhy/internal/storage"
)

// ErrPersistence wraps failures to write the store back to its medium.
var ErrPersistence = errors.New("persist subscriptions")

// Database is the ordered subscription store. It is not safe for concurrent
// use; one invocation owns it.
type Database struct {
	store   storage.Storage
	log     *slog.Logger
	entries []model.Subscription
}

// Open loads the stored subscriptions. A load failure is logged and yields an
// empty database.
func Open(ctx context.Context, store storage.Storage, log *slog.Logger) *Database {
	d := &Database{store: store, log: log, entries: []model.Subscription{}}

	subs, err := store.LoadSubscriptions(ctx)
	if err != nil {
		log.Warn("load subscriptions, starting empty", "error", err)
		return d
	}
	d.entries = subs
	log.Debug("loaded subscriptions", "count", len(subs))
	return d
}

// Find returns the first stored subscription that is the same as candidate.
func (d *Database) Find(candidate model.Subscription) (model.Subscription, bool) {
	for _, e := range d.entries {
		if model.Same(e, candidate) {
			return e.Clone(), true
		}
	}
	return model.Subscription{}, false
}

// Add appends sub without checking for duplicates and returns the stored
// copy. A fresh ID is assigned when sub has none or its ID is already taken.
func (d *Database) Add(sub model.Subscription) model.Subscription {
	sub = sub.Clone()
	if sub.ID == "" || d.index(sub.ID) >= 0 {
		sub.ID = uuid.NewString()
	}
	d.entries = append(d.entries, sub)
	return sub.Clone()
}

// Remove deletes the subscription with the given ID.
func (d *Database) Remove(id string) bool {
	i := d.index(id)
	if i < 0 {
		return false
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	return true
}

// Get returns the subscription with the given ID.
func (d *Database) Get(id string) (model.Subscription, bool) {
	i := d.index(id)
	if i < 0 {
		return model.Subscription{}, false
	}
	return d.entries[i].Clone(), true
}

// All returns a copy of the stored subscriptions in order.
func (d *Database) All() []model.Subscription {
	out := make([]model.Subscription, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e.Clone())
	}
	return out
}

// Len returns the number of stored subscriptions.
func (d *Database) Len() int {
	return len(d.entries)
}

// Save overwrites the persisted sequence with the current entries.
func (d *Database) Save(ctx context.Context) error {
	if err := d.store.ReplaceSubscriptions(ctx, d.entries); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	d.log.Debug("saved subscriptions", "count", len(d.entries))
	return nil
}

func (d *Database) index(id string) int {
	for i, e := range d.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

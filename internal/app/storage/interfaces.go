// Package storage declares the persistence interfaces the storefront core
// depends on. Implementations live in subpackages; nil stores default to the
// in-memory implementation.
package storage

import (
	"context"
	"errors"

	"github.com/squadbid/storefront/internal/app/domain/agent"
	"github.com/squadbid/storefront/internal/app/domain/checkout"
	"github.com/squadbid/storefront/internal/app/domain/session"
)

// ErrNotFound is returned when a requested record does not exist. A missing
// session or collection-point selection is an expected state, not a fault.
var ErrNotFound = errors.New("record not found")

// SessionStore persists the customer's authenticated session.
type SessionStore interface {
	SaveSession(ctx context.Context, sess session.Session) error
	GetSession(ctx context.Context) (session.Session, error)
	DeleteSession(ctx context.Context) error
}

// SelectionStore persists the customer's chosen collection point.
type SelectionStore interface {
	SaveSelection(ctx context.Context, sel agent.Selection) error
	GetSelection(ctx context.Context) (agent.Selection, error)
}

// CheckoutJournal records every checkout attempt and its terminal outcome.
// It exists so captured-payment/failed-order attempts survive a crash and can
// be reconciled later.
type CheckoutJournal interface {
	CreateRecord(ctx context.Context, rec checkout.Record) (checkout.Record, error)
	UpdateRecord(ctx context.Context, rec checkout.Record) (checkout.Record, error)
	GetRecord(ctx context.Context, id string) (checkout.Record, error)
	ListRecords(ctx context.Context) ([]checkout.Record, error)
	ListUnreconciled(ctx context.Context) ([]checkout.Record, error)
}

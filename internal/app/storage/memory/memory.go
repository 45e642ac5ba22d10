package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/squadbid/storefront/internal/app/domain/agent"
	"github.com/squadbid/storefront/internal/app/domain/checkout"
	"github.com/squadbid/storefront/internal/app/domain/order"
	"github.com/squadbid/storefront/internal/app/domain/session"
	"github.com/squadbid/storefront/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is the default backing for the embedded client and
// for tests.
type Store struct {
	mu        sync.RWMutex
	nextID    int64
	sess      session.Session
	hasSess   bool
	selection agent.Selection
	hasSel    bool
	records   map[string]checkout.Record
	recordIDs []string
}

var _ storage.SessionStore = (*Store)(nil)
var _ storage.SelectionStore = (*Store)(nil)
var _ storage.CheckoutJournal = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:  1,
		records: make(map[string]checkout.Record),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// SessionStore implementation ------------------------------------------------

func (s *Store) SaveSession(_ context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = sess
	s.hasSess = true
	return nil
}

func (s *Store) GetSession(_ context.Context) (session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasSess {
		return session.Session{}, storage.ErrNotFound
	}
	return s.sess, nil
}

func (s *Store) DeleteSession(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = session.Session{}
	s.hasSess = false
	return nil
}

// SelectionStore implementation ----------------------------------------------

func (s *Store) SaveSelection(_ context.Context, sel agent.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = sel
	s.hasSel = true
	return nil
}

func (s *Store) GetSelection(_ context.Context) (agent.Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasSel {
		return agent.Selection{}, storage.ErrNotFound
	}
	return s.selection, nil
}

// CheckoutJournal implementation ---------------------------------------------

func (s *Store) CreateRecord(_ context.Context, rec checkout.Record) (checkout.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = s.nextIDLocked()
	} else if _, exists := s.records[rec.ID]; exists {
		return checkout.Record{}, fmt.Errorf("checkout record %s already exists", rec.ID)
	}

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.Items = cloneItems(rec.Items)

	s.records[rec.ID] = rec
	s.recordIDs = append(s.recordIDs, rec.ID)
	return cloneRecord(rec), nil
}

func (s *Store) UpdateRecord(_ context.Context, rec checkout.Record) (checkout.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.records[rec.ID]
	if !ok {
		return checkout.Record{}, fmt.Errorf("checkout record %s not found", rec.ID)
	}

	rec.CreatedAt = original.CreatedAt
	rec.UpdatedAt = time.Now().UTC()
	rec.Items = cloneItems(rec.Items)

	s.records[rec.ID] = rec
	return cloneRecord(rec), nil
}

func (s *Store) GetRecord(_ context.Context, id string) (checkout.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return checkout.Record{}, fmt.Errorf("checkout record %s not found", id)
	}
	return cloneRecord(rec), nil
}

func (s *Store) ListRecords(_ context.Context) ([]checkout.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]checkout.Record, 0, len(s.recordIDs))
	for _, id := range s.recordIDs {
		result = append(result, cloneRecord(s.records[id]))
	}
	return result, nil
}

func (s *Store) ListUnreconciled(_ context.Context) ([]checkout.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]checkout.Record, 0)
	for _, id := range s.recordIDs {
		if rec := s.records[id]; rec.NeedsReconciliation() {
			result = append(result, cloneRecord(rec))
		}
	}
	return result, nil
}

// Helpers --------------------------------------------------------------------

func cloneItems(items []order.Item) []order.Item {
	if len(items) == 0 {
		return nil
	}
	return append([]order.Item(nil), items...)
}

func cloneRecord(rec checkout.Record) checkout.Record {
	rec.Items = cloneItems(rec.Items)
	return rec
}

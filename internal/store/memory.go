package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Tcordeir0/vpsurge-fin/internal/core"
)

// MemoryStore keeps transactions in process memory. It backs the default
// backend and the tests.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]core.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, rows: make(map[int64]core.Transaction)}
}

func (m *MemoryStore) ListByOwner(_ context.Context, owner string) ([]core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := []core.Transaction{}
	for _, t := range m.rows {
		if t.Owner == owner {
			list = append(list, t)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		di, dj := list[i].EffectiveDate(), list[j].EffectiveDate()
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (m *MemoryStore) Insert(_ context.Context, t core.Transaction) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t.ID = m.nextID
	m.nextID++
	t.CreatedAt = time.Now().UTC()
	m.rows[t.ID] = t
	return t, nil
}

func (m *MemoryStore) Update(_ context.Context, owner string, id int64, fields UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.rows[id]
	if !ok || t.Owner != owner {
		return ErrNotFound
	}
	if fields.Amount != nil {
		t.Amount = *fields.Amount
	}
	if fields.Kind != nil {
		t.Kind = *fields.Kind
	}
	if fields.OccurredAt != nil {
		t.OccurredAt = *fields.OccurredAt
	}
	if fields.Description != nil {
		t.Description = *fields.Description
	}
	if fields.Counterparty != nil {
		t.Counterparty = *fields.Counterparty
	}
	if fields.Category != nil {
		t.Category = *fields.Category
	}
	m.rows[id] = t
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, owner string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.rows[id]
	if !ok || t.Owner != owner {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id int64) (core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.rows[id]
	if !ok {
		return core.Transaction{}, ErrNotFound
	}
	return t, nil
}

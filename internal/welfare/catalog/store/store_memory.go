package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"welfarehub/internal/welfare/models"
	id "welfarehub/pkg/domain"
	"welfarehub/pkg/platform/sentinel"
)

type sourceKey struct {
	sourceID string
	scope    models.ServiceScope
}

type memoryEntry struct {
	record *models.BenefitRecord
	hash   string
}

// InMemoryStore is the catalog store used in tests and when no database is
// configured.
type InMemoryStore struct {
	mu    sync.RWMutex
	byKey map[sourceKey]*memoryEntry
	byID  map[id.BenefitID]sourceKey
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byKey: make(map[sourceKey]*memoryEntry),
		byID:  make(map[id.BenefitID]sourceKey),
	}
}

func (s *InMemoryStore) Upsert(_ context.Context, rec *models.BenefitRecord, now time.Time) (UpsertOutcome, error) {
	hash := rec.ContentHash()
	key := sourceKey{sourceID: rec.SourceID, scope: rec.ServiceScope}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byKey[key]
	if !ok {
		stored := rec.Clone()
		if stored.ID.IsNil() {
			stored.ID = id.NewBenefitID()
		}
		stored.Status = models.StatusActive
		stored.CreatedAt = now
		stored.UpdatedAt = now
		stored.LastSyncedAt = now
		s.byKey[key] = &memoryEntry{record: stored, hash: hash}
		s.byID[stored.ID] = key
		return OutcomeInserted, nil
	}

	if existing.hash == hash && existing.record.IsActive() {
		existing.record.LastSyncedAt = now
		return OutcomeUnchanged, nil
	}

	stored := rec.Clone()
	stored.ID = existing.record.ID
	stored.CreatedAt = existing.record.CreatedAt
	stored.Status = models.StatusActive
	stored.UpdatedAt = now
	stored.LastSyncedAt = now
	existing.record = stored
	existing.hash = hash
	return OutcomeUpdated, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, benefitID id.BenefitID) (*models.BenefitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.byID[benefitID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byKey[key].record.Clone(), nil
}

func (s *InMemoryStore) FindBySourceKey(_ context.Context, sourceID string, scope models.ServiceScope) (*models.BenefitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.byKey[sourceKey{sourceID: sourceID, scope: scope}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return entry.record.Clone(), nil
}

// ListActive returns active records ordered by ID for stable iteration.
func (s *InMemoryStore) ListActive(_ context.Context) ([]*models.BenefitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.BenefitRecord, 0, len(s.byKey))
	for _, entry := range s.byKey {
		if entry.record.IsActive() {
			out = append(out, entry.record.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *InMemoryStore) MarkUnseen(_ context.Context, filter UnseenFilter, seenSince, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, entry := range s.byKey {
		rec := entry.record
		if rec.IsActive() && filter.matches(rec) && rec.LastSyncedAt.Before(seenSince) {
			rec.Status = models.StatusStale
			rec.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) DeactivateStaleBefore(_ context.Context, cutoff, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, entry := range s.byKey {
		rec := entry.record
		if rec.IsActive() && rec.LastSyncedAt.Before(cutoff) {
			rec.Status = models.StatusStale
			rec.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

// Count returns the number of records in every status.
func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey), nil
}

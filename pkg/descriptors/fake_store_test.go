package descriptors

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mesh-intelligence/holons/pkg/types"
)

// fakeStore is an in-memory types.Store that counts calls and can tamper
// with reads or fail writes.
type fakeStore struct {
	mu       sync.Mutex
	seq      uint64
	records  map[types.ActionHash]types.Record
	latest   map[types.ActionHash]types.ActionHash // original → latest revision
	deleted  map[types.ActionHash]bool             // original → tombstoned
	order    []types.ActionHash                    // originals in creation order
	creates  int
	updates  int
	tamper   func(types.Record) types.Record
	createFn func(entryType string) error
}

var _ types.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[types.ActionHash]types.Record),
		latest:  make(map[types.ActionHash]types.ActionHash),
		deleted: make(map[types.ActionHash]bool),
	}
}

func (s *fakeStore) Create(_ context.Context, entryType string, entry []byte) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createFn != nil {
		if err := s.createFn(entryType); err != nil {
			return types.Record{}, err
		}
	}
	if _, ok := types.IndexFor(entryType); !ok || !json.Valid(entry) {
		return types.Record{}, types.ErrInvalidData
	}
	s.seq++
	now := time.Now().UTC()
	hash := types.ComputeActionHash(entryType, entry, types.ActionHash{}, s.seq, now)
	rec := types.Record{ActionHash: hash, EntryType: entryType, Entry: append(json.RawMessage(nil), entry...), OriginalHash: hash, CreatedAt: now}
	s.records[hash] = rec
	s.latest[hash] = hash
	s.order = append(s.order, hash)
	return rec, nil
}

func (s *fakeStore) Get(_ context.Context, hash types.ActionHash) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.latestLocked(hash)
	if err != nil {
		return types.Record{}, err
	}
	if s.tamper != nil {
		rec = s.tamper(rec)
	}
	return rec, nil
}

func (s *fakeStore) latestLocked(hash types.ActionHash) (types.Record, error) {
	rec, ok := s.records[hash]
	if !ok || s.deleted[rec.OriginalHash] {
		return types.Record{}, types.ErrNotFound
	}
	return s.records[s.latest[rec.OriginalHash]], nil
}

func (s *fakeStore) Update(_ context.Context, original, previous types.ActionHash, entry []byte) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	orig, ok := s.records[original]
	if !ok || s.deleted[orig.OriginalHash] {
		return types.Record{}, types.ErrNotFound
	}
	if s.latest[orig.OriginalHash] != previous {
		return types.Record{}, types.ErrConflict
	}
	s.seq++
	now := time.Now().UTC()
	hash := types.ComputeActionHash(orig.EntryType, entry, previous, s.seq, now)
	rec := types.Record{
		ActionHash:   hash,
		EntryType:    orig.EntryType,
		Entry:        append(json.RawMessage(nil), entry...),
		OriginalHash: orig.OriginalHash,
		PreviousHash: previous,
		CreatedAt:    now,
	}
	s.records[hash] = rec
	s.latest[orig.OriginalHash] = hash
	return rec, nil
}

func (s *fakeStore) Delete(_ context.Context, hash types.ActionHash) (types.ActionHash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.latestLocked(hash)
	if err != nil {
		return types.ActionHash{}, err
	}
	s.deleted[rec.OriginalHash] = true
	s.seq++
	return types.ComputeActionHash("Delete", nil, rec.ActionHash, s.seq, time.Now()), nil
}

func (s *fakeStore) GetAll(_ context.Context, index string) ([]types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !types.IsIndex(index) {
		return nil, types.ErrIndexNotFound
	}
	var out []types.Record
	for _, original := range s.order {
		rec := s.records[original]
		if idx, _ := types.IndexFor(rec.EntryType); idx != index || s.deleted[original] {
			continue
		}
		out = append(out, s.records[s.latest[original]])
	}
	return out, nil
}

func (s *fakeStore) createCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates
}

package cachedstore

import (
	"context"
	"errors"
	"testing"

	"github.com/discochess/omfile/internal/store"
	"github.com/discochess/omfile/internal/store/cachedstore/cachestrategy"
)

// fakeBackend is a simple in-memory backend for testing.
type fakeBackend struct {
	data   map[cachestrategy.Key][]byte
	hits   int64
	misses int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: make(map[cachestrategy.Key][]byte)}
}

func (b *fakeBackend) Get(key cachestrategy.Key) ([]byte, bool) {
	if data, ok := b.data[key]; ok {
		b.hits++
		return data, true
	}
	b.misses++
	return nil, false
}

func (b *fakeBackend) Set(key cachestrategy.Key, data []byte) {
	b.data[key] = data
}

func (b *fakeBackend) Stats() Stats {
	return Stats{Hits: b.hits, Misses: b.misses, Size: len(b.data)}
}

// fakeStore records every range read.
type fakeStore struct {
	data  map[string][]byte
	reads [][2]uint64
	sizes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (s *fakeStore) Size(ctx context.Context, name string) (uint64, error) {
	s.sizes++
	if data, ok := s.data[name]; ok {
		return uint64(len(data)), nil
	}
	return 0, store.ErrNotFound
}

func (s *fakeStore) ReadRange(ctx context.Context, name string, offset, length uint64) ([]byte, error) {
	data, ok := s.data[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	if err := store.CheckRange(uint64(len(data)), offset, length); err != nil {
		return nil, err
	}
	s.reads = append(s.reads, [2]uint64{offset, length})
	return append([]byte(nil), data[offset:offset+length]...), nil
}

func (s *fakeStore) Close() error {
	return nil
}

const alphabet = "abcdefghijklmnopqrstuvwxyz"

func TestStore_ReadRange(t *testing.T) {
	underlying := newFakeStore()
	underlying.data["a.om"] = []byte(alphabet)
	s, err := New(underlying, newFakeBackend(), 4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		offset, length uint64
	}{
		{0, 26},
		{3, 2},
		{5, 10},
		{24, 2},
		{25, 1},
		{26, 0},
	}
	for _, tt := range tests {
		got, err := s.ReadRange(ctx, "a.om", tt.offset, tt.length)
		if err != nil {
			t.Fatalf("ReadRange(%d, %d) error = %v", tt.offset, tt.length, err)
		}
		if want := alphabet[tt.offset : tt.offset+tt.length]; string(got) != want {
			t.Errorf("ReadRange(%d, %d) = %q, want %q", tt.offset, tt.length, got, want)
		}
	}

	// Only the first read reaches the underlying store, as one merged read.
	if len(underlying.reads) != 1 || underlying.reads[0] != [2]uint64{0, 26} {
		t.Errorf("underlying reads = %v, want [[0 26]]", underlying.reads)
	}
	if underlying.sizes != 1 {
		t.Errorf("underlying Size() calls = %d, want 1", underlying.sizes)
	}
}

func TestStore_PartialCache(t *testing.T) {
	underlying := newFakeStore()
	underlying.data["a.om"] = []byte(alphabet)
	s, err := New(underlying, newFakeBackend(), 4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	// Cache block 2 ("ijkl") only.
	if _, err := s.ReadRange(ctx, "a.om", 8, 4); err != nil {
		t.Fatalf("ReadRange() error = %v", err)
	}
	got, err := s.ReadRange(ctx, "a.om", 2, 16)
	if err != nil {
		t.Fatalf("ReadRange() error = %v", err)
	}
	if want := alphabet[2:18]; string(got) != want {
		t.Errorf("ReadRange() = %q, want %q", got, want)
	}

	want := [][2]uint64{{8, 4}, {0, 8}, {12, 8}}
	if len(underlying.reads) != len(want) {
		t.Fatalf("underlying reads = %v, want %v", underlying.reads, want)
	}
	for i := range want {
		if underlying.reads[i] != want[i] {
			t.Errorf("read %d = %v, want %v", i, underlying.reads[i], want[i])
		}
	}
	if st := s.Stats(); st.Hits != 1 {
		t.Errorf("Stats().Hits = %d, want 1", st.Hits)
	}
}

func TestStore_Errors(t *testing.T) {
	s, err := New(newFakeStore(), newFakeBackend(), 4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if _, err := s.ReadRange(ctx, "missing.om", 0, 1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ReadRange() error = %v, want ErrNotFound", err)
	}

	underlying := newFakeStore()
	underlying.data["a.om"] = []byte("abc")
	s, _ = New(underlying, newFakeBackend(), 4)
	if _, err := s.ReadRange(ctx, "a.om", 2, 2); !errors.Is(err, store.ErrOutOfRange) {
		t.Errorf("ReadRange() error = %v, want ErrOutOfRange", err)
	}

	if _, err := New(underlying, newFakeBackend(), 0); !errors.Is(err, ErrInvalidBlockSize) {
		t.Errorf("New() error = %v, want ErrInvalidBlockSize", err)
	}
}

func TestStats_HitRate(t *testing.T) {
	tests := []struct {
		name     string
		hits     int64
		misses   int64
		expected float64
	}{
		{"no requests", 0, 0, 0},
		{"all hits", 10, 0, 100},
		{"all misses", 0, 10, 0},
		{"50% hit rate", 5, 5, 50},
		{"75% hit rate", 3, 1, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Stats{Hits: tt.hits, Misses: tt.misses}
			if got := s.HitRate(); got != tt.expected {
				t.Errorf("HitRate() = %v, want %v", got, tt.expected)
			}
		})
	}
}

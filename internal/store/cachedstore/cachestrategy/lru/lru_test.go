package lru

import (
	"testing"

	"github.com/discochess/omfile/internal/store/cachedstore/cachestrategy"
)

func TestStrategy_Evicts(t *testing.T) {
	s, err := New(2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	a := cachestrategy.Key{Name: "a.om", Block: 0}
	b := cachestrategy.Key{Name: "a.om", Block: 1}
	c := cachestrategy.Key{Name: "b.om", Block: 0}

	s.Add(a, []byte("a"))
	s.Add(b, []byte("b"))
	s.Get(a)
	if evicted := s.Add(c, []byte("c")); !evicted {
		t.Error("Add() evicted = false, want true")
	}

	if _, ok := s.Get(b); ok {
		t.Error("least recently used block should have been evicted")
	}
	if got, ok := s.Get(a); !ok || string(got) != "a" {
		t.Errorf("Get(a) = %q, %v", got, ok)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestNew_InvalidCapacity(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("New(0) expected error, got nil")
	}
}

package store

import (
	"errors"
	"testing"
)

func TestCheckRange(t *testing.T) {
	tests := []struct {
		size, offset, length uint64
		wantErr              bool
	}{
		{10, 0, 10, false},
		{10, 10, 0, false},
		{10, 5, 6, true},
		{10, 11, 0, true},
		{10, 1, ^uint64(0), true},
	}
	for _, tt := range tests {
		err := CheckRange(tt.size, tt.offset, tt.length)
		if (err != nil) != tt.wantErr {
			t.Errorf("CheckRange(%d, %d, %d) error = %v, wantErr %v", tt.size, tt.offset, tt.length, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrOutOfRange) {
			t.Errorf("CheckRange() error = %v, want ErrOutOfRange", err)
		}
	}
}

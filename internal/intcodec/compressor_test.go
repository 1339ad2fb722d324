package intcodec

import (
	"slices"
	"testing"
)

func TestCompressor_Lifecycle(t *testing.T) {
	c := New(0)
	if c.Capacity() != DefaultCapacity {
		t.Errorf("Capacity() = %d, want %d", c.Capacity(), DefaultCapacity)
	}
	if got := c.Compress(); got != 0 {
		t.Errorf("Compress() before SetData = %d, want 0", got)
	}
	if c.Decompress(make([]uint16, 1)) {
		t.Error("Decompress() before Compress = true, want false")
	}

	in := []uint16{10, 20, 30, 40, 50}
	if !c.SetData(in) {
		t.Fatal("SetData() = false")
	}
	if c.Len() != 5 {
		t.Errorf("Len() = %d, want 5", c.Len())
	}
	size := c.Compress()
	if size <= 0 {
		t.Fatalf("Compress() = %d, want > 0", size)
	}
	if len(c.Compressed()) != size {
		t.Errorf("len(Compressed()) = %d, want %d", len(c.Compressed()), size)
	}

	for i := 0; i < 2; i++ {
		out := make([]uint16, 5)
		if !c.Decompress(out) {
			t.Fatalf("Decompress() #%d = false", i)
		}
		if !slices.Equal(out, in) {
			t.Errorf("Decompress() #%d = %v, want %v", i, out, in)
		}
	}

	prefix := make([]uint16, 3)
	if !c.Decompress(prefix) || !slices.Equal(prefix, in[:3]) {
		t.Errorf("Decompress() prefix = %v, want %v", prefix, in[:3])
	}
	if c.Decompress(make([]uint16, 6)) {
		t.Error("Decompress() past stored count = true, want false")
	}
}

func TestCompressor_Capacity(t *testing.T) {
	c := New(4)
	if c.SetData(make([]uint16, 5)) {
		t.Error("SetData() over capacity = true, want false")
	}
	if !c.SetData(make([]uint16, 4)) {
		t.Error("SetData() at capacity = false, want true")
	}
}

func TestCompressor_SetDataResetsOutput(t *testing.T) {
	c := New(16)
	c.SetData([]uint16{1, 2, 3})
	c.Compress()
	c.SetData([]uint16{9})
	if len(c.Compressed()) != 0 {
		t.Errorf("Compressed() after SetData = %d bytes, want 0", len(c.Compressed()))
	}
	if c.Decompress(make([]uint16, 1)) {
		t.Error("Decompress() after SetData without Compress = true, want false")
	}
}

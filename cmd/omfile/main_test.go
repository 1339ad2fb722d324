package main

import (
	"math"
	"slices"
	"testing"

	"github.com/discochess/omfile"
	"github.com/discochess/omfile/internal/builder"
)

func TestParseUints(t *testing.T) {
	tests := []struct {
		in      string
		want    []uint64
		wantErr bool
	}{
		{"", nil, false},
		{"24", []uint64{24}, false},
		{"24,721,1440", []uint64{24, 721, 1440}, false},
		{"6, 32 ,32", []uint64{6, 32, 32}, false},
		{"6,,32", nil, true},
		{"-1", nil, true},
		{"a,b", nil, true},
	}
	for _, tt := range tests {
		got, err := parseUints(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseUints(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("parseUints(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseRanges(t *testing.T) {
	got, err := parseRanges("0,100", "1,110")
	if err != nil {
		t.Fatalf("parseRanges() error = %v", err)
	}
	want := []omfile.Range{{Start: 0, End: 1}, {Start: 100, End: 110}}
	if !slices.Equal(got, want) {
		t.Errorf("parseRanges() = %v, want %v", got, want)
	}

	if _, err := parseRanges("0,0", "1"); err == nil {
		t.Error("parseRanges() error = nil for mismatched lengths")
	}
}

func TestParseStoreURL(t *testing.T) {
	tests := []struct {
		in         string
		wantScheme string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{"gs://grids/era5/", "gs", "grids", "era5", false},
		{"s3://grids", "s3", "grids", "", false},
		{"https://example.com/data", "https", "", "", false},
		{"gs:///era5", "", "", "", true},
		{"ftp://example.com", "", "", "", true},
		{"./data", "", "", "", true},
	}
	for _, tt := range tests {
		loc, err := parseStoreURL(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseStoreURL(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if loc.scheme != tt.wantScheme || loc.bucket != tt.wantBucket || loc.prefix != tt.wantPrefix {
			t.Errorf("parseStoreURL(%q) = %+v", tt.in, loc)
		}
	}
}

func TestSlabs(t *testing.T) {
	got := slabs([]uint64{10, 4}, 4, false)
	if len(got) != 3 {
		t.Fatalf("slabs() returned %d slabs, want 3", len(got))
	}
	if got[2][0] != (omfile.Range{Start: 8, End: 10}) {
		t.Errorf("last slab = %v, want [8, 10)", got[2][0])
	}
	for _, s := range got {
		if s[1] != (omfile.Range{Start: 0, End: 4}) {
			t.Errorf("slab trailing range = %v, want [0, 4)", s[1])
		}
	}

	quick := slabs([]uint64{10, 4}, 4, true)
	if len(quick) != 2 || quick[0][0].Start != 0 || quick[1][0].Start != 8 {
		t.Errorf("slabs(quick) = %v, want first and last", quick)
	}
}

func TestSummarize(t *testing.T) {
	n, minV, maxV, mean, _ := summarize([]float64{2, math.NaN(), 4, 6})
	if n != 3 || minV != 2 || maxV != 6 || mean != 4 {
		t.Errorf("summarize() = %d, %g, %g, %g; want 3, 2, 6, 4", n, minV, maxV, mean)
	}

	if n, _, _, mean, _ := summarize([]float64{math.NaN()}); n != 0 || !math.IsNaN(mean) {
		t.Errorf("summarize(all NaN) = %d, %g; want 0, NaN", n, mean)
	}
}

func TestRatio(t *testing.T) {
	a := builder.Array{DataType: "float32", Dimensions: []uint64{10, 10}, Size: 100}
	if got := ratio(a); got != 4 {
		t.Errorf("ratio() = %g, want 4", got)
	}
	if got := ratio(builder.Array{DataType: "float32"}); got != 0 {
		t.Errorf("ratio(empty) = %g, want 0", got)
	}
}

func TestFormatDims(t *testing.T) {
	if got := formatDims([]uint64{24, 721, 1440}); got != "24x721x1440" {
		t.Errorf("formatDims() = %q", got)
	}
}

package builder

import (
	"errors"
	"testing"
)

func TestParseGCSPath(t *testing.T) {
	tests := []struct {
		path       string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{"gs://bucket", "bucket", "", false},
		{"gs://bucket/", "bucket", "", false},
		{"gs://bucket/arrays", "bucket", "arrays/", false},
		{"gs://bucket/arrays/era5/", "bucket", "arrays/era5/", false},
		{"s3://bucket/arrays", "", "", true},
		{"gs:///arrays", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			bucket, prefix, err := parseGCSPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseGCSPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidGCSPath) {
				t.Errorf("parseGCSPath() error = %v, want ErrInvalidGCSPath", err)
			}
			if bucket != tt.wantBucket || prefix != tt.wantPrefix {
				t.Errorf("parseGCSPath() = (%q, %q), want (%q, %q)", bucket, prefix, tt.wantBucket, tt.wantPrefix)
			}
		})
	}
}

func TestIsStale(t *testing.T) {
	keep := map[string]bool{"temperature.om": true}

	tests := []struct {
		name string
		want bool
	}{
		{"temperature.om", false},
		{"wind.om", true},
		{"manifest.json", false},
		{"archive/old.om", false},
	}

	for _, tt := range tests {
		if got := isStale(tt.name, keep); got != tt.want {
			t.Errorf("isStale(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

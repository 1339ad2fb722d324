// Package builder converts raw row-major arrays into chunked containers.
package builder

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// Phase names a build step.
type Phase string

// Build phases, in the order a build reports them.
const (
	PhaseDownload Phase = "download"
	PhaseRead     Phase = "read"
	PhaseEncode   Phase = "encode"
	PhaseUpload   Phase = "upload"
	PhaseDone     Phase = "done"
	PhaseError    Phase = "error"
)

// Progress is a snapshot of a running build. Only the fields of the current
// phase are meaningful.
type Progress struct {
	Phase           Phase
	BytesDownloaded int64
	BytesTotal      int64
	BytesRead       int64
	ChunksEncoded   int
	ChunksTotal     int
	BytesWritten    int64
	StartTime       time.Time
	Error           error
}

// Percent returns download or encode completion in [0, 100], or 0 when the
// total is unknown.
func (p Progress) Percent() float64 {
	switch p.Phase {
	case PhaseDownload:
		if p.BytesTotal > 0 {
			return 100 * float64(p.BytesDownloaded) / float64(p.BytesTotal)
		}
	case PhaseEncode:
		if p.ChunksTotal > 0 {
			return 100 * float64(p.ChunksEncoded) / float64(p.ChunksTotal)
		}
	}
	return 0
}

// ProgressFunc receives progress snapshots. It may be called from several
// goroutines, one at a time.
type ProgressFunc func(Progress)

// counter adds the bytes moved through a reader or writer to an atomic total.
type counter struct {
	r     io.Reader
	w     io.Writer
	total *atomic.Int64
}

func newProgressWriter(w io.Writer, total *atomic.Int64) *counter {
	return &counter{w: w, total: total}
}

func newProgressReader(r io.Reader, total *atomic.Int64) *counter {
	return &counter{r: r, total: total}
}

func (c *counter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.total.Add(int64(n))
	return n, err
}

func (c *counter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.total.Add(int64(n))
	return n, err
}

// FormatBytes renders n with a binary unit, e.g. "1.5 MB".
func FormatBytes(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n) / 1024
	units := "KMGTPE"
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %cB", v, units[i])
}

// FormatDuration renders d at second resolution, e.g. "3m 12s".
func FormatDuration(d time.Duration) string {
	s := int(d.Round(time.Second) / time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", s)
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	default:
		return fmt.Sprintf("%dh %dm", s/3600, (s/60)%60)
	}
}

// DefaultProgressFunc prints one updating line per phase to stdout.
func DefaultProgressFunc(p Progress) {
	switch p.Phase {
	case PhaseDownload:
		fmt.Printf("\r[Download] %s / %s (%.1f%%)",
			FormatBytes(p.BytesDownloaded), FormatBytes(p.BytesTotal), p.Percent())
	case PhaseRead:
		fmt.Printf("\r[Read] %s", FormatBytes(p.BytesRead))
	case PhaseEncode:
		fmt.Printf("\r[Encode] %d / %d chunks (%.0f%%)", p.ChunksEncoded, p.ChunksTotal, p.Percent())
	case PhaseUpload:
		fmt.Printf("\r[Upload] %s", FormatBytes(p.BytesWritten))
	case PhaseDone:
		fmt.Printf("\n[Done] %d chunks, %s in %s\n",
			p.ChunksTotal, FormatBytes(p.BytesWritten), FormatDuration(time.Since(p.StartTime)))
	case PhaseError:
		fmt.Printf("\n[Error] %v\n", p.Error)
	}
}

package builder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultResponseHeaderTimeout is the default timeout for receiving response headers.
const DefaultResponseHeaderTimeout = 30 * time.Second

// progressInterval is how often DownloadToFile reports progress.
const progressInterval = 500 * time.Millisecond

// Downloader fetches raw source arrays over HTTP, resuming partial files.
type Downloader struct {
	client *http.Client
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) DownloaderOption {
	return func(d *Downloader) {
		d.client = client
	}
}

// NewDownloader creates a new Downloader with sensible defaults.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// open requests url from offset resume. It reports whether the server
// honoured the resume and the total size if known.
func (d *Downloader) open(ctx context.Context, url string, resume int64) (body io.ReadCloser, resumed bool, total int64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, 0, fmt.Errorf("creating request: %w", err)
	}
	if resume > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resume))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, false, 0, fmt.Errorf("downloading: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, false, resp.ContentLength, nil
	case http.StatusPartialContent:
		var start, end int64
		total = resume + resp.ContentLength
		if _, err := fmt.Sscanf(resp.Header.Get("Content-Range"), "bytes %d-%d/%d", &start, &end, &total); err != nil {
			total = resume + resp.ContentLength
		}
		return resp.Body, true, total, nil
	case http.StatusRequestedRangeNotSatisfiable:
		// The partial file is already complete.
		resp.Body.Close()
		return http.NoBody, true, resume, nil
	}
	resp.Body.Close()
	return nil, false, 0, fmt.Errorf("unexpected status: %s", resp.Status)
}

// DownloadToFile downloads url to destPath, appending to a partial file if
// the server supports range requests.
func (d *Downloader) DownloadToFile(ctx context.Context, url string, destPath string, progress ProgressFunc) error {
	var existing int64
	if info, err := os.Stat(destPath); err == nil {
		existing = info.Size()
	}

	body, resumed, total, err := d.open(ctx, url, existing)
	if err != nil {
		return err
	}
	defer body.Close()

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if resumed {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	} else {
		existing = 0
	}
	file, err := os.OpenFile(destPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	var downloaded atomic.Int64
	downloaded.Store(existing)
	report := func() {
		if progress != nil {
			progress(Progress{
				Phase:           PhaseDownload,
				BytesDownloaded: downloaded.Load(),
				BytesTotal:      total,
			})
		}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				report()
			}
		}
	}()

	_, err = io.Copy(newProgressWriter(file, &downloaded), body)
	close(done)
	wg.Wait()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("reading response: %w", err)
	}
	report()
	return file.Close()
}

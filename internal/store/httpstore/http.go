// Package httpstore implements a read-only store over HTTP range requests.
package httpstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/discochess/omfile/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store reads objects from baseURL/name.
type Store struct {
	baseURL string
	client  *http.Client
	header  http.Header
}

// Option configures a Store.
type Option func(*Store)

// WithClient sets the HTTP client. The default is http.DefaultClient.
func WithClient(c *http.Client) Option {
	return func(s *Store) {
		s.client = c
	}
}

// WithHeader adds a header to every request, e.g. an Authorization token.
func WithHeader(key, value string) Option {
	return func(s *Store) {
		s.header.Add(key, value)
	}
}

// New creates a store rooted at baseURL.
func New(baseURL string, opts ...Option) (*Store, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	s := &Store{
		baseURL: strings.TrimSuffix(baseURL, "/") + "/",
		client:  http.DefaultClient,
		header:  make(http.Header),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) newRequest(ctx context.Context, method, name string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+name, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range s.header {
		req.Header[k] = v
	}
	return req, nil
}

// Size issues a HEAD request and returns Content-Length.
func (s *Store) Size(ctx context.Context, name string) (uint64, error) {
	req, err := s.newRequest(ctx, http.MethodHead, name)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("head %s: %w", name, err)
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("%s: %w", name, store.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("head %s: unexpected status: %s", name, resp.Status)
	}
	if resp.ContentLength < 0 {
		return 0, fmt.Errorf("head %s: missing Content-Length", name)
	}
	return uint64(resp.ContentLength), nil
}

// ReadRange issues a ranged GET. A server that ignores Range and returns the
// whole object is tolerated.
func (s *Store) ReadRange(ctx context.Context, name string, offset, length uint64) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	req, err := s.newRequest(ctx, http.MethodGet, name)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusOK:
		if _, err := io.CopyN(io.Discard, resp.Body, int64(offset)); err != nil {
			return nil, fmt.Errorf("%s: %w", name, store.ErrOutOfRange)
		}
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", name, store.ErrNotFound)
	case http.StatusRequestedRangeNotSatisfiable:
		return nil, fmt.Errorf("%s: %w", name, store.ErrOutOfRange)
	default:
		return nil, fmt.Errorf("get %s: unexpected status: %s", name, resp.Status)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(resp.Body, buf); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, fmt.Errorf("%s: %w", name, store.ErrOutOfRange)
		}
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return buf, nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

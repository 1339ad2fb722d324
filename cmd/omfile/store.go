package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/discochess/omfile/internal/store"
	"github.com/discochess/omfile/internal/store/cachedstore"
	"github.com/discochess/omfile/internal/store/cachedstore/cachestrategy/lru"
	"github.com/discochess/omfile/internal/store/cachedstore/memory"
	"github.com/discochess/omfile/internal/store/gcsstore"
	"github.com/discochess/omfile/internal/store/httpstore"
	"github.com/discochess/omfile/internal/store/s3store"
)

// storeLocation is a parsed --store URL.
type storeLocation struct {
	scheme string
	bucket string
	prefix string
	raw    string
}

func parseStoreURL(raw string) (storeLocation, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return storeLocation{}, fmt.Errorf("parsing store URL: %w", err)
	}
	loc := storeLocation{scheme: u.Scheme, raw: raw}
	switch u.Scheme {
	case "gs", "s3":
		if u.Host == "" {
			return storeLocation{}, fmt.Errorf("store URL %q has no bucket", raw)
		}
		loc.bucket = u.Host
		loc.prefix = strings.Trim(u.Path, "/")
	case "http", "https":
	default:
		return storeLocation{}, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
	return loc, nil
}

// openStore opens a remote store behind an LRU block cache.
func openStore(ctx context.Context, raw string, blocks int) (store.Store, error) {
	loc, err := parseStoreURL(raw)
	if err != nil {
		return nil, err
	}

	var base store.Store
	switch loc.scheme {
	case "gs":
		base, err = gcsstore.New(ctx, loc.bucket, gcsstore.WithPrefix(loc.prefix))
	case "s3":
		base, err = s3store.New(ctx, loc.bucket, s3store.WithPrefix(loc.prefix))
	default:
		base, err = httpstore.New(loc.raw)
	}
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", raw, err)
	}

	strategy, err := lru.New(blocks)
	if err != nil {
		base.Close()
		return nil, fmt.Errorf("creating LRU strategy: %w", err)
	}
	cached, err := cachedstore.New(base, memory.New(strategy, collector), cachedstore.DefaultBlockSize)
	if err != nil {
		base.Close()
		return nil, err
	}
	return cached, nil
}

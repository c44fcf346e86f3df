/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package documentloader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bluele/gcache"
	"github.com/piprate/json-gold/ld"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/processor"
)

// CachingLoader keeps recently loaded documents in an LRU cache. Failed loads are not cached.
type CachingLoader struct {
	cache  gcache.Cache
	loader ld.DocumentLoader
}

// NewCachingLoader caches up to size documents from loader. A zero ttl keeps entries until evicted.
func NewCachingLoader(loader ld.DocumentLoader, size int, ttl time.Duration) *CachingLoader {
	builder := gcache.New(size).LRU()

	if ttl > 0 {
		builder = builder.Expiration(ttl)
	}

	return &CachingLoader{cache: builder.Build(), loader: loader}
}

// LoadDocument implements ld.DocumentLoader. The returned document is a copy that callers may modify.
func (c *CachingLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	return c.LoadDocumentContext(context.Background(), u)
}

// LoadDocumentContext is LoadDocument with a cancelable load on a cache miss.
func (c *CachingLoader) LoadDocumentContext(ctx context.Context, u string) (*ld.RemoteDocument, error) {
	v, err := c.cache.GetIFPresent(u)
	if errors.Is(err, gcache.KeyNotFoundError) {
		rd, loadErr := loadContext(ctx, c.loader, u)
		if loadErr != nil {
			return nil, loadErr
		}

		if err = c.cache.Set(u, rd); err != nil {
			return nil, fmt.Errorf("cache %s: %w", u, err)
		}

		v = rd
	} else if err != nil {
		return nil, err
	}

	rd, ok := v.(*ld.RemoteDocument)
	if !ok {
		return nil, fmt.Errorf("unexpected cache entry for %s", u)
	}

	cp := *rd

	if m, ok := rd.Document.(map[string]interface{}); ok {
		cp.Document = processor.CopyMap(m)
	}

	return &cp, nil
}

// Purge drops every cached document.
func (c *CachingLoader) Purge() {
	c.cache.Purge()
}

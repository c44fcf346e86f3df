/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package documentloader

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/piprate/json-gold/ld"
)

const (
	defaultTimeout    = time.Minute
	defaultMaxRetries = 3

	acceptHeader = "application/ld+json, application/json"
)

type fetchFunc func(ctx context.Context, u string) (*ld.RemoteDocument, error)

// RemoteLoader fetches documents over HTTP, retrying transient failures with exponential backoff.
// Client errors (4xx) are not retried.
type RemoteLoader struct {
	client     *http.Client
	fetch      fetchFunc
	maxRetries uint64
	interval   time.Duration
}

// RemoteOpt configures a RemoteLoader.
type RemoteOpt func(*RemoteLoader)

// WithHTTPClient sets the client used for fetching.
func WithHTTPClient(client *http.Client) RemoteOpt {
	return func(r *RemoteLoader) {
		r.client = client
	}
}

// WithMaxRetries sets how many times a failed fetch is retried.
func WithMaxRetries(n uint64) RemoteOpt {
	return func(r *RemoteLoader) {
		r.maxRetries = n
	}
}

// WithRetryInterval sets the initial backoff interval.
func WithRetryInterval(d time.Duration) RemoteOpt {
	return func(r *RemoteLoader) {
		r.interval = d
	}
}

// withLoader replaces the HTTP fetch, for tests.
func withLoader(l ld.DocumentLoader) RemoteOpt {
	return func(r *RemoteLoader) {
		r.fetch = func(ctx context.Context, u string) (*ld.RemoteDocument, error) {
			return loadContext(ctx, l, u)
		}
	}
}

// NewRemoteLoader returns a RemoteLoader using an http.Client with a one minute timeout.
func NewRemoteLoader(opts ...RemoteOpt) *RemoteLoader {
	r := &RemoteLoader{
		client:     &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultMaxRetries,
		interval:   backoff.DefaultInitialInterval,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.fetch == nil {
		r.fetch = r.get
	}

	return r
}

// LoadDocument implements ld.DocumentLoader.
func (r *RemoteLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	return r.LoadDocumentContext(context.Background(), u)
}

// LoadDocumentContext fetches u. Requests in flight and pending retries stop when ctx is done.
func (r *RemoteLoader) LoadDocumentContext(ctx context.Context, u string) (*ld.RemoteDocument, error) {
	var rd *ld.RemoteDocument

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.interval

	err := backoff.Retry(func() error {
		doc, err := r.fetch(ctx, u)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return backoff.Permanent(ctxErr)
			}

			logger.Debugf("fetch %s failed: %s", u, err)

			return err
		}

		rd = doc

		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, r.maxRetries), ctx))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	if err != nil {
		return nil, err
	}

	return rd, nil
}

func (r *RemoteLoader) get(ctx context.Context, u string) (*ld.RemoteDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("new request: %w", err))
	}

	req.Header.Set("Accept", acceptHeader)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpClient do: %w", err)
	}

	defer func() {
		e := resp.Body.Close()
		if e != nil {
			logger.Errorf("Failed to close response body: %s", e.Error())
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrDocumentNotFound, u))
	case resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError:
		return nil, backoff.Permanent(fmt.Errorf("response status code: %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("response status code: %d", resp.StatusCode)
	}

	doc, err := ld.DocumentFromReader(resp.Body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("parse document %s: %w", u, err))
	}

	return &ld.RemoteDocument{DocumentURL: resp.Request.URL.String(), Document: doc}, nil
}

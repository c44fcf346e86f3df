/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package documentloader provides the ld.DocumentLoader implementations used for contexts
// and verification method documents.
package documentloader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/piprate/json-gold/ld"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
)

// DBName is the store that holds preloaded and fetched documents.
const DBName = "ldproofDocuments"

var logger = log.New("ldproof/documentloader")

// ErrDocumentNotFound is returned when a document is neither stored nor fetchable.
var ErrDocumentNotFound = errors.New("document not found")

// Document is a JSON-LD document keyed by the URL it is referenced with.
type Document struct {
	URL         string `json:"url" yaml:"url"`
	DocumentURL string `json:"documentURL,omitempty" yaml:"documentURL,omitempty"`
	Content     []byte `json:"content" yaml:"content"`
}

// DocumentLoader is an ld.DocumentLoader backed by a storage.Store.
type DocumentLoader struct {
	store  storage.Store
	remote ld.DocumentLoader
}

type loaderOpts struct {
	provider storage.Provider
	remote   ld.DocumentLoader
	extra    []Document
}

// Opt configures a DocumentLoader.
type Opt func(opts *loaderOpts)

// WithStorageProvider sets where documents are kept. An in-memory provider is used by default.
func WithStorageProvider(p storage.Provider) Opt {
	return func(opts *loaderOpts) {
		opts.provider = p
	}
}

// WithExtraDocuments preloads docs in addition to the embedded contexts.
func WithExtraDocuments(docs ...Document) Opt {
	return func(opts *loaderOpts) {
		opts.extra = append(opts.extra, docs...)
	}
}

// WithRemoteDocumentLoader sets the loader consulted for documents missing from storage.
// Fetched documents are stored. Without it, missing documents fail with ErrDocumentNotFound.
func WithRemoteDocumentLoader(loader ld.DocumentLoader) Opt {
	return func(opts *loaderOpts) {
		opts.remote = loader
	}
}

// New returns a DocumentLoader with the embedded contexts preloaded.
func New(opts ...Opt) (*DocumentLoader, error) {
	options := &loaderOpts{}

	for _, opt := range opts {
		opt(options)
	}

	if options.provider == nil {
		options.provider = mem.NewProvider()
	}

	store, err := options.provider.OpenStore(DBName)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}

	docs := append(EmbeddedContexts(), options.extra...)

	if err = save(store, docs); err != nil {
		return nil, fmt.Errorf("preload documents: %w", err)
	}

	return &DocumentLoader{store: store, remote: options.remote}, nil
}

func save(store storage.Store, docs []Document) error {
	ops := make([]storage.Operation, 0, len(docs))

	for _, doc := range docs {
		content, err := ld.DocumentFromReader(bytes.NewReader(doc.Content))
		if err != nil {
			return fmt.Errorf("parse document %s: %w", doc.URL, err)
		}

		b, err := json.Marshal(ld.RemoteDocument{DocumentURL: doc.DocumentURL, Document: content})
		if err != nil {
			return fmt.Errorf("marshal remote document: %w", err)
		}

		ops = append(ops, storage.Operation{Key: doc.URL, Value: b})
	}

	return store.Batch(ops)
}

// LoadDocument implements ld.DocumentLoader. A URL with a fragment that was not stored as is
// resolves to the document stored without the fragment.
func (l *DocumentLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	return l.LoadDocumentContext(context.Background(), u)
}

// LoadDocumentContext is LoadDocument with a remote fetch that stops when ctx is done.
func (l *DocumentLoader) LoadDocumentContext(ctx context.Context, u string) (*ld.RemoteDocument, error) {
	b, err := l.store.Get(u)
	if errors.Is(err, storage.ErrDataNotFound) {
		if base, _, found := strings.Cut(u, "#"); found && base != "" {
			b, err = l.store.Get(base)
		}
	}

	if err != nil {
		if !errors.Is(err, storage.ErrDataNotFound) {
			return nil, fmt.Errorf("get document from store: %w", err)
		}

		if l.remote == nil {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, u)
		}

		return l.fetch(ctx, u)
	}

	var rd ld.RemoteDocument

	if err := json.Unmarshal(b, &rd); err != nil {
		return nil, fmt.Errorf("unmarshal stored document: %w", err)
	}

	return &rd, nil
}

// Add stores docs, replacing any previous version under the same URL.
func (l *DocumentLoader) Add(docs ...Document) error {
	return save(l.store, docs)
}

func (l *DocumentLoader) fetch(ctx context.Context, u string) (*ld.RemoteDocument, error) {
	rd, err := loadContext(ctx, l.remote, u)
	if err != nil {
		return nil, fmt.Errorf("load remote document: %w", err)
	}

	b, err := json.Marshal(rd)
	if err != nil {
		return nil, fmt.Errorf("marshal remote document: %w", err)
	}

	if err := l.store.Put(u, b); err != nil {
		logger.Warnf("failed to store fetched document %s: %s", u, err)
	}

	return rd, nil
}

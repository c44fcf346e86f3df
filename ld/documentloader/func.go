/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package documentloader

import (
	"context"

	"github.com/piprate/json-gold/ld"
)

// ContextLoader is a document loader whose loads stop when ctx is done.
type ContextLoader interface {
	ld.DocumentLoader
	LoadDocumentContext(ctx context.Context, u string) (*ld.RemoteDocument, error)
}

// LoaderFunc adapts a function to ld.DocumentLoader.
type LoaderFunc func(u string) (*ld.RemoteDocument, error)

// LoadDocument calls f(u).
func (f LoaderFunc) LoadDocument(u string) (*ld.RemoteDocument, error) {
	return f(u)
}

// WithContext returns a loader that refuses to load once ctx is done. Loads through a
// ContextLoader are canceled with ctx.
func WithContext(ctx context.Context, loader ld.DocumentLoader) ld.DocumentLoader {
	return LoaderFunc(func(u string) (*ld.RemoteDocument, error) {
		return loadContext(ctx, loader, u)
	})
}

func loadContext(ctx context.Context, loader ld.DocumentLoader, u string) (*ld.RemoteDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cl, ok := loader.(ContextLoader); ok {
		return cl.LoadDocumentContext(ctx, u)
	}

	return loader.LoadDocument(u)
}

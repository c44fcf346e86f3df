/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package vmresolver resolves verification method ids to key descriptions through a
// JSON-LD document loader, fetching each id only once per call.
package vmresolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/piprate/json-gold/ld"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/documentloader"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/processor"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/api"
)

var logger = log.New("ldproof/vmresolver")

var (
	// ErrResolution is returned when the document loader fails.
	ErrResolution = errors.New("verification method resolution failed")

	// ErrMethodNotFound is returned when the loaded document holds no key or controller for the id.
	ErrMethodNotFound = errors.New("verification method not found")
)

// Resolver turns verification method ids into api.VerificationMethod values.
// It keeps no state between calls.
type Resolver struct {
	framing   bool
	processor *processor.Processor
}

// Opt configures a Resolver.
type Opt func(*Resolver)

// WithFraming extracts the method by JSON-LD framing the loaded document instead of a plain
// node lookup. Framing dereferences nothing under the loaded document's id.
func WithFraming() Opt {
	return func(r *Resolver) {
		r.framing = true
	}
}

// WithProcessor sets the JSON-LD processor used for framing.
func WithProcessor(p *processor.Processor) Opt {
	return func(r *Resolver) {
		r.processor = p
	}
}

// New returns a Resolver.
func New(opts ...Opt) *Resolver {
	r := &Resolver{processor: processor.Default()}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve loads id once and extracts the verification method from the result.
func (r *Resolver) Resolve(ctx context.Context, id string, loader ld.DocumentLoader) (*api.VerificationMethod, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrMethodNotFound)
	}

	if loader == nil {
		return nil, fmt.Errorf("%w: no document loader", ErrResolution)
	}

	rd, err := documentloader.WithContext(ctx, loader).LoadDocument(id)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %s", ErrResolution, id, err.Error())
	}

	doc, ok := asObject(rd)
	if !ok {
		return nil, fmt.Errorf("%w: %s did not load a JSON object", ErrMethodNotFound, id)
	}

	docID := stringField(doc, "id")

	if docID != "" && docID != id && !strings.HasPrefix(id, docID) {
		logger.Debugf("document loaded for %s has unrelated id %s", id, docID)

		return nil, fmt.Errorf("%w: loaded document %s does not contain %s", ErrMethodNotFound, docID, id)
	}

	var node map[string]interface{}

	if r.framing && docID != "" {
		node, err = r.frame(ctx, id, docID, doc, loader)
		if err != nil {
			return nil, err
		}
	} else {
		node = findNode(doc, id, docID)
	}

	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, id)
	}

	vm, err := newVerificationMethod(id, node)
	if err != nil {
		return nil, err
	}

	if vm.Controller == "" && docID != "" && docID != id {
		vm.Controller = docID
	}

	if vm.PublicKey == nil && vm.Controller == "" {
		return nil, fmt.Errorf("%w: %s has neither key material nor controller", ErrMethodNotFound, id)
	}

	if docID != "" && docID == vm.Controller {
		vm.ControllerDocument = doc
	}

	return vm, nil
}

func (r *Resolver) frame(ctx context.Context, id, docID string, doc map[string]interface{},
	loader ld.DocumentLoader) (map[string]interface{}, error) {
	// IRIs under the fetched document are served from it, everything else (contexts) goes to loader
	reuse := documentloader.LoaderFunc(func(u string) (*ld.RemoteDocument, error) {
		if strings.HasPrefix(u, docID) {
			return &ld.RemoteDocument{DocumentURL: u, Document: processor.CopyMap(doc)}, nil
		}

		return documentloader.WithContext(ctx, loader).LoadDocument(u)
	})

	frame := map[string]interface{}{
		"@context": doc["@context"],
		"@id":      id,
	}

	framed, err := r.processor.Frame(doc, frame, processor.WithDocumentLoader(reuse))
	if err != nil {
		return nil, fmt.Errorf("%w: frame %s: %s", ErrResolution, id, err.Error())
	}

	if nodeID(framed, docID) != id {
		return nil, nil //nolint:nilnil
	}

	return framed, nil
}

func asObject(rd *ld.RemoteDocument) (map[string]interface{}, bool) {
	if rd == nil {
		return nil, false
	}

	doc, ok := rd.Document.(map[string]interface{})
	if !ok {
		return nil, false
	}

	return processor.CopyMap(doc), true
}

// findNode walks doc for the object whose id, made absolute against docID, equals id.
func findNode(doc map[string]interface{}, id, docID string) map[string]interface{} {
	if nodeID(doc, docID) == id {
		return doc
	}

	for k, v := range doc {
		if k == "@context" {
			continue
		}

		if found := findInValue(v, id, docID); found != nil {
			return found
		}
	}

	return nil
}

func findInValue(v interface{}, id, docID string) map[string]interface{} {
	switch vv := v.(type) {
	case map[string]interface{}:
		return findNode(vv, id, docID)
	case []interface{}:
		for _, item := range vv {
			if found := findInValue(item, id, docID); found != nil {
				return found
			}
		}
	}

	return nil
}

func nodeID(node map[string]interface{}, docID string) string {
	id := stringField(node, "id")
	if id == "" {
		id = stringField(node, "@id")
	}

	if strings.HasPrefix(id, "#") {
		return docID + id
	}

	return id
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string) //nolint:errcheck

	return s
}

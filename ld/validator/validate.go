/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

// Package validator checks that every term of a JSON-LD document is defined by its context.
// json-gold drops undefined terms during canonicalization, so values under such terms are not signed.
package validator

import (
	"errors"
	"fmt"

	"github.com/piprate/json-gold/ld"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/processor"
)

// ErrUndefinedTerms is returned when compacting a document with its own context changes its structure.
var ErrUndefinedTerms = errors.New("JSON-LD doc has different structure after compaction")

type validateOpts struct {
	strict               bool
	jsonldDocumentLoader ld.DocumentLoader
	externalContext      []string
}

// ValidateOpts sets jsonld validation options.
type ValidateOpts func(opts *validateOpts)

// WithDocumentLoader option is for passing custom JSON-LD document loader.
func WithDocumentLoader(jsonldDocumentLoader ld.DocumentLoader) ValidateOpts {
	return func(opts *validateOpts) {
		opts.jsonldDocumentLoader = jsonldDocumentLoader
	}
}

// WithExternalContext option is for definition of external context when doing JSON-LD operations.
func WithExternalContext(externalContext ...string) ValidateOpts {
	return func(opts *validateOpts) {
		opts.externalContext = externalContext
	}
}

// WithStrictValidation sets if strict validation should be used.
func WithStrictValidation(checkStructure bool) ValidateOpts {
	return func(opts *validateOpts) {
		opts.strict = checkStructure
	}
}

func getValidateOpts(options []ValidateOpts) *validateOpts {
	result := &validateOpts{
		strict: true,
	}

	for _, opt := range options {
		opt(result)
	}

	return result
}

// ValidateJSONLDMap compacts docMap with its own context and fails with ErrUndefinedTerms when a term
// is lost. docMap is not modified. Without strict validation only compaction errors are reported.
func ValidateJSONLDMap(docMap map[string]interface{}, options ...ValidateOpts) error {
	opts := getValidateOpts(options)

	docCompactedMap, err := processor.Default().Compact(processor.CopyMap(docMap), nil,
		processor.WithDocumentLoader(opts.jsonldDocumentLoader),
		processor.WithExternalContext(opts.externalContext...))
	if err != nil {
		return fmt.Errorf("compact JSON-LD document: %w", err)
	}

	if opts.strict && !mapsHaveSameStructure(compactMap(docMap), compactMap(docCompactedMap)) {
		return ErrUndefinedTerms
	}

	return nil
}

func mapsHaveSameStructure(original, compacted map[string]interface{}) bool {
	if len(original) != len(compacted) {
		return false
	}

	for k, v1 := range original {
		v2, present := compacted[k]
		if !present { // the key was compacted to another term, cannot guess its new name
			continue
		}

		if !valuesHaveSameStructure(v1, v2) {
			return false
		}
	}

	return true
}

func valuesHaveSameStructure(v1, v2 interface{}) bool {
	switch t1 := v1.(type) {
	case map[string]interface{}:
		t2, ok := v2.(map[string]interface{})
		if !ok {
			// value objects such as {"@value": ..., "@type": ...} compact to plain values
			_, isValue := t1["@value"]

			return isValue
		}

		return mapsHaveSameStructure(t1, t2)

	case []interface{}:
		t2, ok := v2.([]interface{})
		if !ok || len(t1) != len(t2) {
			return false
		}

		for i := range t1 {
			if !valuesHaveSameStructure(t1[i], t2[i]) {
				return false
			}
		}

		return true

	default:
		return true
	}
}

func compactMap(m map[string]interface{}) map[string]interface{} {
	mCopy := make(map[string]interface{})

	for k, v := range m {
		// ignore context
		if k == "@context" {
			continue
		}

		vNorm := compactValue(v)

		switch kv := vNorm.(type) {
		case []interface{}:
			mCopy[k] = compactSlice(kv)

		case map[string]interface{}:
			mCopy[k] = compactMap(kv)

		default:
			mCopy[k] = vNorm
		}
	}

	return mCopy
}

func compactSlice(s []interface{}) []interface{} {
	sCopy := make([]interface{}, len(s))

	for i := range s {
		sItem := compactValue(s[i])

		switch sItem := sItem.(type) {
		case map[string]interface{}:
			sCopy[i] = compactMap(sItem)

		default:
			sCopy[i] = sItem
		}
	}

	return sCopy
}

func compactValue(v interface{}) interface{} {
	switch cv := v.(type) {
	case []interface{}:
		// consists of only one element
		if len(cv) == 1 {
			return compactValue(cv[0])
		}

		return cv

	case map[string]interface{}:
		// contains "id" element only
		if len(cv) == 1 {
			if _, ok := cv["id"]; ok {
				return cv["id"]
			}
		}

		return cv

	default:
		return cv
	}
}

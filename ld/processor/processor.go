/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package processor wraps the JSON-LD operations that proofs need: URDNA2015
// canonicalization, compaction and framing.
package processor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/piprate/json-gold/ld"

	"github.com/hyperledger/aries-framework-go/component/log"
)

const (
	format             = "application/n-quads"
	defaultAlgorithm   = "URDNA2015"
	handleNormalizeErr = "error while parsing N-Quads; invalid quad. line:"
)

var logger = log.New("ldproof/json-ld-processor")

// ErrInvalidRDFFound is returned when the canonical view contains invalid RDF and WithValidateRDF is set.
var ErrInvalidRDFFound = errors.New("invalid JSON-LD context")

type processorOpts struct {
	removeInvalidRDF bool
	validateRDF      bool
	documentLoader   ld.DocumentLoader
	externalContexts []string
}

// Opts configures a single JSON-LD operation.
type Opts func(opts *processorOpts)

// WithRemoveAllInvalidRDF drops quads json-gold cannot parse back, then canonicalizes again.
func WithRemoveAllInvalidRDF() Opts {
	return func(opts *processorOpts) {
		opts.removeInvalidRDF = true
	}
}

// WithDocumentLoader sets the loader used to dereference remote contexts.
func WithDocumentLoader(loader ld.DocumentLoader) Opts {
	return func(opts *processorOpts) {
		opts.documentLoader = loader
	}
}

// WithExternalContext appends contexts to the document's own @context.
func WithExternalContext(context ...string) Opts {
	return func(opts *processorOpts) {
		opts.externalContexts = context
	}
}

// WithValidateRDF fails with ErrInvalidRDFFound instead of filtering invalid quads.
// It takes precedence over WithRemoveAllInvalidRDF.
func WithValidateRDF() Opts {
	return func(opts *processorOpts) {
		opts.validateRDF = true
	}
}

// Processor runs JSON-LD 1.1 operations with a fixed RDF dataset canonicalization algorithm.
type Processor struct {
	algorithm string
}

// NewProcessor returns a processor for algorithm, or Default when it is empty.
func NewProcessor(algorithm string) *Processor {
	if algorithm == "" {
		return Default()
	}

	return &Processor{algorithm}
}

// Default returns a URDNA2015 processor.
func Default() *Processor {
	return &Processor{defaultAlgorithm}
}

// Algorithm is the canonicalization algorithm name.
func (p *Processor) Algorithm() string {
	return p.algorithm
}

// GetCanonicalDocument returns the canonical N-Quads of doc. doc is not modified.
func (p *Processor) GetCanonicalDocument(doc map[string]interface{}, opts ...Opts) ([]byte, error) {
	procOptions := prepareOpts(opts)

	ldOptions := p.newOptions(procOptions)
	ldOptions.Algorithm = p.algorithm

	input := doc

	if len(procOptions.externalContexts) > 0 {
		input = CopyMap(doc)
		input["@context"] = AppendExternalContexts(input["@context"], procOptions.externalContexts...)
	}

	view, err := ld.NewJsonLdProcessor().Normalize(input, ldOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize JSON-LD document: %w", err)
	}

	result, ok := view.(string)
	if !ok {
		return nil, errors.New("failed to normalize JSON-LD document, invalid view")
	}

	result, err = p.removeMatchingInvalidRDFs(result, procOptions)
	if err != nil {
		return nil, err
	}

	return []byte(result), nil
}

// AppendExternalContexts returns context (a single value or a list) followed by extraContexts.
func AppendExternalContexts(context interface{}, extraContexts ...string) []interface{} {
	var contexts []interface{}

	switch c := context.(type) {
	case string, map[string]interface{}:
		contexts = append(contexts, c)
	case []interface{}:
		contexts = append(contexts, c...)
	}

	for i := range extraContexts {
		contexts = append(contexts, extraContexts[i])
	}

	return contexts
}

// Compact compacts input against context. When context is nil the input's own @context is used.
func (p *Processor) Compact(input, context map[string]interface{},
	opts ...Opts) (map[string]interface{}, error) {
	procOptions := prepareOpts(opts)

	if context == nil {
		inputContext := input["@context"]

		if len(procOptions.externalContexts) > 0 {
			inputContext = AppendExternalContexts(inputContext, procOptions.externalContexts...)
			input["@context"] = inputContext
		}

		context = map[string]interface{}{"@context": inputContext}
	}

	return ld.NewJsonLdProcessor().Compact(input, context, p.newOptions(procOptions))
}

// Frame shapes inputDoc with frameDoc. A document without an id gets a temporary urn:uuid
// base for the operation, which is removed from the result.
func (p *Processor) Frame(inputDoc, frameDoc map[string]interface{},
	opts ...Opts) (map[string]interface{}, error) {
	procOptions := prepareOpts(opts)

	ldOptions := p.newOptions(procOptions)
	ldOptions.OmitGraph = true

	input := CopyMap(inputDoc)
	frame := CopyMap(frameDoc)

	blankBase := false
	if id, ok := input["id"]; !ok || id == "" {
		blankBase = true
		input["id"] = "urn:uuid:" + uuid.New().String()

		_, hasID := frame["id"]
		_, hasKeyword := frame["@id"]

		if !hasID && !hasKeyword {
			frame["id"] = input["id"]
		}
	}

	framed, err := ld.NewJsonLdProcessor().Frame(input, frame, ldOptions)
	if err != nil {
		return nil, fmt.Errorf("framing failed: %w", err)
	}

	framed["@context"] = frameDoc["@context"]

	if blankBase {
		delete(framed, "id")
	}

	return framed, nil
}

func (p *Processor) newOptions(procOptions *processorOpts) *ld.JsonLdOptions {
	ldOptions := ld.NewJsonLdOptions("")
	ldOptions.ProcessingMode = ld.JsonLd_1_1
	ldOptions.Format = format
	ldOptions.ProduceGeneralizedRdf = true

	if procOptions.documentLoader != nil {
		ldOptions.DocumentLoader = procOptions.documentLoader
	}

	return ldOptions
}

// removeMatchingInvalidRDFs filters quads that json-gold cannot parse back
// (see https://github.com/digitalbazaar/jsonld.js/issues/199).
func (p *Processor) removeMatchingInvalidRDFs(view string, opts *processorOpts) (string, error) {
	if !opts.removeInvalidRDF && !opts.validateRDF {
		return view, nil
	}

	var (
		filtered     []string
		foundInvalid bool
	)

	for _, v := range strings.Split(view, "\n") {
		if _, err := ld.ParseNQuads(v); err != nil {
			if !strings.Contains(err.Error(), handleNormalizeErr) {
				return "", err
			}

			foundInvalid = true

			continue
		}

		filtered = append(filtered, v)
	}

	if !foundInvalid {
		return view, nil
	}

	if opts.validateRDF {
		return "", ErrInvalidRDFFound
	}

	logger.Debugf("found invalid RDF dataset, canonicalizing again without it")

	return p.normalizeFilteredDataset(strings.Join(filtered, "\n"))
}

func (p *Processor) normalizeFilteredDataset(view string) (string, error) {
	ldOptions := ld.NewJsonLdOptions("")
	ldOptions.ProcessingMode = ld.JsonLd_1_1
	ldOptions.Algorithm = p.algorithm
	ldOptions.Format = format

	proc := ld.NewJsonLdProcessor()

	filteredJSONLd, err := proc.FromRDF(view, ldOptions)
	if err != nil {
		return "", err
	}

	result, err := proc.Normalize(filteredJSONLd, ldOptions)
	if err != nil {
		return "", err
	}

	return result.(string), nil
}

func prepareOpts(opts []Opts) *processorOpts {
	procOpts := &processorOpts{}

	for _, opt := range opts {
		opt(procOpts)
	}

	return procOpts
}

// CopyMap returns a deep copy of a JSON object. Nested objects and arrays are copied too.
func CopyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}

	cp := make(map[string]interface{}, len(m))

	for k, v := range m {
		cp[k] = copyValue(v)
	}

	return cp
}

func copyValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[string]interface{}:
		return CopyMap(vv)
	case []interface{}:
		cp := make([]interface{}, len(vv))
		for i := range vv {
			cp[i] = copyValue(vv[i])
		}

		return cp
	default:
		return v
	}
}

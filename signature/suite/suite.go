/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package suite defines what a Linked Data proof suite offers and finds suites by proof type.
package suite

import (
	"context"
	"errors"
	"fmt"

	"github.com/piprate/json-gold/ld"
	"golang.org/x/exp/slices"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/proof"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/purpose"
)

var (
	// ErrContextMismatch is returned when a document lacks the context a suite requires.
	ErrContextMismatch = errors.New("document context does not include the suite context")

	// ErrUnsupportedSuite is returned when no registered suite accepts a proof type.
	ErrUnsupportedSuite = errors.New("unsupported signature suite")

	// ErrVerificationPanic is returned when verifying a proof panicked. The panic is recovered.
	ErrVerificationPanic = errors.New("proof verification panicked")
)

// VerifyResult is the outcome of verifying one proof.
type VerifyResult struct {
	Verified      bool
	PurposeResult *purpose.Result
	Error         error
}

// Failed returns a VerifyResult for err.
func Failed(err error) *VerifyResult {
	return &VerifyResult{Error: err}
}

// SignatureSuite creates and verifies proofs of one type.
type SignatureSuite interface {
	// Type is the proof type, e.g. JsonWebSignature2020.
	Type() string

	// Accept reports whether proofs of type t are handled.
	Accept(t string) bool

	// RequiredContext is the context URL documents must carry.
	RequiredContext() string

	// CreateProof returns a signed proof for doc. doc is not modified.
	CreateProof(ctx context.Context, doc map[string]interface{}, pp purpose.ProofPurpose,
		loader ld.DocumentLoader, template *proof.Proof) (*proof.Proof, error)

	// VerifyProof checks p against doc. Failures are reported in the result.
	VerifyProof(ctx context.Context, doc map[string]interface{}, p *proof.Proof, pp purpose.ProofPurpose,
		loader ld.DocumentLoader) *VerifyResult
}

// Registry holds suites keyed by proof type.
type Registry struct {
	suites []SignatureSuite
}

// NewRegistry returns a registry of suites. Earlier suites win when several accept a type.
func NewRegistry(suites ...SignatureSuite) *Registry {
	return &Registry{suites: suites}
}

// Get returns the suite for proof type t.
func (r *Registry) Get(t string) (SignatureSuite, error) {
	for _, s := range r.suites {
		if s.Accept(t) {
			return s, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedSuite, t)
}

// Types lists the registered proof types, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.suites))
	for _, s := range r.suites {
		types = append(types, s.Type())
	}

	slices.Sort(types)

	return types
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package verifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/piprate/json-gold/ld"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/proof"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/purpose"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/suite"
)

var logger = log.New("ldproof/verifier")

const defaultConcurrency = 8

// ProofResult is the outcome for one proof of a document.
type ProofResult struct {
	Index              int
	Type               string
	VerificationMethod string
	*suite.VerifyResult
}

// Result is the outcome for a document. Verified is set when every proof verified.
type Result struct {
	Verified bool
	Proofs   []*ProofResult
}

// Error returns the first proof error, or nil.
func (r *Result) Error() error {
	for _, p := range r.Proofs {
		if p.VerifyResult.Error != nil {
			return fmt.Errorf("proof %d: %w", p.Index, p.VerifyResult.Error)
		}
	}

	return nil
}

// BatchResult pairs a document's Result with the error that kept it from being verified.
type BatchResult struct {
	Result *Result
	Err    error
}

// DocumentVerifier implements JSON LD document proof verification.
type DocumentVerifier struct {
	registry    *suite.Registry
	concurrency int
}

// Opt configures a DocumentVerifier.
type Opt func(*DocumentVerifier)

// WithConcurrency bounds the number of proofs or documents verified at once.
func WithConcurrency(n int) Opt {
	return func(dv *DocumentVerifier) {
		if n > 0 {
			dv.concurrency = n
		}
	}
}

// New returns new instance of document verifier.
func New(suites []suite.SignatureSuite, opts ...Opt) (*DocumentVerifier, error) {
	if len(suites) == 0 {
		return nil, errors.New("at least one suite must be provided")
	}

	dv := &DocumentVerifier{registry: suite.NewRegistry(suites...), concurrency: defaultConcurrency}

	for _, opt := range opts {
		opt(dv)
	}

	return dv, nil
}

// Verify will verify document proofs. The error is set only when the document cannot be read;
// proof failures are reported in the Result.
func (dv *DocumentVerifier) Verify(ctx context.Context, jsonLdDoc []byte, pp purpose.ProofPurpose,
	loader ld.DocumentLoader) (*Result, error) {
	if !gjson.ValidBytes(jsonLdDoc) {
		return nil, errors.New("failed to unmarshal json ld document: invalid JSON")
	}

	if p := gjson.GetBytes(jsonLdDoc, "proof"); !p.Exists() || (!p.IsObject() && !p.IsArray()) {
		return nil, proof.ErrProofNotFound
	}

	var jsonLdObject map[string]interface{}

	if err := json.Unmarshal(jsonLdDoc, &jsonLdObject); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json ld document: %w", err)
	}

	return dv.VerifyObject(ctx, jsonLdObject, pp, loader)
}

// VerifyObject will verify document proofs for JSON LD object. Proofs are verified concurrently;
// a failing proof does not stop the others.
func (dv *DocumentVerifier) VerifyObject(ctx context.Context, jsonLdObject map[string]interface{},
	pp purpose.ProofPurpose, loader ld.DocumentLoader) (*Result, error) {
	proofs, err := proof.GetProofs(jsonLdObject)
	if err != nil {
		return nil, err
	}

	results := make([]*ProofResult, len(proofs))

	var g errgroup.Group

	g.SetLimit(dv.concurrency)

	for i := range proofs {
		i := i

		g.Go(func() error {
			results[i] = dv.verifyProof(ctx, i, jsonLdObject, proofs[i], pp, loader)

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck

	res := &Result{Verified: true, Proofs: results}

	for _, r := range results {
		if !r.Verified {
			res.Verified = false
		}
	}

	return res, nil
}

func (dv *DocumentVerifier) verifyProof(ctx context.Context, index int, doc, rawProof map[string]interface{},
	pp purpose.ProofPurpose, loader ld.DocumentLoader) *ProofResult {
	pr := &ProofResult{Index: index}

	p, err := proof.NewProof(rawProof)
	if err != nil {
		pr.VerifyResult = suite.Failed(err)

		return pr
	}

	pr.Type = p.Type
	pr.VerificationMethod, _ = p.PublicKeyID() //nolint:errcheck

	s, err := dv.registry.Get(p.Type)
	if err != nil {
		pr.VerifyResult = suite.Failed(err)

		return pr
	}

	pr.VerifyResult = s.VerifyProof(ctx, doc, p, pp, loader)

	if !pr.Verified {
		logger.Debugf("proof %d (%s) of document failed: %s", index, p.Type, pr.VerifyResult.Error)
	}

	return pr
}

// VerifyBatch verifies documents concurrently. Results are in the order of docs.
func (dv *DocumentVerifier) VerifyBatch(ctx context.Context, docs [][]byte, pp purpose.ProofPurpose,
	loader ld.DocumentLoader) []BatchResult {
	results := make([]BatchResult, len(docs))

	var g errgroup.Group

	g.SetLimit(dv.concurrency)

	for i := range docs {
		i := i

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = BatchResult{Err: err}

				return nil
			}

			res, err := dv.Verify(ctx, docs[i], pp, loader)
			results[i] = BatchResult{Result: res, Err: err}

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck

	return results
}

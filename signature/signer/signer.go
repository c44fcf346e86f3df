/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

// Package signer attaches Linked Data proofs to JSON-LD documents.
package signer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/piprate/json-gold/ld"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/proof"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/purpose"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/suite"
	afgotime "github.com/hyperledger/aries-framework-go-ext/component/ldproof/util/time"
)

const proofKey = "proof"

// DocumentSigner implements signing of JSONLD documents.
type DocumentSigner struct {
	registry *suite.Registry
}

// Context holds signing options.
type Context struct {
	SignatureType      string               // required
	Purpose            purpose.ProofPurpose // optional, assertionMethod by default
	Created            *time.Time           // optional
	Expires            *time.Time           // optional
	VerificationMethod string               // optional, the key id by default
	Domain             string               // optional
	Challenge          string               // optional
	Nonce              string               // optional
}

// New returns new instance of document signer.
func New(signatureSuites ...suite.SignatureSuite) *DocumentSigner {
	return &DocumentSigner{registry: suite.NewRegistry(signatureSuites...)}
}

// Sign signs the JSON-LD document and returns it with the proof added. Existing members keep
// their order; an existing proof is turned into a proof set.
func (signer *DocumentSigner) Sign(ctx context.Context, signCtx *Context, jsonLdDoc []byte,
	loader ld.DocumentLoader) ([]byte, error) {
	var jsonLdObject map[string]interface{}

	err := json.Unmarshal(jsonLdDoc, &jsonLdObject)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal json ld document: %w", err)
	}

	p, err := signer.createProof(ctx, signCtx, jsonLdObject, loader)
	if err != nil {
		return nil, err
	}

	proofBytes, err := json.Marshal(p.JSONLdObject())
	if err != nil {
		return nil, fmt.Errorf("marshal proof: %w", err)
	}

	return attachProof(jsonLdDoc, proofBytes)
}

// SignObject signs jsonLdObject in place.
func (signer *DocumentSigner) SignObject(ctx context.Context, signCtx *Context, jsonLdObject map[string]interface{},
	loader ld.DocumentLoader) error {
	p, err := signer.createProof(ctx, signCtx, jsonLdObject, loader)
	if err != nil {
		return err
	}

	proof.AddProof(jsonLdObject, p.JSONLdObject())

	return nil
}

func (signer *DocumentSigner) createProof(ctx context.Context, signCtx *Context, jsonLdObject map[string]interface{},
	loader ld.DocumentLoader) (*proof.Proof, error) {
	if err := isValidContext(signCtx); err != nil {
		return nil, err
	}

	s, err := signer.registry.Get(signCtx.SignatureType)
	if err != nil {
		return nil, err
	}

	pp := signCtx.Purpose
	if pp == nil {
		pp = purpose.NewAssertionProofPurpose()
	}

	template := &proof.Proof{
		Type:               signCtx.SignatureType,
		VerificationMethod: signCtx.VerificationMethod,
		Domain:             signCtx.Domain,
		Challenge:          signCtx.Challenge,
		Nonce:              signCtx.Nonce,
	}

	if signCtx.Created != nil {
		template.Created = afgotime.NewTime(*signCtx.Created)
	}

	if signCtx.Expires != nil {
		template.Expires = afgotime.NewTime(afgotime.Truncate(*signCtx.Expires))
	}

	p, err := s.CreateProof(ctx, jsonLdObject, pp, loader, template)
	if err != nil {
		return nil, fmt.Errorf("create %s proof: %w", signCtx.SignatureType, err)
	}

	return p, nil
}

func attachProof(doc, proofBytes []byte) ([]byte, error) {
	existing := gjson.GetBytes(doc, proofKey)

	var (
		out []byte
		err error
	)

	switch {
	case !existing.Exists():
		out, err = sjson.SetRawBytes(doc, proofKey, proofBytes)
	case existing.IsArray():
		out, err = sjson.SetRawBytes(doc, proofKey+".-1", proofBytes)
	default:
		proofSet := append(append(append([]byte("["), existing.Raw...), ','), proofBytes...)
		out, err = sjson.SetRawBytes(doc, proofKey, append(proofSet, ']'))
	}

	if err != nil {
		return nil, fmt.Errorf("add proof to document: %w", err)
	}

	return out, nil
}

// isValidContext checks required parameters (for signing).
func isValidContext(signCtx *Context) error {
	if signCtx == nil || signCtx.SignatureType == "" {
		return errors.New("signature type is missing")
	}

	return nil
}

/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package api holds the types shared by signers, verifiers, key adapters and resolvers.
package api

import (
	"context"
	"crypto"
	"errors"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose/jwk"
)

var (
	// ErrInvalidSignature is returned when a signature does not verify.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrMissingKeyMaterial is returned when signing is requested from a key without private material.
	ErrMissingKeyMaterial = errors.New("missing private key material")

	// ErrUnsupportedAlgorithm is returned when no signature algorithm can be selected for a key.
	ErrUnsupportedAlgorithm = errors.New("unsupported signature algorithm")
)

// SignatureParams selects how a key signs or verifies.
type SignatureParams struct {
	// Algorithm is the JWS algorithm name, e.g. EdDSA, ES256K or PS256.
	Algorithm string
	// Hash is the digest applied to the signing input. Ed25519 ignores it.
	Hash crypto.Hash
	// SaltLength is the RSA-PSS salt length in bytes.
	SaltLength int
}

// Signer produces signatures.
type Signer interface {
	Sign(ctx context.Context, data []byte, params *SignatureParams) ([]byte, error)

	// Alg is the JWS algorithm the signer produces, or "" when it is not known up front.
	Alg() string
}

// Verifier checks signatures. A failed check returns an error wrapping ErrInvalidSignature.
type Verifier interface {
	Verify(ctx context.Context, data, signature []byte, params *SignatureParams) error
}

// PublicKey is key material extracted from a verification method.
type PublicKey struct {
	Type  string
	Value []byte
	JWK   *jwk.JWK
}

// VerificationMethod is a resolved key description.
type VerificationMethod struct {
	ID         string
	Type       string
	Controller string
	PublicKey  *PublicKey

	// Fields is the method node as found in the loaded document.
	Fields map[string]interface{}

	// ControllerDocument is the document the method was found in when that document is
	// the controller's own. It is nil when the method was loaded on its own.
	ControllerDocument map[string]interface{}
}

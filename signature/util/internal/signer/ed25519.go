/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package signer

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/api"
)

const algEdDSA = "EdDSA"

// NewEd25519Signer creates an Ed25519 signer with a generated key.
func NewEd25519Signer() (*Ed25519Signer, error) {
	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	return &Ed25519Signer{privateKey: privKey, PubKey: pubKey}, nil
}

// GetEd25519Signer creates an Ed25519 signer from privKey.
func GetEd25519Signer(privKey ed25519.PrivateKey) *Ed25519Signer {
	pubKey, _ := privKey.Public().(ed25519.PublicKey) //nolint:errcheck

	return &Ed25519Signer{privateKey: privKey, PubKey: pubKey}
}

// Ed25519Signer makes Ed25519 signatures.
type Ed25519Signer struct {
	privateKey ed25519.PrivateKey
	PubKey     ed25519.PublicKey
}

// PublicKey returns the ed25519.PublicKey.
func (s *Ed25519Signer) PublicKey() interface{} {
	return s.PubKey
}

// PrivateKey returns the ed25519.PrivateKey.
func (s *Ed25519Signer) PrivateKey() interface{} {
	return s.privateKey
}

// Alg returns EdDSA.
func (s *Ed25519Signer) Alg() string {
	return algEdDSA
}

// Sign signs msg. Ed25519 hashes internally so params are not consulted.
func (s *Ed25519Signer) Sign(ctx context.Context, msg []byte, _ *api.SignatureParams) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if l := len(s.privateKey); l != ed25519.PrivateKeySize {
		return nil, errors.New("ed25519: bad private key length")
	}

	return ed25519.Sign(s.privateKey, msg), nil
}

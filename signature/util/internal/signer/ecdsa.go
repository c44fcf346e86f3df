/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package signer

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/api"
)

const (
	p256KeySize      = 32
	p384KeySize      = 48
	p521KeySize      = 66
	secp256k1KeySize = 32
)

type ecCurve struct {
	alg     string
	hash    crypto.Hash
	keySize int
}

func curveInfo(curve elliptic.Curve) (ecCurve, error) {
	switch {
	case curve == elliptic.P256():
		return ecCurve{alg: "ES256", hash: crypto.SHA256, keySize: p256KeySize}, nil
	case curve == elliptic.P384():
		return ecCurve{alg: "ES384", hash: crypto.SHA384, keySize: p384KeySize}, nil
	case curve == elliptic.P521():
		return ecCurve{alg: "ES512", hash: crypto.SHA512, keySize: p521KeySize}, nil
	case curve == btcec.S256():
		return ecCurve{alg: "ES256K", hash: crypto.SHA256, keySize: secp256k1KeySize}, nil
	}

	return ecCurve{}, fmt.Errorf("ecdsa: unsupported curve %s", curve.Params().Name)
}

// ECDSASigner makes ECDSA signatures in the JWS r||s form.
type ECDSASigner struct {
	privateKey *ecdsa.PrivateKey
	curve      ecCurve
}

// GetECDSASigner creates an ECDSA signer from privKey. P-256, P-384, P-521 and secp256k1 are supported.
func GetECDSASigner(privKey *ecdsa.PrivateKey) (*ECDSASigner, error) {
	c, err := curveInfo(privKey.Curve)
	if err != nil {
		return nil, err
	}

	return &ECDSASigner{privateKey: privKey, curve: c}, nil
}

// NewECDSASigner creates an ECDSA signer with a generated key on curve.
func NewECDSASigner(curve elliptic.Curve) (*ECDSASigner, error) {
	privKey, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, err
	}

	return GetECDSASigner(privKey)
}

// NewECDSASecp256k1Signer creates a secp256k1 signer with a generated key.
func NewECDSASecp256k1Signer() (*ECDSASigner, error) {
	return NewECDSASigner(btcec.S256())
}

// PublicKey returns the *ecdsa.PublicKey.
func (s *ECDSASigner) PublicKey() interface{} {
	return &s.privateKey.PublicKey
}

// PrivateKey returns the *ecdsa.PrivateKey.
func (s *ECDSASigner) PrivateKey() interface{} {
	return s.privateKey
}

// Alg returns the JWS algorithm of the key's curve.
func (s *ECDSASigner) Alg() string {
	return s.curve.alg
}

// Sign hashes msg with the curve's hash, or params.Hash when set, and signs it.
func (s *ECDSASigner) Sign(ctx context.Context, msg []byte, params *api.SignatureParams) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := s.curve.hash
	if params != nil && params.Hash != 0 {
		hash = params.Hash
	}

	if !hash.Available() {
		return nil, errors.New("ecdsa: hash unavailable")
	}

	hasher := hash.New()
	hasher.Write(msg) //nolint:errcheck

	r, sv, err := ecdsa.Sign(rand.Reader, s.privateKey, hasher.Sum(nil))
	if err != nil {
		return nil, err
	}

	size := s.curve.keySize
	signature := make([]byte, 2*size)

	r.FillBytes(signature[:size])
	sv.FillBytes(signature[size:])

	return signature, nil
}

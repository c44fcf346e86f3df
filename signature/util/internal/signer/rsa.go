/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package signer

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	_ "crypto/sha256" // registers SHA-256 for crypto.Hash
	_ "crypto/sha512" // registers SHA-384 and SHA-512 for crypto.Hash
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/api"
)

const (
	rsaDefaultKeySize = 2048

	// PSSSaltLength is the salt length used for PS256 unless told otherwise.
	PSSSaltLength = 32
)

// RSASigner makes RSA-PSS or RSA PKCS#1 v1.5 signatures.
type RSASigner struct {
	privateKey *rsa.PrivateKey
	alg        string
}

// GetRSASigner creates an RSA signer for alg (PS256, PS384, PS512 or RS256) from privKey.
func GetRSASigner(privKey *rsa.PrivateKey, alg string) *RSASigner {
	return &RSASigner{privateKey: privKey, alg: alg}
}

// NewPS256Signer creates a PS256 signer with a generated 2048 bit key.
func NewPS256Signer() (*RSASigner, error) {
	return newRSASigner("PS256")
}

// NewRS256Signer creates an RS256 signer with a generated 2048 bit key.
func NewRS256Signer() (*RSASigner, error) {
	return newRSASigner("RS256")
}

func newRSASigner(alg string) (*RSASigner, error) {
	privKey, err := rsa.GenerateKey(rand.Reader, rsaDefaultKeySize)
	if err != nil {
		return nil, err
	}

	return GetRSASigner(privKey, alg), nil
}

// PublicKey returns the *rsa.PublicKey.
func (s *RSASigner) PublicKey() interface{} {
	return &s.privateKey.PublicKey
}

// PrivateKey returns the *rsa.PrivateKey.
func (s *RSASigner) PrivateKey() interface{} {
	return s.privateKey
}

// Alg returns the algorithm the signer was created for.
func (s *RSASigner) Alg() string {
	return s.alg
}

// Sign signs msg. params override the signer's algorithm, hash and PSS salt length.
func (s *RSASigner) Sign(ctx context.Context, msg []byte, params *api.SignatureParams) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := RSAParams(s.alg)
	if params != nil {
		p = mergeRSAParams(p, params)
	}

	if !p.Hash.Available() {
		return nil, fmt.Errorf("rsa: hash unavailable for %s", p.Algorithm)
	}

	hasher := p.Hash.New()
	hasher.Write(msg) //nolint:errcheck
	hashed := hasher.Sum(nil)

	if strings.HasPrefix(p.Algorithm, "RS") {
		return rsa.SignPKCS1v15(rand.Reader, s.privateKey, p.Hash, hashed)
	}

	return rsa.SignPSS(rand.Reader, s.privateKey, p.Hash, hashed,
		&rsa.PSSOptions{SaltLength: p.SaltLength, Hash: p.Hash})
}

// RSAParams returns the default parameters of an RSA JWS algorithm. Unknown names get PS256.
func RSAParams(alg string) api.SignatureParams {
	switch alg {
	case "PS384":
		return api.SignatureParams{Algorithm: alg, Hash: crypto.SHA384, SaltLength: crypto.SHA384.Size()}
	case "PS512":
		return api.SignatureParams{Algorithm: alg, Hash: crypto.SHA512, SaltLength: crypto.SHA512.Size()}
	case "RS256":
		return api.SignatureParams{Algorithm: alg, Hash: crypto.SHA256}
	case "RS384":
		return api.SignatureParams{Algorithm: alg, Hash: crypto.SHA384}
	case "RS512":
		return api.SignatureParams{Algorithm: alg, Hash: crypto.SHA512}
	default:
		return api.SignatureParams{Algorithm: "PS256", Hash: crypto.SHA256, SaltLength: PSSSaltLength}
	}
}

func mergeRSAParams(base api.SignatureParams, params *api.SignatureParams) api.SignatureParams {
	if params.Algorithm != "" && params.Algorithm != base.Algorithm {
		base = RSAParams(params.Algorithm)
	}

	if params.Hash != 0 {
		base.Hash = params.Hash
	}

	if params.SaltLength != 0 {
		base.SaltLength = params.SaltLength
	}

	return base
}

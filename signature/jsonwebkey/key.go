/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jsonwebkey adapts JSON Web Keys and external signers to the signing and
// verification needs of JsonWebSignature2020 proofs.
package jsonwebkey

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose/jwk"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/api"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/util"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/verifier"
)

var logger = log.New("ldproof/jsonwebkey")

// ErrParamsUnresolved is returned by Params when an external signer's algorithm can only be
// learned from its verification method. Bind the key to the resolved method first.
var ErrParamsUnresolved = errors.New("signature parameters not resolved")

// Key wraps one key pair, one public key or one external signer. It is immutable.
type Key struct {
	id         string
	jwk        *jwk.JWK
	publicKey  *api.PublicKey
	signer     api.Signer
	methodType string
	algorithm  string
	params     *api.SignatureParams
	policy     *Policy
}

// Opt configures a Key.
type Opt func(*Key)

// WithPolicy sets the parameter selection policy. DefaultPolicy is used otherwise.
func WithPolicy(p *Policy) Opt {
	return func(k *Key) {
		k.policy = p
	}
}

// WithAlgorithm pins the JWS algorithm, bypassing key inspection.
func WithAlgorithm(alg string) Opt {
	return func(k *Key) {
		k.algorithm = alg
	}
}

// WithMethodType records the verification method type, e.g. JsonWebKey2020.
func WithMethodType(t string) Opt {
	return func(k *Key) {
		k.methodType = t
	}
}

func newKey(id string, opts []Opt) *Key {
	k := &Key{id: id}

	for _, opt := range opts {
		opt(k)
	}

	if k.policy == nil {
		k.policy = DefaultPolicy()
	}

	return k
}

// New creates a key from a private or public JWK. id is the verification method id.
func New(id string, key *jwk.JWK, opts ...Opt) (*Key, error) {
	if key == nil || key.Key == nil {
		return nil, errors.New("jwk is empty")
	}

	k := newKey(id, opts)
	k.jwk = key

	pub := key.Public()
	k.publicKey = &api.PublicKey{
		Type: k.methodType,
		JWK:  &jwk.JWK{JSONWebKey: pub, Kty: key.Kty, Crv: key.Crv},
	}

	params, err := k.policy.Params(k.keyInfo())
	if err != nil {
		return nil, err
	}

	k.params = params

	if key.IsPublic() {
		return k, nil
	}

	s, err := util.GetSigner(key)
	if err != nil {
		return nil, err
	}

	k.signer = s

	return k, nil
}

// NewFromSigner creates a signing key backed by s, e.g. a KMS. When neither WithAlgorithm nor
// s.Alg() names the algorithm, parameters stay unresolved until Bind.
func NewFromSigner(id string, s api.Signer, opts ...Opt) (*Key, error) {
	if s == nil {
		return nil, errors.New("signer is nil")
	}

	k := newKey(id, opts)
	k.signer = s

	if k.algorithm == "" {
		k.algorithm = s.Alg()
	}

	if k.algorithm != "" {
		params, err := ParamsForAlgorithm(k.algorithm)
		if err != nil {
			return nil, err
		}

		k.params = params
	}

	return k, nil
}

// FromVerificationMethod creates a verify-only key from a resolved method.
func FromVerificationMethod(vm *api.VerificationMethod, opts ...Opt) (*Key, error) {
	if vm == nil || vm.PublicKey == nil {
		return nil, fmt.Errorf("%w: verification method has no key", api.ErrMissingKeyMaterial)
	}

	k := newKey(vm.ID, append([]Opt{WithMethodType(vm.Type)}, opts...))
	k.jwk = vm.PublicKey.JWK
	k.publicKey = vm.PublicKey

	params, err := k.policy.Params(k.keyInfo())
	if err != nil {
		return nil, err
	}

	k.params = params

	return k, nil
}

// Bind returns a copy of k whose unresolved parameters are derived from vm.
// A key with known parameters is returned as is once vm's key type admits its algorithm.
func (k *Key) Bind(vm *api.VerificationMethod) (*Key, error) {
	if k.params != nil {
		if vm == nil {
			return k, nil
		}

		info := KeyInfo{MethodType: vm.Type, MethodID: vm.ID}
		if vm.PublicKey != nil {
			info.JWK = vm.PublicKey.JWK
		}

		if err := CheckAlgorithm(k.params.Algorithm, info); err != nil {
			return nil, fmt.Errorf("verification method %s: %w", vm.ID, err)
		}

		return k, nil
	}

	bound := *k

	if vm != nil {
		bound.methodType = vm.Type

		if vm.PublicKey != nil {
			bound.jwk = vm.PublicKey.JWK
		}
	}

	params, err := bound.policy.Params(bound.keyInfo())
	if err != nil {
		return nil, err
	}

	bound.params = params

	return &bound, nil
}

func (k *Key) keyInfo() KeyInfo {
	return KeyInfo{Algorithm: k.algorithm, JWK: k.jwk, MethodType: k.methodType, MethodID: k.id}
}

// ID is the verification method id.
func (k *Key) ID() string {
	return k.id
}

// Algorithm is the JWS algorithm, or "" while parameters are unresolved.
func (k *Key) Algorithm() string {
	if k.params == nil {
		return ""
	}

	return k.params.Algorithm
}

// Params returns a copy of the signature parameters.
func (k *Key) Params() (*api.SignatureParams, error) {
	if k.params == nil {
		return nil, ErrParamsUnresolved
	}

	p := *k.params

	return &p, nil
}

// Signer returns the signer. It fails with api.ErrMissingKeyMaterial for public keys.
func (k *Key) Signer() (api.Signer, error) {
	if k.signer == nil {
		return nil, fmt.Errorf("%w: %s", api.ErrMissingKeyMaterial, k.id)
	}

	return &boundSigner{key: k}, nil
}

// Verifier returns a verifier for the public key.
func (k *Key) Verifier() (api.Verifier, error) {
	if k.publicKey == nil {
		return nil, fmt.Errorf("%w: no public key for %s", api.ErrMissingKeyMaterial, k.id)
	}

	return &boundVerifier{key: k, v: verifier.NewPublicKeyVerifier(k.publicKey)}, nil
}

// PublicKey returns the public key, or nil for a key backed by an external signer.
func (k *Key) PublicKey() *api.PublicKey {
	return k.publicKey
}

// boundSigner applies the key's parameters unless the caller passes its own.
type boundSigner struct {
	key *Key
}

func (s *boundSigner) Sign(ctx context.Context, data []byte, params *api.SignatureParams) ([]byte, error) {
	if params == nil {
		p, err := s.key.Params()
		if err != nil {
			return nil, err
		}

		params = p
	}

	return s.key.signer.Sign(ctx, data, params)
}

func (s *boundSigner) Alg() string {
	return s.key.Algorithm()
}

type boundVerifier struct {
	key *Key
	v   *verifier.PublicKeyVerifier
}

func (v *boundVerifier) Verify(ctx context.Context, data, signature []byte, params *api.SignatureParams) error {
	if params == nil {
		p, err := v.key.Params()
		if err != nil {
			return err
		}

		params = p
	}

	return v.v.Verify(ctx, data, signature, params)
}

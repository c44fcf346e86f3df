/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jsonwebkey

import (
	"context"
	"testing"

	"github.com/go-jose/go-jose/v3"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose/jwk"
	kmsapi "github.com/hyperledger/aries-framework-go/spi/kms"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/api"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/util"
)

var data = []byte("signing input")

func newTestKey(t *testing.T, keyType kmsapi.KeyType, opts ...Opt) (*Key, util.Signer) {
	t.Helper()

	s, err := util.NewSigner(keyType)
	require.NoError(t, err)

	k, err := New("did:example:123#key-1", &jwk.JWK{JSONWebKey: jose.JSONWebKey{Key: s.PrivateKey()}}, opts...)
	require.NoError(t, err)

	return k, s
}

// unknownAlgSigner hides the algorithm of the signer it wraps, like a remote KMS would.
type unknownAlgSigner struct {
	api.Signer
	params *api.SignatureParams
}

func (s *unknownAlgSigner) Alg() string {
	return ""
}

func (s *unknownAlgSigner) Sign(ctx context.Context, d []byte, params *api.SignatureParams) ([]byte, error) {
	s.params = params

	return s.Signer.Sign(ctx, d, params)
}

func TestKey_SignVerify(t *testing.T) {
	tests := []struct {
		keyType kmsapi.KeyType
		alg     string
	}{
		{kmsapi.ED25519Type, "EdDSA"},
		{kmsapi.ECDSAP256TypeIEEEP1363, "ES256"},
		{kmsapi.ECDSAP384TypeIEEEP1363, "ES384"},
		{kmsapi.ECDSAP521TypeIEEEP1363, "ES512"},
		{kmsapi.ECDSASecp256k1TypeIEEEP1363, "ES256K"},
		{kmsapi.RSAPS256Type, "PS256"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.alg, func(t *testing.T) {
			k, _ := newTestKey(t, tc.keyType)
			require.Equal(t, tc.alg, k.Algorithm())
			require.Equal(t, "did:example:123#key-1", k.ID())

			s, err := k.Signer()
			require.NoError(t, err)
			require.Equal(t, tc.alg, s.Alg())

			sig, err := s.Sign(context.Background(), data, nil)
			require.NoError(t, err)

			v, err := k.Verifier()
			require.NoError(t, err)
			require.NoError(t, v.Verify(context.Background(), data, sig, nil))

			err = v.Verify(context.Background(), []byte("other input"), sig, nil)
			require.ErrorIs(t, err, api.ErrInvalidSignature)
		})
	}
}

func TestKey_RSASaltLength(t *testing.T) {
	k, _ := newTestKey(t, kmsapi.RSAPS256Type)

	params, err := k.Params()
	require.NoError(t, err)
	require.Equal(t, 32, params.SaltLength)

	s, err := k.Signer()
	require.NoError(t, err)

	v, err := k.Verifier()
	require.NoError(t, err)

	sig, err := s.Sign(context.Background(), data, &api.SignatureParams{Algorithm: "PS256", SaltLength: 64})
	require.NoError(t, err)

	require.ErrorIs(t, v.Verify(context.Background(), data, sig, nil), api.ErrInvalidSignature)
	require.NoError(t, v.Verify(context.Background(), data, sig,
		&api.SignatureParams{Algorithm: "PS256", SaltLength: 64}))
}

func TestKey_PublicOnly(t *testing.T) {
	s, err := util.NewSigner(kmsapi.ED25519Type)
	require.NoError(t, err)

	k, err := New("did:example:123#key-1", &jwk.JWK{JSONWebKey: jose.JSONWebKey{Key: s.PublicKey()}})
	require.NoError(t, err)

	_, err = k.Signer()
	require.ErrorIs(t, err, api.ErrMissingKeyMaterial)

	sig, err := s.Sign(context.Background(), data, nil)
	require.NoError(t, err)

	v, err := k.Verifier()
	require.NoError(t, err)
	require.NoError(t, v.Verify(context.Background(), data, sig, nil))

	_, err = New("did:example:123#key-1", nil)
	require.Error(t, err)
}

func TestKey_WithAlgorithm(t *testing.T) {
	k, _ := newTestKey(t, kmsapi.RSAPS256Type, WithAlgorithm("RS256"))
	require.Equal(t, "RS256", k.Algorithm())

	s, err := k.Signer()
	require.NoError(t, err)

	sig, err := s.Sign(context.Background(), data, nil)
	require.NoError(t, err)

	v, err := k.Verifier()
	require.NoError(t, err)
	require.NoError(t, v.Verify(context.Background(), data, sig, nil))

	t.Run("algorithm of another key type", func(t *testing.T) {
		s, err := util.NewSigner(kmsapi.ECDSAP256TypeIEEEP1363)
		require.NoError(t, err)

		_, err = New("did:example:123#key-1", &jwk.JWK{JSONWebKey: jose.JSONWebKey{Key: s.PrivateKey()}},
			WithAlgorithm("PS256"))
		require.ErrorIs(t, err, api.ErrUnsupportedAlgorithm)
		require.Contains(t, err.Error(), "PS256 cannot be used with a ES256 key")

		_, err = New("did:example:123#key-1", &jwk.JWK{JSONWebKey: jose.JSONWebKey{Key: s.PrivateKey()}},
			WithAlgorithm("ES384"))
		require.ErrorIs(t, err, api.ErrUnsupportedAlgorithm)
	})
}

func TestNewFromSigner(t *testing.T) {
	rsaSigner, err := util.NewSigner(kmsapi.RSAPS256Type)
	require.NoError(t, err)

	t.Run("algorithm known from the signer", func(t *testing.T) {
		k, err := NewFromSigner("did:example:123#key-1", rsaSigner)
		require.NoError(t, err)
		require.Equal(t, "PS256", k.Algorithm())
		require.Nil(t, k.PublicKey())

		_, err = k.Verifier()
		require.ErrorIs(t, err, api.ErrMissingKeyMaterial)
	})

	t.Run("did:web fallback after binding", func(t *testing.T) {
		external := &unknownAlgSigner{Signer: rsaSigner}

		k, err := NewFromSigner("did:web:example.com#key-1", external)
		require.NoError(t, err)
		require.Empty(t, k.Algorithm())

		_, err = k.Params()
		require.ErrorIs(t, err, ErrParamsUnresolved)

		s, err := k.Signer()
		require.NoError(t, err)

		_, err = s.Sign(context.Background(), data, nil)
		require.ErrorIs(t, err, ErrParamsUnresolved)

		bound, err := k.Bind(&api.VerificationMethod{ID: "did:web:example.com#key-1", Type: "JsonWebKey2020"})
		require.NoError(t, err)
		require.Equal(t, "PS256", bound.Algorithm())

		s, err = bound.Signer()
		require.NoError(t, err)

		_, err = s.Sign(context.Background(), data, nil)
		require.NoError(t, err)
		require.Equal(t, 32, external.params.SaltLength)
	})

	t.Run("binding uses the method's JWK", func(t *testing.T) {
		k, err := NewFromSigner("did:web:example.com#key-1", &unknownAlgSigner{Signer: rsaSigner})
		require.NoError(t, err)

		bound, err := k.Bind(&api.VerificationMethod{
			ID:        "did:web:example.com#key-1",
			PublicKey: &api.PublicKey{JWK: &jwk.JWK{Kty: "EC", Crv: "P-384"}},
		})
		require.NoError(t, err)
		require.Equal(t, "ES384", bound.Algorithm())
	})

	t.Run("pinned algorithm checked against the method's JWK", func(t *testing.T) {
		k, err := NewFromSigner("did:web:example.com#key-1", &unknownAlgSigner{Signer: rsaSigner},
			WithAlgorithm("PS256"))
		require.NoError(t, err)

		_, err = k.Bind(&api.VerificationMethod{
			ID:        "did:web:example.com#key-1",
			PublicKey: &api.PublicKey{JWK: &jwk.JWK{Kty: "EC", Crv: "P-384"}},
		})
		require.ErrorIs(t, err, api.ErrUnsupportedAlgorithm)

		bound, err := k.Bind(&api.VerificationMethod{
			ID:        "did:web:example.com#key-1",
			PublicKey: &api.PublicKey{JWK: &jwk.JWK{Kty: "RSA"}},
		})
		require.NoError(t, err)
		require.Equal(t, "PS256", bound.Algorithm())

		_, err = k.Bind(&api.VerificationMethod{ID: "did:web:example.com#key-1", Type: "Ed25519VerificationKey2018"})
		require.ErrorIs(t, err, api.ErrUnsupportedAlgorithm)

		bound, err = k.Bind(nil)
		require.NoError(t, err)
		require.Equal(t, "PS256", bound.Algorithm())
	})

	t.Run("fallback disabled", func(t *testing.T) {
		k, err := NewFromSigner("did:web:example.com#key-1", &unknownAlgSigner{Signer: rsaSigner},
			WithPolicy(NewPolicy(WithoutSchemeFallback())))
		require.NoError(t, err)

		_, err = k.Bind(nil)
		require.ErrorIs(t, err, api.ErrUnsupportedAlgorithm)
	})

	_, err = NewFromSigner("did:example:123#key-1", nil)
	require.Error(t, err)

	_, err = NewFromSigner("did:example:123#key-1", rsaSigner, WithAlgorithm("none"))
	require.ErrorIs(t, err, api.ErrUnsupportedAlgorithm)
}

func TestFromVerificationMethod(t *testing.T) {
	_, s := newTestKey(t, kmsapi.ECDSASecp256k1TypeIEEEP1363)

	vm := &api.VerificationMethod{
		ID:        "did:example:123#key-1",
		Type:      "JsonWebKey2020",
		PublicKey: &api.PublicKey{JWK: &jwk.JWK{JSONWebKey: jose.JSONWebKey{Key: s.PublicKey()}}},
	}

	k, err := FromVerificationMethod(vm)
	require.NoError(t, err)
	require.Equal(t, "ES256K", k.Algorithm())

	sig, err := s.Sign(context.Background(), data, nil)
	require.NoError(t, err)

	v, err := k.Verifier()
	require.NoError(t, err)
	require.NoError(t, v.Verify(context.Background(), data, sig, nil))

	_, err = FromVerificationMethod(&api.VerificationMethod{ID: "did:example:123#key-1"})
	require.ErrorIs(t, err, api.ErrMissingKeyMaterial)
}

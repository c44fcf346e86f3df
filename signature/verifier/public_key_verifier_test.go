/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifier

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec"
	gojose "github.com/go-jose/go-jose/v3"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose/jwk"
	kmsapi "github.com/hyperledger/aries-framework-go/spi/kms"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/api"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/util"
)

type testSignatureVerifier struct {
	baseSignatureVerifier

	verifyResult error
}

func (v testSignatureVerifier) Verify(*api.PublicKey, []byte, []byte, *api.SignatureParams) error {
	return v.verifyResult
}

func TestNewPublicKeyVerifier(t *testing.T) {
	var (
		publicKey = &api.PublicKey{
			Type: "TestType",
			JWK: &jwk.JWK{
				JSONWebKey: gojose.JSONWebKey{
					Algorithm: "alg",
				},
				Kty: "kty",
				Crv: "crv",
			},
		}

		msg    = []byte("message to sign")
		msgSig = []byte("signature")
		params = &api.SignatureParams{Algorithm: "alg"}

		signatureVerifier = &testSignatureVerifier{
			baseSignatureVerifier: baseSignatureVerifier{
				keyType:   "kty",
				curve:     "crv",
				algorithm: "alg",
			},
		}
	)

	v := NewPublicKeyVerifier(publicKey, WithSignatureVerifiers(signatureVerifier))
	require.NoError(t, v.Verify(context.Background(), msg, msgSig, params))

	t.Run("match JWK key type", func(t *testing.T) {
		publicKey.JWK.Kty = "invalid kty"

		err := v.Verify(context.Background(), msg, msgSig, params)
		require.ErrorIs(t, err, api.ErrInvalidSignature)

		publicKey.JWK.Kty = "kty"
	})

	t.Run("match JWK curve", func(t *testing.T) {
		publicKey.JWK.Crv = "invalid crv"

		err := v.Verify(context.Background(), msg, msgSig, params)
		require.ErrorIs(t, err, api.ErrInvalidSignature)

		publicKey.JWK.Crv = "crv"
	})

	t.Run("match JWK algorithm", func(t *testing.T) {
		publicKey.JWK.Algorithm = "invalid alg"

		err := v.Verify(context.Background(), msg, msgSig, params)
		require.ErrorIs(t, err, api.ErrInvalidSignature)

		publicKey.JWK.Algorithm = "alg"
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		err := v.Verify(context.Background(), msg, msgSig, &api.SignatureParams{Algorithm: "HS256"})
		require.ErrorIs(t, err, api.ErrUnsupportedAlgorithm)

		err = v.Verify(context.Background(), msg, msgSig, nil)
		require.ErrorIs(t, err, api.ErrUnsupportedAlgorithm)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.ErrorIs(t, v.Verify(ctx, msg, msgSig, params), context.Canceled)
	})

	signatureVerifier.verifyResult = errors.New("invalid signature")
	require.EqualError(t, v.Verify(context.Background(), msg, msgSig, params), "invalid signature")
}

func TestPublicKeyVerifier_KeyTypes(t *testing.T) {
	msg := []byte("test message")

	tests := []struct {
		name    string
		keyType kmsapi.KeyType
		alg     string
	}{
		{"Ed25519", kmsapi.ED25519Type, "EdDSA"},
		{"P-256", kmsapi.ECDSAP256TypeIEEEP1363, "ES256"},
		{"P-384", kmsapi.ECDSAP384TypeIEEEP1363, "ES384"},
		{"P-521", kmsapi.ECDSAP521TypeIEEEP1363, "ES512"},
		{"secp256k1", kmsapi.ECDSASecp256k1TypeIEEEP1363, "ES256K"},
		{"RSA PS256", kmsapi.RSAPS256Type, "PS256"},
		{"RSA RS256", kmsapi.RSARS256Type, "RS256"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s, err := util.NewSigner(tc.keyType)
			require.NoError(t, err)

			sig, err := s.Sign(context.Background(), msg, nil)
			require.NoError(t, err)

			v := NewPublicKeyVerifier(&api.PublicKey{JWK: &jwk.JWK{JSONWebKey: gojose.JSONWebKey{Key: s.PublicKey()}}})
			params := &api.SignatureParams{Algorithm: tc.alg}

			require.NoError(t, v.Verify(context.Background(), msg, sig, params))

			err = v.Verify(context.Background(), []byte("different message"), sig, params)
			require.ErrorIs(t, err, api.ErrInvalidSignature)
		})
	}
}

func TestEd25519SignatureVerifier_Verify(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	msg := []byte("test message")
	sig := ed25519.Sign(priv, msg)

	v := NewEd25519SignatureVerifier()
	require.NoError(t, v.Verify(&api.PublicKey{Value: pub}, msg, sig, nil))

	err = v.Verify(&api.PublicKey{Value: []byte("invalid-key")}, msg, sig, nil)
	require.ErrorIs(t, err, api.ErrInvalidSignature)

	err = v.Verify(&api.PublicKey{Value: pub}, msg, []byte("invalid signature"), nil)
	require.ErrorIs(t, err, api.ErrInvalidSignature)
}

func TestRSASignatureVerifier_SaltLength(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	msg := []byte("test message")
	digest := sha256.Sum256(msg)

	sig, err := rsa.SignPSS(rand.Reader, priv, crypto.SHA256, digest[:], &rsa.PSSOptions{SaltLength: 32})
	require.NoError(t, err)

	pubKey := &api.PublicKey{Value: x509.MarshalPKCS1PublicKey(&priv.PublicKey)}
	v := NewRSAPSSSignatureVerifier("PS256")

	require.NoError(t, v.Verify(pubKey, msg, sig, nil))
	require.NoError(t, v.Verify(pubKey, msg, sig, &api.SignatureParams{Algorithm: "PS256", SaltLength: 32}))

	err = v.Verify(pubKey, msg, sig, &api.SignatureParams{Algorithm: "PS256", SaltLength: 64})
	require.ErrorIs(t, err, api.ErrInvalidSignature)

	err = v.Verify(&api.PublicKey{Value: []byte("not a key")}, msg, sig, nil)
	require.ErrorIs(t, err, api.ErrInvalidSignature)

	err = v.Verify(&api.PublicKey{JWK: &jwk.JWK{JSONWebKey: gojose.JSONWebKey{Key: ed25519.PublicKey{}}}}, msg, sig, nil)
	require.ErrorIs(t, err, api.ErrInvalidSignature)
}

func TestECDSASignatureVerifier_RawKeys(t *testing.T) {
	msg := []byte("test message")
	digest := sha256.Sum256(msg)

	t.Run("uncompressed P-256 key", func(t *testing.T) {
		priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)

		r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
		require.NoError(t, err)

		sig := make([]byte, 64)
		r.FillBytes(sig[:32])
		s.FillBytes(sig[32:])

		//nolint:staticcheck
		pubKey := &api.PublicKey{Value: elliptic.Marshal(elliptic.P256(), priv.X, priv.Y)}

		require.NoError(t, NewECDSAES256SignatureVerifier().Verify(pubKey, msg, sig, nil))

		derSig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
		require.NoError(t, err)

		err = NewECDSAES256SignatureVerifier().Verify(pubKey, msg, derSig, nil)
		require.ErrorIs(t, err, api.ErrInvalidSignature)
		require.Contains(t, err.Error(), "invalid signature size")

		err = NewECDSAES256SignatureVerifier().Verify(pubKey, msg, append(sig, 0), nil)
		require.ErrorIs(t, err, api.ErrInvalidSignature)

		err = NewECDSAES256SignatureVerifier().Verify(&api.PublicKey{Value: []byte("bad")}, msg, sig, nil)
		require.ErrorIs(t, err, api.ErrInvalidSignature)
	})

	t.Run("compressed secp256k1 key", func(t *testing.T) {
		priv, err := btcec.NewPrivateKey(btcec.S256())
		require.NoError(t, err)

		s, err := util.GetSigner(&jwk.JWK{JSONWebKey: gojose.JSONWebKey{Key: priv.ToECDSA()}})
		require.NoError(t, err)

		sig, err := s.Sign(context.Background(), msg, nil)
		require.NoError(t, err)

		pubKey := &api.PublicKey{Value: priv.PubKey().SerializeCompressed()}
		v := NewECDSASecp256k1SignatureVerifier()

		require.NoError(t, v.Verify(pubKey, msg, sig, nil))

		err = v.Verify(pubKey, msg, sig[:10], nil)
		require.ErrorIs(t, err, api.ErrInvalidSignature)

		err = v.Verify(&api.PublicKey{Value: []byte("bad")}, msg, sig, nil)
		require.ErrorIs(t, err, api.ErrInvalidSignature)
	})
}

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
	"crypto/rsa"
	_ "crypto/sha256" // registers SHA-256 for crypto.Hash
	_ "crypto/sha512" // registers SHA-384 and SHA-512 for crypto.Hash
	"crypto/x509"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/api"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/util"
)

// PublicKeyVerifier verifies signatures made by the holder of one public key.
// The algorithm is taken from the SignatureParams of each call.
type PublicKeyVerifier struct {
	key       *api.PublicKey
	verifiers []SignatureVerifier
}

// PublicKeyVerifierOpt is the PublicKeyVerifier functional option.
type PublicKeyVerifierOpt func(opts *PublicKeyVerifier)

// WithSignatureVerifiers replaces the default set of algorithms.
func WithSignatureVerifiers(verifiers ...SignatureVerifier) PublicKeyVerifierOpt {
	return func(opts *PublicKeyVerifier) {
		opts.verifiers = verifiers
	}
}

// NewPublicKeyVerifier creates a verifier for key supporting EdDSA, ES256, ES384, ES512,
// ES256K, PS256, PS384, PS512 and RS256.
func NewPublicKeyVerifier(key *api.PublicKey, opts ...PublicKeyVerifierOpt) *PublicKeyVerifier {
	v := &PublicKeyVerifier{
		key: key,
		verifiers: []SignatureVerifier{
			NewEd25519SignatureVerifier(),
			NewECDSAES256SignatureVerifier(),
			NewECDSAES384SignatureVerifier(),
			NewECDSAES512SignatureVerifier(),
			NewECDSASecp256k1SignatureVerifier(),
			NewRSAPSSSignatureVerifier("PS256"),
			NewRSAPSSSignatureVerifier("PS384"),
			NewRSAPSSSignatureVerifier("PS512"),
			NewRSARS256SignatureVerifier(),
		},
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Verify checks signature over msg with the algorithm named in params.
func (pkv *PublicKeyVerifier) Verify(ctx context.Context, msg, signature []byte, params *api.SignatureParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if params == nil || params.Algorithm == "" {
		return fmt.Errorf("%w: no algorithm given", api.ErrUnsupportedAlgorithm)
	}

	for _, v := range pkv.verifiers {
		if v.Algorithm() != params.Algorithm {
			continue
		}

		if pkv.key.JWK != nil && !matchJWK(v, pkv.key) {
			return fmt.Errorf("%w: %s does not match the %s key", api.ErrInvalidSignature, params.Algorithm, pkv.key.JWK.Kty)
		}

		return v.Verify(pkv.key, msg, signature, params)
	}

	return fmt.Errorf("%w: %s", api.ErrUnsupportedAlgorithm, params.Algorithm)
}

func matchJWK(v SignatureVerifier, key *api.PublicKey) bool {
	j := key.JWK

	if j.Kty != "" && v.KeyType() != j.Kty {
		return false
	}

	if j.Crv != "" && v.Curve() != "" && v.Curve() != j.Crv {
		return false
	}

	// "alg" is optional in a JWK; RSA keys may be used with any RSA algorithm
	if j.Algorithm != "" && v.KeyType() != "RSA" && v.Algorithm() != j.Algorithm {
		return false
	}

	return true
}

// SignatureVerifier verifies signatures of one algorithm.
type SignatureVerifier interface {
	KeyType() string

	Curve() string

	Algorithm() string

	Verify(pubKey *api.PublicKey, msg, signature []byte, params *api.SignatureParams) error
}

type baseSignatureVerifier struct {
	keyType   string
	curve     string
	algorithm string
}

func (sv baseSignatureVerifier) KeyType() string {
	return sv.keyType
}

func (sv baseSignatureVerifier) Curve() string {
	return sv.curve
}

func (sv baseSignatureVerifier) Algorithm() string {
	return sv.algorithm
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", api.ErrInvalidSignature, fmt.Sprintf(format, args...))
}

// Ed25519SignatureVerifier verifies Ed25519 signatures.
type Ed25519SignatureVerifier struct {
	baseSignatureVerifier
}

// NewEd25519SignatureVerifier creates a new Ed25519SignatureVerifier.
func NewEd25519SignatureVerifier() *Ed25519SignatureVerifier {
	return &Ed25519SignatureVerifier{
		baseSignatureVerifier: baseSignatureVerifier{
			keyType:   "OKP",
			curve:     "Ed25519",
			algorithm: "EdDSA",
		},
	}
}

// Verify verifies the signature.
func (sv Ed25519SignatureVerifier) Verify(pubKey *api.PublicKey, msg, signature []byte, _ *api.SignatureParams) error {
	value := pubKey.Value

	if pubKey.JWK != nil {
		var ok bool

		value, ok = pubKey.JWK.Public().Key.(ed25519.PublicKey)
		if !ok {
			return invalid("ed25519: public key is %T", pubKey.JWK.Key)
		}
	}

	// ed25519.Verify panics on a wrong key size
	if len(value) != ed25519.PublicKeySize {
		return invalid("ed25519: invalid key")
	}

	if !ed25519.Verify(value, msg, signature) {
		return invalid("ed25519: signature mismatch")
	}

	return nil
}

// RSASignatureVerifier verifies RSA-PSS or RSA PKCS#1 v1.5 signatures.
type RSASignatureVerifier struct {
	baseSignatureVerifier

	defaults api.SignatureParams
}

// NewRSAPSSSignatureVerifier creates a verifier for PS256, PS384 or PS512.
func NewRSAPSSSignatureVerifier(alg string) *RSASignatureVerifier {
	return newRSAVerifier(alg)
}

// NewRSARS256SignatureVerifier creates a verifier for RS256.
func NewRSARS256SignatureVerifier() *RSASignatureVerifier {
	return newRSAVerifier("RS256")
}

func newRSAVerifier(alg string) *RSASignatureVerifier {
	return &RSASignatureVerifier{
		baseSignatureVerifier: baseSignatureVerifier{
			keyType:   "RSA",
			algorithm: alg,
		},
		defaults: util.RSAParams(alg),
	}
}

// Verify verifies the signature. A salt length in params takes precedence over the algorithm default.
func (sv RSASignatureVerifier) Verify(key *api.PublicKey, msg, signature []byte, params *api.SignatureParams) error {
	pubKey, err := rsaPublicKey(key)
	if err != nil {
		return err
	}

	p := sv.defaults
	if params != nil && params.Hash != 0 {
		p.Hash = params.Hash
	}

	if params != nil && params.SaltLength != 0 {
		p.SaltLength = params.SaltLength
	}

	hasher := p.Hash.New()
	hasher.Write(msg) //nolint:errcheck
	hashed := hasher.Sum(nil)

	if strings.HasPrefix(sv.algorithm, "RS") {
		err = rsa.VerifyPKCS1v15(pubKey, p.Hash, hashed, signature)
	} else {
		err = rsa.VerifyPSS(pubKey, p.Hash, hashed, signature, &rsa.PSSOptions{SaltLength: p.SaltLength, Hash: p.Hash})
	}

	if err != nil {
		return invalid("rsa: %s", err.Error())
	}

	return nil
}

func rsaPublicKey(key *api.PublicKey) (*rsa.PublicKey, error) {
	if key.JWK != nil {
		switch k := key.JWK.Key.(type) {
		case *rsa.PublicKey:
			return k, nil
		case *rsa.PrivateKey:
			return &k.PublicKey, nil
		default:
			return nil, invalid("rsa: public key is %T", key.JWK.Key)
		}
	}

	pubKey, err := x509.ParsePKCS1PublicKey(key.Value)
	if err != nil {
		return nil, invalid("rsa: invalid public key")
	}

	return pubKey, nil
}

const (
	p256KeySize      = 32
	p384KeySize      = 48
	p521KeySize      = 66
	secp256k1KeySize = 32
)

type ellipticCurve struct {
	curve   elliptic.Curve
	keySize int
	hash    crypto.Hash
}

// ECDSASignatureVerifier verifies elliptic curve signatures in the JWS r||s form.
type ECDSASignatureVerifier struct {
	baseSignatureVerifier

	ec ellipticCurve
}

// Verify verifies the signature.
func (sv *ECDSASignatureVerifier) Verify(pubKey *api.PublicKey, msg, signature []byte, _ *api.SignatureParams) error {
	ecdsaPubKey, err := sv.publicKey(pubKey)
	if err != nil {
		return err
	}

	ec := sv.ec

	// JWS carries r||s only; DER encodings are rejected.
	if len(signature) != 2*ec.keySize {
		return invalid("ecdsa: invalid signature size")
	}

	hasher := ec.hash.New()
	hasher.Write(msg) //nolint:errcheck
	hash := hasher.Sum(nil)

	r := new(big.Int).SetBytes(signature[:ec.keySize])
	s := new(big.Int).SetBytes(signature[ec.keySize:])

	if !ecdsa.Verify(ecdsaPubKey, hash, r, s) {
		return invalid("ecdsa: signature mismatch")
	}

	return nil
}

func (sv *ECDSASignatureVerifier) publicKey(pubKey *api.PublicKey) (*ecdsa.PublicKey, error) {
	if pubKey.JWK != nil {
		switch k := pubKey.JWK.Key.(type) {
		case *ecdsa.PublicKey:
			return k, nil
		case *ecdsa.PrivateKey:
			return &k.PublicKey, nil
		default:
			return nil, invalid("ecdsa: public key is %T", pubKey.JWK.Key)
		}
	}

	if sv.ec.curve == btcec.S256() {
		// raw secp256k1 keys are usually compressed
		k, err := btcec.ParsePubKey(pubKey.Value, btcec.S256())
		if err != nil {
			return nil, invalid("ecdsa: %s", err.Error())
		}

		return k.ToECDSA(), nil
	}

	x, y := elliptic.Unmarshal(sv.ec.curve, pubKey.Value)
	if x == nil {
		return nil, invalid("ecdsa: invalid public key")
	}

	return &ecdsa.PublicKey{Curve: sv.ec.curve, X: x, Y: y}, nil
}

func newECDSAVerifier(crv, alg string, ec ellipticCurve) *ECDSASignatureVerifier {
	return &ECDSASignatureVerifier{
		baseSignatureVerifier: baseSignatureVerifier{
			keyType:   "EC",
			curve:     crv,
			algorithm: alg,
		},
		ec: ec,
	}
}

// NewECDSASecp256k1SignatureVerifier creates a verifier for ES256K.
func NewECDSASecp256k1SignatureVerifier() *ECDSASignatureVerifier {
	return newECDSAVerifier("secp256k1", "ES256K",
		ellipticCurve{curve: btcec.S256(), keySize: secp256k1KeySize, hash: crypto.SHA256})
}

// NewECDSAES256SignatureVerifier creates a verifier for ES256.
func NewECDSAES256SignatureVerifier() *ECDSASignatureVerifier {
	return newECDSAVerifier("P-256", "ES256",
		ellipticCurve{curve: elliptic.P256(), keySize: p256KeySize, hash: crypto.SHA256})
}

// NewECDSAES384SignatureVerifier creates a verifier for ES384.
func NewECDSAES384SignatureVerifier() *ECDSASignatureVerifier {
	return newECDSAVerifier("P-384", "ES384",
		ellipticCurve{curve: elliptic.P384(), keySize: p384KeySize, hash: crypto.SHA384})
}

// NewECDSAES512SignatureVerifier creates a verifier for ES512 (P-521).
func NewECDSAES512SignatureVerifier() *ECDSASignatureVerifier {
	return newECDSAVerifier("P-521", "ES512",
		ellipticCurve{curve: elliptic.P521(), keySize: p521KeySize, hash: crypto.SHA512})
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jsonwebkey

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose/jwk"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/api"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/util"
)

// DIDWebScheme is the verification method prefix that legacy deployments sign with PS256.
const DIDWebScheme = "did:web:"

// Policy selects signature parameters for a key. Sources are consulted in order:
// an explicit algorithm, the JWK key type and curve, the verification method type, and
// last the scheme fallback table keyed by verification method id prefix.
type Policy struct {
	schemes map[string]api.SignatureParams
}

// PolicyOpt configures a Policy.
type PolicyOpt func(*Policy)

// WithSchemeParams maps verification method ids starting with prefix to params.
// Salt length and hash default from params.Algorithm when left zero.
func WithSchemeParams(prefix string, params api.SignatureParams) PolicyOpt {
	return func(p *Policy) {
		p.schemes[prefix] = fillDefaults(params)
	}
}

// WithoutSchemeFallback empties the scheme fallback table.
func WithoutSchemeFallback() PolicyOpt {
	return func(p *Policy) {
		p.schemes = map[string]api.SignatureParams{}
	}
}

// NewPolicy returns a policy whose fallback table maps did:web to PS256 with a 32 byte salt.
func NewPolicy(opts ...PolicyOpt) *Policy {
	p := &Policy{
		schemes: map[string]api.SignatureParams{
			DIDWebScheme: util.RSAParams("PS256"),
		},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// DefaultPolicy is used by keys created without WithPolicy.
func DefaultPolicy() *Policy {
	return NewPolicy()
}

// Schemes returns the fallback table prefixes, sorted.
func (p *Policy) Schemes() []string {
	prefixes := maps.Keys(p.schemes)
	slices.Sort(prefixes)

	return prefixes
}

// KeyInfo is what the policy knows about a key.
type KeyInfo struct {
	Algorithm  string
	JWK        *jwk.JWK
	MethodType string
	MethodID   string
}

// Params returns the signature parameters for info. An algorithm that the key cannot produce
// is rejected with api.ErrUnsupportedAlgorithm.
func (p *Policy) Params(info KeyInfo) (*api.SignatureParams, error) {
	params, err := p.selectParams(info)
	if err != nil {
		return nil, err
	}

	if err := CheckAlgorithm(params.Algorithm, info); err != nil {
		return nil, err
	}

	return params, nil
}

// CheckAlgorithm fails when alg does not belong to the key type described by info. Any RSA
// algorithm fits an RSA key. A key of unknown type accepts every algorithm.
func CheckAlgorithm(alg string, info KeyInfo) error {
	var keyAlg string

	if info.JWK != nil {
		keyAlg = algorithmFromJWK(info.JWK)
	}

	if keyAlg == "" {
		keyAlg = algorithmFromMethodType(info.MethodType)
	}

	if keyAlg == "" || keyAlg == alg || (IsRSA(keyAlg) && IsRSA(alg)) {
		return nil
	}

	return fmt.Errorf("%w: %s cannot be used with a %s key", api.ErrUnsupportedAlgorithm, alg, keyAlg)
}

// IsRSA reports whether alg is an RSA JWS algorithm.
func IsRSA(alg string) bool {
	return strings.HasPrefix(alg, "PS") || strings.HasPrefix(alg, "RS")
}

func (p *Policy) selectParams(info KeyInfo) (*api.SignatureParams, error) {
	if info.Algorithm != "" {
		return ParamsForAlgorithm(info.Algorithm)
	}

	if info.JWK != nil {
		if info.JWK.Algorithm != "" {
			return ParamsForAlgorithm(info.JWK.Algorithm)
		}

		if alg := algorithmFromJWK(info.JWK); alg != "" {
			return ParamsForAlgorithm(alg)
		}
	}

	if alg := algorithmFromMethodType(info.MethodType); alg != "" {
		return ParamsForAlgorithm(alg)
	}

	if params, ok := p.fromScheme(info.MethodID); ok {
		return params, nil
	}

	return nil, fmt.Errorf("%w: no key metadata for %q", api.ErrUnsupportedAlgorithm, info.MethodID)
}

func (p *Policy) fromScheme(methodID string) (*api.SignatureParams, bool) {
	var (
		best  string
		found bool
	)

	for prefix := range p.schemes {
		if strings.HasPrefix(methodID, prefix) && len(prefix) >= len(best) {
			best = prefix
			found = true
		}
	}

	if !found {
		return nil, false
	}

	params := p.schemes[best]

	logger.Warnf("no key metadata for %s, using %s from the %q scheme fallback", methodID, params.Algorithm, best)

	return &params, true
}

// ParamsForAlgorithm returns the default parameters of a JWS algorithm.
func ParamsForAlgorithm(alg string) (*api.SignatureParams, error) {
	var params api.SignatureParams

	switch alg {
	case "EdDSA":
		params = api.SignatureParams{Algorithm: alg}
	case "ES256", "ES256K":
		params = api.SignatureParams{Algorithm: alg, Hash: crypto.SHA256}
	case "ES384":
		params = api.SignatureParams{Algorithm: alg, Hash: crypto.SHA384}
	case "ES512":
		params = api.SignatureParams{Algorithm: alg, Hash: crypto.SHA512}
	case "PS256", "PS384", "PS512", "RS256":
		params = util.RSAParams(alg)
	default:
		return nil, fmt.Errorf("%w: %s", api.ErrUnsupportedAlgorithm, alg)
	}

	return &params, nil
}

func fillDefaults(params api.SignatureParams) api.SignatureParams {
	defaults, err := ParamsForAlgorithm(params.Algorithm)
	if err != nil {
		return params
	}

	if params.Hash != 0 {
		defaults.Hash = params.Hash
	}

	if params.SaltLength != 0 {
		defaults.SaltLength = params.SaltLength
	}

	return *defaults
}

func algorithmFromJWK(j *jwk.JWK) string {
	switch j.Kty {
	case "OKP":
		if j.Crv == "Ed25519" {
			return "EdDSA"
		}
	case "EC":
		return algorithmFromCurveName(j.Crv)
	case "RSA":
		return "PS256"
	}

	return algorithmFromGoKey(j.Key)
}

func algorithmFromCurveName(crv string) string {
	switch crv {
	case "P-256":
		return "ES256"
	case "P-384":
		return "ES384"
	case "P-521":
		return "ES512"
	case "secp256k1":
		return "ES256K"
	}

	return ""
}

func algorithmFromGoKey(key interface{}) string {
	switch k := key.(type) {
	case ed25519.PublicKey, ed25519.PrivateKey:
		return "EdDSA"
	case *rsa.PublicKey, *rsa.PrivateKey:
		return "PS256"
	case *ecdsa.PublicKey:
		return algorithmFromCurve(k.Curve)
	case *ecdsa.PrivateKey:
		return algorithmFromCurve(k.Curve)
	}

	return ""
}

func algorithmFromCurve(curve elliptic.Curve) string {
	if curve == btcec.S256() {
		return "ES256K"
	}

	return algorithmFromCurveName(curve.Params().Name)
}

func algorithmFromMethodType(methodType string) string {
	switch methodType {
	case "Ed25519VerificationKey2018", "Ed25519VerificationKey2020":
		return "EdDSA"
	case "EcdsaSecp256k1VerificationKey2019":
		return "ES256K"
	case "RsaVerificationKey2018":
		return "PS256"
	}

	return ""
}

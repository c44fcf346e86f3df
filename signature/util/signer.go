/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package util creates signers from private keys.
package util

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose/jwk"
	kmsapi "github.com/hyperledger/aries-framework-go/spi/kms"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/api"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/util/internal/signer"
)

// Signer is an api.Signer that owns its key pair.
type Signer interface {
	api.Signer

	// PublicKey returns the Go public key (ed25519.PublicKey, *ecdsa.PublicKey or *rsa.PublicKey).
	PublicKey() interface{}

	// PrivateKey returns the Go private key.
	PrivateKey() interface{}
}

// NewSigner creates a signer with a generated key of keyType.
func NewSigner(keyType kmsapi.KeyType) (Signer, error) {
	switch keyType {
	case kmsapi.ED25519Type:
		return signer.NewEd25519Signer()

	case kmsapi.ECDSAP256TypeDER, kmsapi.ECDSAP256TypeIEEEP1363:
		return signer.NewECDSASigner(elliptic.P256())

	case kmsapi.ECDSAP384TypeDER, kmsapi.ECDSAP384TypeIEEEP1363:
		return signer.NewECDSASigner(elliptic.P384())

	case kmsapi.ECDSAP521TypeDER, kmsapi.ECDSAP521TypeIEEEP1363:
		return signer.NewECDSASigner(elliptic.P521())

	case kmsapi.ECDSASecp256k1TypeIEEEP1363, kmsapi.ECDSASecp256k1TypeDER:
		return signer.NewECDSASecp256k1Signer()

	case kmsapi.RSARS256Type:
		return signer.NewRS256Signer()

	case kmsapi.RSAPS256Type:
		return signer.NewPS256Signer()

	default:
		return nil, fmt.Errorf("%w: key type %s", api.ErrUnsupportedAlgorithm, keyType)
	}
}

// GetSigner returns a Signer for the private key held by privateKeyJWK.
// An RSA key signs with the JWK's alg, or PS256 when the JWK declares none.
func GetSigner(privateKeyJWK *jwk.JWK) (Signer, error) {
	switch privateKey := privateKeyJWK.Key.(type) {
	case *ecdsa.PrivateKey:
		return signer.GetECDSASigner(privateKey)
	case ed25519.PrivateKey:
		return signer.GetEd25519Signer(privateKey), nil
	case *rsa.PrivateKey:
		return signer.GetRSASigner(privateKey, signer.RSAParams(privateKeyJWK.Algorithm).Algorithm), nil
	}

	return nil, fmt.Errorf("%w: %T is not a private key", api.ErrMissingKeyMaterial, privateKeyJWK.Key)
}

// RSAParams returns the default parameters of an RSA JWS algorithm.
func RSAParams(alg string) api.SignatureParams {
	return signer.RSAParams(alg)
}

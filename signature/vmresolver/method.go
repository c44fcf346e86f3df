/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vmresolver

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multibase"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose/jwk"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/api"
)

const (
	ed25519PubSize       = 32
	secp256k1PubSize     = 33
	multicodecPrefixSize = 2
)

// multicodec prefixes of raw keys carried in publicKeyMultibase
var (
	ed25519PubCodec   = []byte{0xed, 0x01} //nolint:gochecknoglobals
	secp256k1PubCodec = []byte{0xe7, 0x01} //nolint:gochecknoglobals
)

type methodNode struct {
	ID                 string                 `json:"id"`
	Type               string                 `json:"type"`
	Controller         string                 `json:"controller"`
	PublicKeyJwk       map[string]interface{} `json:"publicKeyJwk"`
	PublicKeyBase58    string                 `json:"publicKeyBase58"`
	PublicKeyMultibase string                 `json:"publicKeyMultibase"`
	PublicKeyHex       string                 `json:"publicKeyHex"`
}

func newVerificationMethod(id string, node map[string]interface{}) (*api.VerificationMethod, error) {
	var m methodNode

	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &m,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("mapstructure decoder: %w", err)
	}

	if err = d.Decode(node); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %s", ErrMethodNotFound, id, err.Error())
	}

	pubKey, err := publicKey(&m)
	if err != nil {
		return nil, fmt.Errorf("%w: key material of %s: %s", ErrMethodNotFound, id, err.Error())
	}

	return &api.VerificationMethod{
		ID:         id,
		Type:       m.Type,
		Controller: m.Controller,
		PublicKey:  pubKey,
		Fields:     node,
	}, nil
}

func publicKey(m *methodNode) (*api.PublicKey, error) {
	switch {
	case m.PublicKeyJwk != nil:
		raw, err := json.Marshal(m.PublicKeyJwk)
		if err != nil {
			return nil, err
		}

		var j jwk.JWK

		if err = j.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("publicKeyJwk: %w", err)
		}

		return &api.PublicKey{Type: m.Type, JWK: &j}, nil

	case m.PublicKeyBase58 != "":
		value, err := base58.Decode(m.PublicKeyBase58)
		if err != nil {
			return nil, fmt.Errorf("publicKeyBase58: %w", err)
		}

		return &api.PublicKey{Type: m.Type, Value: value}, nil

	case m.PublicKeyMultibase != "":
		_, value, err := multibase.Decode(m.PublicKeyMultibase)
		if err != nil {
			return nil, fmt.Errorf("publicKeyMultibase: %w", err)
		}

		return &api.PublicKey{Type: m.Type, Value: stripCodec(value)}, nil

	case m.PublicKeyHex != "":
		value, err := hex.DecodeString(m.PublicKeyHex)
		if err != nil {
			return nil, fmt.Errorf("publicKeyHex: %w", err)
		}

		return &api.PublicKey{Type: m.Type, Value: value}, nil
	}

	return nil, nil //nolint:nilnil
}

func stripCodec(value []byte) []byte {
	switch {
	case len(value) == ed25519PubSize+multicodecPrefixSize && bytes.HasPrefix(value, ed25519PubCodec),
		len(value) == secp256k1PubSize+multicodecPrefixSize && bytes.HasPrefix(value, secp256k1PubCodec):
		return value[multicodecPrefixSize:]
	}

	return value
}

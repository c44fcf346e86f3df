/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package proof

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/processor"
)

const jwsPartsNumber = 3

// Canonicalizer produces the canonical form of a JSON-LD document.
type Canonicalizer interface {
	GetCanonicalDocument(doc map[string]interface{}, opts ...processor.Opts) ([]byte, error)
}

// DigestFunc hashes canonical bytes.
type DigestFunc func(data []byte) []byte

type detachedHeader struct {
	Alg  string   `json:"alg"`
	B64  bool     `json:"b64"`
	Crit []string `json:"crit"`
}

// CreateDetachedJWTHeader returns the base64url protected header of an unencoded-payload
// JWS (RFC 7797) signed with alg.
func CreateDetachedJWTHeader(alg string) string {
	b, err := json.Marshal(detachedHeader{Alg: alg, B64: false, Crit: []string{"b64"}})
	if err != nil {
		panic(err)
	}

	return base64.RawURLEncoding.EncodeToString(b)
}

// DetachedJWS is a parsed "<header>..<signature>" value.
type DetachedJWS struct {
	Header    string
	Alg       string
	Signature []byte
}

// ParseDetachedJWS splits jws and checks that its header declares an unencoded payload.
func ParseDetachedJWS(jws string) (*DetachedJWS, error) {
	parts := strings.Split(jws, ".")
	if len(parts) != jwsPartsNumber || parts[0] == "" || parts[2] == "" {
		return nil, fmt.Errorf("%w: invalid JWS", ErrMalformedProof)
	}

	if parts[1] != "" {
		return nil, fmt.Errorf("%w: JWS payload is not detached", ErrMalformedProof)
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: decode JWS header: %s", ErrMalformedProof, err.Error())
	}

	if !gjson.ValidBytes(headerJSON) {
		return nil, fmt.Errorf("%w: JWS header is not JSON", ErrMalformedProof)
	}

	header := gjson.ParseBytes(headerJSON)

	if b64 := header.Get("b64"); !b64.Exists() || b64.Type != gjson.False {
		return nil, fmt.Errorf("%w: JWS header must set b64 to false", ErrMalformedProof)
	}

	if !critContainsB64(header.Get("crit")) {
		return nil, fmt.Errorf("%w: JWS header must list b64 as critical", ErrMalformedProof)
	}

	alg := header.Get("alg").String()
	if alg == "" {
		return nil, fmt.Errorf("%w: JWS header has no alg", ErrMalformedProof)
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: decode JWS signature: %s", ErrMalformedProof, err.Error())
	}

	return &DetachedJWS{Header: parts[0], Alg: alg, Signature: sig}, nil
}

func critContainsB64(crit gjson.Result) bool {
	for _, c := range crit.Array() {
		if c.String() == "b64" {
			return true
		}
	}

	return false
}

// AssembleDetachedJWS joins a header and signature into "<header>..<signature>".
func AssembleDetachedJWS(header string, signature []byte) string {
	return header + ".." + base64.RawURLEncoding.EncodeToString(signature)
}

// SigningInput is the byte string a detached JWS signs: the header, a dot, then the raw verify data.
func SigningInput(header string, verifyData []byte) []byte {
	return append([]byte(header+"."), verifyData...)
}

// CreateVerifyData returns digest(canonical proof options) followed by digest(canonical document).
//
// The proof options are the proof without jws and proofValue, interpreted with the
// document's @context. The document is taken without its proof.
func CreateVerifyData(c Canonicalizer, digest DigestFunc, doc, proofOptions map[string]interface{},
	opts ...processor.Opts) ([]byte, error) {
	options := processor.CopyMap(proofOptions)
	delete(options, jsonldJWS)
	delete(options, jsonldProofValue)

	if _, ok := options[jsonldContext]; !ok {
		options[jsonldContext] = doc[jsonldContext]
	}

	canonicalOptions, err := c.GetCanonicalDocument(options, opts...)
	if err != nil {
		return nil, fmt.Errorf("canonicalize proof options: %w", err)
	}

	canonicalDoc, err := c.GetCanonicalDocument(GetCopyWithoutProof(doc), opts...)
	if err != nil {
		return nil, fmt.Errorf("canonicalize document: %w", err)
	}

	return append(digest(canonicalOptions), digest(canonicalDoc)...), nil
}

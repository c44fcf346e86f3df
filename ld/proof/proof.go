/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package proof models Linked Data proofs and builds the data their signatures cover.
package proof

import (
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/processor"
	afgotime "github.com/hyperledger/aries-framework-go-ext/component/ldproof/util/time"
)

const (
	jsonldContext            = "@context"
	jsonldProof              = "proof"
	jsonldType               = "type"
	jsonldCreator            = "creator"
	jsonldCreated            = "created"
	jsonldExpires            = "expires"
	jsonldDomain             = "domain"
	jsonldNonce              = "nonce"
	jsonldChallenge          = "challenge"
	jsonldProofValue         = "proofValue"
	jsonldProofPurpose       = "proofPurpose"
	jsonldJWS                = "jws"
	jsonldVerificationMethod = "verificationMethod"
)

var (
	// ErrProofNotFound is returned when a document carries no proof.
	ErrProofNotFound = errors.New("proof not found")

	// ErrMalformedProof is returned when a proof object cannot be interpreted.
	ErrMalformedProof = errors.New("malformed proof")
)

// Proof is a Linked Data proof. Entries without a dedicated field are kept in Extra
// so that serializing a parsed proof loses nothing.
type Proof struct {
	Type               string
	Created            *afgotime.TimeWrapper
	Expires            *afgotime.TimeWrapper
	Creator            string
	VerificationMethod string
	ProofPurpose       string
	JWS                string
	Domain             string
	Challenge          string
	Nonce              string
	Extra              map[string]interface{}
}

// NewProof parses a proof object. created and expires must be valid dates when present.
func NewProof(emap map[string]interface{}) (*Proof, error) {
	if err := ValidateShape(emap); err != nil {
		return nil, err
	}

	p := &Proof{Extra: map[string]interface{}{}}

	for k, v := range emap {
		switch k {
		case jsonldType:
			p.Type = stringEntry(v)
		case jsonldCreator:
			p.Creator = stringEntry(v)
		case jsonldVerificationMethod:
			p.VerificationMethod = stringEntry(v)
		case jsonldProofPurpose:
			p.ProofPurpose = stringEntry(v)
		case jsonldJWS:
			p.JWS = stringEntry(v)
		case jsonldDomain:
			p.Domain = stringEntry(v)
		case jsonldChallenge:
			p.Challenge = stringEntry(v)
		case jsonldNonce:
			p.Nonce = stringEntry(v)
		case jsonldCreated, jsonldExpires:
			tm, err := afgotime.ParseTimeWrapper(stringEntry(v))
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %s", ErrMalformedProof, k, err.Error())
			}

			if k == jsonldCreated {
				p.Created = tm
			} else {
				p.Expires = tm
			}
		default:
			p.Extra[k] = v
		}
	}

	return p, nil
}

// JSONLdObject returns the proof as a JSON-LD object. Empty fields are omitted.
func (p *Proof) JSONLdObject() map[string]interface{} {
	emap := make(map[string]interface{}, len(p.Extra)+8)

	for k, v := range p.Extra {
		emap[k] = v
	}

	emap[jsonldType] = p.Type

	setString(emap, jsonldCreator, p.Creator)
	setString(emap, jsonldVerificationMethod, p.VerificationMethod)
	setString(emap, jsonldProofPurpose, p.ProofPurpose)
	setString(emap, jsonldJWS, p.JWS)
	setString(emap, jsonldDomain, p.Domain)
	setString(emap, jsonldChallenge, p.Challenge)
	setString(emap, jsonldNonce, p.Nonce)

	if p.Created != nil {
		emap[jsonldCreated] = p.Created.FormatToString()
	}

	if p.Expires != nil {
		emap[jsonldExpires] = p.Expires.FormatToString()
	}

	return emap
}

// Copy returns a deep copy of p.
func (p *Proof) Copy() *Proof {
	c := *p
	c.Extra = processor.CopyMap(p.Extra)

	if p.Created != nil {
		created := *p.Created
		c.Created = &created
	}

	if p.Expires != nil {
		expires := *p.Expires
		c.Expires = &expires
	}

	return &c
}

// PublicKeyID is the verification method, falling back to the legacy creator entry.
func (p *Proof) PublicKeyID() (string, error) {
	if p.VerificationMethod != "" {
		return p.VerificationMethod, nil
	}

	if p.Creator != "" {
		return p.Creator, nil
	}

	return "", fmt.Errorf("%w: no public key ID", ErrMalformedProof)
}

func setString(emap map[string]interface{}, key, value string) {
	if value != "" {
		emap[key] = value
	}
}

func stringEntry(entry interface{}) string {
	if strVal, ok := entry.(string); ok {
		return strVal
	}

	return ""
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package proof

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/processor"
)

// GetProofs returns the raw proof objects of a document. A single object and an array
// of objects are both accepted.
func GetProofs(jsonLdObject map[string]interface{}) ([]map[string]interface{}, error) {
	entry, ok := jsonLdObject[jsonldProof]
	if !ok || entry == nil {
		return nil, ErrProofNotFound
	}

	var entries []interface{}

	switch te := entry.(type) {
	case []interface{}:
		entries = te
	case map[string]interface{}:
		entries = []interface{}{te}
	default:
		return nil, fmt.Errorf("%w: expecting an object or an array of objects", ErrMalformedProof)
	}

	if len(entries) == 0 {
		return nil, ErrProofNotFound
	}

	result := make([]map[string]interface{}, 0, len(entries))

	for _, e := range entries {
		emap, ok := e.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: proof entry is not an object", ErrMalformedProof)
		}

		result = append(result, emap)
	}

	return result, nil
}

// AddProof appends proof to the document, turning a single existing proof into an array.
func AddProof(jsonLdObject, proof map[string]interface{}) {
	var proofs []interface{}

	switch p := jsonLdObject[jsonldProof].(type) {
	case nil:
	case []interface{}:
		proofs = p
	default:
		proofs = []interface{}{p}
	}

	if len(proofs) == 0 {
		jsonLdObject[jsonldProof] = proof

		return
	}

	jsonLdObject[jsonldProof] = append(proofs, proof)
}

// GetCopyWithoutProof returns a deep copy of the document without its proof entry.
func GetCopyWithoutProof(jsonLdObject map[string]interface{}) map[string]interface{} {
	if jsonLdObject == nil {
		return nil
	}

	dest := processor.CopyMap(jsonLdObject)
	delete(dest, jsonldProof)

	return dest
}

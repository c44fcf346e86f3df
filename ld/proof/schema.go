/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package proof

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const proofSchema = `{
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {"type": "string", "minLength": 1},
    "created": {"type": "string"},
    "expires": {"type": "string"},
    "creator": {"type": "string"},
    "verificationMethod": {"type": "string"},
    "proofPurpose": {"type": "string"},
    "jws": {"type": "string"},
    "challenge": {"type": "string"},
    "domain": {"type": "string"},
    "nonce": {"type": "string"}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	errSchema      error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, errSchema = gojsonschema.NewSchema(gojsonschema.NewStringLoader(proofSchema))
	})

	return compiledSchema, errSchema
}

// ValidateShape checks that the well-known proof entries have the expected JSON types.
func ValidateShape(emap map[string]interface{}) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("load proof schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(emap))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedProof, err.Error())
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}

	return fmt.Errorf("%w: %s", ErrMalformedProof, strings.Join(msgs, "; "))
}

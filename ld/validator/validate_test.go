/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package validator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/documentloader"
)

const (
	orderContextURL = "https://example.com/contexts/order/v1"
	orderContext    = `{
  "@context": {
    "id": "@id",
    "type": "@type",
    "amount": "https://example.com/order#amount",
    "items": "https://example.com/order#items",
    "sku": "https://example.com/order#sku"
  }
}`
)

func createTestDocumentLoader(t *testing.T) *documentloader.DocumentLoader {
	t.Helper()

	loader, err := documentloader.New(documentloader.WithExtraDocuments(documentloader.Document{
		URL:     orderContextURL,
		Content: []byte(orderContext),
	}))
	require.NoError(t, err)

	return loader
}

func toMap(t *testing.T, doc string) map[string]interface{} {
	t.Helper()

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(doc), &m))

	return m
}

func Test_ValidateJSONLDMap(t *testing.T) {
	loader := createTestDocumentLoader(t)

	t.Run("all terms defined", func(t *testing.T) {
		doc := toMap(t, `{
  "@context": ["https://example.com/contexts/order/v1"],
  "id": "urn:uuid:1",
  "type": "https://example.com/order#Order",
  "amount": "100",
  "items": [{"sku": "a-1"}, {"sku": "b-2"}]
}`)

		require.NoError(t, ValidateJSONLDMap(doc, WithDocumentLoader(loader)))
	})

	t.Run("vocab maps every term", func(t *testing.T) {
		doc := toMap(t, `{
  "@context": [
    "https://w3id.org/security/suites/jws-2020/v1",
    {"id": "@id", "@vocab": "https://example.com/vocab#"}
  ],
  "id": "urn:uuid:1",
  "amount": "100",
  "note": {"text": "hello"}
}`)

		require.NoError(t, ValidateJSONLDMap(doc, WithDocumentLoader(loader)))
	})

	t.Run("undefined top level term", func(t *testing.T) {
		doc := toMap(t, `{
  "@context": [
    "https://w3id.org/security/suites/jws-2020/v1",
    {"id": "@id"}
  ],
  "id": "urn:uuid:1",
  "amount": "100"
}`)

		err := ValidateJSONLDMap(doc, WithDocumentLoader(loader))
		require.ErrorIs(t, err, ErrUndefinedTerms)
	})

	t.Run("undefined term inside an array element", func(t *testing.T) {
		doc := toMap(t, `{
  "@context": ["https://example.com/contexts/order/v1"],
  "id": "urn:uuid:1",
  "items": [{"sku": "a-1", "color": "red"}, {"sku": "b-2"}]
}`)

		err := ValidateJSONLDMap(doc, WithDocumentLoader(loader))
		require.ErrorIs(t, err, ErrUndefinedTerms)
	})

	t.Run("undefined term in a nested object", func(t *testing.T) {
		doc := toMap(t, `{
  "@context": ["https://example.com/contexts/order/v1"],
  "id": "urn:uuid:1",
  "items": {"sku": "a-1", "color": "red"}
}`)

		err := ValidateJSONLDMap(doc, WithDocumentLoader(loader))
		require.ErrorIs(t, err, ErrUndefinedTerms)
	})

	t.Run("strict validation off", func(t *testing.T) {
		doc := toMap(t, `{
  "@context": ["https://example.com/contexts/order/v1"],
  "id": "urn:uuid:1",
  "color": "red"
}`)

		require.NoError(t, ValidateJSONLDMap(doc, WithDocumentLoader(loader), WithStrictValidation(false)))
	})

	t.Run("external context defines the terms", func(t *testing.T) {
		doc := toMap(t, `{
  "@context": ["https://w3id.org/security/suites/jws-2020/v1"],
  "id": "urn:uuid:1",
  "amount": "100"
}`)

		require.NoError(t, ValidateJSONLDMap(doc, WithDocumentLoader(loader), WithExternalContext(orderContextURL)))
		require.Equal(t, []interface{}{"https://w3id.org/security/suites/jws-2020/v1"}, doc["@context"])
	})

	t.Run("unknown context", func(t *testing.T) {
		doc := toMap(t, `{
  "@context": ["https://example.com/contexts/missing/v1"],
  "id": "urn:uuid:1"
}`)

		err := ValidateJSONLDMap(doc, WithDocumentLoader(loader))
		require.Error(t, err)
		require.Contains(t, err.Error(), "compact JSON-LD document")
	})
}

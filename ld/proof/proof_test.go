/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package proof

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProof(t *testing.T) {
	t.Run("known and extra entries", func(t *testing.T) {
		emap := map[string]interface{}{
			"type":               "JsonWebSignature2020",
			"created":            "2021-03-04T10:30:15Z",
			"expires":            "2031-03-04T10:30:15Z",
			"verificationMethod": "did:example:123#key-1",
			"proofPurpose":       "authentication",
			"jws":                "eyJ..c2ln",
			"challenge":          "abc",
			"domain":             "example.com",
			"nonce":              "n-1",
			"custom":             []interface{}{"x"},
		}

		p, err := NewProof(emap)
		require.NoError(t, err)
		require.Equal(t, "JsonWebSignature2020", p.Type)
		require.Equal(t, 2021, p.Created.Year())
		require.Equal(t, 2031, p.Expires.Year())
		require.Equal(t, "abc", p.Challenge)
		require.Equal(t, []interface{}{"x"}, p.Extra["custom"])
		require.Equal(t, emap, p.JSONLdObject())
	})

	t.Run("invalid created", func(t *testing.T) {
		_, err := NewProof(map[string]interface{}{"type": "JsonWebSignature2020", "created": "yesterday"})
		require.ErrorIs(t, err, ErrMalformedProof)
		require.Contains(t, err.Error(), "created")
	})

	t.Run("wrong entry types", func(t *testing.T) {
		_, err := NewProof(map[string]interface{}{"type": "JsonWebSignature2020", "jws": 12})
		require.ErrorIs(t, err, ErrMalformedProof)

		_, err = NewProof(map[string]interface{}{"created": "2021-03-04T10:30:15Z"})
		require.ErrorIs(t, err, ErrMalformedProof)
	})
}

func TestProof_Copy(t *testing.T) {
	p, err := NewProof(map[string]interface{}{
		"type":    "JsonWebSignature2020",
		"created": "2021-03-04T10:30:15Z",
		"custom":  map[string]interface{}{"k": "v"},
	})
	require.NoError(t, err)

	c := p.Copy()
	require.Equal(t, p.JSONLdObject(), c.JSONLdObject())

	c.Type = "Other"
	c.Created.Time = c.Created.AddDate(1, 0, 0)
	c.Extra["custom"].(map[string]interface{})["k"] = "changed"

	require.Equal(t, "JsonWebSignature2020", p.Type)
	require.Equal(t, 2021, p.Created.Year())
	require.Equal(t, "v", p.Extra["custom"].(map[string]interface{})["k"])
}

func TestProof_PublicKeyID(t *testing.T) {
	id, err := (&Proof{VerificationMethod: "did:example:1#k", Creator: "did:example:2#k"}).PublicKeyID()
	require.NoError(t, err)
	require.Equal(t, "did:example:1#k", id)

	id, err = (&Proof{Creator: "did:example:2#k"}).PublicKeyID()
	require.NoError(t, err)
	require.Equal(t, "did:example:2#k", id)

	_, err = (&Proof{}).PublicKeyID()
	require.ErrorIs(t, err, ErrMalformedProof)
}

func TestGetProofs(t *testing.T) {
	single := map[string]interface{}{"type": "JsonWebSignature2020"}

	proofs, err := GetProofs(map[string]interface{}{"proof": single})
	require.NoError(t, err)
	require.Len(t, proofs, 1)

	proofs, err = GetProofs(map[string]interface{}{"proof": []interface{}{single, single}})
	require.NoError(t, err)
	require.Len(t, proofs, 2)

	_, err = GetProofs(map[string]interface{}{})
	require.ErrorIs(t, err, ErrProofNotFound)

	_, err = GetProofs(map[string]interface{}{"proof": []interface{}{}})
	require.ErrorIs(t, err, ErrProofNotFound)

	_, err = GetProofs(map[string]interface{}{"proof": "text"})
	require.ErrorIs(t, err, ErrMalformedProof)

	_, err = GetProofs(map[string]interface{}{"proof": []interface{}{"text"}})
	require.ErrorIs(t, err, ErrMalformedProof)
}

func TestAddProof(t *testing.T) {
	doc := map[string]interface{}{}
	first := map[string]interface{}{"type": "a"}
	second := map[string]interface{}{"type": "b"}

	AddProof(doc, first)
	require.Equal(t, first, doc["proof"])

	AddProof(doc, second)
	require.Equal(t, []interface{}{first, second}, doc["proof"])
}

func TestGetCopyWithoutProof(t *testing.T) {
	doc := map[string]interface{}{
		"name":  "x",
		"inner": map[string]interface{}{"a": "b"},
		"proof": map[string]interface{}{"type": "a"},
	}

	cp := GetCopyWithoutProof(doc)
	require.NotContains(t, cp, "proof")
	require.Contains(t, doc, "proof")

	cp["inner"].(map[string]interface{})["a"] = "changed"
	require.Equal(t, "b", doc["inner"].(map[string]interface{})["a"])

	require.Nil(t, GetCopyWithoutProof(nil))
}

func TestHasContext(t *testing.T) {
	const url = "https://w3id.org/security/suites/jws-2020/v1"

	require.True(t, HasContext(map[string]interface{}{"@context": url}, url))
	require.True(t, HasContext(map[string]interface{}{"@context": []interface{}{"a", url}}, url))
	require.True(t, HasContext(map[string]interface{}{"@context": []string{url}}, url))
	require.False(t, HasContext(map[string]interface{}{"@context": []interface{}{"a", map[string]interface{}{}}}, url))
	require.False(t, HasContext(map[string]interface{}{"@context": "https://www.w3.org/2018/credentials/v1"}, url))
	require.False(t, HasContext(map[string]interface{}{}, url))
}

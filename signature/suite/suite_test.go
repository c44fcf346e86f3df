/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package suite

import (
	"context"
	"testing"

	"github.com/piprate/json-gold/ld"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/proof"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/purpose"
)

type mockSuite struct {
	proofType string
}

func (m *mockSuite) Type() string            { return m.proofType }
func (m *mockSuite) Accept(t string) bool    { return t == m.proofType }
func (m *mockSuite) RequiredContext() string { return "https://example.com/context" }

func (m *mockSuite) CreateProof(context.Context, map[string]interface{}, purpose.ProofPurpose,
	ld.DocumentLoader, *proof.Proof) (*proof.Proof, error) {
	return &proof.Proof{Type: m.proofType}, nil
}

func (m *mockSuite) VerifyProof(context.Context, map[string]interface{}, *proof.Proof, purpose.ProofPurpose,
	ld.DocumentLoader) *VerifyResult {
	return &VerifyResult{Verified: true}
}

func TestRegistry(t *testing.T) {
	b := &mockSuite{proofType: "B2020"}
	a := &mockSuite{proofType: "A2020"}

	r := NewRegistry(b, a)
	require.Equal(t, []string{"A2020", "B2020"}, r.Types())

	s, err := r.Get("A2020")
	require.NoError(t, err)
	require.Equal(t, a, s)

	_, err = r.Get("C2020")
	require.ErrorIs(t, err, ErrUnsupportedSuite)
	require.Contains(t, err.Error(), "C2020")

	require.Empty(t, NewRegistry().Types())
}

func TestFailed(t *testing.T) {
	res := Failed(ErrContextMismatch)
	require.False(t, res.Verified)
	require.ErrorIs(t, res.Error, ErrContextMismatch)
	require.Nil(t, res.PurposeResult)
}

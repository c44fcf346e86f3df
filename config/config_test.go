/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/log"
	spilog "github.com/hyperledger/aries-framework-go/spi/log"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/documentloader"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/proof"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/validator"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/api"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/jsonwebkey"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/purpose"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/suite/jsonwebsignature2020"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.LogLevel)
	require.True(t, cfg.Framing)
	require.Len(t, cfg.SchemeFallback, 2)
	require.Len(t, cfg.Contexts, 2)
	require.Equal(t, 5*time.Second, cfg.Remote.Timeout)
	require.EqualValues(t, 1, cfg.Remote.Retries)
	require.Equal(t, 16, cfg.Cache.Size)
	require.Equal(t, time.Minute, cfg.Cache.TTL)

	t.Run("document loader", func(t *testing.T) {
		loader, err := cfg.DocumentLoader()
		require.NoError(t, err)

		_, ok := loader.(*documentloader.CachingLoader)
		require.True(t, ok)

		for _, u := range []string{
			documentloader.JWS2020ContextURL,
			"https://example.com/contexts/vocab.jsonld",
			"https://example.com/contexts/inline.jsonld",
		} {
			rd, err := loader.LoadDocument(u)
			require.NoError(t, err, u)
			require.NotNil(t, rd.Document)
		}

		_, err = loader.LoadDocument("https://example.com/unknown")
		require.ErrorIs(t, err, documentloader.ErrDocumentNotFound)
	})

	t.Run("policy", func(t *testing.T) {
		policy := cfg.Policy()
		require.Equal(t, []string{"did:example:", "did:web:"}, policy.Schemes())

		params, err := policy.Params(jsonwebkey.KeyInfo{MethodID: "did:web:example.com#key-1"})
		require.NoError(t, err)
		require.Equal(t, "PS384", params.Algorithm)

		params, err = policy.Params(jsonwebkey.KeyInfo{MethodID: "did:example:123#key-1"})
		require.NoError(t, err)
		require.Equal(t, "PS256", params.Algorithm)
		require.Equal(t, 64, params.SaltLength)
	})

	t.Run("resolver", func(t *testing.T) {
		require.NotNil(t, cfg.Resolver())
	})

	t.Run("log level", func(t *testing.T) {
		defer log.SetLevel("", spilog.INFO)

		require.NoError(t, cfg.ApplyLogLevel())
		require.Equal(t, spilog.DEBUG, log.GetLevel(""))
	})
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "read config")
}

func TestParse(t *testing.T) {
	t.Run("empty input gives defaults", func(t *testing.T) {
		cfg, err := Parse(nil)
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)

		policy := cfg.Policy()
		require.Equal(t, []string{jsonwebkey.DIDWebScheme}, policy.Schemes())

		params, err := policy.Params(jsonwebkey.KeyInfo{MethodID: "did:web:example.com#key-1"})
		require.NoError(t, err)
		require.Equal(t, "PS256", params.Algorithm)
		require.Equal(t, 32, params.SaltLength)

		loader, err := cfg.DocumentLoader()
		require.NoError(t, err)

		_, ok := loader.(*documentloader.DocumentLoader)
		require.True(t, ok)
	})

	t.Run("scheme fallback disabled", func(t *testing.T) {
		cfg, err := Parse([]byte("disableSchemeFallback: true\n"))
		require.NoError(t, err)

		_, err = cfg.Policy().Params(jsonwebkey.KeyInfo{MethodID: "did:web:example.com#key-1"})
		require.ErrorIs(t, err, api.ErrUnsupportedAlgorithm)
	})

	t.Run("remote loader is wired", func(t *testing.T) {
		cfg, err := Parse([]byte("remote:\n  enabled: true\n  retryInterval: 10ms\n"))
		require.NoError(t, err)
		require.Equal(t, defaultRemoteTimeout, cfg.Remote.Timeout)

		loader, err := cfg.DocumentLoader()
		require.NoError(t, err)

		_, err = loader.LoadDocument(documentloader.JWS2020ContextURL)
		require.NoError(t, err)
	})

	tests := []struct {
		name string
		yaml string
		err  string
	}{
		{name: "unknown field", yaml: "unknown: 1\n", err: "field unknown not found"},
		{name: "malformed", yaml: "logLevel: [\n", err: "parse config"},
		{name: "bad log level", yaml: "logLevel: loud\n", err: "logLevel"},
		{name: "missing prefix", yaml: "schemeFallback:\n  - algorithm: PS256\n", err: "prefix is required"},
		{name: "bad algorithm", yaml: "schemeFallback:\n  - prefix: x\n    algorithm: HS256\n", err: "unsupported signature algorithm"},
		{name: "negative salt", yaml: "schemeFallback:\n  - prefix: x\n    algorithm: PS256\n    saltLength: -1\n", err: "negative salt"},
		{name: "context without url", yaml: "contexts:\n  - inline: '{}'\n", err: "url is required"},
		{name: "context without content", yaml: "contexts:\n  - url: https://example.com\n", err: "exactly one of"},
		{name: "negative cache", yaml: "cache:\n  size: -1\n", err: "negative size"},
		{name: "bad invalid RDF mode", yaml: "canonicalization:\n  invalidRDF: ignore\n", err: "invalidRDF must be"},
		{name: "empty external context", yaml: "canonicalization:\n  externalContexts: ['']\n", err: "externalContexts[0]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestSuiteOptions(t *testing.T) {
	const vocabContext = "https://example.com/contexts/vocab.jsonld"

	doc := map[string]interface{}{
		"@context": []interface{}{documentloader.JWS2020ContextURL},
		"amount":   "100",
	}

	p := &proof.Proof{
		Type:               jsonwebsignature2020.SignatureType,
		VerificationMethod: "did:example:123#key-1",
		ProofPurpose:       purpose.AssertionMethod,
		JWS:                proof.AssembleDetachedJWS(proof.CreateDetachedJWTHeader("EdDSA"), []byte("signature")),
	}

	verify := func(t *testing.T, yaml string) error {
		t.Helper()

		cfg, err := Parse([]byte(yaml))
		require.NoError(t, err)

		loader, err := cfg.DocumentLoader()
		require.NoError(t, err)

		s := jsonwebsignature2020.New(cfg.SuiteOptions()...)

		return s.VerifyProof(context.Background(), doc, p, purpose.NewAssertionProofPurpose(), loader).Error
	}

	t.Run("undefined terms are refused by default", func(t *testing.T) {
		require.ErrorIs(t, verify(t, ""), validator.ErrUndefinedTerms)
	})

	t.Run("undefined terms allowed", func(t *testing.T) {
		err := verify(t, "allowUndefinedTerms: true\n")
		require.Error(t, err)
		require.NotErrorIs(t, err, validator.ErrUndefinedTerms)
	})

	t.Run("external context defines the terms", func(t *testing.T) {
		err := verify(t, "contexts:\n  - url: "+vocabContext+"\n    inline: '{\"@context\": {\"@vocab\": \"https://example.com/vocab#\"}}'\n"+
			"canonicalization:\n  invalidRDF: reject\n  externalContexts:\n    - "+vocabContext+"\n")
		require.Error(t, err)
		require.NotErrorIs(t, err, validator.ErrUndefinedTerms)
	})

	t.Run("processor options", func(t *testing.T) {
		require.Empty(t, Default().ProcessorOptions())

		cfg, err := Parse([]byte("canonicalization:\n  invalidRDF: remove\n"))
		require.NoError(t, err)
		require.Len(t, cfg.ProcessorOptions(), 1)
	})
}

func TestDocumentLoaderBadContext(t *testing.T) {
	cfg, err := Parse([]byte("contexts:\n  - url: https://example.com/c\n    inline: 'not json'\n"))
	require.NoError(t, err)

	_, err = cfg.DocumentLoader()
	require.Error(t, err)

	cfg, err = Parse([]byte("contexts:\n  - url: https://example.com/c\n    file: missing.jsonld\n"))
	require.NoError(t, err)

	_, err = cfg.DocumentLoader()
	require.Error(t, err)
	require.Contains(t, err.Error(), "context https://example.com/c")
}

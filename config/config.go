/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config reads the YAML settings of the proof tooling and builds the components they describe.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/piprate/json-gold/ld"
	"gopkg.in/yaml.v3"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/documentloader"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/processor"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/api"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/jsonwebkey"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/suite/jsonwebsignature2020"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/vmresolver"
)

var logger = log.New("ldproof/config")

const (
	defaultRemoteTimeout = 30 * time.Second
	defaultRemoteRetries = 3

	// InvalidRDFRemove drops quads json-gold cannot parse back before hashing.
	InvalidRDFRemove = "remove"
	// InvalidRDFReject fails canonicalization when such quads are found.
	InvalidRDFReject = "reject"
)

// Config is the content of a configuration file.
type Config struct {
	LogLevel string `yaml:"logLevel"`

	// SchemeFallback replaces the built-in did:web entry when set.
	SchemeFallback        []SchemeParams `yaml:"schemeFallback"`
	DisableSchemeFallback bool           `yaml:"disableSchemeFallback"`

	Contexts []Context `yaml:"contexts"`
	Remote   Remote    `yaml:"remote"`
	Cache    Cache     `yaml:"cache"`

	// Framing extracts verification methods with JSON-LD framing.
	Framing bool `yaml:"framing"`

	// AllowUndefinedTerms turns off the check that every document term is defined by its context.
	AllowUndefinedTerms bool             `yaml:"allowUndefinedTerms"`
	Canonicalization    Canonicalization `yaml:"canonicalization"`

	dir string
}

// SchemeParams maps a verification method id prefix to signature parameters.
type SchemeParams struct {
	Prefix     string `yaml:"prefix"`
	Algorithm  string `yaml:"algorithm"`
	SaltLength int    `yaml:"saltLength"`
}

// Context is a JSON-LD document to preload. Content comes from File, relative to the
// configuration file, or from Inline.
type Context struct {
	URL         string `yaml:"url"`
	DocumentURL string `yaml:"documentURL"`
	File        string `yaml:"file"`
	Inline      string `yaml:"inline"`
}

// Remote controls fetching of documents that were not preloaded.
type Remote struct {
	Enabled       bool          `yaml:"enabled"`
	Timeout       time.Duration `yaml:"timeout"`
	Retries       uint64        `yaml:"retries"`
	RetryInterval time.Duration `yaml:"retryInterval"`
}

// Canonicalization tunes the URDNA2015 canonical form that is hashed and signed.
// Signer and verifier must use the same settings.
type Canonicalization struct {
	// InvalidRDF is InvalidRDFRemove, InvalidRDFReject or empty to keep the view as produced.
	InvalidRDF       string   `yaml:"invalidRDF"`
	ExternalContexts []string `yaml:"externalContexts"`
}

// Cache keeps loaded documents in memory.
type Cache struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// Default is the configuration used without a file.
func Default() *Config {
	return &Config{
		Remote: Remote{Timeout: defaultRemoteTimeout, Retries: defaultRemoteRetries},
	}
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg.dir = filepath.Dir(path)

	return cfg, nil
}

// Parse decodes YAML. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values that cannot be used.
func (c *Config) Validate() error {
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("logLevel: %w", err)
		}
	}

	for i, s := range c.SchemeFallback {
		if s.Prefix == "" {
			return fmt.Errorf("schemeFallback[%d]: prefix is required", i)
		}

		if _, err := jsonwebkey.ParamsForAlgorithm(s.Algorithm); err != nil {
			return fmt.Errorf("schemeFallback[%d]: %w", i, err)
		}

		if s.SaltLength < 0 {
			return fmt.Errorf("schemeFallback[%d]: negative salt length", i)
		}
	}

	for i, ctx := range c.Contexts {
		if ctx.URL == "" {
			return fmt.Errorf("contexts[%d]: url is required", i)
		}

		if (ctx.File == "") == (ctx.Inline == "") {
			return fmt.Errorf("contexts[%d]: exactly one of file and inline is required", i)
		}
	}

	switch c.Canonicalization.InvalidRDF {
	case "", InvalidRDFRemove, InvalidRDFReject:
	default:
		return fmt.Errorf("canonicalization: invalidRDF must be %s or %s", InvalidRDFRemove, InvalidRDFReject)
	}

	for i, u := range c.Canonicalization.ExternalContexts {
		if u == "" {
			return fmt.Errorf("canonicalization: externalContexts[%d] is empty", i)
		}
	}

	if c.Cache.Size < 0 {
		return errors.New("cache: negative size")
	}

	return nil
}

// ApplyLogLevel sets the level of all loggers.
func (c *Config) ApplyLogLevel() error {
	if c.LogLevel == "" {
		return nil
	}

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level '%s' : %w", c.LogLevel, err)
	}

	log.SetLevel("", level)

	logger.Infof("logger level set to %s", c.LogLevel)

	return nil
}

// Policy builds the signature parameter policy.
func (c *Config) Policy() *jsonwebkey.Policy {
	var opts []jsonwebkey.PolicyOpt

	if c.DisableSchemeFallback || len(c.SchemeFallback) > 0 {
		opts = append(opts, jsonwebkey.WithoutSchemeFallback())
	}

	if !c.DisableSchemeFallback {
		for _, s := range c.SchemeFallback {
			opts = append(opts, jsonwebkey.WithSchemeParams(s.Prefix,
				api.SignatureParams{Algorithm: s.Algorithm, SaltLength: s.SaltLength}))
		}
	}

	return jsonwebkey.NewPolicy(opts...)
}

// Resolver builds the verification method resolver.
func (c *Config) Resolver() *vmresolver.Resolver {
	if c.Framing {
		return vmresolver.New(vmresolver.WithFraming())
	}

	return vmresolver.New()
}

// ProcessorOptions returns the canonicalization options other than the document loader.
func (c *Config) ProcessorOptions() []processor.Opts {
	var opts []processor.Opts

	switch c.Canonicalization.InvalidRDF {
	case InvalidRDFRemove:
		opts = append(opts, processor.WithRemoveAllInvalidRDF())
	case InvalidRDFReject:
		opts = append(opts, processor.WithValidateRDF())
	}

	return opts
}

// SuiteOptions returns the JsonWebSignature2020 options for this configuration. A signing key
// is added by the caller.
func (c *Config) SuiteOptions() []jsonwebsignature2020.Opt {
	opts := []jsonwebsignature2020.Opt{
		jsonwebsignature2020.WithAlgorithmPolicy(c.Policy()),
		jsonwebsignature2020.WithResolver(c.Resolver()),
		jsonwebsignature2020.WithStrictValidation(!c.AllowUndefinedTerms),
	}

	if procOpts := c.ProcessorOptions(); len(procOpts) > 0 {
		opts = append(opts, jsonwebsignature2020.WithProcessorOptions(procOpts...))
	}

	if len(c.Canonicalization.ExternalContexts) > 0 {
		opts = append(opts, jsonwebsignature2020.WithExternalContext(c.Canonicalization.ExternalContexts...))
	}

	return opts
}

// DocumentLoader builds a loader with the embedded and configured contexts, remote fetching
// and caching as configured. opts are applied after the configured ones.
func (c *Config) DocumentLoader(opts ...documentloader.Opt) (ld.DocumentLoader, error) {
	docs, err := c.contextDocuments()
	if err != nil {
		return nil, err
	}

	loaderOpts := []documentloader.Opt{documentloader.WithExtraDocuments(docs...)}

	if c.Remote.Enabled {
		remoteOpts := []documentloader.RemoteOpt{
			documentloader.WithHTTPClient(&http.Client{Timeout: c.Remote.Timeout}),
			documentloader.WithMaxRetries(c.Remote.Retries),
		}

		if c.Remote.RetryInterval > 0 {
			remoteOpts = append(remoteOpts, documentloader.WithRetryInterval(c.Remote.RetryInterval))
		}

		loaderOpts = append(loaderOpts,
			documentloader.WithRemoteDocumentLoader(documentloader.NewRemoteLoader(remoteOpts...)))
	}

	loader, err := documentloader.New(append(loaderOpts, opts...)...)
	if err != nil {
		return nil, err
	}

	if c.Cache.Size > 0 {
		return documentloader.NewCachingLoader(loader, c.Cache.Size, c.Cache.TTL), nil
	}

	return loader, nil
}

func (c *Config) contextDocuments() ([]documentloader.Document, error) {
	docs := make([]documentloader.Document, 0, len(c.Contexts))

	for _, ctx := range c.Contexts {
		content := []byte(ctx.Inline)

		if ctx.File != "" {
			path := ctx.File
			if !filepath.IsAbs(path) {
				path = filepath.Join(c.dir, path)
			}

			b, err := os.ReadFile(filepath.Clean(path))
			if err != nil {
				return nil, fmt.Errorf("context %s: %w", ctx.URL, err)
			}

			content = b
		}

		docs = append(docs, documentloader.Document{URL: ctx.URL, DocumentURL: ctx.DocumentURL, Content: content})
	}

	return docs, nil
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

// Package jsonwebsignature2020 implements the JsonWebSignature2020 signature suite
// for the Linked Data Signatures specification (https://github.com/transmute-industries/lds-jws2020).
// It uses the RDF Dataset Normalization Algorithm
// to transform the input document into its canonical form.
// It uses SHA-256 [RFC6234] as the message digest algorithm.
// Proofs carry a detached JWS with an unencoded payload (RFC 7797).
// Supported signature algorithms:
// kty | crvOrSize | alg
// OKP | Ed25519   | EdDSA
// EC  | secp256k1 | ES256K
// RSA | 2048      | PS256 (salt 32), PS384, PS512, RS256
// EC  | P-256     | ES256
// EC  | P-384     | ES384
// EC  | P-521     | ES512
package jsonwebsignature2020

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/piprate/json-gold/ld"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/documentloader"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/processor"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/proof"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/validator"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/api"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/jsonwebkey"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/purpose"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/suite"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/vmresolver"
	afgotime "github.com/hyperledger/aries-framework-go-ext/component/ldproof/util/time"
)

var logger = log.New("ldproof/jsonwebsignature2020")

const (
	// SignatureType is the proof type of this suite.
	SignatureType = "JsonWebSignature2020"

	// JWKType is the verification method type of JSON Web Keys.
	JWKType = "JsonWebKey2020"

	rdfDataSetAlg = "URDNA2015"
)

// Suite implements the JsonWebSignature2020 signature suite.
type Suite struct {
	key             *jsonwebkey.Key
	date            time.Time
	jsonldProcessor *processor.Processor
	policy          *jsonwebkey.Policy
	resolver        *vmresolver.Resolver
	processorOpts   []processor.Opts
	externalContext []string
	strict          bool
}

// Opt configures a Suite.
type Opt func(*Suite)

// WithKey sets the signing key. Verification does not need one.
func WithKey(k *jsonwebkey.Key) Opt {
	return func(s *Suite) {
		s.key = k
	}
}

// WithDate sets the created date of proofs whose template has none.
func WithDate(t time.Time) Opt {
	return func(s *Suite) {
		s.date = t
	}
}

// WithProcessor sets the JSON-LD processor.
func WithProcessor(p *processor.Processor) Opt {
	return func(s *Suite) {
		s.jsonldProcessor = p
	}
}

// WithAlgorithmPolicy sets the policy used for keys built from resolved verification methods.
func WithAlgorithmPolicy(p *jsonwebkey.Policy) Opt {
	return func(s *Suite) {
		s.policy = p
	}
}

// WithResolver sets the verification method resolver.
func WithResolver(r *vmresolver.Resolver) Opt {
	return func(s *Suite) {
		s.resolver = r
	}
}

// WithProcessorOptions sets canonicalization options, e.g. processor.WithValidateRDF.
func WithProcessorOptions(opts ...processor.Opts) Opt {
	return func(s *Suite) {
		s.processorOpts = opts
	}
}

// WithExternalContext appends contexts to the document context when canonicalizing and validating.
func WithExternalContext(contexts ...string) Opt {
	return func(s *Suite) {
		s.externalContext = contexts
	}
}

// WithStrictValidation sets whether documents with terms undefined by their context are refused.
// It is on by default: json-gold drops such terms, leaving their values unsigned.
func WithStrictValidation(strict bool) Opt {
	return func(s *Suite) {
		s.strict = strict
	}
}

// New returns a JsonWebSignature2020 suite.
func New(opts ...Opt) *Suite {
	s := &Suite{
		jsonldProcessor: processor.NewProcessor(rdfDataSetAlg),
		policy:          jsonwebkey.DefaultPolicy(),
		resolver:        vmresolver.New(),
		strict:          true,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Type returns JsonWebSignature2020.
func (s *Suite) Type() string {
	return SignatureType
}

// Accept will accept only Linked Data Signatures for JWS.
func (s *Suite) Accept(t string) bool {
	return t == SignatureType
}

// RequiredContext is the JsonWebSignature2020 context URL.
func (s *Suite) RequiredContext() string {
	return documentloader.JWS2020ContextURL
}

// GetCanonicalDocument returns the URDNA2015 canonical form of doc.
func (s *Suite) GetCanonicalDocument(doc map[string]interface{}, opts ...processor.Opts) ([]byte, error) {
	return s.jsonldProcessor.GetCanonicalDocument(doc, opts...)
}

// GetDigest returns document digest.
func (s *Suite) GetDigest(doc []byte) []byte {
	digest := sha256.Sum256(doc)
	return digest[:]
}

func (s *Suite) checkContext(doc map[string]interface{}) error {
	if !proof.HasContext(doc, documentloader.JWS2020ContextURL) {
		return fmt.Errorf("%w: %s is required", suite.ErrContextMismatch, documentloader.JWS2020ContextURL)
	}

	return nil
}

// validateTerms fails with validator.ErrUndefinedTerms when a document term would be left out of
// the canonical form.
func (s *Suite) validateTerms(doc map[string]interface{}, loader ld.DocumentLoader) error {
	if !s.strict {
		return nil
	}

	return validator.ValidateJSONLDMap(proof.GetCopyWithoutProof(doc),
		validator.WithDocumentLoader(loader),
		validator.WithExternalContext(s.externalContext...))
}

func (s *Suite) canonicalizationOpts(loader ld.DocumentLoader) []processor.Opts {
	opts := append([]processor.Opts{}, s.processorOpts...)

	if len(s.externalContext) > 0 {
		opts = append(opts, processor.WithExternalContext(s.externalContext...))
	}

	return append(opts, processor.WithDocumentLoader(loader))
}

// CreateProof signs doc and returns the proof. The proof is not attached and carries no @context.
// Template fields, such as created or challenge, are kept.
func (s *Suite) CreateProof(ctx context.Context, doc map[string]interface{}, pp purpose.ProofPurpose,
	loader ld.DocumentLoader, template *proof.Proof) (*proof.Proof, error) {
	if err := s.checkContext(doc); err != nil {
		return nil, err
	}

	if s.key == nil {
		return nil, fmt.Errorf("%w: suite has no key", api.ErrMissingKeyMaterial)
	}

	if pp == nil {
		return nil, errors.New("proof purpose is required")
	}

	if loader == nil {
		return nil, errors.New("document loader is required")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loader = documentloader.WithContext(ctx, loader)

	if err := s.validateTerms(doc, loader); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		return nil, err
	}

	p, err := s.proofFromTemplate(doc, template, loader)
	if err != nil {
		return nil, err
	}

	p.Type = SignatureType
	p.Created = s.created(p.Created)

	if p.VerificationMethod == "" {
		p.VerificationMethod = s.key.ID()
	}

	p, err = pp.Update(p, &purpose.UpdateOptions{Document: doc, SuiteType: SignatureType})
	if err != nil {
		return nil, fmt.Errorf("update proof purpose: %w", err)
	}

	key, err := s.signingKey(ctx, p, loader)
	if err != nil {
		return nil, err
	}

	params, err := key.Params()
	if err != nil {
		return nil, err
	}

	signer, err := key.Signer()
	if err != nil {
		return nil, err
	}

	verifyData, err := proof.CreateVerifyData(s, s.GetDigest, doc, p.JSONLdObject(),
		s.canonicalizationOpts(loader)...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	if err != nil {
		return nil, err
	}

	header := proof.CreateDetachedJWTHeader(params.Algorithm)

	sig, err := signer.Sign(ctx, proof.SigningInput(header, verifyData), params)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}

	p.JWS = proof.AssembleDetachedJWS(header, sig)

	return p, nil
}

// proofFromTemplate compacts the template with the document context.
func (s *Suite) proofFromTemplate(doc map[string]interface{}, template *proof.Proof,
	loader ld.DocumentLoader) (*proof.Proof, error) {
	if template == nil {
		return &proof.Proof{}, nil
	}

	obj := template.JSONLdObject()
	obj["type"] = SignatureType
	delete(obj, "jws")
	delete(obj, "proofValue")

	docContext := doc["@context"]
	obj["@context"] = docContext

	compacted, err := s.jsonldProcessor.Compact(obj, map[string]interface{}{"@context": docContext},
		processor.WithDocumentLoader(loader))
	if err != nil {
		return nil, fmt.Errorf("compact proof template: %w", err)
	}

	delete(compacted, "@context")

	p, err := proof.NewProof(compacted)
	if err != nil {
		return nil, fmt.Errorf("proof template: %w", err)
	}

	return p, nil
}

func (s *Suite) created(templateCreated *afgotime.TimeWrapper) *afgotime.TimeWrapper {
	var t time.Time

	switch {
	case templateCreated != nil:
		t = templateCreated.Time
	case !s.date.IsZero():
		t = s.date
	default:
		t = time.Now()
	}

	return afgotime.NewTime(afgotime.Truncate(t))
}

// signingKey binds an external signer to its verification method. Parameters that are unknown
// are derived from the method; known ones must suit the method's key type.
// Keys built from a JWK are used as is.
func (s *Suite) signingKey(ctx context.Context, p *proof.Proof, loader ld.DocumentLoader) (*jsonwebkey.Key, error) {
	_, paramsErr := s.key.Params()
	if paramsErr == nil && s.key.PublicKey() != nil {
		return s.key, nil
	}

	vm, err := s.resolver.Resolve(ctx, p.VerificationMethod, loader)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		if paramsErr == nil {
			logger.Debugf("verification method %s not resolved, algorithm %s not checked: %s",
				p.VerificationMethod, s.key.Algorithm(), err)

			return s.key, nil
		}

		logger.Debugf("key type of %s unknown, verification method not resolved: %s", p.VerificationMethod, err)

		vm = &api.VerificationMethod{ID: p.VerificationMethod}
	}

	key, err := s.key.Bind(vm)
	if err != nil {
		return nil, fmt.Errorf("signature parameters for %s: %w", p.VerificationMethod, err)
	}

	return key, nil
}

// VerifyProof checks p against doc and then the proof purpose. It never panics; every failure
// is returned in the result.
func (s *Suite) VerifyProof(ctx context.Context, doc map[string]interface{}, p *proof.Proof,
	pp purpose.ProofPurpose, loader ld.DocumentLoader) (result *suite.VerifyResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic while verifying proof: %v", r)

			result = suite.Failed(fmt.Errorf("%w: %v", suite.ErrVerificationPanic, r))
		}
	}()

	vm, err := s.verifySignature(ctx, doc, p, loader)
	if err != nil {
		logger.Debugf("proof verification failed: %s", err)

		return suite.Failed(err)
	}

	if pp == nil {
		return suite.Failed(errors.New("proof purpose is required"))
	}

	pr := pp.Validate(ctx, p, &purpose.ValidateOptions{
		Document:           doc,
		VerificationMethod: vm,
		Loader:             documentloader.WithContext(ctx, loader),
	})
	if pr == nil || !pr.Valid {
		var perr error = purpose.ErrPurposeRejected
		if pr != nil && pr.Error != nil {
			perr = pr.Error
		}

		return &suite.VerifyResult{PurposeResult: pr, Error: perr}
	}

	return &suite.VerifyResult{Verified: true, PurposeResult: pr}
}

func (s *Suite) verifySignature(ctx context.Context, doc map[string]interface{}, p *proof.Proof,
	loader ld.DocumentLoader) (*api.VerificationMethod, error) {
	if err := s.checkContext(doc); err != nil {
		return nil, err
	}

	if p == nil || !s.Accept(p.Type) {
		return nil, fmt.Errorf("%w: not a %s proof", proof.ErrMalformedProof, SignatureType)
	}

	if loader == nil {
		return nil, errors.New("document loader is required")
	}

	jws, err := proof.ParseDetachedJWS(p.JWS)
	if err != nil {
		return nil, err
	}

	vmID, err := p.PublicKeyID()
	if err != nil {
		return nil, err
	}

	loader = documentloader.WithContext(ctx, loader)

	if err := s.validateTerms(doc, loader); err != nil {
		return nil, err
	}

	verifyData, err := proof.CreateVerifyData(s, s.GetDigest, doc, p.JSONLdObject(),
		s.canonicalizationOpts(loader)...)
	if err != nil {
		return nil, err
	}

	vm, err := s.resolver.Resolve(ctx, vmID, loader)
	if err != nil {
		return nil, err
	}

	key, err := jsonwebkey.FromVerificationMethod(vm, jsonwebkey.WithPolicy(s.policy))
	if err != nil {
		return nil, err
	}

	params, err := headerParams(key, jws.Alg)
	if err != nil {
		return nil, err
	}

	v, err := key.Verifier()
	if err != nil {
		return nil, err
	}

	err = v.Verify(ctx, proof.SigningInput(jws.Header, verifyData), jws.Signature, params)
	if err != nil {
		if errors.Is(err, api.ErrInvalidSignature) || ctx.Err() != nil {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", api.ErrInvalidSignature, err)
	}

	return vm, nil
}

// headerParams returns the parameters for the JWS header algorithm, which must agree with the key.
// An RSA key may be used with any RSA algorithm.
func headerParams(key *jsonwebkey.Key, alg string) (*api.SignatureParams, error) {
	params, err := key.Params()
	if err != nil {
		return nil, err
	}

	if params.Algorithm == alg {
		return params, nil
	}

	if jsonwebkey.IsRSA(params.Algorithm) && jsonwebkey.IsRSA(alg) {
		return jsonwebkey.ParamsForAlgorithm(alg)
	}

	return nil, fmt.Errorf("%w: JWS algorithm %s does not match the %s key %s", api.ErrInvalidSignature, alg,
		params.Algorithm, key.ID())
}

var _ suite.SignatureSuite = (*Suite)(nil)

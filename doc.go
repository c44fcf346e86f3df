/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ldproof issues and verifies JsonWebSignature2020 Linked Data proofs.
//
// Packages for end developer usage
//
// signature/suite/jsonwebsignature2020: creates and verifies one proof of a JSON-LD document.
//
// signature/signer, signature/verifier: attach proofs to documents and verify proof sets.
//
// signature/jsonwebkey: wraps JWKs and external signers, and selects JWS parameters.
//
// signature/purpose: assertionMethod and authentication proof purposes.
//
// ld/documentloader: context and DID document loading with optional remote fetch and caching.
//
// Basic workflow
//
//	1) Wrap the signing key with jsonwebkey.New or jsonwebkey.NewFromSigner.
//	2) Create the suite with jsonwebsignature2020.New(jsonwebsignature2020.WithKey(key)).
//	3) Sign with signer.New(suite).Sign, passing a document loader.
//	4) Verify with verifier.New([]suite.SignatureSuite{suite}) and a proof purpose.
package ldproof

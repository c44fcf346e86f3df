/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package purpose

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/documentloader"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/processor"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/proof"
)

// ControllerProofPurpose requires the verification method to be listed under the purpose
// term in its controller document.
type ControllerProofPurpose struct {
	*BasePurpose
}

// NewControllerProofPurpose returns a purpose checking the controller relation named term.
func NewControllerProofPurpose(term string, opts ...Opt) *ControllerProofPurpose {
	return &ControllerProofPurpose{BasePurpose: newBase(term, newOptions(opts))}
}

// Validate checks p and that the controller of the verification method authorizes it for the term.
func (c *ControllerProofPurpose) Validate(ctx context.Context, p *proof.Proof, opts *ValidateOptions) *Result {
	if err := c.check(p); err != nil {
		return reject(err)
	}

	controller, err := c.controllerDocument(ctx, opts)
	if err != nil {
		return reject(err)
	}

	return &Result{Valid: true, Controller: controller}
}

func (c *ControllerProofPurpose) controllerDocument(ctx context.Context,
	opts *ValidateOptions) (map[string]interface{}, error) {
	if opts == nil || opts.VerificationMethod == nil {
		return nil, errors.New("verification method is required")
	}

	vm := opts.VerificationMethod

	if vm.Controller == "" {
		return nil, fmt.Errorf("verification method %s has no controller", vm.ID)
	}

	doc := vm.ControllerDocument

	if doc == nil {
		var err error

		doc, err = loadController(ctx, vm.Controller, opts)
		if err != nil {
			return nil, err
		}
	}

	if id, _ := doc["id"].(string); id != vm.Controller { //nolint:errcheck
		return nil, fmt.Errorf("controller document id %q does not match controller %q", id, vm.Controller)
	}

	if !listsMethod(doc[c.term], vm.ID, vm.Controller) {
		return nil, fmt.Errorf("verification method %s is not authorized for %s by %s", vm.ID, c.term,
			vm.Controller)
	}

	return doc, nil
}

func loadController(ctx context.Context, controller string, opts *ValidateOptions) (map[string]interface{}, error) {
	if opts.Loader == nil {
		return nil, fmt.Errorf("no document loader to fetch controller %s", controller)
	}

	rd, err := documentloader.WithContext(ctx, opts.Loader).LoadDocument(controller)
	if err != nil {
		return nil, fmt.Errorf("load controller %s: %w", controller, err)
	}

	if rd == nil {
		return nil, fmt.Errorf("controller %s not found", controller)
	}

	doc, ok := rd.Document.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("controller %s is not a JSON object", controller)
	}

	return processor.CopyMap(doc), nil
}

// listsMethod reports whether relation references methodID, either by id or by embedding it.
func listsMethod(relation interface{}, methodID, controller string) bool {
	var entries []interface{}

	switch r := relation.(type) {
	case []interface{}:
		entries = r
	case nil:
		return false
	default:
		entries = []interface{}{r}
	}

	for _, e := range entries {
		var id string

		switch entry := e.(type) {
		case string:
			id = entry
		case map[string]interface{}:
			id, _ = entry["id"].(string) //nolint:errcheck
		}

		if strings.HasPrefix(id, "#") {
			id = controller + id
		}

		if id != "" && id == methodID {
			return true
		}
	}

	return false
}

var _ ProofPurpose = (*ControllerProofPurpose)(nil)

// AssertionProofPurpose validates proofs made to assert claims, e.g. credential issuance.
type AssertionProofPurpose struct {
	*ControllerProofPurpose

	statusChecker StatusChecker
}

// NewAssertionProofPurpose returns the assertionMethod purpose.
func NewAssertionProofPurpose(opts ...Opt) *AssertionProofPurpose {
	o := newOptions(opts)

	return &AssertionProofPurpose{
		ControllerProofPurpose: &ControllerProofPurpose{BasePurpose: newBase(AssertionMethod, o)},
		statusChecker:          o.statusChecker,
	}
}

// Validate checks the controller relation, then the document status when a checker is set.
func (a *AssertionProofPurpose) Validate(ctx context.Context, p *proof.Proof, opts *ValidateOptions) *Result {
	res := a.ControllerProofPurpose.Validate(ctx, p, opts)
	if !res.Valid || a.statusChecker == nil {
		return res
	}

	var doc map[string]interface{}
	if opts != nil {
		doc = opts.Document
	}

	if err := a.statusChecker.CheckStatus(ctx, doc); err != nil {
		return reject(fmt.Errorf("status check: %w", err))
	}

	return res
}

// AuthenticationProofPurpose validates proofs answering a challenge, e.g. presentations.
type AuthenticationProofPurpose struct {
	*ControllerProofPurpose

	challenge string
	domain    string
}

// NewAuthenticationProofPurpose returns the authentication purpose bound to challenge.
func NewAuthenticationProofPurpose(challenge string, opts ...Opt) (*AuthenticationProofPurpose, error) {
	if challenge == "" {
		return nil, errors.New("authentication purpose requires a challenge")
	}

	o := newOptions(opts)

	return &AuthenticationProofPurpose{
		ControllerProofPurpose: &ControllerProofPurpose{BasePurpose: newBase(Authentication, o)},
		challenge:              challenge,
		domain:                 o.domain,
	}, nil
}

// Update stamps the challenge and domain.
func (a *AuthenticationProofPurpose) Update(p *proof.Proof, opts *UpdateOptions) (*proof.Proof, error) {
	updated, err := a.ControllerProofPurpose.Update(p, opts)
	if err != nil {
		return nil, err
	}

	updated.Challenge = a.challenge

	if a.domain != "" {
		updated.Domain = a.domain
	}

	return updated, nil
}

// Validate checks challenge and domain before the controller relation.
func (a *AuthenticationProofPurpose) Validate(ctx context.Context, p *proof.Proof, opts *ValidateOptions) *Result {
	if p != nil && p.Challenge != a.challenge {
		return reject(fmt.Errorf("challenge %q does not match", p.Challenge))
	}

	if p != nil && a.domain != "" && p.Domain != a.domain {
		return reject(fmt.Errorf("domain %q does not match %q", p.Domain, a.domain))
	}

	return a.ControllerProofPurpose.Validate(ctx, p, opts)
}

var (
	_ ProofPurpose = (*AssertionProofPurpose)(nil)
	_ ProofPurpose = (*AuthenticationProofPurpose)(nil)
)

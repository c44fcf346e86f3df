/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package purpose checks that a proof was made for the reason the verifier expects.
package purpose

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/piprate/json-gold/ld"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/proof"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/api"
)

var logger = log.New("ldproof/purpose")

// ErrPurposeRejected is wrapped by every Result.Error.
var ErrPurposeRejected = errors.New("proof purpose rejected")

// Relations of a controller document.
const (
	AssertionMethod = "assertionMethod"
	Authentication  = "authentication"
)

// Result is the outcome of Validate. Controller is the controller document when one was checked.
type Result struct {
	Valid      bool
	Error      error
	Controller map[string]interface{}
}

// UpdateOptions is what a purpose may look at while a proof is created.
type UpdateOptions struct {
	Document  map[string]interface{}
	SuiteType string
}

// ValidateOptions is what a purpose may look at while a proof is verified.
type ValidateOptions struct {
	Document           map[string]interface{}
	VerificationMethod *api.VerificationMethod
	Loader             ld.DocumentLoader
}

// ProofPurpose stamps proofs at creation and validates them at verification.
// Implementations are immutable and safe for concurrent use.
type ProofPurpose interface {
	Term() string
	Update(p *proof.Proof, opts *UpdateOptions) (*proof.Proof, error)
	Validate(ctx context.Context, p *proof.Proof, opts *ValidateOptions) *Result
}

// StatusChecker decides whether a verified document is still in good standing, e.g. not revoked.
type StatusChecker interface {
	CheckStatus(ctx context.Context, doc map[string]interface{}) error
}

// StatusCheckerFunc adapts a function to StatusChecker.
type StatusCheckerFunc func(ctx context.Context, doc map[string]interface{}) error

// CheckStatus calls f.
func (f StatusCheckerFunc) CheckStatus(ctx context.Context, doc map[string]interface{}) error {
	return f(ctx, doc)
}

type options struct {
	date              time.Time
	maxTimestampDelta time.Duration
	domain            string
	statusChecker     StatusChecker
}

// Opt configures a purpose.
type Opt func(*options)

// WithDate sets the reference date proofs are compared against. Defaults to the time of validation.
func WithDate(t time.Time) Opt {
	return func(o *options) {
		o.date = t
	}
}

// WithMaxTimestampDelta rejects proofs created further than d from the reference date.
// Without it the creation date is not checked.
func WithMaxTimestampDelta(d time.Duration) Opt {
	return func(o *options) {
		o.maxTimestampDelta = d
	}
}

// WithDomain binds an authentication purpose to a domain.
func WithDomain(domain string) Opt {
	return func(o *options) {
		o.domain = domain
	}
}

// WithStatusChecker adds a status check to an assertion purpose.
func WithStatusChecker(c StatusChecker) Opt {
	return func(o *options) {
		o.statusChecker = c
	}
}

func newOptions(opts []Opt) options {
	o := options{maxTimestampDelta: -1}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// BasePurpose matches the proofPurpose term and checks the proof dates.
type BasePurpose struct {
	term              string
	date              time.Time
	maxTimestampDelta time.Duration
}

// NewBasePurpose returns a purpose for term without controller checks.
func NewBasePurpose(term string, opts ...Opt) *BasePurpose {
	o := newOptions(opts)

	return newBase(term, o)
}

func newBase(term string, o options) *BasePurpose {
	return &BasePurpose{term: term, date: o.date, maxTimestampDelta: o.maxTimestampDelta}
}

// Term is the proofPurpose value.
func (b *BasePurpose) Term() string {
	return b.term
}

// Update returns a copy of p with proofPurpose set.
func (b *BasePurpose) Update(p *proof.Proof, _ *UpdateOptions) (*proof.Proof, error) {
	if p == nil {
		return nil, errors.New("proof is nil")
	}

	updated := p.Copy()
	updated.ProofPurpose = b.term

	return updated, nil
}

// Validate checks the term and dates of p.
func (b *BasePurpose) Validate(_ context.Context, p *proof.Proof, _ *ValidateOptions) *Result {
	if err := b.check(p); err != nil {
		return reject(err)
	}

	return &Result{Valid: true}
}

func (b *BasePurpose) check(p *proof.Proof) error {
	if p == nil {
		return errors.New("proof is nil")
	}

	if p.ProofPurpose != b.term {
		return fmt.Errorf("proof purpose %q does not match %q", p.ProofPurpose, b.term)
	}

	now := b.date
	if now.IsZero() {
		now = time.Now()
	}

	if p.Expires != nil && now.After(p.Expires.Time) {
		return fmt.Errorf("proof expired at %s", p.Expires.FormatToString())
	}

	if b.maxTimestampDelta < 0 {
		return nil
	}

	if p.Created == nil {
		return errors.New("proof has no creation date")
	}

	delta := now.Sub(p.Created.Time)
	if delta < 0 {
		delta = -delta
	}

	if delta > b.maxTimestampDelta {
		return fmt.Errorf("proof created at %s is outside the allowed %s window", p.Created.FormatToString(),
			b.maxTimestampDelta)
	}

	return nil
}

func reject(err error) *Result {
	logger.Debugf("proof purpose rejected: %s", err)

	return &Result{Error: fmt.Errorf("%w: %w", ErrPurposeRejected, err)}
}

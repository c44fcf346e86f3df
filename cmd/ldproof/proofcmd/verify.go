/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package proofcmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/suite"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/suite/jsonwebsignature2020"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/verifier"
)

// ErrNotVerified is returned by the verify command after the report is written when a proof failed.
var ErrNotVerified = errors.New("document not verified")

// report is the JSON output of the verify command.
type report struct {
	Verified bool           `json:"verified"`
	Proofs   []*proofReport `json:"proofs"`
}

type proofReport struct {
	Index              int    `json:"index"`
	Type               string `json:"type,omitempty"`
	VerificationMethod string `json:"verificationMethod,omitempty"`
	Verified           bool   `json:"verified"`
	Controller         string `json:"controller,omitempty"`
	Error              string `json:"error,omitempty"`
}

// VerifyCmd returns the command that verifies the proofs of a document.
func VerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a JSON-LD document",
		Long:  "Verify the JsonWebSignature2020 proofs of a JSON-LD document and print a JSON report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd)
		},
	}

	addCommonFlags(cmd)

	return cmd
}

func runVerify(cmd *cobra.Command) error {
	env, err := prepare(cmd)
	if err != nil {
		return err
	}

	pp, err := proofPurpose(cmd)
	if err != nil {
		return err
	}

	s := jsonwebsignature2020.New(env.cfg.SuiteOptions()...)

	dv, err := verifier.New([]suite.SignatureSuite{s})
	if err != nil {
		return err
	}

	result, err := dv.Verify(commandContext(cmd), env.input, pp, env.loader)
	if err != nil {
		return fmt.Errorf("verify document: %w", err)
	}

	out, err := json.MarshalIndent(newReport(result), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err = writeOutput(cmd, env.output, out); err != nil {
		return err
	}

	if !result.Verified {
		logger.Warnf("verification failed: %s", result.Error())

		return ErrNotVerified
	}

	return nil
}

func newReport(result *verifier.Result) *report {
	r := &report{Verified: result.Verified, Proofs: make([]*proofReport, 0, len(result.Proofs))}

	for _, p := range result.Proofs {
		pr := &proofReport{
			Index:              p.Index,
			Type:               p.Type,
			VerificationMethod: p.VerificationMethod,
			Verified:           p.Verified,
		}

		if p.PurposeResult != nil && p.PurposeResult.Controller != nil {
			pr.Controller, _ = p.PurposeResult.Controller["id"].(string)
		}

		if p.VerifyResult.Error != nil {
			pr.Error = p.VerifyResult.Error.Error()
		}

		r.Proofs = append(r.Proofs, pr)
	}

	return r
}

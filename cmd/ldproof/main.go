/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package main is the ldproof tool, which signs and verifies JSON-LD documents with
// JsonWebSignature2020 proofs.
package main

import (
	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/cmd/ldproof/proofcmd"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "ldproof",
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	rootCmd.AddCommand(proofcmd.SignCmd(), proofcmd.VerifyCmd())

	return rootCmd
}

func main() {
	logger := log.New("ldproof")

	if err := newRootCmd().Execute(); err != nil {
		logger.Fatalf("Failed to run ldproof: %s", err)
	}
}

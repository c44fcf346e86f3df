/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package proofcmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/doc/jose/jwk"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/jsonwebkey"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/signer"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/suite/jsonwebsignature2020"
)

const (
	keyFlagName      = "key"
	keyEnvKey        = "LDPROOF_KEY"
	keyFlagShorthand = "k"
	keyFlagUsage     = "Path of the private JWK to sign with." +
		" Alternatively, this can be set with the following environment variable: " + keyEnvKey

	keyIDFlagName  = "key-id"
	keyIDEnvKey    = "LDPROOF_KEY_ID"
	keyIDFlagUsage = "Verification method id of the key. Defaults to the kid of the JWK." +
		" Alternatively, this can be set with the following environment variable: " + keyIDEnvKey

	algorithmFlagName  = "algorithm"
	algorithmFlagUsage = "JWS algorithm to sign with, e.g. PS256. Selected from the key if not set."
)

// SignCmd returns the command that adds a JsonWebSignature2020 proof to a document.
func SignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a JSON-LD document",
		Long:  "Add a JsonWebSignature2020 proof to a JSON-LD document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSign(cmd)
		},
	}

	addCommonFlags(cmd)
	cmd.Flags().StringP(keyFlagName, keyFlagShorthand, "", keyFlagUsage)
	cmd.Flags().StringP(keyIDFlagName, "", "", keyIDFlagUsage)
	cmd.Flags().StringP(algorithmFlagName, "", "", algorithmFlagUsage)

	return cmd
}

func runSign(cmd *cobra.Command) error {
	env, err := prepare(cmd)
	if err != nil {
		return err
	}

	key, err := signingKey(cmd, env)
	if err != nil {
		return err
	}

	pp, err := proofPurpose(cmd)
	if err != nil {
		return err
	}

	s := jsonwebsignature2020.New(append(env.cfg.SuiteOptions(), jsonwebsignature2020.WithKey(key))...)

	challenge, _ := cmd.Flags().GetString(challengeFlagName) // nolint:errcheck
	domain, _ := cmd.Flags().GetString(domainFlagName)       // nolint:errcheck

	signed, err := signer.New(s).Sign(commandContext(cmd), &signer.Context{
		SignatureType: jsonwebsignature2020.SignatureType,
		Purpose:       pp,
		Challenge:     challenge,
		Domain:        domain,
	}, env.input, env.loader)
	if err != nil {
		return err
	}

	logger.Infof("signed document with %s", key.ID())

	return writeOutput(cmd, env.output, signed)
}

func signingKey(cmd *cobra.Command, env *environment) (*jsonwebkey.Key, error) {
	keyPath, err := getUserSetVar(cmd, keyFlagName, keyEnvKey, false)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(filepath.Clean(keyPath))
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}

	var j jwk.JWK

	if err = j.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("parse key: %w", err)
	}

	if j.IsPublic() {
		return nil, errors.New("key must hold private key material")
	}

	keyID, err := getUserSetVar(cmd, keyIDFlagName, keyIDEnvKey, true)
	if err != nil {
		return nil, err
	}

	if keyID == "" {
		keyID = j.KeyID
	}

	if keyID == "" {
		return nil, errors.New("key id is required: set --" + keyIDFlagName + " or the kid of the JWK")
	}

	opts := []jsonwebkey.Opt{
		jsonwebkey.WithPolicy(env.cfg.Policy()),
		jsonwebkey.WithMethodType(jsonwebsignature2020.JWKType),
	}

	alg, err := cmd.Flags().GetString(algorithmFlagName)
	if err != nil {
		return nil, fmt.Errorf(algorithmFlagName+" flag not found: %s", err)
	}

	if alg != "" {
		opts = append(opts, jsonwebkey.WithAlgorithm(alg))
	}

	return jsonwebkey.New(keyID, &j, opts...)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

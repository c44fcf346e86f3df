/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

// Package proofcmd holds the sign and verify commands of the ldproof tool.
package proofcmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piprate/json-gold/ld"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/config"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/ld/documentloader"
	"github.com/hyperledger/aries-framework-go-ext/component/ldproof/signature/purpose"
)

var logger = log.New("ldproof/cmd")

const (
	configFlagName  = "config"
	configEnvKey    = "LDPROOF_CONFIG"
	configFlagUsage = "Path to a YAML configuration file (optional)." +
		" Alternatively, this can be set with the following environment variable: " + configEnvKey

	logLevelFlagName  = "log-level"
	logLevelEnvKey    = "LDPROOF_LOG_LEVEL"
	logLevelFlagUsage = "Log level." +
		" Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL] . Defaults to INFO if not set." +
		" Alternatively, this can be set with the following environment variable: " + logLevelEnvKey

	inputFlagName      = "in"
	inputFlagShorthand = "i"
	inputFlagUsage     = "Path of the JSON-LD document to read."

	outputFlagName      = "out"
	outputFlagShorthand = "o"
	outputFlagUsage     = "Path to write the result to. Defaults to standard output."

	documentFlagName  = "document"
	documentEnvKey    = "LDPROOF_DOCUMENTS"
	documentFlagUsage = "Path of a JSON-LD document, such as a DID document, to preload under its id." +
		" This flag can be repeated." +
		" Alternatively, this can be set with the following environment variable (in CSV format): " + documentEnvKey

	purposeFlagName  = "purpose"
	purposeFlagUsage = "Proof purpose. Possible values [" + purpose.AssertionMethod + "] [" +
		purpose.Authentication + "]. Defaults to " + purpose.AssertionMethod + "."

	challengeFlagName  = "challenge"
	challengeFlagUsage = "Challenge of an authentication proof."

	domainFlagName  = "domain"
	domainFlagUsage = "Domain the proof is bound to (optional)."
)

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(configFlagName, "", "", configFlagUsage)
	cmd.Flags().StringP(logLevelFlagName, "", "", logLevelFlagUsage)
	cmd.Flags().StringP(inputFlagName, inputFlagShorthand, "", inputFlagUsage)
	cmd.Flags().StringP(outputFlagName, outputFlagShorthand, "", outputFlagUsage)
	cmd.Flags().StringSliceP(documentFlagName, "", []string{}, documentFlagUsage)
	cmd.Flags().StringP(purposeFlagName, "", purpose.AssertionMethod, purposeFlagUsage)
	cmd.Flags().StringP(challengeFlagName, "", "", challengeFlagUsage)
	cmd.Flags().StringP(domainFlagName, "", "", domainFlagUsage)
}

// environment is what both commands need before touching the document.
type environment struct {
	cfg    *config.Config
	loader ld.DocumentLoader
	input  []byte
	output string
}

func prepare(cmd *cobra.Command) (*environment, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if err = setLogLevel(cmd, cfg); err != nil {
		return nil, err
	}

	docPaths, err := getUserSetVars(cmd, documentFlagName, documentEnvKey, true)
	if err != nil {
		return nil, err
	}

	docs, err := readDocuments(docPaths)
	if err != nil {
		return nil, err
	}

	loader, err := cfg.DocumentLoader(documentloader.WithExtraDocuments(docs...))
	if err != nil {
		return nil, fmt.Errorf("create document loader: %w", err)
	}

	inPath, err := cmd.Flags().GetString(inputFlagName)
	if err != nil {
		return nil, fmt.Errorf(inputFlagName+" flag not found: %s", err)
	}

	if inPath == "" {
		return nil, errors.New("input document is required: set --" + inputFlagName)
	}

	input, err := os.ReadFile(filepath.Clean(inPath))
	if err != nil {
		return nil, fmt.Errorf("read input document: %w", err)
	}

	output, err := cmd.Flags().GetString(outputFlagName)
	if err != nil {
		return nil, fmt.Errorf(outputFlagName+" flag not found: %s", err)
	}

	return &environment{cfg: cfg, loader: loader, input: input, output: output}, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := getUserSetVar(cmd, configFlagName, configEnvKey, true)
	if err != nil {
		return nil, err
	}

	if path == "" {
		return config.Default(), nil
	}

	return config.Load(path)
}

func setLogLevel(cmd *cobra.Command, cfg *config.Config) error {
	logLevel, err := getUserSetVar(cmd, logLevelFlagName, logLevelEnvKey, true)
	if err != nil {
		return err
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg.ApplyLogLevel()
}

// readDocuments reads documents to preload. Each is stored under its top-level id.
func readDocuments(paths []string) ([]documentloader.Document, error) {
	docs := make([]documentloader.Document, 0, len(paths))

	for _, p := range paths {
		b, err := os.ReadFile(filepath.Clean(p))
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}

		id := gjson.GetBytes(b, "id").String()
		if id == "" {
			return nil, fmt.Errorf("document %s has no id", p)
		}

		docs = append(docs, documentloader.Document{URL: id, Content: b})
	}

	return docs, nil
}

func proofPurpose(cmd *cobra.Command) (purpose.ProofPurpose, error) {
	term, err := cmd.Flags().GetString(purposeFlagName)
	if err != nil {
		return nil, fmt.Errorf(purposeFlagName+" flag not found: %s", err)
	}

	challenge, err := cmd.Flags().GetString(challengeFlagName)
	if err != nil {
		return nil, fmt.Errorf(challengeFlagName+" flag not found: %s", err)
	}

	domain, err := cmd.Flags().GetString(domainFlagName)
	if err != nil {
		return nil, fmt.Errorf(domainFlagName+" flag not found: %s", err)
	}

	var opts []purpose.Opt
	if domain != "" {
		opts = append(opts, purpose.WithDomain(domain))
	}

	switch term {
	case purpose.AssertionMethod:
		return purpose.NewAssertionProofPurpose(opts...), nil
	case purpose.Authentication:
		return purpose.NewAuthenticationProofPurpose(challenge, opts...)
	default:
		return nil, fmt.Errorf("unsupported proof purpose: %s", term)
	}
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(append(data, '\n'))

		return err
	}

	if err := os.WriteFile(filepath.Clean(path), data, 0o600); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logger.Debugf("wrote %s", path)

	return nil
}

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}

func getUserSetVars(cmd *cobra.Command, flagName, envKey string, isOptional bool) ([]string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetStringSlice(flagName)
		if err != nil {
			return nil, fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	var values []string

	if isSet && value != "" {
		values = strings.Split(value, ",")
	}

	if isOptional || isSet {
		return values, nil
	}

	return nil, fmt.Errorf(" %s not set. "+
		"It must be set via either command line or environment variable", flagName)
}

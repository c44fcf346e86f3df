/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package documentloader

import (
	_ "embed" //nolint:gci // required for go:embed
)

// JWS2020ContextURL is the context every JsonWebSignature2020 document must carry.
const JWS2020ContextURL = "https://w3id.org/security/suites/jws-2020/v1"

// nolint:gochecknoglobals // required for go:embed
var (
	//go:embed contexts/jws-2020-v1.jsonld
	jws2020V1 []byte
)

// EmbeddedContexts are preloaded into every DocumentLoader.
func EmbeddedContexts() []Document {
	return []Document{
		{
			URL:         JWS2020ContextURL,
			DocumentURL: "https://w3c-ccg.github.io/lds-jws2020/contexts/lds-jws2020-v1.json",
			Content:     jws2020V1,
		},
	}
}

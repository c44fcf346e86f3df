/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package proof

import "golang.org/x/exp/slices"

// HasContext reports whether the document's @context is url or a list containing url.
func HasContext(doc map[string]interface{}, url string) bool {
	switch ctx := doc[jsonldContext].(type) {
	case string:
		return ctx == url
	case []interface{}:
		return slices.ContainsFunc(ctx, func(c interface{}) bool {
			s, ok := c.(string)

			return ok && s == url
		})
	case []string:
		return slices.Contains(ctx, url)
	}

	return false
}

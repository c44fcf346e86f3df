/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package time holds the date handling shared by proofs and purposes.
package time

import (
	"encoding/json"
	"fmt"
	"time"
)

// ProofLayout is the layout of a proof's created and expires values: UTC with whole seconds.
const ProofLayout = "2006-01-02T15:04:05Z"

// TimeWrapper is a time.Time that remembers the literal it was parsed from so that
// a proof read from JSON serializes back to the exact same bytes.
type TimeWrapper struct { // nolint:golint
	time.Time
	timeStr string
}

// NewTime wraps t. A wrapper created this way serializes in ProofLayout.
func NewTime(t time.Time) *TimeWrapper {
	return &TimeWrapper{Time: t}
}

// Now returns the current time in ProofLayout precision.
func Now() *TimeWrapper {
	return NewTime(Truncate(time.Now()))
}

// Truncate drops the sub-second part and moves t to UTC.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// FormatProofTime renders t in ProofLayout.
func FormatProofTime(t time.Time) string {
	return Truncate(t).Format(ProofLayout)
}

// MarshalJSON implements json.Marshaler.
func (tm TimeWrapper) MarshalJSON() ([]byte, error) {
	// time.Time rejects years outside [0,9999]
	if _, err := tm.Time.MarshalJSON(); err != nil {
		return nil, err
	}

	return json.Marshal(tm.FormatToString())
}

// UnmarshalJSON implements json.Unmarshaler. The source literal is retained.
func (tm *TimeWrapper) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var timeStr string

	if err := json.Unmarshal(data, &timeStr); err != nil {
		return err
	}

	return tm.parse(timeStr)
}

func (tm *TimeWrapper) parse(timeStr string) error {
	t, err := time.Parse(time.RFC3339, timeStr)
	if err != nil {
		// dates without a zone designator are read as UTC
		t, err = time.Parse(time.RFC3339, timeStr+"Z")
		if err != nil {
			return fmt.Errorf("parse time %q: %w", timeStr, err)
		}
	}

	tm.Time = t
	tm.timeStr = timeStr

	return nil
}

// FormatToString returns the literal this wrapper was parsed from, or ProofLayout otherwise.
func (tm *TimeWrapper) FormatToString() string {
	if tm.timeStr != "" {
		return tm.timeStr
	}

	return FormatProofTime(tm.Time)
}

// ParseTimeWrapper parses an RFC 3339 date, tolerating a missing zone designator.
func ParseTimeWrapper(timeStr string) (*TimeWrapper, error) {
	tm := TimeWrapper{}

	if err := tm.parse(timeStr); err != nil {
		return nil, err
	}

	return &tm, nil
}

// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package shamir

import (
	"errors"
)

var (
	// ErrInvalidArgument is returned when caller supplied parameters violate
	// the scheme's preconditions (threshold exceeds share count, zero counts,
	// empty share list).
	ErrInvalidArgument = errors.New("shamir: invalid argument")

	// ErrPrimeMismatch is returned when the supplied shares were not produced
	// by the same generation run.
	ErrPrimeMismatch = errors.New("shamir: prime mismatch: not all shares have the same prime number")

	// ErrLengthMismatch is returned when the supplied shares disagree on the
	// length of the secret they encode.
	ErrLengthMismatch = errors.New("shamir: secret length mismatch")

	// ErrDuplicateInput is returned when two shares carry the same
	// x-coordinate, leaving the interpolation undefined.
	ErrDuplicateInput = errors.New("shamir: duplicate share input")

	// ErrInvalidShare is returned for malformed shares: missing fields, a zero
	// input, a value outside [0, prime) or an undecodable wire form.
	ErrInvalidShare = errors.New("shamir: invalid share")
)

// ErrorType returns a short, stable identifier for err suitable for metric
// labels and log fields.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrPrimeMismatch):
		return "prime_mismatch"
	case errors.Is(err, ErrLengthMismatch):
		return "length_mismatch"
	case errors.Is(err, ErrDuplicateInput):
		return "duplicate_input"
	case errors.Is(err, ErrInvalidShare):
		return "invalid_share"
	default:
		return "internal"
	}
}

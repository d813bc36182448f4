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

var defaultDealer = NewDealer()

// GenerateShares divides a secret into numPieces shares where any
// requiredPieces of them reconstruct it.
//
// Parameters:
//   - secret: The secret data to split (may be empty)
//   - numPieces: Total number of shares to create (N)
//   - requiredPieces: Minimum number of shares needed to reconstruct (K)
//
// Returns ErrInvalidArgument when requiredPieces > numPieces or when either
// count is zero.
//
// Example:
//
//	shares, err := shamir.GenerateShares([]byte("Hello World!"), 5, 3)
//	// Creates 5 shares, any 3 can reconstruct the secret
func GenerateShares(secret []byte, numPieces, requiredPieces uint64) ([]*Share, error) {
	return defaultDealer.GenerateShares(secret, numPieces, requiredPieces)
}

// RebuildSecret reconstructs the secret from a set of shares produced by one
// GenerateShares call.
//
// Returns ErrPrimeMismatch when the shares do not share a common prime and
// ErrDuplicateInput when two shares carry the same input.
//
// Example:
//
//	secret, err := shamir.RebuildSecret([]*shamir.Share{shares[0], shares[2], shares[4]})
func RebuildSecret(shares []*Share) ([]byte, error) {
	return defaultDealer.RebuildSecret(shares)
}

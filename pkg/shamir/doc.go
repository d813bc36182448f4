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

// Package shamir implements Shamir's Secret Sharing over a prime field sized
// to the secret.
//
// A secret is split into N shares such that any K of them reconstruct it
// exactly while K-1 or fewer reveal nothing about it. The secret, read as a
// big-endian unsigned integer, is the constant term of a random polynomial
// of degree K-1:
//
//	f(x) = s + a1*x + a2*x^2 + ... + a(K-1)*x^(K-1)  (mod p)
//
// Shares are the points (x, f(x)) for x = 1..N. The secret is recovered by
// Lagrange interpolation at x = 0.
//
// # Field Selection
//
// The prime p is chosen per call: a random integer of
// ceil(len(secret) * 8 * 1.1) bits with its top bit set is advanced to the
// next probable prime. Every share from one call carries the same prime;
// shares from different calls are rejected with ErrPrimeMismatch.
//
// # Randomness
//
// The random source is an explicit io.Reader passed with WithRand. The
// package default is the software resolver from pkg/rand (crypto/rand).
// Tests may substitute rand.NewDeterministic for reproducible output.
//
// # Security Properties
//
//   - Information-theoretic secrecy below the threshold
//   - No verifiability: a dishonest dealer is not detected
//   - No share authentication beyond prime and length agreement
//   - Not constant-time
//
// # Usage Example
//
//	shares, err := shamir.GenerateShares([]byte("Hello World!"), 5, 3)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Later, reconstruct with any 3 shares
//	secret, err := shamir.RebuildSecret(shares[1:4])
//	if err != nil {
//	    log.Fatal(err)
//	}
package shamir

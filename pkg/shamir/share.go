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
	"fmt"
	"math/big"
)

// Share is a single point on the secret polynomial. Shares are produced by
// GenerateShares and are treated as immutable values afterwards.
type Share struct {
	// Value is the polynomial evaluated at Input, reduced modulo Prime
	Value *big.Int

	// Prime is the field modulus used when this share was generated.
	// Every share from one generation call carries the same prime.
	Prime *big.Int

	// Input is the x-coordinate (1 to N). Zero is reserved for the secret.
	Input uint64

	// SecretLen is the byte length of the secret at generation time. It is
	// used to restore leading zero bytes on reconstruction. Zero means the
	// minimal big-endian encoding is returned.
	SecretLen int
}

// Validate checks that the share is well formed on its own. It does not
// check consistency with other shares.
func (s *Share) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: share is nil", ErrInvalidShare)
	}
	if s.Prime == nil || s.Prime.Cmp(two) < 0 {
		return fmt.Errorf("%w: share %d has no usable prime", ErrInvalidShare, s.Input)
	}
	if s.Value == nil {
		return fmt.Errorf("%w: share %d has no value", ErrInvalidShare, s.Input)
	}
	if s.Input == 0 {
		return fmt.Errorf("%w: input 0 is reserved for the secret", ErrInvalidShare)
	}
	if s.Value.Sign() < 0 || s.Value.Cmp(s.Prime) >= 0 {
		return fmt.Errorf("%w: share %d value is outside [0, prime)", ErrInvalidShare, s.Input)
	}
	if s.SecretLen < 0 {
		return fmt.Errorf("%w: share %d has negative secret length", ErrInvalidShare, s.Input)
	}
	// A secret of L bytes is always shared over a prime of at least 8L+1 bits.
	if maxLen := (s.Prime.BitLen() - 1) / 8; s.SecretLen > maxLen {
		return fmt.Errorf("%w: share %d secret length %d exceeds the %d bytes its %d-bit prime can carry",
			ErrInvalidShare, s.Input, s.SecretLen, maxLen, s.Prime.BitLen())
	}
	return nil
}

// Clone returns a deep copy of the share.
func (s *Share) Clone() *Share {
	c := &Share{
		Input:     s.Input,
		SecretLen: s.SecretLen,
	}
	if s.Value != nil {
		c.Value = new(big.Int).Set(s.Value)
	}
	if s.Prime != nil {
		c.Prime = new(big.Int).Set(s.Prime)
	}
	return c
}

// Equal reports whether two shares carry the same point, prime and length.
func (s *Share) Equal(other *Share) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Input == other.Input &&
		s.SecretLen == other.SecretLen &&
		cmpNil(s.Value, other.Value) &&
		cmpNil(s.Prime, other.Prime)
}

// SamePrime reports whether both shares were generated over the same field.
func (s *Share) SamePrime(other *Share) bool {
	return s.Prime != nil && other.Prime != nil && s.Prime.Cmp(other.Prime) == 0
}

// GoString returns a debug representation that never includes the value.
func (s *Share) GoString() string {
	bits := 0
	if s.Prime != nil {
		bits = s.Prime.BitLen()
	}
	return fmt.Sprintf("Share{Input: %d, PrimeBits: %d, SecretLen: %d}", s.Input, bits, s.SecretLen)
}

func cmpNil(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}

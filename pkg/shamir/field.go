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
	"io"
	"math/big"
	"math/bits"
)

const (
	// primalityRounds is the number of Miller-Rabin rounds used on top of
	// the Baillie-PSW test performed by big.Int.ProbablyPrime.
	primalityRounds = 32

	// marginNumerator / marginDenominator size the prime at 110% of the
	// secret's bit length.
	marginNumerator   = 88
	marginDenominator = 10
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// primeBitLen returns the bit length of the prime candidate for a secret of
// secretLen bytes split into numPieces shares. The length is
// ceil(secretLen * 8 * 1.1), raised so that every input in [1, numPieces]
// is a distinct nonzero field element.
func primeBitLen(secretLen int, numPieces uint64) int {
	n := (secretLen*marginNumerator + marginDenominator - 1) / marginDenominator
	if floor := bits.Len64(numPieces) + 1; n < floor {
		n = floor
	}
	return n
}

// choosePrime draws a random integer of exactly nbits bits (top bit set) and
// advances it to the next probable prime. Forcing the top bit keeps the
// prime at or above 2^(nbits-1), which is larger than any secret the bit
// length was derived from.
func choosePrime(r io.Reader, nbits int) (*big.Int, error) {
	candidate, err := randomBits(r, nbits)
	if err != nil {
		return nil, fmt.Errorf("failed to draw prime candidate: %w", err)
	}
	return nextPrime(candidate), nil
}

// randomBits returns a uniformly random integer in [2^(nbits-1), 2^nbits).
func randomBits(r io.Reader, nbits int) (*big.Int, error) {
	if nbits < 1 {
		return nil, fmt.Errorf("%w: bit length must be positive, got %d", ErrInvalidArgument, nbits)
	}
	buf := make([]byte, (nbits+7)/8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	excess := uint(len(buf)*8 - nbits)
	buf[0] &= 0xff >> excess
	buf[0] |= 0x80 >> excess
	return new(big.Int).SetBytes(buf), nil
}

// randomBelow returns a uniformly random integer in [0, max) using rejection
// sampling over the bit length of max.
func randomBelow(r io.Reader, max *big.Int) (*big.Int, error) {
	if max.Sign() <= 0 {
		return nil, fmt.Errorf("%w: upper bound must be positive", ErrInvalidArgument)
	}
	k := max.BitLen()
	buf := make([]byte, (k+7)/8)
	mask := byte(0xff >> uint(len(buf)*8-k))
	n := new(big.Int)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		buf[0] &= mask
		n.SetBytes(buf)
		if n.Cmp(max) < 0 {
			return n, nil
		}
	}
}

// nextPrime returns the smallest probable prime >= n.
func nextPrime(n *big.Int) *big.Int {
	if n.Cmp(two) <= 0 {
		return big.NewInt(2)
	}
	p := new(big.Int).Set(n)
	if p.Bit(0) == 0 {
		p.Add(p, one)
	}
	for !p.ProbablyPrime(primalityRounds) {
		p.Add(p, two)
	}
	return p
}

// polynomial is a list of coefficients over GF(prime), lowest degree first.
type polynomial struct {
	coefficients []*big.Int
	prime        *big.Int
}

// newPolynomial builds a polynomial of the given degree whose constant term
// is secret and whose remaining coefficients are uniform in [0, prime).
func newPolynomial(r io.Reader, secret, prime *big.Int, degree int) (*polynomial, error) {
	coeffs := make([]*big.Int, degree+1)
	coeffs[0] = new(big.Int).Set(secret)
	for i := 1; i <= degree; i++ {
		c, err := randomBelow(r, prime)
		if err != nil {
			return nil, fmt.Errorf("failed to draw coefficient %d: %w", i, err)
		}
		coeffs[i] = c
	}
	return &polynomial{coefficients: coeffs, prime: prime}, nil
}

// evaluate computes f(x) mod prime using Horner's rule.
func (p *polynomial) evaluate(x uint64) *big.Int {
	bx := new(big.Int).SetUint64(x)
	result := new(big.Int)
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		result.Mul(result, bx)
		result.Add(result, p.coefficients[i])
		result.Mod(result, p.prime)
	}
	return result
}

// zeroize clears the coefficients so the secret does not linger in the
// polynomial after shares are produced.
func (p *polynomial) zeroize() {
	for _, c := range p.coefficients {
		c.SetInt64(0)
	}
}

// lagrangeTerm computes y_i * L_i(0) mod prime for share i, where
// L_i(0) = prod_{j != i} (-x_j) / (x_i - x_j).
func lagrangeTerm(shares []*Share, i int, prime *big.Int) (*big.Int, error) {
	numerator := big.NewInt(1)
	denominator := big.NewInt(1)
	xi := new(big.Int).SetUint64(shares[i].Input)
	xj := new(big.Int)
	diff := new(big.Int)

	for j, share := range shares {
		if j == i {
			continue
		}
		xj.SetUint64(share.Input)

		// -x_j mod prime
		diff.Neg(xj)
		numerator.Mul(numerator, diff)
		numerator.Mod(numerator, prime)

		diff.Sub(xi, xj)
		denominator.Mul(denominator, diff)
		denominator.Mod(denominator, prime)
	}

	inverse := new(big.Int).ModInverse(denominator, prime)
	if inverse == nil {
		return nil, fmt.Errorf("%w: share %d collides with another input modulo the prime",
			ErrDuplicateInput, shares[i].Input)
	}

	term := new(big.Int).Mul(shares[i].Value, numerator)
	term.Mul(term, inverse)
	return term.Mod(term, prime), nil
}

// sumTerms adds the Lagrange terms modulo prime. Each step adds prime before
// reducing so intermediate values stay non-negative.
func sumTerms(terms []*big.Int, prime *big.Int) *big.Int {
	sum := new(big.Int)
	for _, t := range terms {
		sum.Add(sum, prime)
		sum.Add(sum, t)
		sum.Mod(sum, prime)
	}
	return sum
}

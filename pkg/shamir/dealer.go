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
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jeremyhahn/go-shamir/pkg/logger"
	"github.com/jeremyhahn/go-shamir/pkg/metrics"
	"github.com/jeremyhahn/go-shamir/pkg/rand"
)

// MaxPieces is the largest number of shares a single generation call may
// produce.
const MaxPieces = 65535

// Dealer splits and rebuilds secrets using an explicit random source,
// logger and concurrency setting. A Dealer holds no mutable state and is
// safe for concurrent use as long as its random source is.
type Dealer struct {
	rand    io.Reader
	logger  logger.Logger
	workers int
	metrics bool
}

// Option configures a Dealer.
type Option func(*Dealer)

// WithRand sets the random source used for prime selection and polynomial
// coefficients. It must be cryptographically secure outside of tests.
func WithRand(r io.Reader) Option {
	return func(d *Dealer) {
		if r != nil {
			d.rand = r
		}
	}
}

// WithLogger sets the logger. Secret material and share values are never
// logged.
func WithLogger(l logger.Logger) Option {
	return func(d *Dealer) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithWorkers sets how many goroutines evaluate shares and Lagrange terms.
// Values below 1 are treated as 1.
func WithWorkers(n int) Option {
	return func(d *Dealer) {
		if n < 1 {
			n = 1
		}
		d.workers = n
	}
}

// WithMetrics enables or disables Prometheus instrumentation.
func WithMetrics(enabled bool) Option {
	return func(d *Dealer) {
		d.metrics = enabled
	}
}

// NewDealer returns a Dealer backed by the software random source unless
// WithRand says otherwise.
func NewDealer(opts ...Option) *Dealer {
	d := &Dealer{
		rand:    rand.NewSoftware(),
		logger:  logger.NewNopLogger(),
		workers: 1,
		metrics: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// GenerateShares splits secret into numPieces shares, any requiredPieces of
// which rebuild it. All argument checks happen before any randomness is
// drawn.
func (d *Dealer) GenerateShares(secret []byte, numPieces, requiredPieces uint64) ([]*Share, error) {
	start := time.Now()
	shares, err := d.generate(secret, numPieces, requiredPieces)
	d.observe(metrics.OpSplit, start, err)
	if err != nil {
		d.logger.Warn("share generation failed",
			logger.String("error_type", ErrorType(err)),
			logger.Error(err))
		return nil, err
	}
	if d.metrics {
		metrics.RecordShares(len(shares))
		metrics.RecordSecretSize(len(secret))
	}
	d.logger.Debug("shares generated",
		logger.Int("shares", len(shares)),
		logger.Int64("threshold", int64(requiredPieces)),
		logger.Int("prime_bits", shares[0].Prime.BitLen()))
	return shares, nil
}

func (d *Dealer) generate(secret []byte, numPieces, requiredPieces uint64) ([]*Share, error) {
	if requiredPieces > numPieces {
		return nil, fmt.Errorf("%w: required pieces (%d) must be less than or equal to num pieces (%d)",
			ErrInvalidArgument, requiredPieces, numPieces)
	}
	if requiredPieces == 0 || numPieces == 0 {
		return nil, fmt.Errorf("%w: required pieces or num pieces cannot be 0", ErrInvalidArgument)
	}
	if numPieces > MaxPieces {
		return nil, fmt.Errorf("%w: num pieces cannot exceed %d, got %d",
			ErrInvalidArgument, MaxPieces, numPieces)
	}

	prime, err := choosePrime(d.rand, primeBitLen(len(secret), numPieces))
	if err != nil {
		return nil, err
	}

	poly, err := newPolynomial(d.rand, new(big.Int).SetBytes(secret), prime, int(requiredPieces-1))
	if err != nil {
		return nil, err
	}
	defer poly.zeroize()

	shares := make([]*Share, numPieces)
	err = d.forEach(len(shares), func(i int) error {
		x := uint64(i + 1)
		shares[i] = &Share{
			Value:     poly.evaluate(x),
			Prime:     new(big.Int).Set(prime),
			Input:     x,
			SecretLen: len(secret),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shares, nil
}

// RebuildSecret recovers the secret from shares by Lagrange interpolation
// at x = 0. Supplying fewer shares than the generation threshold yields an
// unspecified value rather than an error.
func (d *Dealer) RebuildSecret(shares []*Share) ([]byte, error) {
	start := time.Now()
	secret, err := d.rebuild(shares)
	d.observe(metrics.OpCombine, start, err)
	if err != nil {
		d.logger.Warn("secret reconstruction failed",
			logger.String("error_type", ErrorType(err)),
			logger.Error(err))
		return nil, err
	}
	d.logger.Debug("secret rebuilt", logger.Int("shares", len(shares)))
	return secret, nil
}

func (d *Dealer) rebuild(shares []*Share) ([]byte, error) {
	prime, secretLen, err := checkShares(shares)
	if err != nil {
		return nil, err
	}

	terms := make([]*big.Int, len(shares))
	err = d.forEach(len(shares), func(i int) error {
		term, err := lagrangeTerm(shares, i, prime)
		if err != nil {
			return err
		}
		terms[i] = term
		return nil
	})
	if err != nil {
		return nil, err
	}

	return secretBytes(sumTerms(terms, prime), secretLen), nil
}

// checkShares validates a reconstruction set and returns the common prime
// and secret length. Prime agreement is checked across the whole set before
// inputs are compared.
func checkShares(shares []*Share) (*big.Int, int, error) {
	if len(shares) == 0 {
		return nil, 0, fmt.Errorf("%w: no shares provided", ErrInvalidArgument)
	}
	for i, share := range shares {
		if err := share.Validate(); err != nil {
			return nil, 0, fmt.Errorf("share at position %d: %w", i, err)
		}
	}

	first := shares[0]
	for _, share := range shares[1:] {
		if !first.SamePrime(share) {
			return nil, 0, ErrPrimeMismatch
		}
	}
	if !first.Prime.ProbablyPrime(primalityRounds) {
		return nil, 0, fmt.Errorf("%w: modulus %s is not prime", ErrInvalidShare, first.Prime.Text(16))
	}
	for _, share := range shares[1:] {
		if share.SecretLen != first.SecretLen {
			return nil, 0, fmt.Errorf("%w: share %d has length %d, share %d has length %d",
				ErrLengthMismatch, share.Input, share.SecretLen, first.Input, first.SecretLen)
		}
	}

	seen := make(map[uint64]struct{}, len(shares))
	for _, share := range shares {
		if _, ok := seen[share.Input]; ok {
			return nil, 0, fmt.Errorf("%w: input %d appears more than once", ErrDuplicateInput, share.Input)
		}
		seen[share.Input] = struct{}{}
	}

	return first.Prime, first.SecretLen, nil
}

// secretBytes converts the recovered field element to its big-endian byte
// form, left-padded to secretLen when it fits.
func secretBytes(v *big.Int, secretLen int) []byte {
	if (v.BitLen()+7)/8 > secretLen {
		return v.Bytes()
	}
	return v.FillBytes(make([]byte, secretLen))
}

// forEach runs fn for every index in [0, n). Work is spread across the
// configured number of workers; each call writes only to its own slot.
func (d *Dealer) forEach(n int, fn func(i int) error) error {
	if d.workers <= 1 || n < 2 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return fn(i)
		})
	}
	return g.Wait()
}

func (d *Dealer) observe(operation string, start time.Time, err error) {
	if !d.metrics {
		return
	}
	duration := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordOperation(operation, metrics.StatusError, duration)
		metrics.RecordError(operation, ErrorType(err))
		return
	}
	metrics.RecordOperation(operation, metrics.StatusSuccess, duration)
}

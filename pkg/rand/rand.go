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

// Package rand provides the random source capability used to pick field
// primes and polynomial coefficients.
//
// # RNG Sources
//
//   - Software: crypto/rand from the standard library
//   - PKCS#11: GenerateRandom on an HSM slot (build tag "pkcs11")
//   - TPM2: TPM2_GetRandom on a TPM device or simulator (build tag "tpm2")
//   - Auto: the best available of the above, hardware first
//
// Every Resolver is an io.Reader and can be handed to shamir.WithRand.
//
//	rng, err := rand.NewResolver(&rand.Config{
//	    Mode:         rand.ModeTPM2,
//	    FallbackMode: rand.ModeSoftware,
//	})
//	dealer := shamir.NewDealer(shamir.WithRand(rng))
//
// # Testing
//
// NewDeterministic returns a seeded ChaCha20 keystream. It is deliberately
// not reachable through Config so it cannot be selected in production
// configuration files.
//
// # Thread Safety
//
// All Resolver implementations are safe for concurrent use.
package rand

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Mode specifies which RNG source to use.
type Mode string

const (
	// ModeAuto selects the best available RNG.
	// Preference order: PKCS#11 > TPM2 > Software
	ModeAuto Mode = "auto"

	// ModeSoftware uses crypto/rand
	ModeSoftware Mode = "software"

	// ModeTPM2 uses Trusted Platform Module 2.0 hardware RNG
	ModeTPM2 Mode = "tpm2"

	// ModePKCS11 uses PKCS#11 hardware security module RNG
	ModePKCS11 Mode = "pkcs11"
)

// Modes lists every mode accepted by NewResolver.
var Modes = []Mode{ModeAuto, ModeSoftware, ModeTPM2, ModePKCS11}

// ParseMode converts a configuration string to a Mode. The empty string
// maps to ModeAuto.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeAuto, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown RNG mode: %s", s)
}

// Config contains RNG configuration.
type Config struct {
	// Mode specifies the primary RNG source. Defaults to ModeAuto.
	Mode Mode

	// FallbackMode is tried when the primary source fails a read.
	// Typical usage: Mode=ModeTPM2, FallbackMode=ModeSoftware
	FallbackMode Mode

	// TPM2Config is used when Mode or FallbackMode is ModeTPM2
	TPM2Config *TPM2Config

	// PKCS11Config is used when Mode or FallbackMode is ModePKCS11
	PKCS11Config *PKCS11Config
}

// TPM2Config contains configuration for TPM2 RNG.
type TPM2Config struct {
	// Device path to the TPM device (default: "/dev/tpmrm0")
	Device string

	// MaxRequestSize caps the bytes requested per TPM2_GetRandom call.
	// Default: 32
	MaxRequestSize int

	// UseSimulator connects to a TCP simulator instead of Device
	UseSimulator bool

	// SimulatorHost (default: "localhost")
	SimulatorHost string

	// SimulatorPort is the command port; the platform port is +1 (default: 2321)
	SimulatorPort int
}

// PKCS11Config contains configuration for PKCS#11 RNG.
type PKCS11Config struct {
	// Module path to the PKCS#11 library (e.g., /usr/lib/softhsm/libsofthsm2.so)
	Module string

	// SlotID specifies the PKCS#11 slot containing the RNG
	SlotID uint

	// PIN logs the session in when not empty
	PIN string
}

// Resolver is a source of cryptographically secure random bytes.
type Resolver interface {
	io.Reader

	// Rand returns n random bytes.
	Rand(n int) ([]byte, error)

	// Available returns true if the source is ready to serve reads.
	Available() bool

	// Close releases any resources held by the source.
	Close() error
}

// NewResolver creates a resolver from a *Config or a Mode. A nil config
// selects ModeAuto.
func NewResolver(config interface{}) (Resolver, error) {
	return newResolver(normalizeConfig(config))
}

func normalizeConfig(config interface{}) *Config {
	switch v := config.(type) {
	case Mode:
		return &Config{Mode: v}
	case *Config:
		if v == nil {
			return &Config{Mode: ModeAuto}
		}
		cfg := *v
		if cfg.Mode == "" {
			cfg.Mode = ModeAuto
		}
		return &cfg
	default:
		return &Config{Mode: ModeAuto}
	}
}

func newResolver(cfg *Config) (Resolver, error) {
	var primary Resolver
	var err error

	switch cfg.Mode {
	case ModeAuto:
		primary = newAutoResolver(cfg)
	case ModeSoftware:
		primary = NewSoftware()
	case ModeTPM2:
		primary, err = newTPM2Resolver(cfg.TPM2Config)
	case ModePKCS11:
		primary, err = newPKCS11Resolver(cfg.PKCS11Config)
	default:
		return nil, fmt.Errorf("unknown RNG mode: %s", cfg.Mode)
	}

	if cfg.FallbackMode == "" || cfg.FallbackMode == cfg.Mode {
		return primary, err
	}

	fallback, fbErr := newResolver(&Config{
		Mode:         cfg.FallbackMode,
		TPM2Config:   cfg.TPM2Config,
		PKCS11Config: cfg.PKCS11Config,
	})
	if err != nil {
		// Primary could not be opened at all; the fallback takes over.
		if fbErr != nil {
			return nil, fmt.Errorf("primary RNG %s: %w (fallback %s: %v)", cfg.Mode, err, cfg.FallbackMode, fbErr)
		}
		return fallback, nil
	}
	if fbErr != nil {
		return primary, nil
	}
	return &fallbackResolver{primary: primary, fallback: fallback}, nil
}

// SoftwareResolver uses crypto/rand from the Go standard library.
type SoftwareResolver struct{}

var _ Resolver = (*SoftwareResolver)(nil)

// NewSoftware returns the crypto/rand backed resolver.
func NewSoftware() *SoftwareResolver {
	return &SoftwareResolver{}
}

func (s *SoftwareResolver) Rand(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	return buf, err
}

// Read implements io.Reader.
func (s *SoftwareResolver) Read(p []byte) (int, error) {
	return rand.Read(p)
}

func (s *SoftwareResolver) Available() bool {
	return true
}

func (s *SoftwareResolver) Close() error {
	return nil
}

// readFrom adapts a Rand implementation to io.Reader semantics.
func readFrom(randFn func(int) ([]byte, error), p []byte) (int, error) {
	data, err := randFn(len(p))
	if err != nil {
		return 0, err
	}
	return copy(p, data), nil
}

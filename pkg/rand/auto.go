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

package rand

import (
	"sync"
)

// newAutoResolver picks the best available RNG source.
// Priority: PKCS#11 > TPM2 > Software
func newAutoResolver(cfg *Config) Resolver {
	if pkcs11Available() && cfg.PKCS11Config != nil {
		if r, err := newPKCS11Resolver(cfg.PKCS11Config); err == nil {
			if r.Available() {
				return r
			}
			_ = r.Close()
		}
	}

	if tpm2Available() {
		if r, err := newTPM2Resolver(cfg.TPM2Config); err == nil {
			if r.Available() {
				return r
			}
			_ = r.Close()
		}
	}

	return NewSoftware()
}

// fallbackResolver retries failed reads against a secondary source.
type fallbackResolver struct {
	mu       sync.RWMutex
	primary  Resolver
	fallback Resolver
}

var _ Resolver = (*fallbackResolver)(nil)

func (f *fallbackResolver) Rand(n int) ([]byte, error) {
	f.mu.RLock()
	primary, fallback := f.primary, f.fallback
	f.mu.RUnlock()

	result, err := primary.Rand(n)
	if err != nil && fallback != nil {
		result, err = fallback.Rand(n)
	}
	return result, err
}

// Read implements io.Reader.
func (f *fallbackResolver) Read(p []byte) (int, error) {
	return readFrom(f.Rand, p)
}

func (f *fallbackResolver) Available() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.primary.Available() || (f.fallback != nil && f.fallback.Available())
}

func (f *fallbackResolver) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.primary.Close()
	if f.fallback != nil {
		if fbErr := f.fallback.Close(); err == nil {
			err = fbErr
		}
	}
	return err
}

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
	"crypto/sha256"
	"fmt"
	"sync"

	"golang.org/x/crypto/chacha20"
)

// DeterministicResolver is a seeded ChaCha20 keystream. The same seed
// always yields the same byte sequence. Never use it for real secrets.
type DeterministicResolver struct {
	mu     sync.Mutex
	cipher *chacha20.Cipher
}

var _ Resolver = (*DeterministicResolver)(nil)

// NewDeterministic returns a reproducible resolver keyed by SHA-256(seed).
func NewDeterministic(seed []byte) *DeterministicResolver {
	key := sha256.Sum256(seed)
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce)
	if err != nil {
		// Key and nonce sizes are fixed above.
		panic(fmt.Sprintf("rand: chacha20 setup: %v", err))
	}
	return &DeterministicResolver{cipher: c}
}

func (d *DeterministicResolver) Rand(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := d.Read(buf)
	return buf, err
}

// Read implements io.Reader. It only fails after Close.
func (d *DeterministicResolver) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cipher == nil {
		return 0, fmt.Errorf("deterministic resolver closed")
	}
	clear(p)
	d.cipher.XORKeyStream(p, p)
	return len(p), nil
}

func (d *DeterministicResolver) Available() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cipher != nil
}

func (d *DeterministicResolver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cipher = nil
	return nil
}

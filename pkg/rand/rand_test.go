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
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolver_SoftwareMode(t *testing.T) {
	resolver, err := NewResolver(ModeSoftware)
	require.NoError(t, err)
	defer func() { _ = resolver.Close() }()

	assert.True(t, resolver.Available())
	_, ok := resolver.(*SoftwareResolver)
	assert.True(t, ok, "expected *SoftwareResolver, got %T", resolver)
}

func TestNewResolver_NilConfig(t *testing.T) {
	// nil config defaults to auto mode, which always ends at software
	resolver, err := NewResolver(nil)
	require.NoError(t, err)
	defer func() { _ = resolver.Close() }()

	assert.True(t, resolver.Available())
	data, err := resolver.Rand(16)
	require.NoError(t, err)
	assert.Len(t, data, 16)
}

func TestNewResolver_NilConfigPointer(t *testing.T) {
	var cfg *Config
	resolver, err := NewResolver(cfg)
	require.NoError(t, err)
	assert.True(t, resolver.Available())
}

func TestNewResolver_InvalidMode(t *testing.T) {
	_, err := NewResolver(&Config{Mode: "invalid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown RNG mode")
}

func TestNewResolver_HardwareFallsBackToSoftware(t *testing.T) {
	// Without the build tags the hardware resolvers cannot be opened, so the
	// fallback must take over.
	for _, mode := range []Mode{ModeTPM2, ModePKCS11} {
		t.Run(string(mode), func(t *testing.T) {
			resolver, err := NewResolver(&Config{
				Mode:         mode,
				FallbackMode: ModeSoftware,
				PKCS11Config: &PKCS11Config{Module: "/nonexistent/libpkcs11.so"},
				TPM2Config:   &TPM2Config{Device: "/nonexistent/tpm"},
			})
			require.NoError(t, err)
			defer func() { _ = resolver.Close() }()

			data, err := resolver.Rand(32)
			require.NoError(t, err)
			assert.Len(t, data, 32)
		})
	}
}

func TestNewResolver_HardwareWithoutFallback(t *testing.T) {
	_, err := NewResolver(&Config{
		Mode:         ModePKCS11,
		PKCS11Config: &PKCS11Config{Module: "/nonexistent/libpkcs11.so"},
	})
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeAuto},
		{in: "auto", want: ModeAuto},
		{in: "software", want: ModeSoftware},
		{in: "tpm2", want: ModeTPM2},
		{in: "pkcs11", want: ModePKCS11},
		{in: "deterministic", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSoftwareResolver_Read(t *testing.T) {
	r := NewSoftware()
	a := make([]byte, 32)
	b := make([]byte, 32)

	n, err := io.ReadFull(r, a)
	require.NoError(t, err)
	assert.Equal(t, 32, n)
	_, err = io.ReadFull(r, b)
	require.NoError(t, err)

	assert.False(t, bytes.Equal(a, b), "two reads should differ")
}

func TestDeterministicResolver_Reproducible(t *testing.T) {
	a, err := NewDeterministic([]byte("seed")).Rand(128)
	require.NoError(t, err)
	b, err := NewDeterministic([]byte("seed")).Rand(128)
	require.NoError(t, err)
	c, err := NewDeterministic([]byte("other seed")).Rand(128)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestDeterministicResolver_StreamIsContinuous(t *testing.T) {
	whole, err := NewDeterministic([]byte("stream")).Rand(64)
	require.NoError(t, err)

	r := NewDeterministic([]byte("stream"))
	first, err := r.Rand(10)
	require.NoError(t, err)
	second, err := r.Rand(54)
	require.NoError(t, err)

	assert.Equal(t, whole, append(first, second...))
}

func TestDeterministicResolver_Close(t *testing.T) {
	r := NewDeterministic([]byte("closed"))
	require.True(t, r.Available())
	require.NoError(t, r.Close())

	assert.False(t, r.Available())
	_, err := r.Read(make([]byte, 4))
	assert.Error(t, err)
}

type failingResolver struct {
	SoftwareResolver
	closed bool
}

func (f *failingResolver) Rand(n int) ([]byte, error) {
	return nil, io.ErrUnexpectedEOF
}

func (f *failingResolver) Close() error {
	f.closed = true
	return nil
}

func TestFallbackResolver(t *testing.T) {
	primary := &failingResolver{}
	fallback := NewDeterministic([]byte("fallback"))
	r := &fallbackResolver{primary: primary, fallback: fallback}

	data, err := r.Rand(8)
	require.NoError(t, err)
	assert.Len(t, data, 8)

	buf := make([]byte, 8)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	assert.True(t, r.Available())
	require.NoError(t, r.Close())
	assert.True(t, primary.closed)
	assert.False(t, fallback.Available())
}

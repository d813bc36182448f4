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
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"
)

// Binary layout (big-endian):
//
//	version(1) | input(8) | secretLen(4) | primeLen(4) | prime | valueLen(4) | value
const (
	shareVersion    = 1
	shareHeaderSize = 1 + 8 + 4 + 4
)

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *Share) MarshalBinary() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	prime := s.Prime.Bytes()
	value := s.Value.Bytes()
	if uint64(s.SecretLen) > math.MaxUint32 || uint64(len(prime)) > math.MaxUint32 || uint64(len(value)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: share %d does not fit the binary encoding", ErrInvalidShare, s.Input)
	}

	buf := make([]byte, shareHeaderSize+len(prime)+4+len(value))
	buf[0] = shareVersion
	binary.BigEndian.PutUint64(buf[1:9], s.Input)
	binary.BigEndian.PutUint32(buf[9:13], uint32(s.SecretLen))
	binary.BigEndian.PutUint32(buf[13:17], uint32(len(prime)))
	off := shareHeaderSize
	off += copy(buf[off:], prime)
	binary.BigEndian.PutUint32(buf[off:off+4], uint32(len(value)))
	copy(buf[off+4:], value)
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The decoded share
// is validated before it is accepted.
func (s *Share) UnmarshalBinary(data []byte) error {
	if len(data) < shareHeaderSize {
		return fmt.Errorf("%w: encoding too short (%d bytes)", ErrInvalidShare, len(data))
	}
	if data[0] != shareVersion {
		return fmt.Errorf("%w: unsupported encoding version %d", ErrInvalidShare, data[0])
	}

	input := binary.BigEndian.Uint64(data[1:9])
	secretLen := binary.BigEndian.Uint32(data[9:13])
	primeLen := int(binary.BigEndian.Uint32(data[13:17]))

	rest := data[shareHeaderSize:]
	if primeLen > len(rest) || len(rest)-primeLen < 4 {
		return fmt.Errorf("%w: truncated prime", ErrInvalidShare)
	}
	prime := rest[:primeLen]
	rest = rest[primeLen:]
	valueLen := int(binary.BigEndian.Uint32(rest[:4]))
	rest = rest[4:]
	if valueLen != len(rest) {
		return fmt.Errorf("%w: value length %d does not match remaining %d bytes",
			ErrInvalidShare, valueLen, len(rest))
	}

	decoded := Share{
		Value:     new(big.Int).SetBytes(rest),
		Prime:     new(big.Int).SetBytes(prime),
		Input:     input,
		SecretLen: int(secretLen),
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*s = decoded
	return nil
}

// String returns the share as a base64-encoded string suitable for copying
// between systems. A malformed share yields an empty string.
func (s *Share) String() string {
	data, err := s.MarshalBinary()
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// ParseShare decodes a share produced by Share.String.
func ParseShare(text string) (*Share, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}
	var s Share
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseShares decodes a list of shares, reporting the position of the first
// one that fails.
func ParseShares(texts []string) ([]*Share, error) {
	shares := make([]*Share, 0, len(texts))
	for i, text := range texts {
		s, err := ParseShare(text)
		if err != nil {
			return nil, fmt.Errorf("share %d: %w", i, err)
		}
		shares = append(shares, s)
	}
	return shares, nil
}

type shareJSON struct {
	Input     uint64 `json:"input"`
	SecretLen int    `json:"secret_len"`
	Prime     string `json:"prime"`
	Value     string `json:"value"`
}

// MarshalJSON implements json.Marshaler. Prime and value are hex encoded.
func (s *Share) MarshalJSON() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&shareJSON{
		Input:     s.Input,
		SecretLen: s.SecretLen,
		Prime:     s.Prime.Text(16),
		Value:     s.Value.Text(16),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Share) UnmarshalJSON(data []byte) error {
	var aux shareJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}
	prime, ok := new(big.Int).SetString(aux.Prime, 16)
	if !ok {
		return fmt.Errorf("%w: prime is not valid hex", ErrInvalidShare)
	}
	value, ok := new(big.Int).SetString(aux.Value, 16)
	if !ok {
		return fmt.Errorf("%w: value is not valid hex", ErrInvalidShare)
	}
	decoded := Share{
		Value:     value,
		Prime:     prime,
		Input:     aux.Input,
		SecretLen: aux.SecretLen,
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*s = decoded
	return nil
}

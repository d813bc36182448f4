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

// Package storage defines the key-value persistence used for share sets.
// Keys are slash-separated paths such as "sets/<id>/manifest.yaml".
package storage

import (
	"errors"
	"io/fs"
	"path"
	"strings"
)

var (
	// ErrClosed is returned when attempting to use a closed backend.
	ErrClosed = errors.New("storage: closed")

	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("storage: not found")

	// ErrInvalidKey is returned for empty, absolute or traversing keys.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// Backend is a thread-safe key-value store.
type Backend interface {
	// Get retrieves the value for key or returns ErrNotFound.
	Get(key string) ([]byte, error)

	// Put stores value under key, replacing any existing value.
	Put(key string, value []byte, opts *Options) error

	// Delete removes key or returns ErrNotFound.
	Delete(key string) error

	// List returns the sorted keys that start with prefix.
	List(prefix string) ([]string, error)

	// Exists reports whether key is present.
	Exists(key string) (bool, error)

	// Close releases the backend. Later calls return ErrClosed.
	Close() error
}

// Options tune a single Put.
type Options struct {
	// Permissions sets the file mode for file-backed stores. Zero keeps
	// the backend default.
	Permissions fs.FileMode
}

// DefaultOptions returns owner read/write permissions.
func DefaultOptions() *Options {
	return &Options{Permissions: 0600}
}

// ValidateKey rejects keys that could escape a backend's root.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return errors.Join(ErrInvalidKey, errors.New("key cannot be empty"))
	case strings.ContainsRune(key, 0):
		return errors.Join(ErrInvalidKey, errors.New("key contains null byte"))
	case strings.HasPrefix(key, "/") || strings.Contains(key, "\\"):
		return errors.Join(ErrInvalidKey, errors.New("key must be a relative slash path"))
	}
	cleaned := path.Clean(key)
	if cleaned != key || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return errors.Join(ErrInvalidKey, errors.New("key is not canonical"))
	}
	return nil
}

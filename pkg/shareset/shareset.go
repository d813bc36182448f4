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

// Package shareset persists the output of one split operation as a named
// set: a YAML manifest plus one binary-encoded file per share, all under
// sets/<uuid>/ in a storage.Backend.
package shareset

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-shamir/pkg/logger"
	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/storage"
)

const (
	// ManifestVersion is the current manifest format version
	ManifestVersion = 1

	setsPrefix   = "sets/"
	manifestName = "manifest.yaml"
	shareSuffix  = ".share"
)

var (
	// ErrNotFound is returned when no set exists for an ID.
	ErrNotFound = errors.New("shareset: not found")

	// ErrInvalidID is returned when an ID is not a UUID.
	ErrInvalidID = errors.New("shareset: invalid ID")

	// ErrInvalidSet is returned when shares cannot form a set.
	ErrInvalidSet = errors.New("shareset: invalid set")
)

// Manifest describes a stored share set. It never contains share values.
type Manifest struct {
	Version   int       `yaml:"version" json:"version"`
	ID        string    `yaml:"id" json:"id"`
	Name      string    `yaml:"name,omitempty" json:"name,omitempty"`
	Threshold uint64    `yaml:"threshold" json:"threshold"`
	Total     uint64    `yaml:"total" json:"total"`
	PrimeBits int       `yaml:"prime_bits" json:"prime_bits"`
	SecretLen int       `yaml:"secret_len" json:"secret_len"`
	Inputs    []uint64  `yaml:"inputs" json:"inputs"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
}

// Store reads and writes share sets.
type Store struct {
	backend storage.Backend
	logger  logger.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a Store over backend.
func New(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logger.NewNopLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes shares as a new set and returns its manifest. All shares
// must come from the same split; threshold is recorded as given.
func (s *Store) Save(name string, threshold uint64, shares []*shamir.Share) (*Manifest, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("%w: no shares", ErrInvalidSet)
	}
	if threshold == 0 || threshold > uint64(len(shares)) {
		return nil, fmt.Errorf("%w: threshold %d outside [1, %d]", ErrInvalidSet, threshold, len(shares))
	}

	first := shares[0]
	inputs := make([]uint64, 0, len(shares))
	seen := make(map[uint64]struct{}, len(shares))
	for _, share := range shares {
		if err := share.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSet, err)
		}
		if !first.SamePrime(share) || share.SecretLen != first.SecretLen {
			return nil, fmt.Errorf("%w: shares come from different splits", ErrInvalidSet)
		}
		if _, ok := seen[share.Input]; ok {
			return nil, fmt.Errorf("%w: input %d appears more than once", ErrInvalidSet, share.Input)
		}
		seen[share.Input] = struct{}{}
		inputs = append(inputs, share.Input)
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i] < inputs[j] })

	m := &Manifest{
		Version:   ManifestVersion,
		ID:        uuid.New().String(),
		Name:      name,
		Threshold: threshold,
		Total:     uint64(len(shares)),
		PrimeBits: first.Prime.BitLen(),
		SecretLen: first.SecretLen,
		Inputs:    inputs,
		CreatedAt: s.now().UTC(),
	}

	for _, share := range shares {
		data, err := share.MarshalBinary()
		if err != nil {
			return nil, err
		}
		if err := s.backend.Put(shareKey(m.ID, share.Input), data, storage.DefaultOptions()); err != nil {
			s.rollback(m.ID)
			return nil, fmt.Errorf("failed to store share %d: %w", share.Input, err)
		}
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		s.rollback(m.ID)
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := s.backend.Put(manifestKey(m.ID), data, storage.DefaultOptions()); err != nil {
		s.rollback(m.ID)
		return nil, fmt.Errorf("failed to store manifest: %w", err)
	}

	s.logger.Info("share set saved",
		logger.String("id", m.ID),
		logger.Int64("threshold", int64(m.Threshold)),
		logger.Int64("total", int64(m.Total)))
	return m, nil
}

// Manifest returns the manifest for id.
func (s *Store) Manifest(id string) (*Manifest, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	data, err := s.backend.Get(manifestKey(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", id, err)
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("manifest %s: unsupported version %d", id, m.Version)
	}
	return &m, nil
}

// Load returns the manifest and the shares still present for id, ordered
// by input. Shares removed from the backend after Save are skipped.
func (s *Store) Load(id string) (*Manifest, []*shamir.Share, error) {
	m, err := s.Manifest(id)
	if err != nil {
		return nil, nil, err
	}

	shares := make([]*shamir.Share, 0, len(m.Inputs))
	for _, input := range m.Inputs {
		data, err := s.backend.Get(shareKey(id, input))
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("share missing from set",
				logger.String("id", id),
				logger.Int64("input", int64(input)))
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		var share shamir.Share
		if err := share.UnmarshalBinary(data); err != nil {
			return nil, nil, fmt.Errorf("set %s share %d: %w", id, input, err)
		}
		shares = append(shares, &share)
	}
	return m, shares, nil
}

// List returns every stored manifest, oldest first.
func (s *Store) List() ([]*Manifest, error) {
	keys, err := s.backend.List(setsPrefix)
	if err != nil {
		return nil, err
	}

	manifests := make([]*Manifest, 0)
	for _, key := range keys {
		if path.Base(key) != manifestName {
			continue
		}
		id := path.Base(path.Dir(key))
		m, err := s.Manifest(id)
		if err != nil {
			s.logger.Warn("skipping unreadable manifest",
				logger.String("key", key),
				logger.Error(err))
			continue
		}
		manifests = append(manifests, m)
	}

	sort.SliceStable(manifests, func(i, j int) bool {
		if manifests[i].CreatedAt.Equal(manifests[j].CreatedAt) {
			return manifests[i].ID < manifests[j].ID
		}
		return manifests[i].CreatedAt.Before(manifests[j].CreatedAt)
	})
	return manifests, nil
}

// Delete removes the manifest and every share of set id.
func (s *Store) Delete(id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	keys, err := s.backend.List(setPrefix(id))
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	for _, key := range keys {
		if err := s.backend.Delete(key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	s.logger.Info("share set deleted", logger.String("id", id))
	return nil
}

func (s *Store) rollback(id string) {
	keys, err := s.backend.List(setPrefix(id))
	if err != nil {
		return
	}
	for _, key := range keys {
		_ = s.backend.Delete(key)
	}
}

func validateID(id string) error {
	u, err := uuid.Parse(id)
	if err != nil || u.String() != id {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func setPrefix(id string) string {
	return setsPrefix + id + "/"
}

func manifestKey(id string) string {
	return setPrefix(id) + manifestName
}

func shareKey(id string, input uint64) string {
	return setPrefix(id) + strconv.FormatUint(input, 10) + shareSuffix
}

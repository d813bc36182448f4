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

package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jeremyhahn/go-shamir/pkg/health"
	"github.com/jeremyhahn/go-shamir/pkg/shamir"
)

// SplitRequest is the body of POST /v1/split. Secret is base64 in JSON.
type SplitRequest struct {
	Secret    []byte `json:"secret"`
	Shares    uint64 `json:"shares"`
	Threshold uint64 `json:"threshold"`
}

// SplitResponse carries encoded shares, one per input in order.
type SplitResponse struct {
	Shares    []string `json:"shares"`
	Threshold uint64   `json:"threshold"`
	PrimeBits int      `json:"prime_bits"`
}

// CombineRequest is the body of POST /v1/combine.
type CombineRequest struct {
	Shares []string `json:"shares"`
}

// CombineResponse carries the rebuilt secret, base64 in JSON.
type CombineResponse struct {
	Secret []byte `json:"secret"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Handlers serves the API routes.
type Handlers struct {
	dealer  *shamir.Dealer
	checker *health.Checker
	version string
	maxBody int64
}

// NewHandlers creates handlers backed by dealer.
func NewHandlers(dealer *shamir.Dealer, checker *health.Checker, version string, maxBody int64) *Handlers {
	return &Handlers{dealer: dealer, checker: checker, version: version, maxBody: maxBody}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, &HealthResponse{Status: "ok", Version: h.version}, http.StatusOK)
}

// Live is the liveness probe.
func (h *Handlers) Live(w http.ResponseWriter, r *http.Request) {
	report := h.checker.Live()
	writeJSON(w, &report, http.StatusOK)
}

// Ready runs the readiness checks and answers 503 when any fails.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	report := h.checker.Ready(r.Context())
	status := http.StatusOK
	if report.Status != health.StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, &report, status)
}

// Split divides the posted secret into shares.
func (h *Handlers) Split(w http.ResponseWriter, r *http.Request) {
	var req SplitRequest
	if err := h.decode(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	shares, err := h.dealer.GenerateShares(req.Secret, req.Shares, req.Threshold)
	clear(req.Secret)
	if err != nil {
		handleError(w, err)
		return
	}

	resp := &SplitResponse{
		Shares:    make([]string, len(shares)),
		Threshold: req.Threshold,
		PrimeBits: shares[0].Prime.BitLen(),
	}
	for i, share := range shares {
		resp.Shares[i] = share.String()
	}
	writeJSON(w, resp, http.StatusOK)
}

// Combine rebuilds a secret from posted shares.
func (h *Handlers) Combine(w http.ResponseWriter, r *http.Request) {
	var req CombineRequest
	if err := h.decode(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	shares, err := shamir.ParseShares(req.Shares)
	if err != nil {
		handleError(w, err)
		return
	}
	secret, err := h.dealer.RebuildSecret(shares)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, &CombineResponse{Secret: secret}, http.StatusOK)
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, h.maxBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", ErrRequestTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", ErrInvalidRequest)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data after JSON body", ErrInvalidRequest)
	}
	return nil
}

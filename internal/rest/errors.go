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
	"net/http"

	"github.com/jeremyhahn/go-shamir/pkg/shamir"
)

// Common errors
var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrRequestTooLarge = errors.New("request too large")
	ErrInternalError   = errors.New("internal server error")
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
	Code  int    `json:"code"`
}

// statusCode maps errors to HTTP status codes.
func statusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, shamir.ErrInvalidArgument),
		errors.Is(err, shamir.ErrInvalidShare),
		errors.Is(err, shamir.ErrDuplicateInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrRequestTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, shamir.ErrPrimeMismatch),
		errors.Is(err, shamir.ErrLengthMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes err with its mapped status. Internal errors are not
// echoed to the client.
func handleError(w http.ResponseWriter, err error) {
	code := statusCode(err)
	resp := &ErrorResponse{Error: err.Error(), Code: code}
	if code == http.StatusInternalServerError {
		resp.Error = ErrInternalError.Error()
	} else if t := shamir.ErrorType(err); t != "internal" {
		resp.Type = t
	}
	writeJSON(w, resp, code)
}

// writeJSON writes data as JSON with the given status code.
func writeJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package codenote

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Machine-readable error codes returned by the API.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredential  = "INVALID_CREDENTIAL"
	CodeMissingToken       = "MISSING_TOKEN"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeExpiredToken       = "EXPIRED_TOKEN"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError is a structured error response from the CodeNote API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

// Error implements the error interface.
func (apiError *APIError) Error() string {
	return fmt.Sprintf("codenote: %s (%s, http %d)", apiError.Message, apiError.Code, apiError.Status)
}

// HasCode reports whether err is an [APIError] carrying the given code.
func HasCode(err error, code string) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.Code == code
}

// isAuthFailure reports whether err is a 401 the session layer can act on.
func isAuthFailure(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.Status == http.StatusUnauthorized
}

// decodeError turns a non-2xx response body into an [*APIError].
//
// A body that is not the standard error envelope still yields a usable
// error with the HTTP status attached.
func decodeError(response *http.Response) error {
	apiError := &APIError{Status: response.StatusCode}

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<16))
	if err == nil && len(body) > 0 {
		_ = json.Unmarshal(body, apiError)
	}
	if apiError.Message == "" {
		apiError.Message = http.StatusText(response.StatusCode)
	}
	return apiError
}

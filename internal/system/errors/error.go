/*
 * Copyright (c) 2025-2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorMessage struct {
	Code        string   `json:"error_code"`
	Message     string   `json:"error_message"`
	Description string   `json:"error_description"`
	Details     []string `json:"details,omitempty"`
	TraceID     string   `json:"trace_id,omitempty"`
}

type ClientError struct {
	ErrorMessage
	StatusCode int
}

type ServerError struct {
	ErrorMessage
	Err error
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

func (e *ClientError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("[%s] %s %s", e.Code, e.Message, e.Description)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func NewServerError(msg ErrorMessage, cause error) *ServerError {
	return &ServerError{
		ErrorMessage: msg,
		Err:          cause,
	}
}

func NewClientError(msg ErrorMessage, code int) *ClientError {
	return &ClientError{
		ErrorMessage: msg,
		StatusCode:   code,
	}
}

// NewClientErrorWithDetails attaches a list of human readable reasons, typically validator output.
func NewClientErrorWithDetails(msg ErrorMessage, code int, details []string) *ClientError {
	msg.Details = append([]string(nil), details...)
	return &ClientError{
		ErrorMessage: msg,
		StatusCode:   code,
	}
}

func NewServerErrorWithTraceID(msg ErrorMessage, cause error, traceID string) *ServerError {
	msg.TraceID = traceID
	return &ServerError{
		ErrorMessage: msg,
		Err:          cause,
	}
}

// Category groups errors by how a caller is expected to react to them.
type Category string

const (
	CategoryNone          Category = ""
	CategoryValidation    Category = "validation"
	CategoryConflict      Category = "conflict"
	CategoryNotFound      Category = "not_found"
	CategoryAuthorization Category = "authorization"
	CategoryState         Category = "state"
	CategoryStorage       Category = "storage"
	CategoryUnknown       Category = "unknown"
)

// CategoryOf classifies an error returned anywhere in the service.
func CategoryOf(err error) Category {

	if err == nil {
		return CategoryNone
	}
	var clientError *ClientError
	if errors.As(err, &clientError) {
		switch clientError.StatusCode {
		case http.StatusBadRequest:
			return CategoryValidation
		case http.StatusNotFound:
			return CategoryNotFound
		case http.StatusConflict:
			return CategoryConflict
		case http.StatusUnauthorized, http.StatusForbidden:
			return CategoryAuthorization
		case http.StatusPreconditionFailed:
			return CategoryState
		}
		return CategoryUnknown
	}
	var serverError *ServerError
	if errors.As(err, &serverError) {
		return CategoryStorage
	}
	return CategoryUnknown
}

// CodeOf returns the catalogue code carried by the error, or an empty string.
func CodeOf(err error) string {

	var clientError *ClientError
	if errors.As(err, &clientError) {
		return clientError.Code
	}
	var serverError *ServerError
	if errors.As(err, &serverError) {
		return serverError.Code
	}
	return ""
}

func IsValidation(err error) bool { return CategoryOf(err) == CategoryValidation }

func IsNotFound(err error) bool { return CategoryOf(err) == CategoryNotFound }

func IsConflict(err error) bool { return CategoryOf(err) == CategoryConflict }

func IsAuthorization(err error) bool { return CategoryOf(err) == CategoryAuthorization }

func IsState(err error) bool { return CategoryOf(err) == CategoryState }

func IsStorage(err error) bool { return CategoryOf(err) == CategoryStorage }

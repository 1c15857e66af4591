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
package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	ucrcontext "github.com/wso2/ucr-orchestrator/internal/system/context"
	customerrors "github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

// HandleError sends an HTTP error response based on the provided error.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {

	traceID := ucrcontext.GetTraceID(r.Context())
	w.Header().Set("Content-Type", "application/json")

	var clientError *customerrors.ClientError
	if errors.As(err, &clientError) {
		body := clientError.ErrorMessage
		body.TraceID = traceID
		w.WriteHeader(clientError.StatusCode)
		_ = json.NewEncoder(w).Encode(body)
		return
	}

	logger := log.GetLogger()
	var serverError *customerrors.ServerError
	if errors.As(err, &serverError) {
		logger.Error(err.Error(), log.String("trace_id", traceID))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(customerrors.ErrorMessage{
			Code:        serverError.Code,
			Message:     serverError.Message,
			Description: "Internal server error.",
			TraceID:     traceID,
		})
		return
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		logger.Warn("Request aborted before completion.", log.Error(err), log.String("trace_id", traceID))
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(customerrors.ErrorMessage{
			Message: "Request aborted.",
			TraceID: traceID,
		})
		return
	}

	logger.Error("Unexpected error.", log.Error(err), log.String("trace_id", traceID))
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(customerrors.ErrorMessage{
		Message: "Internal server error.",
		TraceID: traceID,
	})
}

// RespondJSON writes the value with the given status code.
func RespondJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if value != nil {
		_ = json.NewEncoder(w).Encode(value)
	}
}

// DecodeJSON decodes the request body strictly and returns a client error describing any failure.
func DecodeJSON(r *http.Request, resourceName string, target interface{}) error {

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return customerrors.NewClientError(customerrors.ErrorMessage{
			Code:        customerrors.BAD_REQUEST.Code,
			Message:     customerrors.BAD_REQUEST.Message,
			Description: HandleDecodeError(err, resourceName),
		}, http.StatusBadRequest)
	}
	return nil
}

func ExtractTenantIdFromPath(r *http.Request) string {
	tenant, _ := r.Context().Value(constants.TenantContextKey).(string)
	return tenant
}

// RewriteToDefaultTenant redirects `/api/v1/...` to `/t/{defaultTenant}/api/v1/...`.
func RewriteToDefaultTenant(apiBasePath string, mux *http.ServeMux, defaultTenant string) {
	mux.HandleFunc(apiBasePath+"/", func(w http.ResponseWriter, r *http.Request) {
		newPath := "/t/" + defaultTenant + r.URL.Path
		http.Redirect(w, r, newPath, http.StatusTemporaryRedirect)
	})
}

// MountTenantDispatcher strips `/t/{tenant}/api/v1` from the request path, stores the tenant in the
// context and hands the request to handlerFunc.
func MountTenantDispatcher(mux *http.ServeMux, apiBasePath string, handlerFunc http.HandlerFunc) {
	mux.HandleFunc("/t/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSuffix(r.URL.Path, "/")

		// Split: /t/{tenant}/api/v1/...
		parts := strings.SplitN(path[len("/t/"):], "/", 2)
		if len(parts) != 2 || parts[0] == "" {
			http.Error(w, "Invalid tenant path format", http.StatusBadRequest)
			return
		}

		tenantID := parts[0]
		remainingPath := "/" + parts[1]
		if !strings.HasPrefix(remainingPath, apiBasePath) {
			http.Error(w, "Path must start with "+apiBasePath, http.StatusNotFound)
			return
		}
		relativePath := strings.TrimPrefix(remainingPath, apiBasePath)
		if relativePath == "" {
			relativePath = "/"
		}

		ctx := context.WithValue(r.Context(), constants.TenantContextKey, tenantID)
		r = r.WithContext(ctx)
		r.URL.Path = relativePath
		r.URL.RawPath = ""

		handlerFunc(w, r)
	})
}

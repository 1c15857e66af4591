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
package security

import (
	"net/http"
	"slices"
	"strings"

	"github.com/wso2/ucr-orchestrator/internal/system/authn"
	"github.com/wso2/ucr-orchestrator/internal/system/authz"
	"github.com/wso2/ucr-orchestrator/internal/system/config"
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	"github.com/wso2/ucr-orchestrator/internal/system/context"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

// Caller headers honoured when token verification is disabled.
const (
	UserIdHeader    = "X-User-Id"
	UserNameHeader  = "X-User-Name"
	UserRolesHeader = "X-User-Roles"
)

// AuthnAndAuthz authenticates the request for orgID and checks that the caller may perform the operation.
func AuthnAndAuthz(r *http.Request, orgID, operation string) (context.Actor, error) {

	authConfig := config.GetUCRRuntime().Config.Auth
	if !authConfig.Enabled {
		return actorFromHeaders(r), nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return context.Actor{}, errors.NewClientError(errors.ErrorMessage{
			Code:        errors.UN_AUTHORIZED.Code,
			Message:     errors.UN_AUTHORIZED.Message,
			Description: "Missing or invalid Authorization header",
		}, http.StatusUnauthorized)
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := authn.ValidateToken(token, orgID, authConfig)
	if err != nil {
		log.GetLogger().Audit(log.AuditEvent{
			InitiatorType: log.InitiatorTypeUser,
			OrgID:         orgID,
			ActionID:      log.ActionAuthenticationFailure,
			TraceID:       context.GetTraceID(r.Context()),
			Data:          map[string]string{"operation": operation},
		})
		return context.Actor{}, err
	}

	actor := authn.ActorFromClaims(claims)
	if !authz.HasPermission(actor.Scopes, operation, authConfig.RequiredScopes) {
		return context.Actor{}, errors.NewClientError(errors.ErrorMessage{
			Code:        errors.FORBIDDEN.Code,
			Message:     errors.FORBIDDEN.Message,
			Description: "Do not have permission to perform this operation",
		}, http.StatusForbidden)
	}
	return actor, nil
}

func actorFromHeaders(r *http.Request) context.Actor {

	actor := context.Actor{
		UserID:   strings.TrimSpace(r.Header.Get(UserIdHeader)),
		UserName: strings.TrimSpace(r.Header.Get(UserNameHeader)),
	}
	if actor.UserID == "" {
		actor.UserID = "anonymous"
	}
	if actor.UserName == "" {
		actor.UserName = actor.UserID
	}
	for _, role := range strings.Split(r.Header.Get(UserRolesHeader), ",") {
		if role = strings.TrimSpace(role); role != "" {
			actor.Roles = append(actor.Roles, role)
		}
	}
	return actor
}

// WithTrace propagates the caller supplied trace id, or assigns one, for the lifetime of the request.
func WithTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(constants.TraceIDHeader)
		if traceID == "" {
			traceID = context.GenerateTraceID()
		}
		w.Header().Set(constants.TraceIDHeader, traceID)
		next.ServeHTTP(w, r.WithContext(context.WithTraceID(r.Context(), traceID)))
	})
}

// EnableCORS answers preflight requests and sets CORS headers for the allowed origins. An empty list
// allows any origin.
func EnableCORS(allowedOrigins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case len(allowedOrigins) == 0:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case slices.Contains(allowedOrigins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+constants.TraceIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, "+constants.TraceIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

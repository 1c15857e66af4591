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
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/ucr-orchestrator/internal/system/config"
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	"github.com/wso2/ucr-orchestrator/internal/system/context"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

func TestAuthnAndAuthz_DisabledUsesHeaders(t *testing.T) {
	config.OverrideUCRRuntime(config.Config{})

	r := httptest.NewRequest(http.MethodPost, "/rules/r1/approve", nil)
	r.Header.Set(UserIdHeader, "u-7")
	r.Header.Set(UserRolesHeader, "manager, owner")

	actor, err := AuthnAndAuthz(r, "org-1", "rules:approve")
	require.NoError(t, err)
	assert.Equal(t, "u-7", actor.UserID)
	assert.Equal(t, "u-7", actor.UserName)
	assert.Equal(t, []string{"manager", "owner"}, actor.Roles)
}

func TestAuthnAndAuthz_Enabled(t *testing.T) {
	config.OverrideUCRRuntime(config.Config{Auth: config.AuthConfig{
		Enabled:        true,
		JWTSecret:      "s3cret",
		RequiredScopes: map[string][]string{"rules:deploy": {"rules:deploy"}},
	}})

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        "u-1",
		"org_handle": "org-1",
		"aud":        "ucr-orchestrator",
		"exp":        time.Now().Add(time.Minute).Unix(),
		"scope":      "rules:view",
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	missing := httptest.NewRequest(http.MethodGet, "/rules", nil)
	_, err = AuthnAndAuthz(missing, "org-1", "rules:view")
	assert.Equal(t, errors.UN_AUTHORIZED.Code, errors.CodeOf(err))

	viewer := httptest.NewRequest(http.MethodGet, "/rules", nil)
	viewer.Header.Set("Authorization", "Bearer "+token)
	actor, err := AuthnAndAuthz(viewer, "org-1", "rules:view")
	require.NoError(t, err)
	assert.Equal(t, "u-1", actor.UserID)

	_, err = AuthnAndAuthz(viewer, "org-1", "rules:deploy")
	assert.Equal(t, errors.FORBIDDEN.Code, errors.CodeOf(err))
}

func TestWithTrace(t *testing.T) {
	var seen string
	handler := WithTrace(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = context.GetTraceID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set(constants.TraceIDHeader, "trace-1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, "trace-1", seen)
	assert.Equal(t, "trace-1", w.Header().Get(constants.TraceIDHeader))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "trace-1", seen)
}

func TestEnableCORS(t *testing.T) {
	called := false
	handler := EnableCORS([]string{"https://console.example.com"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	preflight := httptest.NewRequest(http.MethodOptions, "/rules", nil)
	preflight.Header.Set("Origin", "https://console.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, preflight)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, called)
	assert.Equal(t, "https://console.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	other := httptest.NewRequest(http.MethodGet, "/rules", nil)
	other.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, other)
	assert.True(t, called)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

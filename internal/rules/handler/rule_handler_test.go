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
package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/rules/provider"
	"github.com/wso2/ucr-orchestrator/internal/system/config"
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	config.OverrideUCRRuntime(config.Config{})
	os.Exit(m.Run())
}

func tenantRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(context.WithValue(req.Context(), constants.TenantContextKey, "org-1"))
}

func TestDecodeOptional(t *testing.T) {
	var req model.RejectRequest
	require.NoError(t, decodeOptional(tenantRequest(http.MethodPost, "/", ""), constants.RuleResource, &req))
	assert.Empty(t, req.Reason)

	require.NoError(t, decodeOptional(tenantRequest(http.MethodPost, "/", `{"reason":"too strict"}`),
		constants.RuleResource, &req))
	assert.Equal(t, "too strict", req.Reason)

	err := decodeOptional(tenantRequest(http.MethodPost, "/", `{"reason":1}`), constants.RuleResource, &req)
	assert.True(t, errors.IsValidation(err))

	err = decodeOptional(tenantRequest(http.MethodPost, "/", `{"other":true}`), constants.RuleResource, &req)
	assert.True(t, errors.IsValidation(err))
}

func TestAuthorize_RequiresBearerTokenWhenEnabled(t *testing.T) {
	config.OverrideUCRRuntime(config.Config{Auth: config.AuthConfig{Enabled: true, JWTSecret: "secret"}})
	defer config.OverrideUCRRuntime(config.Config{})

	h := NewRuleHandler(provider.NewRulesProvider(nil, nil, nil))
	rec := httptest.NewRecorder()
	h.GetRule(rec, tenantRequest(http.MethodGet, "/rules/r-1", ""), "r-1")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStreamEvents_UnavailableWithoutBroker(t *testing.T) {
	h := NewRuleHandler(provider.NewRulesProvider(nil, nil, nil))
	rec := httptest.NewRecorder()
	h.StreamEvents(rec, tenantRequest(http.MethodGet, "/rule-events", ""))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

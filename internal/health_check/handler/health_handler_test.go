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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/ucr-orchestrator/internal/health_check/provider"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(provider.NewHealthCheckProvider(nil)).HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleReadiness(t *testing.T) {
	tests := []struct {
		name   string
		db     pingerFunc
		status int
		body   string
	}{
		{name: "memory data source", status: http.StatusOK, body: "ready"},
		{name: "reachable database", db: func(context.Context) error { return nil }, status: http.StatusOK, body: "ready"},
		{name: "unreachable database", db: func(context.Context) error { return errors.New("connection refused") },
			status: http.StatusServiceUnavailable, body: "not ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var healthProvider provider.HealthCheckProviderInterface
			if tt.db == nil {
				healthProvider = provider.NewHealthCheckProvider(nil)
			} else {
				healthProvider = provider.NewHealthCheckProvider(tt.db)
			}
			rec := httptest.NewRecorder()
			NewHealthHandler(healthProvider).HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.body, body["status"])
		})
	}
}

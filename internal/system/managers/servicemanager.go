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
package managers

import (
	"net/http"
	"strings"

	healthprovider "github.com/wso2/ucr-orchestrator/internal/health_check/provider"
	"github.com/wso2/ucr-orchestrator/internal/rules/provider"
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	"github.com/wso2/ucr-orchestrator/internal/system/services"
	"github.com/wso2/ucr-orchestrator/internal/system/utils"
)

const defaultTenant = "carbon.super"

type ServiceManagerInterface interface {
	RegisterServices(apiBasePath string) error
}

type ServiceManager struct {
	mux            *http.ServeMux
	rulesProvider  provider.RulesProviderInterface
	healthProvider healthprovider.HealthCheckProviderInterface
	metrics        http.Handler
}

// NewServiceManager creates a new instance of ServiceManager. A nil metrics handler leaves
// /metrics unregistered.
func NewServiceManager(mux *http.ServeMux, rulesProvider provider.RulesProviderInterface,
	healthProvider healthprovider.HealthCheckProviderInterface, metrics http.Handler) ServiceManagerInterface {

	return &ServiceManager{
		mux:            mux,
		rulesProvider:  rulesProvider,
		healthProvider: healthProvider,
		metrics:        metrics,
	}
}

func (sm *ServiceManager) RegisterServices(apiBasePath string) error {

	utils.RewriteToDefaultTenant(apiBasePath, sm.mux, defaultTenant)

	healthService := services.NewHealthService(sm.healthProvider)
	sm.mux.HandleFunc("GET /health", healthService.Route)
	sm.mux.HandleFunc("GET /ready", healthService.Route)
	if sm.metrics != nil {
		sm.mux.Handle("GET /metrics", sm.metrics)
	}

	rulesService := services.NewRulesService(sm.rulesProvider)

	// Single tenant dispatcher for all services
	utils.MountTenantDispatcher(sm.mux, apiBasePath, func(w http.ResponseWriter, r *http.Request) {
		// Internal path after tenant and base path stripping
		path := strings.TrimSuffix(r.URL.Path, "/")

		switch {
		case hasSegmentPrefix(path, "/"+constants.RulesApiPath),
			hasSegmentPrefix(path, "/"+constants.RuleTemplatesApiPath),
			hasSegmentPrefix(path, "/"+constants.RuleEventsApiPath),
			hasSegmentPrefix(path, "/deployments"):
			rulesService.Route(w, r)
		default:
			http.NotFound(w, r)
		}
	})
	return nil
}

func hasSegmentPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

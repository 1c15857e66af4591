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
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthprovider "github.com/wso2/ucr-orchestrator/internal/health_check/provider"
	"github.com/wso2/ucr-orchestrator/internal/rules/audit"
	"github.com/wso2/ucr-orchestrator/internal/rules/deployment"
	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/rules/provider"
	"github.com/wso2/ucr-orchestrator/internal/rules/service"
	"github.com/wso2/ucr-orchestrator/internal/rules/simulation"
	"github.com/wso2/ucr-orchestrator/internal/rules/store"
	"github.com/wso2/ucr-orchestrator/internal/rules/templates"
	"github.com/wso2/ucr-orchestrator/internal/system/config"
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	"github.com/wso2/ucr-orchestrator/internal/system/events"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
	"github.com/wso2/ucr-orchestrator/internal/system/metrics"
	"github.com/wso2/ucr-orchestrator/internal/system/security"
)

const (
	testOrg       = "org-1"
	testSmartCode = "HERA.SALON.BOOKING.CANCEL_POLICY.v1"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	config.OverrideUCRRuntime(config.Config{})
	os.Exit(m.Run())
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := store.NewMemoryStore()
	broker := events.NewBroker(64)
	collector := metrics.NewCollector()
	writer := audit.NewWriter(broker, collector)
	orchestratorConfig := config.OrchestratorConfig{MinApprovals: 1, ApproverRoles: []string{"manager"}}

	library, err := templates.NewLibrary(config.TemplatesConfig{CacheTTLSeconds: 60})
	require.NoError(t, err)
	ruleService := service.NewRuleService(s, library, simulation.NewEngine(config.SimulationConfig{MaxParallelism: 2}),
		writer, collector, orchestratorConfig)
	orchestrator := deployment.NewOrchestrator(s, s, orchestratorConfig, writer, collector)

	mux := http.NewServeMux()
	manager := NewServiceManager(mux, provider.NewRulesProvider(ruleService, orchestrator, broker),
		healthprovider.NewHealthCheckProvider(nil), collector.Handler())
	require.NoError(t, manager.RegisterServices(constants.ApiBasePath))

	server := httptest.NewServer(security.WithTrace(mux))
	t.Cleanup(server.Close)
	return server
}

type client struct {
	t      *testing.T
	server *httptest.Server
}

func (c client) do(method, path, user, roles string, body interface{}) (*http.Response, []byte) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.server.URL+"/t/"+testOrg+constants.ApiBasePath+path, reader)
	require.NoError(c.t, err)
	req.Header.Set(security.UserIdHeader, user)
	req.Header.Set(security.UserRolesHeader, roles)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, payload
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func fullChecklist() model.Checklist {
	return model.Checklist{Tested: true, Reviewed: true, Approved: true, Documented: true, BackupPlan: true}
}

func TestRuleLifecycleOverHTTP(t *testing.T) {
	c := client{t: t, server: newServer(t)}

	resp, body := c.do(http.MethodGet, "/rule-templates?industry=salon", "author", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	listing := decode[model.TemplateListResponse](t, body)
	require.NotEmpty(t, listing.Templates)

	resp, body = c.do(http.MethodPost, "/rule-templates/salon-cancellation-policy/clone", "author", "",
		model.CloneTemplateRequest{SmartCode: testSmartCode})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	rule := decode[model.Rule](t, body)
	assert.Equal(t, model.StatusDraft, rule.Status)
	assert.NotEmpty(t, resp.Header.Get(constants.TraceIDHeader))

	resp, body = c.do(http.MethodPost, "/rules/"+rule.RuleId+"/submit", "author", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, model.StatusPendingApproval, decode[model.Rule](t, body).Status)

	resp, _ = c.do(http.MethodPost, "/rules/"+rule.RuleId+"/approve", "intern", "viewer", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = c.do(http.MethodPost, "/rules/"+rule.RuleId+"/approve", "boss", "manager",
		model.ApproveRequest{Notes: "ok"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, model.StatusApproved, decode[model.Rule](t, body).Status)

	resp, body = c.do(http.MethodPost, "/rules/"+rule.RuleId+"/deploy", "ops", "", model.DeployRequest{
		AttemptId: "attempt-1",
		Scope:     model.Scope{Apps: []string{"pos"}, Locations: []string{"branch-1"}},
		Checklist: fullChecklist(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	deployed := decode[model.DeployResult](t, body)
	assert.Equal(t, model.StatusActive, deployed.Rule.Status)
	assert.Equal(t, model.DeploymentCompleted, deployed.Deployment.Status)

	resp, body = c.do(http.MethodGet, "/rules/smart-code/"+testSmartCode, "author", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, rule.RuleId, decode[model.Rule](t, body).RuleId)

	resp, body = c.do(http.MethodGet, "/rules/"+rule.RuleId+"/deployments", "author", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Len(t, decode[[]model.DeploymentRecord](t, body), 1)

	resp, body = c.do(http.MethodGet, "/rules/"+rule.RuleId+"/audit", "author", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var actions []string
	for _, event := range decode[[]model.AuditEvent](t, body) {
		actions = append(actions, event.Action)
	}
	assert.Equal(t, []string{
		log.ActionCloneTemplate, log.ActionSubmitRule, log.ActionApproveRule, log.ActionDeployRule, log.ActionActivateRule,
	}, actions)

	resp, body = c.do(http.MethodPost, "/rules/"+rule.RuleId+"/versions", "author", "",
		model.VersionBumpRequest{ChangeType: model.ChangeMinor})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	bump := decode[model.VersionBumpResult](t, body)
	assert.Equal(t, "1.1", bump.NewVersion.Label)

	resp, body = c.do(http.MethodGet, "/rules/"+rule.RuleId+"/diff/"+bump.NewRuleId, "author", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.True(t, decode[model.DiffResult](t, body).Empty())

	resp, body = c.do(http.MethodGet, "/rules?status=active", "author", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Len(t, decode[model.RuleListResponse](t, body).Rules, 1)
}

func TestRuleErrorsOverHTTP(t *testing.T) {
	c := client{t: t, server: newServer(t)}

	resp, body := c.do(http.MethodGet, "/rules/missing", "author", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "trace_id")

	resp, _ = c.do(http.MethodPost, "/rules", "author", "", map[string]interface{}{"unknown": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = c.do(http.MethodPost, "/rules", "author", "", map[string]interface{}{
		"smart_code":   "bad",
		"title":        "Broken",
		"rule_payload": map[string]interface{}{"description": ""},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "details")

	resp, body = c.do(http.MethodPost, "/rules", "author", "", map[string]interface{}{
		"smart_code":   testSmartCode,
		"title":        "Policy",
		"tags":         []string{"salon"},
		"rule_payload": map[string]interface{}{"description": "Policy", "definitions": map[string]interface{}{"grace_minutes": 15}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	rule := decode[model.Rule](t, body)

	resp, body = c.do(http.MethodPatch, "/rules/"+rule.RuleId, "author", "", map[string]interface{}{"status": "active"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "status")

	resp, body = c.do(http.MethodPatch, "/rules/"+rule.RuleId, "author", "", map[string]interface{}{"title": "Renamed"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "Renamed", decode[model.Rule](t, body).Title)

	resp, _ = c.do(http.MethodPost, "/rules/"+rule.RuleId+"/deploy", "ops", "", model.DeployRequest{Checklist: fullChecklist()})
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)

	resp, _ = c.do(http.MethodPost, "/rules/simulate", "author", "", model.SimulateRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = c.do(http.MethodDelete, "/rules/"+rule.RuleId, "author", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, _ = c.do(http.MethodGet, "/profiles", "author", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSimulateOverHTTP(t *testing.T) {
	c := client{t: t, server: newServer(t)}

	request := json.RawMessage(`{
		"rule_payload": {
			"description": "Salon cancellation policy",
			"definitions": {"grace_minutes": 15, "no_show_fee_pct": 100, "late_cancel_fee_pct": 50},
			"exceptions": [{"if": {"customer_tier": "VIP"}, "then": {"late_cancel_fee_pct": 0, "no_show_fee_pct": 25}}]
		},
		"scenarios": [{
			"scenario_id": "vip-late-cancel",
			"context": {"customer_tier": "VIP"},
			"expected": {"grace_minutes": 15, "no_show_fee_pct": 25, "late_cancel_fee_pct": 0}
		}]
	}`)
	resp, body := c.do(http.MethodPost, "/rules/simulate", "author", "", request)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	result := decode[model.SimulationResult](t, body)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "vip-late-cancel", result.Results[0].ScenarioId)
	assert.True(t, result.Results[0].Passed)
	assert.Equal(t, float64(100), result.Coverage)
	assert.Contains(t, string(body), `"scenario_id":"vip-late-cancel"`)
}

func TestHealthAndMetrics(t *testing.T) {
	server := newServer(t)

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestRuleEventStream(t *testing.T) {
	server := newServer(t)
	c := client{t: t, server: server}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		server.URL+"/t/"+testOrg+constants.ApiBasePath+"/rule-events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	created, body := c.do(http.MethodPost, "/rule-templates/salon-cancellation-policy/clone", "author", "", nil)
	require.Equal(t, http.StatusCreated, created.StatusCode, string(body))

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: ") {
			assert.Equal(t, log.ActionCloneTemplate, strings.TrimSpace(strings.TrimPrefix(line, "event: ")))
			return
		}
	}
}

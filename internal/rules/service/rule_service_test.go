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
package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/ucr-orchestrator/internal/rules/audit"
	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/rules/simulation"
	"github.com/wso2/ucr-orchestrator/internal/rules/store"
	"github.com/wso2/ucr-orchestrator/internal/rules/templates"
	"github.com/wso2/ucr-orchestrator/internal/system/config"
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	ucrcontext "github.com/wso2/ucr-orchestrator/internal/system/context"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/events"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
	"github.com/wso2/ucr-orchestrator/internal/system/metrics"
)

const (
	testOrg       = "org-1"
	testSmartCode = "HERA.SALON.BOOKING.CANCEL_POLICY.v1"
	templateID    = "salon-cancellation-policy"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

func cancellationPayload() model.RulePayload {
	return model.RulePayload{
		Description: "Salon cancellation policy",
		Definitions: map[string]interface{}{
			"grace_minutes":       15,
			"no_show_fee_pct":     100,
			"late_cancel_fee_pct": 50,
		},
		Exceptions: []model.Exception{{
			If:   map[string]interface{}{"customer_tier": "VIP"},
			Then: map[string]interface{}{"late_cancel_fee_pct": 0, "no_show_fee_pct": 25},
		}},
	}
}

type fixture struct {
	store   *store.MemoryStore
	service *RuleService
	broker  *events.Broker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	broker := events.NewBroker(64)
	collector := metrics.NewCollector()
	library := templates.NewLibraryFromTemplates([]model.Template{{
		TemplateId: templateID,
		Industry:   "salon",
		Module:     "booking",
		SmartCode:  testSmartCode,
		Title:      "Cancellation policy",
		Tags:       []string{"salon", "booking"},
		Payload:    cancellationPayload(),
	}}, time.Minute)
	rs := NewRuleService(s, library, simulation.NewEngine(config.SimulationConfig{MaxParallelism: 4}),
		audit.NewWriter(broker, collector), collector, config.OrchestratorConfig{})
	return &fixture{store: s, service: rs, broker: broker}
}

func asUser(id string) context.Context {
	return ucrcontext.WithActor(context.Background(), ucrcontext.Actor{UserID: id, UserName: id})
}

func createRequest(smartCode string) model.RuleAPIRequest {
	return model.RuleAPIRequest{
		SmartCode: smartCode,
		Title:     "Cancellation policy",
		Tags:      []string{"salon", " booking", "salon"},
		Payload:   cancellationPayload(),
	}
}

func TestCreateRule(t *testing.T) {
	f := newFixture(t)
	ctx := asUser("author")

	rule, err := f.service.CreateRule(ctx, testOrg, createRequest(testSmartCode))
	require.NoError(t, err)
	assert.NotEmpty(t, rule.RuleId)
	assert.Equal(t, model.StatusDraft, rule.Status)
	assert.Equal(t, 1, rule.Version)
	assert.Equal(t, constants.DefaultSchemaVersion, rule.SchemaVersion)
	assert.Equal(t, []string{"booking", "salon"}, rule.Tags)
	assert.Equal(t, "author", rule.CreatedBy)
	assert.True(t, rule.RequiresApproval)

	stored, err := f.service.GetRule(ctx, testOrg, rule.RuleId)
	require.NoError(t, err)
	assert.Equal(t, rule.RuleId, stored.RuleId)

	trail, err := f.service.ListAudit(ctx, testOrg, rule.RuleId)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, log.ActionCreateRule, trail[0].Action)
	assert.Equal(t, "author", trail[0].Actor)

	entities, err := f.store.Ledger().Query(ctx, testOrg, constants.UniversalTableEntities,
		map[string]interface{}{"entity_code": rule.RuleId})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, constants.UniversalEntityTypeRule, entities[0]["entity_type"])
}

func TestCreateRule_Invalid(t *testing.T) {
	f := newFixture(t)

	req := createRequest("not-a-smart-code")
	req.Payload.Description = ""
	_, err := f.service.CreateRule(asUser("author"), testOrg, req)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	var clientError *errors.ClientError
	require.ErrorAs(t, err, &clientError)
	assert.Len(t, clientError.Details, 2)
}

func TestCreateRule_ActiveSmartCodeConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := asUser("author")

	rule, err := f.service.CreateRule(ctx, testOrg, createRequest(testSmartCode))
	require.NoError(t, err)
	require.NoError(t, f.store.UpdateStatus(ctx, testOrg, rule.RuleId, model.StatusActive))

	_, err = f.service.CreateRule(ctx, testOrg, createRequest(testSmartCode))
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	_, err = f.service.CreateRule(ctx, "org-2", createRequest(testSmartCode))
	assert.NoError(t, err)
}

func TestGetRuleBySmartCode(t *testing.T) {
	f := newFixture(t)
	ctx := asUser("author")

	_, err := f.service.GetRuleBySmartCode(ctx, testOrg, testSmartCode)
	assert.True(t, errors.IsNotFound(err))

	first, err := f.service.CreateRule(ctx, testOrg, createRequest(testSmartCode))
	require.NoError(t, err)
	bump, err := f.service.BumpVersion(ctx, testOrg, first.RuleId, model.VersionBumpRequest{ChangeType: model.ChangeMinor})
	require.NoError(t, err)

	newest, err := f.service.GetRuleBySmartCode(ctx, testOrg, testSmartCode)
	require.NoError(t, err)
	assert.Equal(t, bump.NewRuleId, newest.RuleId)

	require.NoError(t, f.store.UpdateStatus(ctx, testOrg, first.RuleId, model.StatusActive))
	active, err := f.service.GetRuleBySmartCode(ctx, testOrg, testSmartCode)
	require.NoError(t, err)
	assert.Equal(t, first.RuleId, active.RuleId)
}

func TestListRules_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := asUser("author")

	codes := []string{
		"HERA.SALON.BOOKING.RULE_A.v1",
		"HERA.SALON.BOOKING.RULE_B.v1",
		"HERA.SALON.BOOKING.RULE_C.v1",
	}
	for _, code := range codes {
		_, err := f.service.CreateRule(ctx, testOrg, createRequest(code))
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	page, err := f.service.ListRules(ctx, testOrg, model.RuleFilter{Limit: 2}, "")
	require.NoError(t, err)
	require.Len(t, page.Rules, 2)
	require.NotEmpty(t, page.NextCursor)
	for _, rule := range page.Rules {
		seen[rule.RuleId] = true
	}

	page, err = f.service.ListRules(ctx, testOrg, model.RuleFilter{Limit: 2}, page.NextCursor)
	require.NoError(t, err)
	require.Len(t, page.Rules, 1)
	assert.Empty(t, page.NextCursor)
	assert.False(t, seen[page.Rules[0].RuleId])

	_, err = f.service.ListRules(ctx, testOrg, model.RuleFilter{}, "%%%")
	assert.Equal(t, errors.INVALID_CURSOR.Code, errors.CodeOf(err))

	_, err = f.service.ListRules(ctx, testOrg, model.RuleFilter{Status: "bogus"}, "")
	assert.True(t, errors.IsValidation(err))
}

func TestUpdateRule(t *testing.T) {
	f := newFixture(t)
	ctx := asUser("author")

	rule, err := f.service.CreateRule(ctx, testOrg, createRequest(testSmartCode))
	require.NoError(t, err)

	title := "Stricter cancellation policy"
	payload := cancellationPayload()
	payload.Definitions["grace_minutes"] = 30
	updated, err := f.service.UpdateRule(ctx, testOrg, rule.RuleId, model.RuleUpdateRequest{
		Title:   &title,
		Payload: &payload,
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, rule.CreatedAt, updated.CreatedAt)
	assert.True(t, model.ValuesEqual(30, updated.Payload.Definitions["grace_minutes"]))

	_, err = f.service.UpdateRule(ctx, testOrg, rule.RuleId, model.RuleUpdateRequest{
		Payload: &model.RulePayload{},
	})
	assert.True(t, errors.IsValidation(err))

	require.NoError(t, f.store.UpdateStatus(ctx, testOrg, rule.RuleId, model.StatusPendingApproval))
	_, err = f.service.UpdateRule(ctx, testOrg, rule.RuleId, model.RuleUpdateRequest{Title: &title})
	assert.True(t, errors.IsState(err))
}

func TestCloneTemplate_IsIndependentOfCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := asUser("author")

	first, err := f.service.CloneTemplate(ctx, testOrg, templateID, model.CloneTemplateRequest{})
	require.NoError(t, err)
	assert.Equal(t, testSmartCode, first.SmartCode)
	assert.Equal(t, templateID, first.AIMetadata["source_template"])

	title := "Edited"
	payload := first.Payload.Clone()
	payload.Definitions["grace_minutes"] = 5
	_, err = f.service.UpdateRule(ctx, testOrg, first.RuleId, model.RuleUpdateRequest{Title: &title, Payload: &payload})
	require.NoError(t, err)

	second, err := f.service.CloneTemplate(ctx, testOrg, templateID, model.CloneTemplateRequest{
		SmartCode: "HERA.SALON.BOOKING.CANCEL_POLICY_VIP.v1",
		Tags:      []string{"vip"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.RuleId, second.RuleId)
	assert.Equal(t, "Cancellation policy", second.Title)
	assert.Equal(t, []string{"booking", "salon", "vip"}, second.Tags)
	assert.True(t, model.ValuesEqual(15, second.Payload.Definitions["grace_minutes"]))

	trail, err := f.service.ListAudit(ctx, testOrg, second.RuleId)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, log.ActionCloneTemplate, trail[0].Action)

	_, err = f.service.CloneTemplate(ctx, testOrg, "missing", model.CloneTemplateRequest{})
	assert.True(t, errors.IsNotFound(err))
}

func TestValidate(t *testing.T) {
	f := newFixture(t)
	ctx := asUser("author")

	result, err := f.service.ValidateDraft(ctx, testOrg, createRequest(testSmartCode))
	require.NoError(t, err)
	assert.True(t, result.Ok)

	rule, err := f.service.CreateRule(ctx, testOrg, createRequest(testSmartCode))
	require.NoError(t, err)
	require.NoError(t, f.store.UpdateStatus(ctx, testOrg, rule.RuleId, model.StatusActive))

	result, err = f.service.ValidateDraft(ctx, testOrg, createRequest(testSmartCode))
	require.NoError(t, err)
	assert.False(t, result.Ok)

	result, err = f.service.ValidateRule(ctx, testOrg, rule.RuleId)
	require.NoError(t, err)
	assert.True(t, result.Ok)

	trail, err := f.service.ListAudit(ctx, testOrg, rule.RuleId)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, log.ActionValidateRule, trail[1].Action)
}

func TestSimulate_CancellationPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := asUser("author")
	payload := cancellationPayload()

	result, err := f.service.Simulate(ctx, testOrg, model.SimulateRequest{
		Payload: &payload,
		Scenarios: []model.Scenario{
			{
				ScenarioId: "regular-customer",
				Context:    map[string]interface{}{"customer": map[string]interface{}{"customer_tier": "STANDARD"}},
				Expected: map[string]interface{}{
					"grace_minutes": 15, "no_show_fee_pct": 100, "late_cancel_fee_pct": 50,
				},
			},
			{
				ScenarioId: "vip-customer",
				Context:    map[string]interface{}{"customer": map[string]interface{}{"customer_tier": "VIP"}},
				Expected: map[string]interface{}{
					"grace_minutes": 15, "no_show_fee_pct": 25, "late_cancel_fee_pct": 0,
				},
			},
			{
				ScenarioId: "wrong-expectation",
				Context:    map[string]interface{}{},
				Expected:   map[string]interface{}{"grace_minutes": 15, "no_show_fee_pct": 100, "late_cancel_fee_pct": 0},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.False(t, result.Results[2].Passed)
	assert.Equal(t, "wrong-expectation", result.Results[2].ScenarioId)
	assert.InDelta(t, 66.67, result.Coverage, 0.01)

	rule, err := f.service.CreateRule(ctx, testOrg, createRequest(testSmartCode))
	require.NoError(t, err)
	byID, err := f.service.Simulate(ctx, testOrg, model.SimulateRequest{
		RuleId: rule.RuleId,
		Scenarios: []model.Scenario{{
			ScenarioId: "vip-by-stored-rule",
			Context:    map[string]interface{}{"customer_tier": "VIP"},
			Expected:   map[string]interface{}{"grace_minutes": 15, "no_show_fee_pct": 25, "late_cancel_fee_pct": 0},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, byID.Passed)

	_, err = f.service.Simulate(ctx, testOrg, model.SimulateRequest{RuleId: rule.RuleId})
	assert.Equal(t, errors.INVALID_SIMULATION.Code, errors.CodeOf(err))

	_, err = f.service.Simulate(ctx, testOrg, model.SimulateRequest{
		RuleId:    rule.RuleId,
		Payload:   &payload,
		Scenarios: []model.Scenario{{ScenarioId: "x"}},
	})
	assert.Equal(t, errors.INVALID_SIMULATION.Code, errors.CodeOf(err))
}

func TestBumpVersion_NoOpBumpHasEmptyDiff(t *testing.T) {
	f := newFixture(t)
	ctx := asUser("author")

	base, err := f.service.CreateRule(ctx, testOrg, createRequest(testSmartCode))
	require.NoError(t, err)

	minor, err := f.service.BumpVersion(ctx, testOrg, base.RuleId, model.VersionBumpRequest{ChangeType: model.ChangeMinor})
	require.NoError(t, err)
	assert.Equal(t, 1, minor.NewVersion.Version)
	assert.Equal(t, 1, minor.NewVersion.MinorVersion)

	major, err := f.service.BumpVersion(ctx, testOrg, base.RuleId, model.VersionBumpRequest{ChangeType: model.ChangeMajor})
	require.NoError(t, err)
	assert.Equal(t, 2, major.NewVersion.Version)
	assert.Equal(t, 0, major.NewVersion.MinorVersion)

	diff, err := f.service.Diff(ctx, testOrg, base.RuleId, minor.NewRuleId)
	require.NoError(t, err)
	assert.True(t, diff.Empty())
	assert.Equal(t, base.RuleId, diff.BaseRuleId)

	next, err := f.service.GetRule(ctx, testOrg, minor.NewRuleId)
	require.NoError(t, err)
	assert.Equal(t, base.RuleId, next.ParentRuleId)
	assert.Equal(t, model.StatusDraft, next.Status)

	_, err = f.service.BumpVersion(ctx, testOrg, base.RuleId, model.VersionBumpRequest{ChangeType: "patch"})
	assert.True(t, errors.IsValidation(err))
}

func TestDiff_ReportsBreakingChanges(t *testing.T) {
	f := newFixture(t)
	ctx := asUser("author")

	base, err := f.service.CreateRule(ctx, testOrg, createRequest(testSmartCode))
	require.NoError(t, err)
	bump, err := f.service.BumpVersion(ctx, testOrg, base.RuleId, model.VersionBumpRequest{ChangeType: model.ChangeMajor})
	require.NoError(t, err)

	payload := cancellationPayload()
	delete(payload.Definitions, "grace_minutes")
	_, err = f.service.UpdateRule(ctx, testOrg, bump.NewRuleId, model.RuleUpdateRequest{Payload: &payload})
	require.NoError(t, err)

	diff, err := f.service.Diff(ctx, testOrg, base.RuleId, bump.NewRuleId)
	require.NoError(t, err)
	assert.Equal(t, 1, diff.Summary.Removed)
	assert.NotEmpty(t, diff.BreakingChanges)

	_, err = f.service.Diff(ctx, testOrg, base.RuleId, "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestCreateRule_PublishesEvent(t *testing.T) {
	f := newFixture(t)
	stream, cancel := f.broker.Subscribe(testOrg)
	defer cancel()

	rule, err := f.service.CreateRule(asUser("author"), testOrg, createRequest(testSmartCode))
	require.NoError(t, err)

	select {
	case event := <-stream:
		assert.Equal(t, rule.RuleId, event.RuleId)
		assert.Equal(t, log.ActionCreateRule, event.Action)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

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
package simulation

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/system/config"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

func cancellationPayload() model.RulePayload {
	return model.RulePayload{
		Description: "Cancellation policy",
		Definitions: map[string]interface{}{"grace_minutes": 15, "no_show_fee_pct": 100, "late_cancel_fee_pct": 50},
		Exceptions: []model.Exception{
			{
				If:   map[string]interface{}{"customer_tier": "VIP"},
				Then: map[string]interface{}{"late_cancel_fee_pct": 0, "no_show_fee_pct": 25},
			},
		},
	}
}

func newTestEngine() *Engine {
	return NewEngine(config.SimulationConfig{MaxParallelism: 4, MaxScenarios: 50})
}

func TestSimulate_CancellationPolicyScenario(t *testing.T) {
	result, err := newTestEngine().Simulate(context.Background(), cancellationPayload(), []model.Scenario{
		{
			ScenarioId: "vip",
			Name:       "VIP customer",
			Context:    map[string]interface{}{"customer_tier": "VIP"},
			Expected:   map[string]interface{}{"grace_minutes": 15, "no_show_fee_pct": 25, "late_cancel_fee_pct": 0},
		},
		{
			ScenarioId: "regular",
			Context:    map[string]interface{}{"customer_tier": "REGULAR"},
			Expected:   map[string]interface{}{"grace_minutes": float64(15), "no_show_fee_pct": 100, "late_cancel_fee_pct": 50},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Passed)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, float64(100), result.Coverage)
	assert.Equal(t, "vip", result.Results[0].ScenarioId)
	assert.Equal(t, "VIP customer", result.Results[0].Name)
	assert.Equal(t, "regular", result.Results[1].ScenarioId)
	assert.Empty(t, result.Results[1].Name)
	assert.Equal(t, 25, result.Results[0].Actual["no_show_fee_pct"])
}

func TestEvaluate_LastMatchingExceptionWins(t *testing.T) {
	payload := model.RulePayload{
		Definitions: map[string]interface{}{"fee": 50},
		Exceptions: []model.Exception{
			{If: map[string]interface{}{"tier": "VIP"}, Then: map[string]interface{}{"fee": 0}},
			{If: map[string]interface{}{"tier": "VIP"}, Then: map[string]interface{}{"fee": 10}},
		},
	}
	decision := Evaluate(payload, map[string]interface{}{"tier": "VIP"})
	assert.Equal(t, map[string]interface{}{"fee": 10}, decision)
}

func TestEvaluate_DoesNotMutatePayload(t *testing.T) {
	payload := cancellationPayload()
	decision := Evaluate(payload, map[string]interface{}{"customer_tier": "VIP"})
	decision["grace_minutes"] = 999
	assert.Equal(t, 15, payload.Definitions["grace_minutes"])
}

func TestEvaluate_CalendarEffectsMergeLast(t *testing.T) {
	payload := model.RulePayload{
		Definitions:     map[string]interface{}{"discount": 5},
		Exceptions:      []model.Exception{{If: map[string]interface{}{"day": "mon"}, Then: map[string]interface{}{"discount": 10}}},
		CalendarEffects: map[string]interface{}{"discount": 20},
	}
	assert.Equal(t, 20, Evaluate(payload, map[string]interface{}{"day": "mon"})["discount"])
}

func TestLookup(t *testing.T) {
	evalCtx := map[string]interface{}{
		"tier":     "VIP",
		"customer": map[string]interface{}{"loyalty_tier": "gold", "address": map[string]interface{}{"city": "Colombo"}},
	}

	value, ok := Lookup(evalCtx, "tier")
	assert.True(t, ok)
	assert.Equal(t, "VIP", value)

	value, ok = Lookup(evalCtx, "loyalty_tier")
	assert.True(t, ok)
	assert.Equal(t, "gold", value)

	value, ok = Lookup(evalCtx, "customer.address.city")
	assert.True(t, ok)
	assert.Equal(t, "Colombo", value)

	_, ok = Lookup(evalCtx, "customer.address.zip")
	assert.False(t, ok)
	_, ok = Lookup(evalCtx, "segment")
	assert.False(t, ok)
}

func TestMatches_EmptyConditionsNeverMatch(t *testing.T) {
	assert.False(t, Matches(nil, map[string]interface{}{"a": 1}))
	assert.True(t, Matches(map[string]interface{}{"a": float64(1)}, map[string]interface{}{"a": 1}))
}

func TestSimulate_FailureReportsDiff(t *testing.T) {
	result, err := newTestEngine().Simulate(context.Background(), cancellationPayload(), []model.Scenario{{
		Context:  map[string]interface{}{"customer_tier": "VIP"},
		Expected: map[string]interface{}{"grace_minutes": 15, "no_show_fee_pct": 0, "deposit": 10},
	}})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	scenario := result.Results[0]
	assert.False(t, scenario.Passed)
	assert.Equal(t, "scenario-1", scenario.ScenarioId)
	assert.Equal(t, []model.DiffEntry{
		{Key: "deposit", Expected: 10, Kind: model.DiffKindMissing},
		{Key: "no_show_fee_pct", Expected: 0, Actual: 25, Kind: model.DiffKindMismatch},
		{Key: "late_cancel_fee_pct", Actual: 0, Kind: model.DiffKindUnexpected},
	}, scenario.Diff)
	assert.Equal(t, float64(0), result.Coverage)
}

func TestSimulate_PanicIsRecordedPerScenario(t *testing.T) {
	engine := newTestEngine()
	engine.evaluate = func(payload model.RulePayload, evalCtx map[string]interface{}) map[string]interface{} {
		if evalCtx["explode"] == true {
			panic("evaluation exploded")
		}
		return Evaluate(payload, evalCtx)
	}

	result, err := engine.Simulate(context.Background(), model.RulePayload{Definitions: map[string]interface{}{"a": 1}},
		[]model.Scenario{
			{ScenarioId: "ok", Expected: map[string]interface{}{"a": 1}},
			{ScenarioId: "boom", Context: map[string]interface{}{"explode": true}},
		})
	require.NoError(t, err)
	assert.True(t, result.Results[0].Passed)
	assert.False(t, result.Results[1].Passed)
	assert.Equal(t, "evaluation exploded", result.Results[1].Error)
	assert.Equal(t, float64(50), result.Coverage)
}

func TestSimulate_NoScenarios(t *testing.T) {
	result, err := newTestEngine().Simulate(context.Background(), cancellationPayload(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, float64(0), result.Coverage)
}

func TestSimulate_KeepsInputOrder(t *testing.T) {
	scenarios := make([]model.Scenario, 40)
	for i := range scenarios {
		scenarios[i] = model.Scenario{ScenarioId: fmt.Sprintf("s%02d", i)}
	}
	result, err := newTestEngine().Simulate(context.Background(), model.RulePayload{}, scenarios)
	require.NoError(t, err)
	for i, scenario := range result.Results {
		assert.Equal(t, fmt.Sprintf("s%02d", i), scenario.ScenarioId)
	}
}

func TestSimulate_TooManyScenarios(t *testing.T) {
	engine := NewEngine(config.SimulationConfig{MaxParallelism: 1, MaxScenarios: 1})
	_, err := engine.Simulate(context.Background(), model.RulePayload{}, make([]model.Scenario, 2))
	assert.True(t, errors.IsValidation(err))
}

func TestSimulate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestEngine().Simulate(ctx, cancellationPayload(), make([]model.Scenario, 3))
	assert.ErrorIs(t, err, context.Canceled)
}

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
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/system/config"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

// Engine runs scenarios against a rule payload. It holds no state between runs.
type Engine struct {
	maxParallelism int
	maxScenarios   int
	evaluate       func(model.RulePayload, map[string]interface{}) map[string]interface{}
}

func NewEngine(conf config.SimulationConfig) *Engine {

	parallelism := conf.MaxParallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	return &Engine{maxParallelism: parallelism, maxScenarios: conf.MaxScenarios, evaluate: Evaluate}
}

// Simulate evaluates every scenario and compares the decision with the expected one. Results keep
// the order of the scenarios.
func (e *Engine) Simulate(ctx context.Context, payload model.RulePayload,
	scenarios []model.Scenario) (model.SimulationResult, error) {

	if e.maxScenarios > 0 && len(scenarios) > e.maxScenarios {
		return model.SimulationResult{}, errors.NewClientError(errors.ErrorMessage{
			Code:        errors.INVALID_SIMULATION.Code,
			Message:     errors.INVALID_SIMULATION.Message,
			Description: fmt.Sprintf("At most %d scenarios can be simulated at once.", e.maxScenarios),
		}, http.StatusBadRequest)
	}

	results := make([]model.ScenarioResult, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallelism)
	for i := range scenarios {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.runScenario(i, payload, scenarios[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.SimulationResult{}, err
	}

	summary := model.SimulationResult{Results: results, Total: len(results)}
	for _, result := range results {
		if result.Passed {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	if summary.Total > 0 {
		summary.Coverage = float64(summary.Passed) / float64(summary.Total) * 100
	}
	return summary, nil
}

func (e *Engine) runScenario(index int, payload model.RulePayload, scenario model.Scenario) (result model.ScenarioResult) {

	id := scenario.ScenarioId
	if id == "" {
		id = fmt.Sprintf("scenario-%d", index+1)
	}
	result = model.ScenarioResult{ScenarioId: id, Name: scenario.Name, Expected: scenario.Expected}
	defer func() {
		if r := recover(); r != nil {
			log.GetLogger().Warn(fmt.Sprintf("Simulation scenario %s panicked", id), log.Any("panic", r))
			result = model.ScenarioResult{
				ScenarioId: id,
				Name:       scenario.Name,
				Expected:   scenario.Expected,
				Error:      fmt.Sprint(r),
			}
		}
	}()

	result.Actual = e.evaluate(payload, scenario.Context)
	result.Diff = Compare(scenario.Expected, result.Actual)
	result.Passed = len(result.Diff) == 0
	return result
}

// Compare lists the keys where actual differs from expected: mismatched or missing expected keys
// first, in key order, then unexpected actual keys.
func Compare(expected, actual map[string]interface{}) []model.DiffEntry {

	var diff []model.DiffEntry
	for _, key := range model.SortedKeys(expected) {
		got, ok := actual[key]
		switch {
		case !ok:
			diff = append(diff, model.DiffEntry{Key: key, Expected: expected[key], Kind: model.DiffKindMissing})
		case !model.ValuesEqual(got, expected[key]):
			diff = append(diff, model.DiffEntry{Key: key, Expected: expected[key], Actual: got,
				Kind: model.DiffKindMismatch})
		}
	}
	for _, key := range model.SortedKeys(actual) {
		if _, ok := expected[key]; !ok {
			diff = append(diff, model.DiffEntry{Key: key, Actual: actual[key], Kind: model.DiffKindUnexpected})
		}
	}
	return diff
}

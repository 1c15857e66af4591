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
package model

// Scenario is one simulation case: an evaluation context and the decision it should produce.
type Scenario struct {
	ScenarioId string                 `json:"scenario_id"`
	Name       string                 `json:"name,omitempty"`
	Context    map[string]interface{} `json:"context"`
	Expected   map[string]interface{} `json:"expected"`
}

// DiffEntry describes one key where the actual decision differs from the expected one.
type DiffEntry struct {
	Key      string      `json:"key"`
	Expected interface{} `json:"expected"`
	Actual   interface{} `json:"actual"`
	Kind     string      `json:"kind"`
}

// Diff entry kinds.
const (
	DiffKindMismatch   = "mismatch"
	DiffKindMissing    = "missing"
	DiffKindUnexpected = "unexpected"
)

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	ScenarioId string                 `json:"scenario_id"`
	Name       string                 `json:"name,omitempty"`
	Passed     bool                   `json:"passed"`
	Actual     map[string]interface{} `json:"actual"`
	Expected   map[string]interface{} `json:"expected"`
	Diff       []DiffEntry            `json:"diff,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// SimulationResult aggregates all scenario outcomes of one run.
type SimulationResult struct {
	Results  []ScenarioResult `json:"results"`
	Coverage float64          `json:"coverage"`
	Passed   int              `json:"passed"`
	Failed   int              `json:"failed"`
	Total    int              `json:"total"`
}

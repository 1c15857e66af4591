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
	"strings"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
)

const customerField = "customer"

// Evaluate computes the decision a payload produces for one evaluation context. Definitions are the
// base, matching exceptions are merged in order so later ones win, and calendar effects are merged
// last.
func Evaluate(payload model.RulePayload, evalCtx map[string]interface{}) map[string]interface{} {

	decision := model.CopyMap(payload.Definitions)
	if decision == nil {
		decision = map[string]interface{}{}
	}
	for _, exception := range payload.Exceptions {
		if !Matches(exception.If, evalCtx) {
			continue
		}
		for key, value := range exception.Then {
			decision[key] = model.CopyValue(value)
		}
	}
	for key, value := range payload.CalendarEffects {
		decision[key] = model.CopyValue(value)
	}
	return decision
}

// Matches reports whether every condition holds in the context. An empty condition set never
// matches.
func Matches(conditions, evalCtx map[string]interface{}) bool {

	if len(conditions) == 0 {
		return false
	}
	for key, want := range conditions {
		got, ok := Lookup(evalCtx, key)
		if !ok || !model.ValuesEqual(got, want) {
			return false
		}
	}
	return true
}

// Lookup resolves a condition key: first as a top-level context field, then as a field of the
// context's customer object, then as a dotted path.
func Lookup(evalCtx map[string]interface{}, key string) (interface{}, bool) {

	if value, ok := evalCtx[key]; ok {
		return value, true
	}
	if customer, ok := evalCtx[customerField].(map[string]interface{}); ok {
		if value, ok := customer[key]; ok {
			return value, true
		}
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}
	var current interface{} = evalCtx
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if current, ok = m[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

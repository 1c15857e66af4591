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
package versioning

import (
	"fmt"
	"sort"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
)

// Flatten maps every comparable leaf of a payload to its path.
func Flatten(payload model.RulePayload) map[string]interface{} {

	flat := map[string]interface{}{model.SectionDescription: payload.Description}
	put := func(prefix string, section map[string]interface{}) {
		for key, value := range section {
			flat[prefix+"."+key] = value
		}
	}
	put(model.SectionDefinitions, payload.Definitions)
	for i, exception := range payload.Exceptions {
		put(exceptionPath(i)+".if", exception.If)
		put(exceptionPath(i)+".then", exception.Then)
	}
	put(model.SectionCalendarEffects, payload.CalendarEffects)
	put(model.SectionNotifications, payload.Notifications)
	put("extensions", payload.Extensions)
	return flat
}

func exceptionPath(i int) string {
	return fmt.Sprintf("%s[%d]", model.SectionExceptions, i)
}

// Diff compares two payloads path by path and flags changes that can alter the decision an
// existing caller receives.
func Diff(base, next model.RulePayload) model.DiffResult {

	oldFlat := Flatten(base)
	newFlat := Flatten(next)

	paths := make([]string, 0, len(oldFlat)+len(newFlat))
	for path := range oldFlat {
		paths = append(paths, path)
	}
	for path := range newFlat {
		if _, ok := oldFlat[path]; !ok {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	result := model.DiffResult{LineDiffs: []model.LineDiff{}, BreakingChanges: []model.BreakingChange{}}
	for _, path := range paths {
		oldValue, inOld := oldFlat[path]
		newValue, inNew := newFlat[path]
		switch {
		case inOld && !inNew:
			result.LineDiffs = append(result.LineDiffs, model.LineDiff{Path: path, Op: model.DiffRemoved, OldValue: oldValue})
			result.Summary.Removed++
		case !inOld && inNew:
			result.LineDiffs = append(result.LineDiffs, model.LineDiff{Path: path, Op: model.DiffAdded, NewValue: newValue})
			result.Summary.Added++
		case !model.ValuesEqual(oldValue, newValue):
			result.LineDiffs = append(result.LineDiffs, model.LineDiff{
				Path: path, Op: model.DiffModified, OldValue: oldValue, NewValue: newValue,
			})
			result.Summary.Modified++
		}
	}

	result.BreakingChanges = breakingChanges(base, next)
	result.Summary.Breaking = len(result.BreakingChanges)
	return result
}

func breakingChanges(base, next model.RulePayload) []model.BreakingChange {

	changes := []model.BreakingChange{}
	add := func(path, reason string) {
		changes = append(changes, model.BreakingChange{Path: path, Reason: reason})
	}

	for key, oldValue := range base.Definitions {
		path := model.SectionDefinitions + "." + key
		newValue, ok := next.Definitions[key]
		if !ok {
			add(path, "definition removed")
			continue
		}
		if oldType, newType := model.JSONType(oldValue), model.JSONType(newValue); oldType != newType {
			add(path, fmt.Sprintf("definition type changed from %s to %s", oldType, newType))
		}
	}

	for i, oldException := range base.Exceptions {
		if i >= len(next.Exceptions) {
			add(exceptionPath(i), "exception removed")
			continue
		}
		newException := next.Exceptions[i]
		for key := range oldException.Then {
			if _, ok := newException.Then[key]; !ok {
				add(exceptionPath(i)+".then."+key, "exception no longer overrides this value")
			}
		}
		for key, newValue := range newException.If {
			oldValue, ok := oldException.If[key]
			switch {
			case !ok:
				add(exceptionPath(i)+".if."+key, "exception gained a condition")
			case !model.ValuesEqual(oldValue, newValue):
				add(exceptionPath(i)+".if."+key, "exception condition value changed")
			}
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}

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

// ChangeType selects which part of the version pair a bump increments.
type ChangeType string

const (
	ChangeMinor ChangeType = "minor"
	ChangeMajor ChangeType = "major"
)

func (c ChangeType) IsValid() bool {
	return c == ChangeMinor || c == ChangeMajor
}

// LineDiff operations.
const (
	DiffAdded    = "added"
	DiffRemoved  = "removed"
	DiffModified = "modified"
)

// LineDiff is a change at one flattened payload path.
type LineDiff struct {
	Path     string      `json:"path"`
	Op       string      `json:"op"`
	OldValue interface{} `json:"old_value,omitempty"`
	NewValue interface{} `json:"new_value,omitempty"`
}

// BreakingChange explains why a change can alter the outcome for existing callers.
type BreakingChange struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// DiffSummary counts line diffs per operation.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Breaking int `json:"breaking"`
}

// DiffResult is the structural comparison of two rule payloads.
type DiffResult struct {
	BaseRuleId      string           `json:"base_rule_id,omitempty"`
	NewRuleId       string           `json:"new_rule_id,omitempty"`
	Summary         DiffSummary      `json:"summary"`
	BreakingChanges []BreakingChange `json:"breaking_changes"`
	LineDiffs       []LineDiff       `json:"line_diffs"`
}

// Empty reports whether the payloads are structurally identical.
func (d DiffResult) Empty() bool {
	return len(d.LineDiffs) == 0
}

// VersionBumpResult identifies the draft produced by a version bump.
type VersionBumpResult struct {
	NewRuleId  string      `json:"new_rule_id"`
	NewVersion RuleVersion `json:"new_version"`
}

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

import "time"

type RuleAPIRequest struct {
	SmartCode        string                 `json:"smart_code"`
	Title            string                 `json:"title"`
	Tags             []string               `json:"tags"`
	Owner            string                 `json:"owner"`
	Version          int                    `json:"version"`
	SchemaVersion    int                    `json:"schema_version"`
	Payload          RulePayload            `json:"rule_payload"`
	AIMetadata       map[string]interface{} `json:"ai_metadata,omitempty"`
	RequiresApproval *bool                  `json:"requires_approval,omitempty"`
}

// RuleUpdateRequest carries a partial update of a draft rule. Nil fields are left unchanged.
type RuleUpdateRequest struct {
	Title         *string                `json:"title"`
	Tags          []string               `json:"tags"`
	Owner         *string                `json:"owner"`
	SchemaVersion *int                   `json:"schema_version"`
	Payload       *RulePayload           `json:"rule_payload"`
	AIMetadata    map[string]interface{} `json:"ai_metadata"`
}

type CloneTemplateRequest struct {
	SmartCode string   `json:"smart_code"`
	Title     string   `json:"title"`
	Tags      []string `json:"tags"`
	Owner     string   `json:"owner"`
}

type ValidateRequest struct {
	Rule RuleAPIRequest `json:"rule"`
}

// SimulateRequest evaluates either a stored rule (RuleId) or an unsaved payload.
type SimulateRequest struct {
	RuleId    string       `json:"rule_id,omitempty"`
	Payload   *RulePayload `json:"rule_payload,omitempty"`
	Scenarios []Scenario   `json:"scenarios"`
}

type VersionBumpRequest struct {
	ChangeType ChangeType `json:"change_type"`
	Notes      string     `json:"notes"`
}

type SubmitRequest struct {
	Notes string `json:"notes"`
}

type ApproveRequest struct {
	Notes string `json:"notes"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type DeployRequest struct {
	AttemptId     string     `json:"attempt_id"`
	Scope         Scope      `json:"scope"`
	EffectiveFrom *time.Time `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
	Checklist     Checklist  `json:"checklist"`
}

type DeprecateRequest struct {
	Reason string `json:"reason"`
}

// RollbackRequest restores a previously active version. Either RuleId or SmartCode identifies the
// rule family.
type RollbackRequest struct {
	RuleId    string `json:"rule_id,omitempty"`
	SmartCode string `json:"smart_code,omitempty"`
	ToVersion int    `json:"to_version"`
	Reason    string `json:"reason"`
}

type RollbackResult struct {
	Rule               Rule   `json:"rule"`
	RolledBackRuleId   string `json:"rolled_back_rule_id"`
	RestoredFromRuleId string `json:"restored_from_rule_id"`
}

type DeployResult struct {
	Rule             Rule             `json:"rule"`
	Deployment       DeploymentRecord `json:"deployment"`
	SupersededRuleId string           `json:"superseded_rule_id,omitempty"`
}

type RuleListResponse struct {
	Rules      []Rule `json:"rules"`
	NextCursor string `json:"next_cursor,omitempty"`
}

type TemplateListResponse struct {
	Templates []Template `json:"templates"`
}

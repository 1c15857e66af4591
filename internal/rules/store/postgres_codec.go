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
package store

import (
	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/system/database/client"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
)

func nonNilApprovals(approvals []model.Approval) []model.Approval {
	if approvals == nil {
		return []model.Approval{}
	}
	return approvals
}

func encodeRuleColumns(rule model.Rule) (payload, aiMetadata, approvals interface{}, err error) {

	if payload, err = client.JSONParam(rule.Payload); err != nil {
		return nil, nil, nil, errors.NewServerError(errors.MARSHAL_JSON, err)
	}
	if aiMetadata, err = client.JSONParam(rule.AIMetadata); err != nil {
		return nil, nil, nil, errors.NewServerError(errors.MARSHAL_JSON, err)
	}
	if approvals, err = client.JSONParam(nonNilApprovals(rule.Approvals)); err != nil {
		return nil, nil, nil, errors.NewServerError(errors.MARSHAL_JSON, err)
	}
	return payload, aiMetadata, approvals, nil
}

func decodeRule(row map[string]interface{}) (model.Rule, error) {

	var rule model.Rule
	var err error
	rule.RuleId = client.StringValue(row["rule_id"])
	rule.OrgId = client.StringValue(row["organization_id"])
	rule.SmartCode = client.StringValue(row["smart_code"])
	rule.Title = client.StringValue(row["title"])
	rule.Owner = client.StringValue(row["owner"])
	rule.Status = model.RuleStatus(client.StringValue(row["status"]))
	rule.ParentRuleId = client.StringValue(row["parent_rule_id"])
	rule.CreatedBy = client.StringValue(row["created_by"])
	if rule.Tags, err = client.StringArrayValue(row["tags"]); err != nil {
		return rule, err
	}
	if rule.Version, err = client.IntValue(row["version"]); err != nil {
		return rule, err
	}
	if rule.MinorVersion, err = client.IntValue(row["minor_version"]); err != nil {
		return rule, err
	}
	if rule.SchemaVersion, err = client.IntValue(row["schema_version"]); err != nil {
		return rule, err
	}
	if rule.RequiresApproval, err = client.BoolValue(row["requires_approval"]); err != nil {
		return rule, err
	}
	if err = client.JSONValue(row["rule_payload"], &rule.Payload); err != nil {
		return rule, err
	}
	if err = client.JSONValue(row["ai_metadata"], &rule.AIMetadata); err != nil {
		return rule, err
	}
	if err = client.JSONValue(row["approvals"], &rule.Approvals); err != nil {
		return rule, err
	}
	if len(rule.Approvals) == 0 {
		rule.Approvals = nil
	}
	if rule.CreatedAt, err = client.TimeValue(row["created_at"]); err != nil {
		return rule, err
	}
	if rule.UpdatedAt, err = client.TimeValue(row["updated_at"]); err != nil {
		return rule, err
	}
	return rule, nil
}

func decodeDeployment(row map[string]interface{}) (model.DeploymentRecord, error) {

	var record model.DeploymentRecord
	var err error
	record.DeploymentId = client.StringValue(row["deployment_id"])
	record.OrgId = client.StringValue(row["organization_id"])
	record.RuleId = client.StringValue(row["rule_id"])
	record.SmartCode = client.StringValue(row["smart_code"])
	record.Status = model.DeploymentStatus(client.StringValue(row["status"]))
	record.CreatedBy = client.StringValue(row["created_by"])
	if err = client.JSONValue(row["scope"], &record.Scope); err != nil {
		return record, err
	}
	if err = client.JSONValue(row["approvals"], &record.Approvals); err != nil {
		return record, err
	}
	if len(record.Approvals) == 0 {
		record.Approvals = nil
	}
	if err = client.JSONValue(row["checklist"], &record.Checklist); err != nil {
		return record, err
	}
	if record.EffectiveFrom, err = client.TimeValue(row["effective_from"]); err != nil {
		return record, err
	}
	if record.EffectiveTo, err = client.NullTimeValue(row["effective_to"]); err != nil {
		return record, err
	}
	if record.CreatedAt, err = client.TimeValue(row["created_at"]); err != nil {
		return record, err
	}
	if record.CompletedAt, err = client.NullTimeValue(row["completed_at"]); err != nil {
		return record, err
	}
	if record.RolledBackAt, err = client.NullTimeValue(row["rolled_back_at"]); err != nil {
		return record, err
	}
	return record, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

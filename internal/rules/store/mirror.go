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
	"context"
	"fmt"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	"github.com/wso2/ucr-orchestrator/internal/system/universal"
)

// MirrorRule records rule as a ucr_rule entity of the universal data store. The entity itself only
// identifies the rule; payload, version, tags and lifecycle status are dynamic fields because they
// change after creation.
func MirrorRule(ctx context.Context, tx Store, orgID string, rule model.Rule) error {

	ledger := tx.Ledger()
	entity, err := ledger.CreateEntity(ctx, orgID, universal.EntityRequest{
		EntityType: constants.UniversalEntityTypeRule,
		EntityName: rule.Title,
		EntityCode: rule.RuleId,
		SmartCode:  rule.SmartCode,
		Metadata: map[string]interface{}{
			"version":        rule.VersionLabel(),
			"parent_rule_id": rule.ParentRuleId,
		},
	})
	if err != nil {
		return err
	}
	return setMirrorFields(ctx, ledger, orgID, entity.EntityId, mirrorFields(rule))
}

// RefreshMirror rewrites the dynamic fields of the entity mirroring rule. Rules created before the
// mirror existed get one now.
func RefreshMirror(ctx context.Context, tx Store, orgID string, rule model.Rule) error {

	return syncMirror(ctx, tx, orgID, rule, mirrorFields(rule))
}

// SyncMirrorStatus records a lifecycle transition of rule on its mirror.
func SyncMirrorStatus(ctx context.Context, tx Store, orgID string, rule model.Rule) error {

	return syncMirror(ctx, tx, orgID, rule, []mirrorField{
		{constants.UniversalDynamicFieldStatus, string(rule.Status)},
	})
}

type mirrorField struct {
	name  string
	value interface{}
}

func mirrorFields(rule model.Rule) []mirrorField {
	return []mirrorField{
		{constants.UniversalDynamicFieldPayload, rule.Payload.ToMap()},
		{constants.UniversalDynamicFieldVersion, rule.VersionLabel()},
		{constants.UniversalDynamicFieldTags, append([]string{}, rule.Tags...)},
		{constants.UniversalDynamicFieldStatus, string(rule.Status)},
	}
}

func syncMirror(ctx context.Context, tx Store, orgID string, rule model.Rule, fields []mirrorField) error {

	ledger := tx.Ledger()
	rows, err := ledger.Query(ctx, orgID, constants.UniversalTableEntities, map[string]interface{}{
		"entity_type": constants.UniversalEntityTypeRule,
		"entity_code": rule.RuleId,
	})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return MirrorRule(ctx, tx, orgID, rule)
	}
	return setMirrorFields(ctx, ledger, orgID, fmt.Sprint(rows[0]["entity_id"]), fields)
}

func setMirrorFields(ctx context.Context, ledger universal.ClientInterface, orgID, entityID string,
	fields []mirrorField) error {

	for _, field := range fields {
		if err := ledger.SetDynamicField(ctx, orgID, entityID, field.name, field.value); err != nil {
			return err
		}
	}
	return nil
}

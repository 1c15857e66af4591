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
	"net/http"
	"strings"
	"time"

	"github.com/wso2/ucr-orchestrator/internal/rules/audit"
	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/rules/store"
	"github.com/wso2/ucr-orchestrator/internal/rules/validator"
	"github.com/wso2/ucr-orchestrator/internal/rules/versioning"
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	ucrcontext "github.com/wso2/ucr-orchestrator/internal/system/context"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

func (rs *RuleService) ListTemplates(industry, module string) []model.Template {
	return rs.library.ListTemplates(industry, module)
}

// CloneTemplate creates a draft from a catalog template. Request fields override the template's.
func (rs *RuleService) CloneTemplate(ctx context.Context, orgID, templateID string,
	req model.CloneTemplateRequest) (model.Rule, error) {

	rule, err := rs.library.Clone(templateID, strings.TrimSpace(req.SmartCode), orgID)
	if err != nil {
		return model.Rule{}, err
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		rule.Title = title
	}
	if len(req.Tags) > 0 {
		rule.Tags = model.NormalizeTags(append(rule.Tags, req.Tags...))
	}
	rule.Owner = req.Owner
	rule.RequiresApproval = rs.conf.RequiresApprovalByDefault()
	rule.CreatedBy = ucrcontext.GetActor(ctx).UserID
	rule.CreatedAt = rs.now()
	rule.UpdatedAt = rule.CreatedAt

	return rs.persistNew(ctx, orgID, rule, log.ActionCloneTemplate, map[string]interface{}{
		"template_id": templateID,
	})
}

// ValidateDraft checks an unsaved rule, including its version against the active one. Nothing is
// recorded.
func (rs *RuleService) ValidateDraft(ctx context.Context, orgID string, req model.RuleAPIRequest) (model.ValidationResult, error) {

	draft := model.Rule{
		OrgId:         orgID,
		SmartCode:     strings.TrimSpace(req.SmartCode),
		Title:         req.Title,
		Tags:          model.NormalizeTags(req.Tags),
		Status:        model.StatusDraft,
		Version:       req.Version,
		SchemaVersion: req.SchemaVersion,
		Payload:       req.Payload,
	}
	if draft.Version == 0 {
		draft.Version = 1
	}
	if draft.SchemaVersion == 0 {
		draft.SchemaVersion = constants.DefaultSchemaVersion
	}
	result, err := validator.NewValidator(rs.store).Validate(ctx, draft, orgID)
	if err != nil {
		return model.ValidationResult{}, err
	}
	rs.metrics.ObserveValidation(result.Ok)
	return result, nil
}

// ValidateRule validates a stored rule and records the outcome on its audit trail.
func (rs *RuleService) ValidateRule(ctx context.Context, orgID, ruleID string) (model.ValidationResult, error) {

	rule, err := rs.store.GetRule(ctx, orgID, ruleID)
	if err != nil {
		return model.ValidationResult{}, err
	}
	var result model.ValidationResult
	trail := &audit.Trail{}
	err = rs.store.RunInTransaction(ctx, store.LockKey(orgID, rule.SmartCode), func(tx store.Store) error {
		rule, err := tx.GetRule(ctx, orgID, ruleID)
		if err != nil {
			return err
		}
		result, err = validator.NewValidator(tx).Validate(ctx, rule, orgID)
		if err != nil {
			return err
		}
		return trail.Append(ctx, tx, orgID, rule, log.ActionValidateRule, rule.Status, rule.Status,
			map[string]interface{}{
				"ok":       result.Ok,
				"errors":   result.Errors,
				"warnings": result.Warnings,
			})
	})
	if err != nil {
		return model.ValidationResult{}, err
	}
	rs.metrics.ObserveValidation(result.Ok)
	rs.writer.Emit(ctx, trail)
	return result, nil
}

// Simulate runs scenarios against either an inline payload or a stored rule.
func (rs *RuleService) Simulate(ctx context.Context, orgID string, req model.SimulateRequest) (model.SimulationResult, error) {

	if (req.Payload == nil) == (req.RuleId == "") {
		return model.SimulationResult{}, errors.NewClientError(errors.ErrorMessage{
			Code:        errors.INVALID_SIMULATION.Code,
			Message:     errors.INVALID_SIMULATION.Message,
			Description: "Provide exactly one of rule_id and rule_payload.",
		}, http.StatusBadRequest)
	}
	if len(req.Scenarios) == 0 {
		return model.SimulationResult{}, errors.NewClientError(errors.ErrorMessage{
			Code:        errors.INVALID_SIMULATION.Code,
			Message:     errors.INVALID_SIMULATION.Message,
			Description: "At least one scenario is required.",
		}, http.StatusBadRequest)
	}

	var payload model.RulePayload
	if req.Payload != nil {
		payload = req.Payload.Clone()
	} else {
		rule, err := rs.store.GetRule(ctx, orgID, req.RuleId)
		if err != nil {
			return model.SimulationResult{}, err
		}
		payload = rule.Payload
	}

	start := time.Now()
	result, err := rs.engine.Simulate(ctx, payload, req.Scenarios)
	if err != nil {
		return model.SimulationResult{}, err
	}
	rs.metrics.ObserveSimulation(result.Passed, result.Failed, time.Since(start))
	return result, nil
}

// BumpVersion creates the draft that follows ruleID. The base rule is left untouched.
func (rs *RuleService) BumpVersion(ctx context.Context, orgID, ruleID string,
	req model.VersionBumpRequest) (bumped model.VersionBumpResult, err error) {

	start := time.Now()
	defer func() { rs.metrics.ObserveTransition(log.ActionVersionBump, start, err) }()

	if !req.ChangeType.IsValid() {
		return model.VersionBumpResult{}, badRequest("change_type must be major or minor.")
	}
	base, err := rs.store.GetRule(ctx, orgID, ruleID)
	if err != nil {
		return model.VersionBumpResult{}, err
	}

	trail := &audit.Trail{}
	err = rs.store.RunInTransaction(ctx, store.LockKey(orgID, base.SmartCode), func(tx store.Store) error {
		base, err := tx.GetRule(ctx, orgID, ruleID)
		if err != nil {
			return err
		}
		family, err := tx.ListVersions(ctx, orgID, base.SmartCode)
		if err != nil {
			return err
		}
		version := versioning.NextVersion(family, base, req.ChangeType)
		next := versioning.NewRevision(base, version, ucrcontext.GetActor(ctx).UserID, rs.now())
		if err := tx.InsertRule(ctx, orgID, next); err != nil {
			return err
		}
		if err := store.MirrorRule(ctx, tx, orgID, next); err != nil {
			return err
		}
		bumped = model.VersionBumpResult{
			NewRuleId: next.RuleId,
			NewVersion: model.RuleVersion{
				Version:      next.Version,
				MinorVersion: next.MinorVersion,
				Label:        next.VersionLabel(),
			},
		}
		var from model.RuleStatus
		return trail.Append(ctx, tx, orgID, next, log.ActionVersionBump, from, model.StatusDraft,
			map[string]interface{}{
				"base_rule_id": base.RuleId,
				"base_version": base.VersionLabel(),
				"change_type":  string(req.ChangeType),
				"notes":        req.Notes,
			})
	})
	if err != nil {
		return model.VersionBumpResult{}, err
	}
	rs.writer.Emit(ctx, trail)
	return bumped, nil
}

// Diff compares the payloads of two rules of the organization.
func (rs *RuleService) Diff(ctx context.Context, orgID, baseRuleID, newRuleID string) (model.DiffResult, error) {

	if baseRuleID == "" || newRuleID == "" {
		return model.DiffResult{}, badRequest("Both base and new rule ids are required.")
	}
	base, err := rs.store.GetRule(ctx, orgID, baseRuleID)
	if err != nil {
		return model.DiffResult{}, err
	}
	next, err := rs.store.GetRule(ctx, orgID, newRuleID)
	if err != nil {
		return model.DiffResult{}, err
	}
	result := versioning.Diff(base.Payload, next.Payload)
	result.BaseRuleId = base.RuleId
	result.NewRuleId = next.RuleId
	return result, nil
}

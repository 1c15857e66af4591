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
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wso2/ucr-orchestrator/internal/rules/audit"
	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/rules/simulation"
	"github.com/wso2/ucr-orchestrator/internal/rules/store"
	"github.com/wso2/ucr-orchestrator/internal/rules/templates"
	"github.com/wso2/ucr-orchestrator/internal/rules/validator"
	"github.com/wso2/ucr-orchestrator/internal/system/config"
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	ucrcontext "github.com/wso2/ucr-orchestrator/internal/system/context"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
	"github.com/wso2/ucr-orchestrator/internal/system/metrics"
	"github.com/wso2/ucr-orchestrator/internal/system/pagination"
)

// RuleServiceInterface covers rule authoring: everything except lifecycle transitions.
type RuleServiceInterface interface {
	CreateRule(ctx context.Context, orgID string, req model.RuleAPIRequest) (model.Rule, error)
	GetRule(ctx context.Context, orgID, ruleID string) (model.Rule, error)
	GetRuleBySmartCode(ctx context.Context, orgID, smartCode string) (model.Rule, error)
	ListRules(ctx context.Context, orgID string, filter model.RuleFilter, cursor string) (model.RuleListResponse, error)
	UpdateRule(ctx context.Context, orgID, ruleID string, req model.RuleUpdateRequest) (model.Rule, error)

	ListTemplates(industry, module string) []model.Template
	CloneTemplate(ctx context.Context, orgID, templateID string, req model.CloneTemplateRequest) (model.Rule, error)

	ValidateDraft(ctx context.Context, orgID string, req model.RuleAPIRequest) (model.ValidationResult, error)
	ValidateRule(ctx context.Context, orgID, ruleID string) (model.ValidationResult, error)
	Simulate(ctx context.Context, orgID string, req model.SimulateRequest) (model.SimulationResult, error)

	BumpVersion(ctx context.Context, orgID, ruleID string, req model.VersionBumpRequest) (model.VersionBumpResult, error)
	Diff(ctx context.Context, orgID, baseRuleID, newRuleID string) (model.DiffResult, error)

	ListDeployments(ctx context.Context, orgID, ruleID string) ([]model.DeploymentRecord, error)
	ListAudit(ctx context.Context, orgID, ruleID string) ([]model.AuditEvent, error)
}

type RuleService struct {
	store   store.Store
	library *templates.Library
	engine  *simulation.Engine
	writer  *audit.Writer
	metrics *metrics.Collector
	conf    config.OrchestratorConfig
	now     func() time.Time
}

func NewRuleService(s store.Store, library *templates.Library, engine *simulation.Engine, writer *audit.Writer,
	collector *metrics.Collector, conf config.OrchestratorConfig) *RuleService {

	if writer == nil {
		writer = audit.NewWriter(nil, collector)
	}
	return &RuleService{
		store:   s,
		library: library,
		engine:  engine,
		writer:  writer,
		metrics: collector,
		conf:    conf,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

var _ RuleServiceInterface = (*RuleService)(nil)

// CreateRule validates and stores a new draft. It fails with a conflict while the smart code has an
// active rule; later versions of an active family are created with BumpVersion.
func (rs *RuleService) CreateRule(ctx context.Context, orgID string, req model.RuleAPIRequest) (model.Rule, error) {

	now := rs.now()
	rule := model.Rule{
		RuleId:           uuid.New().String(),
		OrgId:            orgID,
		SmartCode:        strings.TrimSpace(req.SmartCode),
		Title:            strings.TrimSpace(req.Title),
		Tags:             model.NormalizeTags(req.Tags),
		Owner:            req.Owner,
		Status:           model.StatusDraft,
		Version:          req.Version,
		SchemaVersion:    req.SchemaVersion,
		Payload:          req.Payload.Clone(),
		AIMetadata:       model.CopyMap(req.AIMetadata),
		RequiresApproval: rs.conf.RequiresApprovalByDefault(),
		CreatedBy:        ucrcontext.GetActor(ctx).UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if rule.Version == 0 {
		rule.Version = 1
	}
	if rule.SchemaVersion == 0 {
		rule.SchemaVersion = constants.DefaultSchemaVersion
	}
	if req.RequiresApproval != nil {
		rule.RequiresApproval = *req.RequiresApproval
	}
	return rs.persistNew(ctx, orgID, rule, log.ActionCreateRule, nil)
}

// persistNew validates the shape of rule and stores it, with its universal mirror and audit event,
// in one transaction.
func (rs *RuleService) persistNew(ctx context.Context, orgID string, rule model.Rule, action string,
	metadata map[string]interface{}) (created model.Rule, err error) {

	start := time.Now()
	defer func() { rs.metrics.ObserveTransition(action, start, err) }()

	// The store rejects any new rule while the smart code is active, so only the shape is checked here.
	result, err := validator.NewValidator(nil).Validate(ctx, rule, orgID)
	if err != nil {
		return model.Rule{}, err
	}
	rs.metrics.ObserveValidation(result.Ok)
	if !result.Ok {
		return model.Rule{}, validationFailed(result)
	}

	trail := &audit.Trail{}
	err = rs.store.RunInTransaction(ctx, store.LockKey(orgID, rule.SmartCode), func(tx store.Store) error {
		if err := tx.CreateRule(ctx, orgID, rule); err != nil {
			return err
		}
		if err := store.MirrorRule(ctx, tx, orgID, rule); err != nil {
			return err
		}
		if len(result.Warnings) > 0 {
			if metadata == nil {
				metadata = map[string]interface{}{}
			}
			metadata["warnings"] = result.Warnings
		}
		return trail.Append(ctx, tx, orgID, rule, action, "", model.StatusDraft, metadata)
	})
	if err != nil {
		return model.Rule{}, err
	}
	rs.writer.Emit(ctx, trail)
	log.GetLogger().Info(fmt.Sprintf("Rule %s created for %s", rule.RuleId, rule.SmartCode), log.Org(orgID))
	return rule, nil
}

func (rs *RuleService) GetRule(ctx context.Context, orgID, ruleID string) (model.Rule, error) {

	return rs.store.GetRule(ctx, orgID, ruleID)
}

// GetRuleBySmartCode returns the active rule of the smart code, or its newest revision when none is
// active.
func (rs *RuleService) GetRuleBySmartCode(ctx context.Context, orgID, smartCode string) (model.Rule, error) {

	active, err := rs.store.GetActiveRule(ctx, orgID, smartCode)
	if err != nil {
		return model.Rule{}, err
	}
	if active != nil {
		return *active, nil
	}
	family, err := rs.store.ListVersions(ctx, orgID, smartCode)
	if err != nil {
		return model.Rule{}, err
	}
	if len(family) == 0 {
		return model.Rule{}, errors.NewClientError(errors.ErrorMessage{
			Code:        errors.RULE_NOT_FOUND.Code,
			Message:     errors.RULE_NOT_FOUND.Message,
			Description: fmt.Sprintf("No rule with smart code %s in the organization.", smartCode),
		}, http.StatusNotFound)
	}
	return family[0], nil
}

// ListRules returns one page of rules in creation order. NextCursor is empty on the last page.
func (rs *RuleService) ListRules(ctx context.Context, orgID string, filter model.RuleFilter,
	cursor string) (model.RuleListResponse, error) {

	if filter.Status != "" && !filter.Status.IsValid() {
		return model.RuleListResponse{}, badRequest(fmt.Sprintf("Unknown rule status %q.", filter.Status))
	}
	after, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return model.RuleListResponse{}, errors.NewClientError(errors.ErrorMessage{
			Code:        errors.INVALID_CURSOR.Code,
			Message:     errors.INVALID_CURSOR.Message,
			Description: err.Error(),
		}, http.StatusBadRequest)
	}
	if after != nil {
		filter.After = &model.RuleCursor{CreatedAt: after.CreatedAt, RuleId: after.Id}
	}
	if filter.Limit <= 0 {
		filter.Limit = constants.DefaultRuleListLimit
	}
	if filter.Limit > constants.MaxRuleListLimit {
		filter.Limit = constants.MaxRuleListLimit
	}
	pageSize := filter.Limit
	filter.Limit = pageSize + 1

	rules, err := rs.store.ListRules(ctx, orgID, filter)
	if err != nil {
		return model.RuleListResponse{}, err
	}
	response := model.RuleListResponse{Rules: rules}
	if len(rules) > pageSize {
		response.Rules = rules[:pageSize]
		last := response.Rules[pageSize-1]
		response.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, Id: last.RuleId})
	}
	if response.Rules == nil {
		response.Rules = []model.Rule{}
	}
	return response, nil
}

// UpdateRule applies a partial update to a draft. Rules past draft are changed through a version bump.
func (rs *RuleService) UpdateRule(ctx context.Context, orgID, ruleID string,
	req model.RuleUpdateRequest) (updated model.Rule, err error) {

	start := time.Now()
	defer func() { rs.metrics.ObserveTransition(log.ActionUpdateRule, start, err) }()

	existing, err := rs.store.GetRule(ctx, orgID, ruleID)
	if err != nil {
		return model.Rule{}, err
	}
	trail := &audit.Trail{}
	err = rs.store.RunInTransaction(ctx, store.LockKey(orgID, existing.SmartCode), func(tx store.Store) error {

		rule, err := tx.GetRule(ctx, orgID, ruleID)
		if err != nil {
			return err
		}
		if rule.Status != model.StatusDraft {
			return errors.NewClientError(errors.ErrorMessage{
				Code:    errors.INVALID_PATCH.Code,
				Message: errors.INVALID_PATCH.Message,
				Description: fmt.Sprintf("Rule %s is %s; only drafts can be edited. Bump the version instead.",
					ruleID, rule.Status),
			}, http.StatusPreconditionFailed)
		}

		changed := applyUpdate(&rule, req)
		result, err := validator.NewValidator(nil).Validate(ctx, rule, orgID)
		if err != nil {
			return err
		}
		rs.metrics.ObserveValidation(result.Ok)
		if !result.Ok {
			return validationFailed(result)
		}
		rule.UpdatedAt = rs.now()
		if err := tx.UpdateRule(ctx, orgID, rule); err != nil {
			return err
		}
		if err := store.RefreshMirror(ctx, tx, orgID, rule); err != nil {
			return err
		}
		updated = rule
		return trail.Append(ctx, tx, orgID, rule, log.ActionUpdateRule, rule.Status, rule.Status,
			map[string]interface{}{"fields": changed})
	})
	if err != nil {
		return model.Rule{}, err
	}
	rs.writer.Emit(ctx, trail)
	return updated, nil
}

func applyUpdate(rule *model.Rule, req model.RuleUpdateRequest) []string {

	var changed []string
	if req.Title != nil {
		rule.Title = strings.TrimSpace(*req.Title)
		changed = append(changed, "title")
	}
	if req.Tags != nil {
		rule.Tags = model.NormalizeTags(req.Tags)
		changed = append(changed, "tags")
	}
	if req.Owner != nil {
		rule.Owner = *req.Owner
		changed = append(changed, "owner")
	}
	if req.SchemaVersion != nil {
		rule.SchemaVersion = *req.SchemaVersion
		changed = append(changed, "schema_version")
	}
	if req.Payload != nil {
		rule.Payload = req.Payload.Clone()
		changed = append(changed, "rule_payload")
	}
	if req.AIMetadata != nil {
		rule.AIMetadata = model.CopyMap(req.AIMetadata)
		changed = append(changed, "ai_metadata")
	}
	return changed
}

func (rs *RuleService) ListDeployments(ctx context.Context, orgID, ruleID string) ([]model.DeploymentRecord, error) {

	if _, err := rs.store.GetRule(ctx, orgID, ruleID); err != nil {
		return nil, err
	}
	records, err := rs.store.ListDeployments(ctx, orgID, ruleID)
	if records == nil && err == nil {
		records = []model.DeploymentRecord{}
	}
	return records, err
}

func (rs *RuleService) ListAudit(ctx context.Context, orgID, ruleID string) ([]model.AuditEvent, error) {

	if _, err := rs.store.GetRule(ctx, orgID, ruleID); err != nil {
		return nil, err
	}
	trail, err := rs.store.ListAudit(ctx, orgID, ruleID)
	if trail == nil && err == nil {
		trail = []model.AuditEvent{}
	}
	return trail, err
}

func validationFailed(result model.ValidationResult) error {
	return errors.NewClientErrorWithDetails(errors.ErrorMessage{
		Code:        errors.VALIDATION_FAILED.Code,
		Message:     errors.VALIDATION_FAILED.Message,
		Description: strings.Join(result.Errors, "; "),
	}, http.StatusBadRequest, result.Errors)
}

func badRequest(description string) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:        errors.BAD_REQUEST.Code,
		Message:     errors.BAD_REQUEST.Message,
		Description: description,
	}, http.StatusBadRequest)
}

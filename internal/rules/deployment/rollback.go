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
package deployment

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wso2/ucr-orchestrator/internal/rules/audit"
	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/rules/store"
	"github.com/wso2/ucr-orchestrator/internal/rules/versioning"
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	ucrcontext "github.com/wso2/ucr-orchestrator/internal/system/context"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
	"github.com/wso2/ucr-orchestrator/internal/system/universal"
)

// Rollback restores the payload of a version that was active before. The restored payload becomes a
// new active revision with the next free major version; the currently active rule moves to
// rolled_back together with its deployment records.
func (o *Orchestrator) Rollback(ctx context.Context, orgID string, req model.RollbackRequest) (result model.RollbackResult, err error) {

	start := time.Now()
	defer func() { o.metrics.ObserveTransition(log.ActionRollbackRule, start, err) }()

	if req.ToVersion < 1 {
		return result, badRequest("to_version must be at least 1.")
	}
	smartCode := strings.TrimSpace(req.SmartCode)
	if req.RuleId != "" {
		rule, err := o.store.GetRule(ctx, orgID, req.RuleId)
		if err != nil {
			return result, err
		}
		if smartCode != "" && smartCode != rule.SmartCode {
			return result, badRequest("rule_id and smart_code refer to different rules.")
		}
		smartCode = rule.SmartCode
	}
	if smartCode == "" {
		return result, badRequest("Either rule_id or smart_code is required.")
	}

	trail := &audit.Trail{}
	err = o.store.RunInTransaction(ctx, store.LockKey(orgID, smartCode), func(tx store.Store) error {

		family, err := tx.ListVersions(ctx, orgID, smartCode)
		if err != nil {
			return err
		}
		target, lastDeployment, found, err := restorableVersion(ctx, tx, orgID, family, req.ToVersion)
		if err != nil {
			return err
		}
		if !found {
			return versionNotFound(smartCode, req.ToVersion)
		}
		active, err := tx.GetActiveRule(ctx, orgID, smartCode)
		if err != nil {
			return err
		}
		if active != nil && active.RuleId == target.RuleId {
			return alreadyActive(target)
		}

		now := o.now()
		actor := ucrcontext.GetActor(ctx).UserID
		if active != nil {
			rolledBack := *active
			if err := o.setStatus(ctx, tx, trail, orgID, &rolledBack, model.StatusRolledBack, log.ActionRollbackRule,
				map[string]interface{}{
					"to_version":            req.ToVersion,
					"restored_from_rule_id": target.RuleId,
					"reason":                req.Reason,
				}); err != nil {
				return err
			}
			if err := o.markRolledBack(ctx, tx, orgID, rolledBack.RuleId, now); err != nil {
				return err
			}
			result.RolledBackRuleId = rolledBack.RuleId
		}

		restored := versioning.NewRevision(target, versioning.NextVersion(family, target, model.ChangeMajor), actor, now)
		restored.Status = model.StatusActive
		restored.Approvals = append([]model.Approval(nil), lastDeployment.Approvals...)
		if err := o.validate(ctx, tx, orgID, restored); err != nil {
			return err
		}
		if err := tx.InsertRule(ctx, orgID, restored); err != nil {
			return err
		}
		if err := store.MirrorRule(ctx, tx, orgID, restored); err != nil {
			return err
		}
		var from model.RuleStatus
		if err := trail.Append(ctx, tx, orgID, restored, log.ActionRestoreRule, from, model.StatusActive,
			map[string]interface{}{
				"restored_from_rule_id": target.RuleId,
				"restored_from_version": target.VersionLabel(),
				"rolled_back_rule_id":   result.RolledBackRuleId,
				"reason":                req.Reason,
			}); err != nil {
			return err
		}

		record := model.DeploymentRecord{
			DeploymentId:  uuid.New().String(),
			OrgId:         orgID,
			RuleId:        restored.RuleId,
			SmartCode:     restored.SmartCode,
			Scope:         lastDeployment.Scope,
			EffectiveFrom: now,
			Approvals:     restored.Approvals,
			Checklist:     lastDeployment.Checklist,
			Status:        model.DeploymentCompleted,
			CreatedBy:     actor,
			CreatedAt:     now,
			CompletedAt:   &now,
		}
		if err := tx.CreateDeployment(ctx, orgID, record.Clone()); err != nil {
			return err
		}

		if _, err := tx.Ledger().CreateTransaction(ctx, orgID, universal.TransactionRequest{
			TransactionType: constants.UniversalTxnTypeRollback,
			SmartCode:       constants.UniversalTxnSmartCodeRollback,
			Metadata: map[string]interface{}{
				"rule_smart_code":       smartCode,
				"rule_id":               restored.RuleId,
				"rule_version":          restored.VersionLabel(),
				"restored_from_rule_id": target.RuleId,
				"rolled_back_rule_id":   result.RolledBackRuleId,
				"deployment_id":         record.DeploymentId,
				"reason":                req.Reason,
			},
		}); err != nil {
			return err
		}

		result.Rule = restored
		result.RestoredFromRuleId = target.RuleId
		return nil
	})
	if err != nil {
		return model.RollbackResult{}, err
	}
	o.writer.Emit(ctx, trail)
	log.GetLogger().Info(fmt.Sprintf("Rolled back %s to version %d as %s", smartCode, req.ToVersion,
		result.Rule.VersionLabel()), log.Org(orgID), log.Rule(result.Rule.RuleId))
	return result, nil
}

// restorableVersion finds the newest revision with the given major version that completed a
// deployment at some point, along with that deployment.
func restorableVersion(ctx context.Context, tx store.Store, orgID string, family []model.Rule,
	version int) (model.Rule, model.DeploymentRecord, bool, error) {

	for _, rule := range family {
		if rule.Version != version {
			continue
		}
		records, err := tx.ListDeployments(ctx, orgID, rule.RuleId)
		if err != nil {
			return model.Rule{}, model.DeploymentRecord{}, false, err
		}
		var last *model.DeploymentRecord
		for i := range records {
			record := records[i]
			if record.Status == model.DeploymentPending || record.CompletedAt == nil {
				continue
			}
			if last == nil || record.CompletedAt.After(*last.CompletedAt) {
				last = &record
			}
		}
		if last != nil {
			return rule, *last, true, nil
		}
	}
	return model.Rule{}, model.DeploymentRecord{}, false, nil
}

func (o *Orchestrator) markRolledBack(ctx context.Context, tx store.Store, orgID, ruleID string, at time.Time) error {

	records, err := tx.ListDeployments(ctx, orgID, ruleID)
	if err != nil {
		return err
	}
	for _, record := range records {
		if record.Status != model.DeploymentCompleted {
			continue
		}
		rolledBackAt := at
		record.Status = model.DeploymentRolledBack
		record.RolledBackAt = &rolledBackAt
		if err := tx.UpdateDeployment(ctx, orgID, record); err != nil {
			return err
		}
	}
	return nil
}

func alreadyActive(rule model.Rule) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:        errors.INVALID_TRANSITION.Code,
		Message:     errors.INVALID_TRANSITION.Message,
		Description: fmt.Sprintf("Version %s of %s is already active.", rule.VersionLabel(), rule.SmartCode),
	}, http.StatusPreconditionFailed)
}

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
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	ucrcontext "github.com/wso2/ucr-orchestrator/internal/system/context"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
	"github.com/wso2/ucr-orchestrator/internal/system/universal"
)

// Deploy moves an approved rule to deploying and, unless it is scheduled for later, activates it in
// the same transaction, superseding the previously active rule of its smart code. Retrying with the
// same attempt id returns the outcome of the first attempt.
func (o *Orchestrator) Deploy(ctx context.Context, orgID, ruleID string, req model.DeployRequest) (result model.DeployResult, err error) {

	start := time.Now()
	defer func() { o.metrics.ObserveTransition(log.ActionDeployRule, start, err) }()

	if missing := req.Checklist.Missing(); len(missing) > 0 {
		return result, checklistIncomplete(missing)
	}
	now := o.now()
	effectiveFrom, effectiveTo, err := deploymentWindow(req, now)
	if err != nil {
		return result, err
	}
	scope, err := normalizeScope(req.Scope)
	if err != nil {
		return result, err
	}
	attemptID := strings.TrimSpace(req.AttemptId)
	if attemptID == "" {
		attemptID = uuid.New().String()
	}

	rule, err := o.store.GetRule(ctx, orgID, ruleID)
	if err != nil {
		return result, err
	}
	trail := &audit.Trail{}
	err = o.store.RunInTransaction(ctx, store.LockKey(orgID, rule.SmartCode), func(tx store.Store) error {

		existing, err := tx.GetDeployment(ctx, orgID, attemptID)
		if err == nil {
			if existing.RuleId != ruleID {
				return attemptConflict(attemptID, existing.RuleId)
			}
			current, err := tx.GetRule(ctx, orgID, ruleID)
			result = model.DeployResult{Rule: current, Deployment: existing}
			return err
		}
		if !errors.IsNotFound(err) {
			return err
		}

		current, err := tx.GetRule(ctx, orgID, ruleID)
		if err != nil {
			return err
		}
		switch current.Status {
		case model.StatusApproved:
		case model.StatusPendingApproval:
			return approvalRequired(current, len(current.Approvals), o.conf.MinApprovals)
		default:
			return invalidTransition(current, model.StatusDeploying)
		}

		active, err := tx.GetActiveRule(ctx, orgID, current.SmartCode)
		if err != nil {
			return err
		}
		if active != nil && !current.NewerThan(*active) {
			return smartCodeConflict(current, *active)
		}
		if err := o.validate(ctx, tx, orgID, current); err != nil {
			return err
		}

		record := model.DeploymentRecord{
			DeploymentId:  attemptID,
			OrgId:         orgID,
			RuleId:        current.RuleId,
			SmartCode:     current.SmartCode,
			Scope:         scope,
			EffectiveFrom: effectiveFrom,
			EffectiveTo:   effectiveTo,
			Approvals:     append([]model.Approval(nil), current.Approvals...),
			Checklist:     req.Checklist,
			Status:        model.DeploymentPending,
			CreatedBy:     ucrcontext.GetActor(ctx).UserID,
			CreatedAt:     now,
		}
		scheduled := effectiveFrom.After(now)
		metadata := map[string]interface{}{
			"deployment_id":  attemptID,
			"effective_from": effectiveFrom.Format(time.RFC3339Nano),
			"apps":           scope.Apps,
			"locations":      scope.Locations,
			"scheduled":      scheduled,
		}
		if effectiveTo != nil {
			metadata["effective_to"] = effectiveTo.Format(time.RFC3339Nano)
		}
		if err := o.setStatus(ctx, tx, trail, orgID, &current, model.StatusDeploying, log.ActionDeployRule,
			metadata); err != nil {
			return err
		}
		if err := tx.CreateDeployment(ctx, orgID, record); err != nil {
			return err
		}
		if scheduled {
			result = model.DeployResult{Rule: current, Deployment: record}
			return nil
		}
		result, err = o.activate(ctx, tx, trail, orgID, current, record, active)
		return err
	})
	if err != nil {
		return model.DeployResult{}, err
	}
	o.writer.Emit(ctx, trail)
	log.GetLogger().Info(fmt.Sprintf("Rule %s deployment %s is %s", ruleID, result.Deployment.DeploymentId,
		result.Deployment.Status), log.Org(orgID), log.SmartCode(rule.SmartCode))
	return result, nil
}

// ActivateScheduled completes a pending deployment whose effective_from has passed. A deployment that
// is no longer pending is returned unchanged. When the rule no longer passes the activation gates the
// attempt is ended: the record is closed as failed, the rule returns to approved and the gate error is
// returned. The caller has to deploy again once the cause is corrected.
func (o *Orchestrator) ActivateScheduled(ctx context.Context, orgID, deploymentID string) (result model.DeployResult, err error) {

	start := time.Now()
	defer func() { o.metrics.ObserveTransition(log.ActionActivateRule, start, err) }()

	record, err := o.store.GetDeployment(ctx, orgID, deploymentID)
	if err != nil {
		return result, err
	}
	var gateErr error
	trail := &audit.Trail{}
	err = o.store.RunInTransaction(ctx, store.LockKey(orgID, record.SmartCode), func(tx store.Store) error {

		record, err := tx.GetDeployment(ctx, orgID, deploymentID)
		if err != nil {
			return err
		}
		rule, err := tx.GetRule(ctx, orgID, record.RuleId)
		if err != nil {
			return err
		}
		if record.Status != model.DeploymentPending {
			result = model.DeployResult{Rule: rule, Deployment: record}
			return nil
		}
		if o.now().Before(record.EffectiveFrom) {
			return notDue(record)
		}
		active, err := o.checkActivation(ctx, tx, orgID, rule)
		if err != nil {
			if !endsAttempt(err) {
				return err
			}
			gateErr = err
			result, err = o.abortScheduled(ctx, tx, trail, orgID, rule, record, gateErr)
			return err
		}
		result, err = o.activate(ctx, tx, trail, orgID, rule, record, active)
		return err
	})
	if err != nil {
		return model.DeployResult{}, err
	}
	o.writer.Emit(ctx, trail)
	if gateErr != nil {
		return result, gateErr
	}
	return result, nil
}

// ActivateDue completes every due scheduled deployment, across organizations, and reports how many
// were activated. Attempts that fail their gates are ended by ActivateScheduled and are not selected
// again; only storage failures leave a deployment pending for the next call.
func (o *Orchestrator) ActivateDue(ctx context.Context, limit int) (int, error) {

	if o.due == nil {
		return 0, nil
	}
	records, err := o.due.ListDueDeployments(ctx, o.now(), limit)
	if err != nil {
		return 0, err
	}

	logger := log.GetLogger()
	ctx = ucrcontext.WithActor(ctx, ucrcontext.Actor{UserID: "system", UserName: "activation-worker"})
	activated := 0
	for _, record := range records {
		_, err := o.ActivateScheduled(ctx, record.OrgId, record.DeploymentId)
		o.metrics.ObserveActivation(err)
		if err != nil {
			logger.Warn(fmt.Sprintf("Scheduled deployment %s could not be activated", record.DeploymentId),
				log.Org(record.OrgId), log.Rule(record.RuleId), log.Error(err))
			continue
		}
		activated++
	}
	return activated, nil
}

// checkActivation re-checks a deploying rule right before activation and returns the rule it will
// supersede, if any.
func (o *Orchestrator) checkActivation(ctx context.Context, tx store.Store, orgID string,
	rule model.Rule) (*model.Rule, error) {

	if rule.Status != model.StatusDeploying {
		return nil, invalidTransition(rule, model.StatusActive)
	}
	active, err := tx.GetActiveRule(ctx, orgID, rule.SmartCode)
	if err != nil {
		return nil, err
	}
	if active != nil && !rule.NewerThan(*active) {
		return nil, smartCodeConflict(rule, *active)
	}
	if err := o.validate(ctx, tx, orgID, rule); err != nil {
		return nil, err
	}
	return active, nil
}

// endsAttempt reports whether a failed activation gate closes the deployment attempt. Storage errors
// do not; the attempt stays pending and is safe to retry.
func endsAttempt(err error) bool {
	switch errors.CategoryOf(err) {
	case errors.CategoryValidation, errors.CategoryConflict, errors.CategoryState:
		return true
	}
	return false
}

// abortScheduled closes record as failed inside the caller's transaction. A rule still deploying goes
// back to approved; either way exactly one audit event records the abort.
func (o *Orchestrator) abortScheduled(ctx context.Context, tx store.Store, trail *audit.Trail, orgID string,
	rule model.Rule, record model.DeploymentRecord, cause error) (model.DeployResult, error) {

	endedAt := o.now()
	record.Status = model.DeploymentFailed
	record.CompletedAt = &endedAt
	if err := tx.UpdateDeployment(ctx, orgID, record); err != nil {
		return model.DeployResult{}, err
	}

	metadata := map[string]interface{}{
		"deployment_id": record.DeploymentId,
		"error_code":    errors.CodeOf(cause),
		"error":         cause.Error(),
	}
	if rule.Status == model.StatusDeploying {
		if err := o.setStatus(ctx, tx, trail, orgID, &rule, model.StatusApproved, log.ActionAbortDeploy,
			metadata); err != nil {
			return model.DeployResult{}, err
		}
	} else if err := trail.Append(ctx, tx, orgID, rule, log.ActionAbortDeploy, rule.Status, rule.Status,
		metadata); err != nil {
		return model.DeployResult{}, err
	}
	log.GetLogger().Warn(fmt.Sprintf("Scheduled deployment %s of rule %s ended as failed", record.DeploymentId,
		rule.RuleId), log.Org(orgID), log.Error(cause))
	return model.DeployResult{Rule: rule, Deployment: record}, nil
}

// activate supersedes the current active rule, if any, activates rule and completes its deployment
// record. It runs inside the caller's transaction.
func (o *Orchestrator) activate(ctx context.Context, tx store.Store, trail *audit.Trail, orgID string,
	rule model.Rule, record model.DeploymentRecord, active *model.Rule) (model.DeployResult, error) {

	result := model.DeployResult{}
	if active != nil {
		superseded := *active
		if err := o.setStatus(ctx, tx, trail, orgID, &superseded, model.StatusSuperseded, log.ActionSupersedeRule,
			map[string]interface{}{
				"superseded_by":         rule.RuleId,
				"superseded_by_version": rule.VersionLabel(),
			}); err != nil {
			return result, err
		}
		result.SupersededRuleId = superseded.RuleId
	}

	metadata := map[string]interface{}{"deployment_id": record.DeploymentId}
	if result.SupersededRuleId != "" {
		metadata["superseded_rule_id"] = result.SupersededRuleId
	}
	if err := o.setStatus(ctx, tx, trail, orgID, &rule, model.StatusActive, log.ActionActivateRule,
		metadata); err != nil {
		return result, err
	}

	completedAt := o.now()
	record.Status = model.DeploymentCompleted
	record.CompletedAt = &completedAt
	if err := tx.UpdateDeployment(ctx, orgID, record); err != nil {
		return result, err
	}

	if _, err := tx.Ledger().CreateTransaction(ctx, orgID, universal.TransactionRequest{
		TransactionType: constants.UniversalTxnTypeDeployment,
		SmartCode:       constants.UniversalTxnSmartCodeDeploy,
		Metadata: map[string]interface{}{
			"rule_id":            rule.RuleId,
			"rule_smart_code":    rule.SmartCode,
			"rule_version":       rule.VersionLabel(),
			"deployment_id":      record.DeploymentId,
			"superseded_rule_id": result.SupersededRuleId,
			"apps":               record.Scope.Apps,
			"locations":          record.Scope.Locations,
			"effective_from":     record.EffectiveFrom.Format(time.RFC3339Nano),
		},
	}); err != nil {
		return result, err
	}

	result.Rule = rule
	result.Deployment = record
	return result, nil
}

func deploymentWindow(req model.DeployRequest, now time.Time) (time.Time, *time.Time, error) {

	effectiveFrom := now
	if req.EffectiveFrom != nil {
		effectiveFrom = req.EffectiveFrom.UTC().Truncate(time.Microsecond)
	}
	if req.EffectiveTo == nil {
		return effectiveFrom, nil, nil
	}
	effectiveTo := req.EffectiveTo.UTC().Truncate(time.Microsecond)
	if !effectiveTo.After(effectiveFrom) {
		return effectiveFrom, nil, invalidScope("effective_to must be after effective_from.")
	}
	if !effectiveTo.After(now) {
		return effectiveFrom, nil, invalidScope("effective_to is already in the past.")
	}
	return effectiveFrom, &effectiveTo, nil
}

// normalizeScope trims, deduplicates and sorts the scope lists. Empty lists mean every app or location.
func normalizeScope(scope model.Scope) (model.Scope, error) {

	for _, list := range [][]string{scope.Apps, scope.Locations} {
		for _, value := range list {
			if strings.TrimSpace(value) == "" {
				return scope, invalidScope("Scope entries must not be blank.")
			}
		}
	}
	out := model.Scope{
		Apps:      model.NormalizeTags(scope.Apps),
		Locations: model.NormalizeTags(scope.Locations),
		Segments:  model.CopyValue(scope.Segments),
	}
	return out, nil
}

func notDue(record model.DeploymentRecord) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:    errors.INVALID_TRANSITION.Code,
		Message: errors.INVALID_TRANSITION.Message,
		Description: fmt.Sprintf("Deployment %s is not due before %s.", record.DeploymentId,
			record.EffectiveFrom.Format(time.RFC3339)),
	}, http.StatusPreconditionFailed)
}

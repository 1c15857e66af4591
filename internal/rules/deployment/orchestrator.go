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
	"slices"
	"time"

	"github.com/wso2/ucr-orchestrator/internal/rules/audit"
	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/rules/store"
	"github.com/wso2/ucr-orchestrator/internal/rules/validator"
	"github.com/wso2/ucr-orchestrator/internal/system/authz"
	"github.com/wso2/ucr-orchestrator/internal/system/config"
	ucrcontext "github.com/wso2/ucr-orchestrator/internal/system/context"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
	"github.com/wso2/ucr-orchestrator/internal/system/metrics"
)

// OrchestratorInterface drives rules through their lifecycle. Every operation is scoped to orgID and
// runs single-flight per smart code.
type OrchestratorInterface interface {
	Submit(ctx context.Context, orgID, ruleID string, req model.SubmitRequest) (model.Rule, error)
	Approve(ctx context.Context, orgID, ruleID string, req model.ApproveRequest) (model.Rule, error)
	Reject(ctx context.Context, orgID, ruleID string, req model.RejectRequest) (model.Rule, error)
	Deploy(ctx context.Context, orgID, ruleID string, req model.DeployRequest) (model.DeployResult, error)
	ActivateScheduled(ctx context.Context, orgID, deploymentID string) (model.DeployResult, error)
	ActivateDue(ctx context.Context, limit int) (int, error)
	Deprecate(ctx context.Context, orgID, ruleID string, req model.DeprecateRequest) (model.Rule, error)
	Rollback(ctx context.Context, orgID string, req model.RollbackRequest) (model.RollbackResult, error)
}

type Orchestrator struct {
	store   store.Store
	due     store.DueDeploymentLister
	conf    config.OrchestratorConfig
	writer  *audit.Writer
	metrics *metrics.Collector
	now     func() time.Time
}

// NewOrchestrator builds an orchestrator over s. due may be nil when no scheduled activation worker
// runs against this instance.
func NewOrchestrator(s store.Store, due store.DueDeploymentLister, conf config.OrchestratorConfig,
	writer *audit.Writer, collector *metrics.Collector) *Orchestrator {

	if writer == nil {
		writer = audit.NewWriter(nil, collector)
	}
	if conf.MinApprovals <= 0 {
		conf.MinApprovals = 1
	}
	return &Orchestrator{
		store:   s,
		due:     due,
		conf:    conf,
		writer:  writer,
		metrics: collector,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

var _ OrchestratorInterface = (*Orchestrator)(nil)

// transition loads the rule, runs fn in a transaction locked on the rule's smart code and announces
// the audit trail once the transaction committed.
func (o *Orchestrator) transition(ctx context.Context, orgID, ruleID, action string,
	fn func(tx store.Store, rule model.Rule, trail *audit.Trail) (model.Rule, error)) (result model.Rule, err error) {

	start := time.Now()
	defer func() { o.metrics.ObserveTransition(action, start, err) }()

	rule, err := o.store.GetRule(ctx, orgID, ruleID)
	if err != nil {
		return model.Rule{}, err
	}
	trail := &audit.Trail{}
	err = o.store.RunInTransaction(ctx, store.LockKey(orgID, rule.SmartCode), func(tx store.Store) error {
		current, err := tx.GetRule(ctx, orgID, ruleID)
		if err != nil {
			return err
		}
		result, err = fn(tx, current, trail)
		return err
	})
	if err != nil {
		return model.Rule{}, err
	}
	o.writer.Emit(ctx, trail)
	return result, nil
}

// setStatus moves rule to status through tx and records the transition.
func (o *Orchestrator) setStatus(ctx context.Context, tx store.Store, trail *audit.Trail, orgID string,
	rule *model.Rule, to model.RuleStatus, action string, metadata map[string]interface{}) error {

	if !model.CanTransition(rule.Status, to) {
		return invalidTransition(*rule, to)
	}
	from := rule.Status
	rule.Status = to
	rule.UpdatedAt = o.now()
	if err := tx.UpdateRule(ctx, orgID, *rule); err != nil {
		return err
	}
	if err := store.SyncMirrorStatus(ctx, tx, orgID, *rule); err != nil {
		return err
	}
	return trail.Append(ctx, tx, orgID, *rule, action, from, to, metadata)
}

// validate re-runs the validator against the transaction's view of the store.
func (o *Orchestrator) validate(ctx context.Context, tx store.Store, orgID string, rule model.Rule) error {

	result, err := validator.NewValidator(tx).Validate(ctx, rule, orgID)
	if err != nil {
		return err
	}
	o.metrics.ObserveValidation(result.Ok)
	if !result.Ok {
		return validationFailed(result)
	}
	return nil
}

// Submit sends a draft for approval. Rules that do not require approval continue to approved in the
// same transaction.
func (o *Orchestrator) Submit(ctx context.Context, orgID, ruleID string, req model.SubmitRequest) (model.Rule, error) {

	rule, err := o.transition(ctx, orgID, ruleID, log.ActionSubmitRule,
		func(tx store.Store, rule model.Rule, trail *audit.Trail) (model.Rule, error) {

			if rule.Status != model.StatusDraft {
				return rule, invalidTransition(rule, model.StatusPendingApproval)
			}
			if err := o.validate(ctx, tx, orgID, rule); err != nil {
				return rule, err
			}
			metadata := map[string]interface{}{"requires_approval": rule.RequiresApproval}
			if req.Notes != "" {
				metadata["notes"] = req.Notes
			}
			if err := o.setStatus(ctx, tx, trail, orgID, &rule, model.StatusPendingApproval,
				log.ActionSubmitRule, metadata); err != nil {
				return rule, err
			}
			if !rule.RequiresApproval {
				err := o.setStatus(ctx, tx, trail, orgID, &rule, model.StatusApproved, log.ActionApproveRule,
					map[string]interface{}{"auto_approved": true})
				return rule, err
			}
			return rule, nil
		})
	if err != nil {
		return model.Rule{}, err
	}
	log.GetLogger().Info(fmt.Sprintf("Rule %s submitted for approval", ruleID), log.Org(orgID),
		log.String("status", string(rule.Status)))
	return rule, nil
}

// Approve records the caller's approval and moves the rule to approved once enough distinct users
// approved it.
func (o *Orchestrator) Approve(ctx context.Context, orgID, ruleID string, req model.ApproveRequest) (model.Rule, error) {

	actor := ucrcontext.GetActor(ctx)
	role, ok := o.approverRole(actor)
	if !ok {
		return model.Rule{}, approverNotAllowed(o.conf.ApproverRoles)
	}

	return o.transition(ctx, orgID, ruleID, log.ActionApproveRule,
		func(tx store.Store, rule model.Rule, trail *audit.Trail) (model.Rule, error) {

			if rule.Status != model.StatusPendingApproval {
				return rule, invalidTransition(rule, model.StatusApproved)
			}
			if slices.ContainsFunc(rule.Approvals, func(a model.Approval) bool { return a.UserId == actor.UserID }) {
				// Repeated approval by the same user changes nothing.
				return rule, nil
			}
			rule.Approvals = append(rule.Approvals, model.Approval{
				UserId:     actor.UserID,
				UserName:   actor.UserName,
				Role:       role,
				ApprovedAt: o.now(),
				Notes:      req.Notes,
			})
			metadata := map[string]interface{}{
				"approvals_received": len(rule.Approvals),
				"approvals_required": o.conf.MinApprovals,
			}
			if req.Notes != "" {
				metadata["notes"] = req.Notes
			}
			if len(rule.Approvals) < o.conf.MinApprovals {
				rule.UpdatedAt = o.now()
				if err := tx.UpdateRule(ctx, orgID, rule); err != nil {
					return rule, err
				}
				err := trail.Append(ctx, tx, orgID, rule, log.ActionApproveRule, rule.Status, rule.Status, metadata)
				return rule, err
			}
			err := o.setStatus(ctx, tx, trail, orgID, &rule, model.StatusApproved, log.ActionApproveRule, metadata)
			return rule, err
		})
}

// Reject returns a pending rule to draft and discards its approvals.
func (o *Orchestrator) Reject(ctx context.Context, orgID, ruleID string, req model.RejectRequest) (model.Rule, error) {

	if !authz.CanApprove(ucrcontext.GetActor(ctx).Roles, o.conf.ApproverRoles) {
		return model.Rule{}, approverNotAllowed(o.conf.ApproverRoles)
	}

	return o.transition(ctx, orgID, ruleID, log.ActionRejectRule,
		func(tx store.Store, rule model.Rule, trail *audit.Trail) (model.Rule, error) {

			if rule.Status != model.StatusPendingApproval {
				return rule, invalidTransition(rule, model.StatusDraft)
			}
			rule.Approvals = nil
			err := o.setStatus(ctx, tx, trail, orgID, &rule, model.StatusDraft, log.ActionRejectRule,
				map[string]interface{}{"reason": req.Reason})
			return rule, err
		})
}

// Deprecate retires an active rule without a replacement, leaving the smart code with no active rule.
func (o *Orchestrator) Deprecate(ctx context.Context, orgID, ruleID string, req model.DeprecateRequest) (model.Rule, error) {

	rule, err := o.transition(ctx, orgID, ruleID, log.ActionDeprecateRule,
		func(tx store.Store, rule model.Rule, trail *audit.Trail) (model.Rule, error) {

			if rule.Status != model.StatusActive {
				return rule, invalidTransition(rule, model.StatusDeprecated)
			}
			err := o.setStatus(ctx, tx, trail, orgID, &rule, model.StatusDeprecated, log.ActionDeprecateRule,
				map[string]interface{}{"reason": req.Reason})
			return rule, err
		})
	if err != nil {
		return model.Rule{}, err
	}
	log.GetLogger().Info(fmt.Sprintf("Rule %s deprecated", ruleID), log.Org(orgID), log.SmartCode(rule.SmartCode))
	return rule, nil
}

func (o *Orchestrator) approverRole(actor ucrcontext.Actor) (string, bool) {
	for _, role := range actor.Roles {
		if slices.Contains(o.conf.ApproverRoles, role) {
			return role, true
		}
	}
	return "", false
}

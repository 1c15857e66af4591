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
	"net/http"
	"time"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/universal"
)

// Store persists rules, their deployment records and their audit trail. Every method is scoped to
// one organization.
type Store interface {
	// CreateRule persists a new rule and fails with a conflict while an active rule with the same
	// smart code exists in the organization.
	CreateRule(ctx context.Context, orgID string, rule model.Rule) error
	// InsertRule persists a new revision of an existing smart code family.
	InsertRule(ctx context.Context, orgID string, rule model.Rule) error
	GetRule(ctx context.Context, orgID, ruleID string) (model.Rule, error)
	// GetActiveRule returns nil when the smart code has no active rule.
	GetActiveRule(ctx context.Context, orgID, smartCode string) (*model.Rule, error)
	ListRules(ctx context.Context, orgID string, filter model.RuleFilter) ([]model.Rule, error)
	// ListVersions returns the whole smart code family, newest first.
	ListVersions(ctx context.Context, orgID, smartCode string) ([]model.Rule, error)
	UpdateRule(ctx context.Context, orgID string, rule model.Rule) error
	UpdateStatus(ctx context.Context, orgID, ruleID string, status model.RuleStatus) error

	CreateDeployment(ctx context.Context, orgID string, record model.DeploymentRecord) error
	GetDeployment(ctx context.Context, orgID, deploymentID string) (model.DeploymentRecord, error)
	ListDeployments(ctx context.Context, orgID, ruleID string) ([]model.DeploymentRecord, error)
	UpdateDeployment(ctx context.Context, orgID string, record model.DeploymentRecord) error

	AppendAudit(ctx context.Context, orgID string, event model.AuditEvent) error
	ListAudit(ctx context.Context, orgID, ruleID string) ([]model.AuditEvent, error)

	// Ledger is the universal data store client bound to the same unit of work.
	Ledger() universal.ClientInterface

	// RunInTransaction runs fn against a transactional Store. Callers sharing lockKey are serialized.
	// All writes made through tx are committed together when fn returns nil and discarded otherwise.
	RunInTransaction(ctx context.Context, lockKey string, fn func(tx Store) error) error
}

// DueDeploymentLister finds scheduled deployments across organizations. It is kept off Store so
// request handling code cannot reach data outside its organization.
type DueDeploymentLister interface {
	ListDueDeployments(ctx context.Context, now time.Time, limit int) ([]model.DeploymentRecord, error)
}

// LockKey is the single-flight key of a smart code family.
func LockKey(orgID, smartCode string) string {
	return orgID + "|" + smartCode
}

func ruleNotFound(ruleID string) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:        errors.RULE_NOT_FOUND.Code,
		Message:     errors.RULE_NOT_FOUND.Message,
		Description: fmt.Sprintf("Rule %s not found in the organization.", ruleID),
	}, http.StatusNotFound)
}

func deploymentNotFound(deploymentID string) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:        errors.DEPLOYMENT_NOT_FOUND.Code,
		Message:     errors.DEPLOYMENT_NOT_FOUND.Message,
		Description: fmt.Sprintf("Deployment %s not found in the organization.", deploymentID),
	}, http.StatusNotFound)
}

func duplicateSmartCode(smartCode, description string) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:        errors.DUPLICATE_SMART_CODE.Code,
		Message:     errors.DUPLICATE_SMART_CODE.Message,
		Description: fmt.Sprintf("%s: %s", smartCode, description),
	}, http.StatusConflict)
}

func activeConflict(smartCode string) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:        errors.SMART_CODE_CONFLICT.Code,
		Message:     errors.SMART_CODE_CONFLICT.Message,
		Description: fmt.Sprintf("Another rule with smart code %s is already active.", smartCode),
	}, http.StatusConflict)
}

func duplicateDeployment(deploymentID string) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:        errors.SMART_CODE_CONFLICT.Code,
		Message:     errors.SMART_CODE_CONFLICT.Message,
		Description: fmt.Sprintf("Deployment attempt %s already exists.", deploymentID),
	}, http.StatusConflict)
}

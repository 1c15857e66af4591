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
package handler

import (
	"net/http"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/system/authz"
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	"github.com/wso2/ucr-orchestrator/internal/system/utils"
)

// Submit handles POST /rules/{ruleId}/submit. The body is optional.
func (h *RuleHandler) Submit(w http.ResponseWriter, r *http.Request, ruleID string) {

	ctx, orgID, ok := authorize(w, r, authz.OperationDeploy)
	if !ok {
		return
	}
	var req model.SubmitRequest
	if err := decodeOptional(r, constants.RuleResource, &req); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	rule, err := h.provider.GetOrchestrator().Submit(ctx, orgID, ruleID, req)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, rule)
}

func (h *RuleHandler) Approve(w http.ResponseWriter, r *http.Request, ruleID string) {

	ctx, orgID, ok := authorize(w, r, authz.OperationApprove)
	if !ok {
		return
	}
	var req model.ApproveRequest
	if err := decodeOptional(r, constants.RuleResource, &req); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	rule, err := h.provider.GetOrchestrator().Approve(ctx, orgID, ruleID, req)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, rule)
}

func (h *RuleHandler) Reject(w http.ResponseWriter, r *http.Request, ruleID string) {

	ctx, orgID, ok := authorize(w, r, authz.OperationApprove)
	if !ok {
		return
	}
	var req model.RejectRequest
	if err := decodeOptional(r, constants.RuleResource, &req); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	rule, err := h.provider.GetOrchestrator().Reject(ctx, orgID, ruleID, req)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, rule)
}

// Deploy handles POST /rules/{ruleId}/deploy. A deployment scheduled for later is answered with 202.
func (h *RuleHandler) Deploy(w http.ResponseWriter, r *http.Request, ruleID string) {

	ctx, orgID, ok := authorize(w, r, authz.OperationDeploy)
	if !ok {
		return
	}
	var req model.DeployRequest
	if err := utils.DecodeJSON(r, constants.DeploymentResource, &req); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	result, err := h.provider.GetOrchestrator().Deploy(ctx, orgID, ruleID, req)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	status := http.StatusOK
	if result.Deployment.Status == model.DeploymentPending {
		status = http.StatusAccepted
	}
	utils.RespondJSON(w, status, result)
}

// ActivateDeployment handles POST /deployments/{deploymentId}/activate for a due scheduled deployment.
func (h *RuleHandler) ActivateDeployment(w http.ResponseWriter, r *http.Request, deploymentID string) {

	ctx, orgID, ok := authorize(w, r, authz.OperationDeploy)
	if !ok {
		return
	}
	result, err := h.provider.GetOrchestrator().ActivateScheduled(ctx, orgID, deploymentID)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *RuleHandler) Deprecate(w http.ResponseWriter, r *http.Request, ruleID string) {

	ctx, orgID, ok := authorize(w, r, authz.OperationDeploy)
	if !ok {
		return
	}
	var req model.DeprecateRequest
	if err := decodeOptional(r, constants.RuleResource, &req); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	rule, err := h.provider.GetOrchestrator().Deprecate(ctx, orgID, ruleID, req)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, rule)
}

// Rollback handles POST /rules/rollback.
func (h *RuleHandler) Rollback(w http.ResponseWriter, r *http.Request) {

	ctx, orgID, ok := authorize(w, r, authz.OperationDeploy)
	if !ok {
		return
	}
	var req model.RollbackRequest
	if err := utils.DecodeJSON(r, constants.RuleResource, &req); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	result, err := h.provider.GetOrchestrator().Rollback(ctx, orgID, req)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

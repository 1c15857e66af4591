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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/rules/provider"
	"github.com/wso2/ucr-orchestrator/internal/system/authz"
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	ucrcontext "github.com/wso2/ucr-orchestrator/internal/system/context"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/pagination"
	"github.com/wso2/ucr-orchestrator/internal/system/security"
	"github.com/wso2/ucr-orchestrator/internal/system/utils"
)

type RuleHandler struct {
	provider provider.RulesProviderInterface
}

func NewRuleHandler(rulesProvider provider.RulesProviderInterface) *RuleHandler {

	return &RuleHandler{provider: rulesProvider}
}

// authorize authenticates the caller for the organization in the path. The returned context carries
// the caller as the acting user.
func authorize(w http.ResponseWriter, r *http.Request, operation string) (context.Context, string, bool) {

	orgID := utils.ExtractTenantIdFromPath(r)
	actor, err := security.AuthnAndAuthz(r, orgID, operation)
	if err != nil {
		utils.HandleError(w, r, err)
		return nil, "", false
	}
	return ucrcontext.WithActor(r.Context(), actor), orgID, true
}

// decodeOptional decodes a body that may be absent. An empty body leaves target untouched.
func decodeOptional(r *http.Request, resourceName string, target interface{}) error {

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return badRequest(utils.HandleDecodeError(err, resourceName))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return badRequest(utils.HandleDecodeError(err, resourceName))
	}
	return nil
}

func badRequest(description string) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:        errors.BAD_REQUEST.Code,
		Message:     errors.BAD_REQUEST.Message,
		Description: description,
	}, http.StatusBadRequest)
}

// CreateRule handles POST /rules.
func (h *RuleHandler) CreateRule(w http.ResponseWriter, r *http.Request) {

	ctx, orgID, ok := authorize(w, r, authz.OperationCreate)
	if !ok {
		return
	}
	var req model.RuleAPIRequest
	if err := utils.DecodeJSON(r, constants.RuleResource, &req); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	rule, err := h.provider.GetRuleService().CreateRule(ctx, orgID, req)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, rule)
}

// ListRules handles GET /rules with its filter and pagination query parameters.
func (h *RuleHandler) ListRules(w http.ResponseWriter, r *http.Request) {

	ctx, orgID, ok := authorize(w, r, authz.OperationView)
	if !ok {
		return
	}
	limit, err := pagination.ParseLimit(r)
	if err != nil {
		utils.HandleError(w, r, errors.NewClientError(errors.ErrorMessage{
			Code:        errors.INVALID_CURSOR.Code,
			Message:     errors.INVALID_CURSOR.Message,
			Description: "limit must be a positive integer.",
		}, http.StatusBadRequest))
		return
	}
	query := r.URL.Query()
	filter := model.RuleFilter{
		Status:    model.RuleStatus(query.Get("status")),
		SmartCode: query.Get("smart_code"),
		Tag:       query.Get("tag"),
		Search:    query.Get("search"),
		Limit:     limit,
	}
	response, err := h.provider.GetRuleService().ListRules(ctx, orgID, filter, query.Get("cursor"))
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, response)
}

func (h *RuleHandler) GetRule(w http.ResponseWriter, r *http.Request, ruleID string) {

	ctx, orgID, ok := authorize(w, r, authz.OperationView)
	if !ok {
		return
	}
	rule, err := h.provider.GetRuleService().GetRule(ctx, orgID, ruleID)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, rule)
}

func (h *RuleHandler) GetRuleBySmartCode(w http.ResponseWriter, r *http.Request, smartCode string) {

	ctx, orgID, ok := authorize(w, r, authz.OperationView)
	if !ok {
		return
	}
	rule, err := h.provider.GetRuleService().GetRuleBySmartCode(ctx, orgID, smartCode)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, rule)
}

// PatchRule handles PATCH /rules/{ruleId}. Only the fields in AllowedFieldsForRulePatch may be sent.
func (h *RuleHandler) PatchRule(w http.ResponseWriter, r *http.Request, ruleID string) {

	ctx, orgID, ok := authorize(w, r, authz.OperationUpdate)
	if !ok {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.HandleError(w, r, badRequest(utils.HandleDecodeError(err, constants.RuleResource)))
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		utils.HandleError(w, r, badRequest(utils.HandleDecodeError(err, constants.RuleResource)))
		return
	}
	var rejected []string
	for field := range fields {
		if !constants.AllowedFieldsForRulePatch[field] {
			rejected = append(rejected, field)
		}
	}
	if len(rejected) > 0 {
		utils.HandleError(w, r, errors.NewClientErrorWithDetails(errors.ErrorMessage{
			Code:        errors.INVALID_PATCH.Code,
			Message:     errors.INVALID_PATCH.Message,
			Description: "Only draft content fields can be updated: " + strings.Join(rejected, ", "),
		}, http.StatusBadRequest, rejected))
		return
	}

	var req model.RuleUpdateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		utils.HandleError(w, r, badRequest(utils.HandleDecodeError(err, constants.RuleResource)))
		return
	}
	rule, err := h.provider.GetRuleService().UpdateRule(ctx, orgID, ruleID, req)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, rule)
}

// ValidateDraft handles POST /rules/validate with the rule wrapped in a "rule" member.
func (h *RuleHandler) ValidateDraft(w http.ResponseWriter, r *http.Request) {

	ctx, orgID, ok := authorize(w, r, authz.OperationView)
	if !ok {
		return
	}
	var req model.ValidateRequest
	if err := utils.DecodeJSON(r, constants.RuleResource, &req); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	result, err := h.provider.GetRuleService().ValidateDraft(ctx, orgID, req.Rule)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *RuleHandler) ValidateRule(w http.ResponseWriter, r *http.Request, ruleID string) {

	ctx, orgID, ok := authorize(w, r, authz.OperationView)
	if !ok {
		return
	}
	result, err := h.provider.GetRuleService().ValidateRule(ctx, orgID, ruleID)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *RuleHandler) Simulate(w http.ResponseWriter, r *http.Request) {

	ctx, orgID, ok := authorize(w, r, authz.OperationView)
	if !ok {
		return
	}
	var req model.SimulateRequest
	if err := utils.DecodeJSON(r, constants.SimulationResource, &req); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	result, err := h.provider.GetRuleService().Simulate(ctx, orgID, req)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

// BumpVersion handles POST /rules/{ruleId}/versions.
func (h *RuleHandler) BumpVersion(w http.ResponseWriter, r *http.Request, ruleID string) {

	ctx, orgID, ok := authorize(w, r, authz.OperationUpdate)
	if !ok {
		return
	}
	var req model.VersionBumpRequest
	if err := utils.DecodeJSON(r, constants.RuleResource, &req); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	result, err := h.provider.GetRuleService().BumpVersion(ctx, orgID, ruleID, req)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, result)
}

func (h *RuleHandler) Diff(w http.ResponseWriter, r *http.Request, baseRuleID, newRuleID string) {

	ctx, orgID, ok := authorize(w, r, authz.OperationView)
	if !ok {
		return
	}
	result, err := h.provider.GetRuleService().Diff(ctx, orgID, baseRuleID, newRuleID)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *RuleHandler) ListDeployments(w http.ResponseWriter, r *http.Request, ruleID string) {

	ctx, orgID, ok := authorize(w, r, authz.OperationView)
	if !ok {
		return
	}
	records, err := h.provider.GetRuleService().ListDeployments(ctx, orgID, ruleID)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, records)
}

func (h *RuleHandler) ListAudit(w http.ResponseWriter, r *http.Request, ruleID string) {

	ctx, orgID, ok := authorize(w, r, authz.OperationView)
	if !ok {
		return
	}
	trail, err := h.provider.GetRuleService().ListAudit(ctx, orgID, ruleID)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, trail)
}

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

// ListTemplates handles GET /rule-templates?industry=&module=.
func (h *RuleHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {

	if _, _, ok := authorize(w, r, authz.OperationView); !ok {
		return
	}
	query := r.URL.Query()
	templates := h.provider.GetRuleService().ListTemplates(query.Get("industry"), query.Get("module"))
	utils.RespondJSON(w, http.StatusOK, model.TemplateListResponse{Templates: templates})
}

// CloneTemplate handles POST /rule-templates/{templateId}/clone. The body is optional.
func (h *RuleHandler) CloneTemplate(w http.ResponseWriter, r *http.Request, templateID string) {

	ctx, orgID, ok := authorize(w, r, authz.OperationCreate)
	if !ok {
		return
	}
	var req model.CloneTemplateRequest
	if err := decodeOptional(r, constants.RuleTemplateResource, &req); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	rule, err := h.provider.GetRuleService().CloneTemplate(ctx, orgID, templateID, req)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, rule)
}

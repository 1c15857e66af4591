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
	"fmt"
	"net/http"
	"strings"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
)

func invalidTransition(rule model.Rule, to model.RuleStatus) error {
	if rule.Status.IsTerminal() {
		return errors.NewClientError(errors.ErrorMessage{
			Code:    errors.INVALID_TRANSITION.Code,
			Message: errors.INVALID_TRANSITION.Message,
			Description: fmt.Sprintf("Rule %s is %s, which is final; bump the version to change it.",
				rule.RuleId, rule.Status),
		}, http.StatusPreconditionFailed)
	}
	return errors.NewClientError(errors.ErrorMessage{
		Code:    errors.INVALID_TRANSITION.Code,
		Message: errors.INVALID_TRANSITION.Message,
		Description: fmt.Sprintf("Rule %s is %s and cannot move to %s.",
			rule.RuleId, rule.Status, to),
	}, http.StatusPreconditionFailed)
}

func validationFailed(result model.ValidationResult) error {
	return errors.NewClientErrorWithDetails(errors.ErrorMessage{
		Code:        errors.VALIDATION_FAILED.Code,
		Message:     errors.VALIDATION_FAILED.Message,
		Description: strings.Join(result.Errors, "; "),
	}, http.StatusBadRequest, result.Errors)
}

func approvalRequired(rule model.Rule, received, required int) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:    errors.APPROVAL_REQUIRED.Code,
		Message: errors.APPROVAL_REQUIRED.Message,
		Description: fmt.Sprintf("Rule %s has %d of %d required approvals.",
			rule.RuleId, received, required),
	}, http.StatusPreconditionFailed)
}

func checklistIncomplete(missing []string) error {
	return errors.NewClientErrorWithDetails(errors.ErrorMessage{
		Code:        errors.CHECKLIST_INCOMPLETE.Code,
		Message:     errors.CHECKLIST_INCOMPLETE.Message,
		Description: "Unchecked items: " + strings.Join(missing, ", "),
	}, http.StatusBadRequest, missing)
}

func smartCodeConflict(rule model.Rule, active model.Rule) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:    errors.SMART_CODE_CONFLICT.Code,
		Message: errors.SMART_CODE_CONFLICT.Message,
		Description: fmt.Sprintf("Rule %s is active with version %s of %s; version %s cannot replace it.",
			active.RuleId, active.VersionLabel(), rule.SmartCode, rule.VersionLabel()),
	}, http.StatusConflict)
}

func attemptConflict(attemptID, ruleID string) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:    errors.SMART_CODE_CONFLICT.Code,
		Message: errors.SMART_CODE_CONFLICT.Message,
		Description: fmt.Sprintf("Deployment attempt %s already belongs to rule %s.",
			attemptID, ruleID),
	}, http.StatusConflict)
}

func invalidScope(description string) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:        errors.INVALID_SCOPE.Code,
		Message:     errors.INVALID_SCOPE.Message,
		Description: description,
	}, http.StatusBadRequest)
}

func approverNotAllowed(approverRoles []string) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:        errors.APPROVER_NOT_ALLOWED.Code,
		Message:     errors.APPROVER_NOT_ALLOWED.Message,
		Description: "One of the roles " + strings.Join(approverRoles, ", ") + " is required.",
	}, http.StatusForbidden)
}

func versionNotFound(smartCode string, version int) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:    errors.VERSION_NOT_FOUND.Code,
		Message: errors.VERSION_NOT_FOUND.Message,
		Description: fmt.Sprintf("Version %d of %s was never active in the organization.",
			version, smartCode),
	}, http.StatusNotFound)
}

func badRequest(description string) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:        errors.BAD_REQUEST.Code,
		Message:     errors.BAD_REQUEST.Message,
		Description: description,
	}, http.StatusBadRequest)
}

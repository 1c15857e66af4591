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
package authz

import (
	"fmt"
	"slices"

	"github.com/wso2/ucr-orchestrator/internal/system/config"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

// Operations guarded by scope checks.
const (
	OperationView    = "rules:view"
	OperationCreate  = "rules:create"
	OperationUpdate  = "rules:update"
	OperationDeploy  = "rules:deploy"
	OperationApprove = "rules:approve"
)

// ValidatePermission checks the granted scopes against the runtime scope requirements.
func ValidatePermission(grantedScopes []string, operation string) bool {
	return HasPermission(grantedScopes, operation, config.GetUCRRuntime().Config.Auth.RequiredScopes)
}

// HasPermission reports whether every scope required for the operation was granted. An operation
// without a configured requirement needs a scope of the same name.
func HasPermission(grantedScopes []string, operation string, requiredScopes map[string][]string) bool {

	logger := log.GetLogger()
	if len(grantedScopes) == 0 {
		logger.Debug(fmt.Sprintf("No scopes provided for operation: %s", operation))
		return false
	}

	expectedScopes, ok := requiredScopes[operation]
	if !ok {
		expectedScopes = []string{operation}
	}
	for _, expected := range expectedScopes {
		if !slices.Contains(grantedScopes, expected) {
			logger.Debug(fmt.Sprintf("Scope %s missing for operation: %s", expected, operation))
			return false
		}
	}
	return true
}

// CanApprove reports whether any of the actor roles may approve rules.
func CanApprove(roles []string, approverRoles []string) bool {
	for _, role := range roles {
		if slices.Contains(approverRoles, role) {
			return true
		}
	}
	return false
}

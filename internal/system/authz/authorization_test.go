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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	required := map[string][]string{
		OperationDeploy: {"rules:deploy", "rules:view"},
	}

	assert.True(t, HasPermission([]string{"rules:deploy", "rules:view"}, OperationDeploy, required))
	assert.False(t, HasPermission([]string{"rules:deploy"}, OperationDeploy, required))
	assert.True(t, HasPermission([]string{"rules:view"}, OperationView, required))
	assert.False(t, HasPermission(nil, OperationView, required))
}

func TestCanApprove(t *testing.T) {
	assert.True(t, CanApprove([]string{"staff", "manager"}, []string{"owner", "manager"}))
	assert.False(t, CanApprove([]string{"staff"}, []string{"owner", "manager"}))
	assert.False(t, CanApprove(nil, []string{"owner"}))
}

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

package log

import (
	"encoding/json"
	"log/slog"
	"time"
)

// AuditEvent represents a structured audit log entry
type AuditEvent struct {
	RecordedAt    string      `json:"recordedAt"`
	InitiatorID   string      `json:"initiatorId"`
	InitiatorType string      `json:"initiatorType"`
	OrgID         string      `json:"orgId"`
	TargetID      string      `json:"targetId"`
	TargetType    string      `json:"targetType"`
	ActionID      string      `json:"actionId"`
	TraceID       string      `json:"traceId,omitempty"`
	Data          interface{} `json:"data,omitempty"`
}

// Audit logs an audit event with structured fields
func (l *Logger) Audit(event AuditEvent) {
	// Ensure timestamp is set
	if event.RecordedAt == "" {
		event.RecordedAt = time.Now().UTC().Format(time.RFC3339)
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		l.Error("Failed to marshal audit event", Error(err))
		return
	}

	l.internal.Info("AUDIT", slog.String("audit_event", string(jsonData)))
}

// Action IDs for audit logging
const (
	ActionCreateRule    = "create-rule"
	ActionUpdateRule    = "update-rule"
	ActionCloneTemplate = "clone-template"
	ActionValidateRule  = "validate-rule"
	ActionVersionBump   = "version-bump"

	// Lifecycle transitions
	ActionSubmitRule    = "submit-rule"
	ActionApproveRule   = "approve-rule"
	ActionRejectRule    = "reject-rule"
	ActionDeployRule    = "deploy-rule"
	ActionActivateRule  = "activate-rule"
	ActionAbortDeploy   = "abort-deployment"
	ActionSupersedeRule = "supersede-rule"
	ActionDeprecateRule = "deprecate-rule"
	ActionRollbackRule  = "rollback-rule"
	ActionRestoreRule   = "restore-rule"

	// Authentication operations
	ActionAuthenticationFailure = "authentication-failure"
)

// Initiator types
const (
	InitiatorTypeUser   = "user"
	InitiatorTypeSystem = "system"
)

// Target types
const (
	TargetTypeRule       = "rule"
	TargetTypeDeployment = "deployment"
)

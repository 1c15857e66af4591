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
package model

import "time"

// DeploymentStatus is the state of one deployment attempt.
type DeploymentStatus string

const (
	DeploymentPending    DeploymentStatus = "pending"
	DeploymentCompleted  DeploymentStatus = "completed"
	DeploymentRolledBack DeploymentStatus = "rolled_back"
	// DeploymentFailed ends a scheduled attempt whose gates no longer held when it fell due.
	DeploymentFailed     DeploymentStatus = "failed"
)

// Scope limits where an activated rule applies.
type Scope struct {
	Apps      []string    `json:"apps"`
	Locations []string    `json:"locations"`
	Segments  interface{} `json:"segments,omitempty"`
}

// Approval is one sign-off on a rule pending deployment.
type Approval struct {
	UserId     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	Role       string    `json:"role"`
	ApprovedAt time.Time `json:"approved_at"`
	Notes      string    `json:"notes,omitempty"`
}

// Checklist is the pre-deployment checklist. Every item must be explicitly true.
type Checklist struct {
	Tested     bool `json:"tested"`
	Reviewed   bool `json:"reviewed"`
	Approved   bool `json:"approved"`
	Documented bool `json:"documented"`
	BackupPlan bool `json:"backupPlan"`
}

// Missing lists the unchecked items in a stable order.
func (c Checklist) Missing() []string {
	var missing []string
	if !c.Tested {
		missing = append(missing, "tested")
	}
	if !c.Reviewed {
		missing = append(missing, "reviewed")
	}
	if !c.Approved {
		missing = append(missing, "approved")
	}
	if !c.Documented {
		missing = append(missing, "documented")
	}
	if !c.BackupPlan {
		missing = append(missing, "backupPlan")
	}
	return missing
}

// Complete reports whether every checklist item is satisfied.
func (c Checklist) Complete() bool {
	return len(c.Missing()) == 0
}

// DeploymentRecord tracks one deployment attempt of a rule. DeploymentId doubles as the idempotency
// key of the attempt.
type DeploymentRecord struct {
	DeploymentId  string           `json:"deployment_id"`
	OrgId         string           `json:"organization_id"`
	RuleId        string           `json:"rule_id"`
	SmartCode     string           `json:"smart_code"`
	Scope         Scope            `json:"scope"`
	EffectiveFrom time.Time        `json:"effective_from"`
	EffectiveTo   *time.Time       `json:"effective_to,omitempty"`
	Approvals     []Approval       `json:"approvals"`
	Checklist     Checklist        `json:"checklist"`
	Status        DeploymentStatus `json:"status"`
	CreatedBy     string           `json:"created_by"`
	CreatedAt     time.Time        `json:"created_at"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	RolledBackAt  *time.Time       `json:"rolled_back_at,omitempty"`
}

// Clone returns a copy that shares no slices with the original.
func (d DeploymentRecord) Clone() DeploymentRecord {
	out := d
	out.Scope.Apps = append([]string(nil), d.Scope.Apps...)
	out.Scope.Locations = append([]string(nil), d.Scope.Locations...)
	out.Scope.Segments = CopyValue(d.Scope.Segments)
	out.Approvals = append([]Approval(nil), d.Approvals...)
	return out
}

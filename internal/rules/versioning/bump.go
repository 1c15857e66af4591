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
package versioning

import (
	"time"

	"github.com/google/uuid"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
)

// NextVersion picks the version a bump of base produces. A major bump takes the next major number
// after the newest revision of the family; a minor bump takes the next free minor number under the
// base's major number.
func NextVersion(family []model.Rule, base model.Rule, change model.ChangeType) model.RuleVersion {

	if change == model.ChangeMajor {
		major := base.Version
		for _, rule := range family {
			if rule.Version > major {
				major = rule.Version
			}
		}
		return model.RuleVersion{Version: major + 1, MinorVersion: 0}
	}

	minor := base.MinorVersion
	for _, rule := range family {
		if rule.Version == base.Version && rule.MinorVersion > minor {
			minor = rule.MinorVersion
		}
	}
	return model.RuleVersion{Version: base.Version, MinorVersion: minor + 1}
}

// NewRevision builds the draft that follows base. The payload and descriptive fields are copied;
// status, approvals and timestamps start fresh.
func NewRevision(base model.Rule, version model.RuleVersion, actor string, now time.Time) model.Rule {

	next := base.Clone()
	next.RuleId = uuid.New().String()
	next.Status = model.StatusDraft
	next.Version = version.Version
	next.MinorVersion = version.MinorVersion
	next.Approvals = nil
	next.ParentRuleId = base.RuleId
	next.CreatedBy = actor
	next.CreatedAt = now
	next.UpdatedAt = now
	return next
}

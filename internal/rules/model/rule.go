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

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// RuleStatus is the lifecycle state of a rule.
type RuleStatus string

const (
	StatusDraft           RuleStatus = "draft"
	StatusPendingApproval RuleStatus = "pending_approval"
	StatusApproved        RuleStatus = "approved"
	StatusDeploying       RuleStatus = "deploying"
	StatusActive          RuleStatus = "active"
	StatusSuperseded      RuleStatus = "superseded"
	StatusDeprecated      RuleStatus = "deprecated"
	StatusRolledBack      RuleStatus = "rolled_back"
)

// allowedTransitions is the lifecycle state machine. Any pair not listed is rejected.
var allowedTransitions = map[RuleStatus][]RuleStatus{
	StatusDraft:           {StatusPendingApproval},
	StatusPendingApproval: {StatusApproved, StatusDraft},
	StatusApproved:        {StatusDeploying},
	StatusDeploying:       {StatusActive, StatusApproved},
	StatusActive:          {StatusSuperseded, StatusDeprecated, StatusRolledBack},
}

// CanTransition reports whether the state machine allows moving from one status to another.
func CanTransition(from, to RuleStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible from the status.
func (s RuleStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// IsValid reports whether the status is one of the known lifecycle states.
func (s RuleStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusDeploying, StatusActive,
		StatusSuperseded, StatusDeprecated, StatusRolledBack:
		return true
	}
	return false
}

// Rule is a versioned, tenant-scoped business rule document.
type Rule struct {
	RuleId           string                 `json:"id"`
	OrgId            string                 `json:"organization_id"`
	SmartCode        string                 `json:"smart_code"`
	Title            string                 `json:"title"`
	Tags             []string               `json:"tags"`
	Owner            string                 `json:"owner"`
	Status           RuleStatus             `json:"status"`
	Version          int                    `json:"version"`
	MinorVersion     int                    `json:"minor_version"`
	SchemaVersion    int                    `json:"schema_version"`
	Payload          RulePayload            `json:"rule_payload"`
	AIMetadata       map[string]interface{} `json:"ai_metadata,omitempty"`
	RequiresApproval bool                   `json:"requires_approval"`
	Approvals        []Approval             `json:"approvals,omitempty"`
	ParentRuleId     string                 `json:"parent_rule_id,omitempty"`
	CreatedBy        string                 `json:"created_by,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// Clone returns a deep copy of the rule. Mutating the copy never affects the original.
func (r Rule) Clone() Rule {
	out := r
	out.Tags = append([]string(nil), r.Tags...)
	out.Payload = r.Payload.Clone()
	out.AIMetadata = CopyMap(r.AIMetadata)
	out.Approvals = append([]Approval(nil), r.Approvals...)
	return out
}

// VersionLabel renders the version pair as "<major>.<minor>".
func (r Rule) VersionLabel() string {
	return RuleVersion{Version: r.Version, MinorVersion: r.MinorVersion}.String()
}

// NewerThan compares the (version, minor_version) pairs of two rules.
func (r Rule) NewerThan(other Rule) bool {
	return CompareVersions(r.Version, r.MinorVersion, other.Version, other.MinorVersion) > 0
}

// RuleVersion identifies one revision inside a smart code family.
type RuleVersion struct {
	Version      int    `json:"version"`
	MinorVersion int    `json:"minor_version"`
	Label        string `json:"label,omitempty"`
}

func (v RuleVersion) String() string {
	return strconv.Itoa(v.Version) + "." + strconv.Itoa(v.MinorVersion)
}

// CompareVersions returns -1, 0 or 1 comparing (major, minor) pairs.
func CompareVersions(major, minor, otherMajor, otherMinor int) int {
	switch {
	case major > otherMajor:
		return 1
	case major < otherMajor:
		return -1
	case minor > otherMinor:
		return 1
	case minor < otherMinor:
		return -1
	}
	return 0
}

// NormalizeTags trims, de-duplicates and sorts tags so they behave as a set.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// RuleFilter narrows a rule listing. Empty fields do not filter.
type RuleFilter struct {
	Status    RuleStatus
	SmartCode string
	Tag       string
	Search    string
	Limit     int
	After     *RuleCursor
}

// RuleCursor marks the last row of a page in (created_at, rule_id) order.
type RuleCursor struct {
	CreatedAt time.Time
	RuleId    string
}

// Matches applies the non-paging parts of the filter in memory.
func (f RuleFilter) Matches(rule Rule) bool {
	if f.Status != "" && rule.Status != f.Status {
		return false
	}
	if f.SmartCode != "" && rule.SmartCode != f.SmartCode {
		return false
	}
	if f.Tag != "" {
		found := false
		for _, tag := range rule.Tags {
			if tag == f.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(rule.Title), needle) &&
			!strings.Contains(strings.ToLower(rule.SmartCode), needle) &&
			!strings.Contains(strings.ToLower(rule.Payload.Description), needle) {
			return false
		}
	}
	if f.After != nil {
		if rule.CreatedAt.Before(f.After.CreatedAt) {
			return false
		}
		if rule.CreatedAt.Equal(f.After.CreatedAt) && rule.RuleId <= f.After.RuleId {
			return false
		}
	}
	return true
}

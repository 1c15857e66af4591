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
package validator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
)

// SmartCodePattern is the accepted shape of a rule smart code.
var SmartCodePattern = regexp.MustCompile(`^HERA\.[A-Z0-9]{2,15}(\.[A-Z0-9_]{2,30}){1,8}\.[vV][1-9][0-9]*$`)

// IsValidSmartCode reports whether code matches SmartCodePattern.
func IsValidSmartCode(code string) bool {
	return SmartCodePattern.MatchString(code)
}

// ActiveRuleReader is the only store access the validator needs.
type ActiveRuleReader interface {
	GetActiveRule(ctx context.Context, orgID, smartCode string) (*model.Rule, error)
}

type Validator struct {
	rules ActiveRuleReader
}

func NewValidator(rules ActiveRuleReader) *Validator {
	return &Validator{rules: rules}
}

// Validate checks a rule before it is saved or deployed. An error is returned only when the store
// lookup fails; rule problems are reported in the result.
func (v *Validator) Validate(ctx context.Context, draft model.Rule, orgID string) (model.ValidationResult, error) {

	result := model.ValidationResult{Errors: []string{}, Warnings: []string{}}
	fail := func(format string, args ...interface{}) {
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}
	warn := func(format string, args ...interface{}) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(format, args...))
	}

	if !IsValidSmartCode(draft.SmartCode) {
		fail("smart_code %q does not match %s", draft.SmartCode, SmartCodePattern.String())
	}
	if strings.TrimSpace(draft.Payload.Description) == "" {
		fail("rule_payload.description is required")
	}
	if draft.OrgId != orgID {
		fail("organization_id %q does not match the requesting organization", draft.OrgId)
	}
	if draft.Version < 1 {
		fail("version must be at least 1")
	}
	if draft.MinorVersion < 0 {
		fail("minor_version must not be negative")
	}
	if draft.SchemaVersion < 1 {
		fail("schema_version must be at least 1")
	}
	for _, key := range model.SortedKeys(draft.Payload.Definitions) {
		if !isScalar(draft.Payload.Definitions[key]) {
			fail("rule_payload.definitions.%s must be a string, number or boolean", key)
		}
	}
	for i, exception := range draft.Payload.Exceptions {
		if len(exception.If) == 0 {
			fail("rule_payload.exceptions[%d].if must have at least one condition", i)
		}
		if len(exception.Then) == 0 {
			fail("rule_payload.exceptions[%d].then must override at least one value", i)
		}
	}

	if len(draft.Tags) == 0 {
		warn("rule has no tags")
	}
	if len(draft.Payload.Exceptions) == 0 {
		warn("rule_payload has no exceptions")
	}

	if v.rules != nil && draft.SmartCode != "" && draft.OrgId == orgID {
		active, err := v.rules.GetActiveRule(ctx, orgID, draft.SmartCode)
		if err != nil {
			return result, err
		}
		if active != nil && active.RuleId != draft.RuleId && !draft.NewerThan(*active) {
			fail("active rule %s already holds version %s of %s; use version > %s",
				active.RuleId, active.VersionLabel(), draft.SmartCode, active.VersionLabel())
		}
	}

	result.Ok = len(result.Errors) == 0
	return result, nil
}

func isScalar(value interface{}) bool {
	switch value.(type) {
	case string, bool, float64, float32, int, int32, int64, uint, uint32, uint64:
		return true
	}
	return false
}

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
package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/universal"
)

const testSmartCode = "HERA.SALON.POLICY.CANCEL.v1"

func newTestRule(orgID, smartCode string, version int, status model.RuleStatus) model.Rule {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return model.Rule{
		RuleId:        uuid.New().String(),
		OrgId:         orgID,
		SmartCode:     smartCode,
		Title:         "Cancellation policy",
		Tags:          []string{"salon"},
		Owner:         "ops",
		Status:        status,
		Version:       version,
		SchemaVersion: 1,
		Payload: model.RulePayload{
			Description: "Cancellation policy",
			Definitions: map[string]interface{}{"grace_minutes": float64(15)},
		},
		RequiresApproval: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// runStoreContract exercises behaviour every Store backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {

	t.Run("GetIsOrganizationScoped", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		rule := newTestRule("org-1", testSmartCode, 1, model.StatusDraft)
		require.NoError(t, s.CreateRule(ctx, "org-1", rule))

		got, err := s.GetRule(ctx, "org-1", rule.RuleId)
		require.NoError(t, err)
		assert.Equal(t, rule.Payload.Definitions, got.Payload.Definitions)
		assert.Equal(t, []string{"salon"}, got.Tags)

		_, err = s.GetRule(ctx, "org-2", rule.RuleId)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("CreateFailsWhileActiveRuleExists", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		active := newTestRule("org-1", testSmartCode, 1, model.StatusActive)
		require.NoError(t, s.InsertRule(ctx, "org-1", active))

		err := s.CreateRule(ctx, "org-1", newTestRule("org-1", testSmartCode, 2, model.StatusDraft))
		require.Error(t, err)
		assert.True(t, errors.IsConflict(err))
		assert.Equal(t, errors.DUPLICATE_SMART_CODE.Code, errors.CodeOf(err))

		// Another organization is unaffected.
		require.NoError(t, s.CreateRule(ctx, "org-2", newTestRule("org-2", testSmartCode, 1, model.StatusDraft)))
	})

	t.Run("DuplicateVersionIsRejected", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.InsertRule(ctx, "org-1", newTestRule("org-1", testSmartCode, 1, model.StatusDraft)))
		err := s.InsertRule(ctx, "org-1", newTestRule("org-1", testSmartCode, 1, model.StatusDraft))
		assert.True(t, errors.IsConflict(err))
	})

	t.Run("SecondActiveRuleIsRejected", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		first := newTestRule("org-1", testSmartCode, 1, model.StatusActive)
		second := newTestRule("org-1", testSmartCode, 2, model.StatusDeploying)
		require.NoError(t, s.InsertRule(ctx, "org-1", first))
		require.NoError(t, s.InsertRule(ctx, "org-1", second))

		err := s.UpdateStatus(ctx, "org-1", second.RuleId, model.StatusActive)
		assert.True(t, errors.IsConflict(err))

		active, err := s.GetActiveRule(ctx, "org-1", testSmartCode)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, first.RuleId, active.RuleId)
	})

	t.Run("ListVersionsNewestFirst", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		v1 := newTestRule("org-1", testSmartCode, 1, model.StatusSuperseded)
		v11 := newTestRule("org-1", testSmartCode, 1, model.StatusDraft)
		v11.MinorVersion = 1
		v2 := newTestRule("org-1", testSmartCode, 2, model.StatusActive)
		for _, rule := range []model.Rule{v1, v2, v11} {
			require.NoError(t, s.InsertRule(ctx, "org-1", rule))
		}

		versions, err := s.ListVersions(ctx, "org-1", testSmartCode)
		require.NoError(t, err)
		require.Len(t, versions, 3)
		assert.Equal(t, []string{v2.RuleId, v11.RuleId, v1.RuleId},
			[]string{versions[0].RuleId, versions[1].RuleId, versions[2].RuleId})
	})

	t.Run("ListRulesFiltersAndPages", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		base := time.Now().UTC().Truncate(time.Microsecond)
		var ids []string
		for i := 0; i < 5; i++ {
			rule := newTestRule("org-1", fmt.Sprintf("HERA.SALON.POLICY.R%d.v1", i), 1, model.StatusDraft)
			rule.CreatedAt = base.Add(time.Duration(i) * time.Second)
			if i%2 == 0 {
				rule.Tags = []string{"even"}
			}
			require.NoError(t, s.CreateRule(ctx, "org-1", rule))
			ids = append(ids, rule.RuleId)
		}

		page, err := s.ListRules(ctx, "org-1", model.RuleFilter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, ids[0], page[0].RuleId)

		last := page[len(page)-1]
		next, err := s.ListRules(ctx, "org-1", model.RuleFilter{
			Limit: 10,
			After: &model.RuleCursor{CreatedAt: last.CreatedAt, RuleId: last.RuleId},
		})
		require.NoError(t, err)
		assert.Len(t, next, 3)
		assert.Equal(t, ids[2], next[0].RuleId)

		tagged, err := s.ListRules(ctx, "org-1", model.RuleFilter{Tag: "even"})
		require.NoError(t, err)
		assert.Len(t, tagged, 3)

		searched, err := s.ListRules(ctx, "org-1", model.RuleFilter{Search: "r3"})
		require.NoError(t, err)
		require.Len(t, searched, 1)
		assert.Equal(t, ids[3], searched[0].RuleId)

		for _, literal := range []string{"%", "_", "r_"} {
			wild, err := s.ListRules(ctx, "org-1", model.RuleFilter{Search: literal})
			require.NoError(t, err)
			assert.Empty(t, wild, "search %q must match literally", literal)
		}

		other, err := s.ListRules(ctx, "org-2", model.RuleFilter{})
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("FailedTransactionLeavesNoTrace", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		rule := newTestRule("org-1", testSmartCode, 1, model.StatusApproved)
		require.NoError(t, s.InsertRule(ctx, "org-1", rule))

		boom := fmt.Errorf("boom")
		err := s.RunInTransaction(ctx, LockKey("org-1", testSmartCode), func(tx Store) error {
			require.NoError(t, tx.UpdateStatus(ctx, "org-1", rule.RuleId, model.StatusDeploying))
			require.NoError(t, tx.AppendAudit(ctx, "org-1", model.AuditEvent{
				EventId: uuid.New().String(), RuleId: rule.RuleId, Action: "deploy-rule",
				OccurredAt: time.Now().UTC(),
			}))
			_, err := tx.Ledger().CreateTransaction(ctx, "org-1", universal.TransactionRequest{
				TransactionType: constants.UniversalTxnTypeDeployment,
			})
			require.NoError(t, err)
			return boom
		})
		assert.Equal(t, boom, err)

		got, err := s.GetRule(ctx, "org-1", rule.RuleId)
		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, got.Status)

		events, err := s.ListAudit(ctx, "org-1", rule.RuleId)
		require.NoError(t, err)
		assert.Empty(t, events)

		txns, err := s.Ledger().Query(ctx, "org-1", constants.UniversalTableTransactions, nil)
		require.NoError(t, err)
		assert.Empty(t, txns)
	})

	t.Run("DeploymentRecords", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		rule := newTestRule("org-1", testSmartCode, 1, model.StatusDeploying)
		require.NoError(t, s.InsertRule(ctx, "org-1", rule))

		now := time.Now().UTC().Truncate(time.Microsecond)
		record := model.DeploymentRecord{
			DeploymentId:  "attempt-1",
			RuleId:        rule.RuleId,
			SmartCode:     rule.SmartCode,
			Scope:         model.Scope{Apps: []string{"pos"}, Locations: []string{"main"}},
			EffectiveFrom: now.Add(-time.Minute),
			Checklist:     model.Checklist{Tested: true, Reviewed: true, Approved: true, Documented: true, BackupPlan: true},
			Status:        model.DeploymentPending,
			CreatedAt:     now,
		}
		require.NoError(t, s.CreateDeployment(ctx, "org-1", record))
		assert.True(t, errors.IsConflict(s.CreateDeployment(ctx, "org-1", record)))

		got, err := s.GetDeployment(ctx, "org-1", "attempt-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"pos"}, got.Scope.Apps)
		assert.Nil(t, got.EffectiveTo)

		_, err = s.GetDeployment(ctx, "org-2", "attempt-1")
		assert.True(t, errors.IsNotFound(err))

		lister, ok := s.(DueDeploymentLister)
		require.True(t, ok)
		due, err := lister.ListDueDeployments(ctx, now, 10)
		require.NoError(t, err)
		require.Len(t, due, 1)

		got.Status = model.DeploymentCompleted
		got.CompletedAt = &now
		require.NoError(t, s.UpdateDeployment(ctx, "org-1", got))

		due, err = lister.ListDueDeployments(ctx, now, 10)
		require.NoError(t, err)
		assert.Empty(t, due)

		records, err := s.ListDeployments(ctx, "org-1", rule.RuleId)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, model.DeploymentCompleted, records[0].Status)
		require.NotNil(t, records[0].CompletedAt)
	})

	t.Run("ConcurrentActivationKeepsOneActive", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		const contenders = 8
		candidates := make([]model.Rule, contenders)
		for i := range candidates {
			candidates[i] = newTestRule("org-1", testSmartCode, i+1, model.StatusDeploying)
			require.NoError(t, s.InsertRule(ctx, "org-1", candidates[i]))
		}

		var wg sync.WaitGroup
		for _, candidate := range candidates {
			wg.Add(1)
			go func(candidate model.Rule) {
				defer wg.Done()
				_ = s.RunInTransaction(ctx, LockKey("org-1", testSmartCode), func(tx Store) error {
					active, err := tx.GetActiveRule(ctx, "org-1", testSmartCode)
					if err != nil {
						return err
					}
					if active != nil {
						if active.Version >= candidate.Version {
							return fmt.Errorf("newer version already active")
						}
						if err := tx.UpdateStatus(ctx, "org-1", active.RuleId, model.StatusSuperseded); err != nil {
							return err
						}
					}
					return tx.UpdateStatus(ctx, "org-1", candidate.RuleId, model.StatusActive)
				})
			}(candidate)
		}
		wg.Wait()

		rules, err := s.ListRules(ctx, "org-1", model.RuleFilter{Status: model.StatusActive})
		require.NoError(t, err)
		assert.Len(t, rules, 1)
	})
}

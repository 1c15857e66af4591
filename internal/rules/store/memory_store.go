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
	"sort"
	"sync"
	"time"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/system/universal"
)

type memoryState struct {
	rules           map[string]model.Rule
	ruleOrder       []string
	deployments     map[string]model.DeploymentRecord
	deploymentOrder []string
	audit           []model.AuditEvent
}

func (s *memoryState) clone() *memoryState {

	out := &memoryState{
		rules:           make(map[string]model.Rule, len(s.rules)),
		ruleOrder:       append([]string(nil), s.ruleOrder...),
		deployments:     make(map[string]model.DeploymentRecord, len(s.deployments)),
		deploymentOrder: append([]string(nil), s.deploymentOrder...),
		audit:           append([]model.AuditEvent(nil), s.audit...),
	}
	// Stored values are never mutated in place, so sharing them is safe.
	for id, rule := range s.rules {
		out.rules[id] = rule
	}
	for id, record := range s.deployments {
		out.deployments[id] = record
	}
	return out
}

// MemoryStore keeps everything in process. Transactions are serialized by a single mutex and
// work on a private copy of the state that replaces the committed state on success.
type MemoryStore struct {
	txMu   sync.Mutex
	mu     sync.RWMutex
	state  *memoryState
	ledger *universal.MemoryClient
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memoryState{
			rules:       map[string]model.Rule{},
			deployments: map[string]model.DeploymentRecord{},
		},
		ledger: universal.NewMemoryClient(),
	}
}

func (s *MemoryStore) view() *memoryTx {

	s.mu.RLock()
	defer s.mu.RUnlock()
	return &memoryTx{state: s.state, ledger: s.ledger}
}

func (s *MemoryStore) RunInTransaction(ctx context.Context, lockKey string, fn func(tx Store) error) error {

	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	tx := &memoryTx{state: s.state.clone(), ledger: s.ledger.Snapshot()}
	s.mu.RUnlock()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = tx.state
	s.ledger.Restore(tx.ledger)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) write(ctx context.Context, fn func(tx Store) error) error {
	return s.RunInTransaction(ctx, "", fn)
}

func (s *MemoryStore) CreateRule(ctx context.Context, orgID string, rule model.Rule) error {
	return s.write(ctx, func(tx Store) error { return tx.CreateRule(ctx, orgID, rule) })
}

func (s *MemoryStore) InsertRule(ctx context.Context, orgID string, rule model.Rule) error {
	return s.write(ctx, func(tx Store) error { return tx.InsertRule(ctx, orgID, rule) })
}

func (s *MemoryStore) GetRule(ctx context.Context, orgID, ruleID string) (model.Rule, error) {
	return s.view().GetRule(ctx, orgID, ruleID)
}

func (s *MemoryStore) GetActiveRule(ctx context.Context, orgID, smartCode string) (*model.Rule, error) {
	return s.view().GetActiveRule(ctx, orgID, smartCode)
}

func (s *MemoryStore) ListRules(ctx context.Context, orgID string, filter model.RuleFilter) ([]model.Rule, error) {
	return s.view().ListRules(ctx, orgID, filter)
}

func (s *MemoryStore) ListVersions(ctx context.Context, orgID, smartCode string) ([]model.Rule, error) {
	return s.view().ListVersions(ctx, orgID, smartCode)
}

func (s *MemoryStore) UpdateRule(ctx context.Context, orgID string, rule model.Rule) error {
	return s.write(ctx, func(tx Store) error { return tx.UpdateRule(ctx, orgID, rule) })
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, orgID, ruleID string, status model.RuleStatus) error {
	return s.write(ctx, func(tx Store) error { return tx.UpdateStatus(ctx, orgID, ruleID, status) })
}

func (s *MemoryStore) CreateDeployment(ctx context.Context, orgID string, record model.DeploymentRecord) error {
	return s.write(ctx, func(tx Store) error { return tx.CreateDeployment(ctx, orgID, record) })
}

func (s *MemoryStore) GetDeployment(ctx context.Context, orgID, deploymentID string) (model.DeploymentRecord, error) {
	return s.view().GetDeployment(ctx, orgID, deploymentID)
}

func (s *MemoryStore) ListDeployments(ctx context.Context, orgID, ruleID string) ([]model.DeploymentRecord, error) {
	return s.view().ListDeployments(ctx, orgID, ruleID)
}

func (s *MemoryStore) ListDueDeployments(ctx context.Context, now time.Time, limit int) ([]model.DeploymentRecord, error) {
	return s.view().listDueDeployments(ctx, now, limit)
}

func (s *MemoryStore) UpdateDeployment(ctx context.Context, orgID string, record model.DeploymentRecord) error {
	return s.write(ctx, func(tx Store) error { return tx.UpdateDeployment(ctx, orgID, record) })
}

func (s *MemoryStore) AppendAudit(ctx context.Context, orgID string, event model.AuditEvent) error {
	return s.write(ctx, func(tx Store) error { return tx.AppendAudit(ctx, orgID, event) })
}

func (s *MemoryStore) ListAudit(ctx context.Context, orgID, ruleID string) ([]model.AuditEvent, error) {
	return s.view().ListAudit(ctx, orgID, ruleID)
}

func (s *MemoryStore) Ledger() universal.ClientInterface {
	return s.ledger
}

// memoryTx is the Store handed to RunInTransaction callbacks. It owns its state copy.
type memoryTx struct {
	state  *memoryState
	ledger *universal.MemoryClient
}

func (t *memoryTx) RunInTransaction(ctx context.Context, _ string, fn func(tx Store) error) error {
	return fn(t)
}

func (t *memoryTx) Ledger() universal.ClientInterface {
	return t.ledger
}

func (t *memoryTx) activeRule(orgID, smartCode, exceptID string) *model.Rule {
	for _, id := range t.state.ruleOrder {
		rule := t.state.rules[id]
		if rule.OrgId == orgID && rule.SmartCode == smartCode && rule.Status == model.StatusActive &&
			rule.RuleId != exceptID {
			clone := rule.Clone()
			return &clone
		}
	}
	return nil
}

func (t *memoryTx) CreateRule(ctx context.Context, orgID string, rule model.Rule) error {

	if err := ctx.Err(); err != nil {
		return err
	}
	if t.activeRule(orgID, rule.SmartCode, "") != nil {
		return duplicateSmartCode(rule.SmartCode, "an active rule already uses this smart code")
	}
	return t.InsertRule(ctx, orgID, rule)
}

func (t *memoryTx) InsertRule(ctx context.Context, orgID string, rule model.Rule) error {

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, exists := t.state.rules[rule.RuleId]; exists {
		return duplicateSmartCode(rule.SmartCode, "rule id "+rule.RuleId+" already exists")
	}
	for _, id := range t.state.ruleOrder {
		existing := t.state.rules[id]
		if existing.OrgId == orgID && existing.SmartCode == rule.SmartCode &&
			existing.Version == rule.Version && existing.MinorVersion == rule.MinorVersion {
			return duplicateSmartCode(rule.SmartCode, "version "+rule.VersionLabel()+" already exists")
		}
	}
	if rule.Status == model.StatusActive && t.activeRule(orgID, rule.SmartCode, rule.RuleId) != nil {
		return activeConflict(rule.SmartCode)
	}
	rule.OrgId = orgID
	t.state.rules[rule.RuleId] = rule.Clone()
	t.state.ruleOrder = append(t.state.ruleOrder, rule.RuleId)
	return nil
}

func (t *memoryTx) GetRule(ctx context.Context, orgID, ruleID string) (model.Rule, error) {

	if err := ctx.Err(); err != nil {
		return model.Rule{}, err
	}
	rule, ok := t.state.rules[ruleID]
	if !ok || rule.OrgId != orgID {
		return model.Rule{}, ruleNotFound(ruleID)
	}
	return rule.Clone(), nil
}

func (t *memoryTx) GetActiveRule(ctx context.Context, orgID, smartCode string) (*model.Rule, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.activeRule(orgID, smartCode, ""), nil
}

func (t *memoryTx) ListRules(ctx context.Context, orgID string, filter model.RuleFilter) ([]model.Rule, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rules []model.Rule
	for _, id := range t.state.ruleOrder {
		rule := t.state.rules[id]
		if rule.OrgId == orgID && filter.Matches(rule) {
			rules = append(rules, rule.Clone())
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		if !rules[i].CreatedAt.Equal(rules[j].CreatedAt) {
			return rules[i].CreatedAt.Before(rules[j].CreatedAt)
		}
		return rules[i].RuleId < rules[j].RuleId
	})
	if filter.Limit > 0 && len(rules) > filter.Limit {
		rules = rules[:filter.Limit]
	}
	return rules, nil
}

func (t *memoryTx) ListVersions(ctx context.Context, orgID, smartCode string) ([]model.Rule, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rules []model.Rule
	for _, id := range t.state.ruleOrder {
		rule := t.state.rules[id]
		if rule.OrgId == orgID && rule.SmartCode == smartCode {
			rules = append(rules, rule.Clone())
		}
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].NewerThan(rules[j]) })
	return rules, nil
}

func (t *memoryTx) UpdateRule(ctx context.Context, orgID string, rule model.Rule) error {

	existing, err := t.GetRule(ctx, orgID, rule.RuleId)
	if err != nil {
		return err
	}
	if rule.Status == model.StatusActive && t.activeRule(orgID, existing.SmartCode, rule.RuleId) != nil {
		return activeConflict(existing.SmartCode)
	}
	// Identity and version columns are immutable.
	rule.OrgId = existing.OrgId
	rule.SmartCode = existing.SmartCode
	rule.Version = existing.Version
	rule.MinorVersion = existing.MinorVersion
	rule.ParentRuleId = existing.ParentRuleId
	rule.CreatedBy = existing.CreatedBy
	rule.CreatedAt = existing.CreatedAt
	t.state.rules[rule.RuleId] = rule.Clone()
	return nil
}

func (t *memoryTx) UpdateStatus(ctx context.Context, orgID, ruleID string, status model.RuleStatus) error {

	rule, err := t.GetRule(ctx, orgID, ruleID)
	if err != nil {
		return err
	}
	if status == model.StatusActive && t.activeRule(orgID, rule.SmartCode, ruleID) != nil {
		return activeConflict(rule.SmartCode)
	}
	rule.Status = status
	rule.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	t.state.rules[ruleID] = rule
	return nil
}

func deploymentKey(orgID, deploymentID string) string {
	return orgID + "|" + deploymentID
}

func (t *memoryTx) CreateDeployment(ctx context.Context, orgID string, record model.DeploymentRecord) error {

	if err := ctx.Err(); err != nil {
		return err
	}
	key := deploymentKey(orgID, record.DeploymentId)
	if _, exists := t.state.deployments[key]; exists {
		return duplicateDeployment(record.DeploymentId)
	}
	if _, err := t.GetRule(ctx, orgID, record.RuleId); err != nil {
		return err
	}
	record.OrgId = orgID
	t.state.deployments[key] = record.Clone()
	t.state.deploymentOrder = append(t.state.deploymentOrder, key)
	return nil
}

func (t *memoryTx) GetDeployment(ctx context.Context, orgID, deploymentID string) (model.DeploymentRecord, error) {

	if err := ctx.Err(); err != nil {
		return model.DeploymentRecord{}, err
	}
	record, ok := t.state.deployments[deploymentKey(orgID, deploymentID)]
	if !ok {
		return model.DeploymentRecord{}, deploymentNotFound(deploymentID)
	}
	return record.Clone(), nil
}

func (t *memoryTx) ListDeployments(ctx context.Context, orgID, ruleID string) ([]model.DeploymentRecord, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []model.DeploymentRecord
	for _, key := range t.state.deploymentOrder {
		record := t.state.deployments[key]
		if record.OrgId == orgID && record.RuleId == ruleID {
			records = append(records, record.Clone())
		}
	}
	return records, nil
}

func (t *memoryTx) listDueDeployments(ctx context.Context, now time.Time, limit int) ([]model.DeploymentRecord, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []model.DeploymentRecord
	for _, key := range t.state.deploymentOrder {
		record := t.state.deployments[key]
		if record.Status == model.DeploymentPending && !record.EffectiveFrom.After(now) {
			records = append(records, record.Clone())
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].EffectiveFrom.Before(records[j].EffectiveFrom)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (t *memoryTx) UpdateDeployment(ctx context.Context, orgID string, record model.DeploymentRecord) error {

	existing, err := t.GetDeployment(ctx, orgID, record.DeploymentId)
	if err != nil {
		return err
	}
	existing.Status = record.Status
	existing.CompletedAt = record.CompletedAt
	existing.RolledBackAt = record.RolledBackAt
	t.state.deployments[deploymentKey(orgID, record.DeploymentId)] = existing
	return nil
}

func (t *memoryTx) AppendAudit(ctx context.Context, orgID string, event model.AuditEvent) error {

	if err := ctx.Err(); err != nil {
		return err
	}
	event.OrgId = orgID
	event.Metadata = model.CopyMap(event.Metadata)
	t.state.audit = append(t.state.audit, event)
	return nil
}

func (t *memoryTx) ListAudit(ctx context.Context, orgID, ruleID string) ([]model.AuditEvent, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var events []model.AuditEvent
	for _, event := range t.state.audit {
		if event.OrgId == orgID && event.RuleId == ruleID {
			event.Metadata = model.CopyMap(event.Metadata)
			events = append(events, event)
		}
	}
	return events, nil
}

var (
	_ Store               = (*MemoryStore)(nil)
	_ DueDeploymentLister = (*MemoryStore)(nil)
)

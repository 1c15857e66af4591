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
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	"github.com/wso2/ucr-orchestrator/internal/system/database/client"
	"github.com/wso2/ucr-orchestrator/internal/system/database/lock"
	"github.com/wso2/ucr-orchestrator/internal/system/database/scripts"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
	"github.com/wso2/ucr-orchestrator/internal/system/universal"
)

const (
	dbType              = constants.DataSourcePostgres
	activeRuleIndexName = "ucr_rules_one_active"
)

// PostgresStore persists rules in PostgreSQL. The partial unique index on active rules backs the
// single active rule guarantee even if callers bypass the advisory lock.
type PostgresStore struct {
	pgQueries
	db client.DBClientInterface
}

func NewPostgresStore(db client.DBClientInterface) *PostgresStore {
	return &PostgresStore{pgQueries: pgQueries{q: db}, db: db}
}

func (s *PostgresStore) Ledger() universal.ClientInterface {
	return universal.NewPostgresClient(s.db)
}

func (s *PostgresStore) RunInTransaction(ctx context.Context, lockKey string, fn func(tx Store) error) error {

	logger := log.GetLogger()
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction", log.Error(err))
		return errors.NewServerError(errors.TX_BEGIN, err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Debug("Rollback after failed transaction reported an error", log.Error(rbErr))
		}
	}()

	if lockKey != "" {
		if err := lock.AcquireXactLock(ctx, tx, lockKey); err != nil {
			return err
		}
	}
	if err := fn(&pgTxStore{pgQueries: pgQueries{q: tx}, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit transaction", log.Error(err))
		return errors.NewServerError(errors.TX_COMMIT, err)
	}
	return nil
}

// pgTxStore is the Store handed to RunInTransaction callbacks.
type pgTxStore struct {
	pgQueries
	tx client.TxClientInterface
}

func (t *pgTxStore) Ledger() universal.ClientInterface {
	return universal.NewPostgresClient(t.tx)
}

// RunInTransaction joins the open transaction, taking the additional lock if one is named.
func (t *pgTxStore) RunInTransaction(ctx context.Context, lockKey string, fn func(tx Store) error) error {

	if lockKey != "" {
		if err := lock.AcquireXactLock(ctx, t.tx, lockKey); err != nil {
			return err
		}
	}
	return fn(t)
}

// pgQueries holds the statements shared by the pooled and the transactional store.
type pgQueries struct {
	q client.Querier
}

func (p pgQueries) CreateRule(ctx context.Context, orgID string, rule model.Rule) error {

	active, err := p.GetActiveRule(ctx, orgID, rule.SmartCode)
	if err != nil {
		return err
	}
	if active != nil {
		return duplicateSmartCode(rule.SmartCode, "an active rule already uses this smart code")
	}
	return p.InsertRule(ctx, orgID, rule)
}

func (p pgQueries) InsertRule(ctx context.Context, orgID string, rule model.Rule) error {

	payload, aiMetadata, approvals, err := encodeRuleColumns(rule)
	if err != nil {
		return err
	}
	_, err = p.q.Execute(ctx, scripts.InsertRule[dbType], rule.RuleId, orgID, rule.SmartCode, rule.Title,
		pq.Array(nonNilTags(rule.Tags)), rule.Owner, string(rule.Status), rule.Version, rule.MinorVersion,
		rule.SchemaVersion, payload, aiMetadata, rule.RequiresApproval, approvals, rule.ParentRuleId,
		rule.CreatedBy, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		if client.IsUniqueViolation(err) {
			if client.ConstraintOf(err) == activeRuleIndexName {
				return activeConflict(rule.SmartCode)
			}
			return duplicateSmartCode(rule.SmartCode, "version "+rule.VersionLabel()+" already exists")
		}
		errorMsg := fmt.Sprintf("Failed to insert rule %s", rule.RuleId)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return client.NewQueryError(err, errorMsg)
	}
	return nil
}

func (p pgQueries) GetRule(ctx context.Context, orgID, ruleID string) (model.Rule, error) {

	rules, err := p.queryRules(ctx, scripts.GetRuleById[dbType], orgID, ruleID)
	if err != nil {
		return model.Rule{}, err
	}
	if len(rules) == 0 {
		return model.Rule{}, ruleNotFound(ruleID)
	}
	return rules[0], nil
}

func (p pgQueries) GetActiveRule(ctx context.Context, orgID, smartCode string) (*model.Rule, error) {

	rules, err := p.queryRules(ctx, scripts.GetActiveRuleBySmartCode[dbType], orgID, smartCode)
	if err != nil || len(rules) == 0 {
		return nil, err
	}
	return &rules[0], nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes a user search term match literally inside an ILIKE pattern.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func (p pgQueries) ListRules(ctx context.Context, orgID string, filter model.RuleFilter) ([]model.Rule, error) {

	var query strings.Builder
	query.WriteString(scripts.ListRules[dbType])
	args := []interface{}{orgID}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		query.WriteString(" AND " + strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(args))))
	}
	if filter.Status != "" {
		add("status = ?", string(filter.Status))
	}
	if filter.SmartCode != "" {
		add("smart_code = ?", filter.SmartCode)
	}
	if filter.Tag != "" {
		add("? = ANY(tags)", filter.Tag)
	}
	if filter.Search != "" {
		add(`(title ILIKE ? ESCAPE '\' OR smart_code ILIKE ? ESCAPE '\' OR rule_payload->>'description' ILIKE ? ESCAPE '\')`,
			"%"+escapeLike(filter.Search)+"%")
	}
	if filter.After != nil {
		args = append(args, filter.After.CreatedAt, filter.After.RuleId)
		query.WriteString(fmt.Sprintf(" AND (created_at, rule_id) > ($%d, $%d)", len(args)-1, len(args)))
	}
	query.WriteString(" ORDER BY created_at ASC, rule_id ASC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}
	return p.queryRules(ctx, query.String(), args...)
}

func (p pgQueries) ListVersions(ctx context.Context, orgID, smartCode string) ([]model.Rule, error) {
	return p.queryRules(ctx, scripts.ListRuleVersions[dbType], orgID, smartCode)
}

func (p pgQueries) UpdateRule(ctx context.Context, orgID string, rule model.Rule) error {

	payload, aiMetadata, approvals, err := encodeRuleColumns(rule)
	if err != nil {
		return err
	}
	affected, err := p.q.Execute(ctx, scripts.UpdateRule[dbType], orgID, rule.RuleId, rule.Title,
		pq.Array(nonNilTags(rule.Tags)), rule.Owner, string(rule.Status), rule.SchemaVersion, payload, aiMetadata,
		rule.RequiresApproval, approvals, rule.UpdatedAt)
	return p.checkRuleWrite(affected, err, rule.RuleId, rule.SmartCode)
}

func (p pgQueries) UpdateStatus(ctx context.Context, orgID, ruleID string, status model.RuleStatus) error {

	affected, err := p.q.Execute(ctx, scripts.UpdateRuleStatus[dbType], orgID, ruleID, string(status),
		time.Now().UTC().Truncate(time.Microsecond))
	return p.checkRuleWrite(affected, err, ruleID, "")
}

func (p pgQueries) checkRuleWrite(affected int64, err error, ruleID, smartCode string) error {

	if err != nil {
		if client.IsUniqueViolation(err) && client.ConstraintOf(err) == activeRuleIndexName {
			if smartCode == "" {
				smartCode = "of rule " + ruleID
			}
			return activeConflict(smartCode)
		}
		errorMsg := fmt.Sprintf("Failed to update rule %s", ruleID)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return client.NewQueryError(err, errorMsg)
	}
	if affected == 0 {
		return ruleNotFound(ruleID)
	}
	return nil
}

func (p pgQueries) queryRules(ctx context.Context, query string, args ...interface{}) ([]model.Rule, error) {

	results, err := p.q.ExecuteQuery(ctx, query, args...)
	if err != nil {
		errorMsg := "Failed to read rules"
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return nil, client.NewQueryError(err, errorMsg)
	}
	rules := make([]model.Rule, 0, len(results))
	for _, row := range results {
		rule, err := decodeRule(row)
		if err != nil {
			return nil, errors.NewServerError(errors.ErrorMessage{
				Code:        errors.INVALID_ROW.Code,
				Message:     errors.INVALID_ROW.Message,
				Description: "Failed to decode rule " + client.StringValue(row["rule_id"]),
			}, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (p pgQueries) CreateDeployment(ctx context.Context, orgID string, record model.DeploymentRecord) error {

	scope, err := client.JSONParam(record.Scope)
	if err != nil {
		return errors.NewServerError(errors.MARSHAL_JSON, err)
	}
	approvals, err := client.JSONParam(nonNilApprovals(record.Approvals))
	if err != nil {
		return errors.NewServerError(errors.MARSHAL_JSON, err)
	}
	checklist, err := client.JSONParam(record.Checklist)
	if err != nil {
		return errors.NewServerError(errors.MARSHAL_JSON, err)
	}
	_, err = p.q.Execute(ctx, scripts.InsertDeployment[dbType], record.DeploymentId, orgID, record.RuleId,
		record.SmartCode, scope, record.EffectiveFrom, record.EffectiveTo, approvals, checklist,
		string(record.Status), record.CreatedBy, record.CreatedAt, record.CompletedAt, record.RolledBackAt)
	if err != nil {
		if client.IsUniqueViolation(err) {
			return duplicateDeployment(record.DeploymentId)
		}
		errorMsg := fmt.Sprintf("Failed to insert deployment %s", record.DeploymentId)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return client.NewQueryError(err, errorMsg)
	}
	return nil
}

func (p pgQueries) GetDeployment(ctx context.Context, orgID, deploymentID string) (model.DeploymentRecord, error) {

	records, err := p.queryDeployments(ctx, scripts.GetDeployment[dbType], orgID, deploymentID)
	if err != nil {
		return model.DeploymentRecord{}, err
	}
	if len(records) == 0 {
		return model.DeploymentRecord{}, deploymentNotFound(deploymentID)
	}
	return records[0], nil
}

func (p pgQueries) ListDeployments(ctx context.Context, orgID, ruleID string) ([]model.DeploymentRecord, error) {
	return p.queryDeployments(ctx, scripts.ListDeploymentsByRule[dbType], orgID, ruleID)
}

func (p pgQueries) ListDueDeployments(ctx context.Context, now time.Time, limit int) ([]model.DeploymentRecord, error) {
	return p.queryDeployments(ctx, scripts.ListDueDeployments[dbType], now, limit)
}

func (p pgQueries) UpdateDeployment(ctx context.Context, orgID string, record model.DeploymentRecord) error {

	affected, err := p.q.Execute(ctx, scripts.UpdateDeploymentStatus[dbType], orgID, record.DeploymentId,
		string(record.Status), record.CompletedAt, record.RolledBackAt)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to update deployment %s", record.DeploymentId)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return client.NewQueryError(err, errorMsg)
	}
	if affected == 0 {
		return deploymentNotFound(record.DeploymentId)
	}
	return nil
}

func (p pgQueries) queryDeployments(ctx context.Context, query string, args ...interface{}) ([]model.DeploymentRecord, error) {

	results, err := p.q.ExecuteQuery(ctx, query, args...)
	if err != nil {
		errorMsg := "Failed to read deployment records"
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return nil, client.NewQueryError(err, errorMsg)
	}
	records := make([]model.DeploymentRecord, 0, len(results))
	for _, row := range results {
		record, err := decodeDeployment(row)
		if err != nil {
			return nil, errors.NewServerError(errors.ErrorMessage{
				Code:        errors.INVALID_ROW.Code,
				Message:     errors.INVALID_ROW.Message,
				Description: "Failed to decode deployment " + client.StringValue(row["deployment_id"]),
			}, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (p pgQueries) AppendAudit(ctx context.Context, orgID string, event model.AuditEvent) error {

	metadata, err := client.JSONParam(event.Metadata)
	if err != nil {
		return errors.NewServerError(errors.MARSHAL_JSON, err)
	}
	_, err = p.q.Execute(ctx, scripts.InsertAuditEvent[dbType], event.EventId, orgID, event.RuleId,
		event.SmartCode, event.Action, string(event.FromStatus), string(event.ToStatus), event.Actor,
		event.TraceId, event.OccurredAt, metadata)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to append audit event %s for rule %s", event.Action, event.RuleId)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return client.NewQueryError(err, errorMsg)
	}
	return nil
}

func (p pgQueries) ListAudit(ctx context.Context, orgID, ruleID string) ([]model.AuditEvent, error) {

	results, err := p.q.ExecuteQuery(ctx, scripts.ListAuditEventsByRule[dbType], orgID, ruleID)
	if err != nil {
		return nil, client.NewQueryError(err, "Failed to read audit events of rule "+ruleID)
	}
	events := make([]model.AuditEvent, 0, len(results))
	for _, row := range results {
		occurredAt, err := client.TimeValue(row["occurred_at"])
		if err != nil {
			return nil, errors.NewServerError(errors.INVALID_ROW, err)
		}
		event := model.AuditEvent{
			EventId:    client.StringValue(row["event_id"]),
			OrgId:      client.StringValue(row["organization_id"]),
			RuleId:     client.StringValue(row["rule_id"]),
			SmartCode:  client.StringValue(row["smart_code"]),
			Action:     client.StringValue(row["action"]),
			FromStatus: model.RuleStatus(client.StringValue(row["from_status"])),
			ToStatus:   model.RuleStatus(client.StringValue(row["to_status"])),
			Actor:      client.StringValue(row["actor"]),
			TraceId:    client.StringValue(row["trace_id"]),
			OccurredAt: occurredAt,
		}
		if err := client.JSONValue(row["metadata"], &event.Metadata); err != nil {
			return nil, errors.NewServerError(errors.UNMARSHAL_JSON, err)
		}
		events = append(events, event)
	}
	return events, nil
}

var (
	_ Store               = (*PostgresStore)(nil)
	_ DueDeploymentLister = (*PostgresStore)(nil)
)

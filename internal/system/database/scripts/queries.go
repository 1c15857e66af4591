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
package scripts

import _ "embed"

// Schema is the idempotent DDL applied when datasource.init_schema is enabled.
//
//go:embed schema.sql
var Schema string

const ruleColumns = `rule_id, organization_id, smart_code, title, tags, owner, status, version, minor_version,
       schema_version, rule_payload::text, ai_metadata::text, requires_approval, approvals::text, parent_rule_id,
       created_by, created_at, updated_at`

var InsertRule = map[string]string{
	"postgres": `INSERT INTO ucr_rules (rule_id, organization_id, smart_code, title, tags, owner, status, version,
       minor_version, schema_version, rule_payload, ai_metadata, requires_approval, approvals, parent_rule_id,
       created_by, created_at, updated_at)
       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
}

var GetRuleById = map[string]string{
	"postgres": `SELECT ` + ruleColumns + ` FROM ucr_rules WHERE organization_id = $1 AND rule_id = $2`,
}

var GetActiveRuleBySmartCode = map[string]string{
	"postgres": `SELECT ` + ruleColumns + ` FROM ucr_rules
       WHERE organization_id = $1 AND smart_code = $2 AND status = 'active'`,
}

var ListRuleVersions = map[string]string{
	"postgres": `SELECT ` + ruleColumns + ` FROM ucr_rules WHERE organization_id = $1 AND smart_code = $2
       ORDER BY version DESC, minor_version DESC`,
}

// ListRules is completed with optional filter clauses by the store.
var ListRules = map[string]string{
	"postgres": `SELECT ` + ruleColumns + ` FROM ucr_rules WHERE organization_id = $1`,
}

var UpdateRule = map[string]string{
	"postgres": `UPDATE ucr_rules
       SET title = $3, tags = $4, owner = $5, status = $6, schema_version = $7, rule_payload = $8,
           ai_metadata = $9, requires_approval = $10, approvals = $11, updated_at = $12
       WHERE organization_id = $1 AND rule_id = $2`,
}

var UpdateRuleStatus = map[string]string{
	"postgres": `UPDATE ucr_rules SET status = $3, updated_at = $4 WHERE organization_id = $1 AND rule_id = $2`,
}

var InsertDeployment = map[string]string{
	"postgres": `INSERT INTO ucr_deployments (deployment_id, organization_id, rule_id, smart_code, scope,
       effective_from, effective_to, approvals, checklist, status, created_by, created_at, completed_at,
       rolled_back_at)
       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
}

const deploymentColumns = `deployment_id, organization_id, rule_id, smart_code, scope::text, effective_from,
       effective_to, approvals::text, checklist::text, status, created_by, created_at, completed_at, rolled_back_at`

var GetDeployment = map[string]string{
	"postgres": `SELECT ` + deploymentColumns + ` FROM ucr_deployments
       WHERE organization_id = $1 AND deployment_id = $2`,
}

var ListDeploymentsByRule = map[string]string{
	"postgres": `SELECT ` + deploymentColumns + ` FROM ucr_deployments
       WHERE organization_id = $1 AND rule_id = $2 ORDER BY created_at ASC`,
}

var ListDueDeployments = map[string]string{
	"postgres": `SELECT ` + deploymentColumns + ` FROM ucr_deployments
       WHERE status = 'pending' AND effective_from <= $1 ORDER BY effective_from ASC LIMIT $2`,
}

var UpdateDeploymentStatus = map[string]string{
	"postgres": `UPDATE ucr_deployments SET status = $3, completed_at = $4, rolled_back_at = $5
       WHERE organization_id = $1 AND deployment_id = $2`,
}

var InsertAuditEvent = map[string]string{
	"postgres": `INSERT INTO ucr_audit_events (event_id, organization_id, rule_id, smart_code, action, from_status,
       to_status, actor, trace_id, occurred_at, metadata)
       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
}

var ListAuditEventsByRule = map[string]string{
	"postgres": `SELECT event_id, organization_id, rule_id, smart_code, action, from_status, to_status, actor,
       trace_id, occurred_at, metadata::text FROM ucr_audit_events
       WHERE organization_id = $1 AND rule_id = $2 ORDER BY seq ASC`,
}

var InsertEntity = map[string]string{
	"postgres": `INSERT INTO core_entities (entity_id, organization_id, entity_type, entity_name, entity_code,
       smart_code, status, metadata, created_at)
       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
}

var UpsertDynamicField = map[string]string{
	"postgres": `INSERT INTO core_dynamic_data (organization_id, entity_id, field_name, field_value_json, updated_at)
       SELECT $1, $2, $3, $4, $5
       WHERE EXISTS (SELECT 1 FROM core_entities WHERE organization_id = $1 AND entity_id = $2)
       ON CONFLICT (entity_id, field_name)
       DO UPDATE SET field_value_json = EXCLUDED.field_value_json, updated_at = EXCLUDED.updated_at`,
}

var GetDynamicFields = map[string]string{
	"postgres": `SELECT field_name, field_value_json::text FROM core_dynamic_data
       WHERE organization_id = $1 AND entity_id = $2`,
}

var InsertTransaction = map[string]string{
	"postgres": `INSERT INTO universal_transactions (transaction_id, organization_id, transaction_type, smart_code,
       total_amount, metadata, created_at)
       VALUES ($1, $2, $3, $4, $5, $6, $7)`,
}

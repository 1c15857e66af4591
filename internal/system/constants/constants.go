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
package constants

const ApiBasePath = "/api/v1"
const RulesApiPath = "rules"
const RuleTemplatesApiPath = "rule-templates"
const RuleEventsApiPath = "rule-events"

const RuleResource = "rule"
const RuleTemplateResource = "rule template"
const DeploymentResource = "deployment"
const SimulationResource = "simulation"

type contextKey string

const TenantContextKey contextKey = "tenant"
const TraceIDContextKey contextKey = "trace_id"
const ActorContextKey contextKey = "actor"

const TraceIDHeader = "X-Trace-Id"

// Data source types
const (
	DataSourcePostgres = "postgres"
	DataSourceMemory   = "memory"
)

// Entity and transaction types recorded in the universal data store.
const (
	UniversalEntityTypeRule       = "ucr_rule"
	UniversalTxnTypeDeployment    = "UCR_DEPLOYMENT"
	UniversalTxnTypeRollback      = "UCR_ROLLBACK"
	UniversalTxnSmartCodeDeploy   = "HERA.UNIVERSAL.CONFIG.RULE.DEPLOY.v1"
	UniversalTxnSmartCodeRollback = "HERA.UNIVERSAL.CONFIG.RULE.ROLLBACK.v1"
)

const (
	UniversalDynamicFieldPayload = "rule_payload"
	UniversalDynamicFieldVersion = "rule_version"
	UniversalDynamicFieldTags    = "rule_tags"
	UniversalDynamicFieldStatus  = "rule_status"
)

const (
	UniversalTableEntities     = "core_entities"
	UniversalTableTransactions = "universal_transactions"
	UniversalTableDynamicData  = "core_dynamic_data"
)

const (
	DefaultSchemaVersion = 1
	DefaultRuleListLimit = 20
	MaxRuleListLimit     = 200
)

// AllowedFieldsForRulePatch lists the draft fields that PATCH /rules/{ruleId} may change.
var AllowedFieldsForRulePatch = map[string]bool{
	"title":          true,
	"tags":           true,
	"owner":          true,
	"rule_payload":   true,
	"ai_metadata":    true,
	"schema_version": true,
}

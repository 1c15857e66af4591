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
package universal

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	"github.com/wso2/ucr-orchestrator/internal/system/database/client"
	"github.com/wso2/ucr-orchestrator/internal/system/database/scripts"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

const dbType = constants.DataSourcePostgres

// selectColumns renders jsonb columns as text so they decode uniformly.
var selectColumns = map[string]string{
	constants.UniversalTableEntities: `entity_id, organization_id, entity_type, entity_name, entity_code, smart_code,
       status, metadata::text AS metadata, created_at`,
	constants.UniversalTableDynamicData: `organization_id, entity_id, field_name,
       field_value_json::text AS field_value_json, updated_at`,
	constants.UniversalTableTransactions: `transaction_id, organization_id, transaction_type, smart_code,
       total_amount::float8 AS total_amount, metadata::text AS metadata, created_at`,
}

var jsonColumns = map[string]bool{"metadata": true, "field_value_json": true}

// PostgresClient implements ClientInterface over the shared universal tables. It runs on whatever
// Querier it is given, so it joins the caller's transaction when built from one.
type PostgresClient struct {
	db client.Querier
}

func NewPostgresClient(db client.Querier) *PostgresClient {
	return &PostgresClient{db: db}
}

func (c *PostgresClient) CreateEntity(ctx context.Context, orgID string, req EntityRequest) (Entity, error) {

	entity := Entity{
		EntityId:   uuid.New().String(),
		OrgId:      orgID,
		EntityType: req.EntityType,
		EntityName: req.EntityName,
		EntityCode: req.EntityCode,
		SmartCode:  req.SmartCode,
		Status:     req.Status,
		Metadata:   req.Metadata,
		CreatedAt:  time.Now().UTC(),
	}
	metadata, err := client.JSONParam(entity.Metadata)
	if err != nil {
		return Entity{}, marshalError(err)
	}
	_, err = c.db.Execute(ctx, scripts.InsertEntity[dbType], entity.EntityId, orgID, entity.EntityType,
		entity.EntityName, entity.EntityCode, entity.SmartCode, entity.Status, metadata, entity.CreatedAt)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to create universal entity of type %s", req.EntityType)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return Entity{}, client.NewQueryError(err, errorMsg)
	}
	return entity, nil
}

func (c *PostgresClient) SetDynamicField(ctx context.Context, orgID, entityID, fieldName string, value interface{}) error {

	param, err := client.JSONParam(value)
	if err != nil {
		return marshalError(err)
	}
	affected, err := c.db.Execute(ctx, scripts.UpsertDynamicField[dbType], orgID, entityID, fieldName, param,
		time.Now().UTC())
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to set dynamic field %s on entity %s", fieldName, entityID)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return client.NewQueryError(err, errorMsg)
	}
	if affected == 0 {
		return entityNotFound(entityID)
	}
	return nil
}

func (c *PostgresClient) GetDynamicFields(ctx context.Context, orgID, entityID string) (map[string]interface{}, error) {

	rows, err := c.Query(ctx, orgID, constants.UniversalTableEntities, map[string]interface{}{"entity_id": entityID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, entityNotFound(entityID)
	}
	results, err := c.db.ExecuteQuery(ctx, scripts.GetDynamicFields[dbType], orgID, entityID)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to read dynamic fields of entity %s", entityID)
		return nil, client.NewQueryError(err, errorMsg)
	}
	fields := make(map[string]interface{}, len(results))
	for _, row := range results {
		var value interface{}
		if err := client.JSONValue(row["field_value_json"], &value); err != nil {
			return nil, marshalError(err)
		}
		fields[client.StringValue(row["field_name"])] = value
	}
	return fields, nil
}

func (c *PostgresClient) Query(ctx context.Context, orgID, table string,
	filters map[string]interface{}) ([]map[string]interface{}, error) {

	if err := validateQuery(table, filters); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var query strings.Builder
	query.WriteString("SELECT " + selectColumns[table] + " FROM " + table + " WHERE organization_id = $1")
	args := []interface{}{orgID}
	for _, key := range keys {
		args = append(args, filters[key])
		query.WriteString(fmt.Sprintf(" AND %s = $%d", key, len(args)))
	}

	results, err := c.db.ExecuteQuery(ctx, query.String(), args...)
	if err != nil {
		return nil, client.NewQueryError(err, "Failed to query "+table)
	}
	rows := make([]map[string]interface{}, 0, len(results))
	for _, result := range results {
		row := make(map[string]interface{}, len(result))
		for column, value := range result {
			if jsonColumns[column] {
				var decoded interface{}
				if err := client.JSONValue(value, &decoded); err != nil {
					return nil, marshalError(err)
				}
				row[column] = decoded
				continue
			}
			row[column] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (c *PostgresClient) CreateTransaction(ctx context.Context, orgID string, req TransactionRequest) (Transaction, error) {

	txn := Transaction{
		TransactionId:   uuid.New().String(),
		OrgId:           orgID,
		TransactionType: req.TransactionType,
		SmartCode:       req.SmartCode,
		TotalAmount:     req.TotalAmount,
		Metadata:        req.Metadata,
		CreatedAt:       time.Now().UTC(),
	}
	metadata, err := client.JSONParam(txn.Metadata)
	if err != nil {
		return Transaction{}, marshalError(err)
	}
	_, err = c.db.Execute(ctx, scripts.InsertTransaction[dbType], txn.TransactionId, orgID, txn.TransactionType,
		txn.SmartCode, txn.TotalAmount, metadata, txn.CreatedAt)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to record %s transaction", req.TransactionType)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return Transaction{}, client.NewQueryError(err, errorMsg)
	}
	return txn, nil
}

func marshalError(err error) error {
	return errors.NewServerError(errors.MARSHAL_JSON, err)
}

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
	"net/http"
	"regexp"
	"time"

	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
)

// Entity is a row of the shared core_entities table.
type Entity struct {
	EntityId   string                 `json:"id"`
	OrgId      string                 `json:"organization_id"`
	EntityType string                 `json:"entity_type"`
	EntityName string                 `json:"entity_name"`
	EntityCode string                 `json:"entity_code"`
	SmartCode  string                 `json:"smart_code"`
	Status     string                 `json:"status"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type EntityRequest struct {
	EntityType string
	EntityName string
	EntityCode string
	SmartCode  string
	Status     string
	Metadata   map[string]interface{}
}

// Transaction is a row of the shared ledger.
type Transaction struct {
	TransactionId   string                 `json:"id"`
	OrgId           string                 `json:"organization_id"`
	TransactionType string                 `json:"transaction_type"`
	SmartCode       string                 `json:"smart_code"`
	TotalAmount     float64                `json:"total_amount"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

type TransactionRequest struct {
	TransactionType string
	SmartCode       string
	TotalAmount     float64
	Metadata        map[string]interface{}
}

// ClientInterface is the organization scoped contract of the universal data store.
type ClientInterface interface {
	CreateEntity(ctx context.Context, orgID string, req EntityRequest) (Entity, error)
	SetDynamicField(ctx context.Context, orgID, entityID, fieldName string, value interface{}) error
	GetDynamicFields(ctx context.Context, orgID, entityID string) (map[string]interface{}, error)
	Query(ctx context.Context, orgID, table string, filters map[string]interface{}) ([]map[string]interface{}, error)
	CreateTransaction(ctx context.Context, orgID string, req TransactionRequest) (Transaction, error)
}

// queryableColumns lists the columns Query accepts as equality filters, per table.
var queryableColumns = map[string]map[string]bool{
	constants.UniversalTableEntities: {
		"entity_id": true, "entity_type": true, "entity_code": true, "smart_code": true, "status": true,
	},
	constants.UniversalTableDynamicData: {
		"entity_id": true, "field_name": true,
	},
	constants.UniversalTableTransactions: {
		"transaction_id": true, "transaction_type": true, "smart_code": true,
	},
}

var columnName = regexp.MustCompile(`^[a-z_]+$`)

func validateQuery(table string, filters map[string]interface{}) error {

	columns, ok := queryableColumns[table]
	if !ok {
		return invalidQuery("table " + table + " is not queryable")
	}
	for key := range filters {
		if !columnName.MatchString(key) || !columns[key] {
			return invalidQuery("column " + key + " cannot be used as a filter on " + table)
		}
	}
	return nil
}

func invalidQuery(description string) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:        errors.INVALID_QUERY.Code,
		Message:     errors.INVALID_QUERY.Message,
		Description: description,
	}, http.StatusBadRequest)
}

func entityNotFound(entityID string) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:        errors.ENTITY_NOT_FOUND.Code,
		Message:     errors.ENTITY_NOT_FOUND.Message,
		Description: "No entity " + entityID + " in the organization.",
	}, http.StatusNotFound)
}

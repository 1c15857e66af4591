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
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wso2/ucr-orchestrator/internal/system/constants"
)

type memoryField struct {
	value     interface{}
	updatedAt time.Time
}

type memoryState struct {
	entities     map[string]Entity
	entityOrder  []string
	fields       map[string]map[string]memoryField
	transactions []Transaction
}

// MemoryClient keeps the universal tables in process. Snapshot and Restore let a caller stage writes
// and publish them atomically.
type MemoryClient struct {
	mu    sync.RWMutex
	state *memoryState
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{state: &memoryState{
		entities: map[string]Entity{},
		fields:   map[string]map[string]memoryField{},
	}}
}

// Snapshot returns an independent copy of the client.
func (c *MemoryClient) Snapshot() *MemoryClient {

	c.mu.RLock()
	defer c.mu.RUnlock()
	state := &memoryState{
		entities:     make(map[string]Entity, len(c.state.entities)),
		entityOrder:  append([]string(nil), c.state.entityOrder...),
		fields:       make(map[string]map[string]memoryField, len(c.state.fields)),
		transactions: make([]Transaction, len(c.state.transactions)),
	}
	for id, entity := range c.state.entities {
		entity.Metadata = copyMap(entity.Metadata)
		state.entities[id] = entity
	}
	for id, fields := range c.state.fields {
		copied := make(map[string]memoryField, len(fields))
		for name, field := range fields {
			copied[name] = memoryField{value: copyValue(field.value), updatedAt: field.updatedAt}
		}
		state.fields[id] = copied
	}
	for i, txn := range c.state.transactions {
		txn.Metadata = copyMap(txn.Metadata)
		state.transactions[i] = txn
	}
	return &MemoryClient{state: state}
}

// Restore replaces the contents of the client with those of a snapshot.
func (c *MemoryClient) Restore(snapshot *MemoryClient) {

	snapshot.mu.RLock()
	state := snapshot.state
	snapshot.mu.RUnlock()

	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *MemoryClient) CreateEntity(ctx context.Context, orgID string, req EntityRequest) (Entity, error) {

	if err := ctx.Err(); err != nil {
		return Entity{}, err
	}
	entity := Entity{
		EntityId:   uuid.New().String(),
		OrgId:      orgID,
		EntityType: req.EntityType,
		EntityName: req.EntityName,
		EntityCode: req.EntityCode,
		SmartCode:  req.SmartCode,
		Status:     req.Status,
		Metadata:   copyMap(req.Metadata),
		CreatedAt:  time.Now().UTC(),
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.entities[entity.EntityId] = entity
	c.state.entityOrder = append(c.state.entityOrder, entity.EntityId)
	return entity, nil
}

func (c *MemoryClient) SetDynamicField(ctx context.Context, orgID, entityID, fieldName string, value interface{}) error {

	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entity, ok := c.state.entities[entityID]
	if !ok || entity.OrgId != orgID {
		return entityNotFound(entityID)
	}
	if c.state.fields[entityID] == nil {
		c.state.fields[entityID] = map[string]memoryField{}
	}
	c.state.fields[entityID][fieldName] = memoryField{value: copyValue(value), updatedAt: time.Now().UTC()}
	return nil
}

func (c *MemoryClient) GetDynamicFields(ctx context.Context, orgID, entityID string) (map[string]interface{}, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entity, ok := c.state.entities[entityID]
	if !ok || entity.OrgId != orgID {
		return nil, entityNotFound(entityID)
	}
	out := make(map[string]interface{}, len(c.state.fields[entityID]))
	for name, field := range c.state.fields[entityID] {
		out[name] = copyValue(field.value)
	}
	return out, nil
}

func (c *MemoryClient) Query(ctx context.Context, orgID, table string,
	filters map[string]interface{}) ([]map[string]interface{}, error) {

	if err := validateQuery(table, filters); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var rows []map[string]interface{}
	switch table {
	case constants.UniversalTableEntities:
		for _, id := range c.state.entityOrder {
			entity := c.state.entities[id]
			if entity.OrgId == orgID {
				rows = append(rows, entityRow(entity))
			}
		}
	case constants.UniversalTableDynamicData:
		for _, id := range c.state.entityOrder {
			if c.state.entities[id].OrgId != orgID {
				continue
			}
			names := make([]string, 0, len(c.state.fields[id]))
			for name := range c.state.fields[id] {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				field := c.state.fields[id][name]
				rows = append(rows, map[string]interface{}{
					"organization_id":  orgID,
					"entity_id":        id,
					"field_name":       name,
					"field_value_json": copyValue(field.value),
					"updated_at":       field.updatedAt,
				})
			}
		}
	case constants.UniversalTableTransactions:
		for _, txn := range c.state.transactions {
			if txn.OrgId == orgID {
				rows = append(rows, transactionRow(txn))
			}
		}
	}

	matched := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		if matches(row, filters) {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

func (c *MemoryClient) CreateTransaction(ctx context.Context, orgID string, req TransactionRequest) (Transaction, error) {

	if err := ctx.Err(); err != nil {
		return Transaction{}, err
	}
	txn := Transaction{
		TransactionId:   uuid.New().String(),
		OrgId:           orgID,
		TransactionType: req.TransactionType,
		SmartCode:       req.SmartCode,
		TotalAmount:     req.TotalAmount,
		Metadata:        copyMap(req.Metadata),
		CreatedAt:       time.Now().UTC(),
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.transactions = append(c.state.transactions, txn)
	return txn, nil
}

func entityRow(entity Entity) map[string]interface{} {
	return map[string]interface{}{
		"entity_id":       entity.EntityId,
		"organization_id": entity.OrgId,
		"entity_type":     entity.EntityType,
		"entity_name":     entity.EntityName,
		"entity_code":     entity.EntityCode,
		"smart_code":      entity.SmartCode,
		"status":          entity.Status,
		"metadata":        copyValue(entity.Metadata),
		"created_at":      entity.CreatedAt,
	}
}

func transactionRow(txn Transaction) map[string]interface{} {
	return map[string]interface{}{
		"transaction_id":   txn.TransactionId,
		"organization_id":  txn.OrgId,
		"transaction_type": txn.TransactionType,
		"smart_code":       txn.SmartCode,
		"total_amount":     txn.TotalAmount,
		"metadata":         copyValue(txn.Metadata),
		"created_at":       txn.CreatedAt,
	}
}

func matches(row, filters map[string]interface{}) bool {
	for key, want := range filters {
		if !reflect.DeepEqual(row[key], want) {
			return false
		}
	}
	return true
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for key, value := range m {
		out[key] = copyValue(value)
	}
	return out
}

func copyValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return copyMap(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = copyValue(item)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	}
	return value
}

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
package client

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

// Querier runs statements against either the pool or an open transaction.
type Querier interface {
	ExecuteQuery(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error)
	Execute(ctx context.Context, query string, args ...interface{}) (int64, error)
}

// DBClientInterface defines the interface for database operations.
type DBClientInterface interface {
	Querier
	BeginTx(ctx context.Context) (TxClientInterface, error)
	InitDatabase(ctx context.Context, schema string) error
	Ping(ctx context.Context) error
	Close() error
}

// TxClientInterface is a Querier bound to one transaction.
type TxClientInterface interface {
	Querier
	Commit() error
	Rollback() error
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// DBClient is the implementation of DBClientInterface.
type DBClient struct {
	db *sql.DB
}

// TxClient is the implementation of TxClientInterface.
type TxClient struct {
	tx *sql.Tx
}

// NewDBClient creates a new instance of DBClient with the provided database connection.
func NewDBClient(db *sql.DB) *DBClient {

	return &DBClient{
		db: db,
	}
}

// InitDatabase applies the given DDL. The statements must be idempotent.
func (client *DBClient) InitDatabase(ctx context.Context, schema string) error {

	if _, err := client.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	log.GetLogger().Info("Database schema created successfully")
	return nil
}

// ExecuteQuery executes a SELECT query and returns the result as a slice of maps.
func (client *DBClient) ExecuteQuery(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	return executeQuery(ctx, client.db, query, args...)
}

// Execute runs a statement that returns no rows and reports the affected row count.
func (client *DBClient) Execute(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return execute(ctx, client.db, query, args...)
}

// BeginTx starts a new database transaction.
func (client *DBClient) BeginTx(ctx context.Context) (TxClientInterface, error) {

	tx, err := client.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &TxClient{tx: tx}, nil
}

func (client *DBClient) Ping(ctx context.Context) error {
	return client.db.PingContext(ctx)
}

// Close closes the database connection.
func (client *DBClient) Close() error {
	return client.db.Close()
}

func (t *TxClient) ExecuteQuery(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	return executeQuery(ctx, t.tx, query, args...)
}

func (t *TxClient) Execute(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return execute(ctx, t.tx, query, args...)
}

func (t *TxClient) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction. Rolling back an already finished transaction is a no-op.
func (t *TxClient) Rollback() error {

	err := t.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}

func executeQuery(ctx context.Context, exec executor, query string, args ...interface{}) ([]map[string]interface{}, error) {

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	for rows.Next() {
		row := make([]interface{}, len(columns))
		rowPointers := make([]interface{}, len(columns))
		for i := range row {
			rowPointers[i] = &row[i]
		}

		if err := rows.Scan(rowPointers...); err != nil {
			return nil, err
		}

		result := map[string]interface{}{}
		for i, col := range columns {
			// Normalize column names to lowercase for consistency.
			result[strings.ToLower(col)] = row[i]
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

func execute(ctx context.Context, exec executor, query string, args ...interface{}) (int64, error) {

	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

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
package provider

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/wso2/ucr-orchestrator/internal/system/config"
	"github.com/wso2/ucr-orchestrator/internal/system/database/client"
)

// DBConfig represents the local database configuration.
type DBConfig struct {
	dsn          string
	driverName   string
	maxOpenConns int
}

// DBProviderInterface defines the interface for getting database clients.
type DBProviderInterface interface {
	GetDBClient(ctx context.Context) (client.DBClientInterface, error)
	Close() error
}

// DBProvider hands out a single pooled client built from the runtime datasource configuration.
type DBProvider struct {
	mu     sync.Mutex
	client *client.DBClient
	conf   config.DataSourceConfig
}

// NewDBProvider creates a new instance of DBProvider.
func NewDBProvider(conf config.DataSourceConfig) *DBProvider {

	return &DBProvider{conf: conf}
}

// GetDBClient returns the pooled client, opening and pinging the pool on first use.
func (d *DBProvider) GetDBClient(ctx context.Context) (client.DBClientInterface, error) {

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client != nil {
		return d.client, nil
	}

	dbConfig := getDBConfig(d.conf)
	db, err := sql.Open(dbConfig.driverName, dbConfig.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(dbConfig.maxOpenConns)
	db.SetMaxIdleConns(dbConfig.maxOpenConns / 2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// Test the database connection.
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	d.client = client.NewDBClient(db)
	return d.client, nil
}

// Close releases the pool if it was opened.
func (d *DBProvider) Close() error {

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

// getDBConfig returns the database configuration based on the provided data source.
func getDBConfig(dataSource config.DataSourceConfig) DBConfig {

	var dbConfig DBConfig

	dbConfig.driverName = "postgres"
	dbConfig.dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dataSource.Hostname, dataSource.Port, dataSource.Username, dataSource.Password,
		dataSource.Name, dataSource.SSLMode)
	dbConfig.maxOpenConns = dataSource.MaxOpenConns
	if dbConfig.maxOpenConns <= 0 {
		dbConfig.maxOpenConns = 10
	}

	return dbConfig
}

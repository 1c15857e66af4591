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
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	healthprovider "github.com/wso2/ucr-orchestrator/internal/health_check/provider"
	healthservice "github.com/wso2/ucr-orchestrator/internal/health_check/service"
	"github.com/wso2/ucr-orchestrator/internal/rules/audit"
	"github.com/wso2/ucr-orchestrator/internal/rules/deployment"
	"github.com/wso2/ucr-orchestrator/internal/rules/provider"
	"github.com/wso2/ucr-orchestrator/internal/rules/service"
	"github.com/wso2/ucr-orchestrator/internal/rules/simulation"
	"github.com/wso2/ucr-orchestrator/internal/rules/store"
	"github.com/wso2/ucr-orchestrator/internal/rules/templates"
	"github.com/wso2/ucr-orchestrator/internal/system/config"
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	dbprovider "github.com/wso2/ucr-orchestrator/internal/system/database/provider"
	"github.com/wso2/ucr-orchestrator/internal/system/database/scripts"
	"github.com/wso2/ucr-orchestrator/internal/system/events"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
	"github.com/wso2/ucr-orchestrator/internal/system/managers"
	"github.com/wso2/ucr-orchestrator/internal/system/metrics"
	"github.com/wso2/ucr-orchestrator/internal/system/security"
	"github.com/wso2/ucr-orchestrator/internal/system/workers"
)

const configFile = "/repository/conf/deployment.yaml"

// ruleStore is what the server needs from a data source.
type ruleStore interface {
	store.Store
	store.DueDeploymentLister
}

func main() {
	ucrHome := getUCRHome()

	envFiles, err := filepath.Glob(filepath.Join(ucrHome, "config", "*.env"))
	if err == nil && len(envFiles) > 0 {
		_ = godotenv.Load(envFiles...)
	}

	// Load the configuration file
	ucrConfig, err := config.LoadConfig(ucrHome, configFile)
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize runtime configurations.
	if err := config.InitializeUCRRuntime(ucrHome, ucrConfig); err != nil {
		stdlog.Fatalf("Failed to initialize UCR runtime: %v", err)
	}

	if err := log.InitWithFormat(ucrConfig.Log.LogLevel, ucrConfig.Log.Format); err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := log.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ruleStore, db, closeStore := initStore(ctx, ucrConfig.DataSource)
	defer closeStore()

	library, err := templates.NewLibrary(ucrConfig.Templates)
	if err != nil {
		logger.Fatal("Failed to load the rule template catalog", log.Error(err))
	}

	var collector *metrics.Collector
	if ucrConfig.Metrics.Enabled {
		collector = metrics.NewCollector()
	}

	broker := events.NewBroker(ucrConfig.Events.BufferSize)
	publisher := events.MultiPublisher{broker}
	if ucrConfig.Events.Kafka.Enabled {
		kafkaPublisher, err := events.NewKafkaPublisher(ucrConfig.Events.Kafka)
		if err != nil {
			logger.Fatal("Failed to initialize the kafka publisher", log.Error(err))
		}
		defer kafkaPublisher.Close()
		publisher = append(publisher, kafkaPublisher)
	}
	writer := audit.NewWriter(publisher, collector)

	orchestrator := deployment.NewOrchestrator(ruleStore, ruleStore, ucrConfig.Orchestrator, writer, collector)
	ruleService := service.NewRuleService(ruleStore, library, simulation.NewEngine(ucrConfig.Simulation), writer,
		collector, ucrConfig.Orchestrator)

	activationWorker := workers.NewActivationWorker(orchestrator,
		time.Duration(ucrConfig.Orchestrator.ActivationPollIntervalSeconds)*time.Second)
	activationWorker.Start(ctx)

	var metricsHandler http.Handler
	if collector != nil {
		metricsHandler = collector.Handler()
	}
	mux := initMultiplexer(provider.NewRulesProvider(ruleService, orchestrator, broker),
		healthprovider.NewHealthCheckProvider(db), metricsHandler)
	handler := security.EnableCORS(ucrConfig.Auth.CORSAllowedOrigins, security.WithTrace(mux))

	serverAddr := fmt.Sprintf("%s:%d", ucrConfig.Addr.Host, ucrConfig.Addr.Port)
	ln, err := net.Listen("tcp", serverAddr)
	if err != nil {
		logger.Fatal("Failed to start the listener", log.Error(err))
	}
	server := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down cleanly", log.Error(err))
		}
	}()

	logger.Info(fmt.Sprintf("WSO2 UCR orchestrator started in: %s", serverAddr))
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Failed to serve requests.", log.Error(err))
	}
	<-activationWorker.Done()
	logger.Info("WSO2 UCR orchestrator stopped.")
}

// initStore opens the configured data source. The returned pinger is nil for the in-memory store.
func initStore(ctx context.Context, dataSource config.DataSourceConfig) (ruleStore, healthservice.Pinger, func()) {

	logger := log.GetLogger()
	switch dataSource.Type {
	case constants.DataSourceMemory:
		logger.Warn("Using the in-memory data source; rules are lost on restart")
		return store.NewMemoryStore(), nil, func() {}

	case constants.DataSourcePostgres:
		dbProvider := dbprovider.NewDBProvider(dataSource)
		dbClient, err := dbProvider.GetDBClient(ctx)
		if err != nil {
			logger.Fatal("Failed to connect to the database", log.Error(err))
		}
		if dataSource.InitSchema {
			if err := dbClient.InitDatabase(ctx, scripts.Schema); err != nil {
				logger.Fatal("Failed to initialize the database schema", log.Error(err))
			}
		}
		logger.Info(fmt.Sprintf("PostgreSQL data source %s initialized", dataSource.Name))
		return store.NewPostgresStore(dbClient), dbClient, func() { _ = dbProvider.Close() }
	}

	logger.Fatal(fmt.Sprintf("Unsupported datasource type %q", dataSource.Type))
	return nil, nil, nil
}

// initMultiplexer initializes the HTTP multiplexer and registers the services.
func initMultiplexer(rulesProvider provider.RulesProviderInterface,
	healthProvider healthprovider.HealthCheckProviderInterface, metricsHandler http.Handler) *http.ServeMux {

	mux := http.NewServeMux()
	serviceManager := managers.NewServiceManager(mux, rulesProvider, healthProvider, metricsHandler)

	// Register the services.
	if err := serviceManager.RegisterServices(constants.ApiBasePath); err != nil {
		log.GetLogger().Error("Failed to register the services.", log.Error(err))
	}
	return mux
}

func getUCRHome() string {

	// Parse project directory from command line arguments.
	projectHome := ""
	projectHomeFlag := flag.String("ucrHome", "", "Path to the UCR orchestrator home directory")
	flag.Parse()

	if *projectHomeFlag != "" {
		projectHome = *projectHomeFlag
	} else {
		// If no command line argument is provided, use the current working directory.
		dir, dirErr := os.Getwd()
		if dirErr != nil {
			stdlog.Fatalf("Failed to get current working directory: %v", dirErr)
		}
		projectHome = dir
	}

	return projectHome
}

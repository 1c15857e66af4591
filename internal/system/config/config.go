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
package config

type AddrConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type LogConfig struct {
	LogLevel string `yaml:"log_level"`
	Format   string `yaml:"format"`
}

type AuthConfig struct {
	Enabled            bool                `yaml:"enabled"`
	JWTSecret          string              `yaml:"jwt_secret"`
	Audience           string              `yaml:"audience"`
	CORSAllowedOrigins []string            `yaml:"cors_allowed_origins"`
	RequiredScopes     map[string][]string `yaml:"required_scopes"`
}

type DataSourceConfig struct {
	Type         string `yaml:"type"`
	Hostname     string `yaml:"hostname"`
	Port         int    `yaml:"port"`
	Name         string `yaml:"name"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	SSLMode      string `yaml:"sslmode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	InitSchema   bool   `yaml:"init_schema"`
}

type OrchestratorConfig struct {
	RequiresApprovalDefault       *bool    `yaml:"requires_approval_default"`
	MinApprovals                  int      `yaml:"min_approvals"`
	ApproverRoles                 []string `yaml:"approver_roles"`
	ActivationPollIntervalSeconds int      `yaml:"activation_poll_interval_seconds"`
}

type TemplatesConfig struct {
	CatalogPath     string `yaml:"catalog_path"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

type SimulationConfig struct {
	MaxParallelism int `yaml:"max_parallelism"`
	MaxScenarios   int `yaml:"max_scenarios"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type EventsConfig struct {
	BufferSize int         `yaml:"buffer_size"`
	Kafka      KafkaConfig `yaml:"kafka"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	Addr         AddrConfig         `yaml:"addr"`
	Log          LogConfig          `yaml:"log"`
	Auth         AuthConfig         `yaml:"auth"`
	DataSource   DataSourceConfig   `yaml:"datasource"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Templates    TemplatesConfig    `yaml:"templates"`
	Simulation   SimulationConfig   `yaml:"simulation"`
	Events       EventsConfig       `yaml:"events"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// RequiresApprovalByDefault reports whether newly submitted rules need an explicit approval when the
// submit request does not say otherwise.
func (c OrchestratorConfig) RequiresApprovalByDefault() bool {
	if c.RequiresApprovalDefault == nil {
		return true
	}
	return *c.RequiresApprovalDefault
}

// ApplyDefaults fills zero values with the documented defaults.
func (c *Config) ApplyDefaults() {

	if c.Addr.Host == "" {
		c.Addr.Host = "0.0.0.0"
	}
	if c.Addr.Port == 0 {
		c.Addr.Port = 8900
	}
	if c.Log.LogLevel == "" {
		c.Log.LogLevel = "INFO"
	}
	if c.DataSource.Type == "" {
		c.DataSource.Type = "memory"
	}
	if c.DataSource.SSLMode == "" {
		c.DataSource.SSLMode = "disable"
	}
	if c.DataSource.MaxOpenConns == 0 {
		c.DataSource.MaxOpenConns = 20
	}
	if c.Auth.Audience == "" {
		c.Auth.Audience = "ucr-orchestrator"
	}
	if c.Orchestrator.MinApprovals <= 0 {
		c.Orchestrator.MinApprovals = 1
	}
	if len(c.Orchestrator.ApproverRoles) == 0 {
		c.Orchestrator.ApproverRoles = []string{"owner", "manager", "admin"}
	}
	if c.Orchestrator.ActivationPollIntervalSeconds <= 0 {
		c.Orchestrator.ActivationPollIntervalSeconds = 30
	}
	if c.Templates.CacheTTLSeconds <= 0 {
		c.Templates.CacheTTLSeconds = 600
	}
	if c.Simulation.MaxParallelism <= 0 {
		c.Simulation.MaxParallelism = 8
	}
	if c.Simulation.MaxScenarios <= 0 {
		c.Simulation.MaxScenarios = 500
	}
	if c.Events.BufferSize <= 0 {
		c.Events.BufferSize = 256
	}
	if c.Events.Kafka.Topic == "" {
		c.Events.Kafka.Topic = "ucr.rule.transitions"
	}
}

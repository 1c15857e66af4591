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

import (
	"os"
	"path"

	"gopkg.in/yaml.v2"
)

// LoadConfig reads the deployment YAML, expands environment references and applies defaults.
func LoadConfig(ucrHome, filePath string) (*Config, error) {
	file, err := os.ReadFile(path.Join(ucrHome, filePath))
	if err != nil {
		return nil, err
	}
	return ParseConfig(file)
}

// ParseConfig parses a deployment YAML document.
func ParseConfig(raw []byte) (*Config, error) {

	expanded := os.ExpandEnv(string(raw))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// OverrideUCRRuntime replaces the runtime configuration, used by tests.
func OverrideUCRRuntime(conf Config) {
	conf.ApplyDefaults()
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	runtimeConfig = &UCRRuntime{
		Config: conf,
	}
}

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

import "sync"

// UCRRuntime holds the runtime configuration for the orchestrator server.
type UCRRuntime struct {
	UCRHome string `yaml:"ucr_home"`
	Config  Config `yaml:"config"`
}

var (
	runtimeConfig *UCRRuntime
	runtimeMu     sync.RWMutex
	once          sync.Once
)

// InitializeUCRRuntime initializes the UCRRuntime configuration.
func InitializeUCRRuntime(ucrHome string, config *Config) error {

	once.Do(func() {
		runtimeMu.Lock()
		defer runtimeMu.Unlock()
		runtimeConfig = &UCRRuntime{
			UCRHome: ucrHome,
			Config:  *config,
		}
	})

	return nil
}

// GetUCRRuntime returns the UCRRuntime configuration.
func GetUCRRuntime() *UCRRuntime {

	runtimeMu.RLock()
	defer runtimeMu.RUnlock()
	if runtimeConfig == nil {
		panic("UCRRuntime is not initialized")
	}
	return runtimeConfig
}

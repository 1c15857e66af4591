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
	"github.com/wso2/ucr-orchestrator/internal/rules/deployment"
	"github.com/wso2/ucr-orchestrator/internal/rules/service"
	"github.com/wso2/ucr-orchestrator/internal/system/events"
)

// RulesProviderInterface hands the rule handlers the services they call.
type RulesProviderInterface interface {
	GetRuleService() service.RuleServiceInterface
	GetOrchestrator() deployment.OrchestratorInterface
	GetEventBroker() *events.Broker
}

// RulesProvider is the default implementation of the RulesProviderInterface.
type RulesProvider struct {
	ruleService  service.RuleServiceInterface
	orchestrator deployment.OrchestratorInterface
	broker       *events.Broker
}

// NewRulesProvider creates a provider over already wired services.
func NewRulesProvider(ruleService service.RuleServiceInterface, orchestrator deployment.OrchestratorInterface,
	broker *events.Broker) RulesProviderInterface {

	return &RulesProvider{
		ruleService:  ruleService,
		orchestrator: orchestrator,
		broker:       broker,
	}
}

// GetRuleService returns the rule authoring service instance.
func (rp *RulesProvider) GetRuleService() service.RuleServiceInterface {

	return rp.ruleService
}

// GetOrchestrator returns the lifecycle orchestrator instance.
func (rp *RulesProvider) GetOrchestrator() deployment.OrchestratorInterface {

	return rp.orchestrator
}

// GetEventBroker returns the broker feeding the rule event stream. It may be nil.
func (rp *RulesProvider) GetEventBroker() *events.Broker {

	return rp.broker
}

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
package services

import (
	"net/http"
	"strings"

	"github.com/wso2/ucr-orchestrator/internal/rules/handler"
	"github.com/wso2/ucr-orchestrator/internal/rules/provider"
)

type RulesService struct {
	handler *handler.RuleHandler
}

func NewRulesService(rulesProvider provider.RulesProviderInterface) *RulesService {
	return &RulesService{
		handler: handler.NewRuleHandler(rulesProvider),
	}
}

// Route handles tenant-aware rule, deployment, template and event endpoints.
func (s *RulesService) Route(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	method := r.Method

	switch {
	case path == "/rule-events":
		if method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handler.StreamEvents(w, r)
	case path == "/rule-templates" || strings.HasPrefix(path, "/rule-templates/"):
		s.routeTemplates(w, r, strings.TrimPrefix(path, "/rule-templates"), method)
	case strings.HasPrefix(path, "/deployments/"):
		s.routeDeployments(w, r, strings.TrimPrefix(path, "/deployments/"), method)
	case path == "/rules" || strings.HasPrefix(path, "/rules/"):
		s.routeRules(w, r, strings.TrimPrefix(path, "/rules"), method)
	default:
		http.NotFound(w, r)
	}
}

func (s *RulesService) routeTemplates(w http.ResponseWriter, r *http.Request, rest, method string) {

	if rest == "" {
		if method == http.MethodGet {
			s.handler.ListTemplates(w, r)
			return
		}
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	// /rule-templates/{templateId}/clone
	parts := strings.Split(strings.TrimPrefix(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "clone" {
		http.NotFound(w, r)
		return
	}
	if method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	s.handler.CloneTemplate(w, r, parts[0])
}

func (s *RulesService) routeDeployments(w http.ResponseWriter, r *http.Request, rest, method string) {

	// /deployments/{deploymentId}/activate
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "activate" {
		http.NotFound(w, r)
		return
	}
	if method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	s.handler.ActivateDeployment(w, r, parts[0])
}

func (s *RulesService) routeRules(w http.ResponseWriter, r *http.Request, rest, method string) {

	// Handle collection-level operations
	if rest == "" {
		switch method {
		case http.MethodGet:
			s.handler.ListRules(w, r)
		case http.MethodPost:
			s.handler.CreateRule(w, r)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	parts := strings.Split(strings.TrimPrefix(rest, "/"), "/")
	if parts[0] == "" {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 && method == http.MethodPost {
		switch parts[0] {
		case "validate":
			s.handler.ValidateDraft(w, r)
		case "simulate":
			s.handler.Simulate(w, r)
		case "rollback":
			s.handler.Rollback(w, r)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if parts[0] == "smart-code" {
		if len(parts) != 2 || parts[1] == "" {
			http.NotFound(w, r)
			return
		}
		if method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handler.GetRuleBySmartCode(w, r, parts[1])
		return
	}

	ruleID := parts[0]
	switch len(parts) {
	case 1:
		switch method {
		case http.MethodGet:
			s.handler.GetRule(w, r, ruleID)
		case http.MethodPatch:
			s.handler.PatchRule(w, r, ruleID)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	case 2:
		s.routeRuleAction(w, r, ruleID, parts[1], method)
	case 3:
		if parts[1] != "diff" || parts[2] == "" {
			http.NotFound(w, r)
			return
		}
		if method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handler.Diff(w, r, ruleID, parts[2])
	default:
		http.NotFound(w, r)
	}
}

var ruleReads = map[string]bool{"deployments": true, "audit": true}

func (s *RulesService) routeRuleAction(w http.ResponseWriter, r *http.Request, ruleID, action, method string) {

	if ruleReads[action] {
		if method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		if action == "deployments" {
			s.handler.ListDeployments(w, r, ruleID)
		} else {
			s.handler.ListAudit(w, r, ruleID)
		}
		return
	}

	handlers := map[string]func(http.ResponseWriter, *http.Request, string){
		"validate":  s.handler.ValidateRule,
		"versions":  s.handler.BumpVersion,
		"submit":    s.handler.Submit,
		"approve":   s.handler.Approve,
		"reject":    s.handler.Reject,
		"deploy":    s.handler.Deploy,
		"deprecate": s.handler.Deprecate,
	}
	handle, ok := handlers[action]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	handle(w, r, ruleID)
}

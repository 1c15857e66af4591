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
package model

// Template is a read-only starter rule from the catalog.
type Template struct {
	TemplateId string      `json:"template_id" yaml:"template_id"`
	Industry   string      `json:"industry" yaml:"industry"`
	Module     string      `json:"module" yaml:"module"`
	SmartCode  string      `json:"smart_code" yaml:"smart_code"`
	Title      string      `json:"title" yaml:"title"`
	Tags       []string    `json:"tags,omitempty" yaml:"tags"`
	Payload    RulePayload `json:"rule_payload" yaml:"-"`
}

// Clone returns a deep copy of the template.
func (t Template) Clone() Template {
	out := t
	out.Tags = append([]string(nil), t.Tags...)
	out.Payload = t.Payload.Clone()
	return out
}

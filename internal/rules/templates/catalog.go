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
package templates

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
)

//go:embed catalog.yaml
var builtinCatalog []byte

type catalogFile struct {
	Templates []interface{} `yaml:"templates"`
}

// ParseCatalog decodes a YAML template catalog.
func ParseCatalog(raw []byte) ([]model.Template, error) {

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse template catalog: %w", err)
	}
	templates := make([]model.Template, 0, len(file.Templates))
	for i, entry := range file.Templates {
		// yaml.v2 decodes mappings with interface{} keys; JSON is the canonical form of a payload.
		encoded, err := json.Marshal(normalize(entry))
		if err != nil {
			return nil, fmt.Errorf("template #%d: %w", i, err)
		}
		var template model.Template
		if err := json.Unmarshal(encoded, &template); err != nil {
			return nil, fmt.Errorf("template #%d: %w", i, err)
		}
		if template.TemplateId == "" {
			return nil, fmt.Errorf("template #%d: template_id is required", i)
		}
		template.Tags = model.NormalizeTags(template.Tags)
		templates = append(templates, template)
	}
	return templates, nil
}

func normalize(value interface{}) interface{} {

	switch v := value.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalize(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	}
	return value
}

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
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/system/cache"
	"github.com/wso2/ucr-orchestrator/internal/system/config"
	"github.com/wso2/ucr-orchestrator/internal/system/constants"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

// Library is the read-only catalog of starter rules.
type Library struct {
	byID     map[string]model.Template
	listings *cache.Cache[[]model.Template]
}

// NewLibrary loads the built-in catalog and merges the operator catalog on top of it.
func NewLibrary(conf config.TemplatesConfig) (*Library, error) {

	templates, err := ParseCatalog(builtinCatalog)
	if err != nil {
		return nil, errors.NewServerError(errors.LOAD_TEMPLATES, err)
	}
	if conf.CatalogPath != "" {
		raw, err := os.ReadFile(conf.CatalogPath)
		if err != nil {
			return nil, errors.NewServerError(errors.ErrorMessage{
				Code:        errors.LOAD_TEMPLATES.Code,
				Message:     errors.LOAD_TEMPLATES.Message,
				Description: "Cannot read " + conf.CatalogPath,
			}, err)
		}
		extra, err := ParseCatalog(raw)
		if err != nil {
			return nil, errors.NewServerError(errors.LOAD_TEMPLATES, err)
		}
		templates = append(templates, extra...)
		log.GetLogger().Info(fmt.Sprintf("Loaded %d templates from %s", len(extra), conf.CatalogPath))
	}
	return NewLibraryFromTemplates(templates, time.Duration(conf.CacheTTLSeconds)*time.Second), nil
}

// NewLibraryFromTemplates builds a library from already parsed templates. Later entries replace
// earlier ones with the same template_id.
func NewLibraryFromTemplates(templates []model.Template, cacheTTL time.Duration) *Library {

	byID := make(map[string]model.Template, len(templates))
	for _, template := range templates {
		byID[template.TemplateId] = template.Clone()
	}
	return &Library{byID: byID, listings: cache.NewCache[[]model.Template](cacheTTL)}
}

// ListTemplates returns templates ordered by id. Empty filters match everything; matching is case
// insensitive.
func (l *Library) ListTemplates(industry, module string) []model.Template {

	key := strings.ToLower(industry) + "|" + strings.ToLower(module)
	listing, ok := l.listings.Get(key)
	if !ok {
		listing = make([]model.Template, 0, len(l.byID))
		for _, template := range l.byID {
			if industry != "" && !strings.EqualFold(template.Industry, industry) {
				continue
			}
			if module != "" && !strings.EqualFold(template.Module, module) {
				continue
			}
			listing = append(listing, template)
		}
		sort.Slice(listing, func(i, j int) bool { return listing[i].TemplateId < listing[j].TemplateId })
		l.listings.Set(key, listing)
	}

	out := make([]model.Template, len(listing))
	for i, template := range listing {
		out[i] = template.Clone()
	}
	return out
}

func (l *Library) GetTemplate(templateID string) (model.Template, error) {

	template, ok := l.byID[templateID]
	if !ok {
		return model.Template{}, errors.NewClientError(errors.ErrorMessage{
			Code:        errors.TEMPLATE_NOT_FOUND.Code,
			Message:     errors.TEMPLATE_NOT_FOUND.Message,
			Description: fmt.Sprintf("No template with id %s.", templateID),
		}, http.StatusNotFound)
	}
	return template.Clone(), nil
}

// Clone instantiates a template as a new draft rule owned by orgID. The payload is deep copied so
// the catalog entry can never be changed through the rule. An empty targetSmartCode keeps the
// template's smart code.
func (l *Library) Clone(templateID, targetSmartCode, orgID string) (model.Rule, error) {

	template, err := l.GetTemplate(templateID)
	if err != nil {
		return model.Rule{}, err
	}
	smartCode := targetSmartCode
	if smartCode == "" {
		smartCode = template.SmartCode
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	return model.Rule{
		RuleId:        uuid.New().String(),
		OrgId:         orgID,
		SmartCode:     smartCode,
		Title:         template.Title,
		Tags:          model.NormalizeTags(template.Tags),
		Status:        model.StatusDraft,
		Version:       1,
		SchemaVersion: constants.DefaultSchemaVersion,
		Payload:       template.Payload.Clone(),
		AIMetadata: map[string]interface{}{
			"source_template": template.TemplateId,
			"industry":        template.Industry,
			"module":          template.Module,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/rules/validator"
	"github.com/wso2/ucr-orchestrator/internal/system/config"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
)

func newTestLibrary(t *testing.T) *Library {
	library, err := NewLibrary(config.TemplatesConfig{CacheTTLSeconds: 60})
	require.NoError(t, err)
	return library
}

func TestBuiltinCatalog(t *testing.T) {
	library := newTestLibrary(t)

	all := library.ListTemplates("", "")
	require.Len(t, all, 3)
	assert.Equal(t, "restaurant-discount-cap", all[0].TemplateId)
	for _, template := range all {
		assert.True(t, validator.IsValidSmartCode(template.SmartCode), template.SmartCode)
		assert.NotEmpty(t, template.Payload.Description)
	}

	salon := library.ListTemplates("SALON", "booking")
	assert.Len(t, salon, 2)
	assert.Empty(t, library.ListTemplates("furniture", ""))
}

func TestListTemplates_ReturnsCopies(t *testing.T) {
	library := newTestLibrary(t)

	first := library.ListTemplates("restaurant", "")
	first[0].Payload.Definitions["max_discount_pct"] = 99

	second := library.ListTemplates("restaurant", "")
	assert.Equal(t, float64(15), second[0].Payload.Definitions["max_discount_pct"])
}

func TestClone_IndependentRules(t *testing.T) {
	library := newTestLibrary(t)

	a, err := library.Clone("salon-cancellation-policy", "HERA.SALON.BOOKING.CANCEL_A.v1", "org-1")
	require.NoError(t, err)
	b, err := library.Clone("salon-cancellation-policy", "HERA.SALON.BOOKING.CANCEL_B.v1", "org-1")
	require.NoError(t, err)

	assert.NotEqual(t, a.RuleId, b.RuleId)
	assert.Equal(t, a.Payload, b.Payload)
	assert.Equal(t, model.StatusDraft, a.Status)
	assert.Equal(t, 1, a.Version)
	assert.Equal(t, "org-1", a.OrgId)

	a.Payload.Definitions["grace_minutes"] = 0
	a.Payload.Exceptions[0].Then["no_show_fee_pct"] = 0
	assert.Equal(t, float64(15), b.Payload.Definitions["grace_minutes"])
	assert.Equal(t, float64(25), b.Payload.Exceptions[0].Then["no_show_fee_pct"])

	template, err := library.GetTemplate("salon-cancellation-policy")
	require.NoError(t, err)
	assert.Equal(t, float64(15), template.Payload.Definitions["grace_minutes"])
}

func TestClone_UnknownTemplate(t *testing.T) {
	_, err := newTestLibrary(t).Clone("missing", "HERA.SALON.BOOKING.X.v1", "org-1")
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, errors.TEMPLATE_NOT_FOUND.Code, errors.CodeOf(err))
}

func TestNewLibrary_OperatorCatalogOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
templates:
  - template_id: salon-booking-window
    industry: salon
    module: booking
    smart_code: HERA.SALON.BOOKING.WINDOW.v2
    title: Overridden window
    rule_payload:
      description: Custom window
      definitions:
        max_advance_days: 14
  - template_id: furniture-delivery-fee
    industry: furniture
    module: delivery
    smart_code: HERA.FURN.DELIVERY.FEE.v1
    title: Delivery fee
    rule_payload:
      description: Flat delivery fee
      definitions:
        fee: 40
`), 0o600))

	library, err := NewLibrary(config.TemplatesConfig{CatalogPath: path})
	require.NoError(t, err)

	window, err := library.GetTemplate("salon-booking-window")
	require.NoError(t, err)
	assert.Equal(t, "Overridden window", window.Title)
	assert.Len(t, library.ListTemplates("", ""), 4)
}

func TestNewLibrary_MissingOperatorCatalog(t *testing.T) {
	_, err := NewLibrary(config.TemplatesConfig{CatalogPath: "/nonexistent/catalog.yaml"})
	assert.True(t, errors.IsStorage(err))
}

func TestListTemplates_CacheDisabled(t *testing.T) {
	templates, err := ParseCatalog(builtinCatalog)
	require.NoError(t, err)
	library := NewLibraryFromTemplates(templates, 0)
	assert.Len(t, library.ListTemplates("salon", ""), 2)
	assert.Len(t, library.ListTemplates("salon", ""), 2)
}

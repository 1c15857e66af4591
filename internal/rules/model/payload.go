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

import (
	"encoding/json"
	"sort"
)

// Known top-level sections of a rule payload.
const (
	SectionDescription     = "description"
	SectionDefinitions     = "definitions"
	SectionExceptions      = "exceptions"
	SectionCalendarEffects = "calendar_effects"
	SectionNotifications   = "notifications"
)

// RulePayload is the typed form of a rule document. Sections the service does not know about are
// kept in Extensions and written back unchanged.
type RulePayload struct {
	Description     string
	Definitions     map[string]interface{}
	Exceptions      []Exception
	CalendarEffects map[string]interface{}
	Notifications   map[string]interface{}
	Extensions      map[string]interface{}
}

// Exception overrides definitions when every condition in If matches the evaluation context.
type Exception struct {
	If   map[string]interface{} `json:"if"`
	Then map[string]interface{} `json:"then"`
}

// Clone returns a deep copy of the payload.
func (p RulePayload) Clone() RulePayload {
	out := RulePayload{
		Description:     p.Description,
		Definitions:     CopyMap(p.Definitions),
		CalendarEffects: CopyMap(p.CalendarEffects),
		Notifications:   CopyMap(p.Notifications),
		Extensions:      CopyMap(p.Extensions),
	}
	if p.Exceptions != nil {
		out.Exceptions = make([]Exception, len(p.Exceptions))
		for i, exception := range p.Exceptions {
			out.Exceptions[i] = Exception{If: CopyMap(exception.If), Then: CopyMap(exception.Then)}
		}
	}
	return out
}

// ToMap renders the payload as a generic document with the known sections and extensions merged.
func (p RulePayload) ToMap() map[string]interface{} {
	doc := CopyMap(p.Extensions)
	if doc == nil {
		doc = map[string]interface{}{}
	}
	doc[SectionDescription] = p.Description
	if p.Definitions != nil {
		doc[SectionDefinitions] = CopyMap(p.Definitions)
	}
	if p.Exceptions != nil {
		exceptions := make([]interface{}, len(p.Exceptions))
		for i, exception := range p.Exceptions {
			exceptions[i] = map[string]interface{}{
				"if":   CopyMap(exception.If),
				"then": CopyMap(exception.Then),
			}
		}
		doc[SectionExceptions] = exceptions
	}
	if p.CalendarEffects != nil {
		doc[SectionCalendarEffects] = CopyMap(p.CalendarEffects)
	}
	if p.Notifications != nil {
		doc[SectionNotifications] = CopyMap(p.Notifications)
	}
	return doc
}

func (p RulePayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToMap())
}

func (p *RulePayload) UnmarshalJSON(data []byte) error {

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := RulePayload{}
	for key, value := range raw {
		var err error
		switch key {
		case SectionDescription:
			err = json.Unmarshal(value, &out.Description)
		case SectionDefinitions:
			err = json.Unmarshal(value, &out.Definitions)
		case SectionExceptions:
			err = json.Unmarshal(value, &out.Exceptions)
		case SectionCalendarEffects:
			err = json.Unmarshal(value, &out.CalendarEffects)
		case SectionNotifications:
			err = json.Unmarshal(value, &out.Notifications)
		default:
			var extension interface{}
			err = json.Unmarshal(value, &extension)
			if err == nil {
				if out.Extensions == nil {
					out.Extensions = map[string]interface{}{}
				}
				out.Extensions[key] = extension
			}
		}
		if err != nil {
			return &PayloadSectionError{Section: key, Err: err}
		}
	}
	*p = out
	return nil
}

// PayloadSectionError reports which payload section failed to decode.
type PayloadSectionError struct {
	Section string
	Err     error
}

func (e *PayloadSectionError) Error() string {
	return "invalid rule_payload." + e.Section + ": " + e.Err.Error()
}

func (e *PayloadSectionError) Unwrap() error {
	return e.Err
}

// PayloadFromMap converts a generic document into a typed payload.
func PayloadFromMap(doc map[string]interface{}) (RulePayload, error) {
	var payload RulePayload
	raw, err := json.Marshal(doc)
	if err != nil {
		return payload, err
	}
	err = json.Unmarshal(raw, &payload)
	return payload, err
}

// SortedKeys returns the keys of a map in lexical order.
func SortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// CopyMap deep copies a JSON-like map. A nil map stays nil.
func CopyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for key, value := range m {
		out[key] = CopyValue(value)
	}
	return out
}

// CopyValue deep copies the container types produced by encoding/json and the common typed
// slices and maps callers build by hand. Scalars are returned as is.
func CopyValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return CopyMap(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = CopyValue(item)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for key, item := range v {
			out[key] = item
		}
		return out
	case []string:
		return append([]string(nil), v...)
	case []int:
		return append([]int(nil), v...)
	case []float64:
		return append([]float64(nil), v...)
	}
	return value
}

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
package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// The helpers below convert the loosely typed values returned by ExecuteQuery.

func StringValue(v interface{}) string {

	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case []byte:
		return string(value)
	}
	return fmt.Sprint(v)
}

func IntValue(v interface{}) (int, error) {

	switch value := v.(type) {
	case int64:
		return int(value), nil
	case int32:
		return int(value), nil
	case int:
		return value, nil
	case float64:
		return int(value), nil
	}
	return 0, fmt.Errorf("unexpected integer column value %T", v)
}

func FloatValue(v interface{}) (float64, error) {

	switch value := v.(type) {
	case float64:
		return value, nil
	case int64:
		return float64(value), nil
	case []byte:
		var f float64
		_, err := fmt.Sscan(string(value), &f)
		return f, err
	case string:
		var f float64
		_, err := fmt.Sscan(value, &f)
		return f, err
	}
	return 0, fmt.Errorf("unexpected numeric column value %T", v)
}

func BoolValue(v interface{}) (bool, error) {

	if value, ok := v.(bool); ok {
		return value, nil
	}
	return false, fmt.Errorf("unexpected boolean column value %T", v)
}

func TimeValue(v interface{}) (time.Time, error) {

	if value, ok := v.(time.Time); ok {
		return value.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unexpected timestamp column value %T", v)
}

// NullTimeValue returns nil for SQL NULL.
func NullTimeValue(v interface{}) (*time.Time, error) {

	if v == nil {
		return nil, nil
	}
	t, err := TimeValue(v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func StringArrayValue(v interface{}) ([]string, error) {

	if v == nil {
		return nil, nil
	}
	var values pq.StringArray
	if err := values.Scan(v); err != nil {
		return nil, err
	}
	return []string(values), nil
}

// JSONValue decodes a json or jsonb column selected as text. SQL NULL and empty text leave target
// untouched.
func JSONValue(v interface{}, target interface{}) error {

	raw := StringValue(v)
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), target)
}

// JSONParam encodes a value for a jsonb parameter. A nil map is stored as SQL NULL.
func JSONParam(v interface{}) (interface{}, error) {

	if m, ok := v.(map[string]interface{}); ok && m == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

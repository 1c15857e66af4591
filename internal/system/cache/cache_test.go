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
package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetGetExpire(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache[[]string](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", []string{"a"})
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, got)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestCache_DisabledWithZeroTTL(t *testing.T) {
	c := NewCache[int](0)
	c.Set("k", 1)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_Purge(t *testing.T) {
	c := NewCache[int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Purge()
	_, ok := c.Get("a")
	assert.False(t, ok)
}

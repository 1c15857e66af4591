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
package events

import (
	"context"
	"errors"
	"time"
)

// TransitionEvent announces one committed lifecycle change of a rule.
type TransitionEvent struct {
	EventId    string                 `json:"event_id"`
	OrgId      string                 `json:"organization_id"`
	RuleId     string                 `json:"rule_id"`
	SmartCode  string                 `json:"smart_code"`
	Action     string                 `json:"action"`
	FromStatus string                 `json:"from_status,omitempty"`
	ToStatus   string                 `json:"to_status,omitempty"`
	Actor      string                 `json:"actor"`
	TraceId    string                 `json:"trace_id,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Publisher delivers transition events after the transaction that produced them committed.
type Publisher interface {
	Publish(ctx context.Context, event TransitionEvent) error
}

// MultiPublisher forwards every event to all of its publishers.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, event TransitionEvent) error {

	var errs []error
	for _, publisher := range m {
		if err := publisher.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, TransitionEvent) error { return nil }

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
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wso2/ucr-orchestrator/internal/rules/model"
	"github.com/wso2/ucr-orchestrator/internal/rules/store"
	ucrcontext "github.com/wso2/ucr-orchestrator/internal/system/context"
	"github.com/wso2/ucr-orchestrator/internal/system/events"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
	"github.com/wso2/ucr-orchestrator/internal/system/metrics"
)

// Trail collects the audit events written by one unit of work so they can be announced once the
// unit of work committed.
type Trail struct {
	events []model.AuditEvent
}

// Append writes an audit event for rule through tx and remembers it.
func (t *Trail) Append(ctx context.Context, tx store.Store, orgID string, rule model.Rule, action string,
	from, to model.RuleStatus, metadata map[string]interface{}) error {

	actor := ucrcontext.GetActor(ctx)
	event := model.AuditEvent{
		EventId:    uuid.New().String(),
		OrgId:      orgID,
		RuleId:     rule.RuleId,
		SmartCode:  rule.SmartCode,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor.UserID,
		TraceId:    ucrcontext.GetTraceID(ctx),
		OccurredAt: time.Now().UTC().Truncate(time.Microsecond),
		Metadata:   model.CopyMap(metadata),
	}
	if err := tx.AppendAudit(ctx, orgID, event); err != nil {
		return err
	}
	t.events = append(t.events, event)
	return nil
}

// Events returns the events appended so far.
func (t *Trail) Events() []model.AuditEvent {
	return append([]model.AuditEvent(nil), t.events...)
}

// Writer announces committed audit events on the audit log and the event publisher.
type Writer struct {
	publisher events.Publisher
	metrics   *metrics.Collector
}

func NewWriter(publisher events.Publisher, collector *metrics.Collector) *Writer {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Writer{publisher: publisher, metrics: collector}
}

// Emit must only be called after the transaction that wrote the trail committed. Publishing failures
// are logged because the transition itself already happened.
func (w *Writer) Emit(ctx context.Context, trail *Trail) {

	logger := log.GetLogger()
	for _, event := range trail.events {
		logger.Audit(log.AuditEvent{
			RecordedAt:    event.OccurredAt.Format(time.RFC3339Nano),
			InitiatorID:   event.Actor,
			InitiatorType: initiatorType(event.Actor),
			OrgID:         event.OrgId,
			TargetID:      event.RuleId,
			TargetType:    log.TargetTypeRule,
			ActionID:      event.Action,
			TraceID:       event.TraceId,
			Data: map[string]interface{}{
				"smart_code":  event.SmartCode,
				"from_status": event.FromStatus,
				"to_status":   event.ToStatus,
				"metadata":    event.Metadata,
			},
		})

		if err := w.publisher.Publish(ctx, ToTransitionEvent(event)); err != nil {
			w.metrics.IncPublishFailure()
			logger.Warn(fmt.Sprintf("Failed to publish %s event", event.Action),
				log.Org(event.OrgId), log.Rule(event.RuleId), log.Error(err))
		}
	}
}

// ToTransitionEvent converts a stored audit event into its published form.
func ToTransitionEvent(event model.AuditEvent) events.TransitionEvent {
	return events.TransitionEvent{
		EventId:    event.EventId,
		OrgId:      event.OrgId,
		RuleId:     event.RuleId,
		SmartCode:  event.SmartCode,
		Action:     event.Action,
		FromStatus: string(event.FromStatus),
		ToStatus:   string(event.ToStatus),
		Actor:      event.Actor,
		TraceId:    event.TraceId,
		OccurredAt: event.OccurredAt,
		Metadata:   model.CopyMap(event.Metadata),
	}
}

func initiatorType(actor string) string {
	if actor == "" || actor == "system" {
		return log.InitiatorTypeSystem
	}
	return log.InitiatorTypeUser
}

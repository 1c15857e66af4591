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
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wso2/ucr-orchestrator/internal/system/authz"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

const keepAliveInterval = 15 * time.Second

// StreamEvents handles GET /rule-events. Transition events of the organization are written as
// server-sent events until the client goes away.
func (h *RuleHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {

	ctx, orgID, ok := authorize(w, r, authz.OperationView)
	if !ok {
		return
	}
	broker := h.provider.GetEventBroker()
	flusher, canFlush := w.(http.Flusher)
	if broker == nil || !canFlush {
		http.Error(w, "Event streaming is not available", http.StatusServiceUnavailable)
		return
	}

	stream, cancel := broker.Subscribe(orgID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case event, open := <-stream:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				log.GetLogger().Warn("Skipping an event that cannot be encoded", log.Error(err), log.Org(orgID))
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.EventId, event.Action, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

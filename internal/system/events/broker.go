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
	"fmt"
	"sync"

	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

type subscriber struct {
	orgID string
	ch    chan TransitionEvent
}

// Broker fans events out to in-process subscribers of an organization. A subscriber that falls
// behind loses events instead of blocking the publisher.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int]*subscriber
	nextID      int
	bufferSize  int
}

func NewBroker(bufferSize int) *Broker {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Broker{subscribers: map[int]*subscriber{}, bufferSize: bufferSize}
}

// Subscribe registers a subscriber for orgID. The returned function unsubscribes and closes the
// channel; it is safe to call more than once.
func (b *Broker) Subscribe(orgID string) (<-chan TransitionEvent, func()) {

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	sub := &subscriber{orgID: orgID, ch: make(chan TransitionEvent, b.bufferSize)}
	b.subscribers[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
}

func (b *Broker) Publish(_ context.Context, event TransitionEvent) error {

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers {
		if sub.orgID != event.OrgId {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			log.GetLogger().Warn(fmt.Sprintf("Dropping %s event of rule %s for a slow subscriber",
				event.Action, event.RuleId), log.Org(event.OrgId))
		}
	}
	return nil
}

// SubscriberCount reports the number of live subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

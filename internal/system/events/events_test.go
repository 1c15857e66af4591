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
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestBroker_DeliversToOrganizationSubscribers(t *testing.T) {
	broker := NewBroker(4)
	org1, cancel1 := broker.Subscribe("org-1")
	defer cancel1()
	org2, cancel2 := broker.Subscribe("org-2")
	defer cancel2()

	require.NoError(t, broker.Publish(context.Background(), TransitionEvent{OrgId: "org-1", RuleId: "r1"}))

	event := <-org1
	assert.Equal(t, "r1", event.RuleId)
	select {
	case <-org2:
		t.Fatal("event leaked to another organization")
	default:
	}
}

func TestBroker_DropsWhenSubscriberIsFull(t *testing.T) {
	broker := NewBroker(1)
	ch, cancel := broker.Subscribe("org-1")
	defer cancel()

	require.NoError(t, broker.Publish(context.Background(), TransitionEvent{OrgId: "org-1", RuleId: "first"}))
	require.NoError(t, broker.Publish(context.Background(), TransitionEvent{OrgId: "org-1", RuleId: "second"}))

	assert.Equal(t, "first", (<-ch).RuleId)
	assert.Len(t, ch, 0)
}

func TestBroker_UnsubscribeClosesChannel(t *testing.T) {
	broker := NewBroker(1)
	ch, cancel := broker.Subscribe("org-1")
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, broker.SubscriberCount())
	assert.NoError(t, broker.Publish(context.Background(), TransitionEvent{OrgId: "org-1"}))
}

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.records = append(f.records, rs...)
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func (f *fakeProducer) Close() {}

func TestKafkaPublisher_KeysByOrganization(t *testing.T) {
	fake := &fakeProducer{}
	publisher := &KafkaPublisher{client: fake, topic: "ucr.rule.transitions"}

	event := TransitionEvent{EventId: "e1", OrgId: "org-1", RuleId: "r1", Action: "deploy-rule"}
	require.NoError(t, publisher.Publish(context.Background(), event))

	require.Len(t, fake.records, 1)
	record := fake.records[0]
	assert.Equal(t, "ucr.rule.transitions", record.Topic)
	assert.Equal(t, []byte("org-1"), record.Key)

	var decoded TransitionEvent
	require.NoError(t, json.Unmarshal(record.Value, &decoded))
	assert.Equal(t, "r1", decoded.RuleId)
}

func TestKafkaPublisher_ReturnsProduceError(t *testing.T) {
	fake := &fakeProducer{err: errors.New("broker unavailable")}
	publisher := &KafkaPublisher{client: fake, topic: "t"}
	assert.EqualError(t, publisher.Publish(context.Background(), TransitionEvent{}), "broker unavailable")
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, TransitionEvent) error { return f.err }

func TestMultiPublisher_JoinsErrors(t *testing.T) {
	broker := NewBroker(1)
	ch, cancel := broker.Subscribe("org-1")
	defer cancel()

	boom := errors.New("boom")
	err := MultiPublisher{failingPublisher{err: boom}, broker}.Publish(context.Background(),
		TransitionEvent{OrgId: "org-1"})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, ch, 1)
}

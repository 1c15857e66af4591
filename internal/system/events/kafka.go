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
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/wso2/ucr-orchestrator/internal/system/config"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaPublisher writes transition events to a topic keyed by organization, so each
// organization's events stay ordered within one partition.
type KafkaPublisher struct {
	client producer
	topic  string
}

func NewKafkaPublisher(conf config.KafkaConfig) (*KafkaPublisher, error) {

	client, err := kgo.NewClient(
		kgo.SeedBrokers(conf.Brokers...),
		kgo.DefaultProduceTopic(conf.Topic),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	log.GetLogger().Info(fmt.Sprintf("Publishing rule transitions to kafka topic %s", conf.Topic))
	return &KafkaPublisher{client: client, topic: conf.Topic}, nil
}

func (k *KafkaPublisher) Publish(ctx context.Context, event TransitionEvent) error {

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.OrgId),
		Value: data,
		Headers: []kgo.RecordHeader{
			{Key: "event_id", Value: []byte(event.EventId)},
			{Key: "action", Value: []byte(event.Action)},
			{Key: "smart_code", Value: []byte(event.SmartCode)},
		},
	}
	return k.client.ProduceSync(ctx, record).FirstErr()
}

func (k *KafkaPublisher) Close() {
	k.client.Close()
}

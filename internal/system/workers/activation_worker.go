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
package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

const activationBatchSize = 100

// DueActivator completes scheduled deployments whose effective_from has passed.
type DueActivator interface {
	ActivateDue(ctx context.Context, limit int) (int, error)
}

// ActivationWorker polls for due scheduled deployments on a fixed interval.
type ActivationWorker struct {
	activator DueActivator
	interval  time.Duration

	startOnce sync.Once
	done      chan struct{}
}

func NewActivationWorker(activator DueActivator, interval time.Duration) *ActivationWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ActivationWorker{activator: activator, interval: interval, done: make(chan struct{})}
}

// Start launches the polling loop. It stops when ctx is cancelled; Done is closed afterwards.
// Calling Start again has no effect.
func (w *ActivationWorker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		logger := log.GetLogger()
		logger.Info(fmt.Sprintf("Activation worker polling every %s", w.interval))

		go func() {
			defer close(w.done)
			ticker := time.NewTicker(w.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					logger.Info("Activation worker stopped")
					return
				case <-ticker.C:
					w.RunOnce(ctx)
				}
			}
		}()
	})
}

// RunOnce drains due deployments in batches until a batch comes back short.
func (w *ActivationWorker) RunOnce(ctx context.Context) int {
	total := 0
	for ctx.Err() == nil {
		activated, err := w.activator.ActivateDue(ctx, activationBatchSize)
		total += activated
		if err != nil {
			log.GetLogger().Error("Failed to activate scheduled deployments", log.Error(err))
			break
		}
		if activated < activationBatchSize {
			break
		}
	}
	if total > 0 {
		log.GetLogger().Info(fmt.Sprintf("Activated %d scheduled deployments", total))
	}
	return total
}

func (w *ActivationWorker) Done() <-chan struct{} {
	return w.done
}

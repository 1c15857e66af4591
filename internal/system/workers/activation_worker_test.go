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
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

// scriptedActivator returns the queued results in order and 0 afterwards.
type scriptedActivator struct {
	mu      sync.Mutex
	results []int
	err     error
	calls   int
}

func (a *scriptedActivator) ActivateDue(_ context.Context, _ int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return 0, a.err
	}
	if len(a.results) == 0 {
		return 0, nil
	}
	next := a.results[0]
	a.results = a.results[1:]
	return next, nil
}

func (a *scriptedActivator) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func TestRunOnce_DrainsFullBatches(t *testing.T) {
	activator := &scriptedActivator{results: []int{activationBatchSize, activationBatchSize, 3}}
	worker := NewActivationWorker(activator, time.Hour)

	assert.Equal(t, 2*activationBatchSize+3, worker.RunOnce(context.Background()))
	assert.Equal(t, 3, activator.callCount())
}

func TestRunOnce_StopsOnError(t *testing.T) {
	activator := &scriptedActivator{err: errors.New("database unavailable")}
	worker := NewActivationWorker(activator, time.Hour)

	assert.Equal(t, 0, worker.RunOnce(context.Background()))
	assert.Equal(t, 1, activator.callCount())
}

func TestStart_PollsUntilCancelled(t *testing.T) {
	activator := &scriptedActivator{}
	worker := NewActivationWorker(activator, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	worker.Start(ctx)
	worker.Start(ctx)
	require.Eventually(t, func() bool { return activator.callCount() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-worker.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

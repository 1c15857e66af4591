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
package lock

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/wso2/ucr-orchestrator/internal/system/database/client"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

// GenerateLockKey maps a string key to the bigint space of PostgreSQL advisory locks.
func GenerateLockKey(key string) (int64, error) {

	h := fnv.New64a()
	if _, err := h.Write([]byte(key)); err != nil {
		errorMsg := fmt.Sprintf("failed to hash lock key '%s'", key)
		return 0, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.LOCK_KEY_GEN.Code,
			Message:     errors.LOCK_KEY_GEN.Message,
			Description: errorMsg,
		}, err)
	}
	return int64(h.Sum64()), nil
}

// AcquireXactLock blocks until the transaction holds the advisory lock for key. The lock is
// released by PostgreSQL when the transaction commits or rolls back.
func AcquireXactLock(ctx context.Context, tx client.Querier, key string) error {

	logger := log.GetLogger()
	lockID, err := GenerateLockKey(key)
	if err != nil {
		logger.Error("Could not create advisory lock key from input.", log.Error(err))
		return err
	}
	logger.Debug(fmt.Sprintf("Acquiring transaction lock %d for key %s", lockID, key))

	if _, err := tx.ExecuteQuery(ctx, "SELECT pg_advisory_xact_lock($1)", lockID); err != nil {
		errorMsg := fmt.Sprintf("Failed to acquire pg_advisory_xact_lock for key %s", key)
		logger.Error(errorMsg, log.Error(err))
		return errors.NewServerError(errors.ErrorMessage{
			Code:        errors.LOCK_ACQUIRE.Code,
			Message:     errors.LOCK_ACQUIRE.Message,
			Description: errorMsg,
		}, err)
	}
	return nil
}

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
package client

import (
	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"

	"github.com/wso2/ucr-orchestrator/internal/system/errors"
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether the driver rejected a write because of a unique index.
func IsUniqueViolation(err error) bool {

	var pqErr *pq.Error
	if pkgerrors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// ConstraintOf returns the name of the violated constraint, if the driver reported one.
func ConstraintOf(err error) string {

	var pqErr *pq.Error
	if pkgerrors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

// NewQueryError wraps a driver error as a storage failure.
func NewQueryError(err error, description string) *errors.ServerError {
	return errors.NewServerError(errors.ErrorMessage{
		Code:        errors.EXECUTE_QUERY.Code,
		Message:     errors.EXECUTE_QUERY.Message,
		Description: description,
	}, pkgerrors.Wrap(err, description))
}

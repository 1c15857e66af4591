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

package errors

const errorPrefix = "UCR-"

var (
	// Server error codes

	DB_CLIENT_INIT = ErrorMessage{
		Code:    errorPrefix + "15001",
		Message: "Error while initializing the database client.",
	}

	EXECUTE_QUERY = ErrorMessage{
		Code:    errorPrefix + "15002",
		Message: "Error while executing the database query.",
	}

	TX_BEGIN = ErrorMessage{
		Code:    errorPrefix + "15003",
		Message: "Error while starting the database transaction.",
	}

	TX_COMMIT = ErrorMessage{
		Code:    errorPrefix + "15004",
		Message: "Error while committing the database transaction.",
	}

	LOCK_ACQUIRE = ErrorMessage{
		Code:    errorPrefix + "15005",
		Message: "Error while acquiring the deployment lock.",
	}

	LOCK_KEY_GEN = ErrorMessage{
		Code:    errorPrefix + "15006",
		Message: "Error while generating the deployment lock key.",
	}

	MARSHAL_JSON = ErrorMessage{
		Code:    errorPrefix + "15007",
		Message: "Error while marshalling JSON.",
	}

	UNMARSHAL_JSON = ErrorMessage{
		Code:    errorPrefix + "15008",
		Message: "Error while unmarshalling JSON.",
	}

	INVALID_ROW = ErrorMessage{
		Code:    errorPrefix + "15009",
		Message: "Unexpected value in a stored row.",
	}

	PUBLISH_EVENT = ErrorMessage{
		Code:    errorPrefix + "15010",
		Message: "Error while publishing the lifecycle event.",
	}

	LOAD_TEMPLATES = ErrorMessage{
		Code:    errorPrefix + "15011",
		Message: "Error while loading the rule template catalog.",
	}

	PARSING_ERROR = ErrorMessage{
		Code:    errorPrefix + "15012",
		Message: "Error while parsing the access token.",
	}

	// Client error codes

	BAD_REQUEST = ErrorMessage{
		Code:    errorPrefix + "10001",
		Message: "Invalid request.",
	}

	UN_AUTHORIZED = ErrorMessage{
		Code:        errorPrefix + "10002",
		Message:     "Unauthorized.",
		Description: "Missing or invalid credentials.",
	}

	FORBIDDEN = ErrorMessage{
		Code:        errorPrefix + "10003",
		Message:     "Forbidden.",
		Description: "Insufficient scope to perform the operation.",
	}

	RULE_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "10004",
		Message: "Rule not found.",
	}

	TEMPLATE_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "10005",
		Message: "Rule template not found.",
	}

	VERSION_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "10006",
		Message: "Rule version not found.",
	}

	DEPLOYMENT_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "10007",
		Message: "Deployment record not found.",
	}

	VALIDATION_FAILED = ErrorMessage{
		Code:    errorPrefix + "10008",
		Message: "Rule validation failed.",
	}

	DUPLICATE_SMART_CODE = ErrorMessage{
		Code:    errorPrefix + "10009",
		Message: "An active rule with the same smart code already exists.",
	}

	SMART_CODE_CONFLICT = ErrorMessage{
		Code:    errorPrefix + "10010",
		Message: "Smart code conflict.",
	}

	APPROVAL_REQUIRED = ErrorMessage{
		Code:    errorPrefix + "10011",
		Message: "Approval required.",
	}

	CHECKLIST_INCOMPLETE = ErrorMessage{
		Code:    errorPrefix + "10012",
		Message: "Pre-deployment checklist incomplete.",
	}

	INVALID_TRANSITION = ErrorMessage{
		Code:    errorPrefix + "10013",
		Message: "Transition not allowed for the current rule status.",
	}

	INVALID_SCOPE = ErrorMessage{
		Code:    errorPrefix + "10014",
		Message: "Invalid deployment scope or schedule.",
	}

	APPROVER_NOT_ALLOWED = ErrorMessage{
		Code:    errorPrefix + "10015",
		Message: "Approver is not allowed to approve rules.",
	}

	INVALID_SIMULATION = ErrorMessage{
		Code:    errorPrefix + "10016",
		Message: "Invalid simulation request.",
	}

	INVALID_CURSOR = ErrorMessage{
		Code:    errorPrefix + "10017",
		Message: "Invalid pagination parameters.",
	}

	INVALID_PATCH = ErrorMessage{
		Code:    errorPrefix + "10018",
		Message: "Field cannot be updated.",
	}

	ENTITY_NOT_FOUND = ErrorMessage{
		Code:    errorPrefix + "10019",
		Message: "Universal entity not found.",
	}

	INVALID_QUERY = ErrorMessage{
		Code:    errorPrefix + "10020",
		Message: "Unsupported universal query.",
	}
)

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
package authn

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wso2/ucr-orchestrator/internal/system/config"
	"github.com/wso2/ucr-orchestrator/internal/system/context"
	errors2 "github.com/wso2/ucr-orchestrator/internal/system/errors"
	"github.com/wso2/ucr-orchestrator/internal/system/log"
)

// ValidateAuthenticationAndReturnClaims verifies a bearer token against the runtime auth configuration.
func ValidateAuthenticationAndReturnClaims(token, orgHandle string) (map[string]interface{}, error) {
	return ValidateToken(token, orgHandle, config.GetUCRRuntime().Config.Auth)
}

// ValidateToken verifies the HS256 signature, expiry and audience of the token and checks that it was
// issued for the organization in the request path.
func ValidateToken(token, orgHandle string, conf config.AuthConfig) (map[string]interface{}, error) {

	logger := log.GetLogger()
	if strings.Count(token, ".") != 2 {
		logger.Debug("Expecting a JWT token but received an opaque token.")
		return nil, unauthorizedError()
	}
	if conf.JWTSecret == "" {
		logger.Error("Token verification is enabled but no jwt_secret is configured.")
		return nil, unauthorizedError()
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(conf.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(conf.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		logger.Debug("Token verification failed.", log.Error(err))
		return nil, unauthorizedError()
	}

	if !validateOrgClaim(orgHandle, claims) {
		return nil, unauthorizedError()
	}
	return claims, nil
}

// ParseJWTClaims parses claims from a JWT without verifying the signature.
func ParseJWTClaims(tokenString string) (map[string]interface{}, error) {

	logger := log.GetLogger()
	claims := jwt.MapClaims{}
	_, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims)
	if err != nil {
		errMsg := "Error occurred when parsing claims from JWT token."
		logger.Debug(errMsg, log.Error(err))
		serverError := errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.PARSING_ERROR.Code,
			Message:     errors2.PARSING_ERROR.Message,
			Description: errMsg,
		}, err)
		return nil, serverError
	}
	return claims, nil
}

// ActorFromClaims builds the caller identity from verified claims.
func ActorFromClaims(claims map[string]interface{}) context.Actor {

	actor := context.Actor{
		UserID: stringClaim(claims, "sub"),
		Roles:  listClaim(claims["roles"]),
		Scopes: listClaim(claims["scope"]),
	}
	actor.UserName = stringClaim(claims, "username")
	if actor.UserName == "" {
		actor.UserName = stringClaim(claims, "name")
	}
	if actor.UserName == "" {
		actor.UserName = actor.UserID
	}
	return actor
}

func validateOrgClaim(orgHandle string, claims map[string]interface{}) bool {

	orgHandleInClaim, ok := claims["org_handle"].(string)
	if !ok || orgHandleInClaim != orgHandle {
		log.GetLogger().Debug(fmt.Sprintf("Token is not issued for organization %s.", orgHandle))
		return false
	}
	return true
}

func stringClaim(claims map[string]interface{}, key string) string {
	value, _ := claims[key].(string)
	return value
}

// listClaim accepts both a space separated string and a JSON array.
func listClaim(raw interface{}) []string {

	var values []string
	switch v := raw.(type) {
	case string:
		values = strings.Fields(v)
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				values = append(values, s)
			}
		}
	case []string:
		values = append(values, v...)
	}
	return values
}

func unauthorizedError() error {
	return errors2.NewClientError(errors2.ErrorMessage{
		Code:        errors2.UN_AUTHORIZED.Code,
		Message:     errors2.UN_AUTHORIZED.Message,
		Description: errors2.UN_AUTHORIZED.Description,
	}, http.StatusUnauthorized)
}

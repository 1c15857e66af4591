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
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/ucr-orchestrator/internal/system/config"
	"github.com/wso2/ucr-orchestrator/internal/system/errors"
)

var testAuthConfig = config.AuthConfig{
	Enabled:   true,
	JWTSecret: "test-secret",
	Audience:  "ucr-orchestrator",
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":        "u-1",
		"username":   "alice",
		"org_handle": "org-1",
		"aud":        "ucr-orchestrator",
		"exp":        time.Now().Add(time.Hour).Unix(),
		"scope":      "rules:view rules:deploy",
		"roles":      []string{"manager"},
	}
}

func TestValidateToken_Valid(t *testing.T) {
	claims, err := ValidateToken(signToken(t, "test-secret", validClaims()), "org-1", testAuthConfig)
	require.NoError(t, err)

	actor := ActorFromClaims(claims)
	assert.Equal(t, "u-1", actor.UserID)
	assert.Equal(t, "alice", actor.UserName)
	assert.Equal(t, []string{"manager"}, actor.Roles)
	assert.Equal(t, []string{"rules:view", "rules:deploy"}, actor.Scopes)
}

func TestValidateToken_Rejections(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	wrongAudience := validClaims()
	wrongAudience["aud"] = "someone-else"
	noExpiry := validClaims()
	delete(noExpiry, "exp")

	cases := map[string]string{
		"wrong secret":       signToken(t, "other-secret", validClaims()),
		"expired":            signToken(t, "test-secret", expired),
		"wrong audience":     signToken(t, "test-secret", wrongAudience),
		"missing expiry":     signToken(t, "test-secret", noExpiry),
		"opaque token":       "opaque-token",
		"malformed segments": "a.b.c",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateToken(token, "org-1", testAuthConfig)
			assert.True(t, errors.IsAuthorization(err))
		})
	}
}

func TestValidateToken_OtherOrganization(t *testing.T) {
	_, err := ValidateToken(signToken(t, "test-secret", validClaims()), "org-2", testAuthConfig)
	assert.True(t, errors.IsAuthorization(err))
}

func TestParseJWTClaims_Unverified(t *testing.T) {
	claims, err := ParseJWTClaims(signToken(t, "whatever", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "org-1", claims["org_handle"])

	_, err = ParseJWTClaims("garbage")
	assert.True(t, errors.IsStorage(err))
}

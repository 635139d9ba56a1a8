// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package bot

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignJoinToken(t *testing.T) {
	signed, err := SignJoinToken("sdk-key", "sdk-secret", "987654321", RoleParticipant, time.Hour)
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(token *jwt.Token) (any, error) {
		return []byte("sdk-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "sdk-key", claims["appKey"])
	assert.Equal(t, "sdk-key", claims["sdkKey"])
	assert.Equal(t, "987654321", claims["mn"])
	assert.Equal(t, float64(RoleParticipant), claims["role"])

	iat := int64(claims["iat"].(float64))
	exp := int64(claims["exp"].(float64))
	tokenExp := int64(claims["tokenExp"].(float64))
	assert.Equal(t, exp, tokenExp)
	assert.Equal(t, int64(time.Hour/time.Second), exp-iat)
	// Backdated for clock skew tolerance.
	assert.LessOrEqual(t, iat, time.Now().Add(-29*time.Second).Unix())
}

func TestSignJoinTokenRejectsWrongSecret(t *testing.T) {
	signed, err := SignJoinToken("sdk-key", "sdk-secret", "987654321", RoleHost, time.Hour)
	require.NoError(t, err)

	_, err = jwt.Parse(signed, func(token *jwt.Token) (any, error) {
		return []byte("other-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	assert.Error(t, err)
}

func TestSignJoinTokenRequiresCredentials(t *testing.T) {
	_, err := SignJoinToken("", "", "987654321", RoleParticipant, time.Hour)
	assert.Error(t, err)
}

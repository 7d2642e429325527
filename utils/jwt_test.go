package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabedeluna/kambo-klarity/config"
)

func TestWaiverToken_RoundTrip(t *testing.T) {
	config.AppConfig.WaiverSecret = "test-waiver-secret"

	token, err := GenerateWaiverToken("42", "private", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	telegramID, sessionType, err := ParseWaiverToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", telegramID)
	assert.Equal(t, "private", sessionType)
}

func TestWaiverToken_RejectsExpired(t *testing.T) {
	config.AppConfig.WaiverSecret = "test-waiver-secret"

	token, err := GenerateWaiverToken("42", "private", -time.Minute)
	require.NoError(t, err)

	_, _, err = ParseWaiverToken(token)
	assert.Error(t, err)
}

func TestWaiverToken_RejectsWrongSecret(t *testing.T) {
	config.AppConfig.WaiverSecret = "test-waiver-secret"
	token, err := GenerateWaiverToken("42", "private", time.Hour)
	require.NoError(t, err)

	config.AppConfig.WaiverSecret = "another-secret"
	_, _, err = ParseWaiverToken(token)
	assert.Error(t, err)
}

func TestWaiverToken_RefusesEmptySecret(t *testing.T) {
	config.AppConfig.WaiverSecret = ""
	t.Setenv("WAIVER_SECRET", "")

	_, err := GenerateWaiverToken("42", "private", time.Hour)
	assert.ErrorIs(t, err, ErrWaiverSecretMissing)

	config.AppConfig.WaiverSecret = "test-waiver-secret"
	token, err := GenerateWaiverToken("42", "private", time.Hour)
	require.NoError(t, err)

	config.AppConfig.WaiverSecret = ""
	_, _, err = ParseWaiverToken(token)
	assert.ErrorIs(t, err, ErrWaiverSecretMissing)
}

func TestWaiverToken_RejectsGarbage(t *testing.T) {
	config.AppConfig.WaiverSecret = "test-waiver-secret"

	_, _, err := ParseWaiverToken("not.a.token")
	assert.Error(t, err)
}

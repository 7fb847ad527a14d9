package util

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"learnhub_backend/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, model.Student, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, model.Student, claims.Role)

	_, err = ParseJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestParseJWTRejectsExpired(t *testing.T) {
	token, err := GenerateJWT(1, model.Student, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(token, "secret")
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("courseId", "12")
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := ParseID("courseId", bad)
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", ErrQuizNotFound)))
	assert.False(t, IsNotFound(ErrInvalidInput))
	assert.False(t, IsNotFound(errors.New("boom")))
}

type sample struct {
	WatchedDuration *float64 `json:"watchedDuration" binding:"required,gte=0"`
}

func TestValidationMessageNamesField(t *testing.T) {
	neg := -1.0
	err := binding.Validator.ValidateStruct(&sample{WatchedDuration: &neg})
	require.Error(t, err)
	assert.Equal(t, "watchedDuration must be >= 0", ValidationMessage(err))

	err = binding.Validator.ValidateStruct(&sample{})
	require.Error(t, err)
	assert.Equal(t, "watchedDuration is required", ValidationMessage(err))
}

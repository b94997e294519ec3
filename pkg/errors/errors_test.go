package errors

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrorCarriesContext(t *testing.T) {
	_, cause := strconv.Atoi("abc")
	err := NewParseError("enrollments", "account_key", "abc", 3, cause)

	assert.True(t, errors.Is(err, ErrParse))
	assert.False(t, errors.Is(err, ErrSchema))
	assert.ErrorIs(t, err, strconv.ErrSyntax)
	assert.Equal(t, ExitData, err.ExitCode)
	assert.Contains(t, err.Error(), "dataset=enrollments")
	assert.Contains(t, err.Error(), "column=account_key")
	assert.Contains(t, err.Error(), `value="abc"`)
	assert.Contains(t, err.Error(), "row=3")
}

func TestSchemaErrorOmitsValue(t *testing.T) {
	err := NewSchemaError("daily_engagement", "acct", 1)
	assert.True(t, errors.Is(err, ErrSchema))
	assert.NotContains(t, err.Error(), "value=")
}

func TestEmptyGroupErrorWrapped(t *testing.T) {
	err := fmt.Errorf("passed group: %w", NewEmptyGroupError("passed"))
	assert.ErrorIs(t, err, ErrEmptyGroup)

	appErr := FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "EMPTY_GROUP", appErr.Code)
	assert.Equal(t, ExitEmpty, appErr.ExitCode)
}

func TestFromErrorFallsBackToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Nil(t, FromError(nil))
}

func TestCloneDoesNotMutateSentinel(t *testing.T) {
	clone := Clone(ErrConfig, "bad source")
	assert.Equal(t, "bad source", clone.Message)
	assert.Equal(t, "invalid configuration", ErrConfig.Message)
}

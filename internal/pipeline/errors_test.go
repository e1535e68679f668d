package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineErrorFormat(t *testing.T) {
	err := NewConfigError("load", "no CSV files found in data")
	assert.Equal(t, "[config] load: no CSV files found in data", err.Error())

	bare := &PipelineError{Type: ErrTypeExecution, Message: "something broke"}
	assert.Equal(t, "[execution] something broke", bare.Error())
}

func TestIOErrorUnwrapsToCause(t *testing.T) {
	cause := fmt.Errorf("open data: permission denied")
	err := NewIOError("load", "failed to open data", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, ErrTypeIO, GetErrorType(err))
}

func TestWrapErrorKeepsExistingType(t *testing.T) {
	inner := NewConfigError("", "missing column")
	wrapped := WrapError(inner, "load", "header check")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrTypeConfig, wrapped.Type)
	assert.Equal(t, "load", wrapped.Stage, "empty stage is filled in")
	assert.Equal(t, "header check: missing column", wrapped.Message)
}

func TestWrapErrorClassifiesUntypedAsExecution(t *testing.T) {
	wrapped := WrapError(errors.New("boom"), "transform", "unexpected failure")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrTypeExecution, wrapped.Type)
	assert.Equal(t, "transform", wrapped.Stage)
	assert.True(t, errors.Is(wrapped, wrapped.Cause))
}

func TestWrapErrorNil(t *testing.T) {
	assert.Nil(t, WrapError(nil, "load", "ignored"))
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrTypeConfig, GetErrorType(NewConfigError("load", "x")))
	assert.Equal(t, ErrTypeIO, GetErrorType(NewIOError("save", "x", nil)))
	assert.Equal(t, ErrTypeExecution, GetErrorType(errors.New("untyped")))
	assert.Equal(t, ErrorType(""), GetErrorType(nil))
}

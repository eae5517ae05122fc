package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"chronorate/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestDomainSentinelsSurviveWrapping(t *testing.T) {
	err := Wrap(GenerationError("totalSubjects must be >= 1"), "build corpus")

	assert.True(t, stderrors.Is(err, core.ErrGeneration))
	assert.Equal(t, CodeGenerationError, GetCode(err))
	assert.Contains(t, err.Error(), "build corpus")
	assert.Contains(t, err.Error(), "totalSubjects must be >= 1")
}

func TestModelUnavailable(t *testing.T) {
	err := ModelUnavailable("classifier")
	assert.True(t, core.IsModelUnavailable(err))
	assert.Equal(t, "classifier not loaded: "+core.ErrModelUnavailable.Error(), err.Error())
}

func TestWrapPlainError(t *testing.T) {
	base := fmt.Errorf("boom")
	err := Wrapf(base, "step %d", 3)
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.True(t, stderrors.Is(err, base))
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestExternalServiceError(t *testing.T) {
	cause := fmt.Errorf("deadline exceeded")
	err := ExternalServiceError("model", cause)
	assert.Equal(t, CodeExternalService, GetCode(err))
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "model service error: deadline exceeded", err.Error())
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeDatabaseError, fmt.Errorf("connection refused"))
	assert.Equal(t, CodeDatabaseError, GetCode(err))
	assert.True(t, IsAppError(err))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
}

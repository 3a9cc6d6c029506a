package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindNotFound, KindOf(NotFound("certificate")))
	assert.Equal(t, KindForbidden, KindOf(fmt.Errorf("wrapped: %w", Forbidden(""))))
	assert.Equal(t, KindDependency, KindOf(errors.New("connection refused")))
}

func TestValidationErrorListsEveryField(t *testing.T) {
	err := Validation(
		Field("certificateType", "required", "certificateType is required"),
		Field("subdivision", "subdivision", "subdivision is invalid"),
	)

	assert.True(t, Is(err, KindValidation))
	assert.Len(t, err.Fields, 2)
	assert.Contains(t, err.Error(), "certificateType")
	assert.Contains(t, err.Error(), "subdivision")
}

func TestDependencyUnwraps(t *testing.T) {
	cause := errors.New("db down")
	err := Dependency("failed to load certificate", cause)

	assert.ErrorIs(t, err, cause)
	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, KindDependency, appErr.Kind)
}

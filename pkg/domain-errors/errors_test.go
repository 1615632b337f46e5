package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCodeThroughWrapping(t *testing.T) {
	base := errors.New("connection reset")
	err := Wrap(base, CodeInternal, "failed to load record")
	outer := fmt.Errorf("handler: %w", err)

	assert.True(t, HasCode(outer, CodeInternal))
	assert.False(t, HasCode(outer, CodeNotFound))
	assert.ErrorIs(t, outer, base)
	assert.Equal(t, CodeInternal, CodeOf(outer))
}

func TestErrorIsMatchesCodeAndMessage(t *testing.T) {
	err := New(CodeConflict, "record already verified")

	require.ErrorIs(t, err, New(CodeConflict, "record already verified"))
	require.ErrorIs(t, err, &Error{Code: CodeConflict})
	assert.NotErrorIs(t, err, New(CodeConflict, "other message"))
	assert.NotErrorIs(t, err, New(CodeNotFound, "record already verified"))
}

func TestWithFieldsCopiesDetails(t *testing.T) {
	fields := map[string]string{"identity.email": "must be a valid email"}
	err := WithFields(CodeValidation, "invalid profile", fields)
	fields["identity.email"] = "mutated"

	assert.Equal(t, "must be a valid email", FieldsOf(err)["identity.email"])
	assert.Nil(t, FieldsOf(errors.New("plain")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

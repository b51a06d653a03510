package apperr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("create task: %w", Validation("title", "is required"))
	require.True(t, IsValidation(err))
	require.EqualError(t, err, "create task: title is required")
	require.False(t, IsValidation(ErrNotFound))
}

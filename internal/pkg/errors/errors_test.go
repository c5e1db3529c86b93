package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapKeepsKindAndDetail(t *testing.T) {
	err := fmt.Errorf("ingest: %w", Wrap(ErrNotFound, "No relevant chunks found for summary."))
	require.True(t, IsNotFound(err))
	require.False(t, errors.Is(err, ErrUpstream))
	detail, ok := DetailOf(err)
	require.True(t, ok)
	require.Equal(t, "No relevant chunks found for summary.", detail)
}

func TestDetailOfPlainError(t *testing.T) {
	_, ok := DetailOf(ErrInvalid)
	require.False(t, ok)
}

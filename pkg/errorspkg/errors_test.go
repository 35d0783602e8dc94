package errorspkg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	errNotFound := New("NOT_FOUND", "not found")

	require.Equal(t, "NOT_FOUND", Code(errNotFound))
	require.Equal(t, "NOT_FOUND", Code(fmt.Errorf("goal 7: %w", errNotFound)))
	require.Equal(t, ErrInternal.Code, Code(errors.New("boom")))
	require.Equal(t, "not found", errNotFound.Error())
}

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSentinelErrors_AreDistinct verifies sentinel errors do not alias each other.
func TestSentinelErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrConfigNil,
		ErrInvalidDomain,
		ErrInvalidStage,
		ErrInvalidPriority,
		ErrInvalidDeliverableType,
		ErrRequestTimeout,
		ErrUpstreamStatus,
		ErrPathTraversal,
		ErrStageNotMapped,
		ErrNoAgentForDomain,
		ErrCardNotFound,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, stderrors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}

// TestWrap_PreservesChain verifies errors.Is works through Wrap.
func TestWrap_PreservesChain(t *testing.T) {
	t.Parallel()

	wrapped := Wrap(ErrUpstreamStatus, "moving card")

	require.Error(t, wrapped)
	require.ErrorIs(t, wrapped, ErrUpstreamStatus)
	assert.Contains(t, wrapped.Error(), "moving card")
}

// TestWrap_NilReturnsNil verifies Wrap is safe for inline usage.
func TestWrap_NilReturnsNil(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Wrap(nil, "context"))
	assert.NoError(t, Wrapf(nil, "context %d", 1))
}

// TestWrapf_FormatsMessage verifies message interpolation.
func TestWrapf_FormatsMessage(t *testing.T) {
	t.Parallel()

	wrapped := Wrapf(ErrCardNotFound, "looking up card %q", "abc123")

	require.ErrorIs(t, wrapped, ErrCardNotFound)
	assert.Contains(t, wrapped.Error(), `looking up card "abc123"`)
}

// TestWrap_DoubleWrap verifies chains survive repeated wrapping.
func TestWrap_DoubleWrap(t *testing.T) {
	t.Parallel()

	inner := fmt.Errorf("status 500: %w", ErrUpstreamStatus)
	outer := Wrap(inner, "poll cycle")

	require.ErrorIs(t, outer, ErrUpstreamStatus)
}

package cli

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/droverhq/drover/internal/errors"
)

func TestIsValidOutputFormat(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidOutputFormat(OutputText))
	assert.True(t, IsValidOutputFormat(OutputJSON))
	assert.False(t, IsValidOutputFormat("yaml"))
	assert.False(t, IsValidOutputFormat(""))
}

func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil error", err: nil, want: ExitSuccess},
		{name: "generic error", err: stderrors.New("boom"), want: ExitError},
		{name: "invalid output format", err: errors.ErrInvalidOutputFormat, want: ExitInvalidInput},
		{name: "wrapped invalid output format", err: errors.Wrap(errors.ErrInvalidOutputFormat, "checking"), want: ExitInvalidInput},
		{name: "invalid domain", err: errors.ErrInvalidDomain, want: ExitInvalidInput},
		{name: "invalid stage", err: errors.ErrInvalidStage, want: ExitInvalidInput},
		{name: "invalid priority", err: errors.ErrInvalidPriority, want: ExitInvalidInput},
		{name: "invalid flag value", err: errors.ErrInvalidFlagValue, want: ExitInvalidInput},
		{name: "cobra unknown flag", err: stderrors.New(`unknown flag: --frobnicate`), want: ExitInvalidInput},
		{name: "cobra unknown command", err: stderrors.New(`unknown command "frob" for "drover"`), want: ExitInvalidInput},
		{name: "upstream failure", err: errors.ErrUpstreamStatus, want: ExitError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ExitCodeForError(tc.err))
		})
	}
}

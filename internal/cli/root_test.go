package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdHelp(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, BuildInfo{Version: "test"})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Drover")
	assert.Contains(t, output, "--output")
	assert.Contains(t, output, "--verbose")
	assert.Contains(t, output, "--quiet")
	assert.Contains(t, output, "--version")
}

func TestRootCmdVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		info           BuildInfo
		expectContains []string
	}{
		{
			name: "full version info",
			info: BuildInfo{
				Version: "1.0.0",
				Commit:  "abc1234",
				Date:    "2025-01-01",
			},
			expectContains: []string{"1.0.0", "abc1234", "2025-01-01"},
		},
		{
			name:           "default dev version",
			info:           BuildInfo{},
			expectContains: []string{"dev", "none", "unknown"},
		},
		{
			name: "partial version info",
			info: BuildInfo{
				Version: "2.0.0-beta",
			},
			expectContains: []string{"2.0.0-beta", "none", "unknown"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			flags := &GlobalFlags{}
			cmd := newRootCmd(flags, tc.info)
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs([]string{"--version"})

			err := cmd.Execute()
			require.NoError(t, err)

			output := buf.String()
			for _, expected := range tc.expectContains {
				assert.Contains(t, output, expected)
			}
		})
	}
}

func TestRootCmdSubcommandsRegistered(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, BuildInfo{})

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"run", "poll", "task", "status", "card", "config", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestFormatVersion(t *testing.T) {
	t.Parallel()

	got := formatVersion(BuildInfo{Version: "1.2.3", Commit: "deadbee", Date: "2025-06-01"})
	assert.Equal(t, "1.2.3 (commit: deadbee, built: 2025-06-01)", got)
}

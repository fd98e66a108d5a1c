package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addRunFlags(cmd)
	for k, v := range flags {
		require.NoError(t, cmd.Flags().Set(k, v))
	}
	return cmd
}

func TestParseRunOpts_Defaults(t *testing.T) {
	opts, err := parseRunOpts(newFlagCmd(t, nil))
	require.NoError(t, err)
	assert.Empty(t, opts.Variants)
	assert.Nil(t, opts.Start)
	assert.Nil(t, opts.End)
	assert.False(t, opts.SkipExisting)
}

func TestParseRunOpts_AllFlags(t *testing.T) {
	opts, err := parseRunOpts(newFlagCmd(t, map[string]string{
		"variant":       " us, global ,",
		"start":         "2020-04-12",
		"end":           "2020-05-01",
		"skip-existing": "true",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"us", "global"}, opts.Variants)
	require.NotNil(t, opts.Start)
	require.NotNil(t, opts.End)
	assert.Equal(t, "2020-04-12", opts.Start.String())
	assert.Equal(t, "2020-05-01", opts.End.String())
	assert.True(t, opts.SkipExisting)
}

func TestParseRunOpts_BadDate(t *testing.T) {
	_, err := parseRunOpts(newFlagCmd(t, map[string]string{"start": "04/12/2020"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --start")
}

func TestParseRunOpts_EndBeforeStart(t *testing.T) {
	_, err := parseRunOpts(newFlagCmd(t, map[string]string{"start": "2020-05-01", "end": "2020-04-01"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is before")
}

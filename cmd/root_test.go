package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "tastymetrics", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)

	flag := rootCmd.PersistentFlags().Lookup("profile")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)

	flag = rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"query":    false,
		"catalog":  false,
		"validate": false,
		"setup":    false,
		"serve":    false,
		"version":  false,
	}

	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}

	for name, found := range want {
		assert.True(t, found, "command %q not registered", name)
	}
}

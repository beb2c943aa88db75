package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRootSubcommands(t *testing.T) {
	root := buildRoot()
	assert.Equal(t, "appsup", root.Use)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"start", "stop", "status", "restart", "serve"} {
		assert.Contains(t, names, want)
	}
}

func TestRootDoesNotEchoUsageOnOperationalErrors(t *testing.T) {
	root := buildRoot()
	assert.True(t, root.SilenceUsage)
	assert.True(t, root.SilenceErrors)
}

func TestRootHasConfigFlag(t *testing.T) {
	root := buildRoot()
	f := root.PersistentFlags().Lookup("config")
	require.NotNil(t, f)
	assert.Equal(t, "", f.DefValue)
}

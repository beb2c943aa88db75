package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuQuit(t *testing.T) {
	c := command{flags: &GlobalFlags{}}
	var out strings.Builder
	require.NoError(t, c.Menu(strings.NewReader("q\n"), &out))
	assert.Contains(t, out.String(), "start both services")
}

func TestMenuEOFExitsCleanly(t *testing.T) {
	c := command{flags: &GlobalFlags{}}
	var out strings.Builder
	require.NoError(t, c.Menu(strings.NewReader(""), &out))
}

func TestMenuUnknownChoiceAndHelp(t *testing.T) {
	c := command{flags: &GlobalFlags{}}
	var out strings.Builder
	require.NoError(t, c.Menu(strings.NewReader("bogus\nhelp\nexit\n"), &out))
	assert.Contains(t, out.String(), `unknown choice "bogus"`)
	// help reprints the menu, so the header appears twice
	assert.Equal(t, 2, strings.Count(out.String(), "appsup - application supervisor"))
}

func TestMenuSkipsBlankLines(t *testing.T) {
	c := command{flags: &GlobalFlags{}}
	var out strings.Builder
	require.NoError(t, c.Menu(strings.NewReader("\n\nquit\n"), &out))
	assert.Equal(t, 3, strings.Count(out.String(), "> "))
}

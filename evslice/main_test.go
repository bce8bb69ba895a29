package main

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintUsage(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stderr, args0 := os.Stderr, os.Args[0]
	os.Stderr, os.Args[0] = w, "./evslice%d"
	defer func() { os.Stderr, os.Args[0] = stderr, args0 }()

	printUsage()
	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)

	assert.Contains(t, string(out), "Usage: ./evslice%d [options]")
	assert.NotContains(t, string(out), "%!")
}

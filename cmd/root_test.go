package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

// executeCommand executes the root command with args and captures its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := executeCommand(t, "version")
	assert.NoError(t, err)
	assert.Contains(t, output, "BentoML CLI v")
}

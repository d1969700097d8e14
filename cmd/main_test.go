package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmerrors "cachemgr/pkg/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd := newRootCmd()
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStressCommand(t *testing.T) {
	out, err := execute(t, "stress", "--capacity", "8", "--writers", "2", "--readers", "2", "--ops", "200", "--seed", "3", "--log-level", "error")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Test completed successfully"), out)
}

func TestStressCommandFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cachemgr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
capacity: 4
hash: djb2
optimistic_get: true
log_level: error
stress:
  writers: 1
  readers: 3
  ops_per_worker: 100
  key_space: 10
  delete_every: 10
  seed: 1
`), 0644))

	out, err := execute(t, "stress", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "final size")
}

func TestInvalidOverrideRejected(t *testing.T) {
	_, err := execute(t, "stress", "--capacity", "0", "--log-level", "error")
	assert.ErrorIs(t, err, cmerrors.ErrInvalidConfig)

	_, err = execute(t, "stress", "--capacity", "4", "--hash", "md5", "--log-level", "error")
	assert.ErrorIs(t, err, cmerrors.ErrInvalidConfig)
}

func TestFlagsDoNotLeakBetweenRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capacity: 4\nlog_level: error\n"), 0644))

	_, err := execute(t, "stress", "--config", path, "--ops", "10")
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	_, err = execute(t, "stress", "--capacity", "0", "--log-level", "error")
	assert.ErrorIs(t, err, cmerrors.ErrInvalidConfig)
}

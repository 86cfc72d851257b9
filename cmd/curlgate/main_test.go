package main

import (
	"context"
	"encoding/json"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/curlgate/internal/config"
	"github.com/codefionn/curlgate/internal/executor"
	"github.com/codefionn/curlgate/internal/policy"
	"github.com/codefionn/curlgate/internal/probe"
)

func TestParseCLIArgs(t *testing.T) {
	opts, err := parseCLIArgs([]string{"-compact", "-log-level", "debug", "curl", "-s", "https://example.com"})
	require.NoError(t, err)
	assert.True(t, opts.compact)
	assert.Equal(t, "debug", opts.logLevel)
	assert.Equal(t, "curl -s https://example.com", opts.text)
	assert.NotEmpty(t, opts.configPath)
}

func TestParseCLIArgsStopsAtCommand(t *testing.T) {
	// Flags after the first non-flag argument belong to the curl command.
	opts, err := parseCLIArgs([]string{"curl", "-compact", "https://example.com"})
	require.NoError(t, err)
	assert.False(t, opts.compact)
	assert.Equal(t, "curl -compact https://example.com", opts.text)
}

func TestParseCLIArgsErrors(t *testing.T) {
	_, err := parseCLIArgs([]string{"-serve", "-tools"})
	assert.Error(t, err)

	_, err = parseCLIArgs([]string{"-tools", "-write-config"})
	assert.Error(t, err)

	_, err = parseCLIArgs([]string{"-no-such-flag"})
	assert.Error(t, err)

	_, err = parseCLIArgs([]string{"-h"})
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestRunWriteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curlgate", "config.json")

	require.NoError(t, run([]string{"-config", path, "-log-level", "warn", "-write-config"}))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, config.DefaultConfig().ListenAddr, cfg.ListenAddr)
}

func TestReadCommand(t *testing.T) {
	notTTY := func() bool { return false }
	tty := func() bool { return true }

	text, err := readCommand("curl https://a", strings.NewReader("ignored"), tty)
	require.NoError(t, err)
	assert.Equal(t, "curl https://a", text)

	text, err = readCommand("", strings.NewReader("  curl https://b\n"), notTTY)
	require.NoError(t, err)
	assert.Equal(t, "curl https://b", text)

	_, err = readCommand("", strings.NewReader("curl https://c"), tty)
	assert.ErrorContains(t, err, "no command given")

	_, err = readCommand("  ", strings.NewReader("\n"), notTTY)
	assert.ErrorContains(t, err, "no command given on stdin")
}

func TestRenderJSON(t *testing.T) {
	status := 200
	resp := &probe.Response{Data: "ok", StatusCode: &status}

	compact, err := renderJSON(resp, true, false)
	require.NoError(t, err)
	assert.Equal(t, `{"data":"ok","statusCode":200}`+"\n", string(compact))

	pretty, err := renderJSON(resp, false, false)
	require.NoError(t, err)
	assert.Contains(t, string(pretty), "\n  \"statusCode\": 200")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(pretty, &decoded))
	assert.Equal(t, "ok", decoded["data"])
}

type bigNumberRunner struct{}

func (bigNumberRunner) Execute(context.Context, policy.ArgumentVector) (*executor.Outcome, error) {
	return &executor.Outcome{Stdout: `{"v":1e400}`}, nil
}

func TestRenderJSONKeepsExtremeNumbers(t *testing.T) {
	resp := probe.NewPipeline(probe.WithRunner(bigNumberRunner{})).Run(context.Background(), "curl https://example.com")
	require.False(t, resp.Failed())

	out, err := renderJSON(resp, true, false)
	require.NoError(t, err)
	assert.Equal(t, `{"data":{"v":1e400}}`+"\n", string(out))
}

func TestNewRegistry(t *testing.T) {
	reg := newRegistry(probe.NewPipeline(), 3)
	schema := reg.ToJSONSchema()
	require.Len(t, schema, 2)
}

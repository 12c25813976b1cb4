package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/K-Pomian/synthetify-protocol/internal/bootstrap"
	"github.com/K-Pomian/synthetify-protocol/internal/config"
)

func run(args ...string) (string, error) {
	// Flag variables are package globals and survive between executions.
	sandboxRun, resumeRun, jsonOut, forceInit = false, false, false, false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", "testdata/sandbox.yaml", "--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(args...)
	require.NoError(t, err)
	return out
}

func TestBootstrapSandboxJSON(t *testing.T) {
	out := execute(t, "bootstrap", "--sandbox", "--json")

	var res bootstrap.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, bootstrap.StatusOK, res.Status)
	require.Len(t, res.Synthetics, 2)
	assert.Equal(t, "xBTC", res.Synthetics[0].Ticker)
	assert.Equal(t, "HovQMDrbAgAYPCmHVSrezcSmkMtXSSUsLDFANExrZh2J", res.Synthetics[0].Feed.String())
	assert.Equal(t, uint64(10_000_000_000), res.Synthetics[1].MaxSupply)
	assert.False(t, res.AssetsList.IsZero())
}

func TestBootstrapSandboxRejectsResume(t *testing.T) {
	_, err := run("bootstrap", "--sandbox", "--resume")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--resume")
}

func TestConfigInitWritesDefaults(t *testing.T) {
	t.Setenv("SOLANA_RPC_URL", "")
	t.Setenv("SOLANA_COMMITMENT", "")
	path := filepath.Join(t.TempDir(), "configs", "local.yaml")
	out := execute(t, "config", "init", path)
	assert.Equal(t, path+"\n", out)

	got, err := config.Load(path)
	require.NoError(t, err)
	want := config.Defaults()
	assert.Equal(t, want.Network.RpcURL, got.Network.RpcURL)
	assert.Equal(t, want.Bootstrap.Poll, got.Bootstrap.Poll)
	assert.Equal(t, want.Bootstrap.Confirm, got.Bootstrap.Confirm)
	assert.Equal(t, want.Collateral, got.Collateral)

	_, err = run("config", "init", path)
	assert.ErrorContains(t, err, "already exists")
	execute(t, "config", "init", "--force", path)
}

func TestAuthorityCommand(t *testing.T) {
	out := execute(t, "authority")
	assert.True(t, strings.HasPrefix(out, "authority "), out)
	assert.Contains(t, out, "state ")
}

func TestBootstrapParams(t *testing.T) {
	execute(t, "authority")
	admin := solana.NewWallet().PublicKey()

	params, err := bootstrapParams(cfg, admin)
	require.NoError(t, err)
	assert.Equal(t, admin, params.Admin)
	assert.Equal(t, []byte("Synthetify"), params.AuthoritySeed)
	assert.Equal(t, 5, params.Poll.MaxAttempts)
	assert.Equal(t, 1.5, params.Poll.Multiplier)
	assert.Equal(t, int32(-8), params.FeedExpo)
	assert.Len(t, params.Assets, 2)
}

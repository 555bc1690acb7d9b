package cmd

import (
	"testing"

	"github.com/Mohsinsiddi/savingctl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSetPersists(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("config", "set", "default_network", "sepolia")
	assert.Contains(t, out, `default_network set to "sepolia"`)

	loaded, err := config.Load(env.dir)
	require.NoError(t, err)
	assert.Equal(t, "sepolia", loaded.DefaultNetwork)

	out = env.mustRun("config", "show")
	assert.Contains(t, out, `"default_network": "sepolia"`)
	assert.Contains(t, out, env.dir)
}

func TestConfigSetUnknownKey(t *testing.T) {
	_, err := newTestEnv(t).run("config", "set", "colour", "blue")
	assert.ErrorIs(t, err, config.ErrUnknownKey)
}

func TestConfigRPCs(t *testing.T) {
	env := newTestEnv(t)

	env.mustRun("config", "add-rpc", "Sepolia", "https://rpc.example.org")
	loaded, err := config.Load(env.dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://rpc.example.org"}, loaded.CustomRPCs["sepolia"])

	_, err = env.run("config", "add-rpc", "sepolia", "https://rpc.example.org")
	assert.ErrorContains(t, err, "already exists")

	env.mustRun("config", "remove-rpc", "sepolia", "https://rpc.example.org")
	loaded, err = config.Load(env.dir)
	require.NoError(t, err)
	assert.Empty(t, loaded.CustomRPCs["sepolia"])

	_, err = env.run("config", "remove-rpc", "sepolia", "https://rpc.example.org")
	assert.ErrorContains(t, err, "not found")
}

func TestNetworkList(t *testing.T) {
	out := newTestEnv(t).mustRun("network", "list")
	assert.Contains(t, out, "localhost")
	assert.Contains(t, out, "localhost*")
	assert.Contains(t, out, "31337")
	assert.Contains(t, out, "protocol deployed on: localhost")
}

func TestInvalidLogLevelFails(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("config", "set", "log_level", "loud")

	_, err := env.run("status", "list")
	assert.ErrorContains(t, err, "invalid log level")
}

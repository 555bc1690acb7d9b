package e2e_test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/savingctl/internal/chaintest"
	"github.com/Mohsinsiddi/savingctl/internal/protocol"
	"github.com/Mohsinsiddi/savingctl/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary before all E2E tests.
	tmp, err := os.MkdirTemp("", "savingctl-e2e-test")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "savingctl")
	// Build from the module root (two levels up from test/e2e/).
	moduleRoot, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		panic(err)
	}
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = moduleRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("build failed: " + string(out))
	}

	os.Exit(m.Run())
}

func command(configDir string, args ...string) *exec.Cmd {
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(),
		"SAVINGCTL_CONFIG_DIR="+configDir,
		wallet.EnvPrivateKey+"=",
	)
	return cmd
}

// stdout runs the binary and returns only its standard output.
func stdout(t *testing.T, configDir string, args ...string) []byte {
	t.Helper()
	out, err := command(configDir, args...).Output()
	require.NoError(t, err)
	return out
}

func runCLI(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	out, err := command(configDir, args...).CombinedOutput()
	return string(out), err
}

func TestVersionFlag(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "savingctl")
	assert.Contains(t, out, "0.1.0")
}

func TestHelpCommand(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "--help")
	require.NoError(t, err)
	for _, name := range []string{"token", "plans", "status", "deploy", "metadata", "constants", "wallet", "config", "network"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "--network")
	assert.Contains(t, out, "--rpc")
}

func TestNetworkList(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "network", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "localhost")
	assert.Contains(t, out, "sepolia")
	assert.Contains(t, out, "31337")
}

func TestStatusLabels(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "status", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ManualRenewed")

	out, err = runCLI(t, dir, "status", "label", "3")
	require.NoError(t, err)
	assert.Equal(t, "ManualRenewed\n", out)

	_, err = runCLI(t, dir, "status", "label", "7")
	assert.Error(t, err)
}

func TestConstantsShow(t *testing.T) {
	out := stdout(t, t.TempDir(), "constants", "show")

	var c protocol.Constants
	require.NoError(t, json.Unmarshal(out, &c))
	assert.EqualValues(t, 6, c.TokenDecimals)
	assert.Len(t, c.DefaultPlans, 4)
}

func TestWalletImportAndList(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "wallet", "import", "treasury", chaintest.UserAddress)
	require.NoError(t, err)

	out, err := runCLI(t, dir, "wallet", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "treasury")
	assert.Contains(t, out, "watch-only")
}

func TestWalletRemove(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "wallet", "import", "w1", chaintest.UserAddress)
	require.NoError(t, err)

	// Use stdin to confirm the prompt.
	cmd := command(dir, "wallet", "remove", "w1")
	cmd.Stdin = strings.NewReader("y\n")
	require.NoError(t, cmd.Run())

	out, err := runCLI(t, dir, "wallet", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "w1")
}

func TestConfigSetAndShow(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "config", "set", "default_network", "sepolia")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"default_network": "sepolia"`)
	assert.Contains(t, out, dir)
}

func TestConfigSetUnknownKey(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "config", "set", "nope", "1")
	assert.Error(t, err)
	assert.Contains(t, out, "✗")
}

func TestTokenInfoAgainstLedger(t *testing.T) {
	l := chaintest.New(t)

	out, err := runCLI(t, t.TempDir(), "token", "info", "--network", "localhost", "--rpc", l.URL())
	require.NoError(t, err)
	assert.Contains(t, out, "Mock USDC")
	assert.Contains(t, out, chaintest.TokenAddress)
}

func TestPlansListAgainstLedger(t *testing.T) {
	l := chaintest.New(t)
	l.AddPlan(30*86400, 500, true)

	out := stdout(t, t.TempDir(), "plans", "list", "--json", "--network", "localhost", "--rpc", l.URL())

	var plans []map[string]any
	require.NoError(t, json.Unmarshal(out, &plans))
	assert.Len(t, plans, 1)
}

func TestUnknownCommandShowsError(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "unknowncommand")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(out), "unknown command")
	assert.Contains(t, out, "✗")
}

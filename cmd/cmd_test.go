package cmd

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/savingctl/internal/wallet"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// testEnv is one isolated config directory with an in-memory keystore.
type testEnv struct {
	t   *testing.T
	dir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(wallet.EnvPrivateKey, "")
	t.Setenv(EnvConfigDir, "")

	ks := wallet.NewInMemoryKeystore()
	prev := newKeystore
	newKeystore = func(string) wallet.KeystoreBackend { return ks }
	t.Cleanup(func() { newKeystore = prev })

	return &testEnv{t: t, dir: t.TempDir()}
}

// run executes savingctl with args against the env's config directory and
// returns what the command wrote to stdout.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append([]string{"--config", e.dir}, args...))

	err := rootCmd.Execute()
	return out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, "savingctl %s\n%s", strings.Join(args, " "), out)
	return out
}

// resetFlags restores every flag to its default. Package-level flag vars
// otherwise leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if _, ok := f.Value.(pflag.SliceValue); !ok {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
	metadataRun = nil
}

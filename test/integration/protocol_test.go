package integration_test

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/savingctl/internal/chaintest"
	"github.com/Mohsinsiddi/savingctl/internal/logging"
	"github.com/Mohsinsiddi/savingctl/internal/manifest"
	"github.com/Mohsinsiddi/savingctl/internal/plan"
	"github.com/Mohsinsiddi/savingctl/internal/protocol"
	"github.com/Mohsinsiddi/savingctl/internal/token"
	"github.com/Mohsinsiddi/savingctl/internal/wallet"
	"github.com/Mohsinsiddi/savingctl/test/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assembleLocalhost writes fixture artifacts, assembles manifests for the
// localhost deployment and returns the deployments root.
func assembleLocalhost(t *testing.T) string {
	t.Helper()
	artifacts := fixtures.WriteArtifacts(t, t.TempDir())
	root := filepath.Join(t.TempDir(), "deployments")

	sources, err := manifest.SourcesFor(protocol.Default(), "localhost", artifacts)
	require.NoError(t, err)
	report := manifest.Assemble(sources, filepath.Join(root, "localhost"), logging.Discard())
	require.True(t, report.Complete(), "failed: %v", report.Failed())
	return root
}

func TestManifestsDriveTokenAndPlanClients(t *testing.T) {
	ctx := context.Background()
	l := chaintest.New(t)
	l.AddPlan(30*86400, 500, true)
	l.AddPlan(90*86400, 800, true)

	reg, err := manifest.LoadDir(assembleLocalhost(t))
	require.NoError(t, err)
	assert.Equal(t, len(protocol.ContractNames()), reg.Len())

	usdc, err := reg.Get(protocol.MockUSDC, "localhost")
	require.NoError(t, err)
	assert.Equal(t, chaintest.TokenAddress, usdc.Address)

	// Token: mint to the user, move part of it back, then check conservation.
	owner, err := wallet.SignerFromKey("owner", chaintest.OwnerKey)
	require.NoError(t, err)
	user, err := wallet.SignerFromKey("user", chaintest.UserKey)
	require.NoError(t, err)
	chainID := big.NewInt(chaintest.ChainID)

	reader, err := token.NewClient(l.Client(), usdc.Address, logging.Discard())
	require.NoError(t, err)
	asOwner, err := reader.WithSigner(owner, chainID)
	require.NoError(t, err)
	asUser, err := reader.WithSigner(user, chainID)
	require.NoError(t, err)

	_, err = asOwner.Mint(ctx, chaintest.UserAddress, big.NewInt(5_000_000))
	require.NoError(t, err)
	_, err = asUser.Transfer(ctx, chaintest.OwnerAddress, big.NewInt(2_000_000))
	require.NoError(t, err)

	bal, err := reader.BalanceOf(ctx, chaintest.UserAddress)
	require.NoError(t, err)
	assert.Equal(t, "3000000", bal.String())

	report, err := reader.CheckConservation(ctx, []string{chaintest.OwnerAddress, chaintest.UserAddress})
	require.NoError(t, err)
	assert.True(t, report.Balanced())
	assert.Equal(t, 0, l.TotalSupply().Cmp(report.TotalSupply))

	// Plans: the assembled SavingCore manifest points at the catalogue.
	core, err := reg.Get(protocol.SavingCore, "localhost")
	require.NoError(t, err)
	plans, err := plan.NewReader(l.Client(), core.Address, logging.Discard())
	require.NoError(t, err)

	var scanned []plan.Plan
	for p, err := range plans.Scan(ctx, 0) {
		require.NoError(t, err)
		scanned = append(scanned, p)
	}
	require.Len(t, scanned, 2)
	assert.Equal(t, "90d", scanned[1].Duration())

	all, err := plans.GetAllPlans(ctx)
	require.NoError(t, err)
	assert.Equal(t, scanned, all)

	v, err := plans.VerifyAccessors(ctx, 0)
	require.NoError(t, err)
	assert.True(t, v.Consistent())
}

func TestExtractedABIsMatchArtifacts(t *testing.T) {
	artifacts := fixtures.WriteArtifacts(t, t.TempDir(), protocol.MockUSDC)
	abiDir := t.TempDir()

	sources, err := manifest.SourcesFor(protocol.Default(), "localhost", artifacts)
	require.NoError(t, err)
	report := manifest.ExtractABIs(sources, abiDir, logging.Discard())

	assert.False(t, report.Complete())
	require.Len(t, report.Written(), 1)
	assert.Equal(t, protocol.MockUSDC, report.Written()[0].Name)
	assert.Len(t, report.Failed(), len(protocol.ContractNames())-1)
}

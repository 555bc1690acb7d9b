package token_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/Mohsinsiddi/savingctl/internal/chain"
	"github.com/Mohsinsiddi/savingctl/internal/chaintest"
	"github.com/Mohsinsiddi/savingctl/internal/logging"
	"github.com/Mohsinsiddi/savingctl/internal/token"
	"github.com/Mohsinsiddi/savingctl/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// units converts whole tokens to 6-decimal base units.
func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000))
}

func readClient(t *testing.T, l *chaintest.Ledger) *token.Client {
	t.Helper()
	c, err := token.NewClient(l.Client(), chaintest.TokenAddress, logging.Discard())
	require.NoError(t, err)
	c.SetConfirmTimeout(5 * time.Second)
	return c
}

func signingClient(t *testing.T, l *chaintest.Ledger, key string) *token.Client {
	t.Helper()
	signer, err := wallet.SignerFromKey("test", key)
	require.NoError(t, err)
	c, err := readClient(t, l).WithSigner(signer, big.NewInt(chaintest.ChainID))
	require.NoError(t, err)
	return c
}

// ---------------------------------------------------------------------------
// reads
// ---------------------------------------------------------------------------

func TestDeployedState(t *testing.T) {
	l := chaintest.New(t)
	c := readClient(t, l)
	ctx := context.Background()

	dec, err := c.Decimals(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), dec)

	supply, err := c.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, units(1_000_000), supply)

	bal, err := c.BalanceOf(ctx, chaintest.OwnerAddress)
	require.NoError(t, err)
	assert.Equal(t, supply, bal, "deployer holds the whole supply")

	bal, err = c.BalanceOf(ctx, chaintest.UserAddress)
	require.NoError(t, err)
	assert.Zero(t, bal.Sign())
}

func TestInfo(t *testing.T) {
	l := chaintest.New(t)
	info, err := readClient(t, l).Info(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Mock USDC", info.Name)
	assert.Equal(t, "USDC", info.Symbol)
	assert.Equal(t, uint8(6), info.Decimals)
	assert.Equal(t, chaintest.OwnerAddress, info.Owner)
}

func TestBalanceOfRejectsBadAddress(t *testing.T) {
	l := chaintest.New(t)
	_, err := readClient(t, l).BalanceOf(context.Background(), "0x1234")
	assert.ErrorContains(t, err, "invalid address")
	assert.Zero(t, l.Calls("eth_call"))
}

func TestNewClientRejectsBadAddress(t *testing.T) {
	_, err := token.NewClient(chain.NewEVMClient("http://127.0.0.1:0"), "nope", logging.Discard())
	assert.Error(t, err)
}

func TestReadFault(t *testing.T) {
	l := chaintest.New(t)
	l.Fail("eth_call", -32000, "upstream unavailable")

	_, err := readClient(t, l).TotalSupply(context.Background())
	assert.ErrorIs(t, err, chain.ErrExternalCall)
}

// ---------------------------------------------------------------------------
// writes
// ---------------------------------------------------------------------------

func TestMintAndTransferScenario(t *testing.T) {
	l := chaintest.New(t)
	owner := signingClient(t, l, chaintest.OwnerKey)
	user := signingClient(t, l, chaintest.UserKey)
	ctx := context.Background()

	receipt, err := owner.Mint(ctx, chaintest.UserAddress, units(1000))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Status)

	bal, err := owner.BalanceOf(ctx, chaintest.UserAddress)
	require.NoError(t, err)
	assert.Equal(t, units(1000), bal, "write is visible once Mint returns")

	supply, err := owner.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, units(1_001_000), supply)

	_, err = user.Transfer(ctx, chaintest.OwnerAddress, units(100))
	require.NoError(t, err)

	bal, err = user.BalanceOf(ctx, chaintest.UserAddress)
	require.NoError(t, err)
	assert.Equal(t, units(900), bal)

	bal, err = user.BalanceOf(ctx, chaintest.OwnerAddress)
	require.NoError(t, err)
	assert.Equal(t, units(1_000_100), bal)

	report, err := owner.CheckConservation(ctx, []string{chaintest.OwnerAddress, chaintest.UserAddress})
	require.NoError(t, err)
	assert.True(t, report.Balanced())
}

func TestMintUnauthorized(t *testing.T) {
	l := chaintest.New(t)
	user := signingClient(t, l, chaintest.UserKey)

	_, err := user.Mint(context.Background(), chaintest.UserAddress, units(1))
	require.ErrorIs(t, err, token.ErrUnauthorized)
	assert.Contains(t, err.Error(), chaintest.UserAddress)
	assert.Zero(t, l.Calls("eth_sendRawTransaction"), "rejected before broadcast")
	assert.Equal(t, units(1_000_000), l.TotalSupply())
}

func TestMintOtherRevert(t *testing.T) {
	l := chaintest.New(t)
	owner := signingClient(t, l, chaintest.OwnerKey)

	_, err := owner.Mint(context.Background(), "0x0000000000000000000000000000000000000000", units(1))
	require.Error(t, err)
	assert.NotErrorIs(t, err, token.ErrUnauthorized)
	assert.ErrorIs(t, err, chain.ErrExternalCall)
	assert.Contains(t, err.Error(), "ERC20InvalidReceiver")
}

func TestTransferInsufficientBalance(t *testing.T) {
	l := chaintest.New(t)
	user := signingClient(t, l, chaintest.UserKey)

	_, err := user.Transfer(context.Background(), chaintest.OwnerAddress, units(1))
	require.ErrorIs(t, err, token.ErrInsufficientBalance)
	assert.Zero(t, l.Calls("eth_sendRawTransaction"))
}

func TestTransferWholeBalance(t *testing.T) {
	l := chaintest.New(t)
	owner := signingClient(t, l, chaintest.OwnerKey)

	_, err := owner.Transfer(context.Background(), chaintest.UserAddress, units(1_000_000))
	require.NoError(t, err)
	assert.Zero(t, l.Balance(chaintest.OwnerAddress).Sign())
	assert.Equal(t, units(1_000_000), l.Balance(chaintest.UserAddress))
}

func TestWritesRequireSigner(t *testing.T) {
	l := chaintest.New(t)
	c := readClient(t, l)

	_, err := c.Mint(context.Background(), chaintest.UserAddress, units(1))
	assert.ErrorIs(t, err, token.ErrNoSigner)
	_, err = c.Transfer(context.Background(), chaintest.UserAddress, units(1))
	assert.ErrorIs(t, err, token.ErrNoSigner)
}

func TestWritesRejectNonPositiveAmount(t *testing.T) {
	l := chaintest.New(t)
	owner := signingClient(t, l, chaintest.OwnerKey)

	_, err := owner.Mint(context.Background(), chaintest.UserAddress, big.NewInt(0))
	assert.ErrorIs(t, err, token.ErrInvalidAmount)
	_, err = owner.Transfer(context.Background(), chaintest.UserAddress, big.NewInt(-5))
	assert.ErrorIs(t, err, token.ErrInvalidAmount)
}

func TestWriteWaitsForMining(t *testing.T) {
	l := chaintest.New(t)
	l.DelayMining(3)
	owner := signingClient(t, l, chaintest.OwnerKey)

	receipt, err := owner.Transfer(context.Background(), chaintest.UserAddress, units(5))
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.GreaterOrEqual(t, l.Calls("eth_getTransactionReceipt"), 4)
}

func TestSequentialWritesUseFreshNonces(t *testing.T) {
	l := chaintest.New(t)
	owner := signingClient(t, l, chaintest.OwnerKey)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := owner.Transfer(ctx, chaintest.UserAddress, units(1))
		require.NoError(t, err)
	}
	assert.Equal(t, units(3), l.Balance(chaintest.UserAddress))
}

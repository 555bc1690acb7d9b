package wallet

import (
	"math/big"
	"testing"

	"github.com/99designs/keyring"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known Hardhat/Anvil test account #0; never fund on mainnet.
const (
	testPrivKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testSignerAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// testKeystore returns a file-backed Keystore isolated to a temp directory.
// Using the FileBackend avoids OS keychain prompts in CI.
func testKeystore(t *testing.T) *Keystore {
	t.Helper()
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      "savingctl-test",
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          t.TempDir(),
		FilePasswordFunc: func(string) (string, error) { return "testpass", nil },
	})
	require.NoError(t, err)
	return NewKeystore(ring)
}

func dynamicTx() *types.Transaction {
	to := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(31337),
		Nonce:     3,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       60000,
		To:        &to,
		Value:     big.NewInt(0),
	})
}

// ---------------------------------------------------------------------------
// normaliseHexKey
// ---------------------------------------------------------------------------

func TestNormaliseHexKey(t *testing.T) {
	assert.Equal(t, "abc123", normaliseHexKey("0xabc123"))
	assert.Equal(t, "abc123", normaliseHexKey("0Xabc123"))
	assert.Equal(t, "abc123", normaliseHexKey("abc123"))
	assert.Equal(t, "abc", normaliseHexKey("  0xabc  "))
	assert.Equal(t, "", normaliseHexKey("0x"))
	assert.Equal(t, "", normaliseHexKey(""))
}

// ---------------------------------------------------------------------------
// Keystore
// ---------------------------------------------------------------------------

func TestKeystoreFileBackendRoundTrip(t *testing.T) {
	ks := testKeystore(t)

	ref, err := ks.Store("deployer", "0x"+testPrivKeyHex)
	require.NoError(t, err)
	assert.Equal(t, "savingctl.deployer", ref)

	got, err := ks.Retrieve(ref)
	require.NoError(t, err)
	assert.Equal(t, testPrivKeyHex, got)

	require.NoError(t, ks.Delete(ref))
	_, err = ks.Retrieve(ref)
	assert.Error(t, err)

	// Deleting twice is not an error.
	assert.NoError(t, ks.Delete(ref))
}

func TestKeystoreEnvOverride(t *testing.T) {
	t.Setenv(EnvPrivateKey, "0x"+testPrivKeyHex)

	ks := &Keystore{}
	got, err := ks.Retrieve("savingctl.any-ref")
	require.NoError(t, err)
	assert.Equal(t, testPrivKeyHex, got)
}

func TestKeystoreUnavailable(t *testing.T) {
	ks := &Keystore{}
	_, err := ks.Store("x", testPrivKeyHex)
	assert.ErrorIs(t, err, ErrKeystoreUnavailable)
	_, err = ks.Retrieve("savingctl.x")
	assert.ErrorIs(t, err, ErrKeystoreUnavailable)
	assert.NoError(t, ks.Delete("savingctl.x"))
}

// ---------------------------------------------------------------------------
// Signer
// ---------------------------------------------------------------------------

func TestSignTxWatchOnlyError(t *testing.T) {
	w := &Wallet{Name: "watcher", Address: testSignerAddr, Type: TypeWatchOnly}
	_, err := NewSigner(w, NewInMemoryKeystore()).SignTx(dynamicTx(), big.NewInt(31337))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch-only")
}

func TestSignTxMissingKey(t *testing.T) {
	w := &Wallet{Name: "w", Address: testSignerAddr, Type: TypeSigning, KeyRef: "savingctl.w"}
	_, err := NewSigner(w, NewInMemoryKeystore()).SignTx(dynamicTx(), big.NewInt(31337))
	assert.ErrorContains(t, err, "retrieving key")
}

func TestSignTxRecoversSender(t *testing.T) {
	ks := testKeystore(t)
	ref, err := ks.Store("deployer", testPrivKeyHex)
	require.NoError(t, err)

	w := &Wallet{Name: "deployer", Address: testSignerAddr, Type: TypeSigning, KeyRef: ref}
	raw, err := NewSigner(w, ks).SignTx(dynamicTx(), big.NewInt(31337))
	require.NoError(t, err)

	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(raw))
	from, err := types.Sender(types.NewLondonSigner(big.NewInt(31337)), &tx)
	require.NoError(t, err)
	assert.Equal(t, testSignerAddr, from.Hex())
	assert.Equal(t, uint64(3), tx.Nonce())
}

func TestSignerFromKey(t *testing.T) {
	s, err := SignerFromKey("env", "0x"+testPrivKeyHex)
	require.NoError(t, err)
	assert.Equal(t, testSignerAddr, s.Address())
	assert.Equal(t, TypeSigning, s.Wallet().Type)

	_, err = s.SignTx(dynamicTx(), big.NewInt(31337))
	assert.NoError(t, err)

	_, err = SignerFromKey("bad", "zz")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

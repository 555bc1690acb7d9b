package contract_test

import (
	"testing"

	"github.com/Mohsinsiddi/savingctl/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryEmpty(t *testing.T) {
	reg := contract.NewRegistry()
	assert.Empty(t, reg.All())
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryAddAndGet(t *testing.T) {
	reg := contract.NewRegistry()
	reg.Add(&contract.Entry{
		Name:    "MockUSDC",
		Network: "sepolia",
		Address: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		ABI:     []contract.ABIEntry{{Name: "balanceOf", Type: "function"}},
	})

	got, err := reg.Get("MockUSDC", "sepolia")
	require.NoError(t, err)
	assert.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", got.Address)
	assert.Len(t, got.ABI, 1)
}

func TestRegistryGetNotFound(t *testing.T) {
	reg := contract.NewRegistry()
	reg.Add(&contract.Entry{Name: "MockUSDC", Network: "sepolia"})

	_, err := reg.Get("MockUSDC", "base-sepolia")
	assert.ErrorIs(t, err, contract.ErrContractNotFound)

	_, err = reg.Get("SavingCore", "sepolia")
	assert.ErrorIs(t, err, contract.ErrContractNotFound)
}

func TestRegistryAddOverwrites(t *testing.T) {
	reg := contract.NewRegistry()
	reg.Add(&contract.Entry{Name: "SavingCore", Network: "sepolia", Address: "0x01"})
	reg.Add(&contract.Entry{Name: "SavingCore", Network: "sepolia", Address: "0x02"})

	got, err := reg.Get("SavingCore", "sepolia")
	require.NoError(t, err)
	assert.Equal(t, "0x02", got.Address)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryAllSorted(t *testing.T) {
	reg := contract.NewRegistry()
	reg.Add(&contract.Entry{Name: "SavingCore", Network: "sepolia"})
	reg.Add(&contract.Entry{Name: "MockUSDC", Network: "sepolia"})
	reg.Add(&contract.Entry{Name: "MockUSDC", Network: "localhost"})

	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, "localhost", all[0].Network)
	assert.Equal(t, "MockUSDC", all[1].Name)
	assert.Equal(t, "SavingCore", all[2].Name)
}

func TestABIEntryMutability(t *testing.T) {
	view := contract.ABIEntry{Type: "function", StateMutability: "view"}
	write := contract.ABIEntry{Type: "function", StateMutability: "nonpayable"}
	event := contract.ABIEntry{Type: "event"}

	assert.True(t, view.IsReadFunction())
	assert.False(t, view.IsWriteFunction())
	assert.True(t, write.IsWriteFunction())
	assert.False(t, event.IsReadFunction())
	assert.False(t, event.IsWriteFunction())
}

// ---------------------------------------------------------------------------
// built-ins
// ---------------------------------------------------------------------------

func TestProtocolBuiltinsRegistered(t *testing.T) {
	usdc, ok := contract.GetBuiltin("mockusdc")
	require.True(t, ok)
	assert.Equal(t, "MockUSDC", usdc.Name)

	core, ok := contract.GetBuiltin("savingcore")
	require.True(t, ok)
	assert.Equal(t, "SavingCore", core.Name)

	assert.NotEmpty(t, contract.GetBuiltinABI("mockusdc"))
	assert.Nil(t, contract.GetBuiltinABI("erc721"))
}

func TestAllBuiltinsSorted(t *testing.T) {
	all := contract.AllBuiltins()
	require.GreaterOrEqual(t, len(all), 2)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}
}

func TestMockUSDCDeclaresSurface(t *testing.T) {
	names := map[string]bool{}
	for _, e := range contract.GetBuiltinABI("mockusdc") {
		names[e.Name] = true
	}
	for _, fn := range []string{"decimals", "totalSupply", "balanceOf", "mint", "transfer", "OwnableUnauthorizedAccount"} {
		assert.True(t, names[fn], fn)
	}
}

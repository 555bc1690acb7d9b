package chain_test

import (
	"testing"

	"github.com/Mohsinsiddi/savingctl/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetByName(t *testing.T) {
	registry := chain.NewRegistry()

	tests := []struct {
		name    string
		chainID int64
	}{
		{"localhost", 31337},
		{"sepolia", 11155111},
		{"base-sepolia", 84532},
		{"ethereum", 1},
		{"base", 8453},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := registry.GetByName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.name, c.Name)
			assert.Equal(t, tt.chainID, c.ChainID)
		})
	}
}

func TestRegistryGetByNameCaseInsensitive(t *testing.T) {
	c, err := chain.NewRegistry().GetByName("Sepolia")
	require.NoError(t, err)
	assert.Equal(t, int64(11155111), c.ChainID)
}

func TestRegistryGetUnknownChain(t *testing.T) {
	_, err := chain.NewRegistry().GetByName("unknownchain")
	assert.ErrorIs(t, err, chain.ErrChainNotFound)
}

func TestRegistryGetByChainID(t *testing.T) {
	c, err := chain.NewRegistry().GetByChainID(84532)
	require.NoError(t, err)
	assert.Equal(t, "base-sepolia", c.Name)

	_, err = chain.NewRegistry().GetByChainID(999)
	assert.ErrorIs(t, err, chain.ErrChainNotFound)
}

func TestAllChainsHaveRPC(t *testing.T) {
	for _, c := range chain.NewRegistry().All() {
		t.Run(c.Name, func(t *testing.T) {
			assert.NotEmpty(t, c.RPCs, "chain %s has no RPCs", c.Name)
		})
	}
}

func TestAllSortedByName(t *testing.T) {
	all := chain.NewRegistry().All()
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name, all[i].Name)
	}
}

func TestExplorerLinks(t *testing.T) {
	reg := chain.NewRegistry()

	sep, err := reg.GetByName("sepolia")
	require.NoError(t, err)
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", sep.TxURL("0xabc"))
	assert.Equal(t, "https://sepolia.etherscan.io/address/0xdef", sep.AddressURL("0xdef"))

	local, err := reg.GetByName("localhost")
	require.NoError(t, err)
	assert.Empty(t, local.TxURL("0xabc"))
}

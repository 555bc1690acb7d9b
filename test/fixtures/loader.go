package fixtures

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/savingctl/internal/contract"
	"github.com/Mohsinsiddi/savingctl/internal/manifest"
	"github.com/Mohsinsiddi/savingctl/internal/protocol"
	"github.com/stretchr/testify/require"
)

// builtinFor maps protocol contracts to the embedded ABI that describes them.
// Contracts without one get a placeholder owner() ABI.
var builtinFor = map[string]string{
	protocol.MockUSDC:   "mockusdc",
	protocol.SavingCore: "savingcore",
}

var ownerABI = []contract.ABIEntry{{
	Name:            "owner",
	Type:            "function",
	Inputs:          []contract.ABIParam{},
	Outputs:         []contract.ABIParam{{Name: "", Type: "address", InternalType: "address"}},
	StateMutability: "view",
}}

// artifact is the subset of a Hardhat build artifact the assembler reads.
type artifact struct {
	Format       string              `json:"_format"`
	ContractName string              `json:"contractName"`
	SourceName   string              `json:"sourceName"`
	ABI          []contract.ABIEntry `json:"abi"`
	Bytecode     string              `json:"bytecode"`
}

// ABI returns the ABI a fixture artifact carries for the named contract.
func ABI(name string) []contract.ABIEntry {
	if id, ok := builtinFor[name]; ok {
		return contract.GetBuiltinABI(id)
	}
	return ownerABI
}

// WriteArtifacts writes a Hardhat artifact for each named contract under dir
// and returns dir. With no names every protocol contract is written.
func WriteArtifacts(t *testing.T, dir string, names ...string) string {
	t.Helper()
	if len(names) == 0 {
		names = protocol.ContractNames()
	}
	for _, name := range names {
		path := manifest.ArtifactPath(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

		data, err := json.MarshalIndent(artifact{
			Format:       "hh-sol-artifact-1",
			ContractName: name,
			SourceName:   "contracts/" + name + ".sol",
			ABI:          ABI(name),
			Bytecode:     "0x",
		}, "", "  ")
		require.NoError(t, err, "encoding fixture artifact: %s", name)
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
	return dir
}

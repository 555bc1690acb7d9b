package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Mohsinsiddi/savingctl/internal/contract"
)

// LoadNetwork adds every <dir>/<name>.json manifest to reg under network.
// A missing directory adds nothing.
func LoadNetwork(reg *contract.Registry, dir, network string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, f.Name())
		m, err := Read(path)
		if err != nil {
			return err
		}
		var entries []contract.ABIEntry
		if err := json.Unmarshal(m.ABI, &entries); err != nil {
			return fmt.Errorf("manifest %s: abi: %w", path, err)
		}
		reg.Add(&contract.Entry{
			Name:    strings.TrimSuffix(f.Name(), ".json"),
			Network: network,
			Address: m.Address,
			ABI:     entries,
		})
	}
	return nil
}

// LoadDir reads a deployments tree laid out as <root>/<network>/<name>.json.
func LoadDir(root string) (*contract.Registry, error) {
	reg := contract.NewRegistry()
	dirs, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, err
	}

	networks := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d.IsDir() {
			networks = append(networks, d.Name())
		}
	}
	sort.Strings(networks)

	for _, network := range networks {
		if err := LoadNetwork(reg, filepath.Join(root, network), network); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

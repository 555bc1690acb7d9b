package contract

import (
	"errors"
	"fmt"
	"sort"
)

// ErrContractNotFound is returned when a contract is not found.
var ErrContractNotFound = errors.New("contract not found")

// ABIEntry is one ABI entry (function, event, error, constructor).
type ABIEntry struct {
	Name            string     `json:"name,omitempty"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty"`
	Anonymous       bool       `json:"anonymous,omitempty"`
}

// ABIParam is a parameter in an ABI entry. Tuples carry their fields in Components.
type ABIParam struct {
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	InternalType string     `json:"internalType,omitempty"`
	Components   []ABIParam `json:"components,omitempty"`
	Indexed      bool       `json:"indexed,omitempty"`
}

// IsReadFunction returns true if the function is read-only (view/pure).
func (e ABIEntry) IsReadFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "view" || e.StateMutability == "pure")
}

// IsWriteFunction returns true if the function modifies state.
func (e ABIEntry) IsWriteFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "nonpayable" || e.StateMutability == "payable")
}

// Entry is a deployed contract on one network.
type Entry struct {
	Name    string     `json:"name"`
	Network string     `json:"network"`
	Address string     `json:"address"`
	ABI     []ABIEntry `json:"abi"`
}

// Registry resolves deployed contracts by name and network.
type Registry struct {
	contracts map[string]*Entry // key: "name@network"
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{contracts: make(map[string]*Entry)}
}

// Add adds or updates a contract entry.
func (r *Registry) Add(e *Entry) {
	r.contracts[key(e.Name, e.Network)] = e
}

// Get returns a contract by name and network.
func (r *Registry) Get(name, network string) (*Entry, error) {
	e, ok := r.contracts[key(name, network)]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrContractNotFound, name, network)
	}
	return e, nil
}

// All returns all registered contracts sorted by network, then name.
func (r *Registry) All() []*Entry {
	out := make([]*Entry, 0, len(r.contracts))
	for _, e := range r.contracts {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Network != out[j].Network {
			return out[i].Network < out[j].Network
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.contracts) }

func key(name, network string) string {
	return name + "@" + network
}

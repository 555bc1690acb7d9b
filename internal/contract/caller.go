package contract

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/savingctl/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"
)

// Caller calls read-only (view/pure) contract functions.
type Caller struct {
	client *chain.EVMClient
	abi    abi.ABI
}

// NewCaller creates a Caller for a contract described by entries.
func NewCaller(client *chain.EVMClient, entries []ABIEntry) (*Caller, error) {
	parsed, err := BuildABI(entries)
	if err != nil {
		return nil, err
	}
	return &Caller{client: client, abi: parsed}, nil
}

// ABI returns the parsed contract ABI.
func (c *Caller) ABI() abi.ABI { return c.abi }

// Call calls a read function on a contract and returns its decoded outputs.
// Arguments use go-ethereum's Go types (common.Address, *big.Int, ...).
func (c *Caller) Call(ctx context.Context, contractAddr, method string, args ...any) ([]any, error) {
	m, ok := c.abi.Methods[method]
	if !ok {
		return nil, fmt.Errorf("function %q not found in ABI", method)
	}
	if !m.IsConstant() {
		return nil, fmt.Errorf("function %q is not a read function (stateMutability: %s)", method, m.StateMutability)
	}

	calldata, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding call to %s: %w", method, err)
	}

	result, err := c.client.CallContract(ctx, contractAddr, hexutil.Encode(calldata))
	if err != nil {
		return nil, err
	}

	raw, err := hexutil.Decode(result)
	if err != nil {
		return nil, &chain.CallError{Method: method, Err: fmt.Errorf("decoding hex result: %w", err)}
	}
	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, &chain.CallError{Method: method, Err: fmt.Errorf("decoding result: %w", err)}
	}
	return out, nil
}

// CallAs calls a single-output read function and converts the result to T.
func CallAs[T any](ctx context.Context, c *Caller, contractAddr, method string, args ...any) (T, error) {
	var zero T
	out, err := c.Call(ctx, contractAddr, method, args...)
	if err != nil {
		return zero, err
	}
	if len(out) != 1 {
		return zero, &chain.CallError{Method: method, Err: fmt.Errorf("expected 1 output, got %d", len(out))}
	}
	v, err := Convert[T](out[0])
	if err != nil {
		return zero, &chain.CallError{Method: method, Err: err}
	}
	return v, nil
}

// Convert turns an unpacked ABI value into T. Structs are matched field by
// field in declaration order.
func Convert[T any](in any) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cannot convert %T to %T: %v", in, v, r)
		}
	}()
	if in == nil {
		return v, fmt.Errorf("cannot convert nil to %T", v)
	}
	p, ok := abi.ConvertType(in, new(T)).(*T)
	if !ok {
		return v, fmt.Errorf("cannot convert %T to %T", in, v)
	}
	return *p, nil
}

// BuildABI turns ABI entries into a go-ethereum ABI.
func BuildABI(entries []ABIEntry) (abi.ABI, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return abi.ABI{}, err
	}
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("invalid ABI: %w", err)
	}
	return parsed, nil
}

// Signature returns the canonical signature, e.g. "getPlan(uint256)".
func Signature(e ABIEntry) string {
	types := make([]string, len(e.Inputs))
	for i, p := range e.Inputs {
		types[i] = canonicalType(p)
	}
	return e.Name + "(" + strings.Join(types, ",") + ")"
}

// Selector computes the 4-byte selector of a function or error.
func Selector(e ABIEntry) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(Signature(e)))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}

// canonicalType expands tuples into their component list.
func canonicalType(p ABIParam) string {
	if !strings.HasPrefix(p.Type, "tuple") {
		return p.Type
	}
	parts := make([]string, len(p.Components))
	for i, c := range p.Components {
		parts[i] = canonicalType(c)
	}
	return "(" + strings.Join(parts, ",") + ")" + strings.TrimPrefix(p.Type, "tuple")
}
